package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/nOngMolZ/esaraban-sub000/internal/entity"
	"github.com/nOngMolZ/esaraban-sub000/internal/testutil"
)

func TestResolveActivePrefersLowestPriority(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	testutil.SeedUser(t, db, "u-backup", "候补")
	testutil.SeedUser(t, db, "u-primary", "首选")
	testutil.SeedApprover(t, db, entity.RoleDirector, "u-backup", 2, true)
	testutil.SeedApprover(t, db, entity.RoleDirector, "u-primary", 1, true)

	approver, err := repos.Approver.ResolveActive(ctx, entity.RoleDirector)
	if err != nil {
		t.Fatalf("ResolveActive: %v", err)
	}
	if approver.UserID != "u-primary" {
		t.Errorf("resolved = %s, want u-primary", approver.UserID)
	}
}

func TestResolveActiveSkipsInactive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	testutil.SeedApprover(t, db, entity.RoleDirector, "u-retired", 1, false)
	testutil.SeedApprover(t, db, entity.RoleDirector, "u-active", 5, true)

	approver, err := repos.Approver.ResolveActive(ctx, entity.RoleDirector)
	if err != nil {
		t.Fatalf("ResolveActive: %v", err)
	}
	if approver.UserID != "u-active" {
		t.Errorf("resolved = %s, want u-active", approver.UserID)
	}
}

func TestInactiveFlagSurvivesCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	if err := repos.Approver.Create(ctx, &entity.FixedApprover{
		ID:           "fa-retired",
		RoleCategory: entity.RoleDirector,
		UserID:       "u-retired",
		IsActive:     false,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var approver entity.FixedApprover
	if err := db.First(&approver, "id = ?", "fa-retired").Error; err != nil {
		t.Fatalf("read back: %v", err)
	}
	if approver.IsActive {
		t.Error("is_active = true after creating with false")
	}

	if err := repos.Stamp.CreateCatalogStamp(ctx, &entity.CatalogStamp{
		ID:        "st-retired",
		Name:      "作废章",
		ImagePath: "stamps/retired.png",
		IsActive:  false,
	}); err != nil {
		t.Fatalf("CreateCatalogStamp: %v", err)
	}

	var stamp entity.CatalogStamp
	if err := db.First(&stamp, "id = ?", "st-retired").Error; err != nil {
		t.Fatalf("read back: %v", err)
	}
	if stamp.IsActive {
		t.Error("is_active = true after creating stamp with false")
	}
}

func TestResolveActiveEmptyRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)

	_, err := repos.Approver.ResolveActive(context.Background(), entity.RoleViceDirector)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestClaimWaitingIsSingleShot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)

	testutil.SeedUser(t, db, "u-sub", "发起人")
	testutil.SeedUser(t, db, "u-vice", "副所长")
	doc := testutil.SeedDocument(t, db, "u-sub", entity.DocumentStatusPendingVice)
	testutil.SeedRecord(t, db, doc.ID, "u-vice", 1, entity.RoleViceDirector, entity.ApprovalStatusWaiting)

	updates := map[string]interface{}{"status": entity.ApprovalStatusSigned}

	claimed, err := repos.Approval.ClaimWaiting(db, doc.ID, "u-vice", 1, updates)
	if err != nil || !claimed {
		t.Fatalf("first claim = %v, %v; want true, nil", claimed, err)
	}

	// 同一条记录只能被认领一次
	claimed, err = repos.Approval.ClaimWaiting(db, doc.ID, "u-vice", 1, updates)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if claimed {
		t.Error("second claim succeeded, want failure")
	}
}

func TestAttachViewerIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	testutil.SeedUser(t, db, "u-sub", "发起人")
	doc := testutil.SeedDocument(t, db, "u-sub", entity.DocumentStatusCompleted)

	if err := repos.Document.AttachViewer(db, doc.ID, "u-reader"); err != nil {
		t.Fatalf("AttachViewer: %v", err)
	}
	if err := repos.Document.AttachViewer(db, doc.ID, "u-reader"); err != nil {
		t.Fatalf("AttachViewer twice: %v", err)
	}

	viewers, err := repos.Document.ListViewers(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListViewers: %v", err)
	}
	if len(viewers) != 1 {
		t.Errorf("viewers = %d, want 1", len(viewers))
	}
}
