package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nOngMolZ/esaraban-sub000/internal/compositor"
	"github.com/nOngMolZ/esaraban-sub000/internal/entity"
	"github.com/nOngMolZ/esaraban-sub000/internal/notify"
	"github.com/nOngMolZ/esaraban-sub000/internal/repository"
	"github.com/nOngMolZ/esaraban-sub000/internal/storage"
)

// 审批动作
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Compositor 页面合成器接口，测试时可替换为桩实现
type Compositor interface {
	Composite(ctx context.Context, documentID, sourcePath string, artifacts []compositor.Artifact) (string, error)
}

// WorkflowService 公文流转服务
//
// 所有状态迁移都在单个数据库事务内完成；通知在事务提交后
// 尽力投递，失败只记日志不回滚。
type WorkflowService struct {
	db    *gorm.DB
	repos *repository.Repositories
	comp  Compositor
	store storage.Store
	sink  notify.Sink
	log   *zap.Logger
}

// NewWorkflowService 创建公文流转服务
func NewWorkflowService(
	db *gorm.DB,
	repos *repository.Repositories,
	comp Compositor,
	store storage.Store,
	sink notify.Sink,
	log *zap.Logger,
) *WorkflowService {
	return &WorkflowService{
		db:    db,
		repos: repos,
		comp:  comp,
		store: store,
		sink:  sink,
		log:   log,
	}
}

// DecisionArtifact 签批时携带的签名素材
type DecisionArtifact struct {
	ID        string                  `json:"id"`
	ImageData string                  `json:"image_data" binding:"required"`
	Position  entity.ArtifactPosition `json:"position"`
}

// DecisionRequest 签批请求
type DecisionRequest struct {
	Action          string             `json:"action" binding:"required,oneof=approve reject"`
	Artifacts       []DecisionArtifact `json:"artifacts"`
	RejectionReason string             `json:"rejection_reason"`
}

// StampPlacementInput 单枚印章的放置参数
type StampPlacementInput struct {
	CatalogStampID string                  `json:"catalog_stamp_id" binding:"required"`
	ImageRef       string                  `json:"image_ref"`
	Position       entity.ArtifactPosition `json:"position"`
}

// PlacementRequest 盖章并指定下一审批人的请求
type PlacementRequest struct {
	Placements       []StampPlacementInput `json:"placements"`
	ChosenApproverID string                `json:"chosen_approver_id" binding:"required"`
}

// FinalizeRequest 发布归档请求
type FinalizeRequest struct {
	AccessType string   `json:"access_type" binding:"required,oneof=public restricted"`
	ViewerIDs  []string `json:"viewer_ids"`
}

// Start 发起审批流
//
// 仅发起人可调用，且公文必须处于草稿态，重复发起会被拒绝。
// 解析副所长角色的当前审批人并建立第1步待办。
func (s *WorkflowService) Start(ctx context.Context, documentID, actor string) (*entity.Document, error) {
	approver, err := s.repos.Approver.ResolveActive(ctx, entity.RoleViceDirector)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NoEligibleApproverError{RoleCategory: entity.RoleViceDirector}
		}
		return nil, fmt.Errorf("解析审批人失败: %w", err)
	}

	var msgs []notify.Message
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.repos.Document.FindByIDTx(tx, documentID)
		if err != nil {
			return err
		}
		if doc.Status != entity.DocumentStatusDraft {
			return &InvalidTransitionError{DocumentID: doc.ID, Current: string(doc.Status), Operation: "start"}
		}
		if doc.SubmittedBy != actor {
			return &NotAuthorizedError{DocumentID: doc.ID, UserID: actor, Step: 0}
		}

		record := newRecord(doc.ID, approver.UserID, 1, entity.RoleViceDirector, 1)
		if err := s.repos.Approval.CreateTx(tx, record); err != nil {
			return fmt.Errorf("创建审批记录失败: %w", err)
		}

		updates := map[string]interface{}{
			"status":       entity.DocumentStatusPendingVice,
			"current_step": 1,
			"updated_at":   time.Now(),
		}
		if doc.CurrentFilePath == "" {
			updates["current_file_path"] = doc.FilePath
		}
		if err := tx.Model(&entity.Document{}).Where("id = ?", doc.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("更新公文状态失败: %w", err)
		}

		msgs = append(msgs, notify.Message{
			RecipientID: approver.UserID,
			DocumentID:  doc.ID,
			Event:       "approval_requested",
			Detail:      doc.Title,
			CreatedAt:   time.Now(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, msgs)
	return s.repos.Document.FindByID(ctx, documentID)
}

// RecordDecision 记录签批结果
//
// 操作者必须持有当前步骤的 waiting 记录；驳回直接进入该步骤
// 对应的终态且不再创建后续记录，通过则推进到下一步骤。
// 携带签名素材时先合成新版本再落库，崩溃最多留下孤儿文件，
// 数据库永远不会指向不存在的文件。
func (s *WorkflowService) RecordDecision(ctx context.Context, documentID, actor string, req *DecisionRequest) (*entity.Document, error) {
	if req.Action != DecisionApprove && req.Action != DecisionReject {
		return nil, fmt.Errorf("未知的审批动作: %q", req.Action)
	}

	doc, err := s.repos.Document.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if req.Action == DecisionReject && req.RejectionReason == "" {
		return nil, fmt.Errorf("驳回必须填写原因")
	}

	// 合成在事务外执行，成功后才会把指针写进数据库
	newPath := ""
	if req.Action == DecisionApprove && len(req.Artifacts) > 0 {
		artifacts := make([]compositor.Artifact, 0, len(req.Artifacts))
		for _, a := range req.Artifacts {
			artifacts = append(artifacts, compositor.Artifact{
				Image:    []byte(a.ImageData),
				Position: a.Position,
			})
		}
		newPath, err = s.comp.Composite(ctx, doc.ID, s.sourcePath(doc), artifacts)
		if err != nil {
			return nil, err
		}
	}

	var msgs []notify.Message
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.repos.Document.FindByIDTx(tx, documentID)
		if err != nil {
			return err
		}

		var updates map[string]interface{}
		if req.Action == DecisionReject {
			updates = map[string]interface{}{
				"status":           entity.ApprovalStatusRejected,
				"rejection_reason": req.RejectionReason,
				"updated_at":       time.Now(),
			}
		} else {
			updates = signedUpdates(req.Artifacts)
		}

		claimed, err := s.repos.Approval.ClaimWaiting(tx, doc.ID, actor, doc.CurrentStep, updates)
		if err != nil {
			return fmt.Errorf("更新审批记录失败: %w", err)
		}
		if !claimed {
			return &NotAuthorizedError{DocumentID: doc.ID, UserID: actor, Step: doc.CurrentStep}
		}

		if req.Action == DecisionReject {
			terminal, ok := doc.Status.RejectionTerminal()
			if !ok {
				// 非审批状态下不可能存在 waiting 记录，出现即为数据损坏
				return &InvalidWorkflowStateError{DocumentID: doc.ID, Status: string(doc.Status)}
			}
			if err := s.updateDocument(tx, doc.ID, map[string]interface{}{
				"status": terminal,
			}); err != nil {
				return err
			}
			msgs = append(msgs, notify.Message{
				RecipientID: doc.SubmittedBy,
				DocumentID:  doc.ID,
				Event:       "document_rejected",
				Detail:      req.RejectionReason,
				CreatedAt:   time.Now(),
			})
			return nil
		}

		if newPath != "" {
			if err := s.updateDocument(tx, doc.ID, map[string]interface{}{
				"current_file_path": newPath,
			}); err != nil {
				return err
			}
		}
		return s.advance(tx, doc, &msgs)
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, msgs)
	return s.repos.Document.FindByID(ctx, documentID)
}

// advance 推进到下一步骤，未知状态视为数据损坏
//
// 名册解析走同一事务，避免读到事务边界外的数据。
func (s *WorkflowService) advance(tx *gorm.DB, doc *entity.Document, msgs *[]notify.Message) error {
	switch doc.Status {
	case entity.DocumentStatusPendingVice:
		approver, err := s.repos.Approver.ResolveActiveTx(tx, entity.RoleDirector)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return &NoEligibleApproverError{RoleCategory: entity.RoleDirector}
			}
			return fmt.Errorf("解析审批人失败: %w", err)
		}
		record := newRecord(doc.ID, approver.UserID, 2, entity.RoleDirector, 1)
		if err := s.repos.Approval.CreateTx(tx, record); err != nil {
			return fmt.Errorf("创建审批记录失败: %w", err)
		}
		if err := s.updateDocument(tx, doc.ID, map[string]interface{}{
			"status":       entity.DocumentStatusPendingDirector,
			"current_step": 2,
		}); err != nil {
			return err
		}
		*msgs = append(*msgs, notify.Message{
			RecipientID: approver.UserID,
			DocumentID:  doc.ID,
			Event:       "approval_requested",
			Detail:      doc.Title,
			CreatedAt:   time.Now(),
		})
		return nil

	case entity.DocumentStatusPendingDirector:
		if err := s.updateDocument(tx, doc.ID, map[string]interface{}{
			"status":       entity.DocumentStatusPendingDistribution,
			"current_step": 3,
		}); err != nil {
			return err
		}
		*msgs = append(*msgs, notify.Message{
			RecipientID: doc.SubmittedBy,
			DocumentID:  doc.ID,
			Event:       "distribution_requested",
			Detail:      doc.Title,
			CreatedAt:   time.Now(),
		})
		return nil

	case entity.DocumentStatusPendingFinal:
		if err := s.updateDocument(tx, doc.ID, map[string]interface{}{
			"status":       entity.DocumentStatusPendingRelease,
			"current_step": 6,
		}); err != nil {
			return err
		}
		*msgs = append(*msgs, notify.Message{
			RecipientID: doc.SubmittedBy,
			DocumentID:  doc.ID,
			Event:       "release_review_requested",
			Detail:      doc.Title,
			CreatedAt:   time.Now(),
		})
		return nil
	}

	return &InvalidWorkflowStateError{DocumentID: doc.ID, Status: string(doc.Status)}
}

// Distribute 分发盖章任务
//
// 仅发起人可操作，全部收件人一并建立第4步待办并加入可见人，
// 任一失败整体回滚。
func (s *WorkflowService) Distribute(ctx context.Context, documentID, actor string, recipientIDs []string) (*entity.Document, error) {
	if len(recipientIDs) == 0 {
		return nil, fmt.Errorf("分发名单不能为空")
	}

	// 名单去重，同一人在同一步骤至多一条待办
	seen := make(map[string]struct{}, len(recipientIDs))
	recipients := make([]string, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}

	var msgs []notify.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.repos.Document.FindByIDTx(tx, documentID)
		if err != nil {
			return err
		}
		if doc.Status != entity.DocumentStatusPendingDistribution {
			return &InvalidTransitionError{DocumentID: doc.ID, Current: string(doc.Status), Operation: "distribute"}
		}
		if doc.SubmittedBy != actor {
			return &NotAuthorizedError{DocumentID: doc.ID, UserID: actor, Step: 3}
		}

		for i, recipientID := range recipients {
			if err := s.repos.Document.AttachViewer(tx, doc.ID, recipientID); err != nil {
				return fmt.Errorf("添加可见人失败: %w", err)
			}
			record := newRecord(doc.ID, recipientID, 4, entity.RoleStamping, i+1)
			if err := s.repos.Approval.CreateTx(tx, record); err != nil {
				return fmt.Errorf("创建审批记录失败: %w", err)
			}
			msgs = append(msgs, notify.Message{
				RecipientID: recipientID,
				DocumentID:  doc.ID,
				Event:       "stamping_requested",
				Detail:      doc.Title,
				CreatedAt:   time.Now(),
			})
		}

		return s.updateDocument(tx, doc.ID, map[string]interface{}{
			"status":       entity.DocumentStatusPendingStamping,
			"current_step": 4,
		})
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, msgs)
	return s.repos.Document.FindByID(ctx, documentID)
}

// PlaceStampsAndSelectApprover 盖章并指定终签审批人
//
// 第一个完成盖章的经办人推进流程，其余人的第4步待办保留原样，
// 因步骤号落后于 current_step 而自然失效。
func (s *WorkflowService) PlaceStampsAndSelectApprover(ctx context.Context, documentID, actor string, req *PlacementRequest) (*entity.Document, error) {
	doc, err := s.repos.Document.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != entity.DocumentStatusPendingStamping {
		return nil, &InvalidTransitionError{DocumentID: doc.ID, Current: string(doc.Status), Operation: "place_stamps"}
	}
	if _, err := s.repos.User.FindByID(ctx, req.ChosenApproverID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("指定的审批人不存在: %s", req.ChosenApproverID)
		}
		return nil, err
	}

	artifacts, placements, err := s.resolvePlacements(ctx, doc.ID, actor, req.Placements)
	if err != nil {
		return nil, err
	}

	newPath, err := s.comp.Composite(ctx, doc.ID, s.sourcePath(doc), artifacts)
	if err != nil {
		return nil, err
	}

	var msgs []notify.Message
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.repos.Document.FindByIDTx(tx, documentID)
		if err != nil {
			return err
		}
		if doc.Status != entity.DocumentStatusPendingStamping {
			return &InvalidTransitionError{DocumentID: doc.ID, Current: string(doc.Status), Operation: "place_stamps"}
		}

		now := time.Now()
		claimed, err := s.repos.Approval.ClaimWaiting(tx, doc.ID, actor, 4, map[string]interface{}{
			"status":     entity.ApprovalStatusCompleted,
			"signed_at":  &now,
			"updated_at": now,
		})
		if err != nil {
			return fmt.Errorf("更新审批记录失败: %w", err)
		}
		if !claimed {
			return &NotAuthorizedError{DocumentID: doc.ID, UserID: actor, Step: 4}
		}

		if err := s.repos.Stamp.CreatePlacementsTx(tx, placements); err != nil {
			return fmt.Errorf("保存用印记录失败: %w", err)
		}

		record := newRecord(doc.ID, req.ChosenApproverID, 5, entity.RoleFinalApprover, 1)
		if err := s.repos.Approval.CreateTx(tx, record); err != nil {
			return fmt.Errorf("创建审批记录失败: %w", err)
		}

		if err := s.updateDocument(tx, doc.ID, map[string]interface{}{
			"status":            entity.DocumentStatusPendingFinal,
			"current_step":      5,
			"current_file_path": newPath,
		}); err != nil {
			return err
		}

		msgs = append(msgs, notify.Message{
			RecipientID: req.ChosenApproverID,
			DocumentID:  doc.ID,
			Event:       "approval_requested",
			Detail:      doc.Title,
			CreatedAt:   time.Now(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, msgs)
	return s.repos.Document.FindByID(ctx, documentID)
}

// resolvePlacements 解析用印参数：印章必须在名录中且处于启用状态，
// 素材图像优先取请求内嵌数据，否则读取名录里的印模文件。
func (s *WorkflowService) resolvePlacements(ctx context.Context, documentID, actor string, inputs []StampPlacementInput) ([]compositor.Artifact, []entity.StampPlacement, error) {
	artifacts := make([]compositor.Artifact, 0, len(inputs))
	placements := make([]entity.StampPlacement, 0, len(inputs))

	for _, input := range inputs {
		stamp, err := s.repos.Stamp.FindCatalogStamp(ctx, input.CatalogStampID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, nil, fmt.Errorf("印章不存在: %s", input.CatalogStampID)
			}
			return nil, nil, err
		}
		if !stamp.IsActive {
			return nil, nil, fmt.Errorf("印章已停用: %s", stamp.Name)
		}

		var image []byte
		if input.ImageRef != "" {
			image = []byte(input.ImageRef)
		} else {
			image, err = s.store.Read(ctx, stamp.ImagePath)
			if err != nil {
				return nil, nil, fmt.Errorf("读取印模失败: %w", err)
			}
		}

		artifacts = append(artifacts, compositor.Artifact{
			Image:    image,
			Position: input.Position,
		})
		placements = append(placements, entity.StampPlacement{
			ID:             uuid.New().String(),
			DocumentID:     documentID,
			CatalogStampID: stamp.ID,
			PlacedBy:       actor,
			PageNumber:     input.Position.PageIndex + 1,
			PositionRect:   input.Position,
			CreatedAt:      time.Now(),
		})
	}
	return artifacts, placements, nil
}

// Finalize 确认发布范围并归档
//
// 仅发起人可操作。归档后公文进入终态，任何迁移都不再允许。
func (s *WorkflowService) Finalize(ctx context.Context, documentID, actor string, req *FinalizeRequest) (*entity.Document, error) {
	if req.AccessType != entity.AccessTypePublic && req.AccessType != entity.AccessTypeRestricted {
		return nil, fmt.Errorf("未知的公开范围: %q", req.AccessType)
	}

	var msgs []notify.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.repos.Document.FindByIDTx(tx, documentID)
		if err != nil {
			return err
		}
		if doc.Status != entity.DocumentStatusPendingRelease {
			return &InvalidTransitionError{DocumentID: doc.ID, Current: string(doc.Status), Operation: "finalize"}
		}
		if doc.SubmittedBy != actor {
			return &NotAuthorizedError{DocumentID: doc.ID, UserID: actor, Step: 6}
		}

		now := time.Now()
		if err := s.updateDocument(tx, doc.ID, map[string]interface{}{
			"status":       entity.DocumentStatusCompleted,
			"current_step": 7,
			"access_type":  req.AccessType,
			"is_public":    req.AccessType == entity.AccessTypePublic,
			"completed_at": &now,
		}); err != nil {
			return err
		}

		for _, viewerID := range req.ViewerIDs {
			if err := s.repos.Document.AttachViewer(tx, doc.ID, viewerID); err != nil {
				return fmt.Errorf("添加可见人失败: %w", err)
			}
			msgs = append(msgs, notify.Message{
				RecipientID: viewerID,
				DocumentID:  doc.ID,
				Event:       "document_released",
				Detail:      doc.Title,
				CreatedAt:   time.Now(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, msgs)
	return s.repos.Document.FindByID(ctx, documentID)
}

// CanAct 判断用户当前能否处理该公文
func (s *WorkflowService) CanAct(ctx context.Context, documentID, userID string) (bool, error) {
	doc, err := s.repos.Document.FindByID(ctx, documentID)
	if err != nil {
		return false, err
	}
	if doc.Status.Terminal() {
		return false, nil
	}
	_, err = s.repos.Approval.FindWaiting(ctx, documentID, userID, doc.CurrentStep)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// StatusView 公文流转状态视图
type StatusView struct {
	Document   *entity.Document        `json:"document"`
	Records    []entity.ApprovalRecord `json:"records"`
	Placements []entity.StampPlacement `json:"placements"`
	Viewers    []entity.DocumentViewer `json:"viewers"`
}

// Status 查询公文的完整流转状态
func (s *WorkflowService) Status(ctx context.Context, documentID string) (*StatusView, error) {
	doc, err := s.repos.Document.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	records, err := s.repos.Approval.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	placements, err := s.repos.Stamp.ListPlacementsByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	viewers, err := s.repos.Document.ListViewers(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return &StatusView{Document: doc, Records: records, Placements: placements, Viewers: viewers}, nil
}

// ListCatalogStamps 列出可用的印章名录
func (s *WorkflowService) ListCatalogStamps(ctx context.Context) ([]entity.CatalogStamp, error) {
	return s.repos.Stamp.ListActiveCatalogStamps(ctx)
}

// PendingTasks 列出用户名下仍然有效的待办
//
// 步骤号落后于公文 current_step 的记录已经失效，不再返回。
func (s *WorkflowService) PendingTasks(ctx context.Context, userID string) ([]entity.ApprovalRecord, error) {
	records, err := s.repos.Approval.ListWaitingByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	active := make([]entity.ApprovalRecord, 0, len(records))
	for _, record := range records {
		doc, err := s.repos.Document.FindByID(ctx, record.DocumentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if !doc.Status.Terminal() && doc.CurrentStep == record.Step {
			active = append(active, record)
		}
	}
	return active, nil
}

// sourcePath 取合成输入文件：优先最新修订版，否则原件
func (s *WorkflowService) sourcePath(doc *entity.Document) string {
	if doc.CurrentFilePath != "" {
		return doc.CurrentFilePath
	}
	return doc.FilePath
}

func (s *WorkflowService) updateDocument(tx *gorm.DB, id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	if err := tx.Model(&entity.Document{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("更新公文状态失败: %w", err)
	}
	return nil
}

// dispatch 事务提交后投递通知，失败只记录
func (s *WorkflowService) dispatch(ctx context.Context, msgs []notify.Message) {
	for _, msg := range msgs {
		outcome := s.sink.Deliver(ctx, msg)
		if outcome.Err != nil {
			s.log.Warn("通知投递失败",
				zap.String("recipient_id", msg.RecipientID),
				zap.String("document_id", msg.DocumentID),
				zap.String("event", msg.Event),
				zap.Error(outcome.Err))
		}
	}
}

// newRecord 构造一条 waiting 审批记录
func newRecord(documentID, userID string, step int, role string, order int) *entity.ApprovalRecord {
	now := time.Now()
	return &entity.ApprovalRecord{
		ID:           uuid.New().String(),
		DocumentID:   documentID,
		UserID:       userID,
		Step:         step,
		RoleCategory: role,
		Status:       entity.ApprovalStatusWaiting,
		SigningOrder: order,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// signedUpdates 生成签署通过的记录更新，连同签名痕迹一并落库
func signedUpdates(artifacts []DecisionArtifact) map[string]interface{} {
	now := time.Now()
	updates := map[string]interface{}{
		"status":     entity.ApprovalStatusSigned,
		"signed_at":  &now,
		"updated_at": now,
	}
	if len(artifacts) > 0 {
		data := entity.ArtifactData{}
		for _, a := range artifacts {
			data.Items = append(data.Items, entity.ArtifactItem{
				Ref:      a.ID,
				Position: a.Position,
			})
		}
		updates["artifact_data"] = data
	}
	return updates
}
