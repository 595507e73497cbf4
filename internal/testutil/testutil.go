package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nOngMolZ/esaraban-sub000/internal/entity"
	"github.com/nOngMolZ/esaraban-sub000/internal/middleware"
)

const JWTSecret = "esaraban-test-jwt-secret"

// SetupTestDB 打开内存sqlite并建好全部表
//
// 限制单连接，避免内存库在连接池下表互不可见。
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&entity.User{},
		&entity.Document{},
		&entity.DocumentViewer{},
		&entity.ApprovalRecord{},
		&entity.FixedApprover{},
		&entity.CatalogStamp{},
		&entity.StampPlacement{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

// SetupRouter 创建测试用gin路由
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup 创建带JWT认证的路由组
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken 签发测试JWT
func GenerateTestToken(userID, name string, roles []string) string {
	if roles == nil {
		roles = []string{}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": userID + "@test.local",
		"roles": roles,
		"iss":   "esaraban",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DoRequest 对测试路由发起HTTP请求
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse 解析响应JSON
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedUser 预置测试用户
func SeedUser(t *testing.T, db *gorm.DB, id, name string) *entity.User {
	t.Helper()
	user := &entity.User{
		ID:        id,
		Username:  "user_" + id,
		Name:      name,
		Email:     id + "@test.local",
		Status:    "active",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed test user: %v", err)
	}
	return user
}

// SeedDocument 预置公文
func SeedDocument(t *testing.T, db *gorm.DB, submittedBy string, status entity.DocumentStatus) *entity.Document {
	t.Helper()
	doc := &entity.Document{
		ID:              uuid.New().String(),
		Code:            "DOC-" + uuid.New().String()[:8],
		Title:           "测试公文",
		Status:          status,
		CurrentStep:     status.Step(),
		FilePath:        "documents/source.pdf",
		CurrentFilePath: "documents/source.pdf",
		SubmittedBy:     submittedBy,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if err := db.Create(doc).Error; err != nil {
		t.Fatalf("Failed to seed test document: %v", err)
	}
	return doc
}

// SeedApprover 预置固定审批人
func SeedApprover(t *testing.T, db *gorm.DB, role, userID string, priority int, active bool) *entity.FixedApprover {
	t.Helper()
	approver := &entity.FixedApprover{
		ID:            uuid.New().String(),
		RoleCategory:  role,
		UserID:        userID,
		PriorityOrder: priority,
		IsActive:      active,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := db.Create(approver).Error; err != nil {
		t.Fatalf("Failed to seed test approver: %v", err)
	}
	return approver
}

// SeedRecord 预置审批记录
func SeedRecord(t *testing.T, db *gorm.DB, documentID, userID string, step int, role, status string) *entity.ApprovalRecord {
	t.Helper()
	record := &entity.ApprovalRecord{
		ID:           uuid.New().String(),
		DocumentID:   documentID,
		UserID:       userID,
		Step:         step,
		RoleCategory: role,
		Status:       status,
		SigningOrder: 1,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("Failed to seed test record: %v", err)
	}
	return record
}

// SeedStamp 预置印章
func SeedStamp(t *testing.T, db *gorm.DB, name string, active bool) *entity.CatalogStamp {
	t.Helper()
	stamp := &entity.CatalogStamp{
		ID:        uuid.New().String(),
		Name:      name,
		ImagePath: "stamps/" + name + ".png",
		IsActive:  active,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(stamp).Error; err != nil {
		t.Fatalf("Failed to seed test stamp: %v", err)
	}
	return stamp
}
