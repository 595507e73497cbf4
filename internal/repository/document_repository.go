package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nOngMolZ/esaraban-sub000/internal/entity"
)

// DocumentRepository 公文仓库
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建公文仓库
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// FindByID 根据ID查找公文
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*entity.Document, error) {
	var doc entity.Document
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// FindByIDTx 在事务内按ID查找公文
func (r *DocumentRepository) FindByIDTx(tx *gorm.DB, id string) (*entity.Document, error) {
	var doc entity.Document
	err := tx.Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// Create 创建公文
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// ListByStatus 按状态列出公文
func (r *DocumentRepository) ListByStatus(ctx context.Context, statuses []entity.DocumentStatus) ([]entity.Document, error) {
	var docs []entity.Document
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("updated_at DESC").
		Find(&docs).Error
	return docs, err
}

// List 列出公文，status 为空时不过滤
func (r *DocumentRepository) List(ctx context.Context, status entity.DocumentStatus) ([]entity.Document, error) {
	var docs []entity.Document
	query := r.db.WithContext(ctx).Preload("Submitter")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("created_at ASC").Find(&docs).Error
	return docs, err
}

// AttachViewer 附加可见人，已存在则跳过（幂等）
func (r *DocumentRepository) AttachViewer(tx *gorm.DB, documentID, userID string) error {
	var existing entity.DocumentViewer
	err := tx.Where("document_id = ? AND user_id = ?", documentID, userID).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return tx.Create(&entity.DocumentViewer{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		UserID:     userID,
		CreatedAt:  time.Now(),
	}).Error
}

// ListViewers 列出公文可见人
func (r *DocumentRepository) ListViewers(ctx context.Context, documentID string) ([]entity.DocumentViewer, error) {
	var viewers []entity.DocumentViewer
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Find(&viewers).Error
	return viewers, err
}
