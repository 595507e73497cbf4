package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/nOngMolZ/esaraban-sub000/internal/entity"
)

// ApprovalRepository 审批记录数据访问
type ApprovalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// Create 创建审批记录
func (r *ApprovalRepository) Create(ctx context.Context, record *entity.ApprovalRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// CreateTx 在事务内创建审批记录
func (r *ApprovalRepository) CreateTx(tx *gorm.DB, record *entity.ApprovalRecord) error {
	return tx.Create(record).Error
}

// ClaimWaiting 在事务内认领待处理的审批记录
//
// 只有 status 仍为 waiting 的行才会被更新，并发的第二个请求
// 会因为 RowsAffected == 0 而失败，由调用方转换为权限错误。
func (r *ApprovalRepository) ClaimWaiting(tx *gorm.DB, documentID, userID string, step int, updates map[string]interface{}) (bool, error) {
	result := tx.Model(&entity.ApprovalRecord{}).
		Where("document_id = ? AND user_id = ? AND step = ? AND status = ?",
			documentID, userID, step, entity.ApprovalStatusWaiting).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindWaiting 查找某用户在某步骤的待处理记录
func (r *ApprovalRepository) FindWaiting(ctx context.Context, documentID, userID string, step int) (*entity.ApprovalRecord, error) {
	var record entity.ApprovalRecord
	err := r.db.WithContext(ctx).
		Where("document_id = ? AND user_id = ? AND step = ? AND status = ?",
			documentID, userID, step, entity.ApprovalStatusWaiting).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// CountWaitingAtStep 统计某步骤剩余的待处理记录数
func (r *ApprovalRepository) CountWaitingAtStep(ctx context.Context, documentID string, step int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ApprovalRecord{}).
		Where("document_id = ? AND step = ? AND status = ?",
			documentID, step, entity.ApprovalStatusWaiting).
		Count(&count).Error
	return count, err
}

// ListByDocument 按步骤顺序列出公文的全部审批记录
func (r *ApprovalRepository) ListByDocument(ctx context.Context, documentID string) ([]entity.ApprovalRecord, error) {
	var records []entity.ApprovalRecord
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("document_id = ?", documentID).
		Order("step ASC, signing_order ASC, created_at ASC").
		Find(&records).Error
	return records, err
}

// ListWaitingByUser 列出某用户名下全部待处理记录
func (r *ApprovalRepository) ListWaitingByUser(ctx context.Context, userID string) ([]entity.ApprovalRecord, error) {
	var records []entity.ApprovalRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, entity.ApprovalStatusWaiting).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}
