package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/nOngMolZ/esaraban-sub000/internal/entity"
)

// ApproverRepository 固定审批人数据访问
type ApproverRepository struct {
	db *gorm.DB
}

func NewApproverRepository(db *gorm.DB) *ApproverRepository {
	return &ApproverRepository{db: db}
}

// ResolveActive 解析某角色当前生效的审批人
//
// 同一角色可能配置多人，按 priority_order 取最靠前且启用的一位。
func (r *ApproverRepository) ResolveActive(ctx context.Context, roleCategory string) (*entity.FixedApprover, error) {
	var approver entity.FixedApprover
	err := r.db.WithContext(ctx).
		Where("role_category = ? AND is_active = ?", roleCategory, true).
		Order("priority_order ASC").
		First(&approver).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &approver, nil
}

// ResolveActiveTx 在事务内解析某角色当前生效的审批人
//
// 流转推进时审批人名册必须与状态变更读自同一事务。
func (r *ApproverRepository) ResolveActiveTx(tx *gorm.DB, roleCategory string) (*entity.FixedApprover, error) {
	var approver entity.FixedApprover
	err := tx.
		Where("role_category = ? AND is_active = ?", roleCategory, true).
		Order("priority_order ASC").
		First(&approver).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &approver, nil
}

// ListByRole 列出某角色的全部审批人配置
func (r *ApproverRepository) ListByRole(ctx context.Context, roleCategory string) ([]entity.FixedApprover, error) {
	var approvers []entity.FixedApprover
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("role_category = ?", roleCategory).
		Order("priority_order ASC").
		Find(&approvers).Error
	return approvers, err
}

// Create 创建审批人配置
func (r *ApproverRepository) Create(ctx context.Context, approver *entity.FixedApprover) error {
	return r.db.WithContext(ctx).Create(approver).Error
}
