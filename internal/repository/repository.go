package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	Document *DocumentRepository
	Approval *ApprovalRepository
	Approver *ApproverRepository
	Stamp    *StampRepository
	User     *UserRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Document: NewDocumentRepository(db),
		Approval: NewApprovalRepository(db),
		Approver: NewApproverRepository(db),
		Stamp:    NewStampRepository(db),
		User:     NewUserRepository(db),
	}
}
