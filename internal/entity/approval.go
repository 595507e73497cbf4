package entity

import "time"

// 审批记录状态常量
const (
	ApprovalStatusWaiting   = "waiting"
	ApprovalStatusSigned    = "signed"
	ApprovalStatusCompleted = "completed"
	ApprovalStatusRejected  = "rejected"
)

// ApprovalRecord 审批记录：某人在某一步骤上的待办/已办
// 不变量：同一公文在任意时刻，step 等于 Document.CurrentStep 且
// status=waiting 的记录即为当前待办。
type ApprovalRecord struct {
	ID           string `json:"id" gorm:"primaryKey;size:36"`
	DocumentID   string `json:"document_id" gorm:"size:36;not null;index"`
	UserID       string `json:"user_id" gorm:"size:36;not null;index"`
	Step         int    `json:"step" gorm:"not null"`
	RoleCategory string `json:"role_category" gorm:"size:32;not null"`
	Status       string `json:"status" gorm:"size:20;not null;default:'waiting'"`

	SigningOrder    int          `json:"signing_order" gorm:"default:0"`
	SignedAt        *time.Time   `json:"signed_at"`
	RejectionReason string       `json:"rejection_reason" gorm:"type:text"`
	ArtifactData    ArtifactData `json:"artifact_data" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (ApprovalRecord) TableName() string {
	return "approval_records"
}

// FixedApprover 固定审批人名册：角色到用户的带优先级绑定
// 同一角色下取 is_active 且 priority_order 最小者。
type FixedApprover struct {
	ID            string    `json:"id" gorm:"primaryKey;size:36"`
	RoleCategory  string    `json:"role_category" gorm:"size:32;not null;index"`
	UserID        string    `json:"user_id" gorm:"size:36;not null"`
	PriorityOrder int       `json:"priority_order" gorm:"not null;default:0"`
	// default 标签会让 gorm 在插入时丢弃 false 零值，禁用位必须原样落库
	IsActive      bool      `json:"is_active" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// 关联
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (FixedApprover) TableName() string {
	return "fixed_approvers"
}
