package entity

import "fmt"

// DocumentStatus 公文流转状态
// 固定7步流水线，外加三个驳回终态。
type DocumentStatus string

const (
	// DocumentStatusDraft 草稿，尚未进入审批流
	DocumentStatusDraft DocumentStatus = "draft"
	// DocumentStatusPendingVice 第1步：待副所长签批
	DocumentStatusPendingVice DocumentStatus = "pending_vice_approval"
	// DocumentStatusPendingDirector 第2步：待所长签批
	DocumentStatusPendingDirector DocumentStatus = "pending_director_approval"
	// DocumentStatusPendingDistribution 第3步：待分发盖章人员
	DocumentStatusPendingDistribution DocumentStatus = "pending_distribution"
	// DocumentStatusPendingStamping 第4步：待盖章
	DocumentStatusPendingStamping DocumentStatus = "pending_stamping"
	// DocumentStatusPendingFinal 第5步：待指定审批人终签
	DocumentStatusPendingFinal DocumentStatus = "pending_final_approval"
	// DocumentStatusPendingRelease 第6步：待发起人确认发布范围
	DocumentStatusPendingRelease DocumentStatus = "pending_release_review"
	// DocumentStatusCompleted 第7步：已完成，不可再变更
	DocumentStatusCompleted DocumentStatus = "completed"

	// 驳回终态（仅第1、2、5步可驳回）
	DocumentStatusRejectedByVice     DocumentStatus = "rejected_by_vice"
	DocumentStatusRejectedByDirector DocumentStatus = "rejected_by_director"
	DocumentStatusRejectedByFinal    DocumentStatus = "rejected_by_final_approver"
)

// 审批角色类别
const (
	RoleViceDirector  = "vice_director"
	RoleDirector      = "director"
	RoleStamping      = "stamping"
	RoleFinalApprover = "final_approver"
)

// statusSteps 状态与步骤号的固定对照表
var statusSteps = map[DocumentStatus]int{
	DocumentStatusDraft:               0,
	DocumentStatusPendingVice:         1,
	DocumentStatusPendingDirector:     2,
	DocumentStatusPendingDistribution: 3,
	DocumentStatusPendingStamping:     4,
	DocumentStatusPendingFinal:        5,
	DocumentStatusPendingRelease:      6,
	DocumentStatusCompleted:           7,
	DocumentStatusRejectedByVice:      1,
	DocumentStatusRejectedByDirector:  2,
	DocumentStatusRejectedByFinal:     5,
}

// rejectionTerminals 可驳回状态与其终态的对照表
var rejectionTerminals = map[DocumentStatus]DocumentStatus{
	DocumentStatusPendingVice:     DocumentStatusRejectedByVice,
	DocumentStatusPendingDirector: DocumentStatusRejectedByDirector,
	DocumentStatusPendingFinal:    DocumentStatusRejectedByFinal,
}

// ParseDocumentStatus 校验并解析状态字符串，未知值在边界处直接拒绝
func ParseDocumentStatus(s string) (DocumentStatus, error) {
	st := DocumentStatus(s)
	if _, ok := statusSteps[st]; !ok {
		return "", fmt.Errorf("未知的公文状态: %q", s)
	}
	return st, nil
}

// Step 返回该状态对应的步骤号（草稿为0，驳回终态返回被驳回的步骤号）
func (s DocumentStatus) Step() int {
	return statusSteps[s]
}

// Terminal 是否为终态（完成或驳回）
func (s DocumentStatus) Terminal() bool {
	switch s {
	case DocumentStatusCompleted,
		DocumentStatusRejectedByVice,
		DocumentStatusRejectedByDirector,
		DocumentStatusRejectedByFinal:
		return true
	}
	return false
}

// Rejectable 该状态下能否驳回
func (s DocumentStatus) Rejectable() bool {
	_, ok := rejectionTerminals[s]
	return ok
}

// RejectionTerminal 返回驳回后进入的终态
func (s DocumentStatus) RejectionTerminal() (DocumentStatus, bool) {
	t, ok := rejectionTerminals[s]
	return t, ok
}
