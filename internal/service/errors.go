package service

import "fmt"

// NotAuthorizedError 操作者没有当前步骤的待处理记录
//
// 覆盖"已处理过"和"步骤不符"两种情况，不区分错误码。
type NotAuthorizedError struct {
	DocumentID string
	UserID     string
	Step       int
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("用户 %s 无权处理公文 %s 的第 %d 步", e.UserID, e.DocumentID, e.Step)
}

// InvalidTransitionError 公文状态不满足操作前置条件
type InvalidTransitionError struct {
	DocumentID string
	Current    string
	Operation  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("公文 %s 当前状态 %s 不允许执行 %s", e.DocumentID, e.Current, e.Operation)
}

// NoEligibleApproverError 角色下没有可用的审批人
type NoEligibleApproverError struct {
	RoleCategory string
}

func (e *NoEligibleApproverError) Error() string {
	return fmt.Sprintf("角色 %s 没有可用的审批人", e.RoleCategory)
}

// InvalidWorkflowStateError 状态机遇到无法推进的状态
type InvalidWorkflowStateError struct {
	DocumentID string
	Status     string
}

func (e *InvalidWorkflowStateError) Error() string {
	return fmt.Sprintf("公文 %s 处于无法推进的状态 %s", e.DocumentID, e.Status)
}
