package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/nOngMolZ/esaraban-sub000/internal/compositor"
	"github.com/nOngMolZ/esaraban-sub000/internal/repository"
	"github.com/nOngMolZ/esaraban-sub000/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Workflow *WorkflowHandler
	Registry *RegistryHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Workflow: NewWorkflowHandler(svc.Workflow),
		Registry: NewRegistryHandler(svc.Registry),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 状态冲突响应
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// respondError 将服务层的类型化错误映射为响应码
func respondError(c *gin.Context, err error) {
	var (
		notAuthorized  *service.NotAuthorizedError
		badTransition  *service.InvalidTransitionError
		noApprover     *service.NoEligibleApproverError
		brokenWorkflow *service.InvalidWorkflowStateError
		compositionErr *compositor.CompositionError
	)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "资源不存在")
	case errors.As(err, &notAuthorized):
		Forbidden(c, err.Error())
	case errors.As(err, &badTransition):
		Conflict(c, err.Error())
	case errors.As(err, &noApprover):
		Error(c, 42200, err.Error())
	case errors.As(err, &brokenWorkflow):
		InternalError(c, err.Error())
	case errors.As(err, &compositionErr):
		InternalError(c, err.Error())
	default:
		BadRequest(c, err.Error())
	}
}
