package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nOngMolZ/esaraban-sub000/internal/service"
)

// WorkflowHandler 公文流转接口
type WorkflowHandler struct {
	svc *service.WorkflowService
}

func NewWorkflowHandler(svc *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{svc: svc}
}

// Start POST /documents/:id/start
func (h *WorkflowHandler) Start(c *gin.Context) {
	doc, err := h.svc.Start(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, doc)
}

// Decide POST /documents/:id/decision
func (h *WorkflowHandler) Decide(c *gin.Context) {
	var req service.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	doc, err := h.svc.RecordDecision(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, doc)
}

// DistributeRequest 分发请求体
type DistributeRequest struct {
	RecipientIDs []string `json:"recipient_ids" binding:"required,min=1"`
}

// Distribute POST /documents/:id/distribute
func (h *WorkflowHandler) Distribute(c *gin.Context) {
	var req DistributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	doc, err := h.svc.Distribute(c.Request.Context(), c.Param("id"), GetUserID(c), req.RecipientIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, doc)
}

// PlaceStamps POST /documents/:id/stamps
func (h *WorkflowHandler) PlaceStamps(c *gin.Context) {
	var req service.PlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	doc, err := h.svc.PlaceStampsAndSelectApprover(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, doc)
}

// Finalize POST /documents/:id/finalize
func (h *WorkflowHandler) Finalize(c *gin.Context) {
	var req service.FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	doc, err := h.svc.Finalize(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, doc)
}

// Status GET /documents/:id/workflow
func (h *WorkflowHandler) Status(c *gin.Context) {
	view, err := h.svc.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, view)
}

// ListStamps GET /stamps
func (h *WorkflowHandler) ListStamps(c *gin.Context) {
	stamps, err := h.svc.ListCatalogStamps(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, stamps)
}

// PendingTasks GET /todos
func (h *WorkflowHandler) PendingTasks(c *gin.Context) {
	records, err := h.svc.PendingTasks(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, records)
}

// CanAct GET /documents/:id/can-act
func (h *WorkflowHandler) CanAct(c *gin.Context) {
	canAct, err := h.svc.CanAct(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, gin.H{"can_act": canAct})
}
