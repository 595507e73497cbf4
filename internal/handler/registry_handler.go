package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nOngMolZ/esaraban-sub000/internal/entity"
	"github.com/nOngMolZ/esaraban-sub000/internal/service"
	"github.com/xuri/excelize/v2"
)

// RegistryHandler 登记册导出接口
type RegistryHandler struct {
	svc *service.RegistryService
}

func NewRegistryHandler(svc *service.RegistryService) *RegistryHandler {
	return &RegistryHandler{svc: svc}
}

// ExportRegistry GET /registry/export?status=completed
func (h *RegistryHandler) ExportRegistry(c *gin.Context) {
	var status entity.DocumentStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := entity.ParseDocumentStatus(raw)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		status = parsed
	}

	f, filename, err := h.svc.ExportRegistry(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	writeXLSX(c, f, filename)
}

// ExportTrail GET /documents/:id/trail
func (h *RegistryHandler) ExportTrail(c *gin.Context) {
	f, filename, err := h.svc.ExportApprovalTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	writeXLSX(c, f, filename)
}

func writeXLSX(c *gin.Context, f *excelize.File, filename string) {
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}
