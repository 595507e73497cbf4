package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nOngMolZ/esaraban-sub000/internal/entity"
	"github.com/nOngMolZ/esaraban-sub000/internal/repository"
)

// RegistryService 公文登记册导出服务
type RegistryService struct {
	repos *repository.Repositories
}

func NewRegistryService(repos *repository.Repositories) *RegistryService {
	return &RegistryService{repos: repos}
}

var registryHeaders = []string{
	"序号", "编号", "标题", "状态", "当前步骤", "发起人", "公开范围", "发起时间", "完成时间",
}

var trailHeaders = []string{
	"步骤", "角色", "经办人", "结果", "签署时间", "驳回原因",
}

// ExportRegistry 导出公文登记册xlsx，status 为空时导出全部
func (s *RegistryService) ExportRegistry(ctx context.Context, status entity.DocumentStatus) (*excelize.File, string, error) {
	docs, err := s.repos.Document.List(ctx, status)
	if err != nil {
		return nil, "", fmt.Errorf("查询公文失败: %w", err)
	}

	f := excelize.NewFile()
	sheet := "公文登记册"
	f.SetSheetName("Sheet1", sheet)

	// 表头样式: 加粗
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range registryHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for rowIdx, doc := range docs {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), rowIdx+1)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), doc.Code)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), doc.Title)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), string(doc.Status))
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), doc.CurrentStep)
		if doc.Submitter != nil {
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), doc.Submitter.Name)
		} else {
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), doc.SubmittedBy)
		}
		access := "受限"
		if doc.IsPublic {
			access = "公开"
		}
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), access)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), doc.CreatedAt.Format("2006-01-02 15:04"))
		if doc.CompletedAt != nil {
			f.SetCellValue(sheet, fmt.Sprintf("I%d", row), doc.CompletedAt.Format("2006-01-02 15:04"))
		}
	}

	colWidths := []float64{6, 14, 30, 22, 10, 14, 10, 18, 18}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("公文登记册_%s.xlsx", time.Now().Format("20060102"))
	return f, filename, nil
}

// ExportApprovalTrail 导出单份公文的流转轨迹xlsx
func (s *RegistryService) ExportApprovalTrail(ctx context.Context, documentID string) (*excelize.File, string, error) {
	doc, err := s.repos.Document.FindByID(ctx, documentID)
	if err != nil {
		return nil, "", err
	}
	records, err := s.repos.Approval.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, "", fmt.Errorf("查询审批记录失败: %w", err)
	}

	f := excelize.NewFile()
	sheet := "流转轨迹"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})

	for i, h := range trailHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for rowIdx, record := range records {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), record.Step)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), record.RoleCategory)
		if record.User != nil {
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), record.User.Name)
		} else {
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), record.UserID)
		}
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), record.Status)
		if record.SignedAt != nil {
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), record.SignedAt.Format("2006-01-02 15:04"))
		}
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), record.RejectionReason)
	}

	filename := fmt.Sprintf("流转轨迹_%s_%s.xlsx", doc.Code, time.Now().Format("20060102"))
	return f, filename, nil
}
