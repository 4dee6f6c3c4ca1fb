package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"

	"familyfinance/models"
	"familyfinance/repository"
	"familyfinance/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	exportTimeLayout = "2006-01-02 15:04:05"
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportHandler 交易导出处理器
type ExportHandler struct {
	repo repository.Repository
}

// NewExportHandler 创建导出处理器
func NewExportHandler(repo repository.Repository) *ExportHandler {
	return &ExportHandler{repo: repo}
}

var exportHeaders = []string{"ID", "Date", "Type", "Category", "Description", "Amount", "Member"}

func exportRow(tx models.Transaction) []string {
	member := ""
	if tx.MemberID != nil {
		member = *tx.MemberID
	}
	return []string{
		tx.ID,
		tx.Date.Format(exportTimeLayout),
		tx.Type,
		tx.Category,
		tx.Description,
		tx.Amount.StringFixed(2),
		member,
	}
}

// Export 导出某月交易
// @Summary 导出交易
// @Description 导出某月全部交易为 CSV 或 Excel 文件
// @Tags 导出
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "家庭ID"
// @Param month query string true "月份 (2024-11)"
// @Param format query string false "csv | xlsx，默认 csv"
// @Success 200 {file} file "导出文件"
// @Failure 400 {object} ErrorResponse "请求参数错误"
// @Failure 500 {object} ErrorResponse
// @Router /api/family/{id}/transactions/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	month := c.Query("month")
	if !validMonth(month) {
		BadRequest(c, "Invalid month, expected YYYY-MM")
		return
	}
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		BadRequest(c, "Unsupported export format")
		return
	}

	familyID := c.Param("id")
	txs, err := service.MonthTransactions(c.Request.Context(), h.repo, familyID, month)
	if err != nil {
		_ = c.Error(err)
		InternalError(c, SafeErrorMessage(err, "Failed to export transactions"))
		return
	}

	filename := fmt.Sprintf("transactions_%s_%s.%s", familyID, month, format)
	if format == "xlsx" {
		h.writeXLSX(c, filename, txs)
		return
	}
	h.writeCSV(c, filename, txs)
}

func (h *ExportHandler) writeCSV(c *gin.Context, filename string, txs []models.Transaction) {
	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 打开
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)
	if err := writer.Write(exportHeaders); err != nil {
		InternalError(c, "Failed to export transactions")
		return
	}
	for _, tx := range txs {
		if err := writer.Write(exportRow(tx)); err != nil {
			InternalError(c, "Failed to export transactions")
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, "Failed to export transactions")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *ExportHandler) writeXLSX(c *gin.Context, filename string, txs []models.Transaction) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Transactions"
	f.SetSheetName("Sheet1", sheetName)

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "center"},
		Border:    border,
	})
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Border: border,
	})

	f.SetColWidth(sheetName, "A", "A", 38)
	f.SetColWidth(sheetName, "B", "B", 20)
	f.SetColWidth(sheetName, "C", "D", 14)
	f.SetColWidth(sheetName, "E", "E", 30)
	f.SetColWidth(sheetName, "F", "F", 14)
	f.SetColWidth(sheetName, "G", "G", 38)

	for i, header := range exportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	totalExpense := decimal.Zero
	for i, tx := range txs {
		row := i + 2
		for col, value := range exportRow(tx) {
			cell := fmt.Sprintf("%c%d", 'A'+col, row)
			if col == 5 {
				amount, _ := tx.Amount.Float64()
				f.SetCellValue(sheetName, cell, amount)
				continue
			}
			f.SetCellValue(sheetName, cell, value)
		}
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), dataStyle)
		if tx.IsExpense() {
			totalExpense = totalExpense.Add(tx.Amount)
		}
	}

	// 汇总行：支出合计
	summaryRow := len(txs) + 2
	total, _ := totalExpense.Float64()
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow), "Total expenses")
	f.MergeCell(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("E%d", summaryRow))
	f.SetCellValue(sheetName, fmt.Sprintf("F%d", summaryRow), total)
	f.SetCellValue(sheetName, fmt.Sprintf("G%d", summaryRow), fmt.Sprintf("%d transactions", len(txs)))
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("G%d", summaryRow), summaryStyle)

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
		InternalError(c, "Failed to export transactions")
	}
}
