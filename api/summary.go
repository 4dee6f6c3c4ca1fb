package api

import (
	"errors"
	"time"

	"familyfinance/models"
	"familyfinance/repository"
	"familyfinance/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// SummaryHandler 家庭月度汇总
type SummaryHandler struct {
	repo repository.Repository
	now  func() time.Time
}

// NewSummaryHandler 创建月度汇总处理器
func NewSummaryHandler(repo repository.Repository) *SummaryHandler {
	return &SummaryHandler{repo: repo, now: time.Now}
}

// MonthlySummaryResponse 月度收支汇总
type MonthlySummaryResponse struct {
	Month             string                     `json:"month" example:"2024-11"`
	TotalIncome       decimal.Decimal            `json:"totalIncome" swaggertype:"string" example:"120000"`
	TotalExpense      decimal.Decimal            `json:"totalExpense" swaggertype:"string" example:"78450"`
	TotalSaving       decimal.Decimal            `json:"totalSaving" swaggertype:"string" example:"15000"`
	TotalInvestment   decimal.Decimal            `json:"totalInvestment" swaggertype:"string" example:"10000"`
	ExpenseByCategory map[string]decimal.Decimal `json:"expenseByCategory" swaggertype:"object"`
	TransactionCount  int                        `json:"transactionCount" example:"42"`
	BudgetUsage       *float64                   `json:"budgetUsage,omitempty" example:"82.58"` // 无预算时不返回
}

// MonthlySummary 按交易日期统计某月收入、支出、储蓄、投资
// @Summary 月度汇总
// @Description 统计某月各类型交易金额及各类别支出，不传 month 则统计当月
// @Tags 统计
// @Produce json
// @Param id path string true "家庭ID"
// @Param month query string false "月份 (2024-11)"
// @Success 200 {object} MonthlySummaryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/family/{id}/summary [get]
func (h *SummaryHandler) MonthlySummary(c *gin.Context) {
	ctx := c.Request.Context()
	familyID := c.Param("id")
	month := c.DefaultQuery("month", h.now().Format(models.MonthLayout))
	if !validMonth(month) {
		BadRequest(c, "Invalid month, expected YYYY-MM")
		return
	}

	txs, err := service.MonthTransactions(ctx, h.repo, familyID, month)
	if err != nil {
		_ = c.Error(err)
		InternalError(c, SafeErrorMessage(err, "Failed to fetch summary"))
		return
	}

	resp := MonthlySummaryResponse{
		Month:             month,
		ExpenseByCategory: make(map[string]decimal.Decimal),
		TransactionCount:  len(txs),
	}
	for _, tx := range txs {
		switch tx.Type {
		case models.TransactionIncome:
			resp.TotalIncome = resp.TotalIncome.Add(tx.Amount)
		case models.TransactionExpense:
			resp.TotalExpense = resp.TotalExpense.Add(tx.Amount)
			resp.ExpenseByCategory[tx.Category] = resp.ExpenseByCategory[tx.Category].Add(tx.Amount)
		case models.TransactionSaving:
			resp.TotalSaving = resp.TotalSaving.Add(tx.Amount)
		case models.TransactionInvestment:
			resp.TotalInvestment = resp.TotalInvestment.Add(tx.Amount)
		}
	}

	budget, err := h.repo.GetBudget(ctx, familyID, month)
	switch {
	case err == nil:
		if budget.TotalBudget.IsPositive() {
			usage, _ := budget.TotalSpent.Div(budget.TotalBudget).Mul(decimal.NewFromInt(100)).Round(2).Float64()
			resp.BudgetUsage = &usage
		}
	case !errors.Is(err, repository.ErrNotFound):
		_ = c.Error(err)
		InternalError(c, SafeErrorMessage(err, "Failed to fetch summary"))
		return
	}
	OK(c, resp)
}
