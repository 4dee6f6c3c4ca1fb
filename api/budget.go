package api

import (
	"time"

	"familyfinance/models"
	"familyfinance/repository"
	"familyfinance/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// BudgetHandler 月度预算处理器
type BudgetHandler struct {
	repo   repository.Repository
	ledger *service.BudgetLedger
}

// NewBudgetHandler 创建月度预算处理器
func NewBudgetHandler(repo repository.Repository, ledger *service.BudgetLedger) *BudgetHandler {
	return &BudgetHandler{repo: repo, ledger: ledger}
}

// CreateBudgetRequest 创建预算请求
type CreateBudgetRequest struct {
	Month       string                   `json:"month" binding:"required" example:"2024-11"`
	TotalBudget *decimal.Decimal         `json:"totalBudget" binding:"required" swaggertype:"string" example:"95000"`
	TotalSpent  *decimal.Decimal         `json:"totalSpent" swaggertype:"string" example:"0"`
	Categories  *models.BudgetCategories `json:"categories"`
}

func validMonth(month string) bool {
	_, err := time.Parse(models.MonthLayout, month)
	return err == nil
}

// Get 获取某月预算
// @Summary 获取月度预算
// @Tags 预算
// @Produce json
// @Param id path string true "家庭ID"
// @Param month path string true "月份，如 2024-11"
// @Success 200 {object} models.Budget
// @Failure 404 {object} ErrorResponse
// @Router /api/family/{id}/budget/{month} [get]
func (h *BudgetHandler) Get(c *gin.Context) {
	budget, err := h.repo.GetBudget(c.Request.Context(), c.Param("id"), c.Param("month"))
	if err != nil {
		StoreError(c, err, "Budget not found", "Failed to fetch budget")
		return
	}
	OK(c, budget)
}

// Create 创建月度预算
// @Summary 创建月度预算
// @Tags 预算
// @Accept json
// @Produce json
// @Param id path string true "家庭ID"
// @Param request body CreateBudgetRequest true "预算信息"
// @Success 201 {object} models.Budget
// @Failure 400 {object} ErrorResponse
// @Router /api/family/{id}/budget [post]
func (h *BudgetHandler) Create(c *gin.Context) {
	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "Invalid budget data"))
		return
	}
	if !validMonth(req.Month) {
		BadRequest(c, "Invalid budget month, expected YYYY-MM")
		return
	}

	budget := &models.Budget{
		FamilyID:    c.Param("id"),
		Month:       req.Month,
		TotalBudget: *req.TotalBudget,
		TotalSpent:  decimalOr(req.TotalSpent, decimal.Zero),
	}
	if req.Categories != nil {
		budget.Categories = *req.Categories
	}
	saved, err := h.repo.CreateBudget(c.Request.Context(), budget)
	if err != nil {
		_ = c.Error(err)
		InternalError(c, SafeErrorMessage(err, "Failed to create budget"))
		return
	}
	Created(c, saved)
}

// Update 修改预算
// @Summary 修改预算
// @Tags 预算
// @Accept json
// @Produce json
// @Param id path string true "预算ID"
// @Param request body models.BudgetUpdate true "需要修改的字段"
// @Success 200 {object} models.Budget
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/budgets/{id} [patch]
func (h *BudgetHandler) Update(c *gin.Context) {
	var req models.BudgetUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "Invalid budget data"))
		return
	}

	ctx := c.Request.Context()
	current, err := h.repo.GetBudgetByID(ctx, c.Param("id"))
	if err != nil {
		StoreError(c, err, "Budget not found", "Failed to update budget")
		return
	}
	if !ownedByCaller(c, current.FamilyID) {
		NotFound(c, "Budget not found")
		return
	}

	budget, err := h.ledger.Update(ctx, current, req)
	if err != nil {
		StoreError(c, err, "Budget not found", "Failed to update budget")
		return
	}
	OK(c, budget)
}

// Recalculate 按当月支出交易重算预算花费
// @Summary 重算预算花费
// @Description 以该月全部支出交易重新计算各类别花费与总花费
// @Tags 预算
// @Produce json
// @Param id path string true "家庭ID"
// @Param month path string true "月份，如 2024-11"
// @Success 200 {object} models.Budget
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/family/{id}/budget/{month}/recalculate [post]
func (h *BudgetHandler) Recalculate(c *gin.Context) {
	month := c.Param("month")
	if !validMonth(month) {
		BadRequest(c, "Invalid budget month, expected YYYY-MM")
		return
	}

	budget, err := h.ledger.Recalculate(c.Request.Context(), c.Param("id"), month)
	if err != nil {
		StoreError(c, err, "Budget not found", "Failed to recalculate budget")
		return
	}
	OK(c, budget)
}
