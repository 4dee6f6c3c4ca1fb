package api

import (
	"time"

	"familyfinance/models"
	"familyfinance/repository"
	"familyfinance/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TransactionHandler 交易处理器
type TransactionHandler struct {
	repo repository.Repository
	txs  *service.TransactionService
}

// NewTransactionHandler 创建交易处理器
func NewTransactionHandler(repo repository.Repository, txs *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{repo: repo, txs: txs}
}

// CreateTransactionRequest 创建交易请求
type CreateTransactionRequest struct {
	MemberID    *string          `json:"memberId"`
	Amount      *decimal.Decimal `json:"amount" binding:"required" swaggertype:"string" example:"100.00"`
	Category    string           `json:"category" binding:"required,max=50" example:"food"`
	Description string           `json:"description" binding:"max=255" example:"Groceries"`
	Type        string           `json:"type" binding:"required,oneof=income expense saving investment" example:"expense"`
	Date        *time.Time       `json:"date" example:"2024-11-20T10:00:00Z"`
}

// List 交易列表，按日期倒序
// @Summary 交易列表
// @Tags 交易
// @Produce json
// @Param id path string true "家庭ID"
// @Param limit query int false "返回条数，默认 50，最大 500"
// @Success 200 {array} models.Transaction
// @Failure 500 {object} ErrorResponse
// @Router /api/family/{id}/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	limit := queryInt(c, "limit", repository.DefaultTransactionLimit)
	txs, err := h.repo.ListTransactions(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		StoreError(c, err, "Family not found", "Failed to fetch transactions")
		return
	}
	OK(c, txs)
}

// Create 记一笔交易，支出可能产生超支告警并计入当月预算
// @Summary 创建交易
// @Tags 交易
// @Accept json
// @Produce json
// @Param id path string true "家庭ID"
// @Param request body CreateTransactionRequest true "交易信息"
// @Success 201 {object} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/family/{id}/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "Invalid transaction data"))
		return
	}
	if !req.Amount.IsPositive() {
		BadRequest(c, "Transaction amount must be positive")
		return
	}

	tx := &models.Transaction{
		FamilyID:    c.Param("id"),
		MemberID:    req.MemberID,
		Amount:      *req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Type:        req.Type,
	}
	if req.Date != nil {
		tx.Date = *req.Date
	}
	saved, _, err := h.txs.Create(c.Request.Context(), tx)
	if err != nil {
		_ = c.Error(err)
		InternalError(c, SafeErrorMessage(err, "Failed to create transaction"))
		return
	}
	Created(c, saved)
}
