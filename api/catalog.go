package api

import (
	"familyfinance/models"
	"familyfinance/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CatalogHandler 投资产品与金融服务
type CatalogHandler struct {
	repo repository.Repository
}

// NewCatalogHandler 创建目录处理器
func NewCatalogHandler(repo repository.Repository) *CatalogHandler {
	return &CatalogHandler{repo: repo}
}

// CreateServiceRequest 添加金融服务请求
type CreateServiceRequest struct {
	Type           string                 `json:"type" binding:"required,oneof=insurance loan credit_score" example:"loan"`
	Name           string                 `json:"name" binding:"required,max=100" example:"Home Loan"`
	Status         string                 `json:"status" binding:"omitempty,oneof=active pending completed" example:"active"`
	Amount         *decimal.Decimal       `json:"amount" swaggertype:"string" example:"2500000"`
	MonthlyPayment *decimal.Decimal       `json:"monthlyPayment" swaggertype:"string" example:"28500"`
	Details        *models.ServiceDetails `json:"details"`
}

// ListInvestments 投资产品目录
// @Summary 投资产品
// @Tags 目录
// @Produce json
// @Success 200 {array} models.Investment
// @Failure 500 {object} ErrorResponse
// @Router /api/investments [get]
func (h *CatalogHandler) ListInvestments(c *gin.Context) {
	investments, err := h.repo.ListInvestments(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		InternalError(c, SafeErrorMessage(err, "Failed to fetch investments"))
		return
	}
	OK(c, investments)
}

// ListServices 家庭金融服务
// @Summary 金融服务列表
// @Tags 目录
// @Produce json
// @Param id path string true "家庭ID"
// @Success 200 {array} models.FinancialService
// @Failure 500 {object} ErrorResponse
// @Router /api/family/{id}/financial-services [get]
func (h *CatalogHandler) ListServices(c *gin.Context) {
	services, err := h.repo.ListFinancialServices(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		InternalError(c, SafeErrorMessage(err, "Failed to fetch financial services"))
		return
	}
	OK(c, services)
}

// CreateService 添加金融服务
// @Summary 添加金融服务
// @Tags 目录
// @Accept json
// @Produce json
// @Param id path string true "家庭ID"
// @Param request body CreateServiceRequest true "服务信息"
// @Success 201 {object} models.FinancialService
// @Failure 400 {object} ErrorResponse
// @Router /api/family/{id}/financial-services [post]
func (h *CatalogHandler) CreateService(c *gin.Context) {
	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "Invalid service data"))
		return
	}
	status := req.Status
	if status == "" {
		status = "active"
	}

	saved, err := h.repo.CreateFinancialService(c.Request.Context(), &models.FinancialService{
		FamilyID:       c.Param("id"),
		Type:           req.Type,
		Name:           req.Name,
		Status:         status,
		Amount:         decimalOr(req.Amount, decimal.Zero),
		MonthlyPayment: decimalOr(req.MonthlyPayment, decimal.Zero),
		Details:        req.Details,
	})
	if err != nil {
		_ = c.Error(err)
		InternalError(c, SafeErrorMessage(err, "Failed to create financial service"))
		return
	}
	Created(c, saved)
}
