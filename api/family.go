package api

import (
	"familyfinance/models"
	"familyfinance/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// FamilyHandler 家庭处理器
type FamilyHandler struct {
	repo repository.Repository
}

// NewFamilyHandler 创建家庭处理器
func NewFamilyHandler(repo repository.Repository) *FamilyHandler {
	return &FamilyHandler{repo: repo}
}

// CreateFamilyRequest 创建家庭请求
type CreateFamilyRequest struct {
	Name         string           `json:"name" binding:"required,max=100" example:"The Johnson Family"`
	TotalBalance *decimal.Decimal `json:"totalBalance" swaggertype:"string" example:"245670.00"`
	NotifyEmail  string           `json:"notifyEmail" binding:"omitempty,email" example:"parents@example.com"`
}

// Get 获取家庭及在册成员
// @Summary 获取家庭
// @Description 返回家庭信息及所有在册（isActive=true）成员
// @Tags 家庭
// @Produce json
// @Param id path string true "家庭ID"
// @Success 200 {object} models.FamilyOverview
// @Failure 404 {object} ErrorResponse "家庭不存在"
// @Router /api/family/{id} [get]
func (h *FamilyHandler) Get(c *gin.Context) {
	overview, err := h.repo.GetFamilyWithMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		StoreError(c, err, "Family not found", "Failed to fetch family data")
		return
	}
	OK(c, overview)
}

// Create 创建家庭
// @Summary 创建家庭
// @Tags 家庭
// @Accept json
// @Produce json
// @Param request body CreateFamilyRequest true "家庭信息"
// @Success 201 {object} models.Family
// @Failure 400 {object} ErrorResponse "请求参数错误"
// @Router /api/family [post]
func (h *FamilyHandler) Create(c *gin.Context) {
	var req CreateFamilyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "Invalid family data"))
		return
	}

	family := &models.Family{
		Name:         req.Name,
		TotalBalance: decimalOr(req.TotalBalance, decimal.Zero),
		NotifyEmail:  req.NotifyEmail,
	}
	saved, err := h.repo.CreateFamily(c.Request.Context(), family)
	if err != nil {
		_ = c.Error(err)
		BadRequest(c, SafeErrorMessage(err, "Invalid family data"))
		return
	}
	Created(c, saved)
}

func decimalOr(v *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if v == nil {
		return def
	}
	return *v
}
