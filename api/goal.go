package api

import (
	"time"

	"familyfinance/models"
	"familyfinance/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GoalHandler 家庭目标处理器
type GoalHandler struct {
	repo repository.Repository
}

// NewGoalHandler 创建家庭目标处理器
func NewGoalHandler(repo repository.Repository) *GoalHandler {
	return &GoalHandler{repo: repo}
}

// CreateGoalRequest 创建目标请求
type CreateGoalRequest struct {
	Name          string           `json:"name" binding:"required,max=100" example:"Family Vacation"`
	Description   string           `json:"description" binding:"max=255"`
	TargetAmount  *decimal.Decimal `json:"targetAmount" binding:"required" swaggertype:"string" example:"1000"`
	CurrentAmount *decimal.Decimal `json:"currentAmount" swaggertype:"string" example:"250"`
	Deadline      *time.Time       `json:"deadline" example:"2025-06-30T00:00:00Z"`
	Category      string           `json:"category" example:"vacation"`
	Icon          string           `json:"icon" example:"plane"`
	Contributors  []string         `json:"contributors"`
	IsActive      *bool            `json:"isActive"`
}

// List 目标列表（不含已停用目标）
// @Summary 目标列表
// @Tags 家庭目标
// @Produce json
// @Param id path string true "家庭ID"
// @Success 200 {array} models.FamilyGoal
// @Failure 500 {object} ErrorResponse
// @Router /api/family/{id}/goals [get]
func (h *GoalHandler) List(c *gin.Context) {
	goals, err := h.repo.ListGoals(c.Request.Context(), c.Param("id"))
	if err != nil {
		StoreError(c, err, "Family not found", "Failed to fetch family goals")
		return
	}
	OK(c, goals)
}

// Get 获取目标
// @Summary 获取目标
// @Tags 家庭目标
// @Produce json
// @Param id path string true "目标ID"
// @Success 200 {object} models.FamilyGoal
// @Failure 404 {object} ErrorResponse
// @Router /api/goals/{id} [get]
func (h *GoalHandler) Get(c *gin.Context) {
	goal, err := h.repo.GetGoal(c.Request.Context(), c.Param("id"))
	if err != nil {
		StoreError(c, err, "Goal not found", "Failed to fetch goal")
		return
	}
	if !ownedByCaller(c, goal.FamilyID) {
		NotFound(c, "Goal not found")
		return
	}
	OK(c, goal)
}

// Create 创建目标
// @Summary 创建目标
// @Tags 家庭目标
// @Accept json
// @Produce json
// @Param id path string true "家庭ID"
// @Param request body CreateGoalRequest true "目标信息"
// @Success 201 {object} models.FamilyGoal
// @Failure 400 {object} ErrorResponse
// @Router /api/family/{id}/goals [post]
func (h *GoalHandler) Create(c *gin.Context) {
	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "Invalid goal data"))
		return
	}
	if req.TargetAmount.IsNegative() {
		BadRequest(c, "Invalid goal data")
		return
	}

	goal := &models.FamilyGoal{
		FamilyID:      c.Param("id"),
		Name:          req.Name,
		Description:   req.Description,
		TargetAmount:  *req.TargetAmount,
		CurrentAmount: decimalOr(req.CurrentAmount, decimal.Zero),
		Deadline:      req.Deadline,
		Category:      req.Category,
		Icon:          req.Icon,
		Contributors:  models.StringList(req.Contributors),
		IsActive:      req.IsActive == nil || *req.IsActive,
	}
	saved, err := h.repo.CreateGoal(c.Request.Context(), goal)
	if err != nil {
		_ = c.Error(err)
		InternalError(c, SafeErrorMessage(err, "Failed to create goal"))
		return
	}
	Created(c, saved)
}

// Update 修改目标
// @Summary 修改目标
// @Tags 家庭目标
// @Accept json
// @Produce json
// @Param id path string true "目标ID"
// @Param request body models.GoalUpdate true "需要修改的字段"
// @Success 200 {object} models.FamilyGoal
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/goals/{id} [patch]
func (h *GoalHandler) Update(c *gin.Context) {
	var req models.GoalUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "Invalid goal data"))
		return
	}

	ctx := c.Request.Context()
	current, err := h.repo.GetGoal(ctx, c.Param("id"))
	if err != nil {
		StoreError(c, err, "Goal not found", "Failed to update goal")
		return
	}
	if !ownedByCaller(c, current.FamilyID) {
		NotFound(c, "Goal not found")
		return
	}

	goal, err := h.repo.UpdateGoal(ctx, current.ID, req)
	if err != nil {
		StoreError(c, err, "Goal not found", "Failed to update goal")
		return
	}
	OK(c, goal)
}
