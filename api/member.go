package api

import (
	"familyfinance/models"
	"familyfinance/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// MemberHandler 家庭成员处理器
type MemberHandler struct {
	repo repository.Repository
}

// NewMemberHandler 创建家庭成员处理器
func NewMemberHandler(repo repository.Repository) *MemberHandler {
	return &MemberHandler{repo: repo}
}

// CreateMemberRequest 创建成员请求
type CreateMemberRequest struct {
	Name     string           `json:"name" binding:"required,max=100" example:"Emma"`
	Role     string           `json:"role" binding:"required,max=50" example:"Junior Saver"`
	Age      *int             `json:"age" binding:"omitempty,min=0,max=150" example:"12"`
	Balance  *decimal.Decimal `json:"balance" swaggertype:"string" example:"3200"`
	Avatar   string           `json:"avatar" example:"emma"`
	Status   string           `json:"status" example:"Top Saver"`
	IsActive *bool            `json:"isActive" example:"true"`
}

// List 成员列表（不含已停用成员）
// @Summary 成员列表
// @Tags 家庭成员
// @Produce json
// @Param id path string true "家庭ID"
// @Success 200 {array} models.FamilyMember
// @Failure 500 {object} ErrorResponse
// @Router /api/family/{id}/members [get]
func (h *MemberHandler) List(c *gin.Context) {
	members, err := h.repo.ListMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		StoreError(c, err, "Family not found", "Failed to fetch family members")
		return
	}
	OK(c, members)
}

// Create 添加成员
// @Summary 添加成员
// @Tags 家庭成员
// @Accept json
// @Produce json
// @Param id path string true "家庭ID"
// @Param request body CreateMemberRequest true "成员信息"
// @Success 201 {object} models.FamilyMember
// @Failure 400 {object} ErrorResponse
// @Router /api/family/{id}/members [post]
func (h *MemberHandler) Create(c *gin.Context) {
	var req CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "Invalid member data"))
		return
	}

	member := &models.FamilyMember{
		FamilyID: c.Param("id"),
		Name:     req.Name,
		Role:     req.Role,
		Age:      req.Age,
		Balance:  decimalOr(req.Balance, decimal.Zero),
		Avatar:   req.Avatar,
		Status:   req.Status,
		IsActive: req.IsActive == nil || *req.IsActive,
	}
	saved, err := h.repo.CreateMember(c.Request.Context(), member)
	if err != nil {
		_ = c.Error(err)
		InternalError(c, SafeErrorMessage(err, "Failed to create member"))
		return
	}
	Created(c, saved)
}

// Update 修改成员，isActive=false 即停用
// @Summary 修改成员
// @Tags 家庭成员
// @Accept json
// @Produce json
// @Param id path string true "成员ID"
// @Param request body models.MemberUpdate true "需要修改的字段"
// @Success 200 {object} models.FamilyMember
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/members/{id} [patch]
func (h *MemberHandler) Update(c *gin.Context) {
	var req models.MemberUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "Invalid member data"))
		return
	}
	if req.Age != nil && *req.Age < 0 {
		BadRequest(c, "Invalid member data")
		return
	}

	ctx := c.Request.Context()
	current, err := h.repo.GetMember(ctx, c.Param("id"))
	if err != nil {
		StoreError(c, err, "Member not found", "Failed to update member")
		return
	}
	if !ownedByCaller(c, current.FamilyID) {
		NotFound(c, "Member not found")
		return
	}

	member, err := h.repo.UpdateMember(ctx, current.ID, req)
	if err != nil {
		StoreError(c, err, "Member not found", "Failed to update member")
		return
	}
	OK(c, member)
}
