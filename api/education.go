package api

import (
	"familyfinance/models"
	"familyfinance/repository"

	"github.com/gin-gonic/gin"
)

// EducationHandler 理财教育处理器
type EducationHandler struct {
	repo repository.Repository
}

// NewEducationHandler 创建理财教育处理器
func NewEducationHandler(repo repository.Repository) *EducationHandler {
	return &EducationHandler{repo: repo}
}

// LearningProgressRequest 学习进度写入请求
type LearningProgressRequest struct {
	ContentID string `json:"contentId" binding:"required" example:"content-1"`
	Progress  *int   `json:"progress" binding:"required,min=0,max=100" example:"60"`
	Completed bool   `json:"completed" example:"false"`
}

// ListContent 教育内容目录
// @Summary 教育内容
// @Description ageGroup 为 all 的内容匹配任意 ageGroup 筛选
// @Tags 理财教育
// @Produce json
// @Param type query string false "lesson | game | quiz"
// @Param ageGroup query string false "children | teens | adults"
// @Success 200 {array} models.EducationalContent
// @Failure 500 {object} ErrorResponse
// @Router /api/educational-content [get]
func (h *EducationHandler) ListContent(c *gin.Context) {
	filter := models.ContentFilter{
		Type:     c.Query("type"),
		AgeGroup: c.Query("ageGroup"),
	}
	content, err := h.repo.ListEducationalContent(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		InternalError(c, SafeErrorMessage(err, "Failed to fetch educational content"))
		return
	}
	OK(c, content)
}

// ListProgress 成员学习进度
// @Summary 学习进度列表
// @Tags 理财教育
// @Produce json
// @Param id path string true "成员ID"
// @Success 200 {array} models.LearningProgress
// @Failure 500 {object} ErrorResponse
// @Router /api/members/{id}/learning-progress [get]
func (h *EducationHandler) ListProgress(c *gin.Context) {
	if err := memberOwnedByCaller(c, h.repo, c.Param("id")); err != nil {
		StoreError(c, err, "Member not found", "Failed to fetch learning progress")
		return
	}
	progress, err := h.repo.ListLearningProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		InternalError(c, SafeErrorMessage(err, "Failed to fetch learning progress"))
		return
	}
	OK(c, progress)
}

// UpsertProgress 写入学习进度，同一 (成员, 内容) 只保留一条
// @Summary 更新学习进度
// @Tags 理财教育
// @Accept json
// @Produce json
// @Param id path string true "成员ID"
// @Param request body LearningProgressRequest true "学习进度"
// @Success 200 {object} models.LearningProgress
// @Failure 400 {object} ErrorResponse
// @Router /api/members/{id}/learning-progress [put]
func (h *EducationHandler) UpsertProgress(c *gin.Context) {
	var req LearningProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "Invalid progress data"))
		return
	}
	if err := memberOwnedByCaller(c, h.repo, c.Param("id")); err != nil {
		StoreError(c, err, "Member not found", "Failed to update learning progress")
		return
	}

	progress, err := h.repo.UpsertLearningProgress(c.Request.Context(), &models.LearningProgress{
		MemberID:  c.Param("id"),
		ContentID: req.ContentID,
		Progress:  *req.Progress,
		Completed: req.Completed,
	})
	if err != nil {
		_ = c.Error(err)
		InternalError(c, SafeErrorMessage(err, "Failed to update learning progress"))
		return
	}
	OK(c, progress)
}
