package api

import (
	"familyfinance/repository"

	"github.com/gin-gonic/gin"
)

// AlertHandler 告警处理器
type AlertHandler struct {
	repo repository.Repository
}

// NewAlertHandler 创建告警处理器
func NewAlertHandler(repo repository.Repository) *AlertHandler {
	return &AlertHandler{repo: repo}
}

// List 告警列表，最新在前
// @Summary 告警列表
// @Tags 告警
// @Produce json
// @Param id path string true "家庭ID"
// @Success 200 {array} models.SmartAlert
// @Failure 500 {object} ErrorResponse
// @Router /api/family/{id}/alerts [get]
func (h *AlertHandler) List(c *gin.Context) {
	alerts, err := h.repo.ListAlerts(c.Request.Context(), c.Param("id"))
	if err != nil {
		StoreError(c, err, "Family not found", "Failed to fetch alerts")
		return
	}
	OK(c, alerts)
}

// MarkRead 标记已读，重复调用返回同一记录
// @Summary 标记告警已读
// @Tags 告警
// @Produce json
// @Param id path string true "告警ID"
// @Success 200 {object} models.SmartAlert
// @Failure 404 {object} ErrorResponse
// @Router /api/alerts/{id}/read [patch]
func (h *AlertHandler) MarkRead(c *gin.Context) {
	ctx := c.Request.Context()
	current, err := h.repo.GetAlert(ctx, c.Param("id"))
	if err != nil {
		StoreError(c, err, "Alert not found", "Failed to update alert")
		return
	}
	if !ownedByCaller(c, current.FamilyID) {
		NotFound(c, "Alert not found")
		return
	}

	alert, err := h.repo.MarkAlertRead(ctx, current.ID)
	if err != nil {
		StoreError(c, err, "Alert not found", "Failed to update alert")
		return
	}
	OK(c, alert)
}
