package api

import (
	"errors"
	"net/http"
	"time"

	"familyfinance/models"
	"familyfinance/repository"
	"familyfinance/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AIHandler AI 理财助手处理器
type AIHandler struct {
	repo    repository.Repository
	advisor *service.Advisor
	alerts  *service.AlertService
	now     func() time.Time
}

// NewAIHandler 创建 AI 理财助手处理器
func NewAIHandler(repo repository.Repository, advisor *service.Advisor, alerts *service.AlertService) *AIHandler {
	return &AIHandler{repo: repo, advisor: advisor, alerts: alerts, now: time.Now}
}

// AdviceRequest 理财咨询请求
type AdviceRequest struct {
	Question string                 `json:"question" binding:"required,max=2000" example:"How much should we save for Emma's college?"`
	Context  *service.AdviceContext `json:"context"`
}

// AdviceResponse 理财咨询响应
type AdviceResponse struct {
	Advice string `json:"advice"`
}

// EducationalContentRequest 生成教育内容请求
type EducationalContentRequest struct {
	Topic      string `json:"topic" binding:"required,max=200" example:"Budgeting basics"`
	AgeGroup   string `json:"ageGroup" binding:"required,oneof=children teens adults all" example:"teens"`
	Difficulty string `json:"difficulty" binding:"required,max=20" example:"beginner"`
}

// GoalPlanRequest 目标规划请求
type GoalPlanRequest struct {
	Goal           *service.GoalInput      `json:"goal" binding:"required"`
	FamilyFinances *service.FamilyFinances `json:"familyFinances"`
}

// generationFailed 生成失败统一返回 500 与固定文案
func generationFailed(c *gin.Context, err error, message string) {
	_ = c.Error(err)
	InternalError(c, message)
}

// FinancialAdvice 理财咨询；带 context.familyId 时保存问答记录
// @Summary 理财咨询
// @Tags AI助手
// @Accept json
// @Produce json
// @Param request body AdviceRequest true "问题与家庭背景"
// @Success 200 {object} AdviceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/ai/financial-advice [post]
func (h *AIHandler) FinancialAdvice(c *gin.Context) {
	var req AdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "Invalid advice request"))
		return
	}
	// 咨询记录写入 context.familyId，启用 JWT 时须为令牌中的家庭
	if req.Context != nil && req.Context.FamilyID != "" && !ownedByCaller(c, req.Context.FamilyID) {
		Error(c, http.StatusForbidden, "Token does not grant access to this family")
		return
	}

	advice, err := h.advisor.GetAdvice(c.Request.Context(), req.Question, req.Context)
	if err != nil {
		generationFailed(c, err, "Failed to generate financial advice")
		return
	}

	if req.Context != nil && req.Context.FamilyID != "" {
		_, err := h.repo.CreateAdviceMessage(c.Request.Context(), &models.AdviceMessage{
			FamilyID: req.Context.FamilyID,
			Question: req.Question,
			Answer:   advice,
		})
		if err != nil {
			// 记录失败不影响回答
			_ = c.Error(err)
		}
	}
	OK(c, AdviceResponse{Advice: advice})
}

// AdviceHistory 家庭理财咨询记录，最新在前
// @Summary 咨询记录
// @Tags AI助手
// @Produce json
// @Param id path string true "家庭ID"
// @Param limit query int false "返回条数，默认 50"
// @Success 200 {array} models.AdviceMessage
// @Failure 500 {object} ErrorResponse
// @Router /api/family/{id}/ai/advice-history [get]
func (h *AIHandler) AdviceHistory(c *gin.Context) {
	limit := queryInt(c, "limit", repository.DefaultAdviceLimit)
	messages, err := h.repo.ListAdviceMessages(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		_ = c.Error(err)
		InternalError(c, SafeErrorMessage(err, "Failed to fetch advice history"))
		return
	}
	OK(c, messages)
}

// EducationalContent 生成并保存一篇教育内容
// @Summary 生成教育内容
// @Tags AI助手
// @Accept json
// @Produce json
// @Param request body EducationalContentRequest true "主题、年龄段与难度"
// @Success 201 {object} models.EducationalContent
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/ai/educational-content [post]
func (h *AIHandler) EducationalContent(c *gin.Context) {
	var req EducationalContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "Invalid content request"))
		return
	}

	generated, err := h.advisor.GenerateEducationalContent(c.Request.Context(), req.Topic, req.AgeGroup, req.Difficulty)
	if err != nil {
		generationFailed(c, err, "Failed to generate educational content")
		return
	}

	saved, err := h.repo.CreateEducationalContent(c.Request.Context(), &models.EducationalContent{
		Title:         generated.Title,
		Description:   generated.Description,
		Content:       generated.Content,
		Type:          "lesson",
		Category:      req.Topic,
		AgeGroup:      req.AgeGroup,
		Duration:      generated.Duration,
		Difficulty:    req.Difficulty,
		Icon:          "brain",
		IsAIGenerated: true,
	})
	if err != nil {
		_ = c.Error(err)
		InternalError(c, SafeErrorMessage(err, "Failed to generate educational content"))
		return
	}
	Created(c, saved)
}

// SpendingAnalysis 分析最近 20 笔交易与指定月份（默认当月）的预算额度
// @Summary 消费分析
// @Tags AI助手
// @Produce json
// @Param id path string true "家庭ID"
// @Param month query string false "预算月份，默认当月"
// @Success 200 {object} service.SpendingAnalysis
// @Failure 500 {object} ErrorResponse
// @Router /api/family/{id}/ai/spending-analysis [post]
func (h *AIHandler) SpendingAnalysis(c *gin.Context) {
	ctx := c.Request.Context()
	familyID := c.Param("id")
	month := c.DefaultQuery("month", h.now().Format(models.MonthLayout))
	if !validMonth(month) {
		BadRequest(c, "Invalid budget month, expected YYYY-MM")
		return
	}

	txs, err := h.repo.ListTransactions(ctx, familyID, service.SpendingAnalysisWindow)
	if err != nil {
		_ = c.Error(err)
		InternalError(c, SafeErrorMessage(err, "Failed to analyze spending"))
		return
	}

	var limits map[string]decimal.Decimal
	budget, err := h.repo.GetBudget(ctx, familyID, month)
	switch {
	case err == nil:
		limits = budget.Categories.Limits()
	case !errors.Is(err, repository.ErrNotFound):
		_ = c.Error(err)
		InternalError(c, SafeErrorMessage(err, "Failed to analyze spending"))
		return
	}

	analysis, err := h.advisor.AnalyzeSpending(ctx, txs, limits)
	if err != nil {
		generationFailed(c, err, "Failed to analyze spending")
		return
	}
	OK(c, analysis)
}

// ScamCheck 交易诈骗检测；疑似诈骗时为家庭生成高危告警
// @Summary 诈骗检测
// @Tags AI助手
// @Accept json
// @Produce json
// @Param id path string true "家庭ID"
// @Param request body service.ScamCheckRequest true "交易详情"
// @Success 200 {object} service.ScamAssessment
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/family/{id}/ai/scam-check [post]
func (h *AIHandler) ScamCheck(c *gin.Context) {
	var req service.ScamCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "Invalid transaction details"))
		return
	}

	assessment, err := h.advisor.DetectScam(c.Request.Context(), req)
	if err != nil {
		generationFailed(c, err, "Failed to check transaction")
		return
	}

	if alert := service.ScamAlert(c.Param("id"), req, assessment); alert != nil {
		if _, err := h.alerts.Raise(c.Request.Context(), alert); err != nil {
			_ = c.Error(err)
		}
	}
	OK(c, assessment)
}

// GoalPlan 生成储蓄计划
// @Summary 目标规划
// @Tags AI助手
// @Accept json
// @Produce json
// @Param request body GoalPlanRequest true "目标与家庭收支"
// @Success 200 {object} service.GoalPlan
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/ai/goal-plan [post]
func (h *AIHandler) GoalPlan(c *gin.Context) {
	var req GoalPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "Invalid goal plan request"))
		return
	}
	var finances service.FamilyFinances
	if req.FamilyFinances != nil {
		finances = *req.FamilyFinances
	}

	plan, err := h.advisor.PlanGoal(c.Request.Context(), *req.Goal, finances)
	if err != nil {
		generationFailed(c, err, "Failed to create goal plan")
		return
	}
	OK(c, plan)
}
