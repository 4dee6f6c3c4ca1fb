package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"familyfinance/config"
	"familyfinance/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrGeneration 文本生成失败（调用失败、返回为空、JSON 无法解析或缺少必填字段）
var ErrGeneration = errors.New("text generation failed")

// FallbackAdvice 模型返回空文本时的固定回复
const FallbackAdvice = "I'm sorry, I couldn't generate advice at the moment. Please try asking your question differently."

// SpendingAnalysisWindow 消费分析只发送最近的交易条数
const SpendingAnalysisWindow = 20

const (
	advisorPreamble = `You are Aetherius, an AI financial advisor specialized in family financial literacy and planning.
You provide practical, actionable advice for Indian families focusing on:
- Budgeting and expense management
- Savings strategies and goal planning
- Investment options suitable for families
- Financial education for different age groups
- Scam protection and financial security
- Insurance and loan guidance

Always provide advice in Indian Rupees (₹) and consider Indian financial products and regulations.
Keep responses conversational, encouraging, and family-focused.`

	educatorPreamble = `You are an expert financial education content creator for the Aetherius platform.
Create engaging, age-appropriate financial education content for Indian families.
Focus on practical learning that can be applied immediately.

Age Groups:
- children (5-12): Simple concepts, stories, and games
- teens (13-18): Real-world scenarios, digital money, career planning
- adults (18+): Investment strategies, tax planning, insurance
- all: Content suitable for family learning together

Difficulty Levels:
- beginner: Basic concepts and terminology
- intermediate: Practical applications and strategies
- advanced: Complex planning and optimization

Always use Indian context, currency (₹), and financial products.`

	analystPreamble = `You are a financial analyst specializing in family spending patterns and budget optimization.
Analyze spending data and provide actionable insights for Indian families.
Focus on practical recommendations that can improve financial health.`

	securityPreamble = `You are a financial security expert specializing in scam detection for Indian families.
Analyze transaction details to identify potential scams and fraudulent activities.
Consider common Indian scam patterns, UPI frauds, and financial scams.`

	plannerPreamble = `You are a family financial planning expert specializing in goal-based savings for Indian families.
Create realistic, actionable savings plans that consider family dynamics and Indian financial products.
Provide practical strategies that families can implement immediately.`
)

// Advisor 调用 OpenAI 兼容的 /chat/completions 接口
type Advisor struct {
	cfg    config.AIConfig
	client *http.Client
	log    logrus.FieldLogger
}

// NewAdvisor 创建文本生成客户端
func NewAdvisor(cfg config.AIConfig, log logrus.FieldLogger) *Advisor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if cfg.JSONModel == "" {
		cfg.JSONModel = cfg.Model
	}
	return &Advisor{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// ---- 请求与响应（兼容 OpenAI 格式） ----

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete 发送一次非流式请求，返回第一条回复文本
func (a *Advisor) complete(ctx context.Context, operation, model, system, prompt string, jsonMode bool) (text string, err error) {
	start := time.Now()
	defer func() {
		aiRequests.WithLabelValues(operation, outcome(err)).Inc()
		aiLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		if err != nil {
			a.log.WithError(err).WithField("operation", operation).Warn("文本生成失败")
		}
	}()

	body := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	}
	if jsonMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("%w: 构建请求失败: %v", ErrGeneration, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(a.cfg.BaseURL, "/")+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("%w: 创建请求失败: %v", ErrGeneration, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: 请求AI服务失败: %v", ErrGeneration, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: 读取响应失败: %v", ErrGeneration, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: AI服务返回错误: %d, %s", ErrGeneration, resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: 响应格式错误: %v", ErrGeneration, err)
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// completeJSON 以 JSON 模式请求并解析到 out，空响应视为失败
func (a *Advisor) completeJSON(ctx context.Context, operation, system, prompt string, out interface{}) error {
	text, err := a.complete(ctx, operation, a.cfg.JSONModel, system, prompt, true)
	if err != nil {
		return err
	}
	text = stripCodeFence(text)
	if text == "" {
		return fmt.Errorf("%w: empty response from model", ErrGeneration)
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", ErrGeneration, err)
	}
	return nil
}

// stripCodeFence 去掉部分模型包裹的 ```json 代码块
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func missing(field string) error {
	return fmt.Errorf("%w: missing field %q", ErrGeneration, field)
}

// ---- 理财建议 ----

// AdviceContext 可选的家庭背景
type AdviceContext struct {
	FamilyID     string   `json:"familyId"`
	CurrentGoals []string `json:"currentGoals"`
	BudgetUsage  float64  `json:"budgetUsage"`
	TotalBalance string   `json:"totalBalance"`
	MemberCount  int      `json:"memberCount"`
}

func buildAdvicePrompt(question string, c *AdviceContext) string {
	if c == nil {
		return question
	}
	var b strings.Builder
	b.WriteString("Family Context:\n")
	if len(c.CurrentGoals) > 0 {
		fmt.Fprintf(&b, "- Current Goals: %s\n", strings.Join(c.CurrentGoals, ", "))
	}
	if c.BudgetUsage != 0 {
		fmt.Fprintf(&b, "- Current Budget Usage: %s%%\n", decimal.NewFromFloat(c.BudgetUsage).String())
	}
	if c.TotalBalance != "" {
		fmt.Fprintf(&b, "- Family Balance: ₹%s\n", c.TotalBalance)
	}
	if c.MemberCount != 0 {
		fmt.Fprintf(&b, "- Family Members: %d\n", c.MemberCount)
	}
	fmt.Fprintf(&b, "\nQuestion: %s", question)
	return b.String()
}

// GetAdvice 回答理财问题；模型返回空文本时返回 FallbackAdvice
func (a *Advisor) GetAdvice(ctx context.Context, question string, adviceCtx *AdviceContext) (string, error) {
	text, err := a.complete(ctx, "financial_advice", a.cfg.Model, advisorPreamble, buildAdvicePrompt(question, adviceCtx), false)
	if err != nil {
		return "", err
	}
	if text == "" {
		return FallbackAdvice, nil
	}
	return text, nil
}

// ---- 教育内容 ----

// GeneratedContent 生成的课程
type GeneratedContent struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Duration    int    `json:"duration"`
}

// GenerateEducationalContent 生成教育内容，四个字段都必须非空
func (a *Advisor) GenerateEducationalContent(ctx context.Context, topic, ageGroup, difficulty string) (*GeneratedContent, error) {
	prompt := fmt.Sprintf(`Create educational content about "%s" for %s at %s level.

Provide a JSON response with:
- title: Catchy, educational title
- description: 2-3 sentence summary
- content: Detailed lesson content (500-800 words)
- duration: Estimated reading time in minutes

Make it engaging, practical, and actionable for Indian families.`, topic, ageGroup, difficulty)

	var raw struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Content     string   `json:"content"`
		Duration    *float64 `json:"duration"`
	}
	if err := a.completeJSON(ctx, "educational_content", educatorPreamble, prompt, &raw); err != nil {
		return nil, err
	}
	switch {
	case raw.Title == "":
		return nil, missing("title")
	case raw.Description == "":
		return nil, missing("description")
	case raw.Content == "":
		return nil, missing("content")
	case raw.Duration == nil || *raw.Duration <= 0:
		return nil, missing("duration")
	}
	duration := int(*raw.Duration + 0.5)
	if duration < 1 {
		duration = 1
	}
	return &GeneratedContent{
		Title:       raw.Title,
		Description: raw.Description,
		Content:     raw.Content,
		Duration:    duration,
	}, nil
}

// ---- 消费分析 ----

// SpendingTransaction 发送给模型的交易摘要
type SpendingTransaction struct {
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Type     string `json:"type"`
	Date     string `json:"date"`
}

// SpendingAnalysis 消费分析结果
type SpendingAnalysis struct {
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
	RiskLevel       string   `json:"riskLevel"`
}

// AnalyzeSpending 分析最近的交易与预算额度
func (a *Advisor) AnalyzeSpending(ctx context.Context, txs []models.Transaction, limits map[string]decimal.Decimal) (*SpendingAnalysis, error) {
	if len(txs) > SpendingAnalysisWindow {
		txs = txs[:SpendingAnalysisWindow]
	}
	summary := make([]SpendingTransaction, 0, len(txs))
	for _, tx := range txs {
		summary = append(summary, SpendingTransaction{
			Amount:   tx.Amount.StringFixed(2),
			Category: tx.Category,
			Type:     tx.Type,
			Date:     tx.Date.Format(time.RFC3339),
		})
	}
	if limits == nil {
		limits = map[string]decimal.Decimal{}
	}
	txJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	limitJSON, err := json.Marshal(limits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	prompt := fmt.Sprintf(`Analyze this family's spending pattern:

Transactions (most recent first): %s
Budget Limits: %s

Provide analysis in JSON format:
- insights: Array of 3-5 key observations about spending patterns
- recommendations: Array of 3-5 specific, actionable recommendations
- riskLevel: "low", "medium", or "high" based on overspending risk

Focus on Indian family financial context and provide practical advice.`, txJSON, limitJSON)

	var raw struct {
		Insights        []string `json:"insights"`
		Recommendations []string `json:"recommendations"`
		RiskLevel       string   `json:"riskLevel"`
	}
	if err := a.completeJSON(ctx, "spending_analysis", analystPreamble, prompt, &raw); err != nil {
		return nil, err
	}
	switch {
	case raw.Insights == nil:
		return nil, missing("insights")
	case raw.Recommendations == nil:
		return nil, missing("recommendations")
	}
	switch raw.RiskLevel {
	case "low", "medium", "high":
	default:
		return nil, fmt.Errorf("%w: invalid riskLevel %q", ErrGeneration, raw.RiskLevel)
	}
	return &SpendingAnalysis{
		Insights:        raw.Insights,
		Recommendations: raw.Recommendations,
		RiskLevel:       raw.RiskLevel,
	}, nil
}

// ---- 诈骗检测 ----

// ScamCheckRequest 待检测的交易
type ScamCheckRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description" binding:"required"`
	Recipient   string `json:"recipient" binding:"required"`
	Method      string `json:"method"`
	Timestamp   string `json:"timestamp"`
}

// ScamAssessment 诈骗检测结果
type ScamAssessment struct {
	IsScamLikely    bool     `json:"isScamLikely"`
	Confidence      float64  `json:"confidence"`
	Reasons         []string `json:"reasons"`
	Recommendations []string `json:"recommendations"`
}

// DetectScam 评估交易的诈骗风险
func (a *Advisor) DetectScam(ctx context.Context, details ScamCheckRequest) (*ScamAssessment, error) {
	prompt := fmt.Sprintf(`Analyze this transaction for potential scam indicators:

Transaction Details:
- Amount: ₹%s
- Description: %s
- Recipient: %s
- Method: %s
- Time: %s

Provide analysis in JSON format:
- isScamLikely: Boolean indicating if this appears to be a scam
- confidence: Number 0-100 indicating confidence level
- reasons: Array of specific reasons why this might be a scam
- recommendations: Array of actions the user should take

Focus on Indian scam patterns and provide practical safety advice.`,
		details.Amount, details.Description, details.Recipient, details.Method, details.Timestamp)

	var raw struct {
		IsScamLikely    *bool    `json:"isScamLikely"`
		Confidence      *float64 `json:"confidence"`
		Reasons         []string `json:"reasons"`
		Recommendations []string `json:"recommendations"`
	}
	if err := a.completeJSON(ctx, "scam_check", securityPreamble, prompt, &raw); err != nil {
		return nil, err
	}
	switch {
	case raw.IsScamLikely == nil:
		return nil, missing("isScamLikely")
	case raw.Confidence == nil:
		return nil, missing("confidence")
	case raw.Reasons == nil:
		return nil, missing("reasons")
	case raw.Recommendations == nil:
		return nil, missing("recommendations")
	}
	return &ScamAssessment{
		IsScamLikely:    *raw.IsScamLikely,
		Confidence:      *raw.Confidence,
		Reasons:         raw.Reasons,
		Recommendations: raw.Recommendations,
	}, nil
}

// ---- 目标规划 ----

// GoalInput 待规划的目标
type GoalInput struct {
	Name         string `json:"name" binding:"required"`
	TargetAmount string `json:"targetAmount" binding:"required"`
	Timeframe    string `json:"timeframe" binding:"required"`
	Priority     string `json:"priority" binding:"omitempty,oneof=high medium low"`
}

// FamilyFinances 家庭收支概况
type FamilyFinances struct {
	MonthlyIncome   string `json:"monthlyIncome"`
	MonthlyExpenses string `json:"monthlyExpenses"`
	CurrentSavings  string `json:"currentSavings"`
	MemberCount     int    `json:"memberCount"`
}

// GoalPlan 储蓄计划
type GoalPlan struct {
	MonthlyContribution float64  `json:"monthlyContribution"`
	Strategies          []string `json:"strategies"`
	Timeline            string   `json:"timeline"`
	FeasibilityScore    float64  `json:"feasibilityScore"`
	Recommendations     []string `json:"recommendations"`
}

// PlanGoal 生成储蓄计划
func (a *Advisor) PlanGoal(ctx context.Context, goal GoalInput, finances FamilyFinances) (*GoalPlan, error) {
	priority := goal.Priority
	if priority == "" {
		priority = "medium"
	}
	prompt := fmt.Sprintf(`Create a savings plan for this family goal:

Goal Details:
- Name: %s
- Target Amount: ₹%s
- Timeframe: %s
- Priority: %s

Family Finances:
- Monthly Income: ₹%s
- Monthly Expenses: ₹%s
- Current Savings: ₹%s
- Family Members: %d

Provide a JSON response with:
- monthlyContribution: Required monthly savings amount
- strategies: Array of specific saving strategies
- timeline: Realistic timeline description
- feasibilityScore: Score 1-100 indicating how achievable this goal is
- recommendations: Array of actionable recommendations

Consider Indian investment options like SIPs, FDs, PPF, etc.`,
		goal.Name, goal.TargetAmount, goal.Timeframe, priority,
		finances.MonthlyIncome, finances.MonthlyExpenses, finances.CurrentSavings, finances.MemberCount)

	var raw struct {
		MonthlyContribution *float64 `json:"monthlyContribution"`
		Strategies          []string `json:"strategies"`
		Timeline            string   `json:"timeline"`
		FeasibilityScore    *float64 `json:"feasibilityScore"`
		Recommendations     []string `json:"recommendations"`
	}
	if err := a.completeJSON(ctx, "goal_plan", plannerPreamble, prompt, &raw); err != nil {
		return nil, err
	}
	switch {
	case raw.MonthlyContribution == nil:
		return nil, missing("monthlyContribution")
	case raw.Strategies == nil:
		return nil, missing("strategies")
	case raw.Timeline == "":
		return nil, missing("timeline")
	case raw.FeasibilityScore == nil:
		return nil, missing("feasibilityScore")
	case raw.Recommendations == nil:
		return nil, missing("recommendations")
	}
	return &GoalPlan{
		MonthlyContribution: *raw.MonthlyContribution,
		Strategies:          raw.Strategies,
		Timeline:            raw.Timeline,
		FeasibilityScore:    *raw.FeasibilityScore,
		Recommendations:     raw.Recommendations,
	}, nil
}
