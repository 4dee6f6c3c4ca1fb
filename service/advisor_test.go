package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"familyfinance/config"
	"familyfinance/logger"
	"familyfinance/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider 模拟 /chat/completions，记录最后一次请求
type fakeProvider struct {
	status  int
	content string
	raw     string
	last    chatRequest
	auth    string
	path    string
}

func (p *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.path = r.URL.Path
	p.auth = r.Header.Get("Authorization")
	_ = json.NewDecoder(r.Body).Decode(&p.last)

	if p.status != 0 && p.status != http.StatusOK {
		w.WriteHeader(p.status)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if p.raw != "" {
		_, _ = w.Write([]byte(p.raw))
		return
	}
	content, _ := json.Marshal(p.content)
	fmt.Fprintf(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":%s}}]}`, content)
}

func newTestAdvisor(t *testing.T, p *fakeProvider) *Advisor {
	t.Helper()
	srv := httptest.NewServer(p)
	t.Cleanup(srv.Close)
	return NewAdvisor(config.AIConfig{
		BaseURL:   srv.URL + "/v1/",
		APIKey:    "test-key",
		Model:     "chat-model",
		JSONModel: "json-model",
		Timeout:   5 * time.Second,
	}, logger.Discard())
}

func TestAdvisor_GetAdvice(t *testing.T) {
	p := &fakeProvider{content: "  Start an emergency fund.  "}
	a := newTestAdvisor(t, p)

	advice, err := a.GetAdvice(context.Background(), "How do I save?", &AdviceContext{
		CurrentGoals: []string{"Vacation", "Emergency Fund"},
		BudgetUsage:  82.5,
		TotalBalance: "245670",
		MemberCount:  4,
	})
	require.NoError(t, err)
	assert.Equal(t, "Start an emergency fund.", advice)

	assert.Equal(t, "/v1/chat/completions", p.path)
	assert.Equal(t, "Bearer test-key", p.auth)
	assert.Equal(t, "chat-model", p.last.Model)
	assert.Nil(t, p.last.ResponseFormat)
	require.Len(t, p.last.Messages, 2)
	assert.Equal(t, "system", p.last.Messages[0].Role)
	assert.Contains(t, p.last.Messages[0].Content, "Aetherius")

	prompt := p.last.Messages[1].Content
	assert.Contains(t, prompt, "- Current Goals: Vacation, Emergency Fund")
	assert.Contains(t, prompt, "- Current Budget Usage: 82.5%")
	assert.Contains(t, prompt, "- Family Balance: ₹245670")
	assert.Contains(t, prompt, "- Family Members: 4")
	assert.True(t, strings.HasSuffix(prompt, "Question: How do I save?"))
}

func TestAdvisor_GetAdvice_NoContext(t *testing.T) {
	p := &fakeProvider{content: "ok"}
	a := newTestAdvisor(t, p)

	_, err := a.GetAdvice(context.Background(), "Plain question", nil)
	require.NoError(t, err)
	assert.Equal(t, "Plain question", p.last.Messages[1].Content)
}

func TestAdvisor_GetAdvice_EmptyUsesFallback(t *testing.T) {
	a := newTestAdvisor(t, &fakeProvider{content: ""})
	advice, err := a.GetAdvice(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, FallbackAdvice, advice)

	a = newTestAdvisor(t, &fakeProvider{raw: `{"choices":[]}`})
	advice, err = a.GetAdvice(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, FallbackAdvice, advice)
}

func TestAdvisor_ProviderError(t *testing.T) {
	a := newTestAdvisor(t, &fakeProvider{status: http.StatusTooManyRequests})
	_, err := a.GetAdvice(context.Background(), "q", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.Contains(t, err.Error(), "429")
}

func TestAdvisor_GenerateEducationalContent(t *testing.T) {
	p := &fakeProvider{content: "```json\n{\"title\":\"Piggy Banks\",\"description\":\"Saving basics.\",\"content\":\"Long lesson\",\"duration\":7.6}\n```"}
	a := newTestAdvisor(t, p)

	content, err := a.GenerateEducationalContent(context.Background(), "saving", "children", "beginner")
	require.NoError(t, err)
	assert.Equal(t, "Piggy Banks", content.Title)
	assert.Equal(t, 8, content.Duration)

	assert.Equal(t, "json-model", p.last.Model)
	require.NotNil(t, p.last.ResponseFormat)
	assert.Equal(t, "json_object", p.last.ResponseFormat.Type)
	assert.Contains(t, p.last.Messages[1].Content, `"saving" for children at beginner level`)
}

func TestAdvisor_GenerateEducationalContent_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty body", ""},
		{"malformed json", "{not json"},
		{"missing title", `{"description":"d","content":"c","duration":5}`},
		{"missing duration", `{"title":"t","description":"d","content":"c"}`},
		{"zero duration", `{"title":"t","description":"d","content":"c","duration":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAdvisor(t, &fakeProvider{content: tt.content})
			_, err := a.GenerateEducationalContent(context.Background(), "saving", "all", "beginner")
			assert.ErrorIs(t, err, ErrGeneration)
		})
	}
}

func TestAdvisor_AnalyzeSpending(t *testing.T) {
	p := &fakeProvider{content: `{"insights":["Food is high"],"recommendations":["Cook at home"],"riskLevel":"medium"}`}
	a := newTestAdvisor(t, p)

	txs := make([]models.Transaction, 0, 25)
	for i := 0; i < 25; i++ {
		txs = append(txs, models.Transaction{
			Amount:   decimal.NewFromInt(int64(i + 1)),
			Category: models.CategoryFood,
			Type:     models.TransactionExpense,
			Date:     time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	result, err := a.AnalyzeSpending(context.Background(), txs, map[string]decimal.Decimal{models.CategoryFood: decimal.NewFromInt(1000)})
	require.NoError(t, err)
	assert.Equal(t, "medium", result.RiskLevel)
	assert.Equal(t, []string{"Food is high"}, result.Insights)

	prompt := p.last.Messages[1].Content
	assert.Contains(t, prompt, `"amount":"20.00"`)
	assert.NotContains(t, prompt, `"amount":"21.00"`)
	assert.Contains(t, prompt, `"food":"1000"`)
}

func TestAdvisor_AnalyzeSpending_InvalidRiskLevel(t *testing.T) {
	a := newTestAdvisor(t, &fakeProvider{content: `{"insights":[],"recommendations":[],"riskLevel":"extreme"}`})
	_, err := a.AnalyzeSpending(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestAdvisor_DetectScam(t *testing.T) {
	p := &fakeProvider{content: `{"isScamLikely":true,"confidence":87,"reasons":["Urgent request"],"recommendations":["Do not pay"]}`}
	a := newTestAdvisor(t, p)

	result, err := a.DetectScam(context.Background(), ScamCheckRequest{
		Amount:      "15000",
		Description: "KYC update fee",
		Recipient:   "unknown@upi",
		Method:      "UPI",
	})
	require.NoError(t, err)
	assert.True(t, result.IsScamLikely)
	assert.Equal(t, 87.0, result.Confidence)
	assert.Contains(t, p.last.Messages[1].Content, "- Amount: ₹15000")

	a = newTestAdvisor(t, &fakeProvider{content: `{"confidence":87,"reasons":[],"recommendations":[]}`})
	_, err = a.DetectScam(context.Background(), ScamCheckRequest{Amount: "1"})
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestAdvisor_PlanGoal(t *testing.T) {
	p := &fakeProvider{content: `{"monthlyContribution":2500,"strategies":["SIP"],"timeline":"24 months","feasibilityScore":80,"recommendations":["Automate savings"]}`}
	a := newTestAdvisor(t, p)

	plan, err := a.PlanGoal(context.Background(),
		GoalInput{Name: "Car", TargetAmount: "60000", Timeframe: "2 years"},
		FamilyFinances{MonthlyIncome: "100000", MonthlyExpenses: "70000", CurrentSavings: "10000", MemberCount: 4})
	require.NoError(t, err)
	assert.Equal(t, 2500.0, plan.MonthlyContribution)
	assert.Equal(t, "24 months", plan.Timeline)
	assert.Contains(t, p.last.Messages[1].Content, "- Priority: medium")

	a = newTestAdvisor(t, &fakeProvider{content: `{"monthlyContribution":2500,"strategies":[],"feasibilityScore":80,"recommendations":[]}`})
	_, err = a.PlanGoal(context.Background(), GoalInput{Name: "Car"}, FamilyFinances{})
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
	assert.Equal(t, "", stripCodeFence("   "))
}
