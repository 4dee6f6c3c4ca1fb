package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"familyfinance/config"
	"familyfinance/logger"
	"familyfinance/middleware"
	"familyfinance/repository"
	"familyfinance/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, jwtEnabled bool) (*gin.Engine, *repository.MemoryRepository) {
	t.Helper()
	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: gin.TestMode},
		AI:        config.AIConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second},
		JWT:       config.JWTConfig{Enabled: jwtEnabled, Secret: "router-test-secret"},
		RateLimit: config.RateLimitConfig{AIRequests: 2, AIWindow: time.Minute},
	}
	middleware.InitJWT(cfg)

	log := logger.Discard()
	repo := repository.NewMemoryRepository()
	ledger := service.NewBudgetLedger(repo)
	alerts := service.NewAlertService(repo, log)
	return SetupRouter(cfg, Deps{
		Repo:         repo,
		Transactions: service.NewTransactionService(repo, ledger, alerts, log),
		Ledger:       ledger,
		Alerts:       alerts,
		Advisor:      service.NewAdvisor(cfg.AI, log),
		Log:          log,
	}), repo
}

func serve(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSetupRouter_Health(t *testing.T) {
	r, _ := newTestRouter(t, false)

	w := serve(r, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = serve(r, "GET", "/api/family/nobody", "", map[string]string{"Origin": "http://localhost:5173"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, "GET", "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "familyfinance_http_requests_total")
}

func TestSetupRouter_JWT(t *testing.T) {
	r, repo := newTestRouter(t, true)
	_, err := repository.Seed(testContext(t), repo, "2024-11")
	require.NoError(t, err)
	f1 := repository.DemoFamilyID

	w := serve(r, "GET", "/api/family/"+f1, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other, err := middleware.GenerateToken("someone-else", time.Hour)
	require.NoError(t, err)
	w = serve(r, "GET", "/api/family/"+f1, "", map[string]string{"Authorization": "Bearer " + other})
	assert.Equal(t, http.StatusForbidden, w.Code)

	token, err := middleware.GenerateToken(f1, time.Hour)
	require.NoError(t, err)
	w = serve(r, "GET", "/api/family/"+f1, "", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 非家庭路径只要求有效令牌
	w = serve(r, "GET", "/api/investments", "", map[string]string{"Authorization": "Bearer " + other})
	assert.Equal(t, http.StatusOK, w.Code)

	// 健康检查不受影响
	assert.Equal(t, http.StatusOK, serve(r, "GET", "/health", "", nil).Code)
}

func TestSetupRouter_AIRateLimit(t *testing.T) {
	r, _ := newTestRouter(t, false)

	for i := 0; i < 2; i++ {
		w := serve(r, "POST", "/api/ai/goal-plan", `{}`, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	w := serve(r, "POST", "/api/ai/goal-plan", `{}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// 非 AI 接口不限流
	assert.Equal(t, http.StatusOK, serve(r, "GET", "/api/investments", "", nil).Code)
}

func TestSetupRouter_JWTRecordsOfOtherFamily(t *testing.T) {
	r, repo := newTestRouter(t, true)
	_, err := repository.Seed(testContext(t), repo, "2024-11")
	require.NoError(t, err)

	owner, err := middleware.GenerateToken(repository.DemoFamilyID, time.Hour)
	require.NoError(t, err)
	other, err := middleware.GenerateToken("someone-else", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{"GET", "/api/goals/goal-1", ""},
		{"PATCH", "/api/goals/goal-1", `{"isActive":false}`},
		{"PATCH", "/api/alerts/alert-1/read", ""},
		{"PATCH", "/api/budgets/budget-1", `{"totalSpent":"1"}`},
		{"PATCH", "/api/members/member-1", `{"isActive":false}`},
		{"GET", "/api/members/member-1/learning-progress", ""},
		{"PUT", "/api/members/member-1/learning-progress", `{"contentId":"content-1","progress":10}`},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			// 其他家庭的令牌看不到记录
			w := serve(r, tt.method, tt.path, tt.body, map[string]string{"Authorization": "Bearer " + other})
			assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
		})
	}

	// 未被修改
	goal, err := repo.GetGoal(testContext(t), "goal-1")
	require.NoError(t, err)
	assert.True(t, goal.IsActive)
	alert, err := repo.GetAlert(testContext(t), "alert-1")
	require.NoError(t, err)
	assert.False(t, alert.IsRead)
	member, err := repo.GetMember(testContext(t), "member-1")
	require.NoError(t, err)
	assert.True(t, member.IsActive)
	progress, err := repo.ListLearningProgress(testContext(t), "member-1")
	require.NoError(t, err)
	assert.Empty(t, progress)

	for _, tt := range tests {
		w := serve(r, tt.method, tt.path, tt.body, map[string]string{"Authorization": "Bearer " + owner})
		assert.Equal(t, http.StatusOK, w.Code, tt.method+" "+tt.path+" "+w.Body.String())
	}
}

func TestSetupRouter_JWTAdviceForOtherFamily(t *testing.T) {
	r, repo := newTestRouter(t, true)
	other, err := middleware.GenerateToken("someone-else", time.Hour)
	require.NoError(t, err)

	w := serve(r, "POST", "/api/ai/financial-advice",
		`{"question":"q","context":{"familyId":"family-1"}}`,
		map[string]string{"Authorization": "Bearer " + other})
	assert.Equal(t, http.StatusForbidden, w.Code)

	history, err := repo.ListAdviceMessages(testContext(t), "family-1", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

// testContext mirrors testing.T.Context (Go 1.24+): a context canceled when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
