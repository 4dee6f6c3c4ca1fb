package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"familyfinance/config"
	"familyfinance/logger"
	"familyfinance/models"
	"familyfinance/repository"
	"familyfinance/router"
	"familyfinance/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fakeAI 模拟 OpenAI 兼容的 /chat/completions
type fakeAI struct {
	mu      sync.Mutex
	status  int
	content string
	calls   int
}

func (f *fakeAI) reply(content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = http.StatusOK
	f.content = content
}

func (f *fakeAI) fail(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

func (f *fakeAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.status != 0 && f.status != http.StatusOK {
		w.WriteHeader(f.status)
		return
	}
	content, _ := json.Marshal(f.content)
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%s}}]}`, content)
}

type testEnv struct {
	repo   *repository.MemoryRepository
	router *gin.Engine
	ai     *fakeAI
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ai := &fakeAI{}
	srv := httptest.NewServer(ai)
	t.Cleanup(srv.Close)

	log := logger.Discard()
	repo := repository.NewMemoryRepository()
	ledger := service.NewBudgetLedger(repo)
	alerts := service.NewAlertService(repo, log)
	txs := service.NewTransactionService(repo, ledger, alerts, log)

	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: gin.TestMode},
		AI:        config.AIConfig{BaseURL: srv.URL, Model: "test", Timeout: 5 * time.Second},
		RateLimit: config.RateLimitConfig{AIRequests: 1000, AIWindow: time.Minute},
	}
	advisor := service.NewAdvisor(cfg.AI, log)
	r := router.SetupRouter(cfg, router.Deps{
		Repo:         repo,
		Transactions: txs,
		Ledger:       ledger,
		Alerts:       alerts,
		Advisor:      advisor,
		Log:          log,
	})

	return &testEnv{repo: repo, router: r, ai: ai}
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// seedFoodBudget 创建家庭 f1 及 2024-11 预算：food 1000/850
func (e *testEnv) seedFoodBudget(t *testing.T) *models.Budget {
	t.Helper()
	ctx := testContext(t)
	_, err := e.repo.CreateFamily(ctx, &models.Family{ID: "f1", Name: "Test Family"})
	require.NoError(t, err)
	budget, err := e.repo.CreateBudget(ctx, &models.Budget{
		FamilyID:    "f1",
		Month:       "2024-11",
		TotalBudget: decimal.NewFromInt(1000),
		TotalSpent:  decimal.NewFromInt(850),
		Categories: models.BudgetCategories{
			Food: models.CategoryBudget{Budget: decimal.NewFromInt(1000), Spent: decimal.NewFromInt(850)},
		},
	})
	require.NoError(t, err)
	return budget
}

// testContext mirrors testing.T.Context (Go 1.24+): a context canceled when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
