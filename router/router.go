package router

import (
	"net/http"
	"time"

	"familyfinance/api"
	"familyfinance/config"
	_ "familyfinance/docs"
	"familyfinance/logger"
	"familyfinance/middleware"
	"familyfinance/repository"
	"familyfinance/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Deps 路由依赖，由 main 构建并注入
type Deps struct {
	Repo         repository.Repository
	Transactions *service.TransactionService
	Ledger       *service.BudgetLedger
	Alerts       *service.AlertService
	Advisor      *service.Advisor
	Log          logrus.FieldLogger
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(deps.Log))
	r.Use(middleware.Metrics())

	// CORS 中间件
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus 指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	registerAPI(r.Group("/api"), cfg, deps)
	return r
}

func registerAPI(g *gin.RouterGroup, cfg *config.Config, deps Deps) {
	familyHandler := api.NewFamilyHandler(deps.Repo)
	memberHandler := api.NewMemberHandler(deps.Repo)
	goalHandler := api.NewGoalHandler(deps.Repo)
	budgetHandler := api.NewBudgetHandler(deps.Repo, deps.Ledger)
	transactionHandler := api.NewTransactionHandler(deps.Repo, deps.Transactions)
	alertHandler := api.NewAlertHandler(deps.Repo)
	educationHandler := api.NewEducationHandler(deps.Repo)
	catalogHandler := api.NewCatalogHandler(deps.Repo)
	aiHandler := api.NewAIHandler(deps.Repo, deps.Advisor, deps.Alerts)
	exportHandler := api.NewExportHandler(deps.Repo)
	summaryHandler := api.NewSummaryHandler(deps.Repo)

	// 启用 JWT 时所有接口需要令牌，/family/:id 下的接口还需令牌属于该家庭
	if cfg.JWT.Enabled {
		g.Use(middleware.JWTAuth())
	}
	aiLimit := middleware.RateLimit(cfg.RateLimit.AIRequests, cfg.RateLimit.AIWindow)

	g.POST("/family", familyHandler.Create)

	family := g.Group("/family/:id")
	if cfg.JWT.Enabled {
		family.Use(middleware.FamilyScope("id"))
	}
	{
		family.GET("", familyHandler.Get)

		family.GET("/members", memberHandler.List)
		family.POST("/members", memberHandler.Create)

		family.GET("/goals", goalHandler.List)
		family.POST("/goals", goalHandler.Create)

		family.POST("/budget", budgetHandler.Create)
		family.GET("/budget/:month", budgetHandler.Get)
		family.POST("/budget/:month/recalculate", budgetHandler.Recalculate)

		family.GET("/transactions", transactionHandler.List)
		family.POST("/transactions", transactionHandler.Create)
		family.GET("/transactions/export", exportHandler.Export)
		family.GET("/summary", summaryHandler.MonthlySummary)

		family.GET("/alerts", alertHandler.List)

		family.GET("/financial-services", catalogHandler.ListServices)
		family.POST("/financial-services", catalogHandler.CreateService)

		family.GET("/ai/advice-history", aiHandler.AdviceHistory)
		family.POST("/ai/spending-analysis", aiLimit, aiHandler.SpendingAnalysis)
		family.POST("/ai/scam-check", aiLimit, aiHandler.ScamCheck)
	}

	g.PATCH("/members/:id", memberHandler.Update)
	g.GET("/members/:id/learning-progress", educationHandler.ListProgress)
	g.PUT("/members/:id/learning-progress", educationHandler.UpsertProgress)

	g.GET("/goals/:id", goalHandler.Get)
	g.PATCH("/goals/:id", goalHandler.Update)

	g.PATCH("/budgets/:id", budgetHandler.Update)

	g.PATCH("/alerts/:id/read", alertHandler.MarkRead)

	g.GET("/educational-content", educationHandler.ListContent)
	g.GET("/investments", catalogHandler.ListInvestments)

	ai := g.Group("/ai", aiLimit)
	{
		ai.POST("/financial-advice", aiHandler.FinancialAdvice)
		ai.POST("/educational-content", aiHandler.EducationalContent)
		ai.POST("/goal-plan", aiHandler.GoalPlan)
	}
}
