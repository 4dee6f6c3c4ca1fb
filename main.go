package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"familyfinance/config"
	"familyfinance/database"
	"familyfinance/logger"
	"familyfinance/middleware"
	"familyfinance/router"
	"familyfinance/service"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// @title 家庭理财 API
// @version 1.0
// @description 家庭理财看板后端：家庭、成员、目标、预算、交易、告警、理财教育与 AI 理财助手
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const version = "1.0.0"

var (
	configFile  string
	port        string
	showVersion bool
	issueToken  string
)

func init() {
	flag.StringVar(&configFile, "config", "", "外部配置文件路径（可选）")
	flag.StringVar(&configFile, "c", "", "外部配置文件路径（简写）")
	flag.StringVar(&port, "port", "", "监听端口，如: 8080 或 :8080")
	flag.StringVar(&port, "p", "", "监听端口（简写）")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.BoolVar(&showVersion, "v", false, "显示版本信息（简写）")
	flag.StringVar(&issueToken, "issue-token", "", "为指定家庭ID签发访问令牌后退出")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Printf("家庭理财 v%s\n", version)
		return
	}

	// .env 不存在时忽略
	_ = godotenv.Load()

	// 加载配置（内置配置 + 可选的外部配置覆盖）
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 命令行参数覆盖端口配置
	if port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
	}

	middleware.InitJWT(cfg)
	if issueToken != "" {
		token, err := middleware.GenerateToken(issueToken, cfg.JWT.ExpireTime)
		if err != nil {
			log.Fatalf("签发令牌失败: %v", err)
		}
		fmt.Println(token)
		return
	}

	config.PrintConfig()
	logr := logger.New(cfg.Log)

	if err := run(cfg, logr); err != nil {
		logr.WithError(err).Fatal("服务异常退出")
	}
}

func run(cfg *config.Config, logr *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := database.NewRepository(ctx, cfg, logr)
	if err != nil {
		return fmt.Errorf("初始化存储失败: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logr.WithError(err).Warn("关闭存储失败")
		}
	}()

	// 高危告警通知渠道
	var notifiers []service.Notifier
	if cfg.Email.Enabled {
		notifiers = append(notifiers, service.NewEmailService(&cfg.Email))
	}
	if cfg.AMQP.Enabled {
		amqpNotifier, err := service.NewAMQPNotifier(cfg.AMQP)
		if err != nil {
			return fmt.Errorf("连接消息队列失败: %w", err)
		}
		defer amqpNotifier.Close()
		notifiers = append(notifiers, amqpNotifier)
	}

	ledger := service.NewBudgetLedger(repo)
	alerts := service.NewAlertService(repo, logr, notifiers...)
	deps := router.Deps{
		Repo:         repo,
		Transactions: service.NewTransactionService(repo, ledger, alerts, logr),
		Ledger:       ledger,
		Alerts:       alerts,
		Advisor:      service.NewAdvisor(cfg.AI, logr),
		Log:          logr,
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router.SetupRouter(cfg, deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.WithFields(logrus.Fields{
			"addr":    cfg.Server.Port,
			"swagger": fmt.Sprintf("http://localhost%s/swagger/index.html", cfg.Server.Port),
		}).Info("家庭理财服务已启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
