package database

import (
	"context"
	"fmt"
	"time"

	"familyfinance/config"
	"familyfinance/models"
	"familyfinance/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// 存储驱动
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Dialector 根据配置构建 gorm 方言
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverMySQL:
		charset := cfg.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
			cfg.Username,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			charset,
		)
		return mysql.Open(dsn), nil
	case DriverPostgres:
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.Host,
			cfg.Port,
			cfg.Username,
			cfg.Password,
			cfg.DBName,
			sslMode,
		)
		return postgres.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// Open 建立数据库连接、配置连接池并自动迁移
func Open(cfg config.DatabaseConfig, debug bool, log logrus.FieldLogger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	maxIdle, maxOpen := cfg.MaxIdleConns, cfg.MaxOpenConns
	if maxIdle <= 0 {
		maxIdle = 10
	}
	if maxOpen <= 0 {
		maxOpen = 100
	}
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetMaxOpenConns(maxOpen)

	if err := db.AutoMigrate(models.All()...); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("自动迁移失败: %w", err)
	}
	return db, nil
}

// NewRepository 按配置创建存储，并在需要时写入演示数据
func NewRepository(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (repository.Repository, error) {
	var repo repository.Repository
	switch cfg.Database.Driver {
	case DriverMemory:
		repo = repository.NewMemoryRepository()
		log.Info("使用内存存储")
	default:
		db, err := Open(cfg.Database, !cfg.IsRelease(), log)
		if err != nil {
			return nil, err
		}
		repo = repository.NewGormRepository(db)
		log.WithField("driver", cfg.Database.Driver).Info("数据库连接成功")
	}

	if cfg.Database.Seed {
		month := time.Now().Format(models.MonthLayout)
		seeded, err := repository.Seed(ctx, repo, month)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("写入演示数据失败: %w", err)
		}
		if seeded {
			log.WithField("month", month).Info("已写入演示数据")
		}
	}
	return repo, nil
}
