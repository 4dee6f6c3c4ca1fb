// Package repository 提供实体存储：gorm 持久化实现与进程内内存实现，行为一致。
package repository

import (
	"context"
	"errors"
	"time"

	"familyfinance/models"
)

// ErrNotFound 引用的记录不存在
var ErrNotFound = errors.New("record not found")

const (
	// DefaultTransactionLimit 交易列表默认条数
	DefaultTransactionLimit = 50
	// MaxTransactionLimit 交易列表最大条数
	MaxTransactionLimit = 500
	// DefaultAdviceLimit 咨询记录默认条数
	DefaultAdviceLimit = 50
)

// Repository 实体存储。每个方法是独立的单记录原子操作，不提供跨实体事务。
type Repository interface {
	GetFamily(ctx context.Context, id string) (*models.Family, error)
	CreateFamily(ctx context.Context, family *models.Family) (*models.Family, error)
	GetFamilyWithMembers(ctx context.Context, id string) (*models.FamilyOverview, error)

	GetMember(ctx context.Context, id string) (*models.FamilyMember, error)
	ListMembers(ctx context.Context, familyID string) ([]models.FamilyMember, error)
	CreateMember(ctx context.Context, member *models.FamilyMember) (*models.FamilyMember, error)
	UpdateMember(ctx context.Context, id string, update models.MemberUpdate) (*models.FamilyMember, error)

	ListGoals(ctx context.Context, familyID string) ([]models.FamilyGoal, error)
	GetGoal(ctx context.Context, id string) (*models.FamilyGoal, error)
	CreateGoal(ctx context.Context, goal *models.FamilyGoal) (*models.FamilyGoal, error)
	UpdateGoal(ctx context.Context, id string, update models.GoalUpdate) (*models.FamilyGoal, error)

	GetBudget(ctx context.Context, familyID, month string) (*models.Budget, error)
	GetBudgetByID(ctx context.Context, id string) (*models.Budget, error)
	CreateBudget(ctx context.Context, budget *models.Budget) (*models.Budget, error)
	UpdateBudget(ctx context.Context, id string, update models.BudgetUpdate) (*models.Budget, error)

	ListTransactions(ctx context.Context, familyID string, limit int) ([]models.Transaction, error)
	ListTransactionsBetween(ctx context.Context, familyID string, from, to time.Time) ([]models.Transaction, error)
	CreateTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)

	GetAlert(ctx context.Context, id string) (*models.SmartAlert, error)
	ListAlerts(ctx context.Context, familyID string) ([]models.SmartAlert, error)
	CreateAlert(ctx context.Context, alert *models.SmartAlert) (*models.SmartAlert, error)
	MarkAlertRead(ctx context.Context, id string) (*models.SmartAlert, error)

	ListEducationalContent(ctx context.Context, filter models.ContentFilter) ([]models.EducationalContent, error)
	CreateEducationalContent(ctx context.Context, content *models.EducationalContent) (*models.EducationalContent, error)
	ListLearningProgress(ctx context.Context, memberID string) ([]models.LearningProgress, error)
	UpsertLearningProgress(ctx context.Context, progress *models.LearningProgress) (*models.LearningProgress, error)

	ListInvestments(ctx context.Context) ([]models.Investment, error)
	CreateInvestment(ctx context.Context, investment *models.Investment) (*models.Investment, error)

	ListFinancialServices(ctx context.Context, familyID string) ([]models.FinancialService, error)
	CreateFinancialService(ctx context.Context, service *models.FinancialService) (*models.FinancialService, error)

	ListAdviceMessages(ctx context.Context, familyID string, limit int) ([]models.AdviceMessage, error)
	CreateAdviceMessage(ctx context.Context, msg *models.AdviceMessage) (*models.AdviceMessage, error)

	Close() error
}

// NormalizeLimit 规范化交易列表条数
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultTransactionLimit
	}
	if limit > MaxTransactionLimit {
		return MaxTransactionLimit
	}
	return limit
}
