package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"familyfinance/models"

	"gorm.io/gorm"
)

// GormRepository 基于 gorm 的持久化存储（MySQL / PostgreSQL）
type GormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormRepository 使用已建立的连接创建存储
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db, now: time.Now}
}

// DB 返回底层连接
func (r *GormRepository) DB() *gorm.DB {
	return r.db
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ---- Family ----

func (r *GormRepository) GetFamily(ctx context.Context, id string) (*models.Family, error) {
	var family models.Family
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&family).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &family, nil
}

func (r *GormRepository) CreateFamily(ctx context.Context, family *models.Family) (*models.Family, error) {
	if err := r.db.WithContext(ctx).Create(family).Error; err != nil {
		return nil, fmt.Errorf("create family: %w", err)
	}
	return family, nil
}

func (r *GormRepository) GetFamilyWithMembers(ctx context.Context, id string) (*models.FamilyOverview, error) {
	family, err := r.GetFamily(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := r.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.FamilyOverview{Family: *family, Members: members}, nil
}

// ---- Members ----

func (r *GormRepository) GetMember(ctx context.Context, id string) (*models.FamilyMember, error) {
	var member models.FamilyMember
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&member).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &member, nil
}

func (r *GormRepository) ListMembers(ctx context.Context, familyID string) ([]models.FamilyMember, error) {
	members := make([]models.FamilyMember, 0)
	err := r.db.WithContext(ctx).
		Where("family_id = ? AND is_active = ?", familyID, true).
		Find(&members).Error
	return members, err
}

func (r *GormRepository) CreateMember(ctx context.Context, member *models.FamilyMember) (*models.FamilyMember, error) {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}
	return member, nil
}

func (r *GormRepository) UpdateMember(ctx context.Context, id string, update models.MemberUpdate) (*models.FamilyMember, error) {
	var member models.FamilyMember
	if err := r.updateColumns(ctx, &member, id, update.Columns()); err != nil {
		return nil, err
	}
	return &member, nil
}

// updateColumns 查询记录、更新给定列并返回最新值；记录不存在时返回 ErrNotFound
func (r *GormRepository) updateColumns(ctx context.Context, dest interface{}, id string, cols map[string]interface{}) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("id = ?", id).First(dest).Error; err != nil {
		return wrapNotFound(err)
	}
	if len(cols) == 0 {
		return nil
	}
	if err := db.Model(dest).Updates(cols).Error; err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	return wrapNotFound(db.Where("id = ?", id).First(dest).Error)
}

// ---- Goals ----

func (r *GormRepository) ListGoals(ctx context.Context, familyID string) ([]models.FamilyGoal, error) {
	goals := make([]models.FamilyGoal, 0)
	err := r.db.WithContext(ctx).
		Where("family_id = ? AND is_active = ?", familyID, true).
		Order("created_at").
		Find(&goals).Error
	return goals, err
}

func (r *GormRepository) GetGoal(ctx context.Context, id string) (*models.FamilyGoal, error) {
	var goal models.FamilyGoal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&goal).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &goal, nil
}

func (r *GormRepository) CreateGoal(ctx context.Context, goal *models.FamilyGoal) (*models.FamilyGoal, error) {
	if goal.Contributors == nil {
		goal.Contributors = models.StringList{}
	}
	if err := r.db.WithContext(ctx).Create(goal).Error; err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return goal, nil
}

func (r *GormRepository) UpdateGoal(ctx context.Context, id string, update models.GoalUpdate) (*models.FamilyGoal, error) {
	var goal models.FamilyGoal
	if err := r.updateColumns(ctx, &goal, id, update.Columns()); err != nil {
		return nil, err
	}
	return &goal, nil
}

// ---- Budgets ----

// GetBudget 同一 (familyId, month) 存在多条时返回最早创建的一条
func (r *GormRepository) GetBudget(ctx context.Context, familyID, month string) (*models.Budget, error) {
	var budget models.Budget
	if err := r.db.WithContext(ctx).
		Where("family_id = ? AND month = ?", familyID, month).
		Order("created_at ASC").Order("id ASC").
		Take(&budget).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &budget, nil
}

func (r *GormRepository) GetBudgetByID(ctx context.Context, id string) (*models.Budget, error) {
	var budget models.Budget
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&budget).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &budget, nil
}

func (r *GormRepository) CreateBudget(ctx context.Context, budget *models.Budget) (*models.Budget, error) {
	if err := r.db.WithContext(ctx).Create(budget).Error; err != nil {
		return nil, fmt.Errorf("create budget: %w", err)
	}
	return budget, nil
}

func (r *GormRepository) UpdateBudget(ctx context.Context, id string, update models.BudgetUpdate) (*models.Budget, error) {
	var budget models.Budget
	if err := r.updateColumns(ctx, &budget, id, update.Columns()); err != nil {
		return nil, err
	}
	return &budget, nil
}

// ---- Transactions ----

func (r *GormRepository) ListTransactions(ctx context.Context, familyID string, limit int) ([]models.Transaction, error) {
	txs := make([]models.Transaction, 0)
	err := r.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("date DESC").
		Limit(NormalizeLimit(limit)).
		Find(&txs).Error
	return txs, err
}

func (r *GormRepository) ListTransactionsBetween(ctx context.Context, familyID string, from, to time.Time) ([]models.Transaction, error) {
	txs := make([]models.Transaction, 0)
	err := r.db.WithContext(ctx).
		Where("family_id = ? AND date >= ? AND date < ?", familyID, from, to).
		Order("date DESC").
		Find(&txs).Error
	return txs, err
}

func (r *GormRepository) CreateTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	if tx.Date.IsZero() {
		tx.Date = r.now()
	}
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return tx, nil
}

// ---- Alerts ----

func (r *GormRepository) GetAlert(ctx context.Context, id string) (*models.SmartAlert, error) {
	var alert models.SmartAlert
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&alert).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &alert, nil
}

func (r *GormRepository) ListAlerts(ctx context.Context, familyID string) ([]models.SmartAlert, error) {
	alerts := make([]models.SmartAlert, 0)
	err := r.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("created_at DESC").
		Find(&alerts).Error
	return alerts, err
}

func (r *GormRepository) CreateAlert(ctx context.Context, alert *models.SmartAlert) (*models.SmartAlert, error) {
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}
	return alert, nil
}

// MarkAlertRead 幂等：已读告警再次标记返回同一记录
func (r *GormRepository) MarkAlertRead(ctx context.Context, id string) (*models.SmartAlert, error) {
	var alert models.SmartAlert
	if err := r.updateColumns(ctx, &alert, id, map[string]interface{}{"is_read": true}); err != nil {
		return nil, err
	}
	return &alert, nil
}

// ---- Educational content ----

func (r *GormRepository) ListEducationalContent(ctx context.Context, filter models.ContentFilter) ([]models.EducationalContent, error) {
	query := r.db.WithContext(ctx).Model(&models.EducationalContent{})
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.AgeGroup != "" {
		query = query.Where("(age_group = ? OR age_group = ?)", filter.AgeGroup, models.AgeGroupAll)
	}
	contents := make([]models.EducationalContent, 0)
	err := query.Find(&contents).Error
	return contents, err
}

func (r *GormRepository) CreateEducationalContent(ctx context.Context, content *models.EducationalContent) (*models.EducationalContent, error) {
	if err := r.db.WithContext(ctx).Create(content).Error; err != nil {
		return nil, fmt.Errorf("create educational content: %w", err)
	}
	return content, nil
}

func (r *GormRepository) ListLearningProgress(ctx context.Context, memberID string) ([]models.LearningProgress, error) {
	progress := make([]models.LearningProgress, 0)
	err := r.db.WithContext(ctx).Where("member_id = ?", memberID).Find(&progress).Error
	return progress, err
}

// UpsertLearningProgress 按 (memberId, contentId) 查找，存在则更新进度并刷新访问时间，否则插入
func (r *GormRepository) UpsertLearningProgress(ctx context.Context, progress *models.LearningProgress) (*models.LearningProgress, error) {
	var saved models.LearningProgress
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("member_id = ? AND content_id = ?", progress.MemberID, progress.ContentID).First(&saved).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			saved = *progress
			saved.LastAccessed = r.now()
			return tx.Create(&saved).Error
		}
		if err != nil {
			return err
		}
		saved.Progress = progress.Progress
		saved.Completed = progress.Completed
		saved.LastAccessed = r.now()
		return tx.Model(&saved).Updates(map[string]interface{}{
			"progress":      saved.Progress,
			"completed":     saved.Completed,
			"last_accessed": saved.LastAccessed,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("upsert learning progress: %w", err)
	}
	return &saved, nil
}

// ---- Catalogs ----

func (r *GormRepository) ListInvestments(ctx context.Context) ([]models.Investment, error) {
	investments := make([]models.Investment, 0)
	err := r.db.WithContext(ctx).Find(&investments).Error
	return investments, err
}

func (r *GormRepository) CreateInvestment(ctx context.Context, investment *models.Investment) (*models.Investment, error) {
	if err := r.db.WithContext(ctx).Create(investment).Error; err != nil {
		return nil, fmt.Errorf("create investment: %w", err)
	}
	return investment, nil
}

func (r *GormRepository) ListFinancialServices(ctx context.Context, familyID string) ([]models.FinancialService, error) {
	services := make([]models.FinancialService, 0)
	err := r.db.WithContext(ctx).Where("family_id = ?", familyID).Find(&services).Error
	return services, err
}

func (r *GormRepository) CreateFinancialService(ctx context.Context, service *models.FinancialService) (*models.FinancialService, error) {
	if err := r.db.WithContext(ctx).Create(service).Error; err != nil {
		return nil, fmt.Errorf("create financial service: %w", err)
	}
	return service, nil
}

// ---- Advice ----

func (r *GormRepository) ListAdviceMessages(ctx context.Context, familyID string, limit int) ([]models.AdviceMessage, error) {
	if limit <= 0 {
		limit = DefaultAdviceLimit
	}
	messages := make([]models.AdviceMessage, 0)
	err := r.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *GormRepository) CreateAdviceMessage(ctx context.Context, msg *models.AdviceMessage) (*models.AdviceMessage, error) {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("create advice message: %w", err)
	}
	return msg, nil
}

// Close 关闭底层连接池
func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
