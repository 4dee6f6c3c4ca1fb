package service

import (
	"context"
	"errors"
	"fmt"

	"familyfinance/models"
	"familyfinance/repository"

	"github.com/sirupsen/logrus"
)

// TransactionService 交易写入及其副作用（超支告警、预算记账）
type TransactionService struct {
	repo   repository.Repository
	ledger *BudgetLedger
	alerts *AlertService
	log    logrus.FieldLogger
}

// NewTransactionService 创建交易服务
func NewTransactionService(repo repository.Repository, ledger *BudgetLedger, alerts *AlertService, log logrus.FieldLogger) *TransactionService {
	return &TransactionService{repo: repo, ledger: ledger, alerts: alerts, log: log}
}

// Create 保存交易；支出交易在同一 (family, month) 锁内依次做告警判定与记账，
// 释放锁后再通知。交易已保存后的副作用失败只记录日志，返回的 alert 为 nil。
func (s *TransactionService) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, *models.SmartAlert, error) {
	saved, err := s.repo.CreateTransaction(ctx, tx)
	if err != nil {
		return nil, nil, fmt.Errorf("create transaction: %w", err)
	}
	if !saved.IsExpense() {
		return saved, nil, nil
	}

	alert, err := s.applyExpense(ctx, saved)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"transaction_id": saved.ID,
			"family_id":      saved.FamilyID,
		}).Error("支出后处理失败")
	}
	s.alerts.Notify(ctx, alert)
	return saved, alert, nil
}

func (s *TransactionService) applyExpense(ctx context.Context, tx *models.Transaction) (*models.SmartAlert, error) {
	month := tx.Month()
	unlock := s.ledger.Lock(tx.FamilyID, month)
	defer unlock()

	budget, err := s.repo.GetBudget(ctx, tx.FamilyID, month)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}

	var saved *models.SmartAlert
	if alert := EvaluateExpense(budget, tx.Category, tx.Amount); alert != nil {
		if saved, err = s.alerts.Save(ctx, alert); err != nil {
			return nil, err
		}
	}

	if _, err := s.ledger.apply(ctx, budget, tx.Category, tx.Amount); err != nil {
		return saved, err
	}
	return saved, nil
}
