package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"familyfinance/models"
	"familyfinance/repository"

	"github.com/shopspring/decimal"
)

// keyedMutex 按 key 串行化，引用计数归零后回收
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock 获取 key 对应的锁，返回解锁函数
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// BudgetLedger 维护预算中的已花费金额
//
// 同一 (family, month) 的告警判定与记账在进程内串行执行，不提供跨进程保证。
type BudgetLedger struct {
	repo  repository.Repository
	locks *keyedMutex
}

// NewBudgetLedger 创建预算账本
func NewBudgetLedger(repo repository.Repository) *BudgetLedger {
	return &BudgetLedger{repo: repo, locks: newKeyedMutex()}
}

// Lock 锁定某家庭某月份的预算
func (l *BudgetLedger) Lock(familyID, month string) func() {
	return l.locks.Lock(familyID + "|" + month)
}

// ApplyExpense 将一笔支出计入预算：总花费总是增加，已知类别的花费同时增加。
// 调用方需已持有 Lock。无预算时返回 repository.ErrNotFound。
func (l *BudgetLedger) ApplyExpense(ctx context.Context, familyID, month, category string, amount decimal.Decimal) (*models.Budget, error) {
	budget, err := l.repo.GetBudget(ctx, familyID, month)
	if err != nil {
		return nil, err
	}
	return l.apply(ctx, budget, category, amount)
}

func (l *BudgetLedger) apply(ctx context.Context, budget *models.Budget, category string, amount decimal.Decimal) (*models.Budget, error) {
	categories := budget.Categories
	if cat, ok := categories.Lookup(category); ok {
		cat.Spent = cat.Spent.Add(amount)
	}
	totalSpent := budget.TotalSpent.Add(amount)

	updated, err := l.repo.UpdateBudget(ctx, budget.ID, models.BudgetUpdate{
		TotalSpent: &totalSpent,
		Categories: &categories,
	})
	if err != nil {
		return nil, fmt.Errorf("apply expense to budget %s: %w", budget.ID, err)
	}
	return updated, nil
}

// Update 在预算锁内修改预算，避免与并发记账互相覆盖
func (l *BudgetLedger) Update(ctx context.Context, budget *models.Budget, update models.BudgetUpdate) (*models.Budget, error) {
	unlock := l.Lock(budget.FamilyID, budget.Month)
	defer unlock()
	return l.repo.UpdateBudget(ctx, budget.ID, update)
}

// Recalculate 用当月全部支出交易重新计算各类别及总花费
func (l *BudgetLedger) Recalculate(ctx context.Context, familyID, month string) (*models.Budget, error) {
	start, err := time.Parse(models.MonthLayout, month)
	if err != nil {
		return nil, fmt.Errorf("invalid month %q: %w", month, err)
	}

	unlock := l.Lock(familyID, month)
	defer unlock()

	budget, err := l.repo.GetBudget(ctx, familyID, month)
	if err != nil {
		return nil, err
	}

	txs, err := monthTransactions(ctx, l.repo, familyID, month, start)
	if err != nil {
		return nil, err
	}

	categories := budget.Categories
	for _, name := range models.GetBudgetCategories() {
		cat, _ := categories.Lookup(name)
		cat.Spent = decimal.Zero
	}
	total := decimal.Zero
	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		total = total.Add(tx.Amount)
		if cat, ok := categories.Lookup(tx.Category); ok {
			cat.Spent = cat.Spent.Add(tx.Amount)
		}
	}

	updated, err := l.repo.UpdateBudget(ctx, budget.ID, models.BudgetUpdate{
		TotalSpent: &total,
		Categories: &categories,
	})
	if err != nil {
		return nil, fmt.Errorf("recalculate budget %s: %w", budget.ID, err)
	}
	return updated, nil
}

// MonthTransactions 某家庭某月（按交易日期所在月份）的全部交易，日期倒序
func MonthTransactions(ctx context.Context, repo repository.Repository, familyID, month string) ([]models.Transaction, error) {
	start, err := time.Parse(models.MonthLayout, month)
	if err != nil {
		return nil, fmt.Errorf("invalid month %q: %w", month, err)
	}
	return monthTransactions(ctx, repo, familyID, month, start)
}

func monthTransactions(ctx context.Context, repo repository.Repository, familyID, month string, start time.Time) ([]models.Transaction, error) {
	// 多取前后一天，再按交易自身时区的月份过滤
	txs, err := repo.ListTransactionsBetween(ctx, familyID, start.AddDate(0, 0, -1), start.AddDate(0, 1, 1))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := txs[:0]
	for _, tx := range txs {
		if tx.Month() == month {
			out = append(out, tx)
		}
	}
	return out, nil
}
