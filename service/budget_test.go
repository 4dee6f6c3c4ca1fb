package service

import (
	"context"
	"testing"
	"time"

	"familyfinance/models"
	"familyfinance/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetLedger_ApplyExpense(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()

	budget, err := f.ledger.ApplyExpense(ctx, "f1", "2024-11", models.CategoryFood, decimal.NewFromInt(25))
	require.NoError(t, err)
	assert.True(t, budget.Categories.Food.Spent.Equal(decimal.NewFromInt(875)))
	assert.True(t, budget.TotalSpent.Equal(decimal.NewFromInt(875)))

	_, err = f.ledger.ApplyExpense(ctx, "f1", "2030-01", models.CategoryFood, decimal.NewFromInt(25))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBudgetLedger_Recalculate(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()

	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 10, 0, 0, 0, time.UTC) }
	for _, tx := range []models.Transaction{
		{FamilyID: "f1", Amount: decimal.RequireFromString("120.50"), Category: models.CategoryFood, Type: models.TransactionExpense, Date: day(11, 2)},
		{FamilyID: "f1", Amount: decimal.NewFromInt(80), Category: models.CategoryFood, Type: models.TransactionExpense, Date: day(11, 30)},
		{FamilyID: "f1", Amount: decimal.NewFromInt(60), Category: models.CategoryTransport, Type: models.TransactionExpense, Date: day(11, 15)},
		{FamilyID: "f1", Amount: decimal.NewFromInt(10), Category: "pets", Type: models.TransactionExpense, Date: day(11, 15)},
		{FamilyID: "f1", Amount: decimal.NewFromInt(3000), Category: "salary", Type: models.TransactionIncome, Date: day(11, 1)},
		{FamilyID: "f1", Amount: decimal.NewFromInt(999), Category: models.CategoryFood, Type: models.TransactionExpense, Date: day(10, 31)},
		{FamilyID: "f1", Amount: decimal.NewFromInt(999), Category: models.CategoryFood, Type: models.TransactionExpense, Date: day(12, 1)},
		{FamilyID: "f2", Amount: decimal.NewFromInt(999), Category: models.CategoryFood, Type: models.TransactionExpense, Date: day(11, 5)},
	} {
		tx := tx
		_, err := f.repo.CreateTransaction(ctx, &tx)
		require.NoError(t, err)
	}

	budget, err := f.ledger.Recalculate(ctx, "f1", "2024-11")
	require.NoError(t, err)
	assert.True(t, budget.Categories.Food.Spent.Equal(decimal.RequireFromString("200.50")), budget.Categories.Food.Spent.String())
	assert.True(t, budget.Categories.Transport.Spent.Equal(decimal.NewFromInt(60)))
	assert.True(t, budget.Categories.Shopping.Spent.IsZero())
	assert.True(t, budget.TotalSpent.Equal(decimal.RequireFromString("270.50")), budget.TotalSpent.String())
	// 预算额度不变
	assert.True(t, budget.Categories.Food.Budget.Equal(decimal.NewFromInt(1000)))
}

func TestBudgetLedger_Recalculate_Errors(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Recalculate(ctx, "f1", "November")
	assert.Error(t, err)

	_, err = f.ledger.Recalculate(ctx, "f1", "2030-01")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestKeyedMutex_Releases(t *testing.T) {
	k := newKeyedMutex()
	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	assert.Equal(t, 2, k.size())
	unlockA()
	unlockB()
	assert.Equal(t, 0, k.size())
}

func TestBudgetLedger_UpdateWaitsForLock(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()
	budget, err := f.repo.GetBudgetByID(ctx, f.budgetID)
	require.NoError(t, err)

	unlock := f.ledger.Lock("f1", "2024-11")
	total := decimal.NewFromInt(2000)
	done := make(chan *models.Budget, 1)
	go func() {
		updated, err := f.ledger.Update(ctx, budget, models.BudgetUpdate{TotalBudget: &total})
		assert.NoError(t, err)
		done <- updated
	}()

	select {
	case <-done:
		t.Fatal("update ran while the budget was locked")
	case <-time.After(50 * time.Millisecond):
	}
	unlock()

	select {
	case updated := <-done:
		assert.True(t, updated.TotalBudget.Equal(total))
		// 未修改的字段保留
		assert.True(t, updated.TotalSpent.Equal(decimal.NewFromInt(850)))
	case <-time.After(2 * time.Second):
		t.Fatal("update did not finish after unlock")
	}
	assert.Equal(t, 0, f.ledger.locks.size())
}
