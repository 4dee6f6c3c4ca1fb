package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"familyfinance/logger"
	"familyfinance/models"
	"familyfinance/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu     sync.Mutex
	err    error
	alerts []*models.SmartAlert
	family *models.Family

	// 非 nil 时 Notify 先发 entered 再等待 release
	entered chan struct{}
	release chan struct{}
}

func (n *fakeNotifier) Name() string { return "fake" }

func (n *fakeNotifier) Notify(_ context.Context, family *models.Family, alert *models.SmartAlert) error {
	if n.release != nil {
		n.entered <- struct{}{}
		<-n.release
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
	n.family = family
	return n.err
}

type txFixture struct {
	repo     *repository.MemoryRepository
	svc      *TransactionService
	ledger   *BudgetLedger
	notifier *fakeNotifier
	budgetID string
}

func newTxFixture(t *testing.T) *txFixture {
	t.Helper()
	repo := repository.NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.CreateFamily(ctx, &models.Family{ID: "f1", Name: "F", TotalBalance: decimal.Zero, NotifyEmail: "f@example.com"})
	require.NoError(t, err)
	budget, err := repo.CreateBudget(ctx, &models.Budget{
		FamilyID:    "f1",
		Month:       "2024-11",
		TotalBudget: decimal.NewFromInt(1000),
		TotalSpent:  decimal.NewFromInt(850),
		Categories: models.BudgetCategories{
			Food: models.CategoryBudget{Budget: decimal.NewFromInt(1000), Spent: decimal.NewFromInt(850)},
		},
	})
	require.NoError(t, err)

	notifier := &fakeNotifier{}
	log := logger.Discard()
	ledger := NewBudgetLedger(repo)
	alerts := NewAlertService(repo, log, notifier)
	return &txFixture{
		repo:     repo,
		svc:      NewTransactionService(repo, ledger, alerts, log),
		ledger:   ledger,
		notifier: notifier,
		budgetID: budget.ID,
	}
}

func expense(amount int64, category string) *models.Transaction {
	return &models.Transaction{
		FamilyID: "f1",
		Amount:   decimal.NewFromInt(amount),
		Category: category,
		Type:     models.TransactionExpense,
		Date:     time.Date(2024, 11, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestTransactionService_Create_MediumAlert(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()

	tx, alert, err := f.svc.Create(ctx, expense(100, models.CategoryFood))
	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID)
	require.NotNil(t, alert)
	assert.Equal(t, models.SeverityMedium, alert.Severity)
	assert.Equal(t, int64(95), alert.Data.Percentage)

	alerts, err := f.repo.ListAlerts(ctx, "f1")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Food Budget Alert", alerts[0].Title)

	// 中危不通知
	assert.Empty(t, f.notifier.alerts)

	budget, err := f.repo.GetBudget(ctx, "f1", "2024-11")
	require.NoError(t, err)
	assert.True(t, budget.Categories.Food.Spent.Equal(decimal.NewFromInt(950)))
	assert.True(t, budget.TotalSpent.Equal(decimal.NewFromInt(950)))
}

func TestTransactionService_Create_HighAlertNotifies(t *testing.T) {
	f := newTxFixture(t)

	_, alert, err := f.svc.Create(context.Background(), expense(200, models.CategoryFood))
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, models.SeverityHigh, alert.Severity)

	require.Len(t, f.notifier.alerts, 1)
	assert.Equal(t, alert.ID, f.notifier.alerts[0].ID)
	require.NotNil(t, f.notifier.family)
	assert.Equal(t, "f@example.com", f.notifier.family.NotifyEmail)
}

func TestTransactionService_Create_NotifierFailureIgnored(t *testing.T) {
	f := newTxFixture(t)
	f.notifier.err = errors.New("broker down")

	tx, alert, err := f.svc.Create(context.Background(), expense(200, models.CategoryFood))
	require.NoError(t, err)
	assert.NotNil(t, tx)
	assert.NotNil(t, alert)
}

func TestTransactionService_Create_EvaluatesAgainstStoredSpent(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()

	// 第一笔 30：880/1000 不告警，记账后为 880
	_, alert, err := f.svc.Create(ctx, expense(30, models.CategoryFood))
	require.NoError(t, err)
	assert.Nil(t, alert)

	// 第二笔 30：910/1000 告警
	_, alert, err = f.svc.Create(ctx, expense(30, models.CategoryFood))
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, int64(91), alert.Data.Percentage)
}

func TestTransactionService_Create_NoSideEffects(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()

	income := expense(5000, "salary")
	income.Type = models.TransactionIncome
	_, alert, err := f.svc.Create(ctx, income)
	require.NoError(t, err)
	assert.Nil(t, alert)

	// 其他月份没有预算
	other := expense(5000, models.CategoryFood)
	other.Date = time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	_, alert, err = f.svc.Create(ctx, other)
	require.NoError(t, err)
	assert.Nil(t, alert)

	alerts, err := f.repo.ListAlerts(ctx, "f1")
	require.NoError(t, err)
	assert.Empty(t, alerts)

	budget, err := f.repo.GetBudget(ctx, "f1", "2024-11")
	require.NoError(t, err)
	assert.True(t, budget.TotalSpent.Equal(decimal.NewFromInt(850)))
}

func TestTransactionService_Create_UnknownCategoryCountsTowardsTotal(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()

	_, alert, err := f.svc.Create(ctx, expense(40, "pets"))
	require.NoError(t, err)
	assert.Nil(t, alert)

	budget, err := f.repo.GetBudget(ctx, "f1", "2024-11")
	require.NoError(t, err)
	assert.True(t, budget.TotalSpent.Equal(decimal.NewFromInt(890)))
	assert.True(t, budget.Categories.Food.Spent.Equal(decimal.NewFromInt(850)))
}

func TestTransactionService_Create_ConcurrentExpenses(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.svc.Create(ctx, expense(5, models.CategoryFood))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	budget, err := f.repo.GetBudget(ctx, "f1", "2024-11")
	require.NoError(t, err)
	assert.True(t, budget.Categories.Food.Spent.Equal(decimal.NewFromInt(950)), budget.Categories.Food.Spent.String())
	assert.Equal(t, 0, f.ledger.locks.size())
}

func TestTransactionService_Create_NotifyOutsideBudgetLock(t *testing.T) {
	f := newTxFixture(t)
	f.notifier.entered = make(chan struct{}, 1)
	f.notifier.release = make(chan struct{})
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, alert, err := f.svc.Create(ctx, expense(200, models.CategoryFood))
		assert.NoError(t, err)
		assert.NotNil(t, alert)
	}()

	select {
	case <-f.notifier.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier not called")
	}

	// 通知阻塞期间，同一家庭同一月份的支出仍可写入
	written := make(chan error, 1)
	go func() {
		_, _, err := f.svc.Create(ctx, expense(1, models.CategoryTransport))
		written <- err
	}()
	select {
	case err := <-written:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		close(f.notifier.release)
		t.Fatal("expense blocked by a pending notification")
	}

	close(f.notifier.release)
	<-done

	budget, err := f.repo.GetBudget(ctx, "f1", "2024-11")
	require.NoError(t, err)
	assert.True(t, budget.TotalSpent.Equal(decimal.NewFromInt(1051)), budget.TotalSpent.String())
	require.Len(t, f.notifier.alerts, 1)
}

func TestAlertService_SaveDoesNotNotify(t *testing.T) {
	f := newTxFixture(t)
	alerts := NewAlertService(f.repo, logger.Discard(), f.notifier)

	saved, err := alerts.Save(context.Background(), &models.SmartAlert{
		FamilyID: "f1", Type: models.AlertScam, Title: "t", Message: "m", Severity: models.SeverityHigh,
	})
	require.NoError(t, err)
	assert.Empty(t, f.notifier.alerts)

	alerts.Notify(context.Background(), saved)
	require.Len(t, f.notifier.alerts, 1)
	alerts.Notify(context.Background(), nil)
	assert.Len(t, f.notifier.alerts, 1)
}
