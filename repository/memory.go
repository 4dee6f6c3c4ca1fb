package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"familyfinance/models"
)

// MemoryRepository 进程内存储，进程重启后数据丢失，不跨进程共享
type MemoryRepository struct {
	mu  sync.RWMutex
	seq int64
	now func() time.Time

	families     map[string]*models.Family
	members      map[string]*models.FamilyMember
	goals        map[string]*models.FamilyGoal
	budgets      map[string]*models.Budget
	transactions map[string]*models.Transaction
	alerts       map[string]*models.SmartAlert
	contents     map[string]*models.EducationalContent
	progress     map[string]*models.LearningProgress
	investments  map[string]*models.Investment
	services     map[string]*models.FinancialService
	advice       map[string]*models.AdviceMessage

	// 插入顺序，保证列表稳定
	order map[string]int64
}

// NewMemoryRepository 创建空的内存存储
func NewMemoryRepository() *MemoryRepository {
	return NewMemoryRepositoryWithClock(time.Now)
}

// NewMemoryRepositoryWithClock 使用指定时钟创建内存存储（测试用）
func NewMemoryRepositoryWithClock(now func() time.Time) *MemoryRepository {
	return &MemoryRepository{
		now:          now,
		families:     make(map[string]*models.Family),
		members:      make(map[string]*models.FamilyMember),
		goals:        make(map[string]*models.FamilyGoal),
		budgets:      make(map[string]*models.Budget),
		transactions: make(map[string]*models.Transaction),
		alerts:       make(map[string]*models.SmartAlert),
		contents:     make(map[string]*models.EducationalContent),
		progress:     make(map[string]*models.LearningProgress),
		investments:  make(map[string]*models.Investment),
		services:     make(map[string]*models.FinancialService),
		advice:       make(map[string]*models.AdviceMessage),
		order:        make(map[string]int64),
	}
}

// track 记录插入顺序，调用方需持有写锁
func (r *MemoryRepository) track(id string) {
	r.seq++
	r.order[id] = r.seq
}

func (r *MemoryRepository) assignID(id *string) {
	if *id == "" {
		*id = models.NewID()
	}
}

// ---- Family ----

func (r *MemoryRepository) GetFamily(_ context.Context, id string) (*models.Family, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.families[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *f
	return &out, nil
}

func (r *MemoryRepository) CreateFamily(_ context.Context, family *models.Family) (*models.Family, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f := *family
	r.assignID(&f.ID)
	if f.CreatedAt.IsZero() {
		f.CreatedAt = r.now()
	}
	r.families[f.ID] = &f
	r.track(f.ID)
	out := f
	return &out, nil
}

func (r *MemoryRepository) GetFamilyWithMembers(ctx context.Context, id string) (*models.FamilyOverview, error) {
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

func (r *MemoryRepository) GetMember(_ context.Context, id string) (*models.FamilyMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyMember(m)
	return &out, nil
}

func (r *MemoryRepository) ListMembers(_ context.Context, familyID string) ([]models.FamilyMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.FamilyMember, 0)
	for _, m := range r.members {
		if m.FamilyID == familyID && m.IsActive {
			out = append(out, copyMember(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.order[out[i].ID] < r.order[out[j].ID] })
	return out, nil
}

func (r *MemoryRepository) CreateMember(_ context.Context, member *models.FamilyMember) (*models.FamilyMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := copyMember(member)
	r.assignID(&m.ID)
	r.members[m.ID] = &m
	r.track(m.ID)
	out := copyMember(&m)
	return &out, nil
}

func (r *MemoryRepository) UpdateMember(_ context.Context, id string, update models.MemberUpdate) (*models.FamilyMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok {
		return nil, ErrNotFound
	}
	update.Apply(m)
	out := copyMember(m)
	return &out, nil
}

// ---- Goals ----

func (r *MemoryRepository) ListGoals(_ context.Context, familyID string) ([]models.FamilyGoal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.FamilyGoal, 0)
	for _, g := range r.goals {
		if g.FamilyID == familyID && g.IsActive {
			out = append(out, copyGoal(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.order[out[i].ID] < r.order[out[j].ID] })
	return out, nil
}

func (r *MemoryRepository) GetGoal(_ context.Context, id string) (*models.FamilyGoal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.goals[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyGoal(g)
	return &out, nil
}

func (r *MemoryRepository) CreateGoal(_ context.Context, goal *models.FamilyGoal) (*models.FamilyGoal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g := copyGoal(goal)
	r.assignID(&g.ID)
	if g.Contributors == nil {
		g.Contributors = models.StringList{}
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = r.now()
	}
	r.goals[g.ID] = &g
	r.track(g.ID)
	out := copyGoal(&g)
	return &out, nil
}

func (r *MemoryRepository) UpdateGoal(_ context.Context, id string, update models.GoalUpdate) (*models.FamilyGoal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.goals[id]
	if !ok {
		return nil, ErrNotFound
	}
	update.Apply(g)
	out := copyGoal(g)
	return &out, nil
}

// ---- Budgets ----

// GetBudget 同一 (familyId, month) 存在多条时返回最早插入的一条
func (r *MemoryRepository) GetBudget(_ context.Context, familyID, month string) (*models.Budget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *models.Budget
	for _, b := range r.budgets {
		if b.FamilyID != familyID || b.Month != month {
			continue
		}
		if found == nil || r.order[b.ID] < r.order[found.ID] {
			found = b
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	out := *found
	return &out, nil
}

func (r *MemoryRepository) GetBudgetByID(_ context.Context, id string) (*models.Budget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.budgets[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *b
	return &out, nil
}

func (r *MemoryRepository) CreateBudget(_ context.Context, budget *models.Budget) (*models.Budget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := *budget
	r.assignID(&b.ID)
	if b.CreatedAt.IsZero() {
		b.CreatedAt = r.now()
	}
	r.budgets[b.ID] = &b
	r.track(b.ID)
	out := b
	return &out, nil
}

func (r *MemoryRepository) UpdateBudget(_ context.Context, id string, update models.BudgetUpdate) (*models.Budget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.budgets[id]
	if !ok {
		return nil, ErrNotFound
	}
	update.Apply(b)
	out := *b
	return &out, nil
}

// ---- Transactions ----

func (r *MemoryRepository) ListTransactions(_ context.Context, familyID string, limit int) ([]models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := r.transactionsWhere(func(t *models.Transaction) bool { return t.FamilyID == familyID })
	if limit = NormalizeLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) ListTransactionsBetween(_ context.Context, familyID string, from, to time.Time) ([]models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.transactionsWhere(func(t *models.Transaction) bool {
		return t.FamilyID == familyID && !t.Date.Before(from) && t.Date.Before(to)
	}), nil
}

// transactionsWhere 按日期倒序返回，调用方需持有读锁
func (r *MemoryRepository) transactionsWhere(keep func(*models.Transaction) bool) []models.Transaction {
	out := make([]models.Transaction, 0)
	for _, t := range r.transactions {
		if keep(t) {
			out = append(out, copyTransaction(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return r.order[out[i].ID] > r.order[out[j].ID]
	})
	return out
}

func (r *MemoryRepository) CreateTransaction(_ context.Context, tx *models.Transaction) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := copyTransaction(tx)
	r.assignID(&t.ID)
	if t.Date.IsZero() {
		t.Date = r.now()
	}
	r.transactions[t.ID] = &t
	r.track(t.ID)
	out := copyTransaction(&t)
	return &out, nil
}

// ---- Alerts ----

func (r *MemoryRepository) GetAlert(_ context.Context, id string) (*models.SmartAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyAlert(a)
	return &out, nil
}

func (r *MemoryRepository) ListAlerts(_ context.Context, familyID string) ([]models.SmartAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.SmartAlert, 0)
	for _, a := range r.alerts {
		if a.FamilyID == familyID {
			out = append(out, copyAlert(a))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.order[out[i].ID] > r.order[out[j].ID]
	})
	return out, nil
}

func (r *MemoryRepository) CreateAlert(_ context.Context, alert *models.SmartAlert) (*models.SmartAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := copyAlert(alert)
	r.assignID(&a.ID)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now()
	}
	r.alerts[a.ID] = &a
	r.track(a.ID)
	out := copyAlert(&a)
	return &out, nil
}

func (r *MemoryRepository) MarkAlertRead(_ context.Context, id string) (*models.SmartAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.IsRead = true
	out := copyAlert(a)
	return &out, nil
}

// ---- Educational content ----

func (r *MemoryRepository) ListEducationalContent(_ context.Context, filter models.ContentFilter) ([]models.EducationalContent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.EducationalContent, 0)
	for _, c := range r.contents {
		if filter.Matches(*c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.order[out[i].ID] < r.order[out[j].ID] })
	return out, nil
}

func (r *MemoryRepository) CreateEducationalContent(_ context.Context, content *models.EducationalContent) (*models.EducationalContent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *content
	r.assignID(&c.ID)
	r.contents[c.ID] = &c
	r.track(c.ID)
	out := c
	return &out, nil
}

func (r *MemoryRepository) ListLearningProgress(_ context.Context, memberID string) ([]models.LearningProgress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.LearningProgress, 0)
	for _, p := range r.progress {
		if p.MemberID == memberID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.order[out[i].ID] < r.order[out[j].ID] })
	return out, nil
}

// UpsertLearningProgress 按 (memberId, contentId) 合并，已存在则覆盖进度并刷新访问时间
func (r *MemoryRepository) UpsertLearningProgress(_ context.Context, progress *models.LearningProgress) (*models.LearningProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.progress {
		if p.MemberID == progress.MemberID && p.ContentID == progress.ContentID {
			p.Progress = progress.Progress
			p.Completed = progress.Completed
			p.LastAccessed = r.now()
			out := *p
			return &out, nil
		}
	}
	p := *progress
	r.assignID(&p.ID)
	p.LastAccessed = r.now()
	r.progress[p.ID] = &p
	r.track(p.ID)
	out := p
	return &out, nil
}

// ---- Catalogs ----

func (r *MemoryRepository) ListInvestments(_ context.Context) ([]models.Investment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Investment, 0, len(r.investments))
	for _, i := range r.investments {
		out = append(out, *i)
	}
	sort.Slice(out, func(i, j int) bool { return r.order[out[i].ID] < r.order[out[j].ID] })
	return out, nil
}

func (r *MemoryRepository) CreateInvestment(_ context.Context, investment *models.Investment) (*models.Investment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := *investment
	r.assignID(&i.ID)
	r.investments[i.ID] = &i
	r.track(i.ID)
	out := i
	return &out, nil
}

func (r *MemoryRepository) ListFinancialServices(_ context.Context, familyID string) ([]models.FinancialService, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.FinancialService, 0)
	for _, s := range r.services {
		if s.FamilyID == familyID {
			out = append(out, copyService(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.order[out[i].ID] < r.order[out[j].ID] })
	return out, nil
}

func (r *MemoryRepository) CreateFinancialService(_ context.Context, service *models.FinancialService) (*models.FinancialService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := copyService(service)
	r.assignID(&s.ID)
	r.services[s.ID] = &s
	r.track(s.ID)
	out := copyService(&s)
	return &out, nil
}

// ---- Advice ----

func (r *MemoryRepository) ListAdviceMessages(_ context.Context, familyID string, limit int) ([]models.AdviceMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.AdviceMessage, 0)
	for _, m := range r.advice {
		if m.FamilyID == familyID {
			out = append(out, *m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return r.order[out[i].ID] > r.order[out[j].ID] })
	if limit <= 0 {
		limit = DefaultAdviceLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) CreateAdviceMessage(_ context.Context, msg *models.AdviceMessage) (*models.AdviceMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := *msg
	r.assignID(&m.ID)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = r.now()
	}
	r.advice[m.ID] = &m
	r.track(m.ID)
	out := m
	return &out, nil
}

// Close 内存存储无需释放资源
func (r *MemoryRepository) Close() error {
	return nil
}

func copyMember(m *models.FamilyMember) models.FamilyMember {
	out := *m
	if m.Age != nil {
		age := *m.Age
		out.Age = &age
	}
	return out
}

func copyGoal(g *models.FamilyGoal) models.FamilyGoal {
	out := *g
	if g.Contributors != nil {
		out.Contributors = append(models.StringList{}, g.Contributors...)
	}
	if g.Deadline != nil {
		d := *g.Deadline
		out.Deadline = &d
	}
	return out
}

func copyTransaction(t *models.Transaction) models.Transaction {
	out := *t
	if t.MemberID != nil {
		id := *t.MemberID
		out.MemberID = &id
	}
	return out
}

func copyAlert(a *models.SmartAlert) models.SmartAlert {
	out := *a
	if a.Data != nil {
		d := *a.Data
		out.Data = &d
	}
	return out
}

func copyService(s *models.FinancialService) models.FinancialService {
	out := *s
	if s.Details != nil {
		d := *s.Details
		out.Details = &d
	}
	return out
}
