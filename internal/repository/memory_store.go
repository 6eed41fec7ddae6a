package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"investcore/internal/models"
)

type entryKey struct {
	investmentID uint
	date         string
}

func keyOf(investmentID uint, date time.Time) entryKey {
	return entryKey{investmentID: investmentID, date: date.Format(models.DateLayout)}
}

// MemoryStore is an in-process Store used by DB_DRIVER=memory and by tests.
// WithInvestment serialises all transactions behind one mutex and applies writes only
// when fn succeeds.
type MemoryStore struct {
	mu sync.Mutex

	seq         uint
	plans       map[uint]models.InvestmentPlan
	users       map[uint]models.User
	investments map[uint]models.UserInvestment
	entries     map[entryKey]models.DailyProfitEntry
	audits      []models.InvestmentAudit
	events      []models.InvestmentEvent
	logs        []models.SystemLog
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plans:       make(map[uint]models.InvestmentPlan),
		users:       make(map[uint]models.User),
		investments: make(map[uint]models.UserInvestment),
		entries:     make(map[entryKey]models.DailyProfitEntry),
	}
}

func (m *MemoryStore) nextID() uint {
	m.seq++
	return m.seq
}

func (m *MemoryStore) CreatePlan(ctx context.Context, plan *models.InvestmentPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	plan.ID = m.nextID()
	plan.CreatedAt, plan.UpdatedAt = now, now
	m.plans[plan.ID] = *plan
	return nil
}

func (m *MemoryStore) GetPlan(ctx context.Context, id uint) (*models.InvestmentPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, ok := m.plans[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &plan, nil
}

func (m *MemoryStore) ListPlans(ctx context.Context, activeOnly bool) ([]models.InvestmentPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var plans []models.InvestmentPlan
	for _, p := range m.plans {
		if activeOnly && !p.IsActive {
			continue
		}
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].ID < plans[j].ID })
	return plans, nil
}

func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	user.ID = m.nextID()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateInvestment(ctx context.Context, inv *models.UserInvestment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	inv.ID = m.nextID()
	inv.CreatedAt, inv.UpdatedAt = now, now
	stored := cloneInvestment(*inv)
	stored.User, stored.InvestmentPlan = nil, nil
	m.investments[inv.ID] = stored
	return nil
}

// attach returns a copy of inv with its user and plan embedded. Caller holds mu.
func (m *MemoryStore) attach(inv models.UserInvestment) models.UserInvestment {
	out := cloneInvestment(inv)
	if u, ok := m.users[inv.UserID]; ok {
		user := u
		out.User = &user
	}
	if p, ok := m.plans[inv.PlanID]; ok {
		plan := p
		out.InvestmentPlan = &plan
	}
	return out
}

func (m *MemoryStore) GetInvestment(ctx context.Context, id uint) (*models.UserInvestment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.investments[id]
	if !ok || inv.DeletedAt.Valid {
		return nil, ErrNotFound
	}
	out := m.attach(inv)
	return &out, nil
}

func (m *MemoryStore) ListInvestments(ctx context.Context, filter InvestmentFilter) ([]models.UserInvestment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.UserInvestment
	for _, inv := range m.investments {
		if inv.DeletedAt.Valid {
			continue
		}
		if filter.UserID != 0 && inv.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, m.attach(inv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MemoryStore) ListActiveInvestmentIDs(ctx context.Context) ([]uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uint
	for id, inv := range m.investments {
		if !inv.DeletedAt.Valid && inv.Status == models.StatusActive {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *MemoryStore) ListEntries(ctx context.Context, filter EntryFilter) ([]models.DailyProfitEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.DailyProfitEntry
	for _, e := range m.entries {
		if filter.InvestmentID != 0 && e.InvestmentID != filter.InvestmentID {
			continue
		}
		if filter.UserID != 0 && e.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.From != nil && e.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.Date.After(*filter.To) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MemoryStore) SumPaidProfits(ctx context.Context, userID uint, from, to time.Time) ([]models.DailyProfitPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	totals := make(map[string]models.DailyProfitPoint)
	for _, e := range m.entries {
		if e.UserID != userID || e.Status != models.EntryPaid {
			continue
		}
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		k := e.Date.Format(models.DateLayout)
		p, ok := totals[k]
		if !ok {
			p = models.DailyProfitPoint{Date: e.Date, TotalProfit: decimal.Zero}
		}
		p.TotalProfit = p.TotalProfit.Add(e.ProfitAmount)
		totals[k] = p
	}
	points := make([]models.DailyProfitPoint, 0, len(totals))
	for _, p := range totals {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

func (m *MemoryStore) RecordFailedEntry(ctx context.Context, entry *models.DailyProfitEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	k := keyOf(entry.InvestmentID, entry.Date)
	existing, ok := m.entries[k]
	switch {
	case !ok:
		entry.ID = m.nextID()
		entry.Status = models.EntryFailed
		if entry.Attempts < 1 {
			entry.Attempts = 1
		}
		entry.CreatedAt, entry.UpdatedAt = now, now
		m.entries[k] = *entry
	case existing.Status != models.EntryPaid:
		existing.Status = models.EntryFailed
		existing.FailureReason = entry.FailureReason
		existing.Attempts++
		existing.UpdatedAt = now
		m.entries[k] = existing
		*entry = existing
	}
	return nil
}

func (m *MemoryStore) ListAudits(ctx context.Context, investmentID uint) ([]models.InvestmentAudit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.InvestmentAudit
	for _, a := range m.audits {
		if a.InvestmentID == investmentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryStore) ListEvents(ctx context.Context, investmentID uint) ([]models.InvestmentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.InvestmentEvent
	for _, e := range m.events {
		if e.InvestmentID == investmentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryStore) CreateSystemLog(ctx context.Context, entry *models.SystemLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = m.nextID()
	entry.CreatedAt = time.Now()
	m.logs = append(m.logs, *entry)
	return nil
}

func (m *MemoryStore) ListSystemLogs(ctx context.Context, filter SystemLogFilter) ([]models.SystemLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []models.SystemLog
	for i := len(m.logs) - 1; i >= 0; i-- {
		l := m.logs[i]
		if filter.InvestmentID != 0 && l.InvestmentID != filter.InvestmentID {
			continue
		}
		if filter.Level != "" && l.Level != filter.Level {
			continue
		}
		if filter.Module != "" && l.Module != filter.Module {
			continue
		}
		matched = append(matched, l)
	}
	total := int64(len(matched))
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *MemoryStore) WithInvestment(ctx context.Context, id uint, fn func(tx InvestmentTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	stored, ok := m.investments[id]
	if !ok || stored.DeletedAt.Valid {
		return ErrNotFound
	}
	plan, ok := m.plans[stored.PlanID]
	if !ok {
		return ErrNotFound
	}
	inv := cloneInvestment(stored)
	inv.InvestmentPlan = &plan

	tx := &memoryTx{
		store:   m,
		inv:     &inv,
		entries: make(map[entryKey]models.DailyProfitEntry),
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type memoryTx struct {
	store   *MemoryStore
	inv     *models.UserInvestment
	saved   *models.UserInvestment
	deleted bool
	entries map[entryKey]models.DailyProfitEntry
	audits  []models.InvestmentAudit
	events  []models.InvestmentEvent
}

func (t *memoryTx) Investment() *models.UserInvestment {
	return t.inv
}

func (t *memoryTx) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.inv.Version++
	t.inv.UpdatedAt = time.Now()
	snapshot := cloneInvestment(*t.inv)
	snapshot.User, snapshot.InvestmentPlan = nil, nil
	t.saved = &snapshot
	return nil
}

func (t *memoryTx) Delete(ctx context.Context) error {
	t.deleted = true
	return nil
}

func (t *memoryTx) GetEntry(ctx context.Context, date time.Time) (*models.DailyProfitEntry, error) {
	k := keyOf(t.inv.ID, date)
	if e, ok := t.entries[k]; ok {
		return &e, nil
	}
	if e, ok := t.store.entries[k]; ok {
		return &e, nil
	}
	return nil, ErrNotFound
}

func (t *memoryTx) InsertEntry(ctx context.Context, entry *models.DailyProfitEntry) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	k := keyOf(entry.InvestmentID, entry.Date)
	if _, ok := t.entries[k]; ok {
		return false, nil
	}
	if _, ok := t.store.entries[k]; ok {
		return false, nil
	}
	now := time.Now()
	entry.ID = t.store.nextID()
	entry.CreatedAt, entry.UpdatedAt = now, now
	t.entries[k] = *entry
	return true, nil
}

func (t *memoryTx) SaveEntry(ctx context.Context, entry *models.DailyProfitEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry.UpdatedAt = time.Now()
	t.entries[keyOf(entry.InvestmentID, entry.Date)] = *entry
	return nil
}

func (t *memoryTx) AddAudit(ctx context.Context, audit *models.InvestmentAudit) error {
	audit.ID = t.store.nextID()
	audit.CreatedAt = time.Now()
	t.audits = append(t.audits, *audit)
	return nil
}

func (t *memoryTx) AddEvent(ctx context.Context, event *models.InvestmentEvent) error {
	event.ID = t.store.nextID()
	event.CreatedAt = time.Now()
	t.events = append(t.events, *event)
	return nil
}

// commit applies buffered writes. Caller holds store.mu.
func (t *memoryTx) commit() {
	s := t.store
	if t.saved != nil {
		s.investments[t.saved.ID] = *t.saved
	}
	if t.deleted {
		inv := s.investments[t.inv.ID]
		inv.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
		s.investments[t.inv.ID] = inv
	}
	for k, e := range t.entries {
		s.entries[k] = e
	}
	s.audits = append(s.audits, t.audits...)
	s.events = append(s.events, t.events...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneInvestment(inv models.UserInvestment) models.UserInvestment {
	out := inv
	out.StartDate = cloneTime(inv.StartDate)
	out.EndDate = cloneTime(inv.EndDate)
	out.LastAccrualDate = cloneTime(inv.LastAccrualDate)
	out.PausedAt = cloneTime(inv.PausedAt)
	out.ResumedOn = cloneTime(inv.ResumedOn)
	out.CompletedAt = cloneTime(inv.CompletedAt)
	return out
}
