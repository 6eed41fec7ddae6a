package investment

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investcore/internal/models"
	"investcore/internal/repository"
)

type published struct {
	queue   string
	message interface{}
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []published
}

func (p *recordingPublisher) Publish(queueName string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, published{queue: queueName, message: message})
	return nil
}

func (p *recordingPublisher) onQueue(queue string) []interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []interface{}
	for _, m := range p.messages {
		if m.queue == queue {
			out = append(out, m.message)
		}
	}
	return out
}

// flakyStore fails the next failSaves investment saves inside WithInvestment.
type flakyStore struct {
	*repository.MemoryStore
	failSaves int
}

func (f *flakyStore) WithInvestment(ctx context.Context, id uint, fn func(tx repository.InvestmentTx) error) error {
	return f.MemoryStore.WithInvestment(ctx, id, func(tx repository.InvestmentTx) error {
		return fn(&flakyTx{InvestmentTx: tx, store: f})
	})
}

type flakyTx struct {
	repository.InvestmentTx
	store *flakyStore
}

func (t *flakyTx) Save(ctx context.Context) error {
	if t.store.failSaves > 0 {
		t.store.failSaves--
		return errors.New("connection reset by peer")
	}
	return t.InvestmentTx.Save(ctx)
}

type fixture struct {
	store     *flakyStore
	svc       *Service
	publisher *recordingPublisher
	now       time.Time
	user      *models.User
	plan      *models.InvestmentPlan
}

func day(s string) time.Time {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newFixture(t *testing.T, today string) *fixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		store:     &flakyStore{MemoryStore: repository.NewMemoryStore()},
		publisher: &recordingPublisher{},
	}
	f.setToday(today)
	f.svc = NewService(f.store, Options{
		Workers:   4,
		Now:       func() time.Time { return f.now },
		Publisher: f.publisher,
		Logger:    logger,
	})

	ctx := context.Background()
	f.user = &models.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	require.NoError(t, f.store.CreateUser(ctx, f.user))

	plan, err := f.svc.CreatePlan(ctx, CreatePlanInput{
		Name:             "Gold",
		ProfitPercentage: decimal.RequireFromString("36.5"),
		Duration:         365,
	})
	require.NoError(t, err)
	f.plan = plan
	return f
}

func (f *fixture) setToday(s string) {
	f.now = day(s).Add(9 * time.Hour)
}

func (f *fixture) newPlan(t *testing.T, name string, pct string, duration int) *models.InvestmentPlan {
	t.Helper()
	plan, err := f.svc.CreatePlan(context.Background(), CreatePlanInput{
		Name:             name,
		ProfitPercentage: decimal.RequireFromString(pct),
		Duration:         duration,
	})
	require.NoError(t, err)
	return plan
}

func (f *fixture) newInvestment(t *testing.T, plan *models.InvestmentPlan, amount string) *models.UserInvestment {
	t.Helper()
	inv, err := f.svc.CreateInvestment(context.Background(), CreateInvestmentInput{
		UserID: f.user.ID,
		PlanID: plan.ID,
		Amount: decimal.RequireFromString(amount),
	}, "admin@example.com")
	require.NoError(t, err)
	return inv
}

// activeInvestment creates an investment and activates it with today as start date.
func (f *fixture) activeInvestment(t *testing.T, plan *models.InvestmentPlan, amount string) *models.UserInvestment {
	t.Helper()
	inv := f.newInvestment(t, plan, amount)
	inv, err := f.svc.Activate(context.Background(), inv.ID, "admin@example.com")
	require.NoError(t, err)
	return inv
}

func (f *fixture) reload(t *testing.T, id uint) *models.UserInvestment {
	t.Helper()
	inv, err := f.svc.GetInvestment(context.Background(), id)
	require.NoError(t, err)
	return inv
}

func (f *fixture) run(t *testing.T, d string) *RunReport {
	t.Helper()
	report, err := f.svc.RunAccrual(context.Background(), day(d))
	require.NoError(t, err)
	return report
}

func (f *fixture) entries(t *testing.T, id uint) []models.DailyProfitEntry {
	t.Helper()
	entries, err := f.store.ListEntries(context.Background(), repository.EntryFilter{InvestmentID: id})
	require.NoError(t, err)
	return entries
}

func paidSum(entries []models.DailyProfitEntry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		if e.Status == models.EntryPaid {
			sum = sum.Add(e.ProfitAmount)
		}
	}
	return sum
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got.String())
}
