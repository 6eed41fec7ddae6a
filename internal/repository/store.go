package repository

import (
	"context"
	"errors"
	"time"

	"investcore/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist or is tombstoned.
	ErrNotFound = errors.New("record not found")
	// ErrEntryConflict is returned when a ledger row already exists for (investment, date).
	ErrEntryConflict = errors.New("ledger entry already exists")
)

// InvestmentFilter narrows ListInvestments. Zero values mean "any".
type InvestmentFilter struct {
	UserID uint
	Status models.InvestmentStatus
	Limit  int
	Offset int
}

// EntryFilter narrows ListEntries. Zero values mean "any".
type EntryFilter struct {
	InvestmentID uint
	UserID       uint
	Status       models.EntryStatus
	From         *time.Time
	To           *time.Time
	Limit        int
}

// SystemLogFilter narrows ListSystemLogs.
type SystemLogFilter struct {
	InvestmentID uint
	Level        string
	Module       string
	Page         int
	PageSize     int
}

// Store is the datastore surface used by the investment service.
type Store interface {
	CreatePlan(ctx context.Context, plan *models.InvestmentPlan) error
	GetPlan(ctx context.Context, id uint) (*models.InvestmentPlan, error)
	ListPlans(ctx context.Context, activeOnly bool) ([]models.InvestmentPlan, error)

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateInvestment(ctx context.Context, inv *models.UserInvestment) error
	// GetInvestment loads an investment with User and InvestmentPlan attached.
	GetInvestment(ctx context.Context, id uint) (*models.UserInvestment, error)
	ListInvestments(ctx context.Context, filter InvestmentFilter) ([]models.UserInvestment, error)
	ListActiveInvestmentIDs(ctx context.Context) ([]uint, error)

	ListEntries(ctx context.Context, filter EntryFilter) ([]models.DailyProfitEntry, error)
	// SumPaidProfits returns per-day totals of paid entries for a user, ordered by date.
	SumPaidProfits(ctx context.Context, userID uint, from, to time.Time) ([]models.DailyProfitPoint, error)
	// RecordFailedEntry upserts the (investment, date) entry as failed and bumps attempts.
	// A paid entry is never downgraded.
	RecordFailedEntry(ctx context.Context, entry *models.DailyProfitEntry) error

	ListAudits(ctx context.Context, investmentID uint) ([]models.InvestmentAudit, error)
	ListEvents(ctx context.Context, investmentID uint) ([]models.InvestmentEvent, error)

	CreateSystemLog(ctx context.Context, entry *models.SystemLog) error
	ListSystemLogs(ctx context.Context, filter SystemLogFilter) ([]models.SystemLog, int64, error)

	// WithInvestment runs fn in a transaction holding an exclusive lock on the investment
	// row. fn must only touch the datastore through tx. Returning an error rolls back.
	WithInvestment(ctx context.Context, id uint, fn func(tx InvestmentTx) error) error
}

// InvestmentTx is the per-investment unit of work handed out by WithInvestment.
type InvestmentTx interface {
	// Investment is the locked row with InvestmentPlan attached. Mutate it and call Save.
	Investment() *models.UserInvestment
	Save(ctx context.Context) error
	// Delete tombstones the investment. Ledger rows are kept.
	Delete(ctx context.Context) error

	GetEntry(ctx context.Context, date time.Time) (*models.DailyProfitEntry, error)
	// InsertEntry inserts a new ledger row and reports false when (investment, date)
	// already exists.
	InsertEntry(ctx context.Context, entry *models.DailyProfitEntry) (bool, error)
	SaveEntry(ctx context.Context, entry *models.DailyProfitEntry) error

	AddAudit(ctx context.Context, audit *models.InvestmentAudit) error
	AddEvent(ctx context.Context, event *models.InvestmentEvent) error
}
