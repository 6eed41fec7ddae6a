//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"investcore/internal/models"
	"investcore/internal/repository"
	"investcore/internal/services/investment"
	"investcore/pkg/config"
)

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

// startPostgres starts one postgres container per test binary and returns its DSN.
func startPostgres(t *testing.T) string {
	t.Helper()

	pgOnce.Do(func() {
		ctx := context.Background()
		req := testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "investcore",
				"POSTGRES_PASSWORD": "investcore",
				"POSTGRES_DB":       "investcore",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(90 * time.Second),
		}

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			pgErr = fmt.Errorf("start postgres container: %w", err)
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			container.Terminate(ctx)
			pgErr = fmt.Errorf("get postgres host: %w", err)
			return
		}
		port, err := container.MappedPort(ctx, "5432/tcp")
		if err != nil {
			container.Terminate(ctx)
			pgErr = fmt.Errorf("get postgres port: %w", err)
			return
		}

		pgDSN = fmt.Sprintf("host=%s port=%s user=investcore password=investcore dbname=investcore sslmode=disable TimeZone=UTC",
			host, port.Port())
	})

	if pgErr != nil {
		t.Fatalf("postgres container failed: %v", pgErr)
	}
	return pgDSN
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDB(startPostgres(t))
	require.NoError(t, err)
	require.NoError(t, config.AutoMigrate(db))
	t.Cleanup(func() {
		db.Exec("TRUNCATE users, investment_plans, user_investments, daily_profit_entries, investment_audits, investment_events, system_logs RESTART IDENTITY")
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestGormStoreAccrualIdempotence(t *testing.T) {
	db := openTestDB(t)
	log := logrus.New()
	log.SetOutput(io.Discard)

	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	store := repository.NewGormStore(db, log)
	svc := investment.NewService(store, investment.Options{
		Workers:   4,
		DBTimeout: 5 * time.Second,
		Now:       func() time.Time { return now },
		Logger:    log,
	})
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, investment.CreateUserInput{
		FirstName: "Ada", Email: "ada@example.com", Password: "correct horse", Role: models.RoleUser,
	})
	require.NoError(t, err)
	plan, err := svc.CreatePlan(ctx, investment.CreatePlanInput{
		Name: "Gold", ProfitPercentage: decimal.RequireFromString("36.5"), Duration: 365,
	})
	require.NoError(t, err)

	inv, err := svc.CreateInvestment(ctx, investment.CreateInvestmentInput{
		UserID: user.ID, PlanID: plan.ID, Amount: decimal.NewFromInt(1000),
	}, "admin@example.com")
	require.NoError(t, err)
	_, err = svc.Activate(ctx, inv.ID, "admin@example.com")
	require.NoError(t, err)

	day := svc.Today()

	t.Run("Concurrent runs credit the day once", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.RunAccrual(ctx, day)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		entries, err := store.ListEntries(ctx, repository.EntryFilter{InvestmentID: inv.ID})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, models.EntryPaid, entries[0].Status)

		got, err := store.GetInvestment(ctx, inv.ID)
		require.NoError(t, err)
		assert.True(t, got.TotalProfitsEarned.Equal(decimal.NewFromInt(10)), got.TotalProfitsEarned.String())
		assert.Equal(t, 1, got.PaidDays)
	})

	t.Run("Rerun reports nothing new", func(t *testing.T) {
		report, err := svc.RunAccrual(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Accrued)
	})

	t.Run("Failed entry counts attempts and never downgrades paid", func(t *testing.T) {
		later := day.AddDate(0, 0, 1)
		for _, reason := range []string{"timeout", "timeout again"} {
			require.NoError(t, store.RecordFailedEntry(ctx, &models.DailyProfitEntry{
				InvestmentID: inv.ID, UserID: user.ID, Date: later,
				ProfitAmount: decimal.NewFromInt(10), FailureReason: reason,
			}))
		}
		failed, err := store.ListEntries(ctx, repository.EntryFilter{InvestmentID: inv.ID, Status: models.EntryFailed})
		require.NoError(t, err)
		require.Len(t, failed, 1)
		assert.Equal(t, 2, failed[0].Attempts)
		assert.Equal(t, "timeout again", failed[0].FailureReason)

		require.NoError(t, store.RecordFailedEntry(ctx, &models.DailyProfitEntry{
			InvestmentID: inv.ID, UserID: user.ID, Date: day, FailureReason: "late",
		}))
		paid, err := store.ListEntries(ctx, repository.EntryFilter{InvestmentID: inv.ID, Status: models.EntryPaid})
		require.NoError(t, err)
		assert.Len(t, paid, 1)
	})

	t.Run("Paid profit series sums per day", func(t *testing.T) {
		points, err := store.SumPaidProfits(ctx, user.ID, day.AddDate(0, 0, -7), day)
		require.NoError(t, err)
		require.Len(t, points, 1)
		assert.True(t, points[0].TotalProfit.Equal(decimal.NewFromInt(10)))
	})
}

func TestGormStoreDeleteKeepsLedger(t *testing.T) {
	db := openTestDB(t)
	store := repository.NewGormStore(db, nil)
	ctx := context.Background()

	user := &models.User{Email: "grace@example.com", Role: models.RoleUser}
	require.NoError(t, store.CreateUser(ctx, user))
	plan := &models.InvestmentPlan{Name: "Silver", ProfitPercentage: decimal.NewFromInt(10), Duration: 30, IsActive: true}
	require.NoError(t, store.CreatePlan(ctx, plan))

	retired := &models.InvestmentPlan{Name: "Retired", ProfitPercentage: decimal.NewFromInt(5), Duration: 10}
	require.NoError(t, store.CreatePlan(ctx, retired))
	stored, err := store.GetPlan(ctx, retired.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	inv := &models.UserInvestment{
		Reference: "3f1c2c8e-7a55-4c1b-9d51-0f7b1f2a9b11",
		UserID:    user.ID, PlanID: plan.ID, Amount: decimal.NewFromInt(500),
		Status: models.StatusActive, Version: 1,
	}
	require.NoError(t, store.CreateInvestment(ctx, inv))

	day := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.WithInvestment(ctx, inv.ID, func(tx repository.InvestmentTx) error {
		inserted, err := tx.InsertEntry(ctx, &models.DailyProfitEntry{
			InvestmentID: inv.ID, UserID: user.ID, Date: day,
			ProfitAmount: decimal.RequireFromString("1.66666667"), Status: models.EntryPaid,
		})
		if err != nil {
			return err
		}
		assert.True(t, inserted)
		return tx.Delete(ctx)
	}))

	_, err = store.GetInvestment(ctx, inv.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	entries, err := store.ListEntries(ctx, repository.EntryFilter{InvestmentID: inv.ID})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
