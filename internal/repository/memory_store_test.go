package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investcore/internal/models"
)

func seedInvestment(t *testing.T, m *MemoryStore, status models.InvestmentStatus) *models.UserInvestment {
	t.Helper()
	ctx := context.Background()

	user := &models.User{Email: fmt.Sprintf("user%d@example.com", time.Now().UnixNano())}
	require.NoError(t, m.CreateUser(ctx, user))
	plan := &models.InvestmentPlan{Name: fmt.Sprintf("plan-%d", time.Now().UnixNano()), ProfitPercentage: decimal.NewFromInt(30), Duration: 30, IsActive: true}
	require.NoError(t, m.CreatePlan(ctx, plan))

	inv := &models.UserInvestment{
		UserID: user.ID, PlanID: plan.ID, Amount: decimal.NewFromInt(1000),
		Status: status, Version: 1,
	}
	require.NoError(t, m.CreateInvestment(ctx, inv))
	return inv
}

func TestMemoryStoreTransaction(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	t.Run("Commit applies buffered writes", func(t *testing.T) {
		m := NewMemoryStore()
		inv := seedInvestment(t, m, models.StatusActive)

		err := m.WithInvestment(ctx, inv.ID, func(tx InvestmentTx) error {
			locked := tx.Investment()
			require.NotNil(t, locked.InvestmentPlan)
			locked.PaidDays = 1
			inserted, err := tx.InsertEntry(ctx, &models.DailyProfitEntry{
				InvestmentID: inv.ID, UserID: inv.UserID, Date: day,
				ProfitAmount: decimal.NewFromInt(10), Status: models.EntryPaid,
			})
			require.NoError(t, err)
			assert.True(t, inserted)
			return tx.Save(ctx)
		})
		require.NoError(t, err)

		got, err := m.GetInvestment(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.PaidDays)
		assert.Equal(t, uint(2), got.Version)

		entries, err := m.ListEntries(ctx, EntryFilter{InvestmentID: inv.ID})
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("Error rolls back everything", func(t *testing.T) {
		m := NewMemoryStore()
		inv := seedInvestment(t, m, models.StatusActive)
		boom := errors.New("boom")

		err := m.WithInvestment(ctx, inv.ID, func(tx InvestmentTx) error {
			tx.Investment().PaidDays = 5
			_, _ = tx.InsertEntry(ctx, &models.DailyProfitEntry{InvestmentID: inv.ID, Date: day})
			_ = tx.AddEvent(ctx, &models.InvestmentEvent{InvestmentID: inv.ID, Action: "pause"})
			require.NoError(t, tx.Save(ctx))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := m.GetInvestment(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.PaidDays)
		assert.Equal(t, uint(1), got.Version)

		entries, _ := m.ListEntries(ctx, EntryFilter{InvestmentID: inv.ID})
		assert.Empty(t, entries)
		events, _ := m.ListEvents(ctx, inv.ID)
		assert.Empty(t, events)
	})

	t.Run("Duplicate entry is not inserted", func(t *testing.T) {
		m := NewMemoryStore()
		inv := seedInvestment(t, m, models.StatusActive)
		insert := func() bool {
			var inserted bool
			require.NoError(t, m.WithInvestment(ctx, inv.ID, func(tx InvestmentTx) error {
				var err error
				inserted, err = tx.InsertEntry(ctx, &models.DailyProfitEntry{InvestmentID: inv.ID, Date: day})
				return err
			}))
			return inserted
		}
		assert.True(t, insert())
		assert.False(t, insert())
	})

	t.Run("Deleted investment is hidden", func(t *testing.T) {
		m := NewMemoryStore()
		inv := seedInvestment(t, m, models.StatusActive)
		require.NoError(t, m.WithInvestment(ctx, inv.ID, func(tx InvestmentTx) error {
			return tx.Delete(ctx)
		}))

		_, err := m.GetInvestment(ctx, inv.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		ids, err := m.ListActiveInvestmentIDs(ctx)
		require.NoError(t, err)
		assert.NotContains(t, ids, inv.ID)
		assert.ErrorIs(t, m.WithInvestment(ctx, inv.ID, func(tx InvestmentTx) error { return nil }), ErrNotFound)
	})
}

func TestMemoryStoreRecordFailedEntry(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	inv := seedInvestment(t, m, models.StatusActive)
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	failed := func(reason string) {
		require.NoError(t, m.RecordFailedEntry(ctx, &models.DailyProfitEntry{
			InvestmentID: inv.ID, UserID: inv.UserID, Date: day, FailureReason: reason,
		}))
	}

	failed("timeout")
	failed("timeout again")

	entries, err := m.ListEntries(ctx, EntryFilter{InvestmentID: inv.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.EntryFailed, entries[0].Status)
	assert.Equal(t, 2, entries[0].Attempts)
	assert.Equal(t, "timeout again", entries[0].FailureReason)

	t.Run("Paid entries are never downgraded", func(t *testing.T) {
		paidDay := day.AddDate(0, 0, 1)
		require.NoError(t, m.WithInvestment(ctx, inv.ID, func(tx InvestmentTx) error {
			_, err := tx.InsertEntry(ctx, &models.DailyProfitEntry{
				InvestmentID: inv.ID, Date: paidDay, Status: models.EntryPaid,
			})
			return err
		}))
		require.NoError(t, m.RecordFailedEntry(ctx, &models.DailyProfitEntry{
			InvestmentID: inv.ID, Date: paidDay, FailureReason: "late",
		}))

		entries, err := m.ListEntries(ctx, EntryFilter{InvestmentID: inv.ID, Status: models.EntryPaid})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, paidDay, entries[0].Date)
	})
}

func TestMemoryStoreSystemLogs(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	for i := 1; i <= 15; i++ {
		level := "ERROR"
		if i%3 == 0 {
			level = "WARN"
		}
		require.NoError(t, m.CreateSystemLog(ctx, &models.SystemLog{
			InvestmentID: uint(i % 2), Level: level, Message: fmt.Sprintf("log %d", i), Module: "accrual",
		}))
	}

	logs, total, err := m.ListSystemLogs(ctx, SystemLogFilter{Level: "ERROR", Page: 1, PageSize: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
	require.Len(t, logs, 4)
	assert.Equal(t, "log 14", logs[0].Message)

	logs, _, err = m.ListSystemLogs(ctx, SystemLogFilter{Level: "ERROR", Page: 3, PageSize: 4})
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	_, total, err = m.ListSystemLogs(ctx, SystemLogFilter{InvestmentID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(8), total)
}
