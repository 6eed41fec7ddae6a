package investment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"investcore/internal/models"
	"investcore/internal/repository"
)

const accrualModule = "accrual"

// RunReport summarises one engine run.
type RunReport struct {
	Date        string `json:"date"`
	Scanned     int    `json:"scanned"`
	Accrued     int    `json:"accrued"`
	Retried     int    `json:"retried"`
	Skipped     int    `json:"skipped"`
	Completed   int    `json:"completed"`
	AlreadyPaid int    `json:"alreadyPaid"`
	Failed      int    `json:"failed"`
	Duplicates  int    `json:"duplicates"`
}

type outcome string

const (
	outcomeAccrued     outcome = "accrued"
	outcomeRetried     outcome = "retried"
	outcomeSkipped     outcome = "skipped"
	outcomeCompleted   outcome = "completed"
	outcomeAlreadyPaid outcome = "already_paid"
	outcomeFailed      outcome = "failed"
	outcomeDuplicate   outcome = "duplicate"
)

func (r *RunReport) add(o outcome) {
	switch o {
	case outcomeAccrued:
		r.Accrued++
	case outcomeRetried:
		r.Accrued++
		r.Retried++
	case outcomeSkipped:
		r.Skipped++
	case outcomeCompleted:
		r.Completed++
	case outcomeAlreadyPaid:
		r.AlreadyPaid++
	case outcomeFailed:
		r.Failed++
	case outcomeDuplicate:
		r.Duplicates++
	}
}

// RunAccrual credits one day of profit to every active investment. Failed entries from
// earlier days are retried first. Per-investment failures are recorded and do not stop
// the batch. An investment whose paid days reach the plan duration completes on the next
// run, which can be its end date itself.
func (s *Service) RunAccrual(ctx context.Context, day time.Time) (*RunReport, error) {
	day = models.DateOf(day, day.Location())
	started := time.Now()
	s.metrics.runStarted()
	defer s.metrics.runFinished(started)

	report := &RunReport{Date: day.Format(models.DateLayout)}
	logger := s.log.WithField("date", report.Date)

	listCtx, cancel := s.dbContext(ctx)
	ids, err := s.store.ListActiveInvestmentIDs(listCtx)
	if err != nil {
		cancel()
		return nil, storeError(err, "list active investments")
	}
	before := models.AddDays(day, -1)
	failed, err := s.store.ListEntries(listCtx, repository.EntryFilter{Status: models.EntryFailed, To: &before})
	cancel()
	if err != nil {
		return nil, storeError(err, "list failed entries")
	}

	retries := make(map[uint][]time.Time)
	for _, e := range failed {
		retries[e.InvestmentID] = append(retries[e.InvestmentID], e.Date)
	}

	report.Scanned = len(ids)
	logger.Infof("Starting accrual run for %d active investments", len(ids))

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, s.workers)
	)
	record := func(o outcome) {
		mu.Lock()
		report.add(o)
		mu.Unlock()
		s.metrics.observe(string(o))
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(id uint) {
			defer wg.Done()
			defer func() { <-sem }()

			for _, d := range retries[id] {
				record(s.accrue(ctx, id, d, true))
			}
			record(s.accrue(ctx, id, day, false))
		}(id)
	}
	wg.Wait()

	logger.WithFields(logrus.Fields{
		"accrued":   report.Accrued,
		"retried":   report.Retried,
		"skipped":   report.Skipped,
		"completed": report.Completed,
		"failed":    report.Failed,
	}).Infof("Accrual run finished in %v", time.Since(started))

	if err := ctx.Err(); err != nil {
		return report, &Error{Kind: KindPersistenceFailure, Message: "accrual run interrupted", Err: err}
	}
	return report, nil
}

// accrue processes one (investment, day). With retryOnly set, no new entry is created.
func (s *Service) accrue(ctx context.Context, id uint, day time.Time, retryOnly bool) outcome {
	var (
		result  = outcomeSkipped
		pending *models.DailyProfitEntry
		event   *EventMessage
	)

	dbCtx, cancel := s.dbContext(ctx)
	err := s.store.WithInvestment(dbCtx, id, func(tx repository.InvestmentTx) error {
		inv := tx.Investment()
		if inv.Status != models.StatusActive {
			return nil
		}

		pastEnd := inv.EndDate != nil && day.After(*inv.EndDate)
		if pastEnd || inv.PaidDays >= inv.InvestmentPlan.Duration {
			s.completeInvestment(inv)
			if err := tx.Save(dbCtx); err != nil {
				return err
			}
			if err := tx.AddEvent(dbCtx, &models.InvestmentEvent{
				InvestmentID: inv.ID,
				UserID:       inv.UserID,
				FromStatus:   models.StatusActive,
				ToStatus:     models.StatusCompleted,
				Action:       ActionComplete,
				Reason:       "term ended",
				Actor:        SystemActor,
			}); err != nil {
				return err
			}
			event = &EventMessage{
				Action:       ActionComplete,
				InvestmentID: inv.ID,
				Reference:    inv.Reference,
				UserID:       inv.UserID,
				FromStatus:   models.StatusActive,
				ToStatus:     models.StatusCompleted,
				Reason:       "term ended",
				Actor:        SystemActor,
				OccurredAt:   s.now(),
			}
			result = outcomeCompleted
			return nil
		}
		if inv.StartDate == nil || day.Before(*inv.StartDate) {
			return nil
		}

		entry, err := tx.GetEntry(dbCtx, day)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			if retryOnly || (inv.LastAccrualDate != nil && !day.After(*inv.LastAccrualDate)) {
				return nil
			}
			if inv.ResumedOn != nil && day.Before(*inv.ResumedOn) {
				return nil
			}
			entry = &models.DailyProfitEntry{
				InvestmentID: inv.ID,
				UserID:       inv.UserID,
				Date:         day,
				ProfitAmount: inv.DailyProfit(),
				Status:       models.EntryCalculated,
				Attempts:     1,
			}
			pending = entry
			inserted, err := tx.InsertEntry(dbCtx, entry)
			if err != nil {
				return err
			}
			result = outcomeAccrued
			if !inserted {
				if entry, err = tx.GetEntry(dbCtx, day); err != nil {
					return err
				}
				if entry.Status == models.EntryPaid {
					pending = nil
					result = outcomeAlreadyPaid
					return nil
				}
				entry.Attempts++
				pending = entry
				result = outcomeRetried
			}
		case err != nil:
			return err
		case entry.Status == models.EntryPaid:
			result = outcomeAlreadyPaid
			return nil
		default:
			entry.Attempts++
			pending = entry
			result = outcomeRetried
		}

		return s.payEntry(dbCtx, tx, inv, entry)
	})
	cancel()

	if err == nil {
		if event != nil {
			s.publishEvent(*event)
		}
		return result
	}
	if errors.Is(err, repository.ErrNotFound) {
		return outcomeSkipped
	}
	return s.recordFailure(ctx, id, day, pending, err)
}

// payEntry credits entry to inv and marks it paid inside the caller's transaction.
func (s *Service) payEntry(ctx context.Context, tx repository.InvestmentTx, inv *models.UserInvestment, entry *models.DailyProfitEntry) error {
	if entry.Status == models.EntryPaid {
		return &Error{
			Kind:    KindDuplicateAccrual,
			Message: fmt.Sprintf("entry for investment %d on %s is already paid", entry.InvestmentID, entry.Date.Format(models.DateLayout)),
		}
	}

	profit := inv.DailyProfit()
	now := s.now()
	entry.ProfitAmount = profit
	entry.Status = models.EntryPaid
	entry.FailureReason = ""
	entry.PaidAt = &now

	inv.TotalProfitsEarned = inv.TotalProfitsEarned.Add(profit)
	inv.AvailableBalance = inv.AvailableBalance.Add(profit)
	inv.PaidDays++
	if inv.LastAccrualDate == nil || entry.Date.After(*inv.LastAccrualDate) {
		d := entry.Date
		inv.LastAccrualDate = &d
	}

	if err := tx.SaveEntry(ctx, entry); err != nil {
		return err
	}
	return tx.Save(ctx)
}

// recordFailure runs after the accrual transaction rolled back. It uses a fresh context
// because ctx may be the one that expired.
func (s *Service) recordFailure(ctx context.Context, id uint, day time.Time, pending *models.DailyProfitEntry, cause error) outcome {
	dayStr := day.Format(models.DateLayout)
	fields := logrus.Fields{
		"investment_id": id,
		"date":          dayStr,
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), s.dbTimeout)
	defer cancel()

	if errors.Is(cause, ErrDuplicateAccrual) {
		s.log.WithFields(fields).Errorf("Data integrity error during accrual: %v", cause)
		s.writeSystemLog(saveCtx, id, "ERROR", fmt.Sprintf("duplicate accrual for investment %d on %s", id, dayStr), cause, fields)
		return outcomeDuplicate
	}

	s.log.WithFields(fields).Errorf("Accrual failed: %v", cause)
	if pending != nil {
		failed := &models.DailyProfitEntry{
			InvestmentID:  pending.InvestmentID,
			UserID:        pending.UserID,
			Date:          pending.Date,
			ProfitAmount:  pending.ProfitAmount,
			FailureReason: cause.Error(),
			Attempts:      1,
		}
		if err := s.store.RecordFailedEntry(saveCtx, failed); err != nil {
			s.log.WithFields(fields).Errorf("Failed to record failed ledger entry: %v", err)
		}
	}
	s.writeSystemLog(saveCtx, id, "ERROR", fmt.Sprintf("accrual failed for investment %d on %s", id, dayStr), cause, fields)
	return outcomeFailed
}

func (s *Service) writeSystemLog(ctx context.Context, investmentID uint, level, message string, cause error, fields logrus.Fields) {
	meta := models.JSONMap{}
	for k, v := range fields {
		meta[k] = v
	}
	entry := &models.SystemLog{
		InvestmentID: investmentID,
		Level:        level,
		Message:      message,
		Module:       accrualModule,
		Meta:         meta,
	}
	if cause != nil {
		entry.ErrorStack = cause.Error()
	}
	if err := s.store.CreateSystemLog(ctx, entry); err != nil {
		s.log.Warnf("Failed to write system log: %v", err)
	}
}
