package investment

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"investcore/internal/models"
	"investcore/internal/repository"
)

const (
	ActionCreate   = "create"
	ActionActivate = "activate"
	ActionPause    = "pause"
	ActionResume   = "resume"
	ActionComplete = "complete"
	ActionDelete   = "delete"

	// SystemActor is recorded for transitions made by the accrual engine.
	SystemActor = "system"
)

var allowedTransitions = map[models.InvestmentStatus][]models.InvestmentStatus{
	models.StatusPending: {models.StatusActive},
	models.StatusActive:  {models.StatusPaused, models.StatusCompleted},
	models.StatusPaused:  {models.StatusActive, models.StatusCompleted},
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to models.InvestmentStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type CreateInvestmentInput struct {
	UserID uint            `json:"userId"`
	PlanID uint            `json:"planId"`
	Amount decimal.Decimal `json:"amount"`
}

// CreateInvestment records a pending purchase of a plan.
func (s *Service) CreateInvestment(ctx context.Context, in CreateInvestmentInput, actor string) (*models.UserInvestment, error) {
	if in.UserID == 0 || in.PlanID == 0 {
		return nil, newError(KindValidation, "userId and planId are required")
	}
	if !in.Amount.IsPositive() {
		return nil, newError(KindValidation, "amount must be positive")
	}

	ctx, cancel := s.dbContext(ctx)
	defer cancel()

	if _, err := s.store.GetUser(ctx, in.UserID); err != nil {
		return nil, storeError(err, "user")
	}
	plan, err := s.store.GetPlan(ctx, in.PlanID)
	if err != nil {
		return nil, storeError(err, "plan")
	}
	if !plan.IsActive {
		return nil, newError(KindValidation, "plan %d is not active", plan.ID)
	}
	if !plan.AllowsAmount(in.Amount) {
		return nil, newError(KindValidation, "amount %s is outside plan bounds", in.Amount.String())
	}

	inv := &models.UserInvestment{
		Reference:          uuid.NewString(),
		UserID:             in.UserID,
		PlanID:             plan.ID,
		Amount:             in.Amount,
		Status:             models.StatusPending,
		DailyProfitRate:    plan.DailyRate(),
		TotalProfitsEarned: decimal.Zero,
		AvailableBalance:   decimal.Zero,
		Version:            1,
	}
	if err := s.store.CreateInvestment(ctx, inv); err != nil {
		return nil, storeError(err, "create investment")
	}
	inv.InvestmentPlan = plan

	s.log.WithFields(logrus.Fields{
		"investment_id": inv.ID,
		"user_id":       inv.UserID,
		"plan_id":       inv.PlanID,
	}).Info("Investment created")
	s.publishEvent(EventMessage{
		Action:       ActionCreate,
		InvestmentID: inv.ID,
		Reference:    inv.Reference,
		UserID:       inv.UserID,
		ToStatus:     inv.Status,
		Actor:        actor,
		OccurredAt:   s.now(),
	})
	return inv, nil
}

// Activate moves pending -> active. StartDate defaults to today.
func (s *Service) Activate(ctx context.Context, id uint, actor string) (*models.UserInvestment, error) {
	return s.transition(ctx, id, models.StatusActive, ActionActivate, "", actor, func(inv *models.UserInvestment) {
		start := s.Today()
		if inv.StartDate != nil {
			start = *inv.StartDate
		}
		inv.ScheduleFrom(start, inv.InvestmentPlan.Duration)
	})
}

// Pause stops accrual. The end date stays fixed.
func (s *Service) Pause(ctx context.Context, id uint, reason, actor string) (*models.UserInvestment, error) {
	return s.transition(ctx, id, models.StatusPaused, ActionPause, reason, actor, func(inv *models.UserInvestment) {
		now := s.now()
		inv.PauseReason = reason
		inv.PausedAt = &now
	})
}

// Resume restarts accrual from the next run. Missed days are not backfilled.
func (s *Service) Resume(ctx context.Context, id uint, actor string) (*models.UserInvestment, error) {
	return s.transition(ctx, id, models.StatusActive, ActionResume, "", actor, func(inv *models.UserInvestment) {
		today := s.Today()
		inv.PauseReason = ""
		inv.PausedAt = nil
		inv.ResumedOn = &today
	})
}

// Complete closes the investment and releases the principal to the available balance.
func (s *Service) Complete(ctx context.Context, id uint, actor string) (*models.UserInvestment, error) {
	return s.transition(ctx, id, models.StatusCompleted, ActionComplete, "", actor, func(inv *models.UserInvestment) {
		s.completeInvestment(inv)
	})
}

func (s *Service) completeInvestment(inv *models.UserInvestment) {
	now := s.now()
	inv.Status = models.StatusCompleted
	inv.AvailableBalance = inv.AvailableBalance.Add(inv.Amount)
	inv.CompletedAt = &now
	inv.PauseReason = ""
	inv.PausedAt = nil
}

func (s *Service) transition(ctx context.Context, id uint, to models.InvestmentStatus, action, reason, actor string, apply func(inv *models.UserInvestment)) (*models.UserInvestment, error) {
	ctx, cancel := s.dbContext(ctx)
	defer cancel()

	var (
		result *models.UserInvestment
		event  EventMessage
	)
	err := s.store.WithInvestment(ctx, id, func(tx repository.InvestmentTx) error {
		inv := tx.Investment()
		from := inv.Status
		if !CanTransition(from, to) {
			return newError(KindInvalidTransition, "cannot %s investment in status %s", action, from)
		}

		apply(inv)
		inv.Status = to
		if err := tx.Save(ctx); err != nil {
			return err
		}
		if err := tx.AddEvent(ctx, &models.InvestmentEvent{
			InvestmentID: inv.ID,
			UserID:       inv.UserID,
			FromStatus:   from,
			ToStatus:     to,
			Action:       action,
			Reason:       reason,
			Actor:        actor,
		}); err != nil {
			return err
		}

		copied := *inv
		result = &copied
		event = EventMessage{
			Action:       action,
			InvestmentID: inv.ID,
			Reference:    inv.Reference,
			UserID:       inv.UserID,
			FromStatus:   from,
			ToStatus:     to,
			Reason:       reason,
			Actor:        actor,
			OccurredAt:   s.now(),
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, "investment")
	}

	s.log.WithFields(logrus.Fields{
		"investment_id": result.ID,
		"from":          event.FromStatus,
		"status":        event.ToStatus,
		"actor":         actor,
	}).Infof("Investment %s", action)
	s.publishEvent(event)
	return result, nil
}

// Delete tombstones an investment in any status. Ledger rows are kept.
func (s *Service) Delete(ctx context.Context, id uint, confirm bool, actor string) error {
	if !confirm {
		return newError(KindValidation, "deletion must be confirmed")
	}

	ctx, cancel := s.dbContext(ctx)
	defer cancel()

	var event EventMessage
	err := s.store.WithInvestment(ctx, id, func(tx repository.InvestmentTx) error {
		inv := tx.Investment()
		if err := tx.AddEvent(ctx, &models.InvestmentEvent{
			InvestmentID: inv.ID,
			UserID:       inv.UserID,
			FromStatus:   inv.Status,
			ToStatus:     inv.Status,
			Action:       ActionDelete,
			Actor:        actor,
		}); err != nil {
			return err
		}
		event = EventMessage{
			Action:       ActionDelete,
			InvestmentID: inv.ID,
			Reference:    inv.Reference,
			UserID:       inv.UserID,
			FromStatus:   inv.Status,
			ToStatus:     inv.Status,
			Actor:        actor,
			OccurredAt:   s.now(),
		}
		return tx.Delete(ctx)
	})
	if err != nil {
		return storeError(err, "investment")
	}

	s.log.WithFields(logrus.Fields{"investment_id": id, "actor": actor}).Info("Investment deleted")
	s.publishEvent(event)
	return nil
}

// GetInvestment returns one investment with its user and plan.
func (s *Service) GetInvestment(ctx context.Context, id uint) (*models.UserInvestment, error) {
	ctx, cancel := s.dbContext(ctx)
	defer cancel()
	inv, err := s.store.GetInvestment(ctx, id)
	if err != nil {
		return nil, storeError(err, "investment")
	}
	return inv, nil
}

type ListInvestmentsInput struct {
	Status models.InvestmentStatus
	Limit  int
}

// ListInvestments is the admin listing, newest first.
func (s *Service) ListInvestments(ctx context.Context, in ListInvestmentsInput) ([]models.UserInvestment, error) {
	if in.Status != "" && !in.Status.Valid() {
		return nil, newError(KindValidation, "unknown status %q", in.Status)
	}
	if in.Limit < 0 {
		return nil, newError(KindValidation, "limit must not be negative")
	}

	ctx, cancel := s.dbContext(ctx)
	defer cancel()
	invs, err := s.store.ListInvestments(ctx, repository.InvestmentFilter{Status: in.Status, Limit: in.Limit})
	if err != nil {
		return nil, storeError(err, "list investments")
	}
	return invs, nil
}

func (s *Service) ListEntries(ctx context.Context, investmentID uint) ([]models.DailyProfitEntry, error) {
	ctx, cancel := s.dbContext(ctx)
	defer cancel()
	if _, err := s.store.GetInvestment(ctx, investmentID); err != nil {
		return nil, storeError(err, "investment")
	}
	entries, err := s.store.ListEntries(ctx, repository.EntryFilter{InvestmentID: investmentID})
	if err != nil {
		return nil, storeError(err, "list entries")
	}
	return entries, nil
}

func (s *Service) ListAudits(ctx context.Context, investmentID uint) ([]models.InvestmentAudit, error) {
	ctx, cancel := s.dbContext(ctx)
	defer cancel()
	audits, err := s.store.ListAudits(ctx, investmentID)
	if err != nil {
		return nil, storeError(err, "list audits")
	}
	return audits, nil
}

func (s *Service) ListEvents(ctx context.Context, investmentID uint) ([]models.InvestmentEvent, error) {
	ctx, cancel := s.dbContext(ctx)
	defer cancel()
	events, err := s.store.ListEvents(ctx, investmentID)
	if err != nil {
		return nil, storeError(err, "list events")
	}
	return events, nil
}

// ListSystemLogs pages through the operational log.
func (s *Service) ListSystemLogs(ctx context.Context, filter repository.SystemLogFilter) ([]models.SystemLog, int64, error) {
	ctx, cancel := s.dbContext(ctx)
	defer cancel()
	logs, total, err := s.store.ListSystemLogs(ctx, filter)
	if err != nil {
		return nil, 0, storeError(err, "list system logs")
	}
	return logs, total, nil
}
