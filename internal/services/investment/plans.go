package investment

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"investcore/internal/models"
)

type CreatePlanInput struct {
	Name             string          `json:"name"`
	ProfitPercentage decimal.Decimal `json:"profitPercentage"`
	Duration         int             `json:"duration"`
	MinimumAmount    decimal.Decimal `json:"minimumAmount"`
	MaximumAmount    decimal.Decimal `json:"maximumAmount"`
	IsActive         *bool           `json:"isActive"`
}

func (in CreatePlanInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return newError(KindValidation, "plan name is required")
	}
	if in.ProfitPercentage.IsNegative() {
		return newError(KindValidation, "profitPercentage must not be negative")
	}
	if in.Duration < 1 {
		return newError(KindValidation, "duration must be at least 1 day")
	}
	if in.MinimumAmount.IsNegative() || in.MaximumAmount.IsNegative() {
		return newError(KindValidation, "amount bounds must not be negative")
	}
	if in.MaximumAmount.IsPositive() && in.MaximumAmount.LessThan(in.MinimumAmount) {
		return newError(KindValidation, "maximumAmount is below minimumAmount")
	}
	return nil
}

func (s *Service) CreatePlan(ctx context.Context, in CreatePlanInput) (*models.InvestmentPlan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	plan := &models.InvestmentPlan{
		Name:             strings.TrimSpace(in.Name),
		ProfitPercentage: in.ProfitPercentage,
		Duration:         in.Duration,
		MinimumAmount:    in.MinimumAmount,
		MaximumAmount:    in.MaximumAmount,
		IsActive:         true,
	}
	if in.IsActive != nil {
		plan.IsActive = *in.IsActive
	}

	ctx, cancel := s.dbContext(ctx)
	defer cancel()
	if err := s.store.CreatePlan(ctx, plan); err != nil {
		return nil, storeError(err, "create plan")
	}
	s.log.WithField("plan_id", plan.ID).Infof("Created investment plan %s", plan.Name)
	return plan, nil
}

func (s *Service) ListPlans(ctx context.Context, activeOnly bool) ([]models.InvestmentPlan, error) {
	ctx, cancel := s.dbContext(ctx)
	defer cancel()
	plans, err := s.store.ListPlans(ctx, activeOnly)
	if err != nil {
		return nil, storeError(err, "list plans")
	}
	return plans, nil
}

func (s *Service) GetPlan(ctx context.Context, id uint) (*models.InvestmentPlan, error) {
	ctx, cancel := s.dbContext(ctx)
	defer cancel()
	plan, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return nil, storeError(err, "plan")
	}
	return plan, nil
}
