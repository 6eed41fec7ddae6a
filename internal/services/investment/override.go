package investment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"investcore/internal/models"
	"investcore/internal/repository"
)

// OverrideInput carries the admin-editable fields. Nil means unchanged.
type OverrideInput struct {
	StartDate          *time.Time
	TotalProfitsEarned *decimal.Decimal
}

type OverrideResult struct {
	Investment *models.UserInvestment   `json:"investment"`
	Changed    bool                     `json:"changed"`
	Audits     []models.InvestmentAudit `json:"audits"`
}

// Override corrects startDate and/or totalProfitsEarned. The ledger is not touched and
// totalProfitsEarned may diverge from the sum of paid entries afterwards.
func (s *Service) Override(ctx context.Context, id uint, in OverrideInput, actor string) (*OverrideResult, error) {
	if in.StartDate == nil && in.TotalProfitsEarned == nil {
		return nil, newError(KindValidation, "nothing to update")
	}
	if in.StartDate != nil {
		day := models.DateOf(*in.StartDate, time.UTC)
		if day.After(s.Today()) {
			return nil, newError(KindInvalidDate, "startDate %s is in the future", day.Format(models.DateLayout))
		}
		in.StartDate = &day
	}
	if in.TotalProfitsEarned != nil && in.TotalProfitsEarned.IsNegative() {
		return nil, newError(KindValidation, "totalProfitsEarned must not be negative")
	}

	ctx, cancel := s.dbContext(ctx)
	defer cancel()

	result := &OverrideResult{}
	err := s.store.WithInvestment(ctx, id, func(tx repository.InvestmentTx) error {
		inv := tx.Investment()
		var audits []models.InvestmentAudit

		if in.StartDate != nil && !sameDate(inv.StartDate, *in.StartDate) {
			prevStart, prevEnd := formatDate(inv.StartDate), formatDate(inv.EndDate)
			inv.ScheduleFrom(*in.StartDate, inv.InvestmentPlan.Duration)
			audits = append(audits, models.InvestmentAudit{
				Field: "startDate", PreviousValue: prevStart, NewValue: formatDate(inv.StartDate),
			})
			if prevEnd != formatDate(inv.EndDate) {
				audits = append(audits, models.InvestmentAudit{
					Field: "endDate", PreviousValue: prevEnd, NewValue: formatDate(inv.EndDate),
				})
			}
		}
		if in.TotalProfitsEarned != nil && !inv.TotalProfitsEarned.Equal(*in.TotalProfitsEarned) {
			audits = append(audits, models.InvestmentAudit{
				Field:         "totalProfitsEarned",
				PreviousValue: inv.TotalProfitsEarned.String(),
				NewValue:      in.TotalProfitsEarned.String(),
			})
			inv.TotalProfitsEarned = *in.TotalProfitsEarned
		}

		if len(audits) > 0 {
			if err := tx.Save(ctx); err != nil {
				return err
			}
			for i := range audits {
				audits[i].InvestmentID = inv.ID
				audits[i].Actor = actor
				if err := tx.AddAudit(ctx, &audits[i]); err != nil {
					return err
				}
			}
		}

		copied := *inv
		result.Investment = &copied
		result.Changed = len(audits) > 0
		result.Audits = audits
		return nil
	})
	if err != nil {
		return nil, storeError(err, "investment")
	}

	if result.Changed {
		fields := make([]string, 0, len(result.Audits))
		for _, a := range result.Audits {
			fields = append(fields, a.Field)
		}
		s.log.WithFields(logrus.Fields{
			"investment_id": id,
			"actor":         actor,
			"fields":        fields,
		}).Info("Investment overridden")
	}
	return result, nil
}

func sameDate(current *time.Time, day time.Time) bool {
	return current != nil && current.Format(models.DateLayout) == day.Format(models.DateLayout)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(models.DateLayout)
}
