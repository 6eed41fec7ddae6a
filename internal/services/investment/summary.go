package investment

import (
	"context"

	"github.com/shopspring/decimal"

	"investcore/internal/models"
	"investcore/internal/repository"
)

const (
	DefaultHistoryDays = 30
	MaxHistoryDays     = 365
)

type InvestmentSummary struct {
	TotalInvested        decimal.Decimal `json:"totalInvested"`
	TotalProfits         decimal.Decimal `json:"totalProfits"`
	TotalInvestments     int             `json:"totalInvestments"`
	ActiveInvestments    int             `json:"activeInvestments"`
	CompletedInvestments int             `json:"completedInvestments"`
	AvailableBalance     decimal.Decimal `json:"availableBalance"`
	ProfitToday          decimal.Decimal `json:"profitToday"`
}

type UserInvestments struct {
	Investments []models.UserInvestment `json:"investments"`
	Summary     InvestmentSummary       `json:"summary"`
}

// UserInvestments lists a user's investments with the dashboard summary. Pending
// investments are listed but not counted as invested.
func (s *Service) UserInvestments(ctx context.Context, userID uint) (*UserInvestments, error) {
	ctx, cancel := s.dbContext(ctx)
	defer cancel()

	invs, err := s.store.ListInvestments(ctx, repository.InvestmentFilter{UserID: userID})
	if err != nil {
		return nil, storeError(err, "list investments")
	}
	today := s.Today()
	points, err := s.store.SumPaidProfits(ctx, userID, today, today)
	if err != nil {
		return nil, storeError(err, "sum profits")
	}

	summary := InvestmentSummary{
		TotalInvested:    decimal.Zero,
		TotalProfits:     decimal.Zero,
		AvailableBalance: decimal.Zero,
		ProfitToday:      decimal.Zero,
		TotalInvestments: len(invs),
	}
	for _, inv := range invs {
		switch inv.Status {
		case models.StatusActive:
			summary.ActiveInvestments++
		case models.StatusCompleted:
			summary.CompletedInvestments++
		}
		if inv.Status != models.StatusPending {
			summary.TotalInvested = summary.TotalInvested.Add(inv.Amount)
		}
		summary.TotalProfits = summary.TotalProfits.Add(inv.TotalProfitsEarned)
		summary.AvailableBalance = summary.AvailableBalance.Add(inv.AvailableBalance)
	}
	for _, p := range points {
		summary.ProfitToday = summary.ProfitToday.Add(p.TotalProfit)
	}

	if invs == nil {
		invs = []models.UserInvestment{}
	}
	return &UserInvestments{Investments: invs, Summary: summary}, nil
}

// ChartPoint is one day of the profit chart.
type ChartPoint struct {
	Date        string          `json:"date"`
	TotalProfit decimal.Decimal `json:"totalProfit"`
}

type DashboardStats struct {
	TotalProfit        decimal.Decimal `json:"totalProfit"`
	AverageDailyProfit decimal.Decimal `json:"averageDailyProfit"`
	BestDay            string          `json:"bestDay"`
	BestDayProfit      decimal.Decimal `json:"bestDayProfit"`
	ActiveInvestments  int             `json:"activeInvestments"`
	TotalInvested      decimal.Decimal `json:"totalInvested"`
}

type ProfitHistory struct {
	ChartData []ChartPoint   `json:"chartData"`
	Summary   DashboardStats `json:"summary"`
}

// ProfitHistory returns paid profit per day for the last `days` days, today included.
// Days without paid entries are reported as zero.
func (s *Service) ProfitHistory(ctx context.Context, userID uint, days int) (*ProfitHistory, error) {
	if days < 1 || days > MaxHistoryDays {
		return nil, newError(KindValidation, "days must be between 1 and %d", MaxHistoryDays)
	}

	ctx, cancel := s.dbContext(ctx)
	defer cancel()

	to := s.Today()
	from := models.AddDays(to, -(days - 1))
	points, err := s.store.SumPaidProfits(ctx, userID, from, to)
	if err != nil {
		return nil, storeError(err, "sum profits")
	}
	invs, err := s.store.ListInvestments(ctx, repository.InvestmentFilter{UserID: userID})
	if err != nil {
		return nil, storeError(err, "list investments")
	}

	byDay := make(map[string]decimal.Decimal, len(points))
	for _, p := range points {
		k := p.Date.Format(models.DateLayout)
		byDay[k] = byDay[k].Add(p.TotalProfit)
	}

	history := &ProfitHistory{
		ChartData: make([]ChartPoint, 0, days),
		Summary: DashboardStats{
			TotalProfit:        decimal.Zero,
			AverageDailyProfit: decimal.Zero,
			BestDayProfit:      decimal.Zero,
			TotalInvested:      decimal.Zero,
		},
	}
	stats := &history.Summary
	for d := from; !d.After(to); d = models.AddDays(d, 1) {
		k := d.Format(models.DateLayout)
		profit, ok := byDay[k]
		if !ok {
			profit = decimal.Zero
		}
		history.ChartData = append(history.ChartData, ChartPoint{Date: k, TotalProfit: profit})
		stats.TotalProfit = stats.TotalProfit.Add(profit)
		if profit.GreaterThan(stats.BestDayProfit) {
			stats.BestDay = k
			stats.BestDayProfit = profit
		}
	}
	stats.AverageDailyProfit = stats.TotalProfit.Div(decimal.NewFromInt(int64(days))).Round(8)

	for _, inv := range invs {
		if inv.Status == models.StatusActive {
			stats.ActiveInvestments++
		}
		if inv.Status != models.StatusPending {
			stats.TotalInvested = stats.TotalInvested.Add(inv.Amount)
		}
	}
	return history, nil
}
