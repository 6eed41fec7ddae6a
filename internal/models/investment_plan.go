package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentPlan is a catalog entry users buy into. ProfitPercentage is the total
// return over Duration days.
type InvestmentPlan struct {
	ID               uint            `gorm:"primarykey" json:"id"`
	Name             string          `gorm:"size:64;not null;uniqueIndex" json:"name"`
	ProfitPercentage decimal.Decimal `gorm:"type:numeric(10,4);not null" json:"profitPercentage"`
	Duration         int             `gorm:"not null" json:"duration"`
	MinimumAmount    decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"minimumAmount"`
	MaximumAmount    decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"maximumAmount"`
	IsActive         bool            `gorm:"not null" json:"isActive"`
	CreatedAt        time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt        time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (InvestmentPlan) TableName() string {
	return "investment_plans"
}

// DailyRate returns the fraction of principal credited per accrual cycle.
func (p InvestmentPlan) DailyRate() decimal.Decimal {
	if p.Duration < 1 {
		return decimal.Zero
	}
	return p.ProfitPercentage.Div(decimal.NewFromInt(int64(p.Duration))).Div(decimal.NewFromInt(100))
}

// AllowsAmount reports whether amount sits inside the plan bounds. A zero bound is open.
func (p InvestmentPlan) AllowsAmount(amount decimal.Decimal) bool {
	if p.MinimumAmount.IsPositive() && amount.LessThan(p.MinimumAmount) {
		return false
	}
	if p.MaximumAmount.IsPositive() && amount.GreaterThan(p.MaximumAmount) {
		return false
	}
	return true
}
