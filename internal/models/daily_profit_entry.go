package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryStatus string

const (
	EntryCalculated EntryStatus = "calculated"
	EntryPaid       EntryStatus = "paid"
	EntryFailed     EntryStatus = "failed"
)

// DailyProfitEntry is one accrual ledger row. (investment_id, date) is unique.
type DailyProfitEntry struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	InvestmentID  uint            `gorm:"not null;uniqueIndex:idx_entry_investment_date,priority:1" json:"investmentId"`
	UserID        uint            `gorm:"not null;index" json:"userId"`
	Date          time.Time       `gorm:"type:date;not null;uniqueIndex:idx_entry_investment_date,priority:2;index" json:"date"`
	ProfitAmount  decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"profitAmount"`
	Status        EntryStatus     `gorm:"size:16;not null;default:'calculated'" json:"status"`
	FailureReason string          `gorm:"type:text" json:"failureReason,omitempty"`
	Attempts      int             `gorm:"not null;default:0" json:"attempts"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (DailyProfitEntry) TableName() string {
	return "daily_profit_entries"
}

// DailyProfitPoint is one bucket of the user profit chart.
type DailyProfitPoint struct {
	Date        time.Time       `json:"date"`
	TotalProfit decimal.Decimal `json:"totalProfit"`
}
