package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvestmentStatus string

const (
	StatusPending   InvestmentStatus = "pending"
	StatusActive    InvestmentStatus = "active"
	StatusPaused    InvestmentStatus = "paused"
	StatusCompleted InvestmentStatus = "completed"
)

// Valid reports whether s is one of the lifecycle states.
func (s InvestmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusPaused, StatusCompleted:
		return true
	}
	return false
}

// UserInvestment is one purchase of a plan by a user.
type UserInvestment struct {
	ID                 uint             `gorm:"primarykey" json:"id"`
	Reference          string           `gorm:"size:36;not null;uniqueIndex" json:"reference"`
	UserID             uint             `gorm:"not null;index" json:"userId"`
	PlanID             uint             `gorm:"not null;index" json:"planId"`
	Amount             decimal.Decimal  `gorm:"type:numeric(20,8);not null" json:"amount"`
	Status             InvestmentStatus `gorm:"size:16;not null;default:'pending';index" json:"status"`
	StartDate          *time.Time       `gorm:"type:date" json:"startDate"`
	EndDate            *time.Time       `gorm:"type:date" json:"endDate"`
	DailyProfitRate    decimal.Decimal  `gorm:"type:numeric(20,12);not null" json:"dailyProfitRate"`
	TotalProfitsEarned decimal.Decimal  `gorm:"type:numeric(20,8);not null;default:0" json:"totalProfitsEarned"`
	AvailableBalance   decimal.Decimal  `gorm:"type:numeric(20,8);not null;default:0" json:"availableBalance"`
	PaidDays           int              `gorm:"not null;default:0" json:"paidDays"`
	LastAccrualDate    *time.Time       `gorm:"type:date" json:"lastAccrualDate"`
	PauseReason        string           `gorm:"size:255" json:"pauseReason,omitempty"`
	PausedAt           *time.Time       `json:"pausedAt,omitempty"`
	// ResumedOn is the first day a resumed investment may accrue again.
	ResumedOn          *time.Time       `gorm:"type:date" json:"resumedOn,omitempty"`
	CompletedAt        *time.Time       `json:"completedAt,omitempty"`
	Version            uint             `gorm:"not null;default:1" json:"version"`
	CreatedAt          time.Time        `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt          time.Time        `json:"updatedAt" gorm:"autoUpdateTime"`
	DeletedAt          gorm.DeletedAt   `gorm:"index" json:"-"`

	User           *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	InvestmentPlan *InvestmentPlan `gorm:"foreignKey:PlanID" json:"investmentPlan,omitempty"`
}

func (UserInvestment) TableName() string {
	return "user_investments"
}

// ScheduleFrom sets StartDate and derives EndDate from the plan duration.
func (i *UserInvestment) ScheduleFrom(start time.Time, duration int) {
	s := start
	e := AddDays(start, duration)
	i.StartDate = &s
	i.EndDate = &e
}

// DailyProfit is the amount credited for one accrual cycle, rounded to 8 places.
func (i UserInvestment) DailyProfit() decimal.Decimal {
	return i.Amount.Mul(i.DailyProfitRate).Round(8)
}
