package models

import "time"

// InvestmentAudit records one field changed by an admin override.
type InvestmentAudit struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	InvestmentID  uint      `gorm:"not null;index" json:"investmentId"`
	Field         string    `gorm:"size:64;not null" json:"field"`
	PreviousValue string    `gorm:"size:64" json:"previousValue"`
	NewValue      string    `gorm:"size:64" json:"newValue"`
	Actor         string    `gorm:"size:255;not null" json:"actor"`
	CreatedAt     time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

func (InvestmentAudit) TableName() string {
	return "investment_audits"
}

// InvestmentEvent records a lifecycle transition or a deletion.
type InvestmentEvent struct {
	ID           uint             `gorm:"primarykey" json:"id"`
	InvestmentID uint             `gorm:"not null;index" json:"investmentId"`
	UserID       uint             `gorm:"not null" json:"userId"`
	FromStatus   InvestmentStatus `gorm:"size:16" json:"fromStatus"`
	ToStatus     InvestmentStatus `gorm:"size:16" json:"toStatus"`
	Action       string           `gorm:"size:32;not null" json:"action"`
	Reason       string           `gorm:"size:255" json:"reason,omitempty"`
	Actor        string           `gorm:"size:255;not null" json:"actor"`
	CreatedAt    time.Time        `json:"createdAt" gorm:"autoCreateTime"`
}

func (InvestmentEvent) TableName() string {
	return "investment_events"
}
