package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// SystemLog is an operational log row. Accrual failures are written here.
type SystemLog struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	InvestmentID uint      `gorm:"column:investment_id;default:0;index" json:"investmentId,omitempty"`
	Level        string    `gorm:"column:level;size:10;not null" json:"level"` // DEBUG, INFO, WARN, ERROR, FATAL
	Message      string    `gorm:"column:message;type:text;not null" json:"message"`
	Module       string    `gorm:"column:module;size:100" json:"module"`
	ErrorStack   string    `gorm:"column:error_stack;type:text" json:"errorStack,omitempty"`
	Meta         JSONMap   `gorm:"column:meta;type:jsonb" json:"meta"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (SystemLog) TableName() string {
	return "system_logs"
}

// JSONMap stores a free-form object in a jsonb column.
type JSONMap map[string]interface{}

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("JSONMap: unsupported scan type")
	}
	return json.Unmarshal(raw, j)
}
