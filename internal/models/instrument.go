package models

import (
	"time"
)

// Instrument is a tradable equity. Reference data, seeded once at startup and
// never mutated by the application.
type Instrument struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Symbol      string    `json:"symbol" gorm:"uniqueIndex;not null"`
	DisplayName string    `json:"display_name" gorm:"not null"`
	Category    string    `json:"category" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Instrument) TableName() string {
	return "instruments"
}
