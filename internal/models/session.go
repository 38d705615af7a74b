package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusFinished   SessionStatus = "finished"
)

// Session represents one playthrough of the investment game: five yearly
// rounds starting at a random historical year, ending with a profit score.
// A finished session is immutable history and is never deleted.
type Session struct {
	ID            uint             `json:"id" gorm:"primaryKey"`
	OwnerID       uint             `json:"owner_id" gorm:"index;not null;default:1"` // Default to user 1 for now
	RoundNumber   int              `json:"round_number" gorm:"not null;default:1"`
	Cash          decimal.Decimal  `json:"cash" gorm:"type:numeric(20,4);not null"`
	StartingCash  decimal.Decimal  `json:"starting_cash" gorm:"type:numeric(20,4);not null"`
	SimulatedYear int              `json:"simulated_year" gorm:"not null"`
	Status        SessionStatus    `json:"status" gorm:"not null;default:'in_progress';index"`
	ProfitRate    *decimal.Decimal `json:"profit_rate,omitempty" gorm:"type:numeric(12,4)"` // Set only when finished
	EndTimestamp  *time.Time       `json:"end_timestamp,omitempty"`

	// Version is bumped on every guarded update; stale writers lose the race.
	Version int64 `json:"-" gorm:"not null;default:1"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Session) TableName() string {
	return "sessions"
}

// InProgress reports whether the session still accepts trades and round
// transitions.
func (s *Session) InProgress() bool {
	return s.Status == SessionStatusInProgress
}
