package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// Valid reports whether the side is one of the two known enum values.
func (s TradeSide) Valid() bool {
	return s == TradeSideBuy || s == TradeSideSell
}

// LedgerEntry is one buy or sell event in a session's trade history. Entries
// are append-only: once written they are never updated or removed, so the
// ledger doubles as the audit trail the holdings are derived from.
type LedgerEntry struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	SessionID        uint            `json:"session_id" gorm:"index;not null"`
	InstrumentSymbol string          `json:"instrument_symbol" gorm:"not null;index"`
	Side             TradeSide       `json:"side" gorm:"not null"`
	Quantity         decimal.Decimal `json:"quantity" gorm:"type:numeric(20,8);not null"`
	UnitPrice        decimal.Decimal `json:"unit_price" gorm:"type:numeric(20,8);not null"`
	RecordedAt       time.Time       `json:"recorded_at" gorm:"not null"`
	CreatedAt        time.Time       `json:"created_at"`

	// Relationships
	Session    Session    `json:"-" gorm:"foreignKey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Instrument Instrument `json:"-" gorm:"foreignKey:InstrumentSymbol;references:Symbol"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
