package ledger

import (
	"fmt"
	"time"

	"stocksim/internal/models"
	"stocksim/internal/simerror"

	"gorm.io/gorm"
)

// LedgerDAO handles database access for ledger entries. The ledger is
// append-only: there are no update or delete methods, by design, so the trade
// history stays a trustworthy audit trail.
type LedgerDAO struct {
	db *gorm.DB
}

// LedgerDAOInterface defines the contract for ledger data access.
type LedgerDAOInterface interface {
	AppendWithTx(tx *gorm.DB, entry *models.LedgerEntry) error
	EntriesForSession(sessionID uint) ([]models.LedgerEntry, error)
	EntriesForSessionWithTx(tx *gorm.DB, sessionID uint) ([]models.LedgerEntry, error)
	CountForSession(sessionID uint) (int64, error)
}

// NewLedgerDAO creates a new ledger DAO instance.
func NewLedgerDAO(db *gorm.DB) LedgerDAOInterface {
	return &LedgerDAO{
		db: db,
	}
}

// AppendWithTx records a new entry within a transaction. Quantity and price
// must both be positive; anything else is rejected before the write.
func (dao *LedgerDAO) AppendWithTx(tx *gorm.DB, entry *models.LedgerEntry) error {
	if entry.Quantity.Sign() <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %s", simerror.ErrValidation, entry.Quantity)
	}
	if entry.UnitPrice.Sign() <= 0 {
		return fmt.Errorf("%w: unit price must be positive, got %s", simerror.ErrValidation, entry.UnitPrice)
	}
	if !entry.Side.Valid() {
		return fmt.Errorf("%w: unknown trade side %q", simerror.ErrValidation, entry.Side)
	}

	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}

	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// EntriesForSession returns all entries for a session in insertion order.
// Replay over this sequence is deterministic and chronological.
func (dao *LedgerDAO) EntriesForSession(sessionID uint) ([]models.LedgerEntry, error) {
	return dao.EntriesForSessionWithTx(dao.db, sessionID)
}

// EntriesForSessionWithTx is EntriesForSession bound to an open transaction.
func (dao *LedgerDAO) EntriesForSessionWithTx(tx *gorm.DB, sessionID uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := tx.Where("session_id = ?", sessionID).Order("id ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	return entries, nil
}

// CountForSession returns the number of entries recorded for a session.
func (dao *LedgerDAO) CountForSession(sessionID uint) (int64, error) {
	var count int64
	if err := dao.db.Model(&models.LedgerEntry{}).Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return count, nil
}
