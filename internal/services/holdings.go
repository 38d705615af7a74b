package services

import (
	"fmt"

	"stocksim/internal/dao/ledger"
	"stocksim/internal/models"
	"stocksim/internal/simerror"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// HoldingsResolver derives net share counts per instrument by replaying a
// session's ledger. It is a pure read over the ledger: no state is kept
// between calls, so it is safe to call repeatedly and concurrently.
type HoldingsResolver struct {
	ledgerDAO ledger.LedgerDAOInterface
}

// NewHoldingsResolver creates a new holdings resolver.
func NewHoldingsResolver(ledgerDAO ledger.LedgerDAOInterface) *HoldingsResolver {
	return &HoldingsResolver{
		ledgerDAO: ledgerDAO,
	}
}

// Resolve folds the session's entries in insertion order into a map of
// symbol to net quantity. Symbols whose net quantity reaches zero are
// omitted. A negative net quantity means the executor's preconditions were
// bypassed somewhere and is reported as ErrLedgerInconsistent rather than
// silently clamped.
func (hr *HoldingsResolver) Resolve(sessionID uint) (map[string]decimal.Decimal, error) {
	entries, err := hr.ledgerDAO.EntriesForSession(sessionID)
	if err != nil {
		return nil, err
	}
	return foldEntries(entries)
}

// ResolveWithTx is Resolve bound to an open transaction, for callers that
// need the holdings view to be consistent with a pending mutation.
func (hr *HoldingsResolver) ResolveWithTx(tx *gorm.DB, sessionID uint) (map[string]decimal.Decimal, error) {
	entries, err := hr.ledgerDAO.EntriesForSessionWithTx(tx, sessionID)
	if err != nil {
		return nil, err
	}
	return foldEntries(entries)
}

func foldEntries(entries []models.LedgerEntry) (map[string]decimal.Decimal, error) {
	net := make(map[string]decimal.Decimal)
	for _, entry := range entries {
		quantity := net[entry.InstrumentSymbol]
		if entry.Side == models.TradeSideBuy {
			quantity = quantity.Add(entry.Quantity)
		} else {
			quantity = quantity.Sub(entry.Quantity)
		}
		net[entry.InstrumentSymbol] = quantity
	}

	for symbol, quantity := range net {
		if quantity.Sign() < 0 {
			return nil, fmt.Errorf("%w: %s nets to %s", simerror.ErrLedgerInconsistent, symbol, quantity)
		}
		if quantity.Sign() == 0 {
			delete(net, symbol)
		}
	}
	return net, nil
}
