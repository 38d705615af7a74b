// Package simerror defines the error kinds the simulation exposes. Callers
// classify failures with errors.Is against these sentinels; the concrete
// messages carry the details.
package simerror

import "errors"

var (
	// ErrValidation rejects malformed input (non-positive quantity or price,
	// unknown enum value) before any mutation happens.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientFunds rejects a buy whose cost exceeds the session cash.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrOverdraft rejects a sell larger than the currently owned quantity.
	ErrOverdraft = errors.New("sell exceeds owned quantity")

	// ErrNotFound reports an unknown session or instrument.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState reports an operation attempted against a session in the
	// wrong status, e.g. trading on a finished session or advancing past the
	// final round.
	ErrInvalidState = errors.New("invalid session state")

	// ErrPriceUnavailable reports that the quote source could not produce a
	// price. Trade-initiation flows surface it; bulk valuation treats the
	// affected holding as a zero contribution instead.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrVersionConflict marks a lost optimistic-lock race on the session row.
	// Retryable: the caller re-reads and re-applies.
	ErrVersionConflict = errors.New("session version conflict")

	// ErrLedgerInconsistent reports a negative derived holding. The trade
	// executor's preconditions make this impossible for a healthy ledger, so
	// it is an internal-consistency fault rather than a user error.
	ErrLedgerInconsistent = errors.New("ledger yields negative holding")
)
