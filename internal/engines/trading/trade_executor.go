package trading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stocksim/internal/dao/ledger"
	"stocksim/internal/dao/simulation"
	"stocksim/internal/models"
	"stocksim/internal/services"
	"stocksim/internal/simerror"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	// Attempts after the first try when the session row is contended.
	maxConflictRetries = 4
	conflictRetryBase  = 10 * time.Millisecond
)

// TradeExecutor validates and applies a single buy or sell order against a
// session, producing a ledger entry and adjusting cash. The balance check,
// cash mutation and ledger append run as one transaction guarded by the
// session's version counter, so two concurrent trades can never both pass the
// funds check against stale cash.
type TradeExecutor struct {
	db            *gorm.DB
	sessionDAO    simulation.SessionDAOInterface
	instrumentDAO simulation.InstrumentDAOInterface
	ledgerDAO     ledger.LedgerDAOInterface
	holdings      *services.HoldingsResolver
	logger        *logrus.Logger
}

// TradeExecutorInterface defines the contract for trade execution.
type TradeExecutorInterface interface {
	Execute(ctx context.Context, sessionID uint, symbol string, side models.TradeSide, quantity, price decimal.Decimal) (*models.LedgerEntry, error)
}

// NewTradeExecutor creates a new trade executor.
func NewTradeExecutor(db *gorm.DB, sessionDAO simulation.SessionDAOInterface, instrumentDAO simulation.InstrumentDAOInterface, ledgerDAO ledger.LedgerDAOInterface, holdings *services.HoldingsResolver, logger *logrus.Logger) TradeExecutorInterface {
	return &TradeExecutor{
		db:            db,
		sessionDAO:    sessionDAO,
		instrumentDAO: instrumentDAO,
		ledgerDAO:     ledgerDAO,
		holdings:      holdings,
		logger:        logger,
	}
}

// Execute runs one order at the caller-supplied price. The price was pinned
// when the instrument detail was shown, so the user trades at the number they
// saw. Version conflicts are retried with exponential backoff; every other
// failure is final and leaves the session untouched.
func (te *TradeExecutor) Execute(ctx context.Context, sessionID uint, symbol string, side models.TradeSide, quantity, price decimal.Decimal) (*models.LedgerEntry, error) {
	if !side.Valid() {
		return nil, fmt.Errorf("%w: unknown trade side %q", simerror.ErrValidation, side)
	}
	if quantity.Sign() <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %s", simerror.ErrValidation, quantity)
	}
	if price.Sign() <= 0 {
		return nil, fmt.Errorf("%w: price must be positive, got %s", simerror.ErrValidation, price)
	}
	if _, err := te.instrumentDAO.GetBySymbol(symbol); err != nil {
		return nil, err
	}

	backoff := retry.NewExponential(conflictRetryBase)
	backoff = retry.WithMaxRetries(maxConflictRetries, backoff)

	var entry *models.LedgerEntry
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		result, err := te.executeOnce(sessionID, symbol, side, quantity, price)
		if err != nil {
			if errors.Is(err, simerror.ErrVersionConflict) {
				return retry.RetryableError(err)
			}
			return err
		}
		entry = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	te.logger.WithFields(logrus.Fields{
		"session":  sessionID,
		"symbol":   symbol,
		"side":     side,
		"quantity": quantity.String(),
		"price":    price.String(),
	}).Info("executed trade")

	return entry, nil
}

func (te *TradeExecutor) executeOnce(sessionID uint, symbol string, side models.TradeSide, quantity, price decimal.Decimal) (*models.LedgerEntry, error) {
	var entry *models.LedgerEntry

	err := te.db.Transaction(func(tx *gorm.DB) error {
		session, err := te.sessionDAO.GetByIDWithTx(tx, sessionID)
		if err != nil {
			return err
		}
		if !session.InProgress() {
			return fmt.Errorf("%w: session %d is %s", simerror.ErrInvalidState, session.ID, session.Status)
		}

		gross := quantity.Mul(price)
		var newCash decimal.Decimal

		switch side {
		case models.TradeSideBuy:
			if gross.GreaterThan(session.Cash) {
				return fmt.Errorf("%w: cost %s exceeds cash %s", simerror.ErrInsufficientFunds, gross, session.Cash)
			}
			newCash = session.Cash.Sub(gross)
		case models.TradeSideSell:
			net, err := te.holdings.ResolveWithTx(tx, session.ID)
			if err != nil {
				return err
			}
			owned := net[symbol]
			if quantity.GreaterThan(owned) {
				return fmt.Errorf("%w: selling %s, own %s of %s", simerror.ErrOverdraft, quantity, owned, symbol)
			}
			newCash = session.Cash.Add(gross)
		}

		if err := te.sessionDAO.UpdateGuarded(tx, session, map[string]interface{}{
			"cash": newCash,
		}); err != nil {
			return err
		}

		entry = &models.LedgerEntry{
			SessionID:        session.ID,
			InstrumentSymbol: symbol,
			Side:             side,
			Quantity:         quantity,
			UnitPrice:        price,
		}
		return te.ledgerDAO.AppendWithTx(tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}
