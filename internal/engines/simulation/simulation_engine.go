package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	simulationDAO "stocksim/internal/dao/simulation"
	"stocksim/internal/models"
	"stocksim/internal/services"
	"stocksim/internal/simerror"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MaxRounds is the number of yearly rounds in a full game.
const MaxRounds = 5

// EndTimestampYearOffset shifts the final simulated year to produce the
// recorded end date (January 2nd of final year + offset).
const EndTimestampYearOffset = 4

const (
	maxConflictRetries = 4
	conflictRetryBase  = 10 * time.Millisecond
)

// Settings are the game parameters fixed at engine construction.
type Settings struct {
	StartYearMin int
	StartYearMax int
	StartingCash decimal.Decimal
}

// SimulationEngine owns the session lifecycle: creation at a random
// historical year, round/year advancement and the terminal transition to
// finished with a profit score. All transitions are guarded by the session
// version counter.
type SimulationEngine struct {
	db         *gorm.DB
	sessionDAO simulationDAO.SessionDAOInterface
	valuator   *services.PortfolioValuator
	settings   Settings
	logger     *logrus.Logger
}

// NewSimulationEngine creates a new simulation engine.
func NewSimulationEngine(db *gorm.DB, sessionDAO simulationDAO.SessionDAOInterface, valuator *services.PortfolioValuator, settings Settings, logger *logrus.Logger) *SimulationEngine {
	return &SimulationEngine{
		db:         db,
		sessionDAO: sessionDAO,
		valuator:   valuator,
		settings:   settings,
		logger:     logger,
	}
}

// StartSimulation begins a new game for the owner, or resumes the existing
// in-progress one. Idempotent: calling it twice without finishing returns the
// same session. The second return value reports whether a session was created.
func (se *SimulationEngine) StartSimulation(ownerID uint) (*models.Session, bool, error) {
	existing, err := se.sessionDAO.GetActiveByOwner(ownerID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, simerror.ErrNotFound) {
		return nil, false, err
	}

	span := se.settings.StartYearMax - se.settings.StartYearMin + 1
	session := &models.Session{
		OwnerID:       ownerID,
		RoundNumber:   1,
		Cash:          se.settings.StartingCash,
		StartingCash:  se.settings.StartingCash,
		SimulatedYear: se.settings.StartYearMin + rand.Intn(span),
		Status:        models.SessionStatusInProgress,
		Version:       1,
	}

	if err := se.sessionDAO.Create(session); err != nil {
		// A concurrent start may have won the partial unique index race.
		if existing, lookupErr := se.sessionDAO.GetActiveByOwner(ownerID); lookupErr == nil {
			return existing, false, nil
		}
		return nil, false, err
	}

	se.logger.WithFields(logrus.Fields{
		"session": session.ID,
		"owner":   ownerID,
		"year":    session.SimulatedYear,
	}).Info("started simulation")

	return session, true, nil
}

// GetActiveSession returns the owner's in-progress session, or ErrNotFound.
func (se *SimulationEngine) GetActiveSession(ownerID uint) (*models.Session, error) {
	return se.sessionDAO.GetActiveByOwner(ownerID)
}

// AdvanceRound moves an in-progress session to the next round and year. Cash
// is untouched; holdings simply re-price against the new year on the next
// valuation. Advancing past the final round is an invalid state, finishing is
// an explicit operation.
func (se *SimulationEngine) AdvanceRound(ctx context.Context, sessionID uint) (*models.Session, error) {
	if err := se.withConflictRetry(ctx, func() error {
		return se.db.Transaction(func(tx *gorm.DB) error {
			session, err := se.sessionDAO.GetByIDWithTx(tx, sessionID)
			if err != nil {
				return err
			}
			if !session.InProgress() {
				return fmt.Errorf("%w: session %d is %s", simerror.ErrInvalidState, session.ID, session.Status)
			}
			if session.RoundNumber >= MaxRounds {
				return fmt.Errorf("%w: session %d already at final round %d", simerror.ErrInvalidState, session.ID, session.RoundNumber)
			}

			return se.sessionDAO.UpdateGuarded(tx, session, map[string]interface{}{
				"round_number":   session.RoundNumber + 1,
				"simulated_year": session.SimulatedYear + 1,
			})
		})
	}); err != nil {
		return nil, err
	}

	session, err := se.sessionDAO.GetByID(sessionID)
	if err != nil {
		return nil, err
	}

	se.logger.WithFields(logrus.Fields{
		"session": session.ID,
		"round":   session.RoundNumber,
		"year":    session.SimulatedYear,
	}).Info("advanced round")

	return session, nil
}

// FinishSimulation ends the game: it values the portfolio at the current
// simulated year, computes the profit rate against starting cash and marks
// the session finished. Finishing before the final round requires force
// (explicit early termination). A finished session accepts no further
// transitions.
func (se *SimulationEngine) FinishSimulation(ctx context.Context, sessionID uint, force bool) (*models.Session, error) {
	if err := se.withConflictRetry(ctx, func() error {
		session, err := se.sessionDAO.GetByID(sessionID)
		if err != nil {
			return err
		}
		if !session.InProgress() {
			return fmt.Errorf("%w: session %d is %s", simerror.ErrInvalidState, session.ID, session.Status)
		}
		if session.RoundNumber < MaxRounds && !force {
			return fmt.Errorf("%w: session %d at round %d of %d, early termination must be forced",
				simerror.ErrInvalidState, session.ID, session.RoundNumber, MaxRounds)
		}

		// The oracle round-trip happens outside any lock on the session; only
		// the guarded update below holds one. A concurrent trade in between
		// bumps the version and forces a re-valuation.
		valuation, err := se.valuator.Valuate(ctx, session, session.SimulatedYear)
		if err != nil {
			return err
		}

		profitRate := valuation.Total.Sub(session.StartingCash).
			Div(session.StartingCash).
			Mul(decimal.NewFromInt(100)).
			Round(4)
		endTimestamp := time.Date(session.SimulatedYear+EndTimestampYearOffset, time.January, 2, 0, 0, 0, 0, time.UTC)

		return se.db.Transaction(func(tx *gorm.DB) error {
			return se.sessionDAO.UpdateGuarded(tx, session, map[string]interface{}{
				"status":        models.SessionStatusFinished,
				"profit_rate":   profitRate,
				"end_timestamp": endTimestamp,
			})
		})
	}); err != nil {
		return nil, err
	}

	session, err := se.sessionDAO.GetByID(sessionID)
	if err != nil {
		return nil, err
	}

	se.logger.WithFields(logrus.Fields{
		"session":     session.ID,
		"profit_rate": session.ProfitRate,
	}).Info("finished simulation")

	return session, nil
}

// GetHistory returns the owner's finished sessions, most recent first.
func (se *SimulationEngine) GetHistory(ownerID uint) ([]models.Session, error) {
	return se.sessionDAO.GetFinishedByOwner(ownerID)
}

// ValuateActive values the owner's in-progress session at its current
// simulated year.
func (se *SimulationEngine) ValuateActive(ctx context.Context, ownerID uint) (*models.Session, *services.Valuation, error) {
	session, err := se.sessionDAO.GetActiveByOwner(ownerID)
	if err != nil {
		return nil, nil, err
	}
	valuation, err := se.valuator.Valuate(ctx, session, session.SimulatedYear)
	if err != nil {
		return nil, nil, err
	}
	return session, valuation, nil
}

func (se *SimulationEngine) withConflictRetry(ctx context.Context, fn func() error) error {
	backoff := retry.NewExponential(conflictRetryBase)
	backoff = retry.WithMaxRetries(maxConflictRetries, backoff)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(); err != nil {
			if errors.Is(err, simerror.ErrVersionConflict) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}
