package trading_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"stocksim/internal/dao/ledger"
	"stocksim/internal/dao/simulation"
	"stocksim/internal/engines/trading"
	"stocksim/internal/models"
	"stocksim/internal/services"
	"stocksim/internal/simerror"
	"stocksim/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type executorFixture struct {
	db         *gorm.DB
	sessionDAO simulation.SessionDAOInterface
	ledgerDAO  ledger.LedgerDAOInterface
	executor   trading.TradeExecutorInterface
}

func newExecutorFixture(t *testing.T) *executorFixture {
	t.Helper()

	db := testutil.SetupDB(t)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	sessionDAO := simulation.NewSessionDAO(db)
	instrumentDAO := simulation.NewInstrumentDAO(db)
	ledgerDAO := ledger.NewLedgerDAO(db)
	holdings := services.NewHoldingsResolver(ledgerDAO)

	for _, instrument := range []models.Instrument{
		{Symbol: "AAPL", DisplayName: "Apple Inc.", Category: "Technology"},
		{Symbol: "JPM", DisplayName: "JPMorgan Chase & Co.", Category: "Finance"},
	} {
		require.NoError(t, db.Create(&instrument).Error)
	}

	return &executorFixture{
		db:         db,
		sessionDAO: sessionDAO,
		ledgerDAO:  ledgerDAO,
		executor:   trading.NewTradeExecutor(db, sessionDAO, instrumentDAO, ledgerDAO, holdings, logger),
	}
}

func (f *executorFixture) newSession(t *testing.T, ownerID uint, cash int64) *models.Session {
	t.Helper()
	session := &models.Session{
		OwnerID:       ownerID,
		RoundNumber:   1,
		Cash:          decimal.NewFromInt(cash),
		StartingCash:  decimal.NewFromInt(cash),
		SimulatedYear: 2013,
		Status:        models.SessionStatusInProgress,
		Version:       1,
	}
	require.NoError(t, f.sessionDAO.Create(session))
	return session
}

func (f *executorFixture) cash(t *testing.T, sessionID uint) decimal.Decimal {
	t.Helper()
	session, err := f.sessionDAO.GetByID(sessionID)
	require.NoError(t, err)
	return session.Cash
}

func TestTradeExecutorBuySell(t *testing.T) {
	f := newExecutorFixture(t)
	ctx := context.Background()
	session := f.newSession(t, 1, 10000)

	entry, err := f.executor.Execute(ctx, session.ID, "AAPL", models.TradeSideBuy,
		decimal.NewFromInt(10), decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NotZero(t, entry.ID)
	assert.Equal(t, models.TradeSideBuy, entry.Side)
	assert.True(t, f.cash(t, session.ID).Equal(decimal.NewFromInt(9000)))

	_, err = f.executor.Execute(ctx, session.ID, "AAPL", models.TradeSideSell,
		decimal.NewFromInt(10), decimal.NewFromInt(120))
	require.NoError(t, err)
	assert.True(t, f.cash(t, session.ID).Equal(decimal.NewFromInt(10200)))

	count, err := f.ledgerDAO.CountForSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestTradeExecutorRejections(t *testing.T) {
	f := newExecutorFixture(t)
	ctx := context.Background()
	session := f.newSession(t, 1, 10000)

	t.Run("invalid side", func(t *testing.T) {
		_, err := f.executor.Execute(ctx, session.ID, "AAPL", models.TradeSide("short"),
			decimal.NewFromInt(1), decimal.NewFromInt(100))
		require.ErrorIs(t, err, simerror.ErrValidation)
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		_, err := f.executor.Execute(ctx, session.ID, "AAPL", models.TradeSideBuy,
			decimal.Zero, decimal.NewFromInt(100))
		require.ErrorIs(t, err, simerror.ErrValidation)
	})

	t.Run("non-positive price", func(t *testing.T) {
		_, err := f.executor.Execute(ctx, session.ID, "AAPL", models.TradeSideBuy,
			decimal.NewFromInt(1), decimal.NewFromInt(-1))
		require.ErrorIs(t, err, simerror.ErrValidation)
	})

	t.Run("unknown instrument", func(t *testing.T) {
		_, err := f.executor.Execute(ctx, session.ID, "NOPE", models.TradeSideBuy,
			decimal.NewFromInt(1), decimal.NewFromInt(100))
		require.ErrorIs(t, err, simerror.ErrNotFound)
	})

	t.Run("insufficient funds leaves session untouched", func(t *testing.T) {
		_, err := f.executor.Execute(ctx, session.ID, "AAPL", models.TradeSideBuy,
			decimal.NewFromInt(200), decimal.NewFromInt(100))
		require.ErrorIs(t, err, simerror.ErrInsufficientFunds)

		assert.True(t, f.cash(t, session.ID).Equal(decimal.NewFromInt(10000)))
		count, err := f.ledgerDAO.CountForSession(session.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("selling more than owned is an overdraft", func(t *testing.T) {
		_, err := f.executor.Execute(ctx, session.ID, "JPM", models.TradeSideBuy,
			decimal.NewFromInt(5), decimal.NewFromInt(100))
		require.NoError(t, err)

		_, err = f.executor.Execute(ctx, session.ID, "JPM", models.TradeSideSell,
			decimal.NewFromInt(6), decimal.NewFromInt(100))
		require.ErrorIs(t, err, simerror.ErrOverdraft)

		assert.True(t, f.cash(t, session.ID).Equal(decimal.NewFromInt(9500)))
	})

	t.Run("selling a symbol never bought is an overdraft", func(t *testing.T) {
		_, err := f.executor.Execute(ctx, session.ID, "AAPL", models.TradeSideSell,
			decimal.NewFromInt(1), decimal.NewFromInt(100))
		require.ErrorIs(t, err, simerror.ErrOverdraft)
	})
}

func TestTradeExecutorFinishedSession(t *testing.T) {
	f := newExecutorFixture(t)
	session := f.newSession(t, 1, 10000)
	require.NoError(t, f.db.Model(session).Updates(map[string]interface{}{
		"status": models.SessionStatusFinished,
	}).Error)

	_, err := f.executor.Execute(context.Background(), session.ID, "AAPL", models.TradeSideBuy,
		decimal.NewFromInt(1), decimal.NewFromInt(100))
	require.ErrorIs(t, err, simerror.ErrInvalidState)
}

// conflictingSessionDAO loses the guarded update a fixed number of times
// before delegating, simulating a contended session row.
type conflictingSessionDAO struct {
	simulation.SessionDAOInterface
	conflicts int
}

func (d *conflictingSessionDAO) UpdateGuarded(tx *gorm.DB, session *models.Session, updates map[string]interface{}) error {
	if d.conflicts > 0 {
		d.conflicts--
		return fmt.Errorf("%w: session %d at version %d", simerror.ErrVersionConflict, session.ID, session.Version)
	}
	return d.SessionDAOInterface.UpdateGuarded(tx, session, updates)
}

func TestTradeExecutorRetriesVersionConflicts(t *testing.T) {
	f := newExecutorFixture(t)
	session := f.newSession(t, 1, 10000)

	db := f.db
	instrumentDAO := simulation.NewInstrumentDAO(db)
	holdings := services.NewHoldingsResolver(f.ledgerDAO)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	contended := &conflictingSessionDAO{SessionDAOInterface: f.sessionDAO, conflicts: 2}
	executor := trading.NewTradeExecutor(db, contended, instrumentDAO, f.ledgerDAO, holdings, logger)

	entry, err := executor.Execute(context.Background(), session.ID, "AAPL", models.TradeSideBuy,
		decimal.NewFromInt(10), decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NotZero(t, entry.ID)
	assert.Zero(t, contended.conflicts)

	assert.True(t, f.cash(t, session.ID).Equal(decimal.NewFromInt(9000)))
	count, err := f.ledgerDAO.CountForSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

// Two buys of 6000 against 10000 cash: whichever commits second must re-read
// the reduced balance and fail the funds check. Both passing would overdraw
// the account.
func TestTradeExecutorConcurrentBuys(t *testing.T) {
	f := newExecutorFixture(t)
	session := f.newSession(t, 1, 10000)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.executor.Execute(context.Background(), session.ID, "AAPL",
				models.TradeSideBuy, decimal.NewFromInt(60), decimal.NewFromInt(100))
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, simerror.ErrInsufficientFunds):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	assert.True(t, f.cash(t, session.ID).Equal(decimal.NewFromInt(4000)))
	count, err := f.ledgerDAO.CountForSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
