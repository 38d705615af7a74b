package services_test

import (
	"testing"

	"stocksim/internal/dao/ledger"
	"stocksim/internal/models"
	"stocksim/internal/services"
	"stocksim/internal/simerror"
	"stocksim/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedSession(t *testing.T, db *gorm.DB, ownerID uint) *models.Session {
	t.Helper()
	session := &models.Session{
		OwnerID:       ownerID,
		RoundNumber:   1,
		Cash:          decimal.NewFromInt(10000),
		StartingCash:  decimal.NewFromInt(10000),
		SimulatedYear: 2014,
		Status:        models.SessionStatusInProgress,
		Version:       1,
	}
	require.NoError(t, db.Create(session).Error)
	return session
}

func appendEntry(t *testing.T, db *gorm.DB, dao ledger.LedgerDAOInterface, sessionID uint, symbol string, side models.TradeSide, quantity int64) {
	t.Helper()
	require.NoError(t, dao.AppendWithTx(db, &models.LedgerEntry{
		SessionID:        sessionID,
		InstrumentSymbol: symbol,
		Side:             side,
		Quantity:         decimal.NewFromInt(quantity),
		UnitPrice:        decimal.NewFromInt(100),
	}))
}

func TestHoldingsResolver(t *testing.T) {
	db := testutil.SetupDB(t)
	ledgerDAO := ledger.NewLedgerDAO(db)
	resolver := services.NewHoldingsResolver(ledgerDAO)

	for _, symbol := range []string{"AAPL", "MSFT", "TSLA", "PFE"} {
		require.NoError(t, db.Create(&models.Instrument{
			Symbol:      symbol,
			DisplayName: symbol,
			Category:    "Technology (IT)",
		}).Error)
	}

	t.Run("empty ledger resolves to no holdings", func(t *testing.T) {
		session := seedSession(t, db, 1)
		net, err := resolver.Resolve(session.ID)
		require.NoError(t, err)
		assert.Empty(t, net)
	})

	t.Run("buys and sells net out per symbol", func(t *testing.T) {
		session := seedSession(t, db, 2)
		appendEntry(t, db, ledgerDAO, session.ID, "AAPL", models.TradeSideBuy, 10)
		appendEntry(t, db, ledgerDAO, session.ID, "MSFT", models.TradeSideBuy, 4)
		appendEntry(t, db, ledgerDAO, session.ID, "AAPL", models.TradeSideBuy, 5)
		appendEntry(t, db, ledgerDAO, session.ID, "AAPL", models.TradeSideSell, 7)

		net, err := resolver.Resolve(session.ID)
		require.NoError(t, err)
		require.Len(t, net, 2)
		assert.True(t, net["AAPL"].Equal(decimal.NewFromInt(8)))
		assert.True(t, net["MSFT"].Equal(decimal.NewFromInt(4)))
	})

	t.Run("fully sold positions are dropped", func(t *testing.T) {
		session := seedSession(t, db, 3)
		appendEntry(t, db, ledgerDAO, session.ID, "TSLA", models.TradeSideBuy, 6)
		appendEntry(t, db, ledgerDAO, session.ID, "TSLA", models.TradeSideSell, 6)

		net, err := resolver.Resolve(session.ID)
		require.NoError(t, err)
		assert.Empty(t, net)
	})

	t.Run("negative net is an internal fault, not a clamp", func(t *testing.T) {
		session := seedSession(t, db, 4)
		appendEntry(t, db, ledgerDAO, session.ID, "PFE", models.TradeSideBuy, 5)
		appendEntry(t, db, ledgerDAO, session.ID, "PFE", models.TradeSideSell, 6)

		_, err := resolver.Resolve(session.ID)
		require.ErrorIs(t, err, simerror.ErrLedgerInconsistent)
	})
}
