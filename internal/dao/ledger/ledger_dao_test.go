package ledger_test

import (
	"testing"

	"stocksim/internal/dao/ledger"
	"stocksim/internal/models"
	"stocksim/internal/simerror"
	"stocksim/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createSession(t *testing.T, db *gorm.DB, ownerID uint) *models.Session {
	t.Helper()
	session := &models.Session{
		OwnerID:       ownerID,
		RoundNumber:   1,
		Cash:          decimal.NewFromInt(10000),
		StartingCash:  decimal.NewFromInt(10000),
		SimulatedYear: 2015,
		Status:        models.SessionStatusInProgress,
		Version:       1,
	}
	require.NoError(t, db.Create(session).Error)
	return session
}

func createInstruments(t *testing.T, db *gorm.DB, symbols ...string) {
	t.Helper()
	for _, symbol := range symbols {
		require.NoError(t, db.Create(&models.Instrument{
			Symbol:      symbol,
			DisplayName: symbol,
			Category:    "Technology (IT)",
		}).Error)
	}
}

func TestLedgerDAO(t *testing.T) {
	db := testutil.SetupDB(t)
	dao := ledger.NewLedgerDAO(db)
	createInstruments(t, db, "AAPL", "MSFT", "TSLA")
	session := createSession(t, db, 1)

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		err := dao.AppendWithTx(db, &models.LedgerEntry{
			SessionID:        session.ID,
			InstrumentSymbol: "AAPL",
			Side:             models.TradeSideBuy,
			Quantity:         decimal.Zero,
			UnitPrice:        decimal.NewFromInt(100),
		})
		require.ErrorIs(t, err, simerror.ErrValidation)
	})

	t.Run("rejects non-positive price", func(t *testing.T) {
		err := dao.AppendWithTx(db, &models.LedgerEntry{
			SessionID:        session.ID,
			InstrumentSymbol: "AAPL",
			Side:             models.TradeSideBuy,
			Quantity:         decimal.NewFromInt(1),
			UnitPrice:        decimal.NewFromInt(-5),
		})
		require.ErrorIs(t, err, simerror.ErrValidation)
	})

	t.Run("rejects unknown side", func(t *testing.T) {
		err := dao.AppendWithTx(db, &models.LedgerEntry{
			SessionID:        session.ID,
			InstrumentSymbol: "AAPL",
			Side:             models.TradeSide("short"),
			Quantity:         decimal.NewFromInt(1),
			UnitPrice:        decimal.NewFromInt(100),
		})
		require.ErrorIs(t, err, simerror.ErrValidation)
	})

	t.Run("nothing recorded after rejected appends", func(t *testing.T) {
		count, err := dao.CountForSession(session.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("preserves insertion order", func(t *testing.T) {
		symbols := []string{"MSFT", "AAPL", "TSLA", "AAPL"}
		for _, symbol := range symbols {
			require.NoError(t, dao.AppendWithTx(db, &models.LedgerEntry{
				SessionID:        session.ID,
				InstrumentSymbol: symbol,
				Side:             models.TradeSideBuy,
				Quantity:         decimal.NewFromInt(1),
				UnitPrice:        decimal.NewFromInt(10),
			}))
		}

		entries, err := dao.EntriesForSession(session.ID)
		require.NoError(t, err)
		require.Len(t, entries, len(symbols))
		for i, symbol := range symbols {
			assert.Equal(t, symbol, entries[i].InstrumentSymbol)
			assert.False(t, entries[i].RecordedAt.IsZero())
		}

		count, err := dao.CountForSession(session.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(len(symbols)), count)
	})

	t.Run("scopes entries to the session", func(t *testing.T) {
		other := createSession(t, db, 2)
		entries, err := dao.EntriesForSession(other.ID)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
