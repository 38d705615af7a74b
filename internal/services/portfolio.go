package services

import (
	"context"
	"errors"
	"sort"

	"stocksim/internal/dao/simulation"
	"stocksim/internal/models"
	"stocksim/internal/services/market"
	"stocksim/internal/simerror"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PortfolioValuator combines session cash with the market value of derived
// holdings at a point in simulated time.
type PortfolioValuator struct {
	holdings      *HoldingsResolver
	prices        market.PriceOracle
	instrumentDAO simulation.InstrumentDAOInterface
	logger        *logrus.Logger
}

// NewPortfolioValuator creates a new portfolio valuator.
func NewPortfolioValuator(holdings *HoldingsResolver, prices market.PriceOracle, instrumentDAO simulation.InstrumentDAOInterface, logger *logrus.Logger) *PortfolioValuator {
	return &PortfolioValuator{
		holdings:      holdings,
		prices:        prices,
		instrumentDAO: instrumentDAO,
		logger:        logger,
	}
}

// PositionValuation is one holding priced at the valuation point.
type PositionValuation struct {
	Symbol      string          `json:"symbol"`
	DisplayName string          `json:"display_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Value       decimal.Decimal `json:"value"`
	Priced      bool            `json:"priced"`
}

// Valuation is the complete picture of a session's assets at a point in time.
type Valuation struct {
	Cash          decimal.Decimal     `json:"cash"`
	HoldingsValue decimal.Decimal     `json:"holdings_value"`
	Total         decimal.Decimal     `json:"total"`
	Positions     []PositionValuation `json:"positions"`
}

// Valuate prices every holding at the January open of asOfYear and returns
// cash, holdings value and their sum. A holding whose quote is unavailable
// contributes zero and is flagged unpriced; valuation never blocks on a
// partial data outage.
func (pv *PortfolioValuator) Valuate(ctx context.Context, session *models.Session, asOfYear int) (*Valuation, error) {
	net, err := pv.holdings.Resolve(session.ID)
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(net))
	for symbol := range net {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	valuation := &Valuation{
		Cash:          session.Cash,
		HoldingsValue: decimal.Zero,
		Positions:     make([]PositionValuation, 0, len(symbols)),
	}

	for _, symbol := range symbols {
		position := PositionValuation{
			Symbol:      symbol,
			DisplayName: symbol,
			Quantity:    net[symbol],
		}
		if instrument, err := pv.instrumentDAO.GetBySymbol(symbol); err == nil {
			position.DisplayName = instrument.DisplayName
		} else if !errors.Is(err, simerror.ErrNotFound) {
			pv.logger.WithFields(logrus.Fields{
				"session": session.ID,
				"symbol":  symbol,
			}).WithError(err).Warn("instrument lookup failed, falling back to symbol")
		}

		price, err := pv.prices.MonthlyOpen(ctx, symbol, asOfYear, 1)
		if err != nil {
			pv.logger.WithFields(logrus.Fields{
				"session": session.ID,
				"symbol":  symbol,
				"year":    asOfYear,
			}).Warn("quote unavailable, holding valued at zero")
			valuation.Positions = append(valuation.Positions, position)
			continue
		}

		position.UnitPrice = price
		position.Value = price.Mul(position.Quantity)
		position.Priced = true
		valuation.HoldingsValue = valuation.HoldingsValue.Add(position.Value)
		valuation.Positions = append(valuation.Positions, position)
	}

	valuation.Total = valuation.Cash.Add(valuation.HoldingsValue)
	return valuation, nil
}
