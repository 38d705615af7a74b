package market

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PriceService is the PriceOracle the rest of the service talks to. It layers
// an optional Redis cache over the upstream quote source; only successful
// lookups are cached, so transient outages are retried on the next call.
type PriceService struct {
	source PriceOracle
	cache  *QuoteCache // nil when Redis is not configured
	logger *logrus.Logger
}

// NewPriceService creates a price service. cache may be nil.
func NewPriceService(source PriceOracle, cache *QuoteCache, logger *logrus.Logger) *PriceService {
	return &PriceService{
		source: source,
		cache:  cache,
		logger: logger,
	}
}

// MonthlyOpen implements PriceOracle.
func (ps *PriceService) MonthlyOpen(ctx context.Context, symbol string, year, month int) (decimal.Decimal, error) {
	if ps.cache != nil {
		if price, ok := ps.cache.Get(ctx, symbol, year, month); ok {
			return price, nil
		}
	}

	price, err := ps.source.MonthlyOpen(ctx, symbol, year, month)
	if err != nil {
		return decimal.Zero, err
	}

	if ps.cache != nil {
		ps.cache.Set(ctx, symbol, year, month, price)
	}
	ps.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"year":   year,
		"month":  month,
		"price":  price.String(),
	}).Debug("resolved quote")

	return price, nil
}
