package market

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceOracle looks up the opening quote for the first trading period at or
// after the given year and month. Implementations are expected to be slow,
// rate limited and occasionally wrong-footed by missing data; callers must
// treat ErrPriceUnavailable as a normal outcome, not an exception.
type PriceOracle interface {
	MonthlyOpen(ctx context.Context, symbol string, year, month int) (decimal.Decimal, error)
}
