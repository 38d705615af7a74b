package market

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

const quoteKeyPrefix = "stocksim:quote:"

// Historical monthly opens never change, so the TTL exists only to bound the
// keyspace.
const quoteTTL = 30 * 24 * time.Hour

// QuoteCache stores resolved quotes in Redis. All operations are best-effort:
// a cache failure never fails a lookup.
type QuoteCache struct {
	client *redis.Client
}

// NewQuoteCache creates a quote cache against the given Redis address.
func NewQuoteCache(addr string) *QuoteCache {
	return &QuoteCache{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
		}),
	}
}

func quoteKey(symbol string, year, month int) string {
	return fmt.Sprintf("%s%s:%04d-%02d", quoteKeyPrefix, symbol, year, month)
}

// Get returns the cached quote and whether it was present.
func (c *QuoteCache) Get(ctx context.Context, symbol string, year, month int) (decimal.Decimal, bool) {
	raw, err := c.client.Get(ctx, quoteKey(symbol, year, month)).Result()
	if err != nil {
		return decimal.Zero, false
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return price, true
}

// Set stores a resolved quote.
func (c *QuoteCache) Set(ctx context.Context, symbol string, year, month int, price decimal.Decimal) {
	c.client.Set(ctx, quoteKey(symbol, year, month), price.String(), quoteTTL)
}

// Ping verifies the Redis connection.
func (c *QuoteCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
