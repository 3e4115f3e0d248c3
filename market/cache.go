package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stockit/models"

	"github.com/go-redis/redis/v8"
)

// Cached keeps quotes from the upstream in Redis for ttl. Cache failures are
// logged and the upstream is asked instead.
type Cached struct {
	next Provider
	rdb  *redis.Client
	ttl  time.Duration
	log  *slog.Logger
}

func NewCached(next Provider, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *Cached {
	return &Cached{next: next, rdb: rdb, ttl: ttl, log: log}
}

const trendingKey = "stock:trending"

func quoteKey(symbol string) string {
	return fmt.Sprintf("stock:%s:quote", symbol)
}

func (c *Cached) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	symbol = NormalizeSymbol(symbol)
	key := quoteKey(symbol)

	var quote models.Quote
	if c.get(ctx, key, &quote) {
		return quote, nil
	}

	quote, err := c.next.Quote(ctx, symbol)
	if err != nil {
		return models.Quote{}, err
	}
	c.set(ctx, key, quote)
	return quote, nil
}

func (c *Cached) Trending(ctx context.Context) ([]models.Quote, error) {
	var quotes []models.Quote
	if c.get(ctx, trendingKey, &quotes) {
		return quotes, nil
	}

	quotes, err := c.next.Trending(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, trendingKey, quotes)
	return quotes, nil
}

func (c *Cached) Search(ctx context.Context, query string) ([]models.Quote, error) {
	return c.next.Search(ctx, query)
}

func (c *Cached) get(ctx context.Context, key string, dst any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("quote cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.Warn("can't unmarshal cached quote", "key", key, "error", err)
		return false
	}
	return true
}

func (c *Cached) set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("can't marshal quote for cache", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("quote cache write failed", "key", key, "error", err)
	}
}
