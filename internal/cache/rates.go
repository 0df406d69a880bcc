// Package cache provides a Redis read-through tier for hot dashboard reads.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/lisekarimi/prism/internal/domain"
	"github.com/lisekarimi/prism/internal/persistence"
)

const latestRatesKey = "prism:rates:latest"

// RatesCache caches the latest market rates in Redis with a short TTL. Cache
// failures degrade to the database, never to an error.
type RatesCache struct {
	rdb  *redis.Client
	repo persistence.RatesRepo
	ttl  time.Duration
}

// NewRatesCache wraps a rates repository with a Redis tier. A nil client
// passes every read through to the repository.
func NewRatesCache(rdb *redis.Client, repo persistence.RatesRepo, ttl time.Duration) *RatesCache {
	return &RatesCache{rdb: rdb, repo: repo, ttl: ttl}
}

// Latest returns the most recent rate per tenor, served from Redis when warm.
func (c *RatesCache) Latest(ctx context.Context) ([]domain.MarketRate, error) {
	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, latestRatesKey).Bytes()
		if err == nil {
			var rates []domain.MarketRate
			if jsonErr := json.Unmarshal(raw, &rates); jsonErr == nil {
				return rates, nil
			}
			log.Warn().Str("key", latestRatesKey).Msg("Discarding undecodable cache entry")
		} else if err != redis.Nil {
			log.Warn().Err(err).Msg("Rates cache read failed, falling back to database")
		}
	}

	rates, err := c.repo.Latest(ctx)
	if err != nil {
		return nil, err
	}

	if c.rdb != nil && len(rates) > 0 {
		if raw, err := json.Marshal(rates); err == nil {
			if err := c.rdb.Set(ctx, latestRatesKey, raw, c.ttl).Err(); err != nil {
				log.Warn().Err(err).Msg("Rates cache write failed")
			}
		}
	}

	return rates, nil
}

// Invalidate drops the cached entry, forcing the next read through to the
// database. Called after new rate observations land.
func (c *RatesCache) Invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, latestRatesKey).Err(); err != nil {
		log.Warn().Err(err).Msg("Rates cache invalidation failed")
	}
}
