// Package ratelimit enforces the per-caller demo execution quota against the
// persisted execution log.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lisekarimi/prism/internal/persistence"
)

// Window is the rolling period the quota applies to.
const Window = 24 * time.Hour

// DefaultMaxRuns is the quota used when no explicit limit is configured.
const DefaultMaxRuns = 5

// Decision is the outcome of one quota check.
type Decision struct {
	// Allowed reports whether the caller may run a cycle.
	Allowed bool
	// Count is the caller's usage after this check: prior count when the
	// limit was reached, prior count + 1 when allowed.
	Count int
	// Max is the configured quota.
	Max int
}

// Limiter counts executions per caller address over a trailing window. The
// read-then-append is a single logical operation but not atomic; strict
// enforcement comes from the scheduler's single-flight cycle execution.
type Limiter struct {
	log persistence.ExecutionsRepo
	max int
	now func() time.Time
}

// New creates a limiter over the given execution log. A non-positive max
// falls back to DefaultMaxRuns.
func New(executions persistence.ExecutionsRepo, max int) *Limiter {
	if max <= 0 {
		max = DefaultMaxRuns
	}
	return &Limiter{log: executions, max: max, now: time.Now}
}

// CheckAndRecord reads the caller's usage in the trailing window and, if
// below quota, appends a new execution record. A limit-reached decision never
// appends.
func (l *Limiter) CheckAndRecord(ctx context.Context, address string) (Decision, error) {
	now := l.now()

	count, err := l.log.CountSince(ctx, address, now.Add(-Window))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to read execution log: %w", err)
	}

	if count >= l.max {
		log.Info().Str("address", address).Int("count", count).Int("max", l.max).
			Msg("Demo execution limit reached")
		return Decision{Allowed: false, Count: count, Max: l.max}, nil
	}

	if err := l.log.Append(ctx, address, now); err != nil {
		return Decision{}, fmt.Errorf("failed to record execution: %w", err)
	}

	return Decision{Allowed: true, Count: count + 1, Max: l.max}, nil
}

// Usage returns the caller's current usage count without consuming a slot.
func (l *Limiter) Usage(ctx context.Context, address string) (int, error) {
	count, err := l.log.CountSince(ctx, address, l.now().Add(-Window))
	if err != nil {
		return 0, fmt.Errorf("failed to read execution log: %w", err)
	}
	return count, nil
}

// Max returns the configured quota.
func (l *Limiter) Max() int {
	return l.max
}
