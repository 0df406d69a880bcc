package persistence

import (
	"context"
	"time"

	"github.com/lisekarimi/prism/internal/domain"
)

// PositionsRepo provides read access to the swap position book. Positions are
// created outside the risk engine; the core never mutates them.
type PositionsRepo interface {
	// List returns all positions ordered by trade date, newest first.
	List(ctx context.Context) ([]domain.Position, error)

	// Get returns a single position by identifier, nil when absent.
	Get(ctx context.Context, positionID string) (*domain.Position, error)
}

// RatesRepo persists market rate observations per tenor.
type RatesRepo interface {
	// Insert appends one rate observation.
	Insert(ctx context.Context, rate domain.MarketRate) error

	// Latest returns the most recent observation per tenor.
	Latest(ctx context.Context) ([]domain.MarketRate, error)

	// Previous returns the observation per tenor preceding the latest batch,
	// used for trend indicators.
	Previous(ctx context.Context) ([]domain.MarketRate, error)
}

// SignalsRepo persists trade signals emitted by the decision agents.
type SignalsRepo interface {
	// Insert appends one signal row.
	Insert(ctx context.Context, signal domain.TradeSignal) error

	// Recent returns the most recent signals, newest first.
	Recent(ctx context.Context, limit int) ([]domain.TradeSignal, error)
}

// ExecutionsRepo is the append-only execution log behind the demo rate
// limiter. Records are never mutated or deleted.
type ExecutionsRepo interface {
	// CountSince counts executions for a caller address on or after the cutoff.
	CountSince(ctx context.Context, address string, since time.Time) (int, error)

	// Append records one execution for the address at the given time.
	Append(ctx context.Context, address string, at time.Time) error
}

// Repository aggregates all persistence interfaces.
type Repository struct {
	Positions  PositionsRepo
	Rates      RatesRepo
	Signals    SignalsRepo
	Executions ExecutionsRepo
}
