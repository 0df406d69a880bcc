package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lisekarimi/prism/internal/domain"
	"github.com/lisekarimi/prism/internal/persistence"
)

// ratesRepo implements RatesRepo for PostgreSQL.
type ratesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewRatesRepo creates a PostgreSQL market rates repository.
func NewRatesRepo(db *sqlx.DB, timeout time.Duration) persistence.RatesRepo {
	return &ratesRepo{db: db, timeout: timeout}
}

// withDefaults fills in bid/ask (2bp spread around mid) and timestamp when
// the feed omits them.
func withDefaults(rate domain.MarketRate, now time.Time) domain.MarketRate {
	if rate.BidRate == 0 && rate.MidRate != 0 {
		rate.BidRate = rate.MidRate - 0.0001
	}
	if rate.AskRate == 0 && rate.MidRate != 0 {
		rate.AskRate = rate.MidRate + 0.0001
	}
	if rate.Timestamp.IsZero() {
		rate.Timestamp = now
	}
	return rate
}

func (r *ratesRepo) Insert(ctx context.Context, rate domain.MarketRate) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rate = withDefaults(rate, time.Now())

	query := `
		INSERT INTO market_rates (tenor, currency, mid_rate, bid_rate, ask_rate, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.db.ExecContext(ctx, query,
		rate.Tenor, rate.Currency, rate.MidRate, rate.BidRate, rate.AskRate, rate.Timestamp); err != nil {
		return fmt.Errorf("failed to insert market rate: %w", err)
	}

	return nil
}

func (r *ratesRepo) Latest(ctx context.Context) ([]domain.MarketRate, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT DISTINCT ON (tenor) tenor, currency, mid_rate, bid_rate, ask_rate, timestamp
		FROM market_rates
		ORDER BY tenor, timestamp DESC`

	var rates []domain.MarketRate
	if err := r.db.SelectContext(ctx, &rates, query); err != nil {
		return nil, fmt.Errorf("failed to query latest rates: %w", err)
	}

	return rates, nil
}

func (r *ratesRepo) Previous(ctx context.Context) ([]domain.MarketRate, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT DISTINCT ON (tenor) tenor, currency, mid_rate, bid_rate, ask_rate, timestamp
		FROM market_rates
		WHERE timestamp < (SELECT MAX(timestamp) FROM market_rates)
		ORDER BY tenor, timestamp DESC`

	var rates []domain.MarketRate
	if err := r.db.SelectContext(ctx, &rates, query); err != nil {
		return nil, fmt.Errorf("failed to query previous rates: %w", err)
	}

	return rates, nil
}
