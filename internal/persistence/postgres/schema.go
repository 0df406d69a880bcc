package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/rs/zerolog/log"

	"github.com/lisekarimi/prism/internal/persistence"
)

// Connect opens a PostgreSQL connection pool and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewRepository wires all PostgreSQL repositories against one pool.
func NewRepository(db *sqlx.DB, timeout time.Duration) *persistence.Repository {
	return &persistence.Repository{
		Positions:  NewPositionsRepo(db, timeout),
		Rates:      NewRatesRepo(db, timeout),
		Signals:    NewSignalsRepo(db, timeout),
		Executions: NewExecutionsRepo(db, timeout),
	}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS swap_positions (
		position_id   VARCHAR(20) PRIMARY KEY,
		trade_date    DATE NOT NULL,
		maturity_date DATE NOT NULL,
		notional      NUMERIC(15,2) NOT NULL CHECK (notional > 0),
		fixed_rate    NUMERIC(8,6) NOT NULL,
		float_index   VARCHAR(20) NOT NULL DEFAULT 'SOFR',
		pay_receive   VARCHAR(10) NOT NULL CHECK (pay_receive IN ('PAY_FIXED', 'RCV_FIXED')),
		currency      VARCHAR(3) NOT NULL DEFAULT 'USD',
		CHECK (maturity_date >= trade_date)
	)`,
	`CREATE TABLE IF NOT EXISTS market_rates (
		id        SERIAL PRIMARY KEY,
		tenor     VARCHAR(5) NOT NULL,
		currency  VARCHAR(3) NOT NULL DEFAULT 'USD',
		mid_rate  NUMERIC(8,6) NOT NULL,
		bid_rate  NUMERIC(8,6) NOT NULL,
		ask_rate  NUMERIC(8,6) NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_market_rates_tenor_ts ON market_rates (tenor, timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS trade_signals (
		signal_id          VARCHAR(36) PRIMARY KEY,
		position_id        VARCHAR(20) NOT NULL REFERENCES swap_positions (position_id),
		signal_type        VARCHAR(10) NOT NULL,
		current_pnl        NUMERIC(15,2) NOT NULL,
		reason             TEXT NOT NULL,
		recommended_action TEXT NOT NULL,
		timestamp          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		executed           BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS demo_executions (
		id         SERIAL PRIMARY KEY,
		ip_address VARCHAR(45) NOT NULL,
		last_run   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_demo_executions_ip_ts ON demo_executions (ip_address, last_run DESC)`,
}

// EnsureSchema creates the tables the monitor needs if they do not exist and
// seeds the demo position book on first run.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM swap_positions`); err != nil {
		return fmt.Errorf("failed to count positions: %w", err)
	}
	if count > 0 {
		return nil
	}

	log.Info().Msg("Seeding demo swap positions")
	seed := `
		INSERT INTO swap_positions (position_id, trade_date, maturity_date, notional, fixed_rate, float_index, pay_receive, currency)
		VALUES
			('POS001', '2024-01-15', '2029-01-15', 10000000, 0.0410, 'SOFR', 'RCV_FIXED', 'USD'),
			('POS002', '2024-03-20', '2034-03-20', 25000000, 0.0435, 'SOFR', 'PAY_FIXED', 'USD'),
			('POS003', '2024-06-10', '2026-06-10', 5000000, 0.0465, 'SOFR', 'RCV_FIXED', 'USD')`

	if _, err := db.ExecContext(ctx, seed); err != nil {
		return fmt.Errorf("failed to seed positions: %w", err)
	}

	return nil
}
