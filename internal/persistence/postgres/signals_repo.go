package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lisekarimi/prism/internal/domain"
	"github.com/lisekarimi/prism/internal/persistence"
)

// signalsRepo implements SignalsRepo for PostgreSQL.
type signalsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewSignalsRepo creates a PostgreSQL trade signals repository.
func NewSignalsRepo(db *sqlx.DB, timeout time.Duration) persistence.SignalsRepo {
	return &signalsRepo{db: db, timeout: timeout}
}

func (r *signalsRepo) Insert(ctx context.Context, signal domain.TradeSignal) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if signal.SignalID == "" {
		signal.SignalID = uuid.New().String()
	}
	if signal.Timestamp.IsZero() {
		signal.Timestamp = time.Now()
	}

	query := `
		INSERT INTO trade_signals (signal_id, position_id, signal_type, current_pnl, reason, recommended_action, timestamp, executed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		signal.SignalID, signal.PositionID, signal.SignalType, signal.CurrentPnL,
		signal.Reason, signal.RecommendedAction, signal.Timestamp, signal.Executed)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("duplicate signal %s: %w", signal.SignalID, err)
		}
		return fmt.Errorf("failed to insert signal: %w", err)
	}

	return nil
}

func (r *signalsRepo) Recent(ctx context.Context, limit int) ([]domain.TradeSignal, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT signal_id, position_id, signal_type, current_pnl, reason, recommended_action, timestamp, executed
		FROM trade_signals
		ORDER BY timestamp DESC
		LIMIT $1`

	var signals []domain.TradeSignal
	if err := r.db.SelectContext(ctx, &signals, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query recent signals: %w", err)
	}

	return signals, nil
}
