package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lisekarimi/prism/internal/domain"
	"github.com/lisekarimi/prism/internal/persistence"
)

// positionsRepo implements PositionsRepo for PostgreSQL.
type positionsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPositionsRepo creates a PostgreSQL positions repository.
func NewPositionsRepo(db *sqlx.DB, timeout time.Duration) persistence.PositionsRepo {
	return &positionsRepo{db: db, timeout: timeout}
}

func (r *positionsRepo) List(ctx context.Context) ([]domain.Position, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT position_id, trade_date, maturity_date, notional, fixed_rate, float_index, pay_receive, currency
		FROM swap_positions
		ORDER BY trade_date DESC`

	var positions []domain.Position
	if err := r.db.SelectContext(ctx, &positions, query); err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}

	return positions, nil
}

func (r *positionsRepo) Get(ctx context.Context, positionID string) (*domain.Position, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT position_id, trade_date, maturity_date, notional, fixed_rate, float_index, pay_receive, currency
		FROM swap_positions
		WHERE position_id = $1`

	var position domain.Position
	err := r.db.GetContext(ctx, &position, query, positionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get position %s: %w", positionID, err)
	}

	return &position, nil
}
