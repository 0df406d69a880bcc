package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lisekarimi/prism/internal/persistence"
)

// executionsRepo implements ExecutionsRepo for PostgreSQL. The demo_executions
// table is append-only; rows are only ever counted, never updated.
type executionsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewExecutionsRepo creates a PostgreSQL execution log repository.
func NewExecutionsRepo(db *sqlx.DB, timeout time.Duration) persistence.ExecutionsRepo {
	return &executionsRepo{db: db, timeout: timeout}
}

func (r *executionsRepo) CountSince(ctx context.Context, address string, since time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT COUNT(*)
		FROM demo_executions
		WHERE ip_address = $1 AND last_run > $2`

	var count int
	if err := r.db.GetContext(ctx, &count, query, address, since); err != nil {
		return 0, fmt.Errorf("failed to count executions for %s: %w", address, err)
	}

	return count, nil
}

func (r *executionsRepo) Append(ctx context.Context, address string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO demo_executions (ip_address, last_run)
		VALUES ($1, $2)`

	if _, err := r.db.ExecContext(ctx, query, address, at); err != nil {
		return fmt.Errorf("failed to append execution for %s: %w", address, err)
	}

	return nil
}
