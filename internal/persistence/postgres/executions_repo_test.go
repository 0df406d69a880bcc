package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestExecutionsRepo_CountSince(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExecutionsRepo(db, 5*time.Second)

	since := time.Now().Add(-24 * time.Hour)
	mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM demo_executions`).
		WithArgs("1.2.3.4", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountSince(context.Background(), "1.2.3.4", since)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutionsRepo_Append(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExecutionsRepo(db, 5*time.Second)

	at := time.Now()
	mock.ExpectExec(`INSERT INTO demo_executions`).
		WithArgs("1.2.3.4", at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Append(context.Background(), "1.2.3.4", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutionsRepo_CountSince_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExecutionsRepo(db, 5*time.Second)

	mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM demo_executions`).
		WillReturnError(assert.AnError)

	_, err := repo.CountSince(context.Background(), "1.2.3.4", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to count executions")
}
