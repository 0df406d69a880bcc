package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lisekarimi/prism/internal/domain"
)

// stubRatesRepo serves canned rates and counts hits.
type stubRatesRepo struct {
	rates []domain.MarketRate
	err   error
	hits  int
}

func (s *stubRatesRepo) Insert(context.Context, domain.MarketRate) error { return nil }

func (s *stubRatesRepo) Latest(context.Context) ([]domain.MarketRate, error) {
	s.hits++
	return s.rates, s.err
}

func (s *stubRatesRepo) Previous(context.Context) ([]domain.MarketRate, error) {
	return nil, nil
}

func sampleRates() []domain.MarketRate {
	return []domain.MarketRate{
		{Tenor: "2Y", Currency: "USD", MidRate: 0.0450, BidRate: 0.0449, AskRate: 0.0451,
			Timestamp: time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)},
		{Tenor: "5Y", Currency: "USD", MidRate: 0.0435, BidRate: 0.0434, AskRate: 0.0436,
			Timestamp: time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)},
	}
}

func TestRatesCache_Hit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	repo := &stubRatesRepo{}

	cached, err := json.Marshal(sampleRates())
	require.NoError(t, err)
	mock.ExpectGet("prism:rates:latest").SetVal(string(cached))

	c := NewRatesCache(rdb, repo, 10*time.Second)
	rates, err := c.Latest(context.Background())
	require.NoError(t, err)

	assert.Len(t, rates, 2)
	assert.Equal(t, 0, repo.hits, "cache hit must not touch the database")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatesCache_MissFillsCache(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	repo := &stubRatesRepo{rates: sampleRates()}

	expected, err := json.Marshal(sampleRates())
	require.NoError(t, err)

	mock.ExpectGet("prism:rates:latest").RedisNil()
	mock.ExpectSet("prism:rates:latest", expected, 10*time.Second).SetVal("OK")

	c := NewRatesCache(rdb, repo, 10*time.Second)
	rates, err := c.Latest(context.Background())
	require.NoError(t, err)

	assert.Len(t, rates, 2)
	assert.Equal(t, 1, repo.hits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatesCache_RedisErrorFallsBack(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	repo := &stubRatesRepo{rates: sampleRates()}

	mock.ExpectGet("prism:rates:latest").SetErr(assert.AnError)

	c := NewRatesCache(rdb, repo, 10*time.Second)
	rates, err := c.Latest(context.Background())
	require.NoError(t, err)

	assert.Len(t, rates, 2)
	assert.Equal(t, 1, repo.hits)
}

func TestRatesCache_NilClientPassesThrough(t *testing.T) {
	repo := &stubRatesRepo{rates: sampleRates()}

	c := NewRatesCache(nil, repo, 10*time.Second)
	rates, err := c.Latest(context.Background())
	require.NoError(t, err)

	assert.Len(t, rates, 2)
	assert.Equal(t, 1, repo.hits)
}

func TestRatesCache_Invalidate(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectDel("prism:rates:latest").SetVal(1)

	c := NewRatesCache(rdb, &stubRatesRepo{}, 10*time.Second)
	c.Invalidate(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}
