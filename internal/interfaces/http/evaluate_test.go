package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lisekarimi/prism/internal/domain"
)

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) Invalidate(context.Context) { f.calls++ }

func postJSON(t *testing.T, srv *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.RemoteAddr = "9.9.9.9:51234"
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func evaluateFixture() *fakePositions {
	return &fakePositions{positions: []domain.Position{{
		PositionID:   "POS001",
		TradeDate:    time.Now().AddDate(-1, 0, 0),
		MaturityDate: time.Now().AddDate(5, 0, 0),
		Notional:     10_000_000,
		FixedRate:    0.0410,
		PayReceive:   domain.RcvFixed,
		Currency:     "USD",
	}}}
}

func TestEvaluateEndpoint(t *testing.T) {
	srv := newTestServer(t, &Handlers{
		PositionsRepo: evaluateFixture(),
		Scheduler:     &fakeScheduler{},
		Volatility:    0.02,
	})

	rec := postJSON(t, srv, "/api/evaluate", `{"position_id":"POS001","current_rate":"0.0340"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		PnL        domain.PnLResult    `json:"pnl"`
		Thresholds domain.ThresholdSet `json:"thresholds"`
		Signal     domain.Signal       `json:"signal"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	// A 10M receiver 70bp in the money is far past its 60k profit target.
	assert.Equal(t, "POS001", got.PnL.PositionID)
	assert.InDelta(t, -70.0, got.PnL.RateChangeBps, 0.5)
	assert.Greater(t, got.PnL.PnL, 0.0)
	assert.Equal(t, domain.SignalClose, got.Signal.Type)
	assert.Contains(t, got.Signal.Reason, "Profit target hit")
	assert.InDelta(t, 60_000, got.Thresholds.ProfitTarget, 0.01)
	assert.InDelta(t, -30_000, got.Thresholds.StopLoss, 0.01)
}

func TestEvaluateEndpoint_WhatIf(t *testing.T) {
	srv := newTestServer(t, &Handlers{PositionsRepo: &fakePositions{}, Scheduler: &fakeScheduler{}, Volatility: 0.02})

	maturity := time.Now().AddDate(5, 0, 0).Format("2006-01-02")
	body := `{"current_rate":"0.0340","maturity_date":"` + maturity +
		`","notional":10000000,"fixed_rate":"0.0410","pay_receive":"RCV_FIXED"}`

	rec := postJSON(t, srv, "/api/evaluate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		PnL    domain.PnLResult `json:"pnl"`
		Signal domain.Signal    `json:"signal"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "WHATIF", got.PnL.PositionID)
	assert.InDelta(t, -70.0, got.PnL.RateChangeBps, 0.5)
	assert.Greater(t, got.PnL.PnL, 0.0)
}

func TestEvaluateEndpoint_WhatIfBadDate(t *testing.T) {
	srv := newTestServer(t, &Handlers{PositionsRepo: &fakePositions{}, Scheduler: &fakeScheduler{}})

	body := `{"current_rate":"0.0340","maturity_date":"15/01/2029","notional":10000000,"fixed_rate":"0.0410","pay_receive":"RCV_FIXED"}`
	rec := postJSON(t, srv, "/api/evaluate", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvaluateEndpoint_WhatIfBadDirection(t *testing.T) {
	srv := newTestServer(t, &Handlers{PositionsRepo: &fakePositions{}, Scheduler: &fakeScheduler{}})

	maturity := time.Now().AddDate(5, 0, 0).Format("2006-01-02")
	body := `{"current_rate":"0.0340","maturity_date":"` + maturity +
		`","notional":10000000,"fixed_rate":"0.0410","pay_receive":"SIDEWAYS"}`
	rec := postJSON(t, srv, "/api/evaluate", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestEvaluateEndpoint_UnknownPosition(t *testing.T) {
	srv := newTestServer(t, &Handlers{PositionsRepo: evaluateFixture(), Scheduler: &fakeScheduler{}})

	rec := postJSON(t, srv, "/api/evaluate", `{"position_id":"POS999","current_rate":"0.0340"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvaluateEndpoint_BadRate(t *testing.T) {
	srv := newTestServer(t, &Handlers{PositionsRepo: evaluateFixture(), Scheduler: &fakeScheduler{}})

	rec := postJSON(t, srv, "/api/evaluate", `{"position_id":"POS001","current_rate":"banana"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPortfolioDV01Endpoint(t *testing.T) {
	srv := newTestServer(t, &Handlers{PositionsRepo: evaluateFixture(), Scheduler: &fakeScheduler{}})

	rec := doRequest(t, srv, http.MethodGet, "/api/portfolio/dv01", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	// One 10M receiver five years out: roughly -5000 of signed DV01.
	assert.Less(t, got["total_dv01"], 0.0)
}

func TestIngestRateEndpoint(t *testing.T) {
	rates := &fakeRates{}
	inval := &fakeInvalidator{}
	srv := newTestServer(t, &Handlers{RatesRepo: rates, RatesCache: inval, Scheduler: &fakeScheduler{}})

	rec := postJSON(t, srv, "/api/rates", `{"tenor":"5Y","mid_rate":"0.0435%","bid_rate":"0.0434","ask_rate":"0.0436"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got domain.MarketRate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "5Y", got.Tenor)
	assert.Equal(t, "USD", got.Currency)
	// The percent sign is stripped, never converted.
	assert.Equal(t, 0.0435, got.MidRate)
	assert.Equal(t, 1, inval.calls)
}

func TestIngestRateEndpoint_Validation(t *testing.T) {
	srv := newTestServer(t, &Handlers{RatesRepo: &fakeRates{}, Scheduler: &fakeScheduler{}})

	rec := postJSON(t, srv, "/api/rates", `{"mid_rate":"0.0435"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, srv, "/api/rates", `{"tenor":"5Y","mid_rate":"oops"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
