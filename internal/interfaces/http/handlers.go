package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/lisekarimi/prism/internal/artifacts"
	"github.com/lisekarimi/prism/internal/domain"
	"github.com/lisekarimi/prism/internal/persistence"
	"github.com/lisekarimi/prism/internal/scheduler"
)

const defaultSignalLimit = 10

// RatesSource serves the latest and previous rate observations, typically the
// Redis cache in front of the rates repository.
type RatesSource interface {
	Latest(ctx context.Context) ([]domain.MarketRate, error)
}

// CycleRunner is the scheduler surface the handlers need.
type CycleRunner interface {
	RunOnce(ctx context.Context, callerAddress string) (*scheduler.RunResult, error)
	StartContinuous() string
	StopContinuous() string
	Running() bool
}

// UsageReader reports per-caller quota consumption.
type UsageReader interface {
	Usage(ctx context.Context, address string) (int, error)
	Max() int
}

// CacheInvalidator drops stale cache entries after rate ingestion.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// Handlers bundles the collaborators behind the HTTP surface.
type Handlers struct {
	PositionsRepo persistence.PositionsRepo
	RatesTier     RatesSource
	RatesRepo     persistence.RatesRepo
	RatesCache    CacheInvalidator
	SignalsRepo   persistence.SignalsRepo
	Scheduler     CycleRunner
	Quota         UsageReader
	Logs          *artifacts.Updater
	// Volatility is the default volatility assumption for threshold
	// derivation when a request supplies none.
	Volatility float64
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Positions returns the full position book.
func (h *Handlers) Positions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.PositionsRepo.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

// rateRow is a MarketRate decorated with its trend versus the previous
// observation: "up", "down", "flat", or "" when no history exists.
type rateRow struct {
	domain.MarketRate
	Trend string `json:"trend"`
}

// Rates returns the latest rate per tenor with trend indicators.
func (h *Handlers) Rates(w http.ResponseWriter, r *http.Request) {
	latest, err := h.RatesTier.Latest(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	previous := map[string]float64{}
	if h.RatesRepo != nil {
		if prev, err := h.RatesRepo.Previous(r.Context()); err == nil {
			for _, p := range prev {
				previous[p.Tenor] = p.MidRate
			}
		} else {
			log.Warn().Err(err).Msg("Failed to load previous rates for trends")
		}
	}

	rows := make([]rateRow, 0, len(latest))
	for _, rate := range latest {
		row := rateRow{MarketRate: rate}
		if prev, ok := previous[rate.Tenor]; ok {
			switch {
			case rate.MidRate > prev:
				row.Trend = "up"
			case rate.MidRate < prev:
				row.Trend = "down"
			default:
				row.Trend = "flat"
			}
		}
		rows = append(rows, row)
	}

	writeJSON(w, http.StatusOK, rows)
}

// Signals returns the most recent trade signals.
func (h *Handlers) Signals(w http.ResponseWriter, r *http.Request) {
	limit := defaultSignalLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	signals, err := h.SignalsRepo.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, signals)
}

// Usage reports the caller's quota consumption, mirroring the dashboard's
// run-button label.
func (h *Handlers) Usage(w http.ResponseWriter, r *http.Request) {
	count, err := h.Quota.Usage(r.Context(), callerAddress(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"used": count, "max": h.Quota.Max()})
}

// Log serves one named agent log artifact.
func (h *Handlers) Log(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	content, err := h.Logs.Read(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name, "content": content})
}

// Run triggers one rate-limited evaluation cycle for the caller. The request
// blocks until the orchestration call returns.
func (h *Handlers) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.Scheduler.RunOnce(r.Context(), callerAddress(r))
	if err != nil {
		var cerr *scheduler.CycleExecutionError
		if errors.As(err, &cerr) {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	status := http.StatusOK
	if !result.Allowed {
		status = http.StatusTooManyRequests
	}
	writeJSON(w, status, result)
}

// SchedulerStart enables continuous monitoring.
func (h *Handlers) SchedulerStart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": h.Scheduler.StartContinuous(),
		"running": h.Scheduler.Running(),
	})
}

// SchedulerStop disables continuous monitoring.
func (h *Handlers) SchedulerStop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": h.Scheduler.StopContinuous(),
		"running": h.Scheduler.Running(),
	})
}

// SchedulerStatus reports whether the continuous loop is active.
func (h *Handlers) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"running": h.Scheduler.Running()})
}

// evaluateRequest asks for a mark-to-market evaluation. With a position_id it
// evaluates the stored position; without one, the what-if fields describe an
// ad-hoc position instead. Rates are decimal fractions (0.0340 means 3.40%),
// arriving as strings so a trailing percent sign is tolerated.
type evaluateRequest struct {
	PositionID  string  `json:"position_id,omitempty"`
	CurrentRate string  `json:"current_rate"`
	Volatility  float64 `json:"volatility,omitempty"`

	// What-if fields, used only when position_id is absent.
	MaturityDate string  `json:"maturity_date,omitempty"`
	Notional     float64 `json:"notional,omitempty"`
	FixedRate    string  `json:"fixed_rate,omitempty"`
	PayReceive   string  `json:"pay_receive,omitempty"`
}

// whatIfPosition builds an ad-hoc position from the request's what-if fields.
func whatIfPosition(req evaluateRequest) (*domain.Position, error) {
	maturity, err := domain.ParseMaturity(req.MaturityDate)
	if err != nil {
		return nil, err
	}
	fixed, err := domain.ParseRate(req.FixedRate)
	if err != nil {
		return nil, err
	}
	return &domain.Position{
		PositionID:   "WHATIF",
		MaturityDate: maturity,
		Notional:     req.Notional,
		FixedRate:    fixed,
		PayReceive:   domain.Direction(req.PayReceive),
		Currency:     "USD",
	}, nil
}

// evaluateResponse carries the P&L, derived thresholds, and the resulting
// signal for one position.
type evaluateResponse struct {
	PnL        domain.PnLResult    `json:"pnl"`
	Thresholds domain.ThresholdSet `json:"thresholds"`
	Signal     domain.Signal       `json:"signal"`
}

// Evaluate marks one position to market against a caller-supplied rate and
// classifies the result. Pure calculation: nothing is persisted.
func (h *Handlers) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	currentRate, err := domain.ParseRate(req.CurrentRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var position *domain.Position
	if req.PositionID != "" {
		position, err = h.PositionsRepo.Get(r.Context(), req.PositionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if position == nil {
			writeError(w, http.StatusNotFound, fmt.Errorf("position not found: %s", req.PositionID))
			return
		}
	} else {
		position, err = whatIfPosition(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	volatility := req.Volatility
	if volatility == 0 {
		volatility = h.Volatility
	}

	pnl, err := domain.CalculatePnL(*position, currentRate, time.Now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	thresholds, err := domain.CalculateThresholds(*position, volatility)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	writeJSON(w, http.StatusOK, evaluateResponse{
		PnL:        pnl,
		Thresholds: thresholds,
		Signal:     domain.EvaluateSignal(pnl.PnL, thresholds.ProfitTarget, thresholds.StopLoss),
	})
}

// PortfolioDV01 reports the signed DV01 across the whole book.
func (h *Handlers) PortfolioDV01(w http.ResponseWriter, r *http.Request) {
	positions, err := h.PositionsRepo.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{
		"total_dv01": domain.PortfolioDV01(positions, time.Now()),
	})
}

// rateIngestRequest is one observation from a rate feed. Rates are decimal
// fractions in the same units as the position book (0.0435 means 4.35%); a
// trailing percent sign is stripped, never converted.
type rateIngestRequest struct {
	Tenor    string `json:"tenor"`
	Currency string `json:"currency"`
	MidRate  string `json:"mid_rate"`
	BidRate  string `json:"bid_rate,omitempty"`
	AskRate  string `json:"ask_rate,omitempty"`
}

// IngestRate stores one market rate observation and invalidates the cache.
func (h *Handlers) IngestRate(w http.ResponseWriter, r *http.Request) {
	var req rateIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Tenor == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("tenor is required"))
		return
	}

	rate := domain.MarketRate{Tenor: req.Tenor, Currency: req.Currency, Timestamp: time.Now()}
	if rate.Currency == "" {
		rate.Currency = "USD"
	}

	var err error
	if rate.MidRate, err = domain.ParseRate(req.MidRate); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.BidRate != "" {
		if rate.BidRate, err = domain.ParseRate(req.BidRate); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if req.AskRate != "" {
		if rate.AskRate, err = domain.ParseRate(req.AskRate); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	if err := h.RatesRepo.Insert(r.Context(), rate); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if h.RatesCache != nil {
		h.RatesCache.Invalidate(r.Context())
	}

	writeJSON(w, http.StatusCreated, rate)
}

// callerAddress identifies the caller for rate limiting: the first
// X-Forwarded-For hop when present, else the connection's remote host.
func callerAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(xff)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
