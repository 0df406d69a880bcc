package orchestration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ClientConfig controls the HTTP orchestration client.
type ClientConfig struct {
	URL     string
	Timeout time.Duration
	// MinInterval paces cycle submissions to cap upstream LLM spend. Zero
	// disables pacing.
	MinInterval time.Duration
}

// Client invokes the orchestration service over HTTP, guarded by a circuit
// breaker so a flapping upstream fails fast instead of blocking every cycle.
type Client struct {
	url     string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	pace    *rate.Limiter
}

// NewClient creates an orchestration client for the given endpoint.
func NewClient(cfg ClientConfig) *Client {
	settings := gobreaker.Settings{
		Name:        "orchestrator",
		MaxRequests: 1,
		Interval:    2 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("Orchestrator circuit state change")
		},
	}

	pace := rate.NewLimiter(rate.Inf, 1)
	if cfg.MinInterval > 0 {
		pace = rate.NewLimiter(rate.Every(cfg.MinInterval), 1)
	}

	return &Client{
		url:     cfg.URL,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		pace:    pace,
	}
}

type runResponse struct {
	Output string `json:"output"`
	Status string `json:"status"`
}

// Run submits one cycle to the orchestration service and returns its
// narrative output.
func (c *Client) Run(ctx context.Context, inputs CycleInputs) (string, error) {
	if err := c.pace.Wait(ctx); err != nil {
		return "", fmt.Errorf("orchestrator pacing aborted: %w", err)
	}

	body, err := json.Marshal(inputs)
	if err != nil {
		return "", fmt.Errorf("failed to encode cycle inputs: %w", err)
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("orchestrator request failed: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read orchestrator response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("orchestrator returned %d: %s", resp.StatusCode, raw)
		}

		var parsed runResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			// Plain-text narrative is accepted as-is.
			return string(raw), nil
		}
		if parsed.Status != "" && parsed.Status != "ok" {
			return nil, fmt.Errorf("orchestrator reported status %q", parsed.Status)
		}
		return parsed.Output, nil
	})
	if err != nil {
		return "", err
	}

	log.Info().Int("cycle", inputs.Cycle).Dur("duration", time.Since(start)).
		Msg("Orchestration cycle completed")

	return result.(string), nil
}
