// Package scheduler runs rate-limited evaluation cycles on demand and an
// optional continuous background loop.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lisekarimi/prism/internal/application/ratelimit"
	"github.com/lisekarimi/prism/internal/artifacts"
	"github.com/lisekarimi/prism/internal/metrics"
	"github.com/lisekarimi/prism/internal/orchestration"
)

// DefaultInterval is the pause between continuous-mode cycles.
const DefaultInterval = 60 * time.Second

// CycleExecutionError wraps an orchestration failure surfaced by RunOnce. The
// quota slot consumed for the attempt is not refunded.
type CycleExecutionError struct {
	Cause error
}

func (e *CycleExecutionError) Error() string {
	return fmt.Sprintf("cycle execution failed: %v", e.Cause)
}

func (e *CycleExecutionError) Unwrap() error {
	return e.Cause
}

// QuotaChecker is the rate-limit decision the scheduler consults before a
// foreground cycle.
type QuotaChecker interface {
	CheckAndRecord(ctx context.Context, address string) (ratelimit.Decision, error)
}

// RunResult is the outcome of one RunOnce invocation.
type RunResult struct {
	// Output is the orchestration narrative, empty when the quota blocked
	// the run.
	Output string `json:"output"`
	// UsageCount is the caller's usage after this request.
	UsageCount int `json:"usage_count"`
	// MaxRuns is the configured quota.
	MaxRuns int `json:"max_runs"`
	// Allowed reports whether a cycle actually ran.
	Allowed bool `json:"allowed"`
}

// Config holds the scheduler's cycle parameters.
type Config struct {
	Interval time.Duration
	Tenors   []string
	Currency string
}

// Scheduler owns the process-wide monitoring state: at most one background
// loop, started and stopped under an internal mutex, plus the synchronous
// RunOnce path. A shared single-flight mutex keeps foreground and background
// cycles from ever overlapping.
type Scheduler struct {
	limiter QuotaChecker
	runner  orchestration.Runner
	fresh   *artifacts.Updater
	cfg     Config

	// flight serializes cycle execution across both call paths.
	flight sync.Mutex

	mu      sync.Mutex // guards running, stop, done
	running bool
	stop    chan struct{}
	done    chan struct{}

	// onCycle, when set, is invoked after every successful cycle.
	onCycle func(RunResult)

	now func() time.Time
}

// New creates a scheduler in the stopped state.
func New(limiter QuotaChecker, runner orchestration.Runner, fresh *artifacts.Updater, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Scheduler{
		limiter: limiter,
		runner:  runner,
		fresh:   fresh,
		cfg:     cfg,
		now:     time.Now,
	}
}

// OnCycle registers a callback fired after each successful cycle. Must be set
// before the scheduler is started.
func (s *Scheduler) OnCycle(fn func(RunResult)) {
	s.onCycle = fn
}

// Running reports whether the continuous loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunOnce executes one rate-limited evaluation cycle for the caller address.
// It is independent of the continuous loop's state. A quota-blocked request
// returns a RunResult with Allowed=false and no error; an orchestration
// failure returns a CycleExecutionError with the quota slot already consumed.
func (s *Scheduler) RunOnce(ctx context.Context, callerAddress string) (*RunResult, error) {
	decision, err := s.limiter.CheckAndRecord(ctx, callerAddress)
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	if !decision.Allowed {
		metrics.LimitRejections.Inc()
		return &RunResult{
			Output: fmt.Sprintf("Demo limit reached: %d executions per 24 hours. Try again tomorrow!",
				decision.Max),
			UsageCount: decision.Count,
			MaxRuns:    decision.Max,
			Allowed:    false,
		}, nil
	}

	output, err := s.runCycle(ctx, 1)
	if err != nil {
		// Fail closed: the slot recorded above still counts.
		return nil, &CycleExecutionError{Cause: err}
	}

	result := RunResult{
		Output:     output,
		UsageCount: decision.Count,
		MaxRuns:    decision.Max,
		Allowed:    true,
	}
	if s.onCycle != nil {
		s.onCycle(result)
	}
	return &result, nil
}

// StartContinuous launches the background monitoring loop. A no-op when the
// loop is already running.
func (s *Scheduler) StartContinuous() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return "Monitoring already running"
	}

	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	metrics.MonitorRunning.Set(1)

	go s.loop(s.stop, s.done)

	log.Info().Dur("interval", s.cfg.Interval).Msg("Started continuous monitoring")
	return fmt.Sprintf("Started continuous monitoring (%s intervals)", s.cfg.Interval)
}

// StopContinuous requests the background loop to stop. The stop is
// cooperative: an in-flight cycle finishes, and the loop exits at the next
// check.
func (s *Scheduler) StopContinuous() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return "Monitoring not running"
	}

	close(s.stop)
	s.running = false
	metrics.MonitorRunning.Set(0)

	log.Info().Msg("Stopped continuous monitoring")
	return "Stopped continuous monitoring"
}

// Wait blocks until the background loop has exited. Returns immediately when
// the loop was never started.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// loop runs cycles back to back with a fixed sleep until stopped. The stop
// signal is observed at the top of each iteration and during the sleep, never
// mid-cycle.
func (s *Scheduler) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	cycle := 1
	for {
		select {
		case <-stop:
			return
		default:
		}

		log.Info().Int("cycle", cycle).Msg("Running monitoring cycle")
		output, err := s.runCycle(context.Background(), cycle)
		if err != nil {
			// Per-iteration failures never terminate the loop.
			log.Error().Err(err).Int("cycle", cycle).Msg("Monitoring cycle failed")
		} else {
			if s.onCycle != nil {
				// Background cycles are not quota-charged, so there is no
				// usage figure to report.
				s.onCycle(RunResult{Output: output, Allowed: true})
			}
			cycle++
		}

		select {
		case <-stop:
			return
		case <-time.After(s.cfg.Interval):
		}
	}
}

// runCycle invokes the orchestration call under the single-flight mutex and
// stamps log freshness afterwards.
func (s *Scheduler) runCycle(ctx context.Context, cycle int) (string, error) {
	s.flight.Lock()
	defer s.flight.Unlock()

	start := s.now()
	output, err := s.runner.Run(ctx, orchestration.CycleInputs{
		Cycle:    cycle,
		Tenors:   s.cfg.Tenors,
		Currency: s.cfg.Currency,
	})
	metrics.CycleDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.CyclesTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.CyclesTotal.WithLabelValues("success").Inc()

	if s.fresh != nil {
		s.fresh.Touch(s.now())
	}

	return fmt.Sprintf("Cycle completed at %s\n%s", s.now().Format("15:04:05"), output), nil
}
