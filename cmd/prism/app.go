package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/lisekarimi/prism/internal/application"
	"github.com/lisekarimi/prism/internal/application/ratelimit"
	"github.com/lisekarimi/prism/internal/artifacts"
	"github.com/lisekarimi/prism/internal/cache"
	httpiface "github.com/lisekarimi/prism/internal/interfaces/http"
	"github.com/lisekarimi/prism/internal/orchestration"
	"github.com/lisekarimi/prism/internal/persistence"
	"github.com/lisekarimi/prism/internal/persistence/postgres"
	"github.com/lisekarimi/prism/internal/scheduler"
)

// app bundles the wired collaborators shared by the subcommands.
type app struct {
	cfg     *application.Config
	repo    *persistence.Repository
	limiter *ratelimit.Limiter
	sched   *scheduler.Scheduler
	fresh   *artifacts.Updater
	rates   *cache.RatesCache
	cleanup func()
}

// buildApp loads configuration and wires the database, cache, limiter, and
// scheduler.
func buildApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := application.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	db, err := postgres.Connect(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	repo := postgres.NewRepository(db, cfg.QueryTimeout())

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, serving rates from database only")
			rdb.Close()
			rdb = nil
		}
	}

	fresh := artifacts.NewUpdater(cfg.Logs.Dir, cfg.Logs.Artifacts)
	limiter := ratelimit.New(repo.Executions, cfg.Monitor.MaxRuns)
	runner := orchestration.NewClient(orchestration.ClientConfig{
		URL:         cfg.Orchestrator.URL,
		Timeout:     cfg.OrchestratorTimeout(),
		MinInterval: cfg.OrchestratorMinInterval(),
	})

	sched := scheduler.New(limiter, runner, fresh, scheduler.Config{
		Interval: cfg.MonitorInterval(),
		Tenors:   cfg.Monitor.Tenors,
		Currency: cfg.Monitor.Currency,
	})

	return &app{
		cfg:     cfg,
		repo:    repo,
		limiter: limiter,
		sched:   sched,
		fresh:   fresh,
		rates:   cache.NewRatesCache(rdb, repo.Rates, cfg.CacheTTL()),
		cleanup: func() {
			db.Close()
			if rdb != nil {
				rdb.Close()
			}
		},
	}, nil
}

func runServe(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.cleanup()

	srvCfg := httpiface.DefaultServerConfig()
	srvCfg.Host = a.cfg.HTTP.Host
	srvCfg.Port = a.cfg.HTTP.Port

	srv := httpiface.NewServer(srvCfg, &httpiface.Handlers{
		PositionsRepo: a.repo.Positions,
		RatesTier:     a.rates,
		RatesRepo:     a.repo.Rates,
		RatesCache:    a.rates,
		SignalsRepo:   a.repo.Signals,
		Scheduler:     a.sched,
		Quota:         a.limiter,
		Logs:          a.fresh,
		Volatility:    a.cfg.Thresholds.Volatility,
	})
	a.sched.OnCycle(func(r scheduler.RunResult) { srv.Hub().Broadcast(r) })

	err = srv.ListenAndServe(ctx)
	a.sched.StopContinuous()
	a.sched.Wait()
	return err
}

func runMonitor(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.cleanup()

	log.Info().Msg(a.sched.StartContinuous())
	<-ctx.Done()
	log.Info().Msg(a.sched.StopContinuous())
	a.sched.Wait()
	return nil
}

func runCycle(configPath, caller string) error {
	ctx := context.Background()

	a, err := buildApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.cleanup()

	result, err := a.sched.RunOnce(ctx, caller)
	if err != nil {
		return err
	}

	fmt.Println(result.Output)
	fmt.Printf("Usage: %d/%d\n", result.UsageCount, result.MaxRuns)
	return nil
}

func runHealth(configPath string) error {
	ctx := context.Background()

	cfg, err := application.LoadConfig(configPath)
	if err != nil {
		return err
	}

	db, err := postgres.Connect(ctx, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("database: ok")
	return nil
}
