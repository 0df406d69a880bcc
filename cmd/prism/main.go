package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "prism"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	var configPath string

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "PRISM - swap position risk monitor",
		Version: version,
		Long: `PRISM monitors interest-rate swap positions and emits close/hold signals
by comparing mark-to-market P&L against size- and volatility-adjusted
thresholds. Evaluation cycles are narrated by an external multi-agent
orchestration service and rate limited per caller.`,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/prism.yaml", "Path to YAML configuration")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard HTTP server",
		Long:  "Serves the positions/rates/signals read surface, the rate-limited run trigger, scheduler control, and /metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the continuous monitoring loop in the foreground",
		Long:  "Starts the background evaluation loop (60s intervals by default) and blocks until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(configPath)
		},
	}

	cycleCmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run a single evaluation cycle",
		Long:  "Triggers one rate-limited evaluation cycle and prints the orchestration narrative",
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, _ := cmd.Flags().GetString("caller")
			return runCycle(configPath, caller)
		},
	}
	cycleCmd.Flags().String("caller", "cli", "Caller address charged against the execution quota")

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(configPath)
		},
	}

	rootCmd.AddCommand(serveCmd, monitorCmd, cycleCmd, healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
