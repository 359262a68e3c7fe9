package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pthm-cable/afterimage/config"
	"github.com/pthm-cable/afterimage/game"
	"github.com/pthm-cable/afterimage/storage"
	"github.com/pthm-cable/afterimage/storage/factory"
	"github.com/pthm-cable/afterimage/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for JSON run snapshots")
	inputPath := flag.String("input", "", "YAML input script (empty = idle protagonist)")
	realtime := flag.Bool("realtime", false, "Pace ticks against the wall clock")
	dbPath := flag.String("db", "", "Store the run in this SQLite file")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (empty = use config)")
	label := flag.String("label", "", "Label for the stored run")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// CLI overrides
	if *outputDir != "" {
		cfg.Telemetry.OutputDir = *outputDir
	}
	if *snapshotDir != "" {
		cfg.Telemetry.SnapshotDir = *snapshotDir
	}
	if *realtime {
		cfg.Sim.Realtime = true
	}
	if *dbPath != "" {
		cfg.Storage.Driver = "sqlite"
		cfg.Storage.Path = *dbPath
	}
	if *logLevel != "" {
		cfg.Telemetry.LogLevel = *logLevel
	}

	// Set up slog (JSON to stdout for structured logging)
	level, err := game.ParseLogLevel(cfg.Telemetry.LogLevel)
	if err != nil {
		slog.Error("invalid log level", "error", err)
		os.Exit(1)
	}
	logger := game.NewLogger(os.Stdout, level)
	slog.SetDefault(logger)

	var input game.InputSource = game.Idle
	if *inputPath != "" {
		script, err := game.LoadScript(*inputPath)
		if err != nil {
			slog.Error("failed to load input", "error", err)
			os.Exit(1)
		}
		input = script
	}

	store, err := factory.NewBackend(cfg.Storage)
	if err != nil {
		slog.Error("failed to open storage", "error", err)
		os.Exit(1)
	}

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		slog.Error("failed to create metrics", "error", err)
		store.Close()
		os.Exit(1)
	}

	opts := game.Options{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Metrics:  metrics,
		RunLabel: *label,
	}
	code := run(opts, input, *maxTicks, store)
	if err := store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
	os.Exit(code)
}

// run executes the simulation until it finishes or a signal arrives, and
// returns the process exit code.
func run(opts game.Options, input game.InputSource, maxTicks int, store storage.Backend) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim, err := game.NewSimulation(opts)
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		return 1
	}

	slog.Info("starting headless simulation",
		"max_ticks", maxTicks,
		"realtime", opts.Config.Sim.Realtime,
		"storage", opts.Config.Storage.Driver,
	)

	if err := sim.Run(ctx, input, maxTicks); err != nil {
		slog.Error("simulation failed", "tick", sim.Tick(), "error", err)
		return 1
	}

	if id := sim.StoredRunID(); id != 0 {
		runs, err := store.ListRuns()
		if err == nil {
			slog.Info("run saved", "id", id, "stored_runs", len(runs))
		}
	}
	return 0
}
