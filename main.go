package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/persistence"
	"github.com/pthm-cable/sward/plots"
	"github.com/pthm-cable/sward/sward"
	"github.com/pthm-cable/sward/systems"
	"github.com/pthm-cable/sward/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot (empty = use config)")
	trial := flag.Bool("trial", false, "Run the configured trial plots instead of a single sward")
	dbPath := flag.String("db", "", "SQLite run database (empty = use config)")
	verify := flag.Bool("verify", false, "Check invariants after every day; violations are fatal")
	resume := flag.String("resume", "", "Snapshot JSON to resume a single-sward run from")
	days := flag.Int("days", 0, "Number of days to simulate (0 = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	for _, w := range cfg.Derived.Warnings {
		slog.Warn("config", "warning", w)
	}
	if *verify {
		cfg.Engine.Verify = true
	}
	if *days > 0 {
		cfg.Engine.Days = *days
	}
	if *outputDir != "" {
		cfg.Telemetry.OutputDir = *outputDir
	}
	if *dbPath != "" {
		cfg.Persistence.Path = *dbPath
	}

	weatherDays, err := sward.LoadWeather(cfg)
	if err != nil {
		slog.Error("failed to load weather", "error", err)
		os.Exit(1)
	}
	if len(weatherDays) == 0 {
		slog.Error("no weather days to simulate")
		os.Exit(1)
	}

	var store *persistence.Store
	if cfg.Persistence.Path != "" {
		store, err = persistence.Open(cfg.Persistence.Path)
		if err != nil {
			slog.Error("failed to open run database", "path", cfg.Persistence.Path, "error", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	slog.Info("starting simulation",
		"species", len(cfg.Mixture),
		"days", len(weatherDays),
		"start_doy", weatherDays[0].DayOfYear,
		"verify", cfg.Engine.Verify,
		"trial", *trial,
	)

	if *trial {
		err = runTrial(cfg, weatherDays, store)
	} else {
		err = runSingle(cfg, weatherDays, store, *resume)
	}
	if err != nil {
		var inv *systems.InvariantError
		if errors.As(err, &inv) {
			slog.Error("simulation aborted", "error", err)
		} else {
			slog.Error("simulation failed", "error", err)
		}
		os.Exit(1)
	}
}

func runSingle(cfg *config.Config, days []components.WeatherDay, store *persistence.Store, resume string) error {
	var out *telemetry.OutputManager
	if cfg.Telemetry.OutputDir != "" {
		var err error
		out, err = telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
		if err != nil {
			return err
		}
		defer out.Close()
		if err := out.WriteConfig(cfg); err != nil {
			return err
		}
	}

	opts := sward.SimulationOptions{Output: out}
	if store != nil {
		id, err := store.StartRun("", cfg)
		if err != nil {
			return err
		}
		opts.Recorder = store
		opts.RunID = id
	}

	sim, err := sward.NewSimulation(cfg, nil, opts)
	if err != nil {
		return err
	}

	if resume != "" {
		snap, err := telemetry.LoadSnapshot(resume)
		if err != nil {
			return err
		}
		if err := sim.Restore(snap); err != nil {
			return err
		}
		if snap.Day >= len(days) {
			days = nil
		} else {
			days = days[snap.Day:]
		}
		slog.Info("resumed", "snapshot", resume, "day", snap.Day)
	}

	summary, err := sim.Run(days)
	if store != nil && opts.RunID != "" {
		if ferr := store.FinishRun(opts.RunID, summary); ferr != nil {
			slog.Error("failed to store run", "error", ferr)
		}
	}
	return err
}

func runTrial(cfg *config.Config, days []components.WeatherDay, store *persistence.Store) error {
	opts := plots.Options{OutputDir: cfg.Telemetry.OutputDir}
	if store != nil {
		opts.Store = store
	}
	trial, err := plots.NewTrial(cfg, cfg.Trial.Plots, opts)
	if err != nil {
		return err
	}
	defer trial.Close()

	results, err := trial.Run(days)
	for _, r := range results {
		slog.Info("plot result",
			"plot", r.Plot,
			"run", r.RunID,
			"cuts", r.Yield.Cuts,
			"harvested", humanize.FormatFloat("#,###.", r.Yield.Harvested)+" kg DM/ha",
			"protein", humanize.FormatFloat("#,###.", r.Yield.ProteinYield)+" kg/ha",
			"growth", humanize.FormatFloat("#,###.", r.Yield.Growth)+" kg DM/ha",
		)
	}
	return err
}
