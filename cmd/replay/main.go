// Package main replays a stored run: every sealed life is bound to a clone and
// the clones are ticked together, checking each path against the level.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pthm-cable/afterimage/config"
	"github.com/pthm-cable/afterimage/game"
	"github.com/pthm-cable/afterimage/level"
	"github.com/pthm-cable/afterimage/recorder"
	"github.com/pthm-cable/afterimage/storage"
	"github.com/pthm-cable/afterimage/storage/factory"
	"github.com/pthm-cable/afterimage/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	dbPath := flag.String("db", "", "SQLite file holding stored runs")
	runID := flag.Uint("run", 0, "Stored run id (0 = latest)")
	snapshotPath := flag.String("snapshot", "", "Replay a JSON snapshot instead of a stored run")
	list := flag.Bool("list", false, "List stored runs and exit")
	outputDir := flag.String("output-dir", "", "Write replayed samples as CSV to this directory")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, *dbPath, *runID, *snapshotPath, *list, *outputDir); err != nil {
		slog.Error("replay failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, dbPath string, runID uint, snapshotPath string, list bool, outputDir string) error {
	var (
		levelMap string
		tileSize float64
		logs     []*recorder.LifeLog
	)

	if snapshotPath != "" {
		snap, err := telemetry.LoadSnapshot(snapshotPath)
		if err != nil {
			return err
		}
		if logs, err = snap.SealedLogs(); err != nil {
			return err
		}
		levelMap, tileSize = snap.Level, snap.TileSize
	} else {
		if dbPath == "" {
			return fmt.Errorf("either -db or -snapshot is required")
		}
		store, err := factory.NewBackend(config.StorageConfig{Driver: "sqlite", Path: dbPath})
		if err != nil {
			return err
		}
		defer store.Close()

		if list {
			return listRuns(store)
		}

		var stored *storage.Run
		if runID == 0 {
			stored, err = store.LatestRun()
		} else {
			stored, err = store.LoadRun(runID)
		}
		if err != nil {
			return err
		}
		if logs, err = stored.SealedLogs(); err != nil {
			return err
		}
		levelMap, tileSize = stored.Level, stored.TileSize
		slog.Info("loaded run", "id", stored.ID, "label", stored.Label, "started_at", stored.StartedAt, "lives", len(stored.Lives))
	}

	lvl, err := level.Parse(levelMap, tileSize)
	if err != nil {
		return err
	}

	reports, ticks, err := game.Replay(lvl, logs, cfg.Player.Radius, cfg.Player.StepDistance)
	if err != nil {
		return err
	}

	invalid := 0
	for _, r := range reports {
		slog.Info("life replayed",
			"life", r.Life,
			"ticks", r.Ticks,
			"attacks", r.Attacks,
			"footsteps", r.Footsteps,
			"final_x", r.Final.X,
			"final_z", r.Final.Y,
			"exit", r.ExitID,
			"wall_contacts", r.WallContacts,
		)
		if r.WallContacts > 0 {
			invalid++
		}
	}
	slog.Info("replay complete", "lives", len(reports), "ticks", ticks, "invalid", invalid)

	if outputDir != "" {
		om, err := telemetry.NewOutputManager(outputDir)
		if err != nil {
			return err
		}
		for _, log := range logs {
			if err := om.WriteSamples(log); err != nil {
				om.Close()
				return err
			}
		}
		if err := om.Close(); err != nil {
			return err
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d lives overlap walls on replay", invalid)
	}
	return nil
}

func listRuns(store storage.Backend) error {
	runs, err := store.ListRuns()
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%6d  %-20s  %s  %d lives\n", r.ID, r.Label, r.StartedAt.Format("2006-01-02 15:04:05"), r.Lives)
	}
	return nil
}
