package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/pthm-cable/afterimage/creature"
	"github.com/pthm-cable/afterimage/state"
	"github.com/pthm-cable/afterimage/storage"
	"github.com/pthm-cable/afterimage/telemetry"
)

// endLife handles the protagonist's death: the sealed life is finished in
// telemetry, then either the next life starts or the run is over.
func (s *Simulation) endLife(ctx context.Context) error {
	life := s.player.LifeIndex()
	s.collector.RecordDeath()
	s.metrics.Death(ctx, life)
	s.finishLife(true)

	next, err := s.lives.Die()
	if errors.Is(err, state.ErrRunOver) {
		s.finished = true
		s.log.Info("run over", "life", life, "tick", s.tick, "lives_used", next)
		return fmt.Errorf("life %d: %w", life, ErrRunFinished)
	}
	if err != nil {
		return err
	}

	return s.beginLife(ctx, next)
}

// beginLife respawns the protagonist, returns pursuers to their spawns and
// binds a fresh clone to every sealed life.
func (s *Simulation) beginLife(ctx context.Context, life int) error {
	if err := s.player.Respawn(); err != nil {
		return fmt.Errorf("begin life %d: %w", life, err)
	}
	s.manager.Reset()

	if err := s.rebuildClones(ctx); err != nil {
		return fmt.Errorf("begin life %d: %w", life, err)
	}

	s.exitRecorded = false
	s.lifetimeTracker.Begin(s.player.LifeIndex(), s.tick, s.player.Health())

	s.log.Info("life started",
		"life", s.player.LifeIndex(),
		"tick", s.tick,
		"clones", len(s.clones),
		"lives_left", s.lives.Remaining(),
	)
	return nil
}

// rebuildClones retires every clone and creates one per sealed log, oldest
// life first, all starting from their first sample.
func (s *Simulation) rebuildClones(ctx context.Context) error {
	sealed := s.rec.Sealed()
	clones := make([]*creature.Clone, 0, len(sealed))
	for _, log := range sealed {
		c, err := creature.NewClone(log, s.cfg.Player.Radius, s.cfg.Player.StepDistance)
		if err != nil {
			return err
		}
		clones = append(clones, c)
	}
	s.clones = clones
	s.metrics.ClonesSpawned(ctx, len(clones))
	return nil
}

// finishLife closes the current life in telemetry and writes its output.
func (s *Simulation) finishLife(died bool) {
	if s.lifetimeTracker.Current() == nil {
		return
	}
	log := s.player.CurrentLog()
	stats := s.lifetimeTracker.Finish(
		s.tick,
		s.cfg.Derived.SecondsPerTick,
		s.player.Distance(),
		died,
		log.Checksum(),
	)

	s.log.Info("life ended",
		"life", stats.Life,
		"ticks", stats.Ticks,
		"died", died,
		"hits", stats.Hits,
		"exit_found", stats.ExitFound,
	)

	if err := s.outputManager.WriteLife(*stats); err != nil {
		s.log.Error("failed to write life", "error", err)
	}
	if err := s.outputManager.WriteSamples(log); err != nil {
		s.log.Error("failed to write samples", "error", err)
	}

	for _, bm := range s.bookmarkDetector.CheckLife(*stats) {
		s.handleBookmark(bm)
	}
}

// Close ends the run: the open life is finished, the summary, snapshot and
// stored run are written, and every creature is released. Safe to call twice.
func (s *Simulation) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil
	}
	s.released = true

	if !s.finished {
		s.finishLife(false)
	}

	summary := telemetry.Summarize(s.lifetimeTracker.Finished())
	s.log.Info("run summary", "tick", s.tick, "summary", summary)

	var errs []error
	if err := s.outputManager.WriteSummary(summary); err != nil {
		errs = append(errs, err)
	}
	if s.cfg.Telemetry.SnapshotDir != "" {
		if err := s.saveSnapshot(nil, &summary); err != nil {
			errs = append(errs, err)
		}
	}
	if s.store != nil {
		if err := s.storeRun(); err != nil {
			errs = append(errs, err)
		}
	}

	s.manager.Release()
	s.clones = nil

	if err := s.outputManager.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// storeRun persists every recorded life through the storage backend.
func (s *Simulation) storeRun() error {
	run := storage.NewRun(
		s.runLabel,
		s.cfg.Level.Map,
		s.cfg.Level.TileSize,
		s.cfg.Sim.TickRate,
		s.rec.Logs(),
	)
	if err := s.store.SaveRun(run); err != nil {
		return fmt.Errorf("store run: %w", err)
	}
	s.storedRunID = run.ID
	s.log.Info("run stored", "id", run.ID, "lives", len(run.Lives))
	return nil
}
