package game

import (
	"github.com/pthm-cable/afterimage/telemetry"
)

// flushTelemetry checks if the stats window should be flushed.
func (s *Simulation) flushTelemetry() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	stats := s.collector.Flush(s.tick, telemetry.WindowState{
		Life:         s.player.LifeIndex(),
		ActiveClones: s.activeClones(),
		Stunned:      s.manager.Stunned(),
		Health:       s.player.Health(),
		Stamina:      s.player.Stamina(),
	})
	perfStats := s.perfCollector.Stats()

	s.log.Debug("telemetry window", "stats", stats, "perf", perfStats)

	if err := s.outputManager.WriteTelemetry(stats); err != nil {
		s.log.Error("failed to write telemetry", "error", err)
	}
	if err := s.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		s.log.Error("failed to write perf", "error", err)
	}
}

// logStatus emits the periodic status line.
func (s *Simulation) logStatus() {
	interval := s.cfg.Telemetry.StatusInterval
	if interval <= 0 || s.tick%interval != 0 {
		return
	}
	s.log.Debug("status", "status", s.status())
}

// handleBookmark logs and records a bookmark, and snapshots the run at it.
func (s *Simulation) handleBookmark(bm telemetry.Bookmark) {
	bm.LogBookmark(s.log)

	if err := s.outputManager.WriteBookmark(bm); err != nil {
		s.log.Error("failed to write bookmark", "error", err)
	}

	if s.cfg.Telemetry.SnapshotDir != "" {
		if err := s.saveSnapshot(&bm, nil); err != nil {
			s.log.Error("failed to save snapshot", "error", err)
		}
	}
}

// saveSnapshot creates and saves a snapshot to disk.
func (s *Simulation) saveSnapshot(bookmark *telemetry.Bookmark, summary *telemetry.RunSummary) error {
	path, err := telemetry.SaveSnapshot(s.createSnapshot(bookmark, summary), s.cfg.Telemetry.SnapshotDir)
	if err != nil {
		return err
	}
	s.log.Info("snapshot saved", "path", path, "tick", s.tick)
	return nil
}

// createSnapshot builds a snapshot of every recorded life.
func (s *Simulation) createSnapshot(bookmark *telemetry.Bookmark, summary *telemetry.RunSummary) *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version:  telemetry.SnapshotVersion,
		TickRate: s.cfg.Sim.TickRate,
		Level:    s.cfg.Level.Map,
		TileSize: s.cfg.Level.TileSize,
		Tick:     s.tick,
		Summary:  summary,
		Bookmark: bookmark,
	}
	for _, log := range s.rec.Logs() {
		snapshot.Lives = append(snapshot.Lives, telemetry.NewLifeSnapshot(log, s.lifetimeTracker.Get(log.Life())))
	}
	return snapshot
}
