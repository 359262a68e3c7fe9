package telemetry

import "fmt"

// LifeStats tracks statistics for one life of the protagonist.
type LifeStats struct {
	Life        int     `csv:"life" json:"life"`
	StartTick   int     `csv:"start_tick" json:"start_tick"`
	EndTick     int     `csv:"end_tick" json:"end_tick"`
	Ticks       int     `csv:"ticks" json:"ticks"`
	SurvivalSec float64 `csv:"survival_sec" json:"survival_sec"`
	Distance    float64 `csv:"distance" json:"distance"`

	Hits      int `csv:"hits" json:"hits"`
	MinHealth int `csv:"min_health" json:"min_health"`
	Attacks   int `csv:"attacks" json:"attacks"`
	Stuns     int `csv:"stuns" json:"stuns"`
	Footsteps int `csv:"footsteps" json:"footsteps"`

	ExitFound bool   `csv:"exit_found" json:"exit_found"`
	ExitID    string `csv:"exit_id" json:"exit_id,omitempty"`
	Died      bool   `csv:"died" json:"died"`

	// Checksum of the life's recorded path, hex encoded.
	Checksum string `csv:"checksum" json:"checksum"`
}

// LifetimeTracker manages per-life statistics in life order.
type LifetimeTracker struct {
	lives   []*LifeStats
	current *LifeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{}
}

// Begin starts tracking a new life.
func (lt *LifetimeTracker) Begin(life, startTick, health int) *LifeStats {
	s := &LifeStats{Life: life, StartTick: startTick, MinHealth: health}
	lt.lives = append(lt.lives, s)
	lt.current = s
	return s
}

// Current returns the stats of the life in progress, or nil.
func (lt *LifetimeTracker) Current() *LifeStats {
	return lt.current
}

// RecordHit counts a hostile contact and tracks the lowest health reached.
func (lt *LifetimeTracker) RecordHit(health int) {
	if s := lt.current; s != nil {
		s.Hits++
		if health < s.MinHealth {
			s.MinHealth = health
		}
	}
}

// RecordAttack counts an attack and the pursuers it stunned.
func (lt *LifetimeTracker) RecordAttack(stunned int) {
	if s := lt.current; s != nil {
		s.Attacks++
		s.Stuns += stunned
	}
}

// RecordFootstep counts a footstep.
func (lt *LifetimeTracker) RecordFootstep() {
	if s := lt.current; s != nil {
		s.Footsteps++
	}
}

// RecordExit marks the life as having reached an exit.
func (lt *LifetimeTracker) RecordExit(id string) {
	if s := lt.current; s != nil && !s.ExitFound {
		s.ExitFound = true
		s.ExitID = id
	}
}

// Finish closes the life in progress and returns its final stats.
func (lt *LifetimeTracker) Finish(endTick int, dt, distance float64, died bool, checksum uint64) *LifeStats {
	s := lt.current
	if s == nil {
		return nil
	}
	s.EndTick = endTick
	s.Ticks = endTick - s.StartTick
	s.SurvivalSec = float64(s.Ticks) * dt
	s.Distance = distance
	s.Died = died
	s.Checksum = fmt.Sprintf("%016x", checksum)
	lt.current = nil
	return s
}

// Get returns the stats for a life index, or nil if not found.
func (lt *LifetimeTracker) Get(life int) *LifeStats {
	for _, s := range lt.lives {
		if s.Life == life {
			return s
		}
	}
	return nil
}

// Finished returns copies of every closed life, in life order.
func (lt *LifetimeTracker) Finished() []LifeStats {
	out := make([]LifeStats, 0, len(lt.lives))
	for _, s := range lt.lives {
		if s != lt.current {
			out = append(out, *s)
		}
	}
	return out
}

// Count returns the number of tracked lives.
func (lt *LifetimeTracker) Count() int {
	return len(lt.lives)
}
