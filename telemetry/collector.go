// Package telemetry provides run statistics, bookmarks, CSV output, run
// snapshots and OpenTelemetry counters for the simulation.
package telemetry

// WindowState is the simulation state sampled when a window is flushed.
type WindowState struct {
	Life         int
	ActiveClones int
	Stunned      int
	Health       int
	Stamina      float64
}

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int
	dt                  float64

	// Current window tracking
	windowStartTick int

	// Event counters for current window
	hits         int
	attacks      int
	cloneAttacks int
	stuns        int
	footsteps    int
	deaths       int
	exits        int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int(windowDurationSec/dt + 0.5)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordHit records a hostile contact with the protagonist.
func (c *Collector) RecordHit() { c.hits++ }

// RecordAttack records a live attack by the protagonist.
func (c *Collector) RecordAttack() { c.attacks++ }

// RecordCloneAttack records an attack replayed by a clone.
func (c *Collector) RecordCloneAttack() { c.cloneAttacks++ }

// RecordStuns records pursuers stunned by one attack.
func (c *Collector) RecordStuns(n int) { c.stuns += n }

// RecordFootstep records a footstep event.
func (c *Collector) RecordFootstep() { c.footsteps++ }

// RecordDeath records the end of a life.
func (c *Collector) RecordDeath() { c.deaths++ }

// RecordExit records the protagonist reaching an exit.
func (c *Collector) RecordExit() { c.exits++ }

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int, st WindowState) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Life:         st.Life,
		ActiveClones: st.ActiveClones,
		Stunned:      st.Stunned,
		Health:       st.Health,
		Stamina:      st.Stamina,

		Hits:         c.hits,
		Attacks:      c.attacks,
		CloneAttacks: c.cloneAttacks,
		Stuns:        c.stuns,
		Footsteps:    c.footsteps,
		Deaths:       c.deaths,
		Exits:        c.exits,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.hits = 0
	c.attacks = 0
	c.cloneAttacks = 0
	c.stuns = 0
	c.footsteps = 0
	c.deaths = 0
	c.exits = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int {
	return c.windowDurationTicks
}
