package telemetry

import (
	"testing"
	"time"
)

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedCollector(window int) (*PerfCollector, *fakeClock) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	pc := NewPerfCollector(window)
	pc.now = clk.now
	return pc, clk
}

// tick records one tick spending the given time in each phase, in order.
func tick(pc *PerfCollector, clk *fakeClock, phases map[Phase]time.Duration) {
	pc.StartTick()
	for ph := Phase(0); ph < numPhases; ph++ {
		d, ok := phases[ph]
		if !ok {
			continue
		}
		pc.StartPhase(ph)
		clk.advance(d)
	}
	pc.EndTick()
}

func TestPerfCollectorPhases(t *testing.T) {
	pc, clk := newClockedCollector(10)
	for i := 0; i < 4; i++ {
		tick(pc, clk, map[Phase]time.Duration{
			PhasePlayer:   100 * time.Microsecond,
			PhasePursuers: 300 * time.Microsecond,
		})
	}

	stats := pc.Stats()
	if stats.Ticks != 4 {
		t.Errorf("Ticks = %d, want 4", stats.Ticks)
	}
	if stats.AvgTickDuration != 400*time.Microsecond {
		t.Errorf("avg tick = %v, want 400µs", stats.AvgTickDuration)
	}
	if stats.PhaseAvg[PhasePlayer] != 100*time.Microsecond || stats.PhaseAvg[PhasePursuers] != 300*time.Microsecond {
		t.Errorf("phase averages = %v", stats.PhaseAvg)
	}
	if stats.PhasePct[PhasePlayer] != 25 || stats.PhasePct[PhasePursuers] != 75 {
		t.Errorf("phase shares = %v", stats.PhasePct)
	}
	if stats.TicksPerSecond != 2500 {
		t.Errorf("ticks/s = %v, want 2500", stats.TicksPerSecond)
	}
}

func TestPerfCollectorRollingWindow(t *testing.T) {
	pc, clk := newClockedCollector(3)
	for _, d := range []time.Duration{1, 1, 1, 5, 7} {
		tick(pc, clk, map[Phase]time.Duration{PhasePlayer: d * time.Millisecond})
	}

	stats := pc.Stats()
	if stats.Ticks != 3 {
		t.Fatalf("Ticks = %d, want window of 3", stats.Ticks)
	}
	if stats.MinTickDuration != time.Millisecond || stats.MaxTickDuration != 7*time.Millisecond {
		t.Errorf("min/max = %v/%v, want 1ms/7ms", stats.MinTickDuration, stats.MaxTickDuration)
	}
}

func TestPerfCollectorAbortTick(t *testing.T) {
	pc, clk := newClockedCollector(10)
	tick(pc, clk, map[Phase]time.Duration{PhasePlayer: time.Millisecond})

	pc.StartTick()
	pc.StartPhase(PhasePlayer)
	clk.advance(time.Second)
	pc.AbortTick()
	pc.EndTick() // no tick running

	stats := pc.Stats()
	if stats.Ticks != 1 || stats.MaxTickDuration != time.Millisecond {
		t.Errorf("aborted tick leaked into window: ticks=%d max=%v", stats.Ticks, stats.MaxTickDuration)
	}
}

func TestPerfCollectorEmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()

	if stats.AvgTickDuration != 0 || stats.Ticks != 0 {
		t.Errorf("empty collector = %+v", stats)
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseClones.String() != "clones" || numPhases.String() != "unknown" {
		t.Errorf("names = %q, %q", PhaseClones, numPhases)
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	stats := PerfStats{
		AvgTickDuration: 250 * time.Microsecond,
		MaxTickDuration: time.Millisecond,
		PhasePct: map[Phase]float64{
			PhasePlayer:   40,
			PhasePursuers: 35,
			PhaseClones:   25,
		},
		TicksPerSecond: 4000,
	}

	row := stats.ToCSV(600)
	if row.WindowEnd != 600 || row.AvgTickUS != 250 || row.MaxTickUS != 1000 {
		t.Errorf("timing columns = %+v", row)
	}
	if row.PlayerPct != 40 || row.PursuersPct != 35 || row.ClonesPct != 25 || row.TelemetryPct != 0 {
		t.Errorf("phase columns = %+v", row)
	}
}
