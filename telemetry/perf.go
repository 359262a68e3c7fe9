package telemetry

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Phase is one stage of a simulation step, in step order.
type Phase uint8

const (
	PhasePlayer Phase = iota
	PhaseClones
	PhasePursuers
	PhaseLife
	PhaseTelemetry
	numPhases
)

var phaseNames = [numPhases]string{"player", "clones", "pursuers", "life", "telemetry"}

func (p Phase) String() string {
	if p < numPhases {
		return phaseNames[p]
	}
	return "unknown"
}

type tickTiming struct {
	total  time.Duration
	phases [numPhases]time.Duration
}

// PerfCollector keeps per-phase timings of the last windowSize ticks.
type PerfCollector struct {
	ring   []tickTiming
	next   int
	filled int

	cur        tickTiming
	running    bool
	phase      Phase // numPhases until the first StartPhase
	tickStart  time.Time
	phaseStart time.Time

	now func() time.Time
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		ring:  make([]tickTiming, windowSize),
		phase: numPhases,
		now:   time.Now,
	}
}

// StartTick begins timing a tick. A tick left running is discarded.
func (p *PerfCollector) StartTick() {
	p.cur = tickTiming{}
	p.running = true
	p.phase = numPhases
	p.tickStart = p.now()
}

// StartPhase closes the running phase and opens the next one.
func (p *PerfCollector) StartPhase(phase Phase) {
	if !p.running {
		return
	}
	now := p.now()
	p.closePhase(now)
	p.phase, p.phaseStart = phase, now
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase < numPhases {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
	}
}

// EndTick records the running tick into the window.
func (p *PerfCollector) EndTick() {
	if !p.running {
		return
	}
	now := p.now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	p.filled = min(p.filled+1, len(p.ring))
	p.running = false
}

// AbortTick drops the running tick without recording it.
func (p *PerfCollector) AbortTick() {
	p.running = false
}

// PerfStats holds aggregated timings over the window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	PhaseAvg map[Phase]time.Duration
	PhasePct map[Phase]float64 // share of the average tick

	TicksPerSecond float64
	Ticks          int // ticks in the window
}

// Stats aggregates the window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg: make(map[Phase]time.Duration, numPhases),
		PhasePct: make(map[Phase]float64, numPhases),
	}
	if p.filled == 0 {
		return s
	}
	s.Ticks = p.filled

	totals := make([]float64, p.filled)
	var phaseSum [numPhases]time.Duration
	for i, t := range p.ring[:p.filled] {
		totals[i] = float64(t.total)
		for ph, d := range t.phases {
			phaseSum[ph] += d
		}
	}

	avg := stat.Mean(totals, nil)
	s.AvgTickDuration = time.Duration(avg)
	s.MinTickDuration = time.Duration(floats.Min(totals))
	s.MaxTickDuration = time.Duration(floats.Max(totals))
	if avg > 0 {
		s.TicksPerSecond = float64(time.Second) / avg
	}

	for ph, sum := range phaseSum {
		mean := sum / time.Duration(p.filled)
		s.PhaseAvg[Phase(ph)] = mean
		if avg > 0 {
			s.PhasePct[Phase(ph)] = float64(mean) / avg * 100
		}
	}
	return s
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	for ph := Phase(0); ph < numPhases; ph++ {
		if pct, ok := s.PhasePct[ph]; ok {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    int     `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	PlayerPct    float64 `csv:"player_pct"`
	ClonesPct    float64 `csv:"clones_pct"`
	PursuersPct  float64 `csv:"pursuers_pct"`
	LifePct      float64 `csv:"life_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		PlayerPct:    s.PhasePct[PhasePlayer],
		ClonesPct:    s.PhasePct[PhaseClones],
		PursuersPct:  s.PhasePct[PhasePursuers],
		LifePct:      s.PhasePct[PhaseLife],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
