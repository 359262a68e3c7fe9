package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int     `csv:"-"`
	WindowEndTick   int     `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// State at window end
	Life         int     `csv:"life"`
	ActiveClones int     `csv:"active_clones"`
	Stunned      int     `csv:"stunned"`
	Health       int     `csv:"health"`
	Stamina      float64 `csv:"stamina"`

	// Events during window
	Hits         int `csv:"hits"`
	Attacks      int `csv:"attacks"`
	CloneAttacks int `csv:"clone_attacks"`
	Stuns        int `csv:"stuns"`
	Footsteps    int `csv:"footsteps"`
	Deaths       int `csv:"deaths"`
	Exits        int `csv:"exits"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartTick),
		slog.Int("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("life", s.Life),
		slog.Int("active_clones", s.ActiveClones),
		slog.Int("stunned", s.Stunned),
		slog.Int("health", s.Health),
		slog.Float64("stamina", s.Stamina),
		slog.Int("hits", s.Hits),
		slog.Int("attacks", s.Attacks),
		slog.Int("clone_attacks", s.CloneAttacks),
		slog.Int("stuns", s.Stuns),
		slog.Int("footsteps", s.Footsteps),
		slog.Int("deaths", s.Deaths),
		slog.Int("exits", s.Exits),
	)
}

// RunSummary aggregates every finished life of a run.
type RunSummary struct {
	Lives      int `json:"lives"`
	Deaths     int `json:"deaths"`
	Exits      int `json:"exits"`
	TotalTicks int `json:"total_ticks"`
	TotalHits  int `json:"total_hits"`

	SurvivalMean float64 `json:"survival_mean"`
	SurvivalStd  float64 `json:"survival_std"`
	SurvivalP50  float64 `json:"survival_p50"`
	SurvivalP90  float64 `json:"survival_p90"`

	DistanceMean float64 `json:"distance_mean"`
	DistanceMax  float64 `json:"distance_max"`
}

// Summarize computes run-level statistics from per-life stats.
func Summarize(lives []LifeStats) RunSummary {
	sum := RunSummary{Lives: len(lives)}
	if len(lives) == 0 {
		return sum
	}

	survival := make([]float64, len(lives))
	distance := make([]float64, len(lives))
	for i, l := range lives {
		survival[i] = l.SurvivalSec
		distance[i] = l.Distance
		sum.TotalTicks += l.Ticks
		sum.TotalHits += l.Hits
		if l.Died {
			sum.Deaths++
		}
		if l.ExitFound {
			sum.Exits++
		}
	}

	sum.SurvivalMean = stat.Mean(survival, nil)
	if len(survival) > 1 {
		sum.SurvivalStd = stat.StdDev(survival, nil)
	}

	// Quantile needs sorted input
	sort.Float64s(survival)
	sum.SurvivalP50 = stat.Quantile(0.5, stat.Empirical, survival, nil)
	sum.SurvivalP90 = stat.Quantile(0.9, stat.Empirical, survival, nil)

	sum.DistanceMean = stat.Mean(distance, nil)
	for _, d := range distance {
		sum.DistanceMax = math.Max(sum.DistanceMax, d)
	}

	return sum
}

// LogValue implements slog.LogValuer for structured logging.
func (s RunSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("lives", s.Lives),
		slog.Int("deaths", s.Deaths),
		slog.Int("exits", s.Exits),
		slog.Int("total_ticks", s.TotalTicks),
		slog.Int("total_hits", s.TotalHits),
		slog.Float64("survival_mean", s.SurvivalMean),
		slog.Float64("survival_std", s.SurvivalStd),
		slog.Float64("survival_p50", s.SurvivalP50),
		slog.Float64("survival_p90", s.SurvivalP90),
		slog.Float64("distance_mean", s.DistanceMean),
		slog.Float64("distance_max", s.DistanceMax),
	)
}
