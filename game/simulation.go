package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/afterimage/config"
	"github.com/pthm-cable/afterimage/creature"
	"github.com/pthm-cable/afterimage/level"
	"github.com/pthm-cable/afterimage/recorder"
	"github.com/pthm-cable/afterimage/state"
	"github.com/pthm-cable/afterimage/storage"
	"github.com/pthm-cable/afterimage/systems"
	"github.com/pthm-cable/afterimage/telemetry"
)

// closeCallFraction is the share of max health a survived life must have
// dropped to before it is bookmarked.
const closeCallFraction = 0.2

// Options configures a Simulation.
type Options struct {
	Config   *config.Config // nil = embedded defaults
	Logger   *slog.Logger
	Store    storage.Backend // optional run persistence on Close
	Metrics  *telemetry.Metrics
	RunLabel string
}

// Simulation holds the complete run state.
type Simulation struct {
	cfg *config.Config
	log *slog.Logger

	level   *level.Level
	rec     *recorder.Recorder
	player  *creature.Player
	clones  []*creature.Clone
	manager *systems.Manager
	lives   *state.Lives

	// Telemetry
	collector        *telemetry.Collector
	lifetimeTracker  *telemetry.LifetimeTracker
	bookmarkDetector *telemetry.BookmarkDetector
	perfCollector    *telemetry.PerfCollector
	outputManager    *telemetry.OutputManager
	metrics          *telemetry.Metrics
	store            storage.Backend
	runLabel         string
	storedRunID      uint

	// State
	tick         int
	exitRecorded bool
	finished     bool
	released     bool

	mu sync.Mutex
}

// NewSimulation builds the level, the protagonist and the pursuer world, and
// opens the first life.
func NewSimulation(opts Options) (*Simulation, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	lvl, err := level.Parse(cfg.Level.Map, cfg.Level.TileSize)
	if err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}

	rec := recorder.New()
	player, err := creature.NewPlayer(creature.ParamsFromConfig(cfg), lvl.PlayerSpawn(), rec, logger)
	if err != nil {
		return nil, err
	}

	om, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		logger.Error("failed to write config", "error", err)
	}

	s := &Simulation{
		cfg:              cfg,
		log:              logger,
		level:            lvl,
		rec:              rec,
		player:           player,
		manager:          systems.NewManager(lvl, cfg.Pursuer, logger),
		lives:            state.NewLives(cfg.Lives.Max),
		collector:        telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Derived.SecondsPerTick),
		lifetimeTracker:  telemetry.NewLifetimeTracker(),
		bookmarkDetector: telemetry.NewBookmarkDetector(cfg.Player.MaxHealth, closeCallFraction),
		perfCollector:    telemetry.NewPerfCollector(cfg.Sim.TickRate),
		outputManager:    om,
		metrics:          opts.Metrics,
		store:            opts.Store,
		runLabel:         opts.RunLabel,
	}
	s.lifetimeTracker.Begin(0, 0, player.Health())

	cols, rows := lvl.Size()
	logger.Info("simulation started",
		"cols", cols,
		"rows", rows,
		"pursuers", s.manager.Count(),
		"exits", len(lvl.Exits()),
		"max_lives", cfg.Lives.Max,
		"tick_rate", cfg.Sim.TickRate,
	)
	return s, nil
}

// Step advances the run by exactly one fixed tick: the protagonist moves and
// records, clones replay one sample each in life order, pursuers move, then
// the scheduler's periodic callbacks and the life transition run.
// ErrRunFinished is returned on the tick that spends the last life and on
// every call after it.
func (s *Simulation) Step(ctx context.Context, in creature.Intents) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished || s.released {
		return ErrRunFinished
	}

	s.perfCollector.StartTick()

	s.perfCollector.StartPhase(telemetry.PhasePlayer)
	if err := s.player.Tick(in, s.manager); err != nil {
		s.perfCollector.AbortTick()
		return fmt.Errorf("tick %d: %w", s.tick, err)
	}
	s.observePlayer(ctx)

	s.perfCollector.StartPhase(telemetry.PhaseClones)
	s.stepClones(ctx)

	s.perfCollector.StartPhase(telemetry.PhasePursuers)
	s.manager.Step(s.player.Position())

	s.tick++
	if s.tick%s.cfg.Derived.TicksPerStaminaStep == 0 {
		s.player.StepStamina(s.cfg.Derived.StaminaStepSeconds)
	}

	s.perfCollector.StartPhase(telemetry.PhaseLife)
	var lifeErr error
	if s.player.Dead() {
		lifeErr = s.endLife(ctx)
	}

	s.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	s.flushTelemetry()
	s.logStatus()
	s.perfCollector.EndTick()
	s.metrics.Tick(ctx)

	return lifeErr
}

// observePlayer turns the protagonist's per-tick flags into combat and telemetry.
func (s *Simulation) observePlayer(ctx context.Context) {
	pl := s.player

	if pl.HitThisTick() {
		s.collector.RecordHit()
		s.lifetimeTracker.RecordHit(pl.Health())
		s.metrics.Hit(ctx)
	}

	if pl.AttackedThisTick() {
		stunned := s.manager.ResolveAttack(pl.Position(), s.cfg.Player.AttackRange)
		s.collector.RecordAttack()
		s.collector.RecordStuns(stunned)
		s.lifetimeTracker.RecordAttack(stunned)
		s.metrics.Attack(ctx, "player", stunned)
		if bm := s.bookmarkDetector.CheckAttack(s.tick, pl.LifeIndex(), stunned); bm != nil {
			s.handleBookmark(*bm)
		}
	}

	if pl.FootstepThisTick() {
		s.collector.RecordFootstep()
		s.lifetimeTracker.RecordFootstep()
		s.metrics.Footstep(ctx, "player")
	}

	if pl.ExitFound() && !s.exitRecorded {
		s.exitRecorded = true
		s.collector.RecordExit()
		s.lifetimeTracker.RecordExit(pl.ExitID())
		s.metrics.Exit(ctx, pl.ExitID())
	}
}

// stepClones advances every active clone by one recorded tick.
func (s *Simulation) stepClones(ctx context.Context) {
	for _, c := range s.clones {
		if !c.Tick() {
			continue
		}
		if c.FootstepThisTick() {
			s.metrics.Footstep(ctx, "clone")
		}
		if !c.AttackEvent() {
			continue
		}
		s.collector.RecordCloneAttack()
		stunned := 0
		if s.cfg.Clone.AttacksStun {
			stunned = s.manager.ResolveAttack(c.Position(), s.cfg.Player.AttackRange)
			s.collector.RecordStuns(stunned)
		}
		s.metrics.Attack(ctx, "clone", stunned)
	}
}

// activeClones counts clones that have not finished their replay.
func (s *Simulation) activeClones() int {
	n := 0
	for _, c := range s.clones {
		if !c.Spent() {
			n++
		}
	}
	return n
}

// Status is a point-in-time view of the run, safe to read from any goroutine.
type Status struct {
	Tick         int
	Life         int
	Position     r2.Vec
	TileCol      int // -1 off the navigation graph
	TileRow      int
	Angle        float64
	Health       int
	HealthState  state.HealthState
	Stamina      float64
	StaminaState state.StaminaState
	ExitFound    bool
	ExitID       string
	Clones       int
	ActiveClones int
	Pursuers     int
	Stunned      int
	LivesLeft    int // -1 when unbounded
	Finished     bool
}

// Status returns a snapshot of the run.
func (s *Simulation) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

func (s *Simulation) status() Status {
	pl := s.player
	col, row := -1, -1
	if node := pl.CurrentNode(s.manager); node != nil {
		col, row = node.Col, node.Row
	}
	return Status{
		Tick:         s.tick,
		Life:         pl.LifeIndex(),
		Position:     pl.Position(),
		TileCol:      col,
		TileRow:      row,
		Angle:        pl.Angle(),
		Health:       pl.Health(),
		HealthState:  pl.HealthState(),
		Stamina:      pl.Stamina(),
		StaminaState: pl.StaminaState(),
		ExitFound:    pl.ExitFound(),
		ExitID:       pl.ExitID(),
		Clones:       len(s.clones),
		ActiveClones: s.activeClones(),
		Pursuers:     s.manager.Count(),
		Stunned:      s.manager.Stunned(),
		LivesLeft:    s.lives.Remaining(),
		Finished:     s.finished,
	}
}

// LogValue lets a Status be passed directly to slog.
func (st Status) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", st.Tick),
		slog.Int("life", st.Life),
		slog.Float64("x", st.Position.X),
		slog.Float64("z", st.Position.Y),
		slog.Int("tile_col", st.TileCol),
		slog.Int("tile_row", st.TileRow),
		slog.Int("health", st.Health),
		slog.String("health_state", st.HealthState.String()),
		slog.Float64("stamina", st.Stamina),
		slog.String("stamina_state", st.StaminaState.String()),
		slog.Int("active_clones", st.ActiveClones),
		slog.Int("stunned", st.Stunned),
		slog.Bool("exit_found", st.ExitFound),
	)
}

// Lives returns the life index and lives remaining (-1 when unbounded).
func (s *Simulation) Lives() (index, remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lives.Index(), s.lives.Remaining()
}

// Tick returns the current simulation tick.
func (s *Simulation) Tick() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// Finished reports whether the run has spent its last life.
func (s *Simulation) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Player returns the protagonist. Not safe for use while Run is stepping.
func (s *Simulation) Player() *creature.Player { return s.player }

// Clones returns the clones of the current life, oldest life first.
func (s *Simulation) Clones() []*creature.Clone { return s.clones }

// Manager returns the pursuer world.
func (s *Simulation) Manager() *systems.Manager { return s.manager }

// Level returns the enclosure.
func (s *Simulation) Level() *level.Level { return s.level }

// Recorder returns every recorded life.
func (s *Simulation) Recorder() *recorder.Recorder { return s.rec }

// LifeStats returns the stats of every finished life.
func (s *Simulation) LifeStats() []telemetry.LifeStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lifetimeTracker.Finished()
}

// Perf returns tick timings over the current window.
func (s *Simulation) Perf() telemetry.PerfStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.perfCollector.Stats()
}

// StoredRunID returns the id the run was saved under, or 0 before Close.
func (s *Simulation) StoredRunID() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storedRunID
}
