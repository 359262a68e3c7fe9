package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/afterimage/config"
	"github.com/pthm-cable/afterimage/creature"
	"github.com/pthm-cable/afterimage/recorder"
	"github.com/pthm-cable/afterimage/state"
	"github.com/pthm-cable/afterimage/storage/memory"
)

const (
	// Empty room, no pursuers.
	room = `
#####
#P..#
#...#
#####
`
	// A pursuer one tile from the spawn.
	duel = `
#####
#PZ.#
#####
`
	// An exit two tiles to the right of the spawn.
	hallway = `
#####
#P.E#
#####
`
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSim(t *testing.T, levelMap string, mutate func(*config.Config)) *Simulation {
	t.Helper()
	cfg := config.Default()
	cfg.Level.Map = levelMap
	if mutate != nil {
		mutate(cfg)
	}
	s, err := NewSimulation(Options{Config: cfg, Logger: discardLogger()})
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustStep(t *testing.T, s *Simulation, in creature.Intents) {
	t.Helper()
	if err := s.Step(context.Background(), in); err != nil {
		t.Fatalf("Step at tick %d: %v", s.Tick(), err)
	}
}

// stepUntilLife steps with idle input until the given life starts.
func stepUntilLife(t *testing.T, s *Simulation, life int) {
	t.Helper()
	for i := 0; i < 5000; i++ {
		if s.Status().Life >= life {
			return
		}
		mustStep(t, s, creature.Intents{})
	}
	t.Fatalf("life %d never started", life)
}

func TestStepRecordsEveryTick(t *testing.T) {
	s := newTestSim(t, room, nil)

	for i := 0; i < 10; i++ {
		mustStep(t, s, creature.Intents{StrafeRight: true})
	}

	if s.Tick() != 10 {
		t.Errorf("Tick = %d, want 10", s.Tick())
	}
	if got := s.Recorder().Current().Len(); got != 10 {
		t.Errorf("recorded %d samples, want 10", got)
	}
	st := s.Status()
	if st.Position.X <= 1.5 {
		t.Errorf("protagonist did not move right: %v", st.Position)
	}
	if st.Life != 0 || st.Clones != 0 || st.Pursuers != 0 {
		t.Errorf("status = %+v", st)
	}
}

func TestStaminaCallbackDrivenByScheduler(t *testing.T) {
	s := newTestSim(t, room, nil)

	// Four seconds of sprinting leaves one unit.
	for i := 0; i < 240; i++ {
		mustStep(t, s, creature.Intents{Sprint: true})
	}
	if st := s.Status(); math.Abs(st.Stamina-1) > 1e-9 || st.StaminaState != state.StaminaDraining {
		t.Fatalf("after 4s: stamina = %v (%v), want 1 draining", st.Stamina, st.StaminaState)
	}

	for i := 0; i < 60; i++ {
		mustStep(t, s, creature.Intents{Sprint: true})
	}
	if st := s.Status(); st.Stamina != 0 || st.StaminaState != state.StaminaDepleted {
		t.Errorf("after 5s: stamina = %v (%v), want 0 depleted", st.Stamina, st.StaminaState)
	}
}

func TestExitFound(t *testing.T) {
	s := newTestSim(t, hallway, nil)

	for i := 0; i < 30 && !s.Status().ExitFound; i++ {
		mustStep(t, s, creature.Intents{StrafeRight: true})
	}

	st := s.Status()
	if !st.ExitFound || st.ExitID != "exit-0" {
		t.Fatalf("exit not found: %+v", st)
	}
}

func TestRunStopsOnExit(t *testing.T) {
	s := newTestSim(t, hallway, func(c *config.Config) { c.Sim.StopOnExit = true })

	right := InputFunc(func(int) (creature.Intents, bool) {
		return creature.Intents{StrafeRight: true}, true
	})
	if err := s.Run(context.Background(), right, 1000); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.Tick() >= 1000 || !s.Status().ExitFound {
		t.Errorf("run did not stop at the exit: tick %d", s.Tick())
	}
	if got := s.LifeStats(); len(got) != 1 || !got[0].ExitFound || got[0].Died {
		t.Errorf("LifeStats = %+v", got)
	}
}

func TestDeathStartsNextLifeWithClones(t *testing.T) {
	s := newTestSim(t, duel, func(c *config.Config) { c.Lives.Max = 2 })

	stepUntilLife(t, s, 1)

	st := s.Status()
	if st.Health != 500 || st.Clones != 1 || st.ActiveClones != 1 {
		t.Errorf("new life status = %+v", st)
	}
	if c := s.Clones()[0]; c.Life() != 0 || c.Cursor() != 0 {
		t.Errorf("clone life %d cursor %d, want life 0 cursor 0", c.Life(), c.Cursor())
	}
	if got := s.Manager().Positions(); got[0] != (r2.Vec{X: 2.5, Y: 1.5}) {
		t.Errorf("pursuer not reset to spawn: %v", got[0])
	}
	if idx, left := s.Lives(); idx != 1 || left != 1 {
		t.Errorf("Lives = %d, %d; want 1, 1", idx, left)
	}

	first := s.LifeStats()
	if len(first) != 1 || !first[0].Died || first[0].Hits == 0 {
		t.Fatalf("first life stats = %+v", first)
	}
	if want := fmt.Sprintf("%016x", s.Recorder().Logs()[0].Checksum()); first[0].Checksum != want {
		t.Errorf("life checksum = %s, want %s", first[0].Checksum, want)
	}

	// The second death spends the last life.
	var err error
	for i := 0; i < 5000 && err == nil; i++ {
		err = s.Step(context.Background(), creature.Intents{})
	}
	if !errors.Is(err, ErrRunFinished) {
		t.Fatalf("Step error = %v, want ErrRunFinished", err)
	}
	if !s.Finished() || !s.Status().Finished {
		t.Error("run not marked finished")
	}
	if err := s.Step(context.Background(), creature.Intents{}); !errors.Is(err, ErrRunFinished) {
		t.Errorf("Step after finish = %v, want ErrRunFinished", err)
	}
	if got := len(s.Recorder().Sealed()); got != 2 {
		t.Errorf("sealed logs = %d, want 2", got)
	}
}

func TestClonesReplayInLockstep(t *testing.T) {
	corridor := `
#######
#P...Z#
#######
`
	s := newTestSim(t, corridor, nil)

	// Walk into the pursuer until the first life ends.
	for i := 0; i < 5000 && s.Status().Life == 0; i++ {
		mustStep(t, s, creature.Intents{StrafeRight: true})
	}
	if s.Status().Life != 1 {
		t.Fatal("first life never ended")
	}

	past := s.Recorder().Logs()[0]
	clone := s.Clones()[0]
	for k := 1; k <= past.Len(); k++ {
		mustStep(t, s, creature.Intents{})
		want := past.At(k - 1)
		if clone.Position() != (r2.Vec{X: want.X, Y: want.Z}) || clone.Angle() != want.Angle {
			t.Fatalf("tick %d: clone at %v, recorded %+v", k, clone.Position(), want)
		}
		if clone.Cursor() != k {
			t.Fatalf("tick %d: cursor = %d", k, clone.Cursor())
		}
		if s.Status().Life != 1 {
			t.Fatal("second life ended during replay")
		}
	}
	if !clone.Spent() {
		t.Error("clone not spent after replaying the whole life")
	}
	if s.Status().ActiveClones != 0 {
		t.Error("spent clone still counted as active")
	}
}

func TestPlayerAttackStuns(t *testing.T) {
	s := newTestSim(t, duel, nil)

	mustStep(t, s, creature.Intents{Attack: true})
	if got := s.Status().Stunned; got != 1 {
		t.Fatalf("Stunned = %d, want 1", got)
	}

	// Holding attack does not strike again; the stun just counts down.
	for i := 0; i < 10; i++ {
		mustStep(t, s, creature.Intents{Attack: true})
	}
	if got := s.Manager().Positions()[0]; got != (r2.Vec{X: 2.5, Y: 1.5}) {
		t.Errorf("stunned pursuer moved to %v", got)
	}
}

func TestCloneAttacks(t *testing.T) {
	tests := []struct {
		name        string
		attacksStun bool
		wantStunned int
	}{
		{"stun", true, 1},
		{"cosmetic", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSim(t, duel, func(c *config.Config) { c.Clone.AttacksStun = tt.attacksStun })

			// Attack once at the start of the first life, then wait to be caught.
			mustStep(t, s, creature.Intents{Attack: true})
			stepUntilLife(t, s, 1)
			if s.Status().Stunned != 0 {
				t.Fatal("pursuers should start the new life unstunned")
			}

			// The clone replays the attack on the first tick of the new life.
			mustStep(t, s, creature.Intents{})
			if got := s.Status().Stunned; got != tt.wantStunned {
				t.Errorf("Stunned = %d, want %d", got, tt.wantStunned)
			}
		})
	}
}

func TestDeterministicRuns(t *testing.T) {
	script := &ScriptInput{
		Loop: true,
		Segments: []Segment{
			{Ticks: 20, Intents: creature.Intents{StrafeRight: true, Sprint: true}},
			{Ticks: 15, Intents: creature.Intents{TurnLeft: true, Forward: true}},
			{Ticks: 5, Intents: creature.Intents{Attack: true}},
		},
	}

	run := func() []uint64 {
		s := newTestSim(t, duel, func(c *config.Config) { c.Lives.Max = 3 })
		script.segment, script.used = 0, 0
		if err := s.Run(context.Background(), script, 2000); err != nil {
			t.Fatalf("Run: %v", err)
		}
		var sums []uint64
		for _, l := range s.Recorder().Logs() {
			sums = append(sums, l.Checksum())
		}
		return sums
	}

	a, b := run(), run()
	if len(a) == 0 || len(a) != len(b) {
		t.Fatalf("runs recorded %d and %d lives", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("life %d checksum %016x != %016x", i, a[i], b[i])
		}
	}
}

func TestRunCancelled(t *testing.T) {
	s := newTestSim(t, duel, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx, Idle, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.Tick() != 0 {
		t.Errorf("Tick = %d, want 0 after cancelled run", s.Tick())
	}
	if err := s.Step(context.Background(), creature.Intents{}); !errors.Is(err, ErrRunFinished) {
		t.Errorf("Step after shutdown = %v, want ErrRunFinished", err)
	}
	if s.Manager().Count() != 0 {
		t.Error("pursuers not released on shutdown")
	}
}

func TestCloseWritesOutputsAndStoresRun(t *testing.T) {
	out := t.TempDir()
	snaps := t.TempDir()
	store := memory.New()

	cfg := config.Default()
	cfg.Level.Map = duel
	cfg.Lives.Max = 2
	cfg.Telemetry.OutputDir = out
	cfg.Telemetry.SnapshotDir = snaps
	cfg.Telemetry.StatsWindow = 1

	s, err := NewSimulation(Options{Config: cfg, Logger: discardLogger(), Store: store, RunLabel: "test"})
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	if err := s.Run(context.Background(), Idle, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	for _, name := range []string{"config.yaml", "lives.csv", "samples.csv", "telemetry.csv", "perf.csv", "summary.json"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}

	matches, err := filepath.Glob(filepath.Join(snaps, "snapshot_*.json"))
	if err != nil || len(matches) == 0 {
		t.Fatalf("no snapshots written: %v", err)
	}

	id := s.StoredRunID()
	if id == 0 {
		t.Fatal("run not stored")
	}
	run, err := store.LoadRun(id)
	if err != nil {
		t.Fatalf("LoadRun: %v", err)
	}
	if run.Label != "test" || len(run.Lives) != 2 {
		t.Errorf("stored run %q with %d lives", run.Label, len(run.Lives))
	}
	logs, err := run.SealedLogs()
	if err != nil || len(logs) != 2 {
		t.Fatalf("SealedLogs = %d, %v", len(logs), err)
	}
	if logs[1].Checksum() != s.Recorder().Logs()[1].Checksum() {
		t.Error("stored life checksum differs from the recording")
	}
}

func TestNewSimulationRejectsBadLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Level.Map = "###\n#.#\n###"
	if _, err := NewSimulation(Options{Config: cfg, Logger: discardLogger()}); err == nil {
		t.Error("expected error for a level without a spawn")
	}
}

func TestStatusReportsTile(t *testing.T) {
	s := newTestSim(t, room, nil)

	st := s.Status()
	want := s.Level().TileAt(st.Position.X, st.Position.Y)
	if want == nil {
		t.Fatal("spawn has no navigation tile")
	}
	if st.TileCol != want.Col || st.TileRow != want.Row {
		t.Errorf("tile = (%d, %d), want (%d, %d)", st.TileCol, st.TileRow, want.Col, want.Row)
	}
	if st.TileCol != 1 || st.TileRow != 1 {
		t.Errorf("spawn tile = (%d, %d), want (1, 1)", st.TileCol, st.TileRow)
	}
}

func TestFailedTickIsNotTimed(t *testing.T) {
	s := newTestSim(t, room, nil)
	for i := 0; i < 3; i++ {
		mustStep(t, s, creature.Intents{})
	}

	// A death sample written behind the player's back seals the open log.
	if err := s.Recorder().Current().Append(recorder.Sample{Died: true}); err != nil {
		t.Fatalf("seal: %v", err)
	}

	err := s.Step(context.Background(), creature.Intents{})
	if !errors.Is(err, recorder.ErrLogSealed) {
		t.Fatalf("Step on sealed log = %v, want ErrLogSealed", err)
	}
	if got := s.Perf().Ticks; got != 3 {
		t.Errorf("perf window holds %d ticks, want the 3 completed ones", got)
	}
	if s.Tick() != 3 {
		t.Errorf("tick = %d, want 3", s.Tick())
	}
}
