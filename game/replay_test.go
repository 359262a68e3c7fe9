package game

import (
	"context"
	"errors"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/afterimage/config"
	"github.com/pthm-cable/afterimage/creature"
	"github.com/pthm-cable/afterimage/recorder"
)

func TestReplayStoredLives(t *testing.T) {
	s := newTestSim(t, duel, func(c *config.Config) { c.Lives.Max = 2 })

	script := &ScriptInput{
		Segments: []Segment{
			{Ticks: 1, Intents: creature.Intents{Attack: true}},
			{Ticks: 5000, Intents: creature.Intents{StrafeLeft: true}},
		},
	}
	if err := s.Run(context.Background(), script, 10000); err != nil {
		t.Fatalf("Run: %v", err)
	}

	logs := s.Recorder().Sealed()
	if len(logs) != 2 {
		t.Fatalf("sealed logs = %d, want 2", len(logs))
	}

	cfg := config.Default()
	reports, ticks, err := Replay(s.Level(), logs, cfg.Player.Radius, cfg.Player.StepDistance)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}

	longest := 0
	for i, r := range reports {
		log := logs[i]
		longest = max(longest, log.Len())

		if r.Life != log.Life() || r.Ticks != log.Len() {
			t.Errorf("life %d: report %+v, log has %d samples", i, r, log.Len())
		}
		last, _ := log.Last()
		if r.Final != (r2.Vec{X: last.X, Y: last.Z}) {
			t.Errorf("life %d: final %v, recorded %+v", i, r.Final, last)
		}
		attacks := 0
		for _, smp := range log.Samples() {
			if smp.Attacked {
				attacks++
			}
		}
		if r.Attacks != attacks {
			t.Errorf("life %d: replayed %d attacks, recorded %d", i, r.Attacks, attacks)
		}
		if r.WallContacts != 0 {
			t.Errorf("life %d: replay overlapped walls on %d ticks", i, r.WallContacts)
		}
	}
	if reports[0].Attacks != 1 {
		t.Errorf("first life replayed %d attacks, want 1", reports[0].Attacks)
	}
	if ticks != longest {
		t.Errorf("replay took %d ticks, want %d", ticks, longest)
	}
}

func TestReplayRejectsOpenLog(t *testing.T) {
	s := newTestSim(t, room, nil)
	mustStep(t, s, creature.Intents{})

	_, _, err := Replay(s.Level(), []*recorder.LifeLog{s.Recorder().Current()}, 0.25, 3)
	if !errors.Is(err, recorder.ErrLogNotSealed) {
		t.Errorf("Replay(open log) = %v, want ErrLogNotSealed", err)
	}
}
