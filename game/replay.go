package game

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/afterimage/creature"
	"github.com/pthm-cable/afterimage/level"
	"github.com/pthm-cable/afterimage/recorder"
)

// ReplayReport summarizes one clone's replay of a stored life.
type ReplayReport struct {
	Life         int
	Ticks        int
	Attacks      int
	Footsteps    int
	Final        r2.Vec
	WallContacts int // ticks spent overlapping a wall; 0 for a valid recording
	ExitID       string
}

// Replay binds a clone to every log and ticks them together until all are
// spent. The level is only consulted to check the replayed paths.
func Replay(lvl *level.Level, logs []*recorder.LifeLog, radius, stepDistance float64) ([]ReplayReport, int, error) {
	clones := make([]*creature.Clone, len(logs))
	reports := make([]ReplayReport, len(logs))
	for i, log := range logs {
		c, err := creature.NewClone(log, radius, stepDistance)
		if err != nil {
			return nil, 0, err
		}
		clones[i] = c
		reports[i].Life = log.Life()
	}

	ticks := 0
	for {
		active := false
		for i, c := range clones {
			if !c.Tick() {
				continue
			}
			active = true

			r := &reports[i]
			r.Ticks++
			r.Final = c.Position()
			if c.AttackEvent() {
				r.Attacks++
			}
			if c.FootstepThisTick() {
				r.Footsteps++
			}
			if wall, err := lvl.WallCollisionAt(c.Body()); err == nil && wall != nil {
				r.WallContacts++
			}
			if id, ok := lvl.ExitAt(c.Body()); ok && r.ExitID == "" {
				r.ExitID = id
			}
		}
		if !active {
			return reports, ticks, nil
		}
		ticks++
	}
}
