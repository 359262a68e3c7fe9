// Package game runs the simulation on a fixed timestep: every tick the
// protagonist moves and records, the clones of earlier lives replay one
// sample each, and the pursuers move, in that order.
package game

import (
	"context"
	"errors"
	"time"
)

// ErrRunFinished is returned once the last life has been spent.
var ErrRunFinished = errors.New("run finished")

// Run steps the simulation until the input is exhausted, maxTicks is reached
// (0 = unlimited), the run finishes, or ctx is cancelled. With sim.realtime
// set, ticks are paced against the wall clock. Run always closes the
// simulation before returning, so cancellation is a normal shutdown.
func (s *Simulation) Run(ctx context.Context, input InputSource, maxTicks int) (err error) {
	defer func() {
		err = errors.Join(err, s.Close())
	}()

	var pace <-chan time.Time
	if s.cfg.Sim.Realtime {
		ticker := time.NewTicker(time.Duration(s.cfg.Derived.SecondsPerTick * float64(time.Second)))
		defer ticker.Stop()
		pace = ticker.C
	}

	for {
		tick := s.Tick()
		if maxTicks > 0 && tick >= maxTicks {
			s.log.Info("max ticks reached", "tick", tick)
			return nil
		}

		if pace != nil {
			select {
			case <-ctx.Done():
				s.log.Info("shutdown requested", "tick", tick)
				return nil
			case <-pace:
			}
		} else if ctx.Err() != nil {
			s.log.Info("shutdown requested", "tick", tick)
			return nil
		}

		in, ok := input.Next(tick)
		if !ok {
			s.log.Info("input exhausted", "tick", tick)
			return nil
		}

		if err := s.Step(ctx, in); err != nil {
			if errors.Is(err, ErrRunFinished) {
				return nil
			}
			return err
		}

		if s.cfg.Sim.StopOnExit && s.Status().ExitFound {
			s.log.Info("exit reached, stopping", "tick", s.Tick())
			return nil
		}
	}
}
