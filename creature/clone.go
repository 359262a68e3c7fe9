package creature

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/afterimage/collision"
	"github.com/pthm-cable/afterimage/recorder"
)

// Clone replays one sealed life tick for tick. It never looks at the level or
// at input; the recorded path is already collision-valid.
type Clone struct {
	log    *recorder.LifeLog
	cursor int

	pos    r2.Vec
	angle  float64
	radius float64
	stride Stride

	attack   bool
	footstep bool
	spent    bool
}

// NewClone binds a clone to a sealed log.
func NewClone(log *recorder.LifeLog, radius, stepDistance float64) (*Clone, error) {
	if log == nil {
		return nil, fmt.Errorf("bind clone: nil log: %w", recorder.ErrLogNotSealed)
	}
	if !log.Sealed() {
		return nil, fmt.Errorf("bind clone to life %d: %w", log.Life(), recorder.ErrLogNotSealed)
	}
	c := &Clone{log: log, radius: radius}
	if log.Len() > 0 {
		first := log.At(0)
		c.pos = r2.Vec{X: first.X, Y: first.Z}
		c.angle = first.Angle
	}
	c.stride = NewStride(c.pos, stepDistance)
	return c, nil
}

// Tick applies the next recorded sample. It returns false once the clone is spent.
func (c *Clone) Tick() bool {
	c.attack, c.footstep = false, false
	if c.spent {
		return false
	}
	if c.cursor >= c.log.Len() {
		c.spent = true
		return false
	}

	s := c.log.At(c.cursor)
	c.cursor++

	c.pos = r2.Vec{X: s.X, Y: s.Z}
	c.angle = s.Angle
	c.attack = s.Attacked
	c.footstep = c.stride.Update(c.pos)

	if s.Died || c.cursor >= c.log.Len() {
		c.spent = true
	}
	return true
}

// Life returns the index of the life being replayed.
func (c *Clone) Life() int { return c.log.Life() }

// Cursor returns how many samples have been replayed.
func (c *Clone) Cursor() int { return c.cursor }

// Spent reports whether the replay has finished.
func (c *Clone) Spent() bool { return c.spent }

// AttackEvent reports whether this tick replayed an attack.
func (c *Clone) AttackEvent() bool { return c.attack }

// FootstepThisTick reports whether this tick fired a footstep.
func (c *Clone) FootstepThisTick() bool { return c.footstep }

// Position returns the replayed X/Z position.
func (c *Clone) Position() r2.Vec { return c.pos }

// Angle returns the replayed facing angle in degrees.
func (c *Clone) Angle() float64 { return c.angle }

// Body returns the collision body at the replayed position.
func (c *Clone) Body() collision.Body {
	return collision.Body{Center: c.pos, Radius: c.radius}
}
