// Package creature implements the protagonist and its replaying clones.
//
// Both satisfy Movable. The Player is physics-driven and writes its path into a
// recorder; a Clone is log-driven and only reads one sealed life. Distance and
// footstep accounting is shared through the Stride value rather than a base type.
package creature

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/afterimage/collision"
	"github.com/pthm-cable/afterimage/level"
)

// Movable is anything that occupies a position and faces a direction.
type Movable interface {
	Position() r2.Vec
	Angle() float64 // degrees
	Body() collision.Body
}

// Kinematics is the movement state shared by every creature.
type Kinematics struct {
	Pos    r2.Vec  // Pos.Y is the world Z coordinate
	Angle  float64 // degrees
	Speed  float64 // forward speed, units per tick
	Strafe float64 // sideways speed, units per tick
	Radius float64
	Height float64
}

// Body returns the collision body at the current position.
func (k Kinematics) Body() collision.Body {
	return collision.Body{Center: k.Pos, Radius: k.Radius, Height: k.Height}
}

// Stride accumulates travelled distance and fires a footstep each time the
// distance since the last footstep exceeds the step length.
type Stride struct {
	last     r2.Vec
	since    float64
	total    float64
	stepDist float64
}

// NewStride starts measuring from p.
func NewStride(p r2.Vec, stepDistance float64) Stride {
	return Stride{last: p, stepDist: stepDistance}
}

// Update moves the stride to p and reports whether a footstep fired.
func (s *Stride) Update(p r2.Vec) bool {
	d := r2.Norm(r2.Sub(p, s.last))
	s.last = p
	s.since += d
	s.total += d
	if s.stepDist > 0 && s.since > s.stepDist {
		s.since = 0
		return true
	}
	return false
}

// Reset restarts measuring from p.
func (s *Stride) Reset(p r2.Vec) {
	s.last = p
	s.since = 0
	s.total = 0
}

// Total returns the distance travelled since the last reset.
func (s *Stride) Total() float64 { return s.total }

// Intents is the input snapshot for one tick.
type Intents struct {
	Forward     bool `yaml:"forward,omitempty"`
	Back        bool `yaml:"back,omitempty"`
	StrafeLeft  bool `yaml:"strafe_left,omitempty"`
	StrafeRight bool `yaml:"strafe_right,omitempty"`
	TurnLeft    bool `yaml:"turn_left,omitempty"`
	TurnRight   bool `yaml:"turn_right,omitempty"`
	Sprint      bool `yaml:"sprint,omitempty"`
	Attack      bool `yaml:"attack,omitempty"`
}

// Environment is what the protagonist consults while moving.
type Environment interface {
	collision.WallQuery
	HostileCollisionAt(b collision.Body) bool
	ExitAt(b collision.Body) (string, bool)
}

// NavLookup resolves the navigation tile under a position.
type NavLookup interface {
	TileAt(x, z float64) *level.NavNode
}
