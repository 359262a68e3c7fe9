package components

import "github.com/pthm-cable/afterimage/config"

// Body holds collision dimensions of an entity.
type Body struct {
	Radius float64
	Height float64
}

// Pursuer is the state of an autonomous chaser.
type Pursuer struct {
	ID     uint32
	SpawnX float64
	SpawnZ float64
	Speed  float64 // units per tick
	Stun   int     // ticks left until the pursuer moves and hurts again
}

// Stunned reports whether the pursuer is currently harmless.
func (p *Pursuer) Stunned() bool { return p.Stun > 0 }

// BodyFromConfig returns the pursuer body dimensions.
func BodyFromConfig(cfg *config.PursuerConfig) Body {
	return Body{Radius: cfg.Radius, Height: 1}
}
