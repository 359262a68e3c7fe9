package state

// HealthState is the phase of the health machine.
type HealthState uint8

const (
	HealthHealthy HealthState = iota
	HealthHit
	HealthDead
)

func (s HealthState) String() string {
	switch s {
	case HealthHealthy:
		return "healthy"
	case HealthHit:
		return "hit"
	case HealthDead:
		return "dead"
	}
	return "unknown"
}

// HealthParams configures the health machine.
type HealthParams struct {
	Max          int
	DamagePerHit int
	RegenPerTick int
	GraceTicks   int
}

// Health tracks hit points. It only moves by -DamagePerHit on contact or by
// +RegenPerTick once GraceTicks have passed without a hit.
type Health struct {
	p     HealthParams
	value int
	grace int
	state HealthState
}

// NewHealth creates a machine at full health.
func NewHealth(p HealthParams) *Health {
	return &Health{p: p, value: p.Max}
}

// Value returns current health in [-Max, Max].
func (h *Health) Value() int { return h.value }

// Max returns the health ceiling.
func (h *Health) Max() int { return h.p.Max }

// State returns the current phase.
func (h *Health) State() HealthState { return h.state }

// Grace returns ticks elapsed since the last hit.
func (h *Health) Grace() int { return h.grace }

// Dead reports whether the life is over.
func (h *Health) Dead() bool { return h.state == HealthDead }

// Hit applies one hostile contact.
func (h *Health) Hit() HealthState {
	if h.state == HealthDead {
		return h.state
	}
	h.value = h.clamp(h.clamp(h.value) - h.p.DamagePerHit)
	h.grace = 0
	h.state = HealthHit
	if h.value <= 0 {
		h.state = HealthDead
	}
	return h.state
}

// Tick advances a tick without contact: the grace timer runs first, then
// health regenerates until it saturates.
func (h *Health) Tick() HealthState {
	if h.state != HealthHit {
		return h.state
	}
	if h.grace < h.p.GraceTicks {
		h.grace++
		return h.state
	}
	h.value += h.p.RegenPerTick
	if h.value >= h.p.Max {
		h.value = h.p.Max
		h.state = HealthHealthy
	}
	return h.state
}

// Reset restores full health.
func (h *Health) Reset() {
	h.value = h.p.Max
	h.grace = 0
	h.state = HealthHealthy
}

func (h *Health) clamp(v int) int {
	if v > h.p.Max {
		return h.p.Max
	}
	if v < -h.p.Max {
		return -h.p.Max
	}
	return v
}
