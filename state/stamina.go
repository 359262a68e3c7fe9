// Package state implements the stamina, health and lives machines of the protagonist.
package state

// StaminaState is the phase of the stamina machine.
type StaminaState uint8

const (
	StaminaFull StaminaState = iota
	StaminaDraining
	StaminaDepleted
	StaminaRegenerating
)

func (s StaminaState) String() string {
	switch s {
	case StaminaFull:
		return "full"
	case StaminaDraining:
		return "draining"
	case StaminaDepleted:
		return "depleted"
	case StaminaRegenerating:
		return "regenerating"
	}
	return "unknown"
}

// Stamina gates sprinting. Its value only moves when Step is called by the
// scheduler's periodic callback; intent-driven phase changes happen in Observe.
type Stamina struct {
	value float64
	max   float64
	regen float64 // per second
	state StaminaState
}

// NewStamina creates a full stamina machine.
func NewStamina(max, regenPerSecond float64) *Stamina {
	return &Stamina{value: max, max: max, regen: regenPerSecond, state: StaminaFull}
}

// Value returns the current stamina in [0, max].
func (s *Stamina) Value() float64 { return s.value }

// Max returns the stamina ceiling.
func (s *Stamina) Max() float64 { return s.max }

// State returns the current phase.
func (s *Stamina) State() StaminaState { return s.state }

// CanSprint reports whether sprint speed is allowed.
// Once depleted, sprinting stays off until the intent is released.
func (s *Stamina) CanSprint() bool {
	return s.state != StaminaDepleted && s.value > 0
}

// Observe applies the transitions driven by the sprint intent alone.
func (s *Stamina) Observe(sprintHeld bool) {
	switch {
	case sprintHeld && (s.state == StaminaFull || s.state == StaminaRegenerating) && s.value > 0:
		s.state = StaminaDraining
	case sprintHeld && s.state == StaminaRegenerating:
		// Nothing to spend yet.
		s.state = StaminaDepleted
	case !sprintHeld && (s.state == StaminaDraining || s.state == StaminaDepleted):
		s.state = StaminaRegenerating
		if s.value >= s.max {
			s.state = StaminaFull
		}
	}
}

// Step advances the machine by an elapsed period: -1 per second while
// draining, +regen per second while regenerating with sprint released.
func (s *Stamina) Step(sprintHeld bool, seconds float64) {
	s.Observe(sprintHeld)

	switch s.state {
	case StaminaDraining:
		s.value -= seconds
		if s.value <= 0 {
			s.value = 0
			s.state = StaminaDepleted
		}
	case StaminaRegenerating:
		if sprintHeld {
			return
		}
		s.value += s.regen * seconds
		if s.value >= s.max {
			s.value = s.max
			s.state = StaminaFull
		}
	}
}

// Reset refills stamina.
func (s *Stamina) Reset() {
	s.value = s.max
	s.state = StaminaFull
}
