package state

import (
	"errors"
	"fmt"
)

// ErrRunOver is returned once the life budget is exhausted.
var ErrRunOver = errors.New("run over: no lives remaining")

// Lives counts life attempts. The index of the current life increases by one
// on every death; a max of 0 means the run never runs out of lives.
type Lives struct {
	index int
	max   int
}

// NewLives creates a counter at life 0.
func NewLives(max int) *Lives {
	return &Lives{max: max}
}

// Index returns the current life index, which equals the number of deaths.
func (l *Lives) Index() int { return l.index }

// Max returns the life budget (0 = unbounded).
func (l *Lives) Max() int { return l.max }

// Remaining returns lives left including the current one, or -1 when unbounded.
func (l *Lives) Remaining() int {
	if l.max == 0 {
		return -1
	}
	return max(l.max-l.index, 0)
}

// RunOver reports whether every life has been spent.
func (l *Lives) RunOver() bool {
	return l.max > 0 && l.index >= l.max
}

// Die ends the current life and returns the next life index.
// ErrRunOver is returned when that death spent the last life.
func (l *Lives) Die() (int, error) {
	if l.RunOver() {
		return l.index, fmt.Errorf("die at life %d: %w", l.index, ErrRunOver)
	}
	l.index++
	if l.RunOver() {
		return l.index, ErrRunOver
	}
	return l.index, nil
}
