// Package recorder keeps the per-tick path of the protagonist, one log per life.
//
// A LifeLog is append-only while its life lasts and becomes read-only the moment
// a sample flagged as a death is appended. Only sealed logs may be replayed.
package recorder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/zeebo/xxh3"
)

var (
	// ErrLogSealed is returned when appending to a log whose life has ended.
	ErrLogSealed = errors.New("life log is sealed")
	// ErrLogNotSealed is returned when replay is requested on a log still being written.
	ErrLogNotSealed = errors.New("life log is not sealed")
	// ErrLogOpen is returned when a new life begins while another log is still open.
	ErrLogOpen = errors.New("a life log is already open")
	// ErrNoOpenLog is returned when appending with no life in progress.
	ErrNoOpenLog = errors.New("no open life log")
)

// Sample is one tick of recorded creature state.
type Sample struct {
	X        float64 `json:"x"`
	Z        float64 `json:"z"`
	Angle    float64 `json:"angle"` // degrees
	Attacked bool    `json:"attacked,omitempty"`
	Died     bool    `json:"died,omitempty"`
}

// LifeLog is the ordered recording of one life.
type LifeLog struct {
	life    int
	samples []Sample
	sealed  bool
}

// NewLifeLog creates an open log for the given life index.
func NewLifeLog(life int) *LifeLog {
	return &LifeLog{life: life, samples: make([]Sample, 0, 1024)}
}

// Restore rebuilds a log from persisted samples. The log is sealed when the
// final sample is a death. A death anywhere else is rejected.
func Restore(life int, samples []Sample) (*LifeLog, error) {
	l := &LifeLog{life: life, samples: make([]Sample, 0, len(samples))}
	for i, s := range samples {
		if l.sealed {
			return nil, fmt.Errorf("restore life %d: sample %d after death: %w", life, i, ErrLogSealed)
		}
		l.samples = append(l.samples, s)
		l.sealed = s.Died
	}
	return l, nil
}

// Life returns the life index this log belongs to.
func (l *LifeLog) Life() int { return l.life }

// Len returns the number of recorded ticks.
func (l *LifeLog) Len() int { return len(l.samples) }

// Sealed reports whether the life has ended.
func (l *LifeLog) Sealed() bool { return l.sealed }

// At returns the sample recorded at tick i of the life.
func (l *LifeLog) At(i int) Sample { return l.samples[i] }

// Last returns the most recent sample.
func (l *LifeLog) Last() (Sample, bool) {
	if len(l.samples) == 0 {
		return Sample{}, false
	}
	return l.samples[len(l.samples)-1], true
}

// Append records one tick. A sample with Died set seals the log.
func (l *LifeLog) Append(s Sample) error {
	if l.sealed {
		return fmt.Errorf("append to life %d: %w", l.life, ErrLogSealed)
	}
	l.samples = append(l.samples, s)
	if s.Died {
		l.sealed = true
	}
	return nil
}

// Samples returns a copy of the recorded samples.
func (l *LifeLog) Samples() []Sample {
	out := make([]Sample, len(l.samples))
	copy(out, l.samples)
	return out
}

// Checksum fingerprints the recorded path. Two logs with identical samples
// in identical order produce the same checksum.
func (l *LifeLog) Checksum() uint64 {
	h := xxh3.New()
	buf := make([]byte, 0, 25)
	for _, s := range l.samples {
		buf = buf[:0]
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(s.X))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(s.Z))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(s.Angle))
		var flags byte
		if s.Attacked {
			flags |= 1
		}
		if s.Died {
			flags |= 2
		}
		buf = append(buf, flags)
		h.Write(buf)
	}
	return h.Sum64()
}
