// Package storage persists recorded runs so their lives can be replayed later.
package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/pthm-cable/afterimage/recorder"
)

var (
	// ErrRunNotFound is returned when a run id is unknown to the backend.
	ErrRunNotFound = errors.New("run not found")
	// ErrCorruptLife is returned when a stored life no longer matches its checksum.
	ErrCorruptLife = errors.New("stored life does not match its checksum")
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// SaveRun stores the run with all its lives and assigns run.ID.
	SaveRun(run *Run) error
	// LoadRun returns a stored run with its lives in life order.
	LoadRun(id uint) (*Run, error)
	// LatestRun returns the most recently saved run.
	LatestRun() (*Run, error)
	// ListRuns returns run headers, newest first.
	ListRuns() ([]RunInfo, error)
}

// RunInfo is a stored run without its lives.
type RunInfo struct {
	ID        uint
	Label     string
	StartedAt time.Time
	Lives     int
}

// Run is one simulation run: the level it was played on and every life recorded.
type Run struct {
	ID        uint
	Label     string
	StartedAt time.Time
	TickRate  int
	Level     string
	TileSize  float64
	Lives     []Life
}

// Life is one stored LifeLog.
type Life struct {
	Index    int
	Sealed   bool
	Checksum uint64
	Samples  []recorder.Sample
}

// NewRun captures the given logs as a run.
func NewRun(label, level string, tileSize float64, tickRate int, logs []*recorder.LifeLog) *Run {
	run := &Run{
		Label:     label,
		StartedAt: time.Now().UTC(),
		TickRate:  tickRate,
		Level:     level,
		TileSize:  tileSize,
		Lives:     make([]Life, 0, len(logs)),
	}
	for _, l := range logs {
		run.Lives = append(run.Lives, Life{
			Index:    l.Life(),
			Sealed:   l.Sealed(),
			Checksum: l.Checksum(),
			Samples:  l.Samples(),
		})
	}
	return run
}

// Info returns the run header.
func (r *Run) Info() RunInfo {
	return RunInfo{ID: r.ID, Label: r.Label, StartedAt: r.StartedAt, Lives: len(r.Lives)}
}

// Restore rebuilds the life's log and verifies it against the stored checksum.
func (l Life) Restore() (*recorder.LifeLog, error) {
	log, err := recorder.Restore(l.Index, l.Samples)
	if err != nil {
		return nil, err
	}
	if log.Checksum() != l.Checksum {
		return nil, fmt.Errorf("life %d: %w", l.Index, ErrCorruptLife)
	}
	return log, nil
}

// SealedLogs restores every sealed life of the run in life order.
func (r *Run) SealedLogs() ([]*recorder.LifeLog, error) {
	var logs []*recorder.LifeLog
	for _, l := range r.Lives {
		if !l.Sealed {
			continue
		}
		log, err := l.Restore()
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", r.ID, err)
		}
		logs = append(logs, log)
	}
	return logs, nil
}

// Clone returns a deep copy of the run.
func (r *Run) Clone() *Run {
	out := *r
	out.Lives = make([]Life, len(r.Lives))
	for i, l := range r.Lives {
		out.Lives[i] = l
		out.Lives[i].Samples = append([]recorder.Sample(nil), l.Samples...)
	}
	return &out
}
