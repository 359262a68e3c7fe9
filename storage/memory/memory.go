// Package memory implements storage.Backend in process memory.
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pthm-cable/afterimage/storage"
)

// Backend stores runs in memory. Runs are copied on the way in and out.
type Backend struct {
	runs   map[uint]*storage.Run
	nextID uint
	mu     sync.RWMutex
}

// New creates a new memory backend
func New() *Backend {
	return &Backend{runs: make(map[uint]*storage.Run)}
}

// Init is a no-op for the memory backend.
func (b *Backend) Init() error { return nil }

// Close drops every stored run.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runs = make(map[uint]*storage.Run)
	return nil
}

// SaveRun stores a copy of the run and assigns its ID.
func (b *Backend) SaveRun(run *storage.Run) error {
	if run == nil {
		return fmt.Errorf("save run: nil run")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	run.ID = b.nextID
	b.runs[run.ID] = run.Clone()
	return nil
}

// LoadRun returns a copy of a stored run.
func (b *Backend) LoadRun(id uint) (*storage.Run, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	run, ok := b.runs[id]
	if !ok {
		return nil, fmt.Errorf("load run %d: %w", id, storage.ErrRunNotFound)
	}
	return run.Clone(), nil
}

// LatestRun returns a copy of the most recently saved run.
func (b *Backend) LatestRun() (*storage.Run, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	run, ok := b.runs[b.nextID]
	if !ok {
		return nil, fmt.Errorf("latest run: %w", storage.ErrRunNotFound)
	}
	return run.Clone(), nil
}

// ListRuns returns run headers, newest first.
func (b *Backend) ListRuns() ([]storage.RunInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]storage.RunInfo, 0, len(b.runs))
	for _, run := range b.runs {
		out = append(out, run.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}
