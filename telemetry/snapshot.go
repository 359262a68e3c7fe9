package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/afterimage/recorder"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// ErrChecksumMismatch is returned when a restored life does not match the
// checksum it was saved with.
var ErrChecksumMismatch = errors.New("life checksum mismatch")

// Snapshot holds every recorded life of a run, enough to replay it.
type Snapshot struct {
	Version int `json:"version"`

	TickRate int     `json:"tick_rate"`
	Level    string  `json:"level"`
	TileSize float64 `json:"tile_size"`

	Tick  int            `json:"tick"`
	Lives []LifeSnapshot `json:"lives"`

	Summary  *RunSummary `json:"summary,omitempty"`
	Bookmark *Bookmark   `json:"bookmark,omitempty"`
}

// LifeSnapshot is the persisted form of one LifeLog.
type LifeSnapshot struct {
	Life     int               `json:"life"`
	Sealed   bool              `json:"sealed"`
	Checksum uint64            `json:"checksum"`
	Samples  []recorder.Sample `json:"samples"`
	Stats    *LifeStats        `json:"stats,omitempty"`
}

// NewLifeSnapshot captures a log and its optional stats.
func NewLifeSnapshot(log *recorder.LifeLog, stats *LifeStats) LifeSnapshot {
	return LifeSnapshot{
		Life:     log.Life(),
		Sealed:   log.Sealed(),
		Checksum: log.Checksum(),
		Samples:  log.Samples(),
		Stats:    stats,
	}
}

// Restore rebuilds the LifeLog and verifies its checksum.
func (ls LifeSnapshot) Restore() (*recorder.LifeLog, error) {
	log, err := recorder.Restore(ls.Life, ls.Samples)
	if err != nil {
		return nil, err
	}
	if sum := log.Checksum(); sum != ls.Checksum {
		return nil, fmt.Errorf("life %d: got %016x, saved %016x: %w", ls.Life, sum, ls.Checksum, ErrChecksumMismatch)
	}
	return log, nil
}

// SealedLogs restores every sealed life in the snapshot, in life order.
func (s *Snapshot) SealedLogs() ([]*recorder.LifeLog, error) {
	var logs []*recorder.LifeLog
	for _, ls := range s.Lives {
		if !ls.Sealed {
			continue
		}
		log, err := ls.Restore()
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, nil
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
