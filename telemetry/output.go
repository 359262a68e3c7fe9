package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/afterimage/config"
	"github.com/pthm-cable/afterimage/recorder"
)

// SampleRecord is one recorded tick flattened for samples.csv.
type SampleRecord struct {
	Life     int     `csv:"life"`
	Tick     int     `csv:"tick"`
	X        float64 `csv:"x"`
	Z        float64 `csv:"z"`
	Angle    float64 `csv:"angle"`
	Attacked bool    `csv:"attacked"`
	Died     bool    `csv:"died"`
}

// csvFile is an output CSV that writes its header once.
type csvFile struct {
	name          string
	f             *os.File
	headerWritten bool
}

func (c *csvFile) write(records any) error {
	if !c.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, c.f); err != nil {
			return fmt.Errorf("writing %s: %w", c.name, err)
		}
		c.headerWritten = true
		return nil
	}
	// Subsequent writes skip headers
	if err := gocsv.MarshalWithoutHeaders(records, c.f); err != nil {
		return fmt.Errorf("writing %s: %w", c.name, err)
	}
	return nil
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir       string
	telemetry *csvFile
	lives     *csvFile
	samples   *csvFile
	perf      *csvFile
	bookmarks *csvFile
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	for _, slot := range []struct {
		dst  **csvFile
		name string
	}{
		{&om.telemetry, "telemetry.csv"},
		{&om.lives, "lives.csv"},
		{&om.samples, "samples.csv"},
		{&om.perf, "perf.csv"},
		{&om.bookmarks, "bookmarks.csv"},
	} {
		f, err := os.Create(filepath.Join(dir, slot.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", slot.name, err)
		}
		*slot.dst = &csvFile{name: slot.name, f: f}
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.telemetry.write([]WindowStats{stats})
}

// WriteLife writes a finished life record to lives.csv.
func (om *OutputManager) WriteLife(stats LifeStats) error {
	if om == nil {
		return nil
	}
	return om.lives.write([]LifeStats{stats})
}

// WriteSamples writes every sample of a life to samples.csv.
func (om *OutputManager) WriteSamples(log *recorder.LifeLog) error {
	if om == nil || log.Len() == 0 {
		return nil
	}
	records := make([]SampleRecord, log.Len())
	for i := range records {
		s := log.At(i)
		records[i] = SampleRecord{
			Life:     log.Life(),
			Tick:     i,
			X:        s.X,
			Z:        s.Z,
			Angle:    s.Angle,
			Attacked: s.Attacked,
			Died:     s.Died,
		}
	}
	return om.samples.write(records)
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	return om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	return om.bookmarks.write([]Bookmark{b})
}

// WriteSummary saves the run summary as JSON.
func (om *OutputManager) WriteSummary(sum RunSummary) error {
	if om == nil {
		return nil
	}

	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "summary.json"), data, 0644); err != nil {
		return fmt.Errorf("writing summary.json: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, c := range []*csvFile{om.telemetry, om.lives, om.samples, om.perf, om.bookmarks} {
		if c == nil {
			continue
		}
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
