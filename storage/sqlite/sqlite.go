// Package sqlitestorage implements storage.Backend on SQLite through GORM.
// An empty path opens a shared in-memory database.
package sqlitestorage

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pthm-cable/afterimage/recorder"
	"github.com/pthm-cable/afterimage/storage"
)

// RunRecord is the stored header of a run.
type RunRecord struct {
	gorm.Model
	Label     string       `json:"label" gorm:"size:200"`
	StartedAt time.Time    `json:"startedAt" gorm:"index"`
	TickRate  int          `json:"tickRate"`
	Level     string       `json:"level"`
	TileSize  float64      `json:"tileSize"`
	Lives     []LifeRecord `json:"lives" gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

func (*RunRecord) TableName() string { return "runs" }

// LifeRecord is one stored life. The checksum is kept as hex since SQLite
// integers are signed.
type LifeRecord struct {
	ID        uint           `json:"id" gorm:"primarykey;autoIncrement"`
	RunID     uint           `json:"runId" gorm:"index:idx_life_run,unique,priority:1"`
	LifeIndex int            `json:"lifeIndex" gorm:"index:idx_life_run,unique,priority:2"`
	Sealed    bool           `json:"sealed"`
	Checksum  string         `json:"checksum" gorm:"size:16"`
	Samples   []SampleRecord `json:"samples" gorm:"foreignKey:LifeID;constraint:OnDelete:CASCADE"`
}

func (*LifeRecord) TableName() string { return "lives" }

// SampleRecord is one tick of a stored life.
type SampleRecord struct {
	ID       uint    `json:"id" gorm:"primarykey;autoIncrement"`
	LifeID   uint    `json:"lifeId" gorm:"index:idx_sample_life,priority:1"`
	Tick     int     `json:"tick" gorm:"index:idx_sample_life,priority:2"`
	X        float64 `json:"x"`
	Z        float64 `json:"z"`
	Angle    float64 `json:"angle"`
	Attacked bool    `json:"attacked"`
	Died     bool    `json:"died"`
}

func (*SampleRecord) TableName() string { return "samples" }

// Models lists every table the backend migrates.
var Models = []any{&RunRecord{}, &LifeRecord{}, &SampleRecord{}}

// Backend stores runs in a SQLite database.
type Backend struct {
	path string
	db   *gorm.DB
}

// New creates a SQLite backend for the given file path. The database is
// opened by Init.
func New(path string) *Backend {
	return &Backend{path: path}
}

// Open connects to the database and migrates the schema.
func Open(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        500,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return db, nil
}

// Init opens the database.
func (b *Backend) Init() error {
	db, err := Open(b.path)
	if err != nil {
		return err
	}
	b.db = db
	return nil
}

// Close closes the underlying connection.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	b.db = nil
	return sqlDB.Close()
}

// SaveRun writes the run, its lives and their samples in one transaction.
func (b *Backend) SaveRun(run *storage.Run) error {
	if run == nil {
		return fmt.Errorf("save run: nil run")
	}
	if b.db == nil {
		return fmt.Errorf("save run: backend not initialized")
	}

	rec := toRecord(run)
	err := b.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(rec).Error
	})
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	run.ID = rec.ID
	return nil
}

// LoadRun reads a run with its lives and samples.
func (b *Backend) LoadRun(id uint) (*storage.Run, error) {
	return b.load(fmt.Sprintf("load run %d", id), func(db *gorm.DB, rec *RunRecord) error {
		return db.First(rec, id).Error
	})
}

// LatestRun reads the most recently saved run.
func (b *Backend) LatestRun() (*storage.Run, error) {
	return b.load("latest run", func(db *gorm.DB, rec *RunRecord) error {
		return db.Order("id desc").First(rec).Error
	})
}

// ListRuns returns run headers, newest first.
func (b *Backend) ListRuns() ([]storage.RunInfo, error) {
	if b.db == nil {
		return nil, fmt.Errorf("list runs: backend not initialized")
	}

	var recs []RunRecord
	if err := b.db.Order("id desc").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	var counts []struct {
		RunID uint
		N     int
	}
	err := b.db.Model(&LifeRecord{}).
		Select("run_id, count(*) as n").
		Group("run_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("count lives: %w", err)
	}
	lives := make(map[uint]int, len(counts))
	for _, c := range counts {
		lives[c.RunID] = c.N
	}

	out := make([]storage.RunInfo, len(recs))
	for i, r := range recs {
		out[i] = storage.RunInfo{ID: r.ID, Label: r.Label, StartedAt: r.StartedAt, Lives: lives[r.ID]}
	}
	return out, nil
}

func (b *Backend) load(op string, find func(*gorm.DB, *RunRecord) error) (*storage.Run, error) {
	if b.db == nil {
		return nil, fmt.Errorf("%s: backend not initialized", op)
	}

	var rec RunRecord
	db := b.db.
		Preload("Lives", func(db *gorm.DB) *gorm.DB { return db.Order("life_index") }).
		Preload("Lives.Samples", func(db *gorm.DB) *gorm.DB { return db.Order("tick") })
	if err := find(db, &rec); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrRunNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	run, err := fromRecord(&rec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return run, nil
}

func toRecord(run *storage.Run) *RunRecord {
	rec := &RunRecord{
		Label:     run.Label,
		StartedAt: run.StartedAt,
		TickRate:  run.TickRate,
		Level:     run.Level,
		TileSize:  run.TileSize,
		Lives:     make([]LifeRecord, len(run.Lives)),
	}
	for i, l := range run.Lives {
		lr := LifeRecord{
			LifeIndex: l.Index,
			Sealed:    l.Sealed,
			Checksum:  fmt.Sprintf("%016x", l.Checksum),
			Samples:   make([]SampleRecord, len(l.Samples)),
		}
		for tick, s := range l.Samples {
			lr.Samples[tick] = SampleRecord{
				Tick:     tick,
				X:        s.X,
				Z:        s.Z,
				Angle:    s.Angle,
				Attacked: s.Attacked,
				Died:     s.Died,
			}
		}
		rec.Lives[i] = lr
	}
	return rec
}

func fromRecord(rec *RunRecord) (*storage.Run, error) {
	run := &storage.Run{
		ID:        rec.ID,
		Label:     rec.Label,
		StartedAt: rec.StartedAt,
		TickRate:  rec.TickRate,
		Level:     rec.Level,
		TileSize:  rec.TileSize,
		Lives:     make([]storage.Life, len(rec.Lives)),
	}
	for i, lr := range rec.Lives {
		sum, err := strconv.ParseUint(lr.Checksum, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("life %d checksum %q: %w", lr.LifeIndex, lr.Checksum, err)
		}
		life := storage.Life{
			Index:    lr.LifeIndex,
			Sealed:   lr.Sealed,
			Checksum: sum,
			Samples:  make([]recorder.Sample, len(lr.Samples)),
		}
		for j, s := range lr.Samples {
			life.Samples[j] = recorder.Sample{
				X:        s.X,
				Z:        s.Z,
				Angle:    s.Angle,
				Attacked: s.Attacked,
				Died:     s.Died,
			}
		}
		run.Lives[i] = life
	}
	return run, nil
}
