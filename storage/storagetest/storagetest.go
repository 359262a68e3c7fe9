// Package storagetest holds behavior checks shared by every storage.Backend.
package storagetest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/afterimage/recorder"
	"github.com/pthm-cable/afterimage/storage"
)

// Lives builds n sealed logs followed by one open log.
func Lives(t testing.TB, n int) []*recorder.LifeLog {
	t.Helper()
	rec := recorder.New()
	for life := 0; life <= n; life++ {
		_, err := rec.Begin()
		require.NoError(t, err)
		for i := 0; i < life+2; i++ {
			require.NoError(t, rec.Append(recorder.Sample{
				X:        1.5 + float64(i)*0.1,
				Z:        1.5 + float64(life)*0.25,
				Angle:    float64(i * 5),
				Attacked: i == 1,
			}))
		}
		if life < n {
			require.NoError(t, rec.Append(recorder.Sample{X: 9, Z: 9, Died: true}))
		}
	}
	return rec.Logs()
}

// Run exercises the full Backend contract against a fresh backend.
func Run(t *testing.T, newBackend func(t *testing.T) storage.Backend) {
	t.Run("SaveAndLoad", func(t *testing.T) {
		b := newBackend(t)
		logs := Lives(t, 2)
		run := storage.NewRun("first", "#P#", 1.0, 60, logs)

		require.NoError(t, b.SaveRun(run))
		require.NotZero(t, run.ID)

		got, err := b.LoadRun(run.ID)
		require.NoError(t, err)
		assert.Equal(t, run.ID, got.ID)
		assert.Equal(t, "first", got.Label)
		assert.Equal(t, "#P#", got.Level)
		assert.Equal(t, 60, got.TickRate)
		assert.InDelta(t, 1.0, got.TileSize, 1e-12)
		assert.WithinDuration(t, run.StartedAt, got.StartedAt, time.Second)

		require.Len(t, got.Lives, 3)
		for i, l := range got.Lives {
			assert.Equal(t, i, l.Index)
			assert.Equal(t, logs[i].Sealed(), l.Sealed)
			assert.Equal(t, logs[i].Checksum(), l.Checksum)
			assert.Equal(t, logs[i].Samples(), l.Samples)
		}
	})

	t.Run("SealedLogsVerifyChecksums", func(t *testing.T) {
		b := newBackend(t)
		logs := Lives(t, 2)
		run := storage.NewRun("", "", 1.0, 60, logs)
		require.NoError(t, b.SaveRun(run))

		got, err := b.LoadRun(run.ID)
		require.NoError(t, err)
		sealed, err := got.SealedLogs()
		require.NoError(t, err)
		require.Len(t, sealed, 2)
		for i, l := range sealed {
			assert.True(t, l.Sealed())
			assert.Equal(t, logs[i].Checksum(), l.Checksum())
		}
	})

	t.Run("LoadMissing", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.LoadRun(999)
		assert.ErrorIs(t, err, storage.ErrRunNotFound)
		_, err = b.LatestRun()
		assert.ErrorIs(t, err, storage.ErrRunNotFound)
	})

	t.Run("LatestAndList", func(t *testing.T) {
		b := newBackend(t)
		first := storage.NewRun("a", "", 1.0, 60, Lives(t, 1))
		second := storage.NewRun("b", "", 1.0, 60, Lives(t, 3))
		require.NoError(t, b.SaveRun(first))
		require.NoError(t, b.SaveRun(second))

		latest, err := b.LatestRun()
		require.NoError(t, err)
		assert.Equal(t, second.ID, latest.ID)
		assert.Equal(t, "b", latest.Label)

		runs, err := b.ListRuns()
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, second.ID, runs[0].ID)
		assert.Equal(t, 4, runs[0].Lives)
		assert.Equal(t, first.ID, runs[1].ID)
		assert.Equal(t, 2, runs[1].Lives)
	})

	t.Run("LoadedRunIsACopy", func(t *testing.T) {
		b := newBackend(t)
		run := storage.NewRun("", "", 1.0, 60, Lives(t, 1))
		require.NoError(t, b.SaveRun(run))

		got, err := b.LoadRun(run.ID)
		require.NoError(t, err)
		got.Lives[0].Samples[0].X = -100

		again, err := b.LoadRun(run.ID)
		require.NoError(t, err)
		assert.NotEqual(t, -100.0, again.Lives[0].Samples[0].X)
	})
}
