package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/afterimage/storage"
	"github.com/pthm-cable/afterimage/storage/storagetest"
)

// Verify Backend implements storage.Backend interface
var _ storage.Backend = (*Backend)(nil)

func TestBackend(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend {
		b := New()
		require.NoError(t, b.Init())
		t.Cleanup(func() { _ = b.Close() })
		return b
	})
}

func TestSaveRunStoresACopy(t *testing.T) {
	b := New()
	run := storage.NewRun("", "", 1.0, 60, storagetest.Lives(t, 1))
	require.NoError(t, b.SaveRun(run))

	run.Lives[0].Samples[0].X = -100
	run.Label = "changed"

	got, err := b.LoadRun(run.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Label)
	assert.NotEqual(t, -100.0, got.Lives[0].Samples[0].X)
}

func TestCloseDropsRuns(t *testing.T) {
	b := New()
	run := storage.NewRun("", "", 1.0, 60, storagetest.Lives(t, 1))
	require.NoError(t, b.SaveRun(run))
	require.NoError(t, b.Close())

	_, err := b.LoadRun(run.ID)
	assert.ErrorIs(t, err, storage.ErrRunNotFound)
}

func TestSaveNilRun(t *testing.T) {
	assert.Error(t, New().SaveRun(nil))
}
