package snapshotstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestWAL(t *testing.T) *WAL {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wal.db")
	w, err := OpenWAL(path)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func TestWALStagePendingClear(t *testing.T) {
	t.Parallel()
	w := openTestWAL(t)

	records := []DataRecord{
		{Exchange: "ex", Market: "eth-usd", Value: "1"},
		{Exchange: "ex", Market: "eth-usd", Value: "2"},
	}
	id, err := w.Stage(records)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	pending, err := w.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)
	assert.Len(t, pending[0].Records, 2)

	require.NoError(t, w.Clear(id))

	pending, err = w.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestWALClearIsIdempotent(t *testing.T) {
	t.Parallel()
	w := openTestWAL(t)
	id, err := w.Stage([]DataRecord{{Exchange: "ex", Market: "m"}})
	require.NoError(t, err)

	require.NoError(t, w.Clear(id))
	require.NoError(t, w.Clear(id))
}

func TestWALPendingSurvivesMultipleBatches(t *testing.T) {
	t.Parallel()
	w := openTestWAL(t)

	id1, err := w.Stage([]DataRecord{{Exchange: "ex", Market: "m1"}})
	require.NoError(t, err)
	id2, err := w.Stage([]DataRecord{{Exchange: "ex", Market: "m2"}})
	require.NoError(t, err)

	pending, err := w.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, id1, pending[0].ID)
	assert.Equal(t, id2, pending[1].ID)
}
