package snapshotstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONCatalogRegisterIsMonotonic(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "catalog.json")
	cat, err := NewJSONCatalog(path)
	require.NoError(t, err)

	id1, err := cat.Register("exch/eth-usd", []string{"s3://bucket/exch/eth-usd/a.parquet"}, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id1)

	id2, err := cat.Register("exch/eth-usd", []string{"s3://bucket/exch/eth-usd/b.parquet"}, 2000)
	require.NoError(t, err)
	assert.Equal(t, int64(2), id2)

	current, err := cat.CurrentSnapshotID()
	require.NoError(t, err)
	assert.Equal(t, int64(2), current)

	snapshots, err := cat.Snapshots()
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Len(t, snapshots[0].Files, 1)
	assert.Len(t, snapshots[1].Files, 1)
}

func TestJSONCatalogReopenPreservesState(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "catalog.json")
	cat, err := NewJSONCatalog(path)
	require.NoError(t, err)
	_, err = cat.Register("exch/eth-usd", []string{"a.parquet"}, 1000)
	require.NoError(t, err)

	reopened, err := NewJSONCatalog(path)
	require.NoError(t, err)
	current, err := reopened.CurrentSnapshotID()
	require.NoError(t, err)
	assert.Equal(t, int64(1), current)
}

func TestJSONCatalogCurrentSnapshotIDZeroWhenEmpty(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "catalog.json")
	cat, err := NewJSONCatalog(path)
	require.NoError(t, err)
	current, err := cat.CurrentSnapshotID()
	require.NoError(t, err)
	assert.Equal(t, int64(0), current)
}
