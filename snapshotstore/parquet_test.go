package snapshotstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteParquetProducesNamedFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	records := []DataRecord{
		{Exchange: "exch", Market: "eth-usd", RecordType: RecordOrderBook, Value: "v1", RecordedAt: time.Unix(1, 0)},
		{Exchange: "exch", Market: "eth-usd", RecordType: RecordTrade, Value: "v2", RecordedAt: time.Unix(2, 0)},
	}

	path, err := WriteParquet(dir, 1700000000000, records)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "snapshot_1700000000000.parquet"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteParquetEmptyRecordsStillWritesFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path, err := WriteParquet(dir, 1, nil)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)
}
