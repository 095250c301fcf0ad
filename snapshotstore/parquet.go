package snapshotstore

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	parquetwriter "github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// parquetRow is the columnar schema snapshot files are written with. Tags
// follow xitongsys/parquet-go's struct-tag convention (name/type/repetition
// encoded inline) since the library has no reflection-free alternative.
type parquetRow struct {
	Exchange   string `parquet:"name=exchange, type=BYTE_ARRAY, convertedtype=UTF8"`
	Market     string `parquet:"name=market, type=BYTE_ARRAY, convertedtype=UTF8"`
	RecordType string `parquet:"name=record_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	Value      string `parquet:"name=value, type=BYTE_ARRAY, convertedtype=UTF8"`
	RecordedAt int64  `parquet:"name=recorded_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
}

// WriteParquet writes records as a columnar file at dir/snapshot_<epochMs>.parquet
// (spec.md §4.8) and returns the path written.
func WriteParquet(dir string, epochMs int64, records []DataRecord) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.parquet", epochMs))

	fw, err := parquetwriter.NewLocalFileWriter(path)
	if err != nil {
		return "", errors.Wrap(err, "open parquet file")
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 4)
	if err != nil {
		return "", errors.Wrap(err, "create parquet writer")
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range records {
		row := parquetRow{
			Exchange:   r.Exchange,
			Market:     r.Market,
			RecordType: r.RecordType.String(),
			Value:      r.Value,
			RecordedAt: r.RecordedAt.UnixMilli(),
		}
		if err := pw.Write(row); err != nil {
			return "", errors.Wrap(err, "write parquet row")
		}
	}

	if err := pw.WriteStop(); err != nil {
		return "", errors.Wrap(err, "finalize parquet file")
	}
	return path, nil
}
