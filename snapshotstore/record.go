// Package snapshotstore implements the Snapshot Scheduler of spec.md §4.8:
// drain a buffer of market records, write a columnar file, upload it to an
// object store, register it in a table-format catalog, and sweep retention.
// Grounded on original_source/jackbot-snapshot/src/lib.rs for the overall
// drain/write/upload/register/sweep sequence, and on the teacher's
// database package for the SQL driver idiom used by the two-phase WAL.
package snapshotstore

import (
	"time"

	"github.com/voltbridge/marketcore/internal/jsonutil"
)

// RecordType tags a DataRecord's payload shape.
type RecordType int

// Supported record types.
const (
	RecordOrderBook RecordType = iota
	RecordTrade
)

// String implements fmt.Stringer.
func (t RecordType) String() string {
	if t == RecordTrade {
		return "trade"
	}
	return "order_book"
}

// MarshalJSON renders RecordType as its string form, so DataRecord's
// JSON-line round-trip (spec.md §8) is human-readable on disk.
func (t RecordType) MarshalJSON() ([]byte, error) {
	return jsonutil.Marshal(t.String())
}

// UnmarshalJSON parses RecordType from its string form.
func (t *RecordType) UnmarshalJSON(data []byte) error {
	var s string
	if err := jsonutil.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "trade" {
		*t = RecordTrade
	} else {
		*t = RecordOrderBook
	}
	return nil
}

// DataRecord is one buffered market record (spec.md §3), gaining a
// RecordedAt timestamp (assigned at buffer insert) so retention sweeps and
// WAL replay can reason about record age independent of object-store file
// mtimes.
type DataRecord struct {
	Exchange   string     `json:"exchange"`
	Market     string     `json:"market"`
	RecordType RecordType `json:"record_type"`
	Value      string     `json:"value"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// MarshalLine renders a DataRecord as one JSON line.
func MarshalLine(r DataRecord) ([]byte, error) {
	return jsonutil.Marshal(r)
}

// UnmarshalLine parses one JSON line into a DataRecord.
func UnmarshalLine(line []byte) (DataRecord, error) {
	var r DataRecord
	err := jsonutil.Unmarshal(line, &r)
	return r, err
}
