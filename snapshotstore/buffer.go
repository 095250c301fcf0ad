package snapshotstore

import (
	"sync"
	"time"
)

// RecordBuffer is the mutex-guarded accumulation point every ingestion
// component feeds (spec.md §5): Add() appends under lock, Drain() takes the
// entire slice and replaces it with a fresh empty one so writers never
// block on the scheduler's own write/upload/register cycle.
type RecordBuffer struct {
	mu      sync.Mutex
	records []DataRecord
	clock   func() time.Time
}

// NewRecordBuffer builds an empty RecordBuffer.
func NewRecordBuffer() *RecordBuffer {
	return &RecordBuffer{clock: time.Now}
}

// Add appends a record, stamping RecordedAt with the buffer's clock if the
// caller left it zero.
func (b *RecordBuffer) Add(r DataRecord) {
	if r.RecordedAt.IsZero() {
		r.RecordedAt = b.clock()
	}
	b.mu.Lock()
	b.records = append(b.records, r)
	b.mu.Unlock()
}

// Drain returns every buffered record and resets the buffer to empty. The
// returned slice is the caller's to own; nothing in RecordBuffer aliases it.
func (b *RecordBuffer) Drain() []DataRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.records) == 0 {
		return nil
	}
	out := b.records
	b.records = nil
	return out
}

// Len reports the number of records currently buffered.
func (b *RecordBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}
