package book

import "time"

// EventKind tags an Event as a full replacement or an incremental merge.
type EventKind int

// Event kinds.
const (
	EventSnapshot EventKind = iota
	EventUpdate
)

// Event is the tagged OrderBookEvent of spec.md §3: a Snapshot carries a
// full replacement side set, an Update carries only the changed levels.
type Event struct {
	Kind         EventKind
	Sequence     uint64
	TimeExchange *time.Time
	Bids         Levels
	Asks         Levels
}

// NewSnapshotEvent builds a full-replacement Event.
func NewSnapshotEvent(sequence uint64, timeExchange *time.Time, bids, asks Levels) Event {
	return Event{Kind: EventSnapshot, Sequence: sequence, TimeExchange: timeExchange, Bids: bids, Asks: asks}
}

// NewUpdateEvent builds an incremental-merge Event.
func NewUpdateEvent(sequence uint64, timeExchange *time.Time, bids, asks Levels) Event {
	return Event{Kind: EventUpdate, Sequence: sequence, TimeExchange: timeExchange, Bids: bids, Asks: asks}
}
