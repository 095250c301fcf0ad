// Package transformer routes wire messages to validated market events
// (spec.md §4.3): extract a SubscriptionId, resolve it to per-instrument
// metadata, delegate sequencing, and emit zero or more MarketEvents. It is
// single-threaded per session; callers must not share a Transformer across
// goroutines without external synchronization.
package transformer

import (
	"time"

	"github.com/voltbridge/marketcore/book"
	"github.com/voltbridge/marketcore/marketerr"
	"github.com/voltbridge/marketcore/marketevent"
	"github.com/voltbridge/marketcore/sequencer"
	"github.com/voltbridge/marketcore/subscription"
	"github.com/voltbridge/marketcore/venue"
)

// WireMessage is the canonical parsed envelope of spec.md §6. Which of
// Sequence/PrevSequence/FirstUpdateID/LastUpdateID are meaningful depends
// on the instrument's sequencer dialect; unused fields are simply ignored.
// A message with a nil SubscriptionID is a non-matching control frame.
type WireMessage struct {
	SubscriptionID *subscription.ID
	TimeExchange   *time.Time
	IsSnapshot     bool
	Sequence       uint64
	PrevSequence   uint64
	FirstUpdateID  uint64
	LastUpdateID   uint64
	Bids           book.Levels
	Asks           book.Levels
}

// instrumentMeta is the `{key, sequencer}` pair of spec.md §4.3.
type instrumentMeta[K any] struct {
	key     K
	dialect venue.SequencerKind
	seq     sequencer.Sequencer
}

// Result wraps either a successfully produced MarketEvent or a per-item
// error (spec.md: "Delegate to the Sequencer; ... Fail returns single
// error").
type Result[K any] struct {
	Event marketevent.Event[K, book.Event]
	Err   error
}

// Transformer routes wire messages for a fixed set of instrument
// subscriptions established at construction time.
type Transformer[K any] struct {
	exchange string
	meta     map[subscription.ID]*instrumentMeta[K]
}

// New constructs a Transformer. For every id in keys there must be a
// matching Snapshot event in snapshots; otherwise construction fails with
// InitialSnapshotMissing/Invalid (spec.md §4.3 init policy). An id absent
// from dialects uses the single-ID dialect (SequencerKind's zero value);
// ids present only in dialects or snapshots are ignored.
func New[K any](
	exchange string,
	keys map[subscription.ID]K,
	dialects map[subscription.ID]venue.SequencerKind,
	snapshots map[subscription.ID]book.Event,
) (*Transformer[K], error) {
	meta := make(map[subscription.ID]*instrumentMeta[K], len(keys))
	for id, key := range keys {
		snap, ok := snapshots[id]
		if !ok {
			return nil, marketerr.NewInitialSnapshotMissing(string(id))
		}
		if snap.Kind != book.EventSnapshot {
			return nil, marketerr.NewInitialSnapshotInvalid("subscription " + string(id) + " was given an Update, not a Snapshot")
		}
		dialect := dialects[id]
		meta[id] = &instrumentMeta[K]{
			key:     key,
			dialect: dialect,
			seq:     dialect.NewSequencer(snapshotPivot(dialect, snap)),
		}
	}
	return &Transformer[K]{exchange: exchange, meta: meta}, nil
}

// snapshotPivot extracts the sequence number a sequencer should be seeded
// with from the initial snapshot: the snapshot's Sequence, for every
// dialect.
func snapshotPivot(dialect venue.SequencerKind, snap book.Event) uint64 {
	return snap.Sequence
}

// Transform implements spec.md §4.3's three-step contract.
func (t *Transformer[K]) Transform(msg WireMessage) []Result[K] {
	if msg.SubscriptionID == nil {
		return nil
	}
	meta, ok := t.meta[*msg.SubscriptionID]
	if !ok {
		return []Result[K]{{Err: marketerr.NewUnidentifiable(string(*msg.SubscriptionID))}}
	}

	if msg.IsSnapshot {
		ev := book.NewSnapshotEvent(msg.Sequence, msg.TimeExchange, msg.Bids, msg.Asks)
		return []Result[K]{{Event: marketevent.New(t.exchange, meta.key, msg.TimeExchange, ev)}}
	}

	update := sequencer.Update{
		Seq:     msg.Sequence,
		PrevSeq: msg.PrevSequence,
		First:   msg.FirstUpdateID,
		Last:    msg.LastUpdateID,
	}
	outcome, err := meta.seq.Validate(update)
	if err != nil {
		return []Result[K]{{Err: err}}
	}
	if outcome == sequencer.Drop {
		return nil
	}

	bookSeq := msg.Sequence
	if meta.dialect == venue.SequencerPairID {
		bookSeq = msg.LastUpdateID
	}
	ev := book.NewUpdateEvent(bookSeq, msg.TimeExchange, msg.Bids, msg.Asks)
	return []Result[K]{{Event: marketevent.New(t.exchange, meta.key, msg.TimeExchange, ev)}}
}
