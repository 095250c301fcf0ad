package transformer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltbridge/marketcore/book"
	"github.com/voltbridge/marketcore/marketerr"
	"github.com/voltbridge/marketcore/subscription"
	"github.com/voltbridge/marketcore/venue"
)

func buildSingleIDTransformer(t *testing.T) (*Transformer[string], subscription.ID) {
	t.Helper()
	id := subscription.New("orderbook", "BTCUSDT")
	keys := map[subscription.ID]string{id: "BTCUSDT"}
	dialects := map[subscription.ID]venue.SequencerKind{id: venue.SequencerSingleID}
	snapshots := map[subscription.ID]book.Event{id: book.NewSnapshotEvent(100, nil, nil, nil)}
	tr, err := New("bybit", keys, dialects, snapshots)
	require.NoError(t, err)
	return tr, id
}

func TestNewRequiresMatchingSnapshot(t *testing.T) {
	t.Parallel()
	id := subscription.New("orderbook", "BTCUSDT")
	keys := map[subscription.ID]string{id: "BTCUSDT"}
	dialects := map[subscription.ID]venue.SequencerKind{id: venue.SequencerSingleID}

	_, err := New("bybit", keys, dialects, map[subscription.ID]book.Event{})
	var missing *marketerr.InitialSnapshotMissing
	require.ErrorAs(t, err, &missing)
}

func TestNewRejectsNonSnapshotInit(t *testing.T) {
	t.Parallel()
	id := subscription.New("orderbook", "BTCUSDT")
	keys := map[subscription.ID]string{id: "BTCUSDT"}
	dialects := map[subscription.ID]venue.SequencerKind{id: venue.SequencerSingleID}
	snapshots := map[subscription.ID]book.Event{id: book.NewUpdateEvent(100, nil, nil, nil)}

	_, err := New("bybit", keys, dialects, snapshots)
	var invalid *marketerr.InitialSnapshotInvalid
	require.ErrorAs(t, err, &invalid)
}

func TestTransformControlFrameReturnsEmpty(t *testing.T) {
	t.Parallel()
	tr, _ := buildSingleIDTransformer(t)
	results := tr.Transform(WireMessage{})
	assert.Empty(t, results)
}

func TestTransformUnknownSubscriptionIsSingleError(t *testing.T) {
	t.Parallel()
	tr, _ := buildSingleIDTransformer(t)
	other := subscription.New("orderbook", "ETHUSDT")
	results := tr.Transform(WireMessage{SubscriptionID: &other})
	require.Len(t, results, 1)
	var unident *marketerr.Unidentifiable
	assert.ErrorAs(t, results[0].Err, &unident)
}

func TestTransformAcceptEmitsUpdate(t *testing.T) {
	t.Parallel()
	tr, id := buildSingleIDTransformer(t)
	results := tr.Transform(WireMessage{
		SubscriptionID: &id,
		Sequence:       101,
		Bids:           book.Levels{{}},
	})
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "BTCUSDT", results[0].Event.Instrument)
	assert.Equal(t, book.EventUpdate, results[0].Event.Kind.Kind)
}

func TestTransformDropReturnsEmpty(t *testing.T) {
	t.Parallel()
	tr, id := buildSingleIDTransformer(t)
	results := tr.Transform(WireMessage{SubscriptionID: &id, Sequence: 50})
	assert.Empty(t, results, "stale/duplicate update must be silently dropped")
}

func TestTransformGapIsSingleError(t *testing.T) {
	t.Parallel()
	tr, id := buildSingleIDTransformer(t)
	results := tr.Transform(WireMessage{SubscriptionID: &id, Sequence: 200})
	require.Len(t, results, 1)
	var invalid *marketerr.InvalidSequence
	require.ErrorAs(t, results[0].Err, &invalid)
}

// TestTransformPairIDScenario exercises scenario 2 from spec.md §8 through
// the Transformer, rather than the sequencer package directly.
func TestTransformPairIDScenario(t *testing.T) {
	t.Parallel()
	id := subscription.New("spot.order_book_update", "ETH_USDT")
	keys := map[subscription.ID]string{id: "ETH_USDT"}
	dialects := map[subscription.ID]venue.SequencerKind{id: venue.SequencerPairID}
	snapshots := map[subscription.ID]book.Event{id: book.NewSnapshotEvent(100, nil, nil, nil)}
	tr, err := New("binance_spot", keys, dialects, snapshots)
	require.NoError(t, err)

	results := tr.Transform(WireMessage{SubscriptionID: &id, FirstUpdateID: 99, LastUpdateID: 101})
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, uint64(101), results[0].Event.Kind.Sequence)

	results = tr.Transform(WireMessage{SubscriptionID: &id, FirstUpdateID: 115, LastUpdateID: 120})
	require.Len(t, results, 1)
	var invalid *marketerr.InvalidSequence
	require.ErrorAs(t, results[0].Err, &invalid)
}
