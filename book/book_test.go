package book

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func lvl(price, amount string) Level {
	return Level{Price: d(price), Amount: d(amount)}
}

func TestNewCollapsesDuplicatesAndSorts(t *testing.T) {
	t.Parallel()
	bids := Levels{lvl("100", "1"), lvl("101", "1"), lvl("100", "2")}
	asks := Levels{lvl("105", "1"), lvl("104", "1")}

	b := New(1, nil, bids, asks)

	require.Len(t, b.Bids, 2, "duplicate bid price should collapse")
	assert.True(t, b.Bids[0].Price.Equal(d("101")), "bids must sort descending")
	assert.True(t, b.Bids[1].Price.Equal(d("100")))
	assert.True(t, b.Bids[1].Amount.Equal(d("3")), "duplicate prices should sum amounts")

	require.Len(t, b.Asks, 2)
	assert.True(t, b.Asks[0].Price.Equal(d("104")), "asks must sort ascending")
}

func TestNewDropsZeroAmountLevels(t *testing.T) {
	t.Parallel()
	b := New(1, nil, Levels{lvl("100", "0")}, Levels{})
	assert.Empty(t, b.Bids)
}

func TestApplySnapshotReplaces(t *testing.T) {
	t.Parallel()
	b := New(1, nil, Levels{lvl("100", "1")}, Levels{lvl("101", "1")})

	err := b.Apply(NewSnapshotEvent(2, nil, Levels{lvl("200", "1")}, Levels{lvl("201", "1")}))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), b.Sequence)
	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Price.Equal(d("200")))
}

func TestApplyUpdateUpsertsAndDeletes(t *testing.T) {
	t.Parallel()
	b := New(1, nil, Levels{lvl("100", "1"), lvl("99", "1")}, Levels{lvl("101", "1"), lvl("102", "1")})

	// amount=0 removes, new price inserted at sorted position, existing price updated in place
	err := b.Apply(NewUpdateEvent(2, nil, Levels{lvl("99", "0"), lvl("100", "5"), lvl("100.5", "1")}, Levels{}))
	require.NoError(t, err)

	require.Len(t, b.Bids, 2)
	assert.True(t, b.Bids[0].Price.Equal(d("100.5")), "new price inserted at sorted position")
	assert.True(t, b.Bids[1].Price.Equal(d("100")))
	assert.True(t, b.Bids[1].Amount.Equal(d("5")), "existing price updated in place")
	assert.Equal(t, uint64(2), b.Sequence)
}

func TestApplyRejectsCrossedBook(t *testing.T) {
	t.Parallel()
	b := New(1, nil, Levels{lvl("100", "1")}, Levels{lvl("101", "1")})
	err := b.Apply(NewUpdateEvent(2, nil, Levels{lvl("102", "1")}, Levels{}))
	assert.ErrorIs(t, err, ErrCrossedBook)
}

func TestBestBidAskEmptyBook(t *testing.T) {
	t.Parallel()
	b := New(1, nil, nil, nil)
	_, ok := b.BestBid()
	assert.False(t, ok)
	_, ok = b.BestAsk()
	assert.False(t, ok)
}
