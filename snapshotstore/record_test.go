package snapshotstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataRecordJSONRoundTrip(t *testing.T) {
	t.Parallel()
	in := DataRecord{
		Exchange:   "binance",
		Market:     "btc-usd",
		RecordType: RecordTrade,
		Value:      `{"price":"100.5","qty":"2"}`,
		RecordedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	line, err := MarshalLine(in)
	require.NoError(t, err)

	out, err := UnmarshalLine(line)
	require.NoError(t, err)

	assert.Equal(t, in.Exchange, out.Exchange)
	assert.Equal(t, in.Market, out.Market)
	assert.Equal(t, in.RecordType, out.RecordType)
	assert.Equal(t, in.Value, out.Value)
	assert.True(t, in.RecordedAt.Equal(out.RecordedAt))
}

func TestRecordTypeStringRoundTrip(t *testing.T) {
	t.Parallel()
	for _, rt := range []RecordType{RecordOrderBook, RecordTrade} {
		data, err := rt.MarshalJSON()
		require.NoError(t, err)
		var parsed RecordType
		require.NoError(t, parsed.UnmarshalJSON(data))
		assert.Equal(t, rt, parsed)
	}
}
