package userstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltbridge/marketcore/order"
)

func TestParseBalance(t *testing.T) {
	t.Parallel()
	raw := []byte(`{"type":"balance","time":1000,"asset":"USD","free":"100.5","total":"200"}`)
	ev, ok := Parse(raw)
	require.True(t, ok)
	assert.Equal(t, KindBalance, ev.Kind)
	assert.Equal(t, "USD", ev.Balance.Asset)
}

func TestParseOrder(t *testing.T) {
	t.Parallel()
	raw := []byte(`{"type":"order","time":1000,"symbol":"BTCUSD","side":"buy","price":"100","qty":"1","order_id":"abc","status":"filled"}`)
	ev, ok := Parse(raw)
	require.True(t, ok)
	assert.Equal(t, KindOrder, ev.Kind)
	assert.Equal(t, order.Buy, ev.Order.Side)
	assert.Equal(t, order.OrderId("abc"), ev.Order.OrderID)
}

func TestParsePosition(t *testing.T) {
	t.Parallel()
	raw := []byte(`{"type":"position","time":1000,"symbol":"BTCUSD","side":"sell","qty":"2"}`)
	ev, ok := Parse(raw)
	require.True(t, ok)
	assert.Equal(t, KindPosition, ev.Kind)
	assert.Equal(t, order.Sell, ev.Position.Side)
}

func TestParseUnrecognizedTypeDropped(t *testing.T) {
	t.Parallel()
	raw := []byte(`{"type":"heartbeat"}`)
	_, ok := Parse(raw)
	assert.False(t, ok)
}

func TestParseMalformedJSONDropped(t *testing.T) {
	t.Parallel()
	_, ok := Parse([]byte(`not json`))
	assert.False(t, ok)
}

func TestParseOrderMissingFieldsDropped(t *testing.T) {
	t.Parallel()
	raw := []byte(`{"type":"order","side":"buy"}`)
	_, ok := Parse(raw)
	assert.False(t, ok, "missing symbol must be dropped, not panic")
}
