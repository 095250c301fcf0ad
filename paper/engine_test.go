package paper

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltbridge/marketcore/book"
	"github.com/voltbridge/marketcore/marketerr"
	"github.com/voltbridge/marketcore/order"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func lvl(price, amount string) book.Level {
	return book.Level{Price: d(price), Amount: d(amount)}
}

// TestEngineMarketBuyScenario exercises spec.md §8 scenario 3.
func TestEngineMarketBuyScenario(t *testing.T) {
	t.Parallel()
	b := NewBook(nil, book.Levels{lvl("101", "1"), lvl("102", "2")})
	e := NewEngine(decimal.Zero, map[string]decimal.Decimal{"USD": d("1000")})
	e.AddInstrument("BTCUSD", "BTC", "USD", b)

	req := order.Request{
		Key:      order.Key{Exchange: "test", Instrument: "BTCUSD", Strategy: "s", Cid: "c1"},
		Side:     order.Buy,
		Kind:     order.Market,
		Quantity: d("2"),
	}
	o, trade, snapshot := e.OpenOrder(req)

	require.Equal(t, order.StateOpen, o.State.Kind)
	assert.True(t, o.State.FilledQuantity.Equal(d("2")))
	require.NotNil(t, trade)
	assert.True(t, trade.Price.Equal(d("101.5")), "avg price got %s", trade.Price)

	require.Len(t, b.Asks, 1)
	assert.True(t, b.Asks[0].Price.Equal(d("102")))
	assert.True(t, b.Asks[0].Amount.Equal(d("1")))

	require.NotEmpty(t, snapshot)
	assert.True(t, e.Balance("USD").Equal(d("797")), "balance got %s", e.Balance("USD"))
}

func TestEngineRejectsNonMarketOrder(t *testing.T) {
	t.Parallel()
	e := NewEngine(decimal.Zero, nil)
	req := order.Request{Key: order.Key{Instrument: "BTCUSD"}, Kind: order.Limit, Quantity: d("1")}
	o, trade, snapshot := e.OpenOrder(req)
	require.Equal(t, order.StateRejected, o.State.Kind)
	assert.Equal(t, marketerr.OrderRejected, o.State.Rejected.Kind)
	assert.Nil(t, trade)
	assert.Nil(t, snapshot)
}

func TestEngineRejectsUnknownInstrument(t *testing.T) {
	t.Parallel()
	e := NewEngine(decimal.Zero, nil)
	req := order.Request{Key: order.Key{Instrument: "NOPE"}, Kind: order.Market, Quantity: d("1")}
	o, _, _ := e.OpenOrder(req)
	require.Equal(t, order.StateRejected, o.State.Kind)
	assert.Equal(t, marketerr.InstrumentInvalid, o.State.Rejected.Kind)
}

func TestEngineRejectsInsufficientBalance(t *testing.T) {
	t.Parallel()
	b := NewBook(nil, book.Levels{lvl("101", "1")})
	e := NewEngine(decimal.Zero, map[string]decimal.Decimal{"USD": d("10")})
	e.AddInstrument("BTCUSD", "BTC", "USD", b)

	req := order.Request{Key: order.Key{Instrument: "BTCUSD"}, Side: order.Buy, Kind: order.Market, Quantity: d("1")}
	o, trade, _ := e.OpenOrder(req)

	require.Equal(t, order.StateRejected, o.State.Kind)
	assert.Equal(t, marketerr.BalanceInsufficient, o.State.Rejected.Kind)
	assert.Nil(t, trade)
	require.Len(t, b.Asks, 1, "rejected order must not mutate the book")
}

func TestEngineMarketOrderExceedingDepthFillsAvailableLiquidity(t *testing.T) {
	t.Parallel()
	b := NewBook(nil, book.Levels{lvl("100", "1")})
	e := NewEngine(decimal.Zero, map[string]decimal.Decimal{"USD": d("1000")})
	e.AddInstrument("BTCUSD", "BTC", "USD", b)

	req := order.Request{Key: order.Key{Instrument: "BTCUSD"}, Side: order.Buy, Kind: order.Market, Quantity: d("5")}
	o, trade, _ := e.OpenOrder(req)

	require.Equal(t, order.StateOpen, o.State.Kind)
	assert.True(t, o.State.FilledQuantity.Equal(d("1")), "must not fabricate liquidity")
	assert.True(t, trade.Quantity.Equal(d("1")))
	assert.Empty(t, b.Asks)
}

// TestEngineMarketSellOverDepthDebitsOnlyFilledQuantity guards against
// debiting the requested quantity instead of the quantity actually matched
// against the book: a Sell for more than available depth must only cost the
// base-asset amount that was actually filled.
func TestEngineMarketSellOverDepthDebitsOnlyFilledQuantity(t *testing.T) {
	t.Parallel()
	b := NewBook(book.Levels{lvl("100", "1")}, nil)
	e := NewEngine(decimal.Zero, map[string]decimal.Decimal{"BTC": d("10")})
	e.AddInstrument("BTCUSD", "BTC", "USD", b)

	req := order.Request{Key: order.Key{Instrument: "BTCUSD"}, Side: order.Sell, Kind: order.Market, Quantity: d("5")}
	o, trade, _ := e.OpenOrder(req)

	require.Equal(t, order.StateOpen, o.State.Kind)
	assert.True(t, trade.Quantity.Equal(d("1")), "must not fabricate liquidity")
	assert.True(t, e.Balance("BTC").Equal(d("9")), "must debit only the filled quantity, got %s", e.Balance("BTC"))
}

// TestEngineMarketSellAcceptsOrderFillableFromFreeBalance guards the mirror
// failure mode: rejecting a Sell as BalanceInsufficient by checking the
// requested quantity, when only the fillable quantity should be checked.
func TestEngineMarketSellAcceptsOrderFillableFromFreeBalance(t *testing.T) {
	t.Parallel()
	b := NewBook(book.Levels{lvl("100", "1")}, nil)
	e := NewEngine(decimal.Zero, map[string]decimal.Decimal{"BTC": d("1")})
	e.AddInstrument("BTCUSD", "BTC", "USD", b)

	req := order.Request{Key: order.Key{Instrument: "BTCUSD"}, Side: order.Sell, Kind: order.Market, Quantity: d("5")}
	o, trade, _ := e.OpenOrder(req)

	require.Equal(t, order.StateOpen, o.State.Kind, "1 BTC of depth is fillable and must not be rejected")
	assert.True(t, trade.Quantity.Equal(d("1")))
	assert.True(t, e.Balance("BTC").Equal(d("0")))
}

func TestEngineAppliesFee(t *testing.T) {
	t.Parallel()
	b := NewBook(nil, book.Levels{lvl("100", "1")})
	e := NewEngine(d("0.01"), map[string]decimal.Decimal{"USD": d("1000")})
	e.AddInstrument("BTCUSD", "BTC", "USD", b)

	req := order.Request{Key: order.Key{Instrument: "BTCUSD"}, Side: order.Buy, Kind: order.Market, Quantity: d("1")}
	o, trade, _ := e.OpenOrder(req)

	require.Equal(t, order.StateOpen, o.State.Kind)
	assert.True(t, trade.Fee.Amount.Equal(d("1")), "fee got %s", trade.Fee.Amount)
	assert.Equal(t, "USD", trade.Fee.Asset)
	assert.True(t, e.Balance("USD").Equal(d("899")), "balance got %s", e.Balance("USD"))
}
