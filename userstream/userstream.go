// Package userstream normalizes heterogeneous authenticated account-event
// frames into the single tagged union described by spec.md §4.5:
// Balance | Order | Position. Parsing is best-effort — a frame that fails
// every schema match is silently dropped, advancing to the next frame;
// only connection-level failures (handled by the stream package, not
// here) drive reconnect. Grounded on the internal/jsonutil sonic wrapper
// and the teacher's typed-event-per-channel idiom in exchanges/stream.
package userstream

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/voltbridge/marketcore/internal/jsonutil"
	"github.com/voltbridge/marketcore/order"
)

// Kind tags which variant of the account-event union an Event carries.
type Kind int

// Supported kinds.
const (
	KindBalance Kind = iota
	KindOrder
	KindPosition
)

// BalanceEvent is the Balance{time, asset, free, total} variant.
type BalanceEvent struct {
	Time  time.Time
	Asset string
	Free  decimal.Decimal
	Total decimal.Decimal
}

// OrderEvent is the Order{time, symbol, side, price, qty, order_id,
// status} variant.
type OrderEvent struct {
	Time    time.Time
	Symbol  string
	Side    order.Side
	Price   decimal.Decimal
	Qty     decimal.Decimal
	OrderID order.OrderId
	Status  string
}

// PositionEvent is the Position{time, symbol, qty, side} variant.
type PositionEvent struct {
	Time   time.Time
	Symbol string
	Qty    decimal.Decimal
	Side   order.Side
}

// Event is the normalized tagged union; exactly one of Balance/Order/
// Position is populated, selected by Kind.
type Event struct {
	Kind     Kind
	Balance  BalanceEvent
	Order    OrderEvent
	Position PositionEvent
}

// wireEnvelope is the generic shape every raw frame is probed against: a
// discriminator field plus every possible payload field, all optional.
// Venue-specific field-name mapping (the actual channel catalog) is out of
// scope per spec.md §1; this wrapper only recognizes the three canonical
// shapes the normalizer must distinguish.
type wireEnvelope struct {
	Type    string          `json:"type"`
	Time    int64           `json:"time"`
	Asset   string          `json:"asset"`
	Free    string          `json:"free"`
	Total   string          `json:"total"`
	Symbol  string          `json:"symbol"`
	Side    string          `json:"side"`
	Price   string          `json:"price"`
	Qty     string          `json:"qty"`
	OrderID string          `json:"order_id"`
	Status  string          `json:"status"`
}

// Parse attempts to normalize a raw frame. ok is false when the frame does
// not match any recognized schema; callers drop the frame silently in
// that case, exactly as spec.md §4.5 requires.
func Parse(raw []byte) (Event, bool) {
	var env wireEnvelope
	if err := jsonutil.Unmarshal(raw, &env); err != nil {
		return Event{}, false
	}

	ts := time.UnixMilli(env.Time).UTC()

	switch env.Type {
	case "balance":
		free, err1 := decimal.NewFromString(env.Free)
		total, err2 := decimal.NewFromString(env.Total)
		if env.Asset == "" || err1 != nil || err2 != nil {
			return Event{}, false
		}
		return Event{Kind: KindBalance, Balance: BalanceEvent{Time: ts, Asset: env.Asset, Free: free, Total: total}}, true
	case "order":
		price, err1 := decimal.NewFromString(env.Price)
		qty, err2 := decimal.NewFromString(env.Qty)
		side, ok := parseSide(env.Side)
		if env.Symbol == "" || !ok || err1 != nil || err2 != nil {
			return Event{}, false
		}
		return Event{Kind: KindOrder, Order: OrderEvent{
			Time: ts, Symbol: env.Symbol, Side: side, Price: price, Qty: qty,
			OrderID: order.OrderId(env.OrderID), Status: env.Status,
		}}, true
	case "position":
		qty, err := decimal.NewFromString(env.Qty)
		side, ok := parseSide(env.Side)
		if env.Symbol == "" || !ok || err != nil {
			return Event{}, false
		}
		return Event{Kind: KindPosition, Position: PositionEvent{Time: ts, Symbol: env.Symbol, Qty: qty, Side: side}}, true
	default:
		return Event{}, false
	}
}

func parseSide(s string) (order.Side, bool) {
	switch s {
	case "buy", "Buy", "BUY":
		return order.Buy, true
	case "sell", "Sell", "SELL":
		return order.Sell, true
	default:
		return order.Buy, false
	}
}
