// Package order defines the execution-side data model shared by the Paper
// Engine and Safety Monitor (spec.md §3): orders, trades, balances, and the
// client/venue identifiers that thread through both. Grounded on
// exchanges/order/limits.go's Type/Side enums and the teacher's general
// "state as data, not exceptions" idiom for terminal order outcomes.
package order

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/voltbridge/marketcore/marketerr"
)

// Side is the direction of an order or trade.
type Side int

// Supported sides.
const (
	Buy Side = iota
	Sell
)

// String implements fmt.Stringer.
func (s Side) String() string {
	if s == Sell {
		return "sell"
	}
	return "buy"
}

// Opposite returns the other side, used by the Safety Monitor to build the
// exit order's side.
func (s Side) Opposite() Side {
	if s == Sell {
		return Buy
	}
	return Sell
}

// Kind is the order type. Only Market is accepted by the Paper Engine
// (spec.md §4.6); the others are modeled so the rejection path has
// something concrete to reject.
type Kind int

// Supported kinds.
const (
	Market Kind = iota
	Limit
)

func (k Kind) String() string {
	if k == Limit {
		return "limit"
	}
	return "market"
}

// TimeInForce qualifies how long an order request remains workable.
type TimeInForce int

// Supported qualifiers.
const (
	GoodTilCancel TimeInForce = iota
	ImmediateOrCancel
)

func (t TimeInForce) String() string {
	if t == ImmediateOrCancel {
		return "immediate_or_cancel"
	}
	return "good_til_cancel"
}

// ClientOrderId is client-assigned and idempotent for the venue.
type ClientOrderId string

// NewClientOrderID allocates a fresh, venue-agnostic client order id. Used
// whenever a caller needs a new cid rather than reusing one carried by an
// existing order (e.g. the Safety Monitor's liquidation exit, which links
// back to the original cid instead of reusing it).
func NewClientOrderID() ClientOrderId {
	id, err := uuid.NewV4()
	if err != nil {
		return ClientOrderId(fmt.Sprintf("cid-%d", time.Now().UnixNano()))
	}
	return ClientOrderId(id.String())
}

// OrderId is venue-assigned, produced only once an order is accepted.
type OrderId string

// Key is an order's logical identity (spec.md §3): the tuple a caller uses
// to look up or correlate an order regardless of venue-assigned id.
type Key struct {
	Exchange   string
	Instrument string
	Strategy   string
	Cid        ClientOrderId
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.Exchange, k.Instrument, k.Strategy, k.Cid)
}

// StateKind tags which variant an order State holds.
type StateKind int

// Supported state kinds.
const (
	StateOpen StateKind = iota
	StateRejected
)

// State carries either the Open{id, filled_quantity} payload or a terminal
// Rejected(*marketerr.Rejected) — never both.
type State struct {
	Kind            StateKind
	ID              OrderId
	FilledQuantity  decimal.Decimal
	Rejected        *marketerr.Rejected
}

// Open builds an Open state.
func Open(id OrderId, filledQty decimal.Decimal) State {
	return State{Kind: StateOpen, ID: id, FilledQuantity: filledQty}
}

// RejectedState builds a terminal Rejected state.
func RejectedState(reject *marketerr.Rejected) State {
	return State{Kind: StateRejected, Rejected: reject}
}

// Order is an order's identity plus its current lifecycle state.
type Order struct {
	Key   Key
	State State
}

// Request is an inbound order request. Quantity and (for Limit) Price are
// expressed in instrument-native units; Kind controls validation
// (spec.md §4.6 accepts only Market). LinkedCID is set when this request
// was synthesized from a prior order (the Safety Monitor's exit request)
// rather than submitted fresh, recording the cid it supersedes.
type Request struct {
	Key         Key
	Side        Side
	Kind        Kind
	TimeInForce TimeInForce
	Quantity    decimal.Decimal
	Price       decimal.Decimal // zero value for Market orders
	LinkedCID   ClientOrderId
}

// AssetFees is a fee charged in a specific asset, keeping the fee currency
// explicit even where the ledger it's debited from is simplified to a
// single quote balance.
type AssetFees struct {
	Asset  string
	Amount decimal.Decimal
}

// Trade is one fill, identical in shape whether produced by the Paper
// Engine or a live venue feed (spec.md §4.6).
type Trade struct {
	Key      Key
	OrderID  OrderId
	Side     Side
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Fee      AssetFees
	Time     time.Time
}

// Balance is a single-asset balance snapshot.
type Balance struct {
	Asset string
	Free  decimal.Decimal
	Total decimal.Decimal
}
