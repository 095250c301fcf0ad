// Package safety implements the "jackpot" watchdog of spec.md §4.7: it
// tracks one open position per instrument and synthesizes a market exit
// order the instant unrealized loss breaches a per-ticket limit. Grounded
// on the teacher's mutex-guarded map-of-state idiom (exchanges/order
// limits.go's ExecutionLimits) generalized to the position-tracking shape
// described by original_source's jackbot-integration position monitor.
package safety

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/voltbridge/marketcore/order"
)

// Position is a single open, monitored position (spec.md §3).
type Position struct {
	Side       order.Side
	EntryPrice decimal.Decimal
	Quantity   decimal.Decimal
	TicketLoss decimal.Decimal
	Strategy   string
	Cid        order.ClientOrderId
}

// Monitor tracks at most one Position per instrument, keyed by the
// instrument symbol.
type Monitor struct {
	mu        sync.Mutex
	positions map[string]Position
}

// NewMonitor builds an empty Monitor.
func NewMonitor() *Monitor {
	return &Monitor{positions: make(map[string]Position)}
}

// RecordTrade inserts or overwrites the monitored position for instrument,
// keyed by instrument (spec.md §4.7): a later trade on the same instrument
// replaces, it does not accumulate.
func (m *Monitor) RecordTrade(instrument string, trade order.Trade, ticketLoss decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[instrument] = Position{
		Side:       trade.Side,
		EntryPrice: trade.Price,
		Quantity:   trade.Quantity,
		TicketLoss: ticketLoss,
		Strategy:   trade.Key.Strategy,
		Cid:        trade.Key.Cid,
	}
}

// UpdatePrice recomputes unrealized PnL for instrument's position against
// the latest price. If the loss breaches ticket_loss, the position is
// removed and an opposite-side market exit request is returned — at-most-
// once liquidation is guaranteed by this remove-on-emit discipline. Absent
// a breach, or absent any position, it returns (Request{}, false).
//
// The exit request is allocated a fresh ClientOrderId rather than reusing
// the original trade's cid, to avoid colliding with a still-open order at
// the venue; the superseded cid is recorded on Request.LinkedCID.
func (m *Monitor) UpdatePrice(exchange, instrument string, price decimal.Decimal) (order.Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.positions[instrument]
	if !ok {
		return order.Request{}, false
	}

	var pnl decimal.Decimal
	if pos.Side == order.Buy {
		pnl = price.Sub(pos.EntryPrice).Mul(pos.Quantity)
	} else {
		pnl = pos.EntryPrice.Sub(price).Mul(pos.Quantity)
	}

	if pnl.GreaterThan(pos.TicketLoss.Neg()) {
		return order.Request{}, false
	}

	delete(m.positions, instrument)

	return order.Request{
		Key: order.Key{
			Exchange:   exchange,
			Instrument: instrument,
			Strategy:   pos.Strategy,
			Cid:        order.NewClientOrderID(),
		},
		Side:        pos.Side.Opposite(),
		Kind:        order.Market,
		TimeInForce: order.ImmediateOrCancel,
		Quantity:    pos.Quantity,
		LinkedCID:   pos.Cid,
	}, true
}

// IsEmpty reports whether no position is currently monitored.
func (m *Monitor) IsEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.positions) == 0
}
