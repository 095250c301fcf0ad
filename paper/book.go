// Package paper implements the deterministic market-order matching engine
// of spec.md §4.6. Grounded on exchanges/orderbook/simulator's
// SimulateOrder concept (walk the opposite side, consume liquidity
// level-by-level) generalized from that file's float/stub arithmetic to
// shopspring/decimal, and on exchanges/order/limits.go's "state as data"
// rejection idiom.
package paper

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/voltbridge/marketcore/book"
	"github.com/voltbridge/marketcore/order"
)

// Book is the matching-engine view of one instrument's liquidity: sorted
// bid/ask level vectors, mutably consumed during fills. Bids must be
// sorted descending, Asks ascending, as produced by book.New.
type Book struct {
	mu   sync.Mutex
	Bids book.Levels
	Asks book.Levels
}

// NewBook builds a Book from already-sorted levels.
func NewBook(bids, asks book.Levels) *Book {
	return &Book{Bids: bids, Asks: asks}
}

// quote computes the fill of quantity against side, without mutating the
// book, returning the filled quantity, the total notional value consumed,
// and the side's levels after the fill (exhausted levels removed).
func (b *Book) quote(side order.Side, quantity decimal.Decimal) (filled, value decimal.Decimal, remaining book.Levels) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if side == order.Buy {
		filled, value, remaining = sweep(b.Asks, quantity)
		return
	}
	filled, value, remaining = sweep(b.Bids, quantity)
	return
}

// commit replaces the side consumed by a prior quote with its post-fill
// remainder. Only called once a balance check confirms the order can
// proceed, preserving the one-fill-per-sweep invariant: a rejected order
// never mutates the book.
func (b *Book) commit(side order.Side, remaining book.Levels) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if side == order.Buy {
		b.Asks = remaining
		return
	}
	b.Bids = remaining
}

// sweep walks levels from the top, consuming min(remaining, level.Amount)
// at each step and dropping exhausted levels, per spec.md §4.6's fill
// algorithm.
func sweep(levels book.Levels, quantity decimal.Decimal) (filled, value decimal.Decimal, remaining book.Levels) {
	remainingQty := quantity
	filled = decimal.Zero
	value = decimal.Zero
	remaining = make(book.Levels, 0, len(levels))

	for i, lvl := range levels {
		if remainingQty.Sign() <= 0 {
			remaining = append(remaining, levels[i:]...)
			break
		}
		consume := remainingQty
		if lvl.Amount.LessThan(consume) {
			consume = lvl.Amount
		}
		value = value.Add(consume.Mul(lvl.Price))
		filled = filled.Add(consume)
		remainingQty = remainingQty.Sub(consume)

		left := lvl.Amount.Sub(consume)
		if left.Sign() > 0 {
			remaining = append(remaining, book.Level{Price: lvl.Price, Amount: left})
		}
	}
	return filled, value, remaining
}

// AveragePrice returns value/filled, or zero if there was no liquidity.
func AveragePrice(filled, value decimal.Decimal) decimal.Decimal {
	if filled.Sign() <= 0 {
		return decimal.Zero
	}
	return value.Div(filled)
}
