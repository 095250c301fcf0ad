// Package book implements the canonical order book representation (spec.md
// §3, §4.2): fixed-precision price/amount levels, sorted bid/ask sides, and
// the Snapshot/Update event the Transformer emits downstream. Prices and
// amounts are shopspring/decimal values throughout — the wire format is
// strings, and the spec forbids parsing them as binary floats.
package book

import "github.com/shopspring/decimal"

// Level is a single (price, amount) entry on one side of a book. An amount
// of zero, when applied via an Update, deletes the matching price entry.
type Level struct {
	Price  decimal.Decimal
	Amount decimal.Decimal
}

// IsDelete reports whether applying this level should remove its price
// from the book rather than upsert it.
func (l Level) IsDelete() bool {
	return l.Amount.Sign() <= 0
}

// Levels is a side of a book: callers are responsible for keeping it
// sorted per side (bids descending, asks ascending), as New and Apply do.
type Levels []Level
