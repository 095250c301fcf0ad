package book

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrCrossedBook is returned when an apply leaves the book crossed
// (best bid >= best ask); the event has already been applied when it is
// returned. Per spec.md §4.2 this is a fatal invariant violation; this
// implementation surfaces it as an error rather than panicking so callers
// can decide how to recover (e.g. force a re-snapshot).
var ErrCrossedBook = errors.New("orderbook: crossed top of book")

// Book is the canonical, normalized order book (spec.md §3): bids sorted
// strictly descending by unique price, asks sorted strictly ascending by
// unique price, sequence is the most recently applied exchange sequence
// number.
type Book struct {
	Sequence     uint64
	TimeExchange *time.Time
	Bids         Levels
	Asks         Levels
}

// New builds a Book from unsorted levels: it sorts each side, collapses
// duplicate prices by summing their amounts, and drops zero-amount
// entries, matching spec.md §4.2's `new` operation.
func New(sequence uint64, timeExchange *time.Time, bids, asks Levels) *Book {
	return &Book{
		Sequence:     sequence,
		TimeExchange: timeExchange,
		Bids:         normalize(bids, true),
		Asks:         normalize(asks, false),
	}
}

func normalize(levels Levels, descending bool) Levels {
	byPrice := make(map[string]decimal.Decimal, len(levels))
	order := make([]decimal.Decimal, 0, len(levels))
	for _, lvl := range levels {
		key := lvl.Price.String()
		if existing, ok := byPrice[key]; ok {
			byPrice[key] = existing.Add(lvl.Amount)
		} else {
			byPrice[key] = lvl.Amount
			order = append(order, lvl.Price)
		}
	}
	out := make(Levels, 0, len(order))
	for _, price := range order {
		amount := byPrice[price.String()]
		if amount.Sign() <= 0 {
			continue
		}
		out = append(out, Level{Price: price, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if descending {
			return out[i].Price.GreaterThan(out[j].Price)
		}
		return out[i].Price.LessThan(out[j].Price)
	})
	return out
}

// BestBid returns the highest bid level, O(1).
func (b *Book) BestBid() (Level, bool) {
	if len(b.Bids) == 0 {
		return Level{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the lowest ask level, O(1).
func (b *Book) BestAsk() (Level, bool) {
	if len(b.Asks) == 0 {
		return Level{}, false
	}
	return b.Asks[0], true
}

// Apply consumes an Event (spec.md §4.2): Snapshot replaces state
// unconditionally; Update merges per-level, upserting positive amounts and
// deleting zero-amount entries at their sorted position. The book trusts
// the event's sequence number — gap detection is the Sequencer's job, not
// the book's.
func (b *Book) Apply(e Event) error {
	switch e.Kind {
	case EventSnapshot:
		b.Sequence = e.Sequence
		b.TimeExchange = e.TimeExchange
		b.Bids = normalize(e.Bids, true)
		b.Asks = normalize(e.Asks, false)
	case EventUpdate:
		b.Bids = mergeSide(b.Bids, e.Bids, true)
		b.Asks = mergeSide(b.Asks, e.Asks, false)
		b.Sequence = e.Sequence
		if e.TimeExchange != nil {
			b.TimeExchange = e.TimeExchange
		}
	default:
		return errors.Errorf("orderbook: unknown event kind %d", e.Kind)
	}
	return b.verifyNotCrossed()
}

func (b *Book) verifyNotCrossed() error {
	bid, hasBid := b.BestBid()
	ask, hasAsk := b.BestAsk()
	if hasBid && hasAsk && bid.Price.GreaterThanOrEqual(ask.Price) {
		return ErrCrossedBook
	}
	return nil
}

// mergeSide applies a set of level changes to one sorted, unique-price side.
func mergeSide(side Levels, changes Levels, descending bool) Levels {
	byPrice := make(map[string]int, len(side))
	for i, lvl := range side {
		byPrice[lvl.Price.String()] = i
	}
	for _, change := range changes {
		key := change.Price.String()
		idx, exists := byPrice[key]
		if change.IsDelete() {
			if exists {
				side = append(side[:idx], side[idx+1:]...)
				reindex(byPrice, side, idx)
				delete(byPrice, key)
			}
			continue
		}
		if exists {
			side[idx].Amount = change.Amount
			continue
		}
		pos := sort.Search(len(side), func(i int) bool {
			if descending {
				return side[i].Price.LessThan(change.Price)
			}
			return side[i].Price.GreaterThan(change.Price)
		})
		side = append(side, Level{})
		copy(side[pos+1:], side[pos:])
		side[pos] = change
		reindex(byPrice, side, pos)
		byPrice[key] = pos
	}
	return side
}

// reindex refreshes the price->index map for entries shifted by an
// insertion or deletion at or after `from`.
func reindex(byPrice map[string]int, side Levels, from int) {
	for i := from; i < len(side); i++ {
		byPrice[side[i].Price.String()] = i
	}
}
