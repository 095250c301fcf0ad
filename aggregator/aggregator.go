// Package aggregator implements the weighted top-of-book view and
// arbitrage detector of spec.md §4.9. It holds read-only handles onto
// books exclusively owned by their Transformers, reading them under a
// many-reader/one-writer lock (spec.md §5, §9's "shared book access" note)
// rather than copying state on every tick.
package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voltbridge/marketcore/book"
)

// BookView is a read-only handle onto a venue's live book: a shared
// pointer plus the lock its owning Transformer uses when applying events.
// The aggregator only ever takes the read side of mu.
type BookView struct {
	Exchange string
	Weight   decimal.Decimal
	mu       *sync.RWMutex
	book     *book.Book
}

// NewBookView wraps a book behind the given lock for read-only sharing.
func NewBookView(exchange string, weight decimal.Decimal, mu *sync.RWMutex, b *book.Book) BookView {
	return BookView{Exchange: exchange, Weight: weight, mu: mu, book: b}
}

func (v BookView) bestBid() (book.Level, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.book.BestBid()
}

func (v BookView) bestAsk() (book.Level, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.book.BestAsk()
}

// Aggregator holds the set of venue views for one instrument.
type Aggregator struct {
	views []BookView
}

// New builds an Aggregator over a fixed set of venue views.
func New(views []BookView) *Aggregator {
	return &Aggregator{views: views}
}

// BestBid returns the weighted-average best bid across venues with a
// non-empty book, or (zero, false) if every book is empty.
func (a *Aggregator) BestBid() (decimal.Decimal, bool) {
	return a.weightedTop(BookView.bestBid)
}

// BestAsk returns the weighted-average best ask across venues with a
// non-empty book, or (zero, false) if every book is empty.
func (a *Aggregator) BestAsk() (decimal.Decimal, bool) {
	return a.weightedTop(BookView.bestAsk)
}

func (a *Aggregator) weightedTop(pick func(BookView) (book.Level, bool)) (decimal.Decimal, bool) {
	sum := decimal.Zero
	weight := decimal.Zero
	for _, v := range a.views {
		lvl, ok := pick(v)
		if !ok {
			continue
		}
		w := v.Weight
		if w.Sign() == 0 {
			w = decimal.NewFromInt(1)
		}
		sum = sum.Add(lvl.Price.Mul(w))
		weight = weight.Add(w)
	}
	if weight.Sign() == 0 {
		return decimal.Zero, false
	}
	return sum.Div(weight), true
}

// MaxPriorityBid returns the single highest best-bid across venues, and
// which exchange quoted it — used by the arbitrage detector, which needs
// per-venue prices rather than a blended average.
func (a *Aggregator) MaxPriorityBid() (exchange string, price decimal.Decimal, ok bool) {
	for _, v := range a.views {
		lvl, has := v.bestBid()
		if !has {
			continue
		}
		if !ok || lvl.Price.GreaterThan(price) {
			exchange, price, ok = v.Exchange, lvl.Price, true
		}
	}
	return
}

// MinPriorityAsk returns the single lowest best-ask across venues, and
// which exchange quoted it.
func (a *Aggregator) MinPriorityAsk() (exchange string, price decimal.Decimal, ok bool) {
	for _, v := range a.views {
		lvl, has := v.bestAsk()
		if !has {
			continue
		}
		if !ok || lvl.Price.LessThan(price) {
			exchange, price, ok = v.Exchange, lvl.Price, true
		}
	}
	return
}

// Opportunity is one detected arbitrage window: buy at BuyExchange's ask,
// sell at SellExchange's bid, for Spread profit per unit.
type Opportunity struct {
	BuyExchange  string
	SellExchange string
	Spread       decimal.Decimal
}

// MonitorAndDetect finds every (buy_exchange, sell_exchange) pair where
// sell.best_bid - buy.best_ask >= threshold, per spec.md §4.9.
func (a *Aggregator) MonitorAndDetect(threshold decimal.Decimal) []Opportunity {
	var opps []Opportunity
	for _, buyer := range a.views {
		ask, ok := buyer.bestAsk()
		if !ok {
			continue
		}
		for _, seller := range a.views {
			if seller.Exchange == buyer.Exchange {
				continue
			}
			bid, ok := seller.bestBid()
			if !ok {
				continue
			}
			spread := bid.Price.Sub(ask.Price)
			if spread.GreaterThanOrEqual(threshold) {
				opps = append(opps, Opportunity{BuyExchange: buyer.Exchange, SellExchange: seller.Exchange, Spread: spread})
			}
		}
	}
	return opps
}

// StreamOpportunities runs MonitorAndDetect on a ticking loop and emits
// each non-empty result on the returned channel, closing it when ctx is
// cancelled. This is the "periodic detector" shape a strategy owns and
// reads from, rather than polling MonitorAndDetect itself on its own
// timer — the long-lived task owns the channel's send side, and dropping
// the receiver (ctx cancellation) collapses the loop (spec.md §9's
// channel-based cancellation note).
func (a *Aggregator) StreamOpportunities(ctx context.Context, interval time.Duration, threshold decimal.Decimal) <-chan []Opportunity {
	out := make(chan []Opportunity)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				opps := a.MonitorAndDetect(threshold)
				if len(opps) == 0 {
					continue
				}
				select {
				case out <- opps:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
