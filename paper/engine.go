package paper

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voltbridge/marketcore/marketerr"
	"github.com/voltbridge/marketcore/order"
)

// instrument binds a Book to the asset pair balances are moved between:
// a Buy debits QuoteAsset and credits BaseAsset, a Sell debits BaseAsset
// and credits QuoteAsset. Balances are kept per asset; fees are always
// charged in QuoteAsset.
type instrument struct {
	book       *Book
	baseAsset  string
	quoteAsset string
}

// Engine is the deterministic market-order matching engine: it owns its
// Books and AccountState exclusively (spec.md §3's ownership note).
// Determinism under a fixed order sequence and starting Book is relied on
// by tests, so Engine never reads wall-clock time for anything but trade
// timestamps.
type Engine struct {
	mu          sync.Mutex
	instruments map[string]*instrument
	balances    map[string]decimal.Decimal
	feePct      decimal.Decimal
	nextOrderID uint64
	clock       func() time.Time
}

// NewEngine builds an Engine with a starting set of asset balances and a
// flat fee percentage (e.g. 0.001 for 10bps) applied to every fill.
func NewEngine(feePct decimal.Decimal, initialBalances map[string]decimal.Decimal) *Engine {
	balances := make(map[string]decimal.Decimal, len(initialBalances))
	for asset, bal := range initialBalances {
		balances[asset] = bal
	}
	return &Engine{
		instruments: make(map[string]*instrument),
		balances:    balances,
		feePct:      feePct,
		clock:       time.Now,
	}
}

// AddInstrument registers a Book for an instrument key, along with the
// asset symbols used to debit/credit balances on fill.
func (e *Engine) AddInstrument(instrumentKey, baseAsset, quoteAsset string, b *Book) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.instruments[instrumentKey] = &instrument{book: b, baseAsset: baseAsset, quoteAsset: quoteAsset}
}

// Balance returns the current free balance for an asset.
func (e *Engine) Balance(asset string) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balances[asset]
}

// AccountSnapshot returns a point-in-time copy of every tracked balance,
// letting a caller (strategy or test) observe account state without
// reaching into engine internals.
func (e *Engine) AccountSnapshot() []order.Balance {
	return e.Snapshot()
}

// Snapshot returns a point-in-time copy of every tracked balance.
func (e *Engine) Snapshot() []order.Balance {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]order.Balance, 0, len(e.balances))
	for asset, bal := range e.balances {
		out = append(out, order.Balance{Asset: asset, Free: bal, Total: bal})
	}
	return out
}

// OpenOrder matches req against the engine's books and balances
// (spec.md §4.6). Rejections are returned as a terminal order.State, never
// as a Go error: only Order, and on success the resulting Trade and
// balance snapshot, are meaningful to the caller.
func (e *Engine) OpenOrder(req order.Request) (order.Order, *order.Trade, []order.Balance) {
	if req.Kind != order.Market {
		return e.reject(req, marketerr.OrderRejected, req.Kind.String(), "only market orders are accepted"), nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	inst, ok := e.instruments[req.Key.Instrument]
	if !ok {
		return e.reject(req, marketerr.InstrumentInvalid, req.Key.Instrument, "unknown instrument or missing book"), nil, nil
	}

	filled, value, remaining := inst.book.quote(req.Side, req.Quantity)
	avg := AveragePrice(filled, value)
	fee := value.Mul(e.feePct)

	one := decimal.NewFromInt(1)
	switch req.Side {
	case order.Buy:
		required := value.Mul(one.Add(e.feePct))
		if e.balances[inst.quoteAsset].LessThan(required) {
			return e.rejectLocked(req, marketerr.BalanceInsufficient, inst.quoteAsset, "insufficient free balance for buy"), nil, nil
		}
		inst.book.commit(req.Side, remaining)
		e.balances[inst.quoteAsset] = e.balances[inst.quoteAsset].Sub(value).Sub(fee)
		e.balances[inst.baseAsset] = e.balances[inst.baseAsset].Add(filled)
	case order.Sell:
		required := filled.Mul(one.Add(e.feePct))
		if e.balances[inst.baseAsset].LessThan(required) {
			return e.rejectLocked(req, marketerr.BalanceInsufficient, inst.baseAsset, "insufficient free balance for sell"), nil, nil
		}
		inst.book.commit(req.Side, remaining)
		e.balances[inst.baseAsset] = e.balances[inst.baseAsset].Sub(filled)
		e.balances[inst.quoteAsset] = e.balances[inst.quoteAsset].Add(value).Sub(fee)
	}

	e.nextOrderID++
	id := order.OrderId(fmt.Sprintf("paper-%d", e.nextOrderID))

	trade := order.Trade{
		Key:      req.Key,
		OrderID:  id,
		Side:     req.Side,
		Price:    avg,
		Quantity: filled,
		Fee:      order.AssetFees{Asset: inst.quoteAsset, Amount: fee},
		Time:     e.clock(),
	}

	snapshot := make([]order.Balance, 0, len(e.balances))
	for asset, bal := range e.balances {
		snapshot = append(snapshot, order.Balance{Asset: asset, Free: bal, Total: bal})
	}

	return order.Order{Key: req.Key, State: order.Open(id, filled)}, &trade, snapshot
}

func (e *Engine) reject(req order.Request, kind marketerr.APIErrorKind, name, why string) order.Order {
	rej := marketerr.NewRejected(kind, name, why).(*marketerr.Rejected)
	return order.Order{Key: req.Key, State: order.RejectedState(rej)}
}

func (e *Engine) rejectLocked(req order.Request, kind marketerr.APIErrorKind, name, why string) order.Order {
	return e.reject(req, kind, name, why)
}
