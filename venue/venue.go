// Package venue implements the registry design note from spec.md §9: a
// tagged enum of exchange identity plus a runtime registry mapping each
// identity to its URL/ping/heartbeat/sequencer-dialect/snapshot-URL
// bindings, replacing the source's parameterized-generics-over-zero-sized-
// markers approach. Selection happens at runtime; monomorphization is a
// choice this module does not make.
package venue

import (
	"fmt"
	"time"

	"github.com/voltbridge/marketcore/sequencer"
)

// ID tags a supported exchange identity.
type ID int

// Supported venues. The set intentionally mirrors the dialects exercised by
// original_source's exchange modules (Bybit, Coinbase, Binance Spot, OKX)
// rather than every exchange in the teacher's own connector set, per
// spec.md §1's "per-exchange channel-name catalogs" being out of scope.
const (
	Unknown ID = iota
	Bybit
	Coinbase
	BinanceSpot
	OKX
)

// String implements fmt.Stringer.
func (i ID) String() string {
	switch i {
	case Bybit:
		return "bybit"
	case Coinbase:
		return "coinbase"
	case BinanceSpot:
		return "binance_spot"
	case OKX:
		return "okx"
	default:
		return "unknown"
	}
}

// SequencerKind names which sequencer dialect a venue uses (spec.md §4.1).
type SequencerKind int

// Supported dialects.
const (
	SequencerSingleID SequencerKind = iota
	SequencerPairID
	SequencerPrevSeqChained
)

// NewSequencer constructs the dialect-appropriate Sequencer for a venue,
// seeded from the initial snapshot's sequence number.
func (k SequencerKind) NewSequencer(snapshotSeq uint64) sequencer.Sequencer {
	switch k {
	case SequencerPairID:
		return sequencer.NewPairID(snapshotSeq)
	case SequencerPrevSeqChained:
		return sequencer.NewPrevSeqChained(snapshotSeq)
	default:
		return sequencer.NewSingleID(snapshotSeq)
	}
}

// Binding describes what the ingestion core needs to know about a venue:
// transport endpoints and timing, and sequencer dialect. It carries no
// channel name or market format; those stay opaque strings inside
// subscription.ID (per spec.md §1's non-goal on channel catalogs).
type Binding struct {
	ID             ID
	WebsocketURL   string
	PingInterval   time.Duration
	HeartbeatTimeout time.Duration
	Sequencer      SequencerKind
	// SnapshotURL builds the REST snapshot URL for a market symbol.
	SnapshotURL func(market string, limit int) string
}

// Registry maps a venue ID to its Binding.
type Registry struct {
	bindings map[ID]Binding
}

// NewRegistry builds a Registry from a fixed set of bindings.
func NewRegistry(bindings ...Binding) *Registry {
	r := &Registry{bindings: make(map[ID]Binding, len(bindings))}
	for _, b := range bindings {
		r.bindings[b.ID] = b
	}
	return r
}

// Lookup returns the Binding for a venue ID.
func (r *Registry) Lookup(id ID) (Binding, error) {
	b, ok := r.bindings[id]
	if !ok {
		return Binding{}, fmt.Errorf("venue: unknown venue id %v", id)
	}
	return b, nil
}

// Default returns a Registry pre-populated with the four reference venues,
// using conservative defaults for heartbeat/ping timing (spec.md §6).
func Default() *Registry {
	return NewRegistry(
		Binding{
			ID:               Bybit,
			WebsocketURL:     "wss://stream.bybit.com/v5/public/spot",
			PingInterval:     20 * time.Second,
			HeartbeatTimeout: 30 * time.Second,
			Sequencer:        SequencerSingleID,
			SnapshotURL: func(market string, limit int) string {
				return fmt.Sprintf("https://api.bybit.com/v5/market/orderbook?category=spot&symbol=%s&limit=%d", market, limit)
			},
		},
		Binding{
			ID:               Coinbase,
			WebsocketURL:     "wss://advanced-trade-ws.coinbase.com",
			PingInterval:     30 * time.Second,
			HeartbeatTimeout: 30 * time.Second,
			Sequencer:        SequencerSingleID,
			SnapshotURL: func(market string, limit int) string {
				return fmt.Sprintf("https://api.exchange.coinbase.com/products/%s/book?level=2", market)
			},
		},
		Binding{
			ID:               BinanceSpot,
			WebsocketURL:     "wss://stream.binance.com:9443/ws",
			PingInterval:     30 * time.Second,
			HeartbeatTimeout: 60 * time.Second,
			Sequencer:        SequencerPairID,
			SnapshotURL: func(market string, limit int) string {
				return fmt.Sprintf("https://api.binance.com/api/v3/depth?symbol=%s&limit=%d", market, limit)
			},
		},
		Binding{
			ID:               OKX,
			WebsocketURL:     "wss://ws.okx.com:8443/ws/v5/public",
			PingInterval:     29 * time.Second,
			HeartbeatTimeout: 30 * time.Second,
			Sequencer:        SequencerPrevSeqChained,
			SnapshotURL: func(market string, limit int) string {
				return fmt.Sprintf("https://www.okx.com/api/v5/market/books?instId=%s&sz=%d", market, limit)
			},
		},
	)
}
