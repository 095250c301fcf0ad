// Package marketevent defines the generic MarketEvent envelope (spec.md
// §3) that every ingestion path ultimately emits downstream.
package marketevent

import "time"

// Event is the generic MarketEvent<InstrumentKey, Kind> of spec.md §3.
// TimeReceived is assigned at ingress, distinct from the exchange's own
// TimeExchange timestamp (which may be absent).
type Event[K any, Kind any] struct {
	TimeExchange *time.Time
	TimeReceived time.Time
	Exchange     string
	Instrument   K
	Kind         Kind
}

// New builds an Event, stamping TimeReceived at construction.
func New[K any, Kind any](exchange string, instrument K, timeExchange *time.Time, kind Kind) Event[K, Kind] {
	return Event[K, Kind]{
		TimeExchange: timeExchange,
		TimeReceived: time.Now().UTC(),
		Exchange:     exchange,
		Instrument:   instrument,
		Kind:         kind,
	}
}
