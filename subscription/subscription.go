// Package subscription implements the SubscriptionId join key and the
// InstrumentMap that binds it to per-instrument metadata (spec.md §3),
// deliberately excluding any per-exchange channel-name catalog or
// subscription-request JSON shaping, both out of scope per spec.md §1.
package subscription

import (
	"fmt"
	"strings"

	"github.com/voltbridge/marketcore/marketerr"
)

// ID is the opaque "<channel>|<market>" join string between wire messages
// and instrument bindings.
type ID string

// New derives the canonical subscription id from a channel and market
// string, e.g. New("orderbook", "BTCUSDT") -> "orderbook|BTCUSDT".
func New(channel, market string) ID {
	return ID(channel + "|" + market)
}

// Split parses an ID back into its channel and market components.
func (id ID) Split() (channel, market string, ok bool) {
	s := string(id)
	idx := strings.IndexByte(s, '|')
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+1:], true
}

// Map is an InstrumentMap<T>: a SubscriptionId -> T mapping whose keys are
// set once at init and never mutated afterward. Lookup failure is a typed
// error, not a panic.
type Map[T any] struct {
	entries map[ID]T
}

// NewMap builds a Map from a fixed set of entries.
func NewMap[T any](entries map[ID]T) *Map[T] {
	copied := make(map[ID]T, len(entries))
	for k, v := range entries {
		copied[k] = v
	}
	return &Map[T]{entries: copied}
}

// Get looks up the metadata bound to a subscription id.
func (m *Map[T]) Get(id ID) (T, error) {
	v, ok := m.entries[id]
	if !ok {
		var zero T
		return zero, marketerr.NewUnidentifiable(string(id))
	}
	return v, nil
}

// Has reports whether id is bound.
func (m *Map[T]) Has(id ID) bool {
	_, ok := m.entries[id]
	return ok
}

// Len returns the number of bound subscriptions.
func (m *Map[T]) Len() int { return len(m.entries) }

// IDs returns every bound subscription id, order unspecified.
func (m *Map[T]) IDs() []ID {
	ids := make([]ID, 0, len(m.entries))
	for k := range m.entries {
		ids = append(ids, k)
	}
	return ids
}

// String implements fmt.Stringer for readable log output.
func (id ID) String() string { return string(id) }

var _ fmt.Stringer = ID("")
