// Reconnecting Stream Combinator (spec.md §4.10): a generic retry/backoff
// wrapper around any initialized stream. Grounded on
// original_source/jackbot-data/tests/reconnect_stream.rs; Go has no native
// async-stream type, so the combinator is expressed over channels instead.
package stream

import (
	"context"
	"time"
)

// Item is one element produced by an inner stream: a value or an error.
type Item[T any] struct {
	Value T
	Err   error
}

// InitFunc (re)initializes the inner stream, returning a channel of Items
// that the combinator drains until it closes or yields a terminal error.
type InitFunc[T any] func(ctx context.Context) (<-chan Item[T], error)

// ReconnectEventKind tags a ReconnectEvent as a forwarded item or a
// reconnect marker.
type ReconnectEventKind int

// Event kinds.
const (
	EventItem ReconnectEventKind = iota
	EventReconnecting
)

// ReconnectEvent is the Event<T> of spec.md §4.10.
type ReconnectEvent[T any] struct {
	Kind  ReconnectEventKind
	Value T
	Err   error
	// Meta carries an opaque observability value, set whenever Kind is
	// EventReconnecting.
	Meta any
}

// TerminalPolicy decides which item errors end the inner stream and force
// a reconnect, versus which are merely forwarded.
type TerminalPolicy func(err error) bool

// MetaFunc produces the opaque reconnect-marker payload.
type MetaFunc func() any

// Reconnecting runs init, forwarding every item on the returned channel
// until ctx is cancelled. Whenever init fails, or the inner stream ends
// (channel closed) or yields a terminal error, it sleeps per backoff, emits
// a Reconnecting marker, and re-invokes init; the terminal error itself is
// not forwarded. Each reconnect advances the backoff attempt counter, and
// nothing resets it within a single Reconnecting call: successful items
// leave it unchanged.
func Reconnecting[T any](ctx context.Context, init InitFunc[T], backoff BackoffPolicy, isTerminal TerminalPolicy, meta MetaFunc) <-chan ReconnectEvent[T] {
	out := make(chan ReconnectEvent[T])
	go func() {
		defer close(out)
		attempt := 0
		for {
			ch, err := init(ctx)
			if err != nil {
				if !sleepOrDone(ctx, backoff.Delay(attempt)) {
					return
				}
				attempt++
				select {
				case out <- ReconnectEvent[T]{Kind: EventReconnecting, Meta: meta()}:
				case <-ctx.Done():
					return
				}
				continue
			}

			terminal := false
		drain:
			for {
				select {
				case <-ctx.Done():
					return
				case item, ok := <-ch:
					if !ok {
						break drain
					}
					if item.Err != nil && isTerminal(item.Err) {
						terminal = true
						break drain
					}
					select {
					case out <- ReconnectEvent[T]{Kind: EventItem, Value: item.Value, Err: item.Err}:
					case <-ctx.Done():
						return
					}
				}
			}
			_ = terminal

			if ctx.Err() != nil {
				return
			}
			if !sleepOrDone(ctx, backoff.Delay(attempt)) {
				return
			}
			attempt++
			select {
			case out <- ReconnectEvent[T]{Kind: EventReconnecting, Meta: meta()}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
