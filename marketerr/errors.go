// Package marketerr defines the unified error taxonomy shared by every
// subsystem (spec.md §7): sequencer gaps, transformer init faults,
// transport faults, and execution-path rejections. Callers up the stack
// never see a raw string or an untyped wrapped error; they switch on
// errors.As against one of the kinds below.
package marketerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvalidSequence signals a sequencer gap: the update received does not
// chain from the last accepted sequence number. Recovery requires the
// caller to re-fetch a snapshot.
type InvalidSequence struct {
	PrevLast uint64
	First    uint64
}

func (e *InvalidSequence) Error() string {
	return fmt.Sprintf("invalid sequence: prev_last=%d first=%d", e.PrevLast, e.First)
}

// NewInvalidSequence builds a stack-carrying InvalidSequence error.
func NewInvalidSequence(prevLast, first uint64) error {
	return errors.WithStack(&InvalidSequence{PrevLast: prevLast, First: first})
}

// InitialSnapshotMissing is returned at Transformer construction time when
// a subscription has no matching initial snapshot.
type InitialSnapshotMissing struct {
	SubscriptionID string
}

func (e *InitialSnapshotMissing) Error() string {
	return fmt.Sprintf("initial snapshot missing for subscription %q", e.SubscriptionID)
}

// NewInitialSnapshotMissing builds a stack-carrying InitialSnapshotMissing error.
func NewInitialSnapshotMissing(subID string) error {
	return errors.WithStack(&InitialSnapshotMissing{SubscriptionID: subID})
}

// InitialSnapshotInvalid is returned when the event supplied at init time
// for a subscription is an Update instead of a Snapshot.
type InitialSnapshotInvalid struct {
	Reason string
}

func (e *InitialSnapshotInvalid) Error() string {
	return fmt.Sprintf("initial snapshot invalid: %s", e.Reason)
}

// NewInitialSnapshotInvalid builds a stack-carrying InitialSnapshotInvalid error.
func NewInitialSnapshotInvalid(reason string) error {
	return errors.WithStack(&InitialSnapshotInvalid{Reason: reason})
}

// Unidentifiable is returned when a raw message's subscription id does not
// correspond to any known subscription.
type Unidentifiable struct {
	SubscriptionID string
}

func (e *Unidentifiable) Error() string {
	return fmt.Sprintf("unidentifiable subscription %q", e.SubscriptionID)
}

// NewUnidentifiable builds a stack-carrying Unidentifiable error.
func NewUnidentifiable(subID string) error {
	return errors.WithStack(&Unidentifiable{SubscriptionID: subID})
}

// SocketKind distinguishes transport-fault sub-kinds.
type SocketKind int

// Socket fault kinds.
const (
	SocketIO SocketKind = iota
	SocketTimeout
	SocketURLParse
	SocketSubscribe
)

func (k SocketKind) String() string {
	switch k {
	case SocketIO:
		return "io"
	case SocketTimeout:
		return "timeout"
	case SocketURLParse:
		return "url_parse"
	case SocketSubscribe:
		return "subscribe"
	default:
		return "unknown"
	}
}

// Socket wraps a transport fault driving the session's reconnect policy.
type Socket struct {
	Kind   SocketKind
	Reason string
	Err    error
}

func (e *Socket) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("socket %s: %s", e.Kind, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("socket %s: %s", e.Kind, e.Err)
	}
	return fmt.Sprintf("socket %s", e.Kind)
}

func (e *Socket) Unwrap() error { return e.Err }

// NewSocket builds a stack-carrying Socket error.
func NewSocket(kind SocketKind, reason string, err error) error {
	return errors.WithStack(&Socket{Kind: kind, Reason: reason, Err: err})
}

// APIErrorKind distinguishes execution-path rejection sub-kinds.
type APIErrorKind int

// Rejected sub-kinds.
const (
	InstrumentInvalid APIErrorKind = iota
	BalanceInsufficient
	OrderRejected
)

func (k APIErrorKind) String() string {
	switch k {
	case InstrumentInvalid:
		return "instrument_invalid"
	case BalanceInsufficient:
		return "balance_insufficient"
	case OrderRejected:
		return "order_rejected"
	default:
		return "unknown"
	}
}

// Rejected is embedded in an Order's terminal state; it is never raised to
// the task loop, only returned as data (spec.md §7 propagation rules).
type Rejected struct {
	Kind APIErrorKind
	Name string
	Why  string
}

func (e *Rejected) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("rejected(%s): %s: %s", e.Kind, e.Name, e.Why)
	}
	return fmt.Sprintf("rejected(%s): %s", e.Kind, e.Why)
}

// NewRejected builds a Rejected error. It is intentionally not stack-wrapped
// since it is stored as order state, not propagated as a call error.
func NewRejected(kind APIErrorKind, name, why string) error {
	return &Rejected{Kind: kind, Name: name, Why: why}
}
