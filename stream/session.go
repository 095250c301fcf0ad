package stream

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voltbridge/marketcore/marketerr"
	"github.com/voltbridge/marketcore/venue"
)

// SessionState is one state of the Connecting→Authenticating→Running→
// Closing→Closed machine of spec.md §4.4.
type SessionState int

// Session states.
const (
	StateConnecting SessionState = iota
	StateAuthenticating
	StateRunning
	StateClosing
	StateClosed
)

// String implements fmt.Stringer.
func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateRunning:
		return "running"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// AuthFunc performs venue authentication over an already-dialed connection.
// Returns nil immediately for public, unauthenticated feeds.
type AuthFunc func(*WebsocketConnection) error

// Session drives one venue connection's lifecycle: dial, optional auth,
// heartbeat-gated read loop, and reconnect bookkeeping via CircuitBreaker.
// Grounded on exchanges/stream/websocket_connection.go plus the connection
// manager idiom in exchanges/stream (teacher keeps a per-exchange
// *Websocket driving one *WebsocketConnection; this generalizes that to
// any venue.Binding).
type Session struct {
	mu    sync.RWMutex
	state SessionState

	ExchangeName string
	Binding      venue.Binding
	Breaker      *CircuitBreaker
	Backoff      BackoffPolicy
	Auth         AuthFunc

	Conn *WebsocketConnection
}

// NewSession builds a Session for one venue binding.
func NewSession(exchangeName string, binding venue.Binding, breaker *CircuitBreaker, backoff BackoffPolicy) *Session {
	return &Session{
		ExchangeName: exchangeName,
		Binding:      binding,
		Breaker:      breaker,
		Backoff:      backoff,
		state:        StateClosed,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) setState(st SessionState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// connectOnce dials, authenticates if configured, and starts the ping loop.
// On any failure it records a CircuitBreaker failure and returns the error;
// on success it resets the breaker.
func (s *Session) connectOnce(dialer *websocket.Dialer, headers http.Header) error {
	if s.Breaker.IsOpen() {
		return marketerr.NewSocket(marketerr.SocketIO, "circuit breaker open", nil)
	}

	s.setState(StateConnecting)
	conn := &WebsocketConnection{
		ExchangeName: s.ExchangeName,
		URL:          s.Binding.WebsocketURL,
		ShutdownC:    make(chan struct{}),
		Traffic:      make(chan struct{}, 1),
	}
	if err := conn.Dial(dialer, headers); err != nil {
		s.Breaker.RecordFailure()
		return err
	}

	if s.Auth != nil {
		s.setState(StateAuthenticating)
		if err := s.Auth(conn); err != nil {
			s.Breaker.RecordFailure()
			conn.Shutdown()
			return err
		}
	}

	if s.Binding.PingInterval > 0 {
		conn.StartPingLoop(PingHandler{MessageType: websocket.PingMessage, Delay: s.Binding.PingInterval})
	}

	s.Conn = conn
	s.setState(StateRunning)
	s.Breaker.Reset()
	return nil
}

// Close transitions to Closing, tears down the connection, then Closed.
func (s *Session) Close() {
	s.setState(StateClosing)
	if s.Conn != nil {
		close(s.Conn.ShutdownC)
		s.Conn.Shutdown()
	}
	s.setState(StateClosed)
}

// InitFunc returns a stream.InitFunc suitable for Reconnecting: each call
// dials a fresh connection and streams Responses until the heartbeat
// watchdog fires or the connection errors, at which point the channel
// closes and Reconnecting re-invokes this func per its backoff policy.
func (s *Session) InitFunc(dialer *websocket.Dialer, headers http.Header) InitFunc[Response] {
	return func(ctx context.Context) (<-chan Item[Response], error) {
		if err := s.connectOnce(dialer, headers); err != nil {
			return nil, err
		}

		out := make(chan Item[Response])
		go func() {
			defer close(out)

			timeout := s.Binding.HeartbeatTimeout
			if timeout <= 0 {
				timeout = 30 * time.Second
			}
			watchdog := time.NewTimer(timeout)
			defer watchdog.Stop()

			msgs := make(chan Item[Response])
			go func() {
				for {
					resp, err := s.Conn.ReadMessage()
					select {
					case msgs <- Item[Response]{Value: resp, Err: err}:
					case <-ctx.Done():
						return
					}
					if err != nil {
						return
					}
				}
			}()

			for {
				select {
				case <-ctx.Done():
					return
				case <-watchdog.C:
					select {
					case out <- Item[Response]{Err: marketerr.NewSocket(marketerr.SocketTimeout, "heartbeat timeout", nil)}:
					case <-ctx.Done():
					}
					return
				case m, ok := <-msgs:
					if !ok {
						return
					}
					if !watchdog.Stop() {
						select {
						case <-watchdog.C:
						default:
						}
					}
					watchdog.Reset(timeout)
					select {
					case out <- m:
					case <-ctx.Done():
						return
					}
					if m.Err != nil {
						return
					}
				}
			}
		}()
		return out, nil
	}
}

// IsTransportTerminal is the TerminalPolicy for Session streams: every
// transport fault (read error, dial failure, heartbeat timeout) forces a
// reconnect. Non-socket errors (wire decode faults surfaced by a caller's
// own handling) are left to the caller's own policy, so this returns false
// for anything not wrapping a *marketerr.Socket.
func IsTransportTerminal(err error) bool {
	var sockErr *marketerr.Socket
	return errors.As(err, &sockErr)
}
