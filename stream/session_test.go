package stream

import (
	"context"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltbridge/marketcore/venue"
)

func bindingFor(srv string, heartbeat time.Duration) venue.Binding {
	return venue.Binding{
		ID:               venue.Bybit,
		WebsocketURL:     wsURL(srv),
		PingInterval:     0,
		HeartbeatTimeout: heartbeat,
		Sequencer:        venue.SequencerSingleID,
	}
}

func TestSessionConnectOnceReachesRunning(t *testing.T) {
	t.Parallel()
	srv := echoServer(t)
	s := NewSession("bybit", bindingFor(srv.URL, time.Second), NewCircuitBreaker(3, time.Second), DefaultBackoffPolicy())

	err := s.connectOnce(&websocket.Dialer{HandshakeTimeout: 5 * time.Second}, nil)
	require.NoError(t, err)
	assert.Equal(t, StateRunning, s.State())
	s.Close()
	assert.Equal(t, StateClosed, s.State())
}

func TestSessionConnectOnceRespectsOpenBreaker(t *testing.T) {
	t.Parallel()
	srv := echoServer(t)
	breaker := NewCircuitBreaker(1, time.Minute)
	breaker.RecordFailure()
	s := NewSession("bybit", bindingFor(srv.URL, time.Second), breaker, DefaultBackoffPolicy())

	err := s.connectOnce(&websocket.Dialer{HandshakeTimeout: 5 * time.Second}, nil)
	require.Error(t, err)
	assert.Equal(t, StateClosed, s.State())
}

func TestSessionConnectOnceRecordsFailureOnBadURL(t *testing.T) {
	t.Parallel()
	breaker := NewCircuitBreaker(1, time.Minute)
	binding := venue.Binding{WebsocketURL: "ws://127.0.0.1:1"}
	s := NewSession("bybit", binding, breaker, DefaultBackoffPolicy())

	err := s.connectOnce(&websocket.Dialer{HandshakeTimeout: 200 * time.Millisecond}, nil)
	require.Error(t, err)
	assert.True(t, breaker.IsOpen())
}

func TestSessionInitFuncForwardsMessages(t *testing.T) {
	t.Parallel()
	srv := echoServer(t)
	s := NewSession("bybit", bindingFor(srv.URL, time.Second), NewCircuitBreaker(3, time.Second), DefaultBackoffPolicy())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	init := s.InitFunc(&websocket.Dialer{HandshakeTimeout: 5 * time.Second}, nil)
	ch, err := init(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Conn.SendJSONMessage(map[string]string{"hello": "world"}))

	item := <-ch
	require.NoError(t, item.Err)
	assert.Contains(t, string(item.Value.Raw), "world")
	s.Close()
}

func TestSessionInitFuncFiresHeartbeatTimeout(t *testing.T) {
	t.Parallel()
	srv := echoServer(t)
	s := NewSession("bybit", bindingFor(srv.URL, 30*time.Millisecond), NewCircuitBreaker(3, time.Second), DefaultBackoffPolicy())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	init := s.InitFunc(&websocket.Dialer{HandshakeTimeout: 5 * time.Second}, nil)
	ch, err := init(ctx)
	require.NoError(t, err)

	item := <-ch
	require.Error(t, item.Err)
	assert.True(t, IsTransportTerminal(item.Err))
	s.Close()
}
