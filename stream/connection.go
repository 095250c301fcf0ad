package stream

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	internallog "github.com/voltbridge/marketcore/internal/log"
	"github.com/voltbridge/marketcore/marketerr"
)

// Response is a normalized websocket frame: text messages are passed
// through unchanged, binary frames are gzip/deflate-inflated first.
type Response struct {
	Raw  []byte
	Type int
}

// WebsocketConnection wraps a single gorilla/websocket connection, grounded
// on exchanges/stream/websocket_connection.go. Generalized to a single
// venue-agnostic type driven entirely by venue.Binding instead of one
// struct per exchange package.
type WebsocketConnection struct {
	Verbose bool

	connected int32

	// gorilla/websocket does not allow concurrent writers.
	writeControl sync.Mutex

	ExchangeName string
	URL          string
	ProxyURL     string

	Connection *websocket.Conn
	ShutdownC  chan struct{}
	Traffic    chan struct{}
}

// Dial sets the proxy (if any) and connects to the websocket.
func (w *WebsocketConnection) Dial(dialer *websocket.Dialer, headers http.Header) error {
	if w.ProxyURL != "" {
		proxy, err := url.Parse(w.ProxyURL)
		if err != nil {
			return marketerr.NewSocket(marketerr.SocketURLParse, w.ProxyURL, err)
		}
		dialer.Proxy = http.ProxyURL(proxy)
	}

	conn, resp, err := dialer.Dial(w.URL, headers)
	if err != nil {
		reason := w.URL
		if resp != nil {
			reason = w.URL + " " + resp.Status
		}
		return marketerr.NewSocket(marketerr.SocketIO, reason, err)
	}
	w.Connection = conn

	if w.Verbose {
		internallog.Infof(internallog.WebsocketMgr, "%s connected to %s", w.ExchangeName, w.URL)
	}
	if w.Traffic != nil {
		select {
		case w.Traffic <- struct{}{}:
		default:
		}
	}
	w.setConnectedStatus(true)
	return nil
}

// SendJSONMessage sends a JSON-encoded message over the connection.
func (w *WebsocketConnection) SendJSONMessage(data any) error {
	if !w.IsConnected() {
		return marketerr.NewSocket(marketerr.SocketIO, w.ExchangeName+" is disconnected", nil)
	}

	w.writeControl.Lock()
	defer w.writeControl.Unlock()

	if w.Verbose {
		internallog.Debugf(internallog.WebsocketMgr, "%s sending %+v", w.ExchangeName, data)
	}
	if err := w.Connection.WriteJSON(data); err != nil {
		return marketerr.NewSocket(marketerr.SocketIO, "write json", err)
	}
	return nil
}

// SendRawMessage sends a message over the connection without JSON encoding.
func (w *WebsocketConnection) SendRawMessage(messageType int, message []byte) error {
	if !w.IsConnected() {
		return marketerr.NewSocket(marketerr.SocketIO, w.ExchangeName+" is disconnected", nil)
	}

	w.writeControl.Lock()
	defer w.writeControl.Unlock()

	if w.Verbose {
		internallog.Debugf(internallog.WebsocketMgr, "%s sending raw %s", w.ExchangeName, message)
	}
	if err := w.Connection.WriteMessage(messageType, message); err != nil {
		return marketerr.NewSocket(marketerr.SocketIO, "write raw", err)
	}
	return nil
}

func (w *WebsocketConnection) setConnectedStatus(b bool) {
	if b {
		atomic.StoreInt32(&w.connected, 1)
		return
	}
	atomic.StoreInt32(&w.connected, 0)
}

// IsConnected reports the connection status.
func (w *WebsocketConnection) IsConnected() bool {
	return atomic.LoadInt32(&w.connected) == 1
}

// ReadMessage reads one message, inflating gzip/deflate binary frames.
func (w *WebsocketConnection) ReadMessage() (Response, error) {
	mType, resp, err := w.Connection.ReadMessage()
	if err != nil {
		w.setConnectedStatus(false)
		return Response{}, marketerr.NewSocket(marketerr.SocketIO, "read", err)
	}

	if w.Traffic != nil {
		select {
		case w.Traffic <- struct{}{}:
		default:
		}
	}

	standard := resp
	if mType == websocket.BinaryMessage {
		standard, err = inflate(resp)
		if err != nil {
			return Response{}, marketerr.NewSocket(marketerr.SocketIO, "inflate", err)
		}
	}
	if w.Verbose {
		internallog.Debugf(internallog.WebsocketMgr, "%s received: %s", w.ExchangeName, standard)
	}
	return Response{Raw: standard, Type: mType}, nil
}

// inflate decompresses a binary websocket frame, detecting gzip by magic
// number and falling back to raw deflate otherwise.
func inflate(resp []byte) ([]byte, error) {
	if len(resp) >= 2 && resp[0] == 0x1f && resp[1] == 0x8b {
		r, err := gzip.NewReader(bytes.NewReader(resp))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	}
	r := flate.NewReader(bytes.NewReader(resp))
	defer r.Close()
	return io.ReadAll(r)
}

// Shutdown closes the underlying connection.
func (w *WebsocketConnection) Shutdown() error {
	if w == nil || w.Connection == nil {
		return nil
	}
	w.setConnectedStatus(false)
	return w.Connection.UnderlyingConn().Close()
}

// PingHandler configures an outbound heartbeat loop, matching the cadence
// described by venue.Binding.PingInterval.
type PingHandler struct {
	MessageType int
	Message     []byte
	Delay       time.Duration
}

// StartPingLoop sends Message on Connection every Delay until ShutdownC
// closes or a send fails.
func (w *WebsocketConnection) StartPingLoop(h PingHandler) {
	go func() {
		ticker := time.NewTicker(h.Delay)
		defer ticker.Stop()
		for {
			select {
			case <-w.ShutdownC:
				return
			case <-ticker.C:
				if err := w.SendRawMessage(h.MessageType, h.Message); err != nil {
					internallog.Errorf(internallog.WebsocketMgr, "%s ping failed: %s", w.ExchangeName, err)
					return
				}
			}
		}
	}()
}
