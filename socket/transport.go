package socket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// EventHandler consumes the raw payload of one named server event.
type EventHandler func(data json.RawMessage)

// Transport is one persistent named-event connection to the notification
// server. Connect is asynchronous: the outcome arrives through exactly one
// of the OnConnect or OnConnectError callbacks. Implementations deliver all
// callbacks sequentially from a single goroutine, so handlers never run
// concurrently with each other.
type Transport interface {
	// Connect starts dialing in the background.
	Connect()

	// Close tears the connection down. The resulting disconnect signal, if
	// any, reports as client-initiated.
	Close()

	// Connected reports whether the transport-level connect signal has
	// fired, independent of authentication.
	Connected() bool

	// Emit sends one named event with a JSON payload.
	Emit(event string, payload interface{}) error

	OnConnect(fn func())
	OnDisconnect(fn func(serverInitiated bool))
	OnConnectError(fn func(err error))

	// On registers the handler for one named event, replacing any previous
	// one. Off removes it. Events without a handler are ignored.
	On(event string, fn EventHandler)
	Off(event string)
}

// envelope is the wire frame: every message is a named event with a JSON
// payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// wsTransport implements Transport over a gorilla websocket.
type wsTransport struct {
	url    string
	logger *slog.Logger

	mu             sync.Mutex
	conn           *websocket.Conn
	connected      bool
	closing        bool
	handlers       map[string]EventHandler
	onConnect      func()
	onDisconnect   func(bool)
	onConnectError func(error)
}

// NewWebsocketTransport builds a transport for the given endpoint. The
// endpoint may use an http(s) or ws(s) scheme; http schemes are rewritten.
func NewWebsocketTransport(rawURL string, logger *slog.Logger) Transport {
	return &wsTransport{
		url:      rawURL,
		logger:   logger.With("component", "socket_transport"),
		handlers: make(map[string]EventHandler),
	}
}

func (t *wsTransport) Connect() {
	go t.dial()
}

func (t *wsTransport) dial() {
	endpoint, err := websocketURL(t.url)
	if err != nil {
		t.fireConnectError(err)
		return
	}

	dialer := websocket.Dialer{HandshakeTimeout: connectTimeout}
	conn, _, err := dialer.Dial(endpoint, nil)
	if err != nil {
		t.fireConnectError(err)
		return
	}

	t.mu.Lock()
	if t.closing {
		t.mu.Unlock()
		conn.Close()
		return
	}
	t.conn = conn
	t.connected = true
	onConnect := t.onConnect
	t.mu.Unlock()

	t.logger.Info("Socket connected", "endpoint", endpoint)
	if onConnect != nil {
		onConnect()
	}

	t.readLoop(conn)
}

// readLoop is the single delivery goroutine: every inbound event handler
// and the disconnect callback run here, one at a time.
func (t *wsTransport) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			serverInitiated := !t.closing
			t.connected = false
			t.conn = nil
			onDisconnect := t.onDisconnect
			t.mu.Unlock()

			conn.Close()
			t.logger.Info("Socket disconnected", "serverInitiated", serverInitiated)
			if onDisconnect != nil {
				onDisconnect(serverInitiated)
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.logger.Warn("Dropping malformed frame", slog.Any("error", err))
			continue
		}

		t.mu.Lock()
		handler := t.handlers[env.Event]
		t.mu.Unlock()

		if handler == nil {
			t.logger.Debug("Ignoring unhandled event", "event", env.Event)
			continue
		}
		handler(env.Data)
	}
}

func (t *wsTransport) fireConnectError(err error) {
	t.mu.Lock()
	closing := t.closing
	onConnectError := t.onConnectError
	t.mu.Unlock()

	if closing {
		return
	}
	t.logger.Warn("Socket connect failed", slog.Any("error", err))
	if onConnectError != nil {
		onConnectError(err)
	}
}

func (t *wsTransport) Close() {
	t.mu.Lock()
	t.closing = true
	conn := t.conn
	t.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

func (t *wsTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.connected
}

func (t *wsTransport) Emit(event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	frame, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("failed to encode %s frame: %w", event, err)
	}

	// The write also happens under the transport lock: gorilla connections
	// support only one concurrent writer.
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil || !t.connected {
		return fmt.Errorf("socket is not connected")
	}
	return t.conn.WriteMessage(websocket.TextMessage, frame)
}

func (t *wsTransport) OnConnect(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onConnect = fn
}

func (t *wsTransport) OnDisconnect(fn func(bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDisconnect = fn
}

func (t *wsTransport) OnConnectError(fn func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onConnectError = fn
}

func (t *wsTransport) On(event string, fn EventHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[event] = fn
}

func (t *wsTransport) Off(event string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handlers, event)
}

// websocketURL rewrites an http(s) endpoint to its ws(s) equivalent and
// defaults the path to /ws.
func websocketURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid socket URL %q: %w", rawURL, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported socket URL scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// Design constants for the connection policy.
const (
	maxConnectAttempts = 3
	reconnectBaseDelay = 2 * time.Second
	reconnectMaxDelay  = 10 * time.Second
	connectTimeout     = 10 * time.Second
)
