package socket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"notify-gateway/config"
	"notify-gateway/inbox"
	"notify-gateway/models"
	"notify-gateway/session"
)

// DialFunc builds a fresh transport for one connection attempt.
type DialFunc func(url string) Transport

// Manager owns the process's single socket connection: it authenticates,
// applies the bounded reconnect policy, and tears down cleanly. Real-time
// notifications are an enhancement, so every failure path here is silent to
// the end user; the dashboard keeps working off manual refresh.
type Manager struct {
	url      string
	provider session.Provider
	inbox    *inbox.Inbox
	router   *Router
	advisor  Advisor
	logger   *slog.Logger
	dial     DialFunc

	// Retry pacing, overridable in tests.
	baseDelay time.Duration
	maxDelay  time.Duration

	mu         sync.Mutex
	state      models.ConnectionState
	transport  Transport
	attempts   int
	retryTimer *time.Timer
}

func NewManager(cfg *config.Config, provider session.Provider, ib *inbox.Inbox, advisor Advisor, logger *slog.Logger) *Manager {
	return &Manager{
		url:       cfg.ResolveSocketURL(),
		provider:  provider,
		inbox:     ib,
		router:    NewRouter(ib, advisor, logger),
		advisor:   advisor,
		logger:    logger.With("component", "socket_manager"),
		dial:      func(url string) Transport { return NewWebsocketTransport(url, logger) },
		baseDelay: reconnectBaseDelay,
		maxDelay:  reconnectMaxDelay,
	}
}

// Connect schedules a connection attempt and returns immediately. It is a
// no-op while an attempt is in flight, after the retry budget is exhausted,
// and when the session store holds no identity or credential.
func (m *Manager) Connect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case models.StateConnecting, models.StateAuthenticating, models.StateAuthenticated, models.StateReconnecting:
		m.logger.Debug("Connect ignored, attempt already in flight", "state", m.state.String())
		return
	case models.StateGivenUp:
		m.logger.Debug("Connect ignored, retry budget exhausted")
		return
	}

	identity, ok := m.sessionReadyLocked()
	if !ok {
		return
	}
	m.startAttemptLocked(identity)
}

// Disconnect detaches everything, closes the transport, cancels any pending
// retry, resets the retry budget, and clears the inbox. Safe to call in any
// state.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.stopRetryTimerLocked()
	m.teardownTransportLocked()
	m.state = models.StateDisconnected
	m.attempts = 0
	m.mu.Unlock()

	m.inbox.Clear()
	m.logger.Info("Socket manager disconnected")
}

// IsConnected reflects the transport-level connect signal, independent of
// authentication.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	t := m.transport
	m.mu.Unlock()

	return t != nil && t.Connected()
}

// State returns the current connection state.
func (m *Manager) State() models.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// sessionReadyLocked reads the session; absence of identity or credential
// silently aborts the attempt.
func (m *Manager) sessionReadyLocked() (models.Identity, bool) {
	identity, ok := m.provider.Identity()
	if !ok {
		m.logger.Debug("Connect skipped, no session identity")
		return models.Identity{}, false
	}
	if _, ok := m.provider.Credential(); !ok {
		m.logger.Debug("Connect skipped, no session credential")
		return models.Identity{}, false
	}
	return identity, true
}

// startAttemptLocked opens one connection attempt. Every listener is armed
// before the dial so no authentication-scoped event can be missed.
func (m *Manager) startAttemptLocked(identity models.Identity) {
	m.stopRetryTimerLocked()
	m.teardownTransportLocked()

	t := m.dial(m.url)
	m.transport = t
	m.state = models.StateConnecting

	t.OnConnect(func() { m.handleConnect(t, identity) })
	t.OnConnectError(func(err error) { m.handleConnectError(t, err) })
	t.OnDisconnect(func(serverInitiated bool) { m.handleDisconnect(t, serverInitiated) })
	t.On(models.EventAuthenticated, func(json.RawMessage) { m.handleAuthenticated(t) })
	t.On(models.EventAuthError, func(data json.RawMessage) { m.handleAuthError(t, data) })
	m.router.Attach(t, identity.Role)

	t.Connect()
}

func (m *Manager) handleConnect(t Transport, identity models.Identity) {
	m.mu.Lock()
	if m.transport != t {
		m.mu.Unlock()
		return
	}
	m.attempts = 0
	m.state = models.StateAuthenticating
	m.mu.Unlock()

	req := models.AuthRequest{
		UserID: identity.UserID,
		Role:   identity.Role,
	}
	if identity.PermanentID != "" {
		req.PermanentID = identity.PermanentID
	} else if identity.Role == models.RoleVendor {
		// Persisted-state fallback for vendors whose identity carries no
		// permanent ID.
		if vendorID, ok := m.provider.VendorID(); ok {
			req.VendorID = vendorID
		}
	}

	if err := t.Emit(models.EventAuthenticate, req); err != nil {
		m.logger.Warn("Failed to send authenticate request", slog.Any("error", err))
	}
}

func (m *Manager) handleAuthenticated(t Transport) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.transport != t {
		return
	}
	m.state = models.StateAuthenticated
	m.logger.Info("Socket authenticated")
}

// handleAuthError surfaces a single advisory and leaves the transport open:
// the failure may be transient server-side state, and transport-level
// reconnection still applies.
func (m *Manager) handleAuthError(t Transport, data json.RawMessage) {
	m.mu.Lock()
	stale := m.transport != t
	m.mu.Unlock()
	if stale {
		return
	}

	var authErr models.AuthError
	if err := json.Unmarshal(data, &authErr); err != nil || authErr.Message == "" {
		authErr.Message = "real-time notification sign-in failed"
	}
	m.logger.Warn("Socket authentication failed", "reason", authErr.Message)
	if m.advisor != nil {
		m.advisor.Advise(AdviceAuthFailed, authErr.Message)
	}
}

func (m *Manager) handleConnectError(t Transport, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.transport != t {
		return
	}

	m.attempts++
	if m.attempts >= maxConnectAttempts {
		// Terminal until an explicit Disconnect+Connect. Logged only: the
		// dashboard must never see this as an error.
		m.logger.Warn("Socket unreachable, giving up",
			"attempts", m.attempts, slog.Any("error", err))
		m.teardownTransportLocked()
		m.state = models.StateGivenUp
		return
	}

	delay := m.retryDelayLocked()
	m.state = models.StateReconnecting
	m.logger.Info("Socket connect failed, retrying",
		"attempt", m.attempts, "delay", delay.String(), slog.Any("error", err))
	m.retryTimer = time.AfterFunc(delay, m.retry)
}

func (m *Manager) handleDisconnect(t Transport, serverInitiated bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.transport != t {
		return
	}

	if !serverInitiated {
		m.teardownTransportLocked()
		m.state = models.StateDisconnected
		return
	}

	m.logger.Info("Socket dropped by server, reconnecting")
	identity, ok := m.sessionReadyLocked()
	if !ok {
		m.teardownTransportLocked()
		m.state = models.StateDisconnected
		return
	}
	m.startAttemptLocked(identity)
}

// retry fires when the reconnect timer elapses. A Disconnect in the
// meantime moves the state away from Reconnecting and the retry becomes a
// no-op.
func (m *Manager) retry() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != models.StateReconnecting {
		return
	}
	identity, ok := m.sessionReadyLocked()
	if !ok {
		m.teardownTransportLocked()
		m.state = models.StateDisconnected
		return
	}
	m.startAttemptLocked(identity)
}

func (m *Manager) retryDelayLocked() time.Duration {
	delay := m.baseDelay
	for i := 1; i < m.attempts; i++ {
		delay *= 2
	}
	if delay > m.maxDelay {
		delay = m.maxDelay
	}
	return delay
}

func (m *Manager) stopRetryTimerLocked() {
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
}

// teardownTransportLocked detaches all listeners and closes the transport.
// Detach-before-attach across attempts is what keeps event delivery free of
// duplicates.
func (m *Manager) teardownTransportLocked() {
	if m.transport == nil {
		return
	}
	t := m.transport
	m.transport = nil

	t.Off(models.EventAuthenticated)
	t.Off(models.EventAuthError)
	m.router.Detach(t)
	t.Close()
}
