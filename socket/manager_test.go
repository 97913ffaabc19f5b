package socket

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"notify-gateway/config"
	"notify-gateway/inbox"
	"notify-gateway/models"
	"notify-gateway/session"
	"notify-gateway/utils"
)

type managerFixture struct {
	manager *Manager
	store   *session.MemoryStore
	inbox   *inbox.Inbox
	advisor *recordingAdvisor

	mu         sync.Mutex
	transports []*fakeTransport
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newManagerFixture(t *testing.T, identity models.Identity, token string) *managerFixture {
	t.Helper()

	store := session.NewMemoryStore()
	if identity.UserID != "" {
		require.NoError(t, store.SaveSession(identity, token))
	}

	f := &managerFixture{
		store:   store,
		inbox:   inbox.New(),
		advisor: &recordingAdvisor{},
	}

	cfg := &config.Config{SocketURL: "http://localhost:5000"}
	f.manager = NewManager(cfg, store, f.inbox, f.advisor, testLogger())
	f.manager.baseDelay = time.Millisecond
	f.manager.maxDelay = 4 * time.Millisecond
	f.manager.dial = func(string) Transport {
		f.mu.Lock()
		defer f.mu.Unlock()
		tr := newFakeTransport()
		f.transports = append(f.transports, tr)
		return tr
	}
	return f
}

func (f *managerFixture) dialCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transports)
}

func (f *managerFixture) transport(i int) *fakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transports[i]
}

func adminIdentity() models.Identity {
	return models.Identity{UserID: "u-1", Role: models.RoleAdmin}
}

func TestConnectWithoutIdentityIsNoop(t *testing.T) {
	f := newManagerFixture(t, models.Identity{}, "")

	f.manager.Connect()

	require.Equal(t, 0, f.dialCount())
	require.Equal(t, models.StateDisconnected, f.manager.State())
}

func TestConnectWithoutCredentialIsNoop(t *testing.T) {
	f := newManagerFixture(t, adminIdentity(), "")

	f.manager.Connect()

	require.Equal(t, 0, f.dialCount())
	require.Equal(t, models.StateDisconnected, f.manager.State())
}

func TestConnectHandshake(t *testing.T) {
	f := newManagerFixture(t, adminIdentity(), "token-1")

	f.manager.Connect()
	require.Equal(t, 1, f.dialCount())
	require.Equal(t, models.StateConnecting, f.manager.State())

	tr := f.transport(0)
	require.Equal(t, 1, tr.connectCount())

	// Every listener must be armed before the transport connects, so no
	// authentication-scoped event can slip past.
	require.True(t, tr.hasHandler(models.EventAuthenticated))
	require.True(t, tr.hasHandler(models.EventAuthError))
	require.True(t, tr.hasHandler(models.EventLowStockAlert))

	tr.fireConnect()
	require.Equal(t, models.StateAuthenticating, f.manager.State())
	require.True(t, f.manager.IsConnected())

	emitted := tr.emittedEvents()
	require.Len(t, emitted, 1)
	require.Equal(t, models.EventAuthenticate, emitted[0].event)
	req, ok := emitted[0].payload.(models.AuthRequest)
	require.True(t, ok)
	require.Equal(t, "u-1", req.UserID)
	require.Equal(t, models.RoleAdmin, req.Role)

	tr.deliver(models.EventAuthenticated, `{}`)
	require.Equal(t, models.StateAuthenticated, f.manager.State())
}

func TestConnectIsIdempotentWhileInFlight(t *testing.T) {
	f := newManagerFixture(t, adminIdentity(), "token-1")

	f.manager.Connect()
	f.manager.Connect()
	require.Equal(t, 1, f.dialCount())

	f.transport(0).fireConnect()
	f.manager.Connect()
	require.Equal(t, 1, f.dialCount())
	require.Equal(t, 1, f.transport(0).connectCount())
}

func TestVendorHandshakeUsesPermanentID(t *testing.T) {
	identity := models.Identity{UserID: "v-1", Role: models.RoleVendor, PermanentID: "perm-7"}
	f := newManagerFixture(t, identity, "token-1")
	require.NoError(t, f.store.SaveVendorID("vendor-9"))

	f.manager.Connect()
	f.transport(0).fireConnect()

	emitted := f.transport(0).emittedEvents()
	require.Len(t, emitted, 1)
	req := emitted[0].payload.(models.AuthRequest)
	require.Equal(t, "perm-7", req.PermanentID)
	require.Empty(t, req.VendorID)
}

func TestVendorHandshakeFallsBackToStoredVendorID(t *testing.T) {
	identity := models.Identity{UserID: "v-1", Role: models.RoleVendor}
	f := newManagerFixture(t, identity, "token-1")
	require.NoError(t, f.store.SaveVendorID("vendor-9"))

	f.manager.Connect()
	f.transport(0).fireConnect()

	emitted := f.transport(0).emittedEvents()
	require.Len(t, emitted, 1)
	req := emitted[0].payload.(models.AuthRequest)
	require.Empty(t, req.PermanentID)
	require.Equal(t, "vendor-9", req.VendorID)
}

func TestAuthErrorRaisesAdvisoryAndKeepsTransport(t *testing.T) {
	f := newManagerFixture(t, adminIdentity(), "token-1")

	f.manager.Connect()
	tr := f.transport(0)
	tr.fireConnect()

	tr.deliver(models.EventAuthError, `{"message":"stale token"}`)

	advices := f.advisor.recorded()
	require.Len(t, advices, 1)
	require.Equal(t, AdviceAuthFailed, advices[0].kind)
	require.Equal(t, "stale token", advices[0].message)

	// Not fatal: the transport stays open for transport-level reconnection.
	require.False(t, tr.isClosed())
	require.Equal(t, models.StateAuthenticating, f.manager.State())
}

func TestRetryBudgetExhaustionGivesUpSilently(t *testing.T) {
	f := newManagerFixture(t, adminIdentity(), "token-1")

	f.manager.Connect()
	f.transport(0).fireConnectError(errors.New("refused"))
	require.Equal(t, models.StateReconnecting, f.manager.State())

	require.Eventually(t, func() bool { return f.dialCount() == 2 }, time.Second, time.Millisecond)
	f.transport(1).fireConnectError(errors.New("refused"))

	require.Eventually(t, func() bool { return f.dialCount() == 3 }, time.Second, time.Millisecond)
	f.transport(2).fireConnectError(errors.New("refused"))

	require.Equal(t, models.StateGivenUp, f.manager.State())
	require.True(t, f.transport(2).isClosed())
	require.False(t, f.manager.IsConnected())

	// Terminal: Connect without an explicit Disconnect stays a no-op.
	f.manager.Connect()
	require.Equal(t, 3, f.dialCount())
	require.Equal(t, models.StateGivenUp, f.manager.State())

	// Explicit reset allows a fresh budget.
	f.manager.Disconnect()
	f.manager.Connect()
	require.Equal(t, 4, f.dialCount())
	require.Equal(t, models.StateConnecting, f.manager.State())
}

func TestDisconnectDuringReconnectCancelsRetry(t *testing.T) {
	f := newManagerFixture(t, adminIdentity(), "token-1")

	f.manager.Connect()
	f.transport(0).fireConnectError(errors.New("refused"))
	require.Equal(t, models.StateReconnecting, f.manager.State())

	f.manager.Disconnect()
	require.Equal(t, models.StateDisconnected, f.manager.State())

	// Well past the retry delay: the cancelled timer must not dial again.
	time.Sleep(25 * time.Millisecond)
	require.Equal(t, 1, f.dialCount())
}

func TestAttemptCounterResetsOnSuccessfulConnect(t *testing.T) {
	f := newManagerFixture(t, adminIdentity(), "token-1")

	f.manager.Connect()
	f.transport(0).fireConnectError(errors.New("refused"))
	require.Eventually(t, func() bool { return f.dialCount() == 2 }, time.Second, time.Millisecond)

	// Success wipes the counter; the budget starts over afterwards.
	f.transport(1).fireConnect()
	f.transport(1).fireDisconnect(true)
	require.Equal(t, 3, f.dialCount())

	f.transport(2).fireConnectError(errors.New("refused"))
	require.Equal(t, models.StateReconnecting, f.manager.State())

	require.Eventually(t, func() bool { return f.dialCount() == 4 }, time.Second, time.Millisecond)
	f.transport(3).fireConnectError(errors.New("refused"))
	require.Eventually(t, func() bool { return f.dialCount() == 5 }, time.Second, time.Millisecond)
	f.transport(4).fireConnectError(errors.New("refused"))

	require.Equal(t, models.StateGivenUp, f.manager.State())
}

func TestServerDisconnectReconnectsImmediately(t *testing.T) {
	f := newManagerFixture(t, adminIdentity(), "token-1")

	f.manager.Connect()
	tr := f.transport(0)
	tr.fireConnect()
	tr.deliver(models.EventAuthenticated, `{}`)
	require.Equal(t, models.StateAuthenticated, f.manager.State())

	tr.fireDisconnect(true)
	require.Equal(t, 2, f.dialCount())
	require.Equal(t, models.StateConnecting, f.manager.State())
	require.Equal(t, 1, f.transport(1).connectCount())
}

func TestClientDisconnectDoesNotReconnect(t *testing.T) {
	f := newManagerFixture(t, adminIdentity(), "token-1")

	f.manager.Connect()
	tr := f.transport(0)
	tr.fireConnect()

	tr.fireDisconnect(false)
	require.Equal(t, models.StateDisconnected, f.manager.State())
	require.Equal(t, 1, f.dialCount())
}

func TestDisconnectClearsInbox(t *testing.T) {
	f := newManagerFixture(t, adminIdentity(), "token-1")
	f.inbox.Add(models.Notification{ID: utils.GenerateNotificationID(), Kind: models.KindLowStock})

	f.manager.Disconnect()

	require.Equal(t, 0, f.inbox.Len())
	require.Equal(t, models.StateDisconnected, f.manager.State())
}

func TestReconnectDoesNotDuplicateListeners(t *testing.T) {
	f := newManagerFixture(t, adminIdentity(), "token-1")

	f.manager.Connect()
	first := f.transport(0)
	first.fireConnect()
	first.deliver(models.EventLowStockAlert, `{"vendorName":"Acme","skuName":"Widget","quantity":3}`)
	require.Equal(t, 1, f.inbox.Len())

	first.fireDisconnect(true)
	require.Equal(t, 2, f.dialCount())

	// Old transport lost its listeners; delivering there produces nothing.
	first.deliver(models.EventLowStockAlert, `{"vendorName":"Acme","skuName":"Widget","quantity":3}`)
	require.Equal(t, 1, f.inbox.Len())

	second := f.transport(1)
	second.fireConnect()
	second.deliver(models.EventLowStockAlert, `{"vendorName":"Acme","skuName":"Widget","quantity":2}`)
	require.Equal(t, 2, f.inbox.Len())
}
