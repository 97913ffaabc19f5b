package socket

import (
	"encoding/json"
	"sync"
)

// fakeTransport lets tests drive transport signals and inspect what the
// manager registered and emitted.
type fakeTransport struct {
	mu             sync.Mutex
	handlers       map[string]EventHandler
	onConnect      func()
	onDisconnect   func(bool)
	onConnectError func(error)
	connected      bool
	closed         bool
	connectCalls   int
	emitted        []fakeEmit
}

type fakeEmit struct {
	event   string
	payload interface{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{handlers: make(map[string]EventHandler)}
}

func (t *fakeTransport) Connect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connectCalls++
}

func (t *fakeTransport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.connected = false
}

func (t *fakeTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

func (t *fakeTransport) Emit(event string, payload interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.emitted = append(t.emitted, fakeEmit{event: event, payload: payload})
	return nil
}

func (t *fakeTransport) OnConnect(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onConnect = fn
}

func (t *fakeTransport) OnDisconnect(fn func(bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDisconnect = fn
}

func (t *fakeTransport) OnConnectError(fn func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onConnectError = fn
}

func (t *fakeTransport) On(event string, fn EventHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[event] = fn
}

func (t *fakeTransport) Off(event string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handlers, event)
}

// --- test drivers; callbacks run outside the lock like the real transport ---

func (t *fakeTransport) fireConnect() {
	t.mu.Lock()
	t.connected = true
	fn := t.onConnect
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (t *fakeTransport) fireConnectError(err error) {
	t.mu.Lock()
	fn := t.onConnectError
	t.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

func (t *fakeTransport) fireDisconnect(serverInitiated bool) {
	t.mu.Lock()
	t.connected = false
	fn := t.onDisconnect
	t.mu.Unlock()
	if fn != nil {
		fn(serverInitiated)
	}
}

// deliver hands a raw event to the registered handler, if any.
func (t *fakeTransport) deliver(event, data string) {
	t.mu.Lock()
	fn := t.handlers[event]
	t.mu.Unlock()
	if fn != nil {
		fn(json.RawMessage(data))
	}
}

func (t *fakeTransport) hasHandler(event string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.handlers[event]
	return ok
}

func (t *fakeTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *fakeTransport) connectCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connectCalls
}

func (t *fakeTransport) emittedEvents() []fakeEmit {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]fakeEmit, len(t.emitted))
	copy(out, t.emitted)
	return out
}

// recordingAdvisor captures advisories for assertions.
type recordingAdvisor struct {
	mu      sync.Mutex
	advices []recordedAdvice
}

type recordedAdvice struct {
	kind    AdviceKind
	message string
}

func (a *recordingAdvisor) Advise(kind AdviceKind, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.advices = append(a.advices, recordedAdvice{kind: kind, message: message})
}

func (a *recordingAdvisor) recorded() []recordedAdvice {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]recordedAdvice, len(a.advices))
	copy(out, a.advices)
	return out
}

// panicAdvisor simulates a broken toast layer.
type panicAdvisor struct{}

func (panicAdvisor) Advise(AdviceKind, string) {
	panic("toast layer unavailable")
}
