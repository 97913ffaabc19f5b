package socket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"notify-gateway/inbox"
	"notify-gateway/models"
	"notify-gateway/utils"
)

// Translator converts one raw server event payload into a notification. It
// is pure: no side effects, and an error means the event is dropped.
type Translator func(data json.RawMessage, receivedAt time.Time) (*models.Notification, error)

// roleEvents is the declarative role -> event table. Unknown roles get no
// listeners.
func roleEvents(role models.Role) map[string]Translator {
	switch role {
	case models.RoleAdmin:
		return map[string]Translator{
			models.EventLowStockAlert: translateLowStock,
		}
	case models.RoleVendor:
		return map[string]Translator{
			models.EventNewOrder: translateNewOrder,
		}
	default:
		return nil
	}
}

// Router attaches the role-scoped event listeners of one connection and
// feeds translated notifications into the inbox. At most one attachment
// exists at a time; attaching always detaches the previous set first, so a
// re-authentication after a reconnect can never double up listeners.
type Router struct {
	inbox   *inbox.Inbox
	advisor Advisor
	logger  *slog.Logger

	mu       sync.Mutex
	attached Transport
	events   []string
}

func NewRouter(ib *inbox.Inbox, advisor Advisor, logger *slog.Logger) *Router {
	return &Router{
		inbox:   ib,
		advisor: advisor,
		logger:  logger.With("component", "event_router"),
	}
}

// Attach registers the role's listeners on t, replacing any previous
// attachment.
func (r *Router) Attach(t Transport, role models.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.detachLocked()

	table := roleEvents(role)
	if len(table) == 0 {
		r.logger.Debug("No notification events for role", "role", string(role))
		return
	}

	for event, translate := range table {
		event, translate := event, translate
		t.On(event, func(data json.RawMessage) {
			r.dispatch(event, translate, data)
		})
		r.events = append(r.events, event)
	}
	r.attached = t
	r.logger.Info("Notification listeners attached", "role", string(role), "events", len(r.events))
}

// Detach removes the listeners if t is the attached transport.
func (r *Router) Detach(t Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.attached == t {
		r.detachLocked()
	}
}

func (r *Router) detachLocked() {
	if r.attached == nil {
		return
	}
	for _, event := range r.events {
		r.attached.Off(event)
	}
	r.attached = nil
	r.events = nil
}

func (r *Router) dispatch(event string, translate Translator, data json.RawMessage) {
	n, err := translate(data, time.Now())
	if err != nil {
		r.logger.Warn("Dropping event", "event", event, slog.Any("error", err))
		return
	}

	r.inbox.Add(*n)
	r.advise(n)
}

// advise raises the toast-equivalent nudge. The notification is already in
// the inbox, so a broken advisor must not take it down with it.
func (r *Router) advise(n *models.Notification) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("Notification advisory failed", slog.Any("panic", rec))
		}
	}()

	if r.advisor != nil {
		r.advisor.Advise(AdviceNewNotification, n.Message)
	}
}

func translateLowStock(data json.RawMessage, receivedAt time.Time) (*models.Notification, error) {
	if len(data) == 0 {
		return nil, errors.New("empty low stock payload")
	}
	var p models.LowStockPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("malformed low stock payload: %w", err)
	}
	if p.SKUName == "" {
		return nil, errors.New("low stock payload missing skuName")
	}

	vendor := p.VendorName
	if vendor == "" {
		vendor = "an unknown vendor"
	}
	message := fmt.Sprintf("Low stock: %s from %s has only %d left", p.SKUName, vendor, p.Quantity)

	return &models.Notification{
		ID:        utils.GenerateNotificationID(),
		Kind:      models.KindLowStock,
		Message:   message,
		Payload:   p,
		Timestamp: eventTime(p.Timestamp, receivedAt),
	}, nil
}

func translateNewOrder(data json.RawMessage, receivedAt time.Time) (*models.Notification, error) {
	if len(data) == 0 {
		return nil, errors.New("empty order payload")
	}
	var p models.NewOrderPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("malformed order payload: %w", err)
	}
	if p.OrderID == "" {
		return nil, errors.New("order payload missing orderId")
	}

	code := p.OrderData.OrderCode
	if code == "" {
		code = p.OrderID
	}
	customer := p.OrderData.User.Name
	if customer == "" {
		customer = "a customer"
	}
	message := fmt.Sprintf("New order %s from %s for %.2f", code, customer, p.OrderData.TotalAmount)

	return &models.Notification{
		ID:        utils.GenerateNotificationID(),
		Kind:      models.KindNewOrder,
		Message:   message,
		Payload:   p,
		Timestamp: eventTime(p.Timestamp, receivedAt),
	}, nil
}

// eventTime prefers the server-supplied timestamp and falls back to the
// capture time at arrival.
func eventTime(ts *time.Time, receivedAt time.Time) time.Time {
	if ts != nil && !ts.IsZero() {
		return *ts
	}
	return receivedAt
}
