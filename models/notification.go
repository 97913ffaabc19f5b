package models

import "time"

// NotificationKind identifies the domain event a notification was built from.
type NotificationKind string

const (
	KindLowStock NotificationKind = "low_stock"
	KindNewOrder NotificationKind = "new_order"
)

// Notification is one entry in the in-memory inbox. Message and Payload are
// immutable once created; only Read changes afterwards, and only from false
// to true.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	Payload   interface{}      `json:"payload,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`
}
