package models

import "time"

// Socket event names. These are the wire contract with the notification
// server and must not change independently of it.
const (
	EventAuthenticate  = "authenticate"
	EventAuthenticated = "authenticated"
	EventAuthError     = "authentication_error"
	EventLowStockAlert = "low_stock_alert"
	EventNewOrder      = "new_order"
)

// AuthRequest is the payload of the outbound authenticate event. Vendors
// carry their secondary identifier through exactly one of PermanentID or
// VendorID; VendorID is the persisted-state fallback used when the session
// identity lacks a permanent ID.
type AuthRequest struct {
	UserID      string `json:"userId"`
	Role        Role   `json:"role"`
	PermanentID string `json:"permanentId,omitempty"`
	VendorID    string `json:"vendorId,omitempty"`
}

// AuthError is the payload of an authentication_error event.
type AuthError struct {
	Message string `json:"message"`
}

// LowStockPayload is the payload of a low_stock_alert event, delivered to
// admin sessions.
type LowStockPayload struct {
	VendorName string     `json:"vendorName"`
	SKUName    string     `json:"skuName"`
	Quantity   int        `json:"quantity"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

// OrderCustomer is the customer block nested in an order payload.
type OrderCustomer struct {
	Name string `json:"name"`
}

// OrderData carries the order fields the dashboard renders.
type OrderData struct {
	OrderCode   string        `json:"orderCode"`
	OrderVFC    string        `json:"orderVFC"`
	TotalAmount float64       `json:"totalAmount"`
	User        OrderCustomer `json:"user"`
}

// NewOrderPayload is the payload of a new_order event, delivered to vendor
// sessions.
type NewOrderPayload struct {
	OrderID   string     `json:"orderId"`
	OrderData OrderData  `json:"orderData"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}
