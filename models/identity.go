package models

// Role identifies which portal the session belongs to. Anything else
// attaches no notification listeners.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleVendor Role = "vendor"
)

// Identity is the session identity presented to the notification server
// during the authenticate handshake. It is read once per connection attempt
// and never mutated in flight.
type Identity struct {
	UserID      string `json:"userId"`
	Role        Role   `json:"role"`
	PermanentID string `json:"permanentId,omitempty"`
}

// ConnectionState tracks the lifecycle of the single socket connection.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateAuthenticating
	StateAuthenticated
	StateReconnecting
	StateGivenUp
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateReconnecting:
		return "reconnecting"
	case StateGivenUp:
		return "given_up"
	default:
		return "unknown"
	}
}
