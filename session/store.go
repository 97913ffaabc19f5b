// Package session holds the dashboard session state the socket layer
// authenticates with: the signed-in identity, the bearer token, and the
// persisted vendor-id shim.
package session

import "notify-gateway/models"

// Provider supplies the current session identity and bearer credential.
// Absence is reported through the boolean return, never an error: a missing
// session means the socket simply does not connect.
type Provider interface {
	// Identity returns the signed-in user, if any.
	Identity() (models.Identity, bool)

	// Credential returns the bearer token, if any.
	Credential() (string, bool)

	// VendorID returns the persisted vendor identifier. It is a
	// compatibility shim: the handshake only consults it when a vendor
	// identity carries no permanent ID.
	VendorID() (string, bool)

	// Clear drops all session state.
	Clear()
}

// Store is a Provider the dashboard can also write to, which is how login
// hands the session to the gateway.
type Store interface {
	Provider

	SaveSession(identity models.Identity, token string) error
	SaveVendorID(vendorID string) error
}
