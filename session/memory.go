package session

import (
	"sync"

	"notify-gateway/models"
)

// MemoryStore is an in-process session store for local runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	identity models.Identity
	hasUser  bool
	token    string
	vendorID string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Identity() (models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasUser {
		return models.Identity{}, false
	}
	return s.identity, true
}

func (s *MemoryStore) Credential() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token, s.token != ""
}

func (s *MemoryStore) VendorID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.vendorID, s.vendorID != ""
}

func (s *MemoryStore) SaveSession(identity models.Identity, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = identity
	s.hasUser = identity.UserID != "" && identity.Role != ""
	s.token = token
	return nil
}

func (s *MemoryStore) SaveVendorID(vendorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vendorID = vendorID
	return nil
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = models.Identity{}
	s.hasUser = false
	s.token = ""
	s.vendorID = ""
}
