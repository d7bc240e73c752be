package memory

import (
	"sync"

	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
)

// Ensure CredentialsStore implements the interface.
var _ driven.CredentialsStore = (*CredentialsStore)(nil)

// CredentialsStore is an in-memory implementation of driven.CredentialsStore for testing.
type CredentialsStore struct {
	mu    sync.RWMutex
	token string
}

// NewCredentialsStore creates a new in-memory credentials store.
func NewCredentialsStore() *CredentialsStore {
	return &CredentialsStore{}
}

// PocketAccessToken returns the stored token.
func (s *CredentialsStore) PocketAccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetPocketAccessToken stores the token.
func (s *CredentialsStore) SetPocketAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}
