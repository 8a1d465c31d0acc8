package credstore

import (
	"context"
	"sync"

	"housepass/internal/auth/models"
)

// MemoryStore keeps the credential in memory for tests and ephemeral
// sessions (e.g. a console run that should not persist anything).
type MemoryStore struct {
	mu   sync.RWMutex
	cred *models.Credential
}

// NewMemoryStore constructs an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, cred *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *cred
	s.cred = &copied
	return nil
}

func (s *MemoryStore) Load(_ context.Context) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return nil, nil
	}
	copied := *s.cred
	return &copied, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	return nil
}
