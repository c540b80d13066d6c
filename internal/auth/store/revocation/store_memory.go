package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is the single-process fallback when no Redis is configured.
type InMemoryStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		revoked: make(map[string]time.Time),
	}
}

func (s *InMemoryStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	s.mu.Lock()
	s.revoked[jti] = time.Now().Add(ttl)
	s.mu.Unlock()
	return nil
}

func (s *InMemoryStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	now := time.Now()

	s.mu.RLock()
	expiry, ok := s.revoked[jti]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if now.After(expiry) {
		s.mu.Lock()
		if cur, still := s.revoked[jti]; still && now.After(cur) {
			delete(s.revoked, jti)
		}
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}
