package check

import (
	"context"
	"sync"
	"time"

	"passcheck/internal/checker/models"
	id "passcheck/pkg/domain"
)

// InMemoryStore keeps check records in a map guarded by an RWMutex. It backs
// unit tests and single-node deployments; quota serialization for this store
// lives in the ledger's per-subscription locks.
type InMemoryStore struct {
	mu     sync.RWMutex
	checks map[id.CheckID]*models.PasswordCheck
}

func New() *InMemoryStore {
	return &InMemoryStore{
		checks: make(map[id.CheckID]*models.PasswordCheck),
	}
}

func (s *InMemoryStore) Insert(_ context.Context, check *models.PasswordCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *check
	if stored.SubscriptionID != nil {
		subID := *stored.SubscriptionID
		stored.SubscriptionID = &subID
	}
	s.checks[stored.ID] = &stored
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, checkID id.CheckID) (*models.PasswordCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.checks[checkID]
	if !ok {
		return nil, nil
	}
	out := *stored
	return &out, nil
}

func (s *InMemoryStore) CountInWindow(_ context.Context, subscriptionID id.SubscriptionID, from, to time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, c := range s.checks {
		if c.SubscriptionID == nil || *c.SubscriptionID != subscriptionID {
			continue
		}
		if !c.CreatedAt.Before(from) && c.CreatedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

// CountAllInWindow counts every record with created_at in [from, to),
// regardless of owner. Used by the admin dashboard.
func (s *InMemoryStore) CountAllInWindow(_ context.Context, from, to time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, stored := range s.checks {
		if !stored.CreatedAt.Before(from) && stored.CreatedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) DetachSubscription(_ context.Context, subscriptionID id.SubscriptionID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	detached := 0
	for _, c := range s.checks {
		if c.SubscriptionID != nil && *c.SubscriptionID == subscriptionID {
			c.SubscriptionID = nil
			detached++
		}
	}
	return detached, nil
}

func (s *InMemoryStore) DeleteByUser(_ context.Context, userID id.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for checkID, c := range s.checks {
		if c.UserID == userID {
			delete(s.checks, checkID)
			deleted++
		}
	}
	return deleted, nil
}
