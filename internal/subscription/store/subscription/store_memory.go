package subscription

import (
	"context"
	"sync"
	"time"

	"passcheck/internal/subscription/models"
	id "passcheck/pkg/domain"
	"passcheck/pkg/platform/sentinel"
)

// InMemoryStore keeps subscriptions in a map, mirroring the partial unique
// index of the postgres store: at most one ACTIVE subscription per user.
type InMemoryStore struct {
	mu   sync.RWMutex
	subs map[id.SubscriptionID]*models.Subscription
}

func New() *InMemoryStore {
	return &InMemoryStore{
		subs: make(map[id.SubscriptionID]*models.Subscription),
	}
}

func (s *InMemoryStore) Insert(_ context.Context, sub *models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.Status == models.StatusActive && s.activeExists(sub.UserID, sub.ID) {
		return sentinel.ErrConflict
	}

	stored := clone(sub)
	s.subs[sub.ID] = stored
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, subID id.SubscriptionID) (*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.subs[subID]
	if !ok {
		return nil, nil
	}
	return clone(stored), nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Subscription, 0, len(s.subs))
	for _, stored := range s.subs {
		out = append(out, clone(stored))
	}
	return out, nil
}

func (s *InMemoryStore) ActiveByUser(_ context.Context, userID id.UserID) (*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, stored := range s.subs {
		if stored.UserID == userID && stored.Status == models.StatusActive {
			return clone(stored), nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) Update(_ context.Context, sub *models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[sub.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if sub.Status == models.StatusActive && s.activeExists(sub.UserID, sub.ID) {
		return sentinel.ErrConflict
	}

	s.subs[sub.ID] = clone(sub)
	return nil
}

func (s *InMemoryStore) MarkExpired(_ context.Context, subID id.SubscriptionID, today time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.subs[subID]
	if !ok {
		return false, nil
	}
	if !stored.ExpiredBy(today) {
		return false, nil
	}
	stored.Status = models.StatusExpired
	return true, nil
}

func (s *InMemoryStore) Delete(_ context.Context, subID id.SubscriptionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[subID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.subs, subID)
	return nil
}

func (s *InMemoryStore) DeleteByUser(_ context.Context, userID id.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for subID, stored := range s.subs {
		if stored.UserID == userID {
			delete(s.subs, subID)
			deleted++
		}
	}
	return deleted, nil
}

func (s *InMemoryStore) CountByPlan(_ context.Context, planID id.PlanID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, stored := range s.subs {
		if stored.PlanID == planID {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs), nil
}

// activeExists must be called with the lock held.
func (s *InMemoryStore) activeExists(userID id.UserID, excludeID id.SubscriptionID) bool {
	for _, stored := range s.subs {
		if stored.ID == excludeID {
			continue
		}
		if stored.UserID == userID && stored.Status == models.StatusActive {
			return true
		}
	}
	return false
}

func clone(sub *models.Subscription) *models.Subscription {
	out := *sub
	if sub.EndDate != nil {
		end := *sub.EndDate
		out.EndDate = &end
	}
	return &out
}
