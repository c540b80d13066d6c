package plan

import (
	"context"
	"sync"

	"passcheck/internal/subscription/models"
	id "passcheck/pkg/domain"
	"passcheck/pkg/platform/sentinel"
)

// InMemoryStore keeps plans in a map. Used in tests and single-process runs
// without PostgreSQL.
type InMemoryStore struct {
	mu    sync.RWMutex
	plans map[id.PlanID]*models.Plan
}

func New() *InMemoryStore {
	return &InMemoryStore{
		plans: make(map[id.PlanID]*models.Plan),
	}
}

func (s *InMemoryStore) Insert(_ context.Context, plan *models.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTaken(plan.Name, plan.ID) {
		return sentinel.ErrConflict
	}

	stored := *plan
	s.plans[plan.ID] = &stored
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, planID id.PlanID) (*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.plans[planID]
	if !ok {
		return nil, nil
	}
	out := *stored
	return &out, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Plan, 0, len(s.plans))
	for _, stored := range s.plans {
		p := *stored
		out = append(out, &p)
	}
	return out, nil
}

func (s *InMemoryStore) ExistsByName(_ context.Context, name string, excludeID id.PlanID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.nameTaken(name, excludeID), nil
}

func (s *InMemoryStore) Update(_ context.Context, plan *models.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[plan.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.nameTaken(plan.Name, plan.ID) {
		return sentinel.ErrConflict
	}

	stored := *plan
	s.plans[plan.ID] = &stored
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, planID id.PlanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[planID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.plans, planID)
	return nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plans), nil
}

// nameTaken must be called with the lock held.
func (s *InMemoryStore) nameTaken(name string, excludeID id.PlanID) bool {
	for _, stored := range s.plans {
		if stored.ID == excludeID {
			continue
		}
		if stored.Name == name {
			return true
		}
	}
	return false
}
