package user

import (
	"context"
	"strings"
	"sync"

	"passcheck/internal/user/models"
	id "passcheck/pkg/domain"
	"passcheck/pkg/platform/sentinel"
)

// InMemoryStore keeps users in a map. Email uniqueness is case-insensitive,
// matching the lower(email) index of the postgres store.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[id.UserID]*models.User
}

func New() *InMemoryStore {
	return &InMemoryStore{
		users: make(map[id.UserID]*models.User),
	}
}

func (s *InMemoryStore) Insert(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stored := range s.users {
		if strings.EqualFold(stored.Email, user.Email) {
			return sentinel.ErrConflict
		}
	}

	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	out := *stored
	return &out, nil
}

func (s *InMemoryStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, stored := range s.users {
		if strings.EqualFold(stored.Email, email) {
			out := *stored
			return &out, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.User, 0, len(s.users))
	for _, stored := range s.users {
		u := *stored
		out = append(out, &u)
	}
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.users, userID)
	return nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}
