package user

import (
	"context"
	"sort"
	"sync"
	"time"

	"radar/internal/auth/models"
	"radar/pkg/platform/sentinel"
)

// InMemoryUserStore keeps users in a map. It backs tests and local runs.
type InMemoryUserStore struct {
	mu     sync.RWMutex
	users  map[int64]*models.User
	nextID int64
	now    func() time.Time
}

func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		users: make(map[int64]*models.User),
		now:   time.Now,
	}
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(u), nil
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u := s.byEmailLocked(models.NormalizeEmail(email)); u != nil {
		return clone(u), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryUserStore) List(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, clone(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *InMemoryUserStore) Create(_ context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := models.NormalizeEmail(u.Email)
	if s.byEmailLocked(email) != nil {
		return nil, sentinel.ErrConflict
	}
	s.nextID++
	stored := clone(u)
	stored.ID = s.nextID
	stored.Email = email
	stored.CreatedAt = s.now()
	stored.UpdatedAt = stored.CreatedAt
	s.users[stored.ID] = stored
	return clone(stored), nil
}

func (s *InMemoryUserStore) Update(_ context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	email := models.NormalizeEmail(u.Email)
	if other := s.byEmailLocked(email); other != nil && other.ID != u.ID {
		return nil, sentinel.ErrConflict
	}
	stored := clone(u)
	stored.Email = email
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = s.now()
	s.users[u.ID] = stored
	return clone(stored), nil
}

func (s *InMemoryUserStore) byEmailLocked(email string) *models.User {
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func clone(u *models.User) *models.User {
	c := *u
	return &c
}
