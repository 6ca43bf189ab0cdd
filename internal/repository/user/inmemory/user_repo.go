package inmemory

import (
	"context"
	"sync"
	"time"

	"todoTracker/internal/models/user"
	repo "todoTracker/internal/repository"
)

type UserStorage struct {
	storage map[string]user.User
	mtx     *sync.RWMutex
}

func NewUserStorage() *UserStorage {
	return &UserStorage{
		storage: make(map[string]user.User),
		mtx:     &sync.RWMutex{},
	}
}

func (s *UserStorage) Create(ctx context.Context, userToCreate *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[userToCreate.Email]; ok {
		return repo.ErrEmailExists
	}

	userToCreate.CreatedAt = time.Now()
	s.storage[userToCreate.Email] = *userToCreate
	return nil
}

func (s *UserStorage) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	u, ok := s.storage[email]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}
