package cached

import (
	"context"
	"sync"
	"time"

	"todoTracker/internal/logger"
	"todoTracker/internal/models/todo"
	repo "todoTracker/internal/repository"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// Store - то, что умеют оба хранилища задач (postgres и inmemory)
type Store interface {
	HealthCheck(ctx context.Context) error
	Create(ctx context.Context, task *todo.Task) error
	GetByID(ctx context.Context, owner string, id int64) (*todo.Task, error)
	Update(ctx context.Context, owner string, task *todo.Task) error
	Delete(ctx context.Context, owner string, id int64) error
	FindIDs(ctx context.Context, owner string, filter todo.Filter, page todo.PageRequest, now time.Time) ([]int64, int64, error)
	FindByIDs(ctx context.Context, owner string, ids []int64) ([]*todo.Task, error)
	FindDueReminders(ctx context.Context, cutoff time.Time, limit int) ([]*todo.Task, error)
	ClaimReminder(ctx context.Context, candidate *todo.Task, send func(context.Context, *todo.Task) error) (bool, error)
}

// TaskStorage кэширует задачи по id поверх основного хранилища.
// В кэше лежат копии, наружу тоже отдаются копии.
// Запись в кэш идёт только из чтения и только если за время чтения не было изменений.
type TaskStorage struct {
	Store
	cache *expirable.LRU[int64, *todo.Task]

	mtx        sync.Mutex
	generation uint64 // растёт при каждом изменении в хранилище
}

func New(store Store, size int, ttl time.Duration) *TaskStorage {
	return &TaskStorage{
		Store: store,
		cache: expirable.NewLRU[int64, *todo.Task](size, nil, ttl),
	}
}

func (s *TaskStorage) currentGeneration() uint64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.generation
}

// invalidate вызывается после записи в хранилище
func (s *TaskStorage) invalidate(id int64) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.generation++
	s.cache.Remove(id)
}

// remember кладёт прочитанную задачу в кэш, если с начала чтения ничего не менялось
func (s *TaskStorage) remember(task *todo.Task, readFrom uint64) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.generation != readFrom {
		logger.Debug("Repository: Задача изменилась во время чтения, в кэш не кладём", zap.Int64("task_id", task.ID))
		return
	}
	s.cache.Add(task.ID, task.Clone())
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *todo.Task) error {
	if err := s.Store.Create(ctx, taskToCreate); err != nil {
		return err
	}
	s.cache.Add(taskToCreate.ID, taskToCreate.Clone())
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, owner string, id int64) (*todo.Task, error) {
	if cached, ok := s.cache.Get(id); ok {
		if cached.OwnerEmail != owner {
			return nil, repo.ErrNotFound
		}
		logger.Debug("Repository: Задача найдена в кэше", zap.Int64("task_id", id))
		return cached.Clone(), nil
	}

	readFrom := s.currentGeneration()
	task, err := s.Store.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	s.remember(task, readFrom)
	return task, nil
}

// Update сбрасывает запись и при ошибке: строка могла исчезнуть или смениться
func (s *TaskStorage) Update(ctx context.Context, owner string, taskToUpdate *todo.Task) error {
	err := s.Store.Update(ctx, owner, taskToUpdate)
	s.invalidate(taskToUpdate.ID)
	return err
}

func (s *TaskStorage) Delete(ctx context.Context, owner string, id int64) error {
	err := s.Store.Delete(ctx, owner, id)
	s.invalidate(id)
	return err
}

func (s *TaskStorage) ClaimReminder(ctx context.Context, candidate *todo.Task, send func(context.Context, *todo.Task) error) (bool, error) {
	claimed, err := s.Store.ClaimReminder(ctx, candidate, send)
	if claimed {
		s.invalidate(candidate.ID)
	}
	return claimed, err
}
