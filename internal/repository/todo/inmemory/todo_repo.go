package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"todoTracker/internal/logger"
	"todoTracker/internal/models/todo"
	repo "todoTracker/internal/repository"

	"go.uber.org/zap"
)

type TaskStorage struct {
	storage map[int64]*todo.Task
	mtx     *sync.RWMutex
	nextID  int64
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[int64]*todo.Task),
		mtx:     &sync.RWMutex{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Хранилище в памяти доступно")
	return nil
}

// id выдаются монотонно и не переиспользуются после удаления
func (s *TaskStorage) Create(ctx context.Context, taskToCreate *todo.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.nextID++
	taskToCreate.ID = s.nextID
	taskToCreate.CreatedAt = time.Now().Truncate(time.Millisecond)
	if taskToCreate.Tags == nil {
		taskToCreate.Tags = []string{}
	}

	s.storage[taskToCreate.ID] = taskToCreate.Clone()
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, owner string, id int64) (*todo.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok || taskToGet.OwnerEmail != owner {
		return nil, repo.ErrNotFound
	}
	return taskToGet.Clone(), nil
}

func (s *TaskStorage) Update(ctx context.Context, owner string, taskToUpdate *todo.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[taskToUpdate.ID]
	if !ok || existing.OwnerEmail != owner {
		return repo.ErrNotFound
	}

	updated := taskToUpdate.Clone()
	// владелец и время создания неизменяемы
	updated.OwnerEmail = existing.OwnerEmail
	updated.CreatedAt = existing.CreatedAt
	// флаг напоминания принадлежит сканеру: сбрасывается только сменой дедлайна
	if todo.SameDeadline(existing.Deadline, updated.Deadline) {
		updated.ReminderSent = existing.ReminderSent
	} else {
		updated.ReminderSent = false
	}
	if updated.Tags == nil {
		updated.Tags = []string{}
	}
	s.storage[updated.ID] = updated

	taskToUpdate.ReminderSent = updated.ReminderSent
	taskToUpdate.CreatedAt = updated.CreatedAt
	return nil
}

func (s *TaskStorage) Delete(ctx context.Context, owner string, id int64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[id]
	if !ok || existing.OwnerEmail != owner {
		return repo.ErrNotFound
	}
	delete(s.storage, id)
	return nil
}

// первая фаза выборки: отфильтрованные id страницы (по убыванию) и общее количество
func (s *TaskStorage) FindIDs(ctx context.Context, owner string, filter todo.Filter, page todo.PageRequest, now time.Time) ([]int64, int64, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	matched := []int64{}
	for id, t := range s.storage {
		if t.OwnerEmail != owner || !matches(t, filter, now) {
			continue
		}
		matched = append(matched, id)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i] > matched[j] })

	total := int64(len(matched))
	offset := page.Offset()
	if offset >= len(matched) {
		return []int64{}, total, nil
	}
	end := offset + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// вторая фаза: полные записи по списку id, порядок не гарантируется
func (s *TaskStorage) FindByIDs(ctx context.Context, owner string, ids []int64) ([]*todo.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	res := make([]*todo.Task, 0, len(ids))
	for id, t := range s.storage {
		if _, ok := wanted[id]; !ok || t.OwnerEmail != owner {
			continue
		}
		res = append(res, t.Clone())
	}
	return res, nil
}

func (s *TaskStorage) FindDueReminders(ctx context.Context, cutoff time.Time, limit int) ([]*todo.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*todo.Task{}
	for _, t := range s.storage {
		if !dueForReminder(t, cutoff) {
			continue
		}
		res = append(res, t.Clone())
	}

	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// ClaimReminder выполняет send под блокировкой и помечает напоминание отправленным только при успехе.
// Если задача успела измениться (выполнена, новый дедлайн, уже напомнили) - send не вызывается.
func (s *TaskStorage) ClaimReminder(ctx context.Context, candidate *todo.Task, send func(context.Context, *todo.Task) error) (bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	current, ok := s.storage[candidate.ID]
	if !ok || current.Completed || current.ReminderSent || !todo.SameDeadline(current.Deadline, candidate.Deadline) {
		logger.Debug("Repository: Задача больше не требует напоминания", zap.Int64("task_id", candidate.ID))
		return false, nil
	}

	if err := send(ctx, current.Clone()); err != nil {
		return false, err
	}

	current.ReminderSent = true
	return true, nil
}

func matches(t *todo.Task, filter todo.Filter, now time.Time) bool {
	if filter.Completed != nil && t.Completed != *filter.Completed {
		return false
	}
	if filter.Priority != nil && t.Priority != *filter.Priority {
		return false
	}
	if filter.Tag != "" && !t.HasTag(filter.Tag) {
		return false
	}
	if filter.Overdue != nil {
		overdue := t.Deadline != nil && t.Deadline.Before(now)
		if overdue != *filter.Overdue {
			return false
		}
	}
	return true
}

func dueForReminder(t *todo.Task, cutoff time.Time) bool {
	return !t.Completed &&
		!t.ReminderSent &&
		t.Deadline != nil &&
		!t.Deadline.After(cutoff)
}
