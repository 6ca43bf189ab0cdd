package service

import (
	"context"
	"time"

	"todoTracker/internal/models/todo"
	"todoTracker/internal/models/user"
)

// TaskRepository - хранилище задач; каждый метод ограничен владельцем
type TaskRepository interface {
	HealthCheck(ctx context.Context) error
	Create(ctx context.Context, task *todo.Task) error
	GetByID(ctx context.Context, owner string, id int64) (*todo.Task, error)
	Update(ctx context.Context, owner string, task *todo.Task) error
	Delete(ctx context.Context, owner string, id int64) error
	FindIDs(ctx context.Context, owner string, filter todo.Filter, page todo.PageRequest, now time.Time) ([]int64, int64, error)
	FindByIDs(ctx context.Context, owner string, ids []int64) ([]*todo.Task, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *user.User) error
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// EventDispatcher не блокирует вызывающего и не возвращает ошибок
type EventDispatcher interface {
	DeadlineChanged(task *todo.Task)
}

type TokenIssuer interface {
	Issue(email string) (token string, expiresAt time.Time, err error)
}
