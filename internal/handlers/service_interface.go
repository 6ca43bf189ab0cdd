package handlers

import (
	"context"

	"todoTracker/internal/models/todo"
	"todoTracker/internal/service"
)

type TodoService interface {
	HealthCheck(ctx context.Context) error
	CreateTask(ctx context.Context, owner string, options ...todo.Option) (*todo.Task, error)
	GetTask(ctx context.Context, owner string, id int64) (*todo.Task, error)
	UpdateTask(ctx context.Context, owner string, id int64, options ...todo.Option) (*todo.Task, error)
	SetCompletion(ctx context.Context, owner string, id int64, completed bool) (*todo.Task, error)
	DeleteTask(ctx context.Context, owner string, id int64) error
	ListTasks(ctx context.Context, owner string, filter todo.Filter, page todo.PageRequest) (*todo.Page, error)
}

type AuthService interface {
	Register(ctx context.Context, email, password string) (*service.AuthToken, error)
	Login(ctx context.Context, email, password string) (*service.AuthToken, error)
}

type WeatherService interface {
	Describe(ctx context.Context, city string) string
}
