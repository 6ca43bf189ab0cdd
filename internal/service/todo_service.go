package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"todoTracker/internal/logger"
	"todoTracker/internal/models/todo"
	rep "todoTracker/internal/repository"

	"go.uber.org/zap"
)

const taskResource = "Задача"

// здесь происходит проверка ошибок бизнес-логики

type TodoService struct {
	repo   TaskRepository
	events EventDispatcher
	now    func() time.Time
}

func NewTodoService(repo TaskRepository, events EventDispatcher) *TodoService {
	return &TodoService{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

func (s *TodoService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

func (s *TodoService) CreateTask(ctx context.Context, owner string, options ...todo.Option) (*todo.Task, error) {
	task := &todo.Task{
		OwnerEmail: owner,
		Tags:       []string{},
	}
	applyOptions(task, options)
	task.Completed = false
	task.ReminderSent = false

	if err := validateTask(task); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана", zap.Int64("task_id", task.ID), zap.String("owner", owner))

	if task.Deadline != nil {
		s.events.DeadlineChanged(task.Clone())
	}
	return task, nil
}

func (s *TodoService) GetTask(ctx context.Context, owner string, id int64) (*todo.Task, error) {
	task, err := s.repo.GetByID(ctx, owner, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.Int64("target_id", id))
			return nil, NewNotFound(taskResource, id)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return task, nil
}

// UpdateTask применяет только переданные опции, остальные поля не меняются
func (s *TodoService) UpdateTask(ctx context.Context, owner string, id int64, options ...todo.Option) (*todo.Task, error) {
	task, err := s.GetTask(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	previous := task.Deadline
	applyOptions(task, options)

	if err := validateTask(task); err != nil {
		return nil, err
	}

	if err := s.save(ctx, owner, task); err != nil {
		return nil, err
	}

	if task.Deadline != nil && !todo.SameDeadline(previous, task.Deadline) {
		logger.Debug("Service: Дедлайн изменён", zap.Int64("task_id", id))
		s.events.DeadlineChanged(task.Clone())
	}
	return task, nil
}

func (s *TodoService) SetCompletion(ctx context.Context, owner string, id int64, completed bool) (*todo.Task, error) {
	return s.UpdateTask(ctx, owner, id, todo.WithCompleted(completed))
}

func (s *TodoService) DeleteTask(ctx context.Context, owner string, id int64) error {
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.Int64("target_id", id))
			return NewNotFound(taskResource, id)
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}

	logger.Info("Service: Задача удалена", zap.Int64("task_id", id))
	return nil
}

func (s *TodoService) save(ctx context.Context, owner string, task *todo.Task) error {
	if err := s.repo.Update(ctx, owner, task); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound(taskResource, task.ID)
		}
		return fmt.Errorf("обновление задачи: %w", err)
	}
	return nil
}

func applyOptions(task *todo.Task, options []todo.Option) {
	for _, opt := range options {
		if opt != nil {
			opt(task)
		}
	}
}

func validateTask(task *todo.Task) error {
	if n := utf8.RuneCountInString(task.Title); n < todo.TitleMinLen || n > todo.TitleMaxLen {
		return NewValidationError("title", fmt.Sprintf("длина должна быть от %d до %d символов", todo.TitleMinLen, todo.TitleMaxLen))
	}
	if utf8.RuneCountInString(task.Description) > todo.DescriptionMaxLen {
		return NewValidationError("description", fmt.Sprintf("не более %d символов", todo.DescriptionMaxLen))
	}
	if _, ok := todo.ParsePriority(string(task.Priority)); !ok {
		return NewValidationError("priority", "допустимые значения: LOW, MEDIUM, HIGH")
	}
	if len(task.Tags) > todo.MaxTags {
		return NewValidationError("tags", fmt.Sprintf("не более %d тегов", todo.MaxTags))
	}
	for _, tag := range task.Tags {
		if n := utf8.RuneCountInString(tag); n == 0 || n > todo.TagMaxLen {
			return NewValidationError("tags", fmt.Sprintf("длина тега должна быть от 1 до %d символов", todo.TagMaxLen))
		}
	}
	return nil
}
