package todo

import (
	"strings"
	"time"
)

type Option func(*Task)

// WithTitle сохраняет название без пробелов по краям
func WithTitle(title string) Option {
	return func(task *Task) {
		task.Title = strings.TrimSpace(title)
	}
}

func WithDescription(description string) Option {
	return func(task *Task) {
		task.Description = description
	}
}

func WithCompleted(completed bool) Option {
	return func(task *Task) {
		task.Completed = completed
	}
}

func WithPriority(priority Priority) Option {
	if priority == "" {
		return nil
	}
	return func(task *Task) {
		task.Priority = priority
	}
}

func WithTags(tags []string) Option {
	return func(task *Task) {
		task.Tags = append([]string{}, tags...)
	}
}

func WithDeadline(deadline time.Time) Option {
	if deadline.IsZero() {
		return nil
	}
	return func(task *Task) {
		task.SetDeadline(&deadline)
	}
}
