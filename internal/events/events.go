package events

import (
	"time"

	"todoTracker/internal/models/todo"
)

// DeadlineEvent уходит в топик задач при создании задачи с дедлайном и при смене дедлайна
type DeadlineEvent struct {
	TaskID              int64  `json:"taskId"`
	Title               string `json:"title"`
	DeadlineEpochMillis int64  `json:"deadlineEpochMillis"`
}

// EmailSendEvent - письмо-напоминание для почтового сервиса
type EmailSendEvent struct {
	ToAddress string `json:"toAddress"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

func NewDeadlineEvent(task *todo.Task) DeadlineEvent {
	event := DeadlineEvent{
		TaskID: task.ID,
		Title:  task.Title,
	}
	if task.Deadline != nil {
		event.DeadlineEpochMillis = task.Deadline.UnixMilli()
	}
	return event
}

func (e DeadlineEvent) Deadline() time.Time {
	return time.UnixMilli(e.DeadlineEpochMillis)
}
