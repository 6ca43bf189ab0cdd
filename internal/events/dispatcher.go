package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"todoTracker/internal/logger"
	"todoTracker/internal/models/todo"

	"go.uber.org/zap"
)

type Dispatcher struct {
	publisher  Publisher
	todoTopic  string
	emailTopic string
	timeout    time.Duration
	inflight   sync.WaitGroup
}

func NewDispatcher(publisher Publisher, todoTopic, emailTopic string, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		publisher:  publisher,
		todoTopic:  todoTopic,
		emailTopic: emailTopic,
		timeout:    timeout,
	}
}

// DeadlineChanged публикует событие в фоне; ошибки только логируются
func (d *Dispatcher) DeadlineChanged(task *todo.Task) {
	event := NewDeadlineEvent(task)

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.publish(ctx, d.todoTopic, strconv.FormatInt(event.TaskID, 10), event); err != nil {
			logger.Error("Events: Не удалось отправить событие о дедлайне", err, zap.Int64("task_id", event.TaskID))
		}
	}()
}

// SendReminder отправляет письмо синхронно, чтобы вызывающий мог откатить отметку при ошибке
func (d *Dispatcher) SendReminder(ctx context.Context, event EmailSendEvent) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.publish(ctx, d.emailTopic, event.ToAddress, event); err != nil {
		return fmt.Errorf("отправка напоминания: %w", err)
	}
	return nil
}

// Close дожидается фоновых публикаций и закрывает publisher
func (d *Dispatcher) Close() error {
	d.inflight.Wait()
	return d.publisher.Close()
}

func (d *Dispatcher) publish(ctx context.Context, topic, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("сериализация события: %w", err)
	}
	return d.publisher.Publish(ctx, Message{Topic: topic, Key: key, Value: value})
}
