package worker

import (
	"context"
	"fmt"
	"time"

	"todoTracker/internal/events"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/todo"

	"go.uber.org/zap"
)

const deadlineLayout = "02/01/2006 15:04"

// ReminderStore - единственный путь к задачам без учёта владельца
type ReminderStore interface {
	FindDueReminders(ctx context.Context, cutoff time.Time, limit int) ([]*todo.Task, error)
	ClaimReminder(ctx context.Context, candidate *todo.Task, send func(context.Context, *todo.Task) error) (bool, error)
}

type ReminderSender interface {
	SendReminder(ctx context.Context, event events.EmailSendEvent) error
}

type ReminderWorker struct {
	store     ReminderStore
	sender    ReminderSender
	interval  time.Duration
	window    time.Duration
	batchSize int
	location  *time.Location
	now       func() time.Time
}

type Option func(*ReminderWorker)

func WithInterval(interval time.Duration) Option {
	return func(w *ReminderWorker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

func WithWindow(window time.Duration) Option {
	return func(w *ReminderWorker) {
		if window >= 0 {
			w.window = window
		}
	}
}

func WithBatchSize(size int) Option {
	return func(w *ReminderWorker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(w *ReminderWorker) {
		if loc != nil {
			w.location = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *ReminderWorker) {
		w.now = now
	}
}

func NewReminderWorker(store ReminderStore, sender ReminderSender, options ...Option) *ReminderWorker {
	w := &ReminderWorker{
		store:     store,
		sender:    sender,
		interval:  10 * time.Second,
		window:    30 * time.Second,
		batchSize: 100,
		location:  time.UTC,
		now:       time.Now,
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

// Start крутит проверки по тикеру до отмены контекста.
// Начатая проверка доводится до конца.
func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Сканер напоминаний запущен",
		zap.Duration("interval", w.interval),
		zap.Duration("window", w.window))

	for {
		select {
		case <-ticker.C:
			w.Check(context.WithoutCancel(ctx))
		case <-ctx.Done():
			logger.Info("Worker: Сканер напоминаний останавливается")
			return
		}
	}
}

// Check отправляет напоминания по задачам с дедлайном не позже now+window и возвращает число отправленных.
// Ошибка по одной задаче не мешает остальным.
func (w *ReminderWorker) Check(ctx context.Context) int {
	start := w.now()
	cutoff := start.Add(w.window)

	tasks, err := w.store.FindDueReminders(ctx, cutoff, w.batchSize)
	if err != nil {
		logger.Warn("Worker: Ошибка получения задач для напоминаний", zap.Error(err))
		return 0
	}
	if len(tasks) == 0 {
		logger.Debug("Worker: Нет задач для напоминаний")
		return 0
	}

	logger.Info("Worker: Отправка напоминаний", zap.Int("count", len(tasks)))

	sent := 0
	for _, t := range tasks {
		claimed, err := w.store.ClaimReminder(ctx, t, func(ctx context.Context, current *todo.Task) error {
			return w.sender.SendReminder(ctx, w.BuildReminder(current, start))
		})
		if err != nil {
			logger.Error("Worker: Не удалось отправить напоминание", err, zap.Int64("task_id", t.ID))
			continue
		}
		if claimed {
			sent++
			logger.Debug("Worker: Напоминание отправлено", zap.Int64("task_id", t.ID))
		}
	}

	logger.Info("Worker: Завершение проверки напоминаний",
		zap.Duration("ms", time.Since(start)),
		zap.Int("checked", len(tasks)),
		zap.Int("sent", sent))
	return sent
}

// BuildReminder собирает письмо: отдельный текст для уже просроченного дедлайна
func (w *ReminderWorker) BuildReminder(t *todo.Task, now time.Time) events.EmailSendEvent {
	deadline := ""
	overdue := false
	if t.Deadline != nil {
		deadline = t.Deadline.In(w.location).Format(deadlineLayout)
		overdue = t.Deadline.Before(now)
	}

	if overdue {
		return events.EmailSendEvent{
			ToAddress: t.OwnerEmail,
			Subject:   "СРОК ЗАДАЧИ ИСТЁК: " + t.Title,
			Body: fmt.Sprintf("Срок задачи '%s' истёк!\n\nДедлайн: %s\n\nПриоритет: %s",
				t.Title, deadline, t.Priority),
		}
	}
	return events.EmailSendEvent{
		ToAddress: t.OwnerEmail,
		Subject:   "Напоминание о задаче: " + t.Title,
		Body: fmt.Sprintf("Приближается дедлайн задачи '%s'!\n\nДедлайн: %s\n\nПриоритет: %s",
			t.Title, deadline, t.Priority),
	}
}
