package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"todoTracker/internal/events"
	"todoTracker/internal/models/todo"
	"todoTracker/internal/repository/todo/inmemory"
	"todoTracker/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "alice@example.com"

type fakeSender struct {
	mu     sync.Mutex
	sent   []events.EmailSendEvent
	failOn map[string]bool
}

func (s *fakeSender) SendReminder(ctx context.Context, event events.EmailSendEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for title := range s.failOn {
		if event.Subject == "Напоминание о задаче: "+title || event.Subject == "СРОК ЗАДАЧИ ИСТЁК: "+title {
			return errors.New("брокер недоступен")
		}
	}
	s.sent = append(s.sent, event)
	return nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func create(t *testing.T, store *inmemory.TaskStorage, title string, opts ...todo.Option) *todo.Task {
	t.Helper()
	task := &todo.Task{Title: title, Priority: todo.PriorityMedium, OwnerEmail: owner}
	for _, opt := range opts {
		opt(task)
	}
	require.NoError(t, store.Create(context.Background(), task))
	return task
}

func TestReminderWorker_ShipReport(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewTaskStorage()
	sender := &fakeSender{}
	now := time.Now()

	report := create(t, store, "Ship report",
		todo.WithPriority(todo.PriorityHigh),
		todo.WithDeadline(now.Add(10*time.Second)))

	w := worker.NewReminderWorker(store, sender,
		worker.WithWindow(30*time.Second),
		worker.WithClock(func() time.Time { return now }))

	assert.Equal(t, 1, w.Check(ctx))
	require.Equal(t, 1, sender.count())
	assert.Equal(t, owner, sender.sent[0].ToAddress)
	assert.Equal(t, "Напоминание о задаче: Ship report", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].Body, "HIGH")

	got, err := store.GetByID(ctx, owner, report.ID)
	require.NoError(t, err)
	assert.True(t, got.ReminderSent)

	// повторный проход ничего не отправляет
	assert.Equal(t, 0, w.Check(ctx))
	assert.Equal(t, 1, sender.count())
}

func TestReminderWorker_Selection(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewTaskStorage()
	sender := &fakeSender{}
	now := time.Now()

	create(t, store, "Внутри окна", todo.WithDeadline(now.Add(20*time.Second)))
	create(t, store, "Просрочена", todo.WithDeadline(now.Add(-time.Hour)))
	create(t, store, "За окном", todo.WithDeadline(now.Add(time.Minute)))
	create(t, store, "Выполнена", todo.WithDeadline(now), todo.WithCompleted(true))
	noDeadline := create(t, store, "Без дедлайна")

	w := worker.NewReminderWorker(store, sender,
		worker.WithWindow(30*time.Second),
		worker.WithClock(func() time.Time { return now }))

	assert.Equal(t, 2, w.Check(ctx))

	subjects := []string{sender.sent[0].Subject, sender.sent[1].Subject}
	assert.ElementsMatch(t, []string{
		"Напоминание о задаче: Внутри окна",
		"СРОК ЗАДАЧИ ИСТЁК: Просрочена",
	}, subjects)

	got, err := store.GetByID(ctx, owner, noDeadline.ID)
	require.NoError(t, err)
	assert.False(t, got.ReminderSent)
}

func TestReminderWorker_FailureIsolation(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewTaskStorage()
	sender := &fakeSender{failOn: map[string]bool{"Сломается": true}}
	now := time.Now()

	broken := create(t, store, "Сломается", todo.WithDeadline(now))
	healthy := create(t, store, "Дойдёт", todo.WithDeadline(now))

	w := worker.NewReminderWorker(store, sender, worker.WithClock(func() time.Time { return now }))

	assert.Equal(t, 1, w.Check(ctx))

	got, err := store.GetByID(ctx, owner, healthy.ID)
	require.NoError(t, err)
	assert.True(t, got.ReminderSent)

	got, err = store.GetByID(ctx, owner, broken.ID)
	require.NoError(t, err)
	assert.False(t, got.ReminderSent)

	// после восстановления напоминание уходит на следующем проходе
	sender.failOn = nil
	assert.Equal(t, 1, w.Check(ctx))
	assert.Equal(t, 2, sender.count())
}

func TestReminderWorker_DeadlineChangeRearms(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewTaskStorage()
	sender := &fakeSender{}
	now := time.Now()

	task := create(t, store, "Перенесённая", todo.WithDeadline(now))

	w := worker.NewReminderWorker(store, sender, worker.WithClock(func() time.Time { return now }))
	require.Equal(t, 1, w.Check(ctx))

	current, err := store.GetByID(ctx, owner, task.ID)
	require.NoError(t, err)
	moved := now.Add(10 * time.Second)
	current.SetDeadline(&moved)
	require.NoError(t, store.Update(ctx, owner, current))

	assert.Equal(t, 1, w.Check(ctx))
	assert.Equal(t, 2, sender.count())
}

func TestReminderWorker_EmptyScan(t *testing.T) {
	sender := &fakeSender{}
	w := worker.NewReminderWorker(inmemory.NewTaskStorage(), sender)

	assert.Equal(t, 0, w.Check(context.Background()))
	assert.Equal(t, 0, sender.count())
}

func TestReminderWorker_BuildReminder(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Istanbul")
	require.NoError(t, err)

	w := worker.NewReminderWorker(inmemory.NewTaskStorage(), &fakeSender{}, worker.WithLocation(loc))

	deadline := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	task := &todo.Task{Title: "Отчёт", Priority: todo.PriorityLow, OwnerEmail: owner, Deadline: &deadline}

	tests := []struct {
		name    string
		now     time.Time
		subject string
	}{
		{name: "upcoming", now: deadline.Add(-10 * time.Second), subject: "Напоминание о задаче: Отчёт"},
		{name: "overdue", now: deadline.Add(time.Second), subject: "СРОК ЗАДАЧИ ИСТЁК: Отчёт"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := w.BuildReminder(task, tt.now)
			assert.Equal(t, owner, event.ToAddress)
			assert.Equal(t, tt.subject, event.Subject)
			assert.Contains(t, event.Body, "14/03/2025 12:30")
			assert.Contains(t, event.Body, "LOW")
		})
	}
}

func TestReminderWorker_StartStops(t *testing.T) {
	sender := &fakeSender{}
	store := inmemory.NewTaskStorage()
	create(t, store, "По тикеру", todo.WithDeadline(time.Now()))

	w := worker.NewReminderWorker(store, sender, worker.WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sender.count() == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("сканер не остановился")
	}
}
