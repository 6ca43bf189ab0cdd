package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"todoTracker/internal/logger"
	"todoTracker/internal/models/todo"
	repo "todoTracker/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const slowQuery = 100 * time.Millisecond

// колонки задачи вместе с тегами, собранными в массив в порядке добавления
const selectTask = `SELECT
				t.id,
				t.title,
				t.description,
				t.completed,
				t.created_at,
				t.deadline,
				t.priority,
				t.owner_email,
				t.reminder_sent,
				COALESCE(array_agg(g.tag ORDER BY g.position) FILTER (WHERE g.tag IS NOT NULL), '{}') AS tags
			FROM todos t
			LEFT JOIN todo_tags g ON g.todo_id = t.id`

type Storage struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *todo.Task) error {
	start := time.Now()

	query := `INSERT INTO todos
				(title, description, completed, deadline, priority, owner_email, reminder_sent)
				VALUES ($1, $2, $3, $4, $5, $6, FALSE)
				RETURNING id, created_at`

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query,
			taskToCreate.Title,
			taskToCreate.Description,
			taskToCreate.Completed,
			taskToCreate.Deadline,
			taskToCreate.Priority,
			taskToCreate.OwnerEmail,
		).Scan(&taskToCreate.ID, &taskToCreate.CreatedAt)
		if err != nil {
			return fmt.Errorf("добавление задачи: %w", err)
		}
		return insertTags(ctx, tx, taskToCreate.ID, taskToCreate.Tags)
	})
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return err
	}

	taskToCreate.ReminderSent = false
	if taskToCreate.Tags == nil {
		taskToCreate.Tags = []string{}
	}
	logSlow("create", start)
	return nil
}

func (s *Storage) GetByID(ctx context.Context, owner string, id int64) (*todo.Task, error) {
	start := time.Now()

	query := selectTask + `
			WHERE t.id = $1 AND t.owner_email = $2
			GROUP BY t.id`

	task, err := scanTask(s.pool.QueryRow(ctx, query, id, owner))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Int64("task_id", id), zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	logSlow("get_by_id", start)
	return task, nil
}

// reminder_sent не берётся из задачи: его сбрасывает только смена дедлайна,
// иначе обновление могло бы затереть отметку, поставленную сканером
func (s *Storage) Update(ctx context.Context, owner string, taskToUpdate *todo.Task) error {
	start := time.Now()

	query := `UPDATE todos
			SET title = $1,
				description = $2,
				completed = $3,
				priority = $4,
				reminder_sent = CASE WHEN deadline IS NOT DISTINCT FROM $5::timestamptz THEN reminder_sent ELSE FALSE END,
				deadline = $5
			WHERE id = $6 AND owner_email = $7
			RETURNING reminder_sent, created_at`

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query,
			taskToUpdate.Title,
			taskToUpdate.Description,
			taskToUpdate.Completed,
			taskToUpdate.Priority,
			taskToUpdate.Deadline,
			taskToUpdate.ID,
			owner,
		).Scan(&taskToUpdate.ReminderSent, &taskToUpdate.CreatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return repo.ErrNotFound
			}
			return fmt.Errorf("обновление задачи: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM todo_tags WHERE todo_id = $1`, taskToUpdate.ID); err != nil {
			return fmt.Errorf("удаление тегов: %w", err)
		}
		return insertTags(ctx, tx, taskToUpdate.ID, taskToUpdate.Tags)
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return err
		}
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Int64("task_id", taskToUpdate.ID))
		return err
	}

	logSlow("update", start)
	return nil
}

func (s *Storage) Delete(ctx context.Context, owner string, id int64) error {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1 AND owner_email = $2`, id, owner)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err, zap.Int64("task_id", id), zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	logSlow("delete", start)
	return nil
}

// первая фаза выборки: отфильтрованные id страницы и общее количество.
// Тег проверяется через EXISTS, поэтому строки не размножаются джойном.
func (s *Storage) FindIDs(ctx context.Context, owner string, filter todo.Filter, page todo.PageRequest, now time.Time) ([]int64, int64, error) {
	start := time.Now()

	where, args := buildFilter(owner, filter, now)

	var total int64
	countQuery := `SELECT COUNT(*) FROM todos t WHERE ` + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		logger.Error("Repository: Не удалось посчитать задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, 0, fmt.Errorf("подсчёт задач: %w", err)
	}

	if total == 0 {
		return []int64{}, 0, nil
	}

	idsQuery := fmt.Sprintf(`SELECT t.id FROM todos t WHERE %s ORDER BY t.id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset())

	rows, err := s.pool.Query(ctx, idsQuery, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить id задач", err, zap.Duration("ms", time.Since(start)))
		return nil, 0, fmt.Errorf("получение id задач: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, 0, fmt.Errorf("итерация по строкам: %w", err)
	}

	logSlow("find_ids", start)
	return ids, total, nil
}

// вторая фаза: полные записи с тегами, порядок строк не гарантируется
func (s *Storage) FindByIDs(ctx context.Context, owner string, ids []int64) ([]*todo.Task, error) {
	start := time.Now()

	query := selectTask + `
			WHERE t.owner_email = $1 AND t.id = ANY($2)
			GROUP BY t.id`

	tasks, err := s.queryTasks(ctx, query, owner, ids)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	logSlow("find_by_ids", start)
	return tasks, nil
}

func (s *Storage) FindDueReminders(ctx context.Context, cutoff time.Time, limit int) ([]*todo.Task, error) {
	start := time.Now()

	query := selectTask + `
			WHERE t.completed = FALSE
				AND t.reminder_sent = FALSE
				AND t.deadline IS NOT NULL
				AND t.deadline <= $1
			GROUP BY t.id
			ORDER BY t.id
			LIMIT $2`

	tasks, err := s.queryTasks(ctx, query, cutoff, limit)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи для напоминаний", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач для напоминаний: %w", err)
	}

	logSlow("find_due_reminders", start)
	return tasks, nil
}

// ClaimReminder помечает напоминание отправленным и вызывает send в той же транзакции.
// Строка остаётся заблокированной до коммита, ошибка send откатывает отметку.
// Если задача уже изменилась (выполнена, другой дедлайн, отмечена другим сканером) - send не вызывается.
func (s *Storage) ClaimReminder(ctx context.Context, candidate *todo.Task, send func(context.Context, *todo.Task) error) (bool, error) {
	if candidate.Deadline == nil {
		return false, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE todos
			SET reminder_sent = TRUE
			WHERE id = $1
				AND reminder_sent = FALSE
				AND completed = FALSE
				AND deadline = $2`,
		candidate.ID, *candidate.Deadline)
	if err != nil {
		return false, fmt.Errorf("отметка напоминания: %w", err)
	}
	if tag.RowsAffected() == 0 {
		logger.Debug("Repository: Задача больше не требует напоминания", zap.Int64("task_id", candidate.ID))
		return false, nil
	}

	if err := send(ctx, candidate); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("коммит напоминания: %w", err)
	}
	candidate.ReminderSent = true
	return true, nil
}

func (s *Storage) queryTasks(ctx context.Context, query string, args ...any) ([]*todo.Task, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*todo.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return tasks, nil
}

func scanTask(row pgx.Row) (*todo.Task, error) {
	task := &todo.Task{}
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Completed,
		&task.CreatedAt,
		&task.Deadline,
		&task.Priority,
		&task.OwnerEmail,
		&task.ReminderSent,
		&task.Tags,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func insertTags(ctx context.Context, tx pgx.Tx, id int64, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	_, err := tx.Exec(ctx, `INSERT INTO todo_tags (todo_id, position, tag)
			SELECT $1, u.ord - 1, u.tag
			FROM unnest($2::text[]) WITH ORDINALITY AS u(tag, ord)`,
		id, tags)
	if err != nil {
		return fmt.Errorf("добавление тегов: %w", err)
	}
	return nil
}

// buildFilter собирает WHERE и аргументы; владелец всегда первый параметр
func buildFilter(owner string, filter todo.Filter, now time.Time) (string, []any) {
	conditions := []string{"t.owner_email = $1"}
	args := []any{owner}

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Completed != nil {
		conditions = append(conditions, "t.completed = "+next(*filter.Completed))
	}
	if filter.Priority != nil {
		conditions = append(conditions, "t.priority = "+next(string(*filter.Priority)))
	}
	if filter.Tag != "" {
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM todo_tags g WHERE g.todo_id = t.id AND g.tag = "+next(filter.Tag)+")")
	}
	if filter.Overdue != nil {
		if *filter.Overdue {
			conditions = append(conditions, "(t.deadline IS NOT NULL AND t.deadline < "+next(now)+")")
		} else {
			conditions = append(conditions, "(t.deadline IS NULL OR t.deadline >= "+next(now)+")")
		}
	}

	return strings.Join(conditions, " AND "), args
}

func logSlow(operation string, start time.Time) {
	if elapsed := time.Since(start); elapsed > slowQuery {
		logger.Warn("Repository: Медленный запрос",
			zap.String("operation", operation),
			zap.Duration("ms", elapsed))
	}
}
