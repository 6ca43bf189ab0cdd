package service

import (
	"context"
	"fmt"

	"todoTracker/internal/logger"
	"todoTracker/internal/models/todo"

	"go.uber.org/zap"
)

// ListTasks выбирает страницу в два шага: сначала id с учётом фильтров,
// затем полные записи, которые раскладываются в порядке первого шага.
// "Сейчас" для фильтра просрочки берётся один раз на запрос.
func (s *TodoService) ListTasks(ctx context.Context, owner string, filter todo.Filter, page todo.PageRequest) (*todo.Page, error) {
	if filter.Priority != nil {
		if _, ok := todo.ParsePriority(string(*filter.Priority)); !ok {
			return nil, NewValidationError("priority", "допустимые значения: LOW, MEDIUM, HIGH")
		}
	}
	page = todo.NewPageRequest(page.Page, page.Limit)

	ids, total, err := s.repo.FindIDs(ctx, owner, filter, page, s.now())
	if err != nil {
		return nil, fmt.Errorf("поиск задач: %w", err)
	}

	result := &todo.Page{
		Content: []*todo.Task{},
		Total:   total,
		Page:    page.Page,
		Limit:   page.Limit,
	}
	if len(ids) == 0 {
		return result, nil
	}

	tasks, err := s.repo.FindByIDs(ctx, owner, ids)
	if err != nil {
		return nil, fmt.Errorf("загрузка задач: %w", err)
	}

	result.Content = reorder(ids, tasks)
	if len(result.Content) != len(ids) {
		// задачи могли удалить между двумя шагами
		logger.Debug("Service: Часть задач исчезла между шагами выборки",
			zap.Int("expected", len(ids)),
			zap.Int("got", len(result.Content)))
	}
	return result, nil
}

func reorder(ids []int64, tasks []*todo.Task) []*todo.Task {
	byID := make(map[int64]*todo.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	ordered := make([]*todo.Task, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			ordered = append(ordered, t)
		}
	}
	return ordered
}
