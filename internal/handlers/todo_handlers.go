package handlers

import (
	"net/http"
	"strconv"
	"time"

	"todoTracker/internal/auth"
	"todoTracker/internal/handlers/dto"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/todo"
	"todoTracker/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TodoHandler struct {
	TodoService TodoService
	validator   *Validator
}

func NewTodoHandler(todoService TodoService, validator *Validator) *TodoHandler {
	return &TodoHandler{
		TodoService: todoService,
		validator:   validator,
	}
}

func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	var request dto.CreateTodoRequest
	if err := h.validator.decodeJSON(r, &request); err != nil {
		handleError(w, r, err)
		return
	}

	created, err := h.TodoService.CreateTask(r.Context(), owner, request.Options()...)
	if err != nil {
		handleError(w, r, err)
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.Int64("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithBody(w, http.StatusCreated, dto.FromTask(created, time.Now()))
}

func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	filter, page, err := parseListQuery(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	result, err := h.TodoService.ListTasks(r.Context(), owner, filter, page)
	if err != nil {
		handleError(w, r, err)
		return
	}

	responseWithBody(w, http.StatusOK, dto.FromPage(result, time.Now()))
}

func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	id, ok := idFrom(w, r)
	if !ok {
		return
	}

	task, err := h.TodoService.GetTask(r.Context(), owner, id)
	if err != nil {
		handleError(w, r, err)
		return
	}

	responseWithBody(w, http.StatusOK, dto.FromTask(task, time.Now()))
}

func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	id, ok := idFrom(w, r)
	if !ok {
		return
	}

	var request dto.UpdateTodoRequest
	if err := h.validator.decodeJSON(r, &request); err != nil {
		handleError(w, r, err)
		return
	}

	updated, err := h.TodoService.UpdateTask(r.Context(), owner, id, request.Options()...)
	if err != nil {
		handleError(w, r, err)
		return
	}

	responseWithBody(w, http.StatusOK, dto.FromTask(updated, time.Now()))
}

func (h *TodoHandler) SetCompletion(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	id, ok := idFrom(w, r)
	if !ok {
		return
	}

	completed, err := strconv.ParseBool(r.URL.Query().Get("isCompleted"))
	if err != nil {
		handleError(w, r, service.NewValidationError("isCompleted", "ожидается true или false"))
		return
	}

	updated, err := h.TodoService.SetCompletion(r.Context(), owner, id, completed)
	if err != nil {
		handleError(w, r, err)
		return
	}

	responseWithBody(w, http.StatusOK, dto.FromTask(updated, time.Now()))
}

func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	id, ok := idFrom(w, r)
	if !ok {
		return
	}

	if err := h.TodoService.DeleteTask(r.Context(), owner, id); err != nil {
		handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TodoHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.TodoService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Сервис недоступен", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("timestamp", time.Now().UnixMilli()))
		return
	}
	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("timestamp", time.Now().UnixMilli()))
}

func ownerFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner, ok := auth.EmailFromContext(r.Context())
	if !ok {
		handleError(w, r, service.NewUnauthorized("нет пользователя в контексте"))
		return "", false
	}
	return owner, true
}

func idFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		logger.Warn("HTTP: Неверный id", zap.String("id", raw))
		handleError(w, r, service.NewValidationError("id", "ожидается положительное целое число"))
		return 0, false
	}
	return id, true
}

func parseListQuery(r *http.Request) (todo.Filter, todo.PageRequest, error) {
	query := r.URL.Query()
	filter := todo.Filter{Tag: query.Get("tag")}

	var err error
	if filter.Completed, err = optionalBool(query.Get("completed"), "completed"); err != nil {
		return filter, todo.PageRequest{}, err
	}
	if filter.Overdue, err = optionalBool(query.Get("overdue"), "overdue"); err != nil {
		return filter, todo.PageRequest{}, err
	}
	if raw := query.Get("priority"); raw != "" {
		priority, ok := todo.ParsePriority(raw)
		if !ok {
			return filter, todo.PageRequest{}, service.NewValidationError("priority", "допустимые значения: LOW, MEDIUM, HIGH")
		}
		filter.Priority = &priority
	}

	page, err := optionalInt(query.Get("page"), "page")
	if err != nil {
		return filter, todo.PageRequest{}, err
	}
	limit, err := optionalInt(query.Get("limit"), "limit")
	if err != nil {
		return filter, todo.PageRequest{}, err
	}

	return filter, todo.NewPageRequest(page, limit), nil
}

func optionalBool(raw, field string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, service.NewValidationError(field, "ожидается true или false")
	}
	return &v, nil
}

func optionalInt(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, service.NewValidationError(field, "ожидается неотрицательное целое число")
	}
	return v, nil
}
