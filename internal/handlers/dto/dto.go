package dto

import (
	"strings"
	"time"

	"todoTracker/internal/models/todo"
	"todoTracker/internal/service"
)

// время во всех телах запросов и ответов - миллисекунды с эпохи

type CreateTodoRequest struct {
	Title       string   `json:"title" validate:"required,min=3,max=100"`
	Description string   `json:"description" validate:"max=255"`
	Deadline    *int64   `json:"deadline" validate:"omitnil,gt=0"`
	Priority    string   `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH"`
	Tags        []string `json:"tags" validate:"omitempty,max=5,dive,min=1,max=30"`
}

// UpdateTodoRequest: отсутствующее поле и null означают "не менять"
type UpdateTodoRequest struct {
	Title       *string   `json:"title" validate:"omitnil,min=3,max=100"`
	Description *string   `json:"description" validate:"omitempty,max=255"`
	Deadline    *int64    `json:"deadline" validate:"omitnil,gt=0"`
	Priority    *string   `json:"priority" validate:"omitnil,oneof=LOW MEDIUM HIGH"`
	Tags        *[]string `json:"tags" validate:"omitempty,max=5,dive,min=1,max=30"`
	Completed   *bool     `json:"completed"`
}

type AuthRequest struct {
	Email    string `json:"email" validate:"required,email,email_domain"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	ExpiresAt int64  `json:"expiresAt"`
}

type TodoResponse struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Completed    bool     `json:"completed"`
	CreatedAt    int64    `json:"createdAt"`
	Deadline     *int64   `json:"deadline"`
	Priority     string   `json:"priority"`
	Tags         []string `json:"tags"`
	OwnerEmail   string   `json:"ownerEmail"`
	ReminderSent bool     `json:"reminderSent"`
	Overdue      bool     `json:"overdue"`
}

type PageResponse struct {
	Content    []TodoResponse `json:"content"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}

// Normalize приводит поля к виду, в котором они будут сохранены; вызывается до валидации
func (r *CreateTodoRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
}

func (r *UpdateTodoRequest) Normalize() {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		r.Title = &title
	}
}

func (r CreateTodoRequest) Options() []todo.Option {
	opts := []todo.Option{
		todo.WithTitle(r.Title),
		todo.WithDescription(r.Description),
		todo.WithPriority(todo.Priority(r.Priority)),
		todo.WithTags(r.Tags),
	}
	if r.Deadline != nil {
		opts = append(opts, todo.WithDeadline(time.UnixMilli(*r.Deadline)))
	}
	return opts
}

// Options переводит в опции только переданные поля
func (r UpdateTodoRequest) Options() []todo.Option {
	opts := []todo.Option{}
	if r.Title != nil {
		opts = append(opts, todo.WithTitle(*r.Title))
	}
	if r.Description != nil {
		opts = append(opts, todo.WithDescription(*r.Description))
	}
	if r.Deadline != nil {
		opts = append(opts, todo.WithDeadline(time.UnixMilli(*r.Deadline)))
	}
	if r.Priority != nil {
		opts = append(opts, todo.WithPriority(todo.Priority(*r.Priority)))
	}
	if r.Tags != nil {
		opts = append(opts, todo.WithTags(*r.Tags))
	}
	if r.Completed != nil {
		opts = append(opts, todo.WithCompleted(*r.Completed))
	}
	return opts
}

func FromTask(t *todo.Task, now time.Time) TodoResponse {
	resp := TodoResponse{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Completed:    t.Completed,
		CreatedAt:    t.CreatedAt.UnixMilli(),
		Priority:     string(t.Priority),
		Tags:         t.Tags,
		OwnerEmail:   t.OwnerEmail,
		ReminderSent: t.ReminderSent,
		Overdue:      t.IsOverdue(now),
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if t.Deadline != nil {
		ms := t.Deadline.UnixMilli()
		resp.Deadline = &ms
	}
	return resp
}

func FromPage(p *todo.Page, now time.Time) PageResponse {
	content := make([]TodoResponse, len(p.Content))
	for i, t := range p.Content {
		content[i] = FromTask(t, now)
	}
	return PageResponse{
		Content:    content,
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages(),
	}
}

func FromAuthToken(t *service.AuthToken, tokenType string) TokenResponse {
	return TokenResponse{
		Token:     t.Token,
		TokenType: tokenType,
		ExpiresAt: t.ExpiresAt.UnixMilli(),
	}
}
