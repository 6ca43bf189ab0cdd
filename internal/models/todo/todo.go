package todo

import (
	"time"
)

type Task struct {
	ID           int64      `json:"id" db:"id"`
	Title        string     `json:"title" db:"title"`
	Description  string     `json:"description" db:"description"`
	Completed    bool       `json:"completed" db:"completed"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	Deadline     *time.Time `json:"deadline,omitempty" db:"deadline"`
	Priority     Priority   `json:"priority" db:"priority"`
	Tags         []string   `json:"tags" db:"-"`
	OwnerEmail   string     `json:"owner_email" db:"owner_email"`
	ReminderSent bool       `json:"reminder_sent" db:"reminder_sent"`
}

type Priority string

const PriorityLow Priority = "LOW"
const PriorityMedium Priority = "MEDIUM"
const PriorityHigh Priority = "HIGH"

const (
	TitleMinLen       = 3
	TitleMaxLen       = 100
	DescriptionMaxLen = 255
	MaxTags           = 5
	TagMaxLen         = 30
)

func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, true
	default:
		return "", false
	}
}

// SetDeadline меняет дедлайн и заново взводит напоминание, если значение изменилось
func (t *Task) SetDeadline(deadline *time.Time) {
	if SameDeadline(t.Deadline, deadline) {
		return
	}
	if deadline != nil {
		d := deadline.Truncate(time.Millisecond)
		deadline = &d
	}
	t.Deadline = deadline
	t.ReminderSent = false
}

// IsOverdue - дедлайн прошёл, а задача не выполнена
func (t *Task) IsOverdue(now time.Time) bool {
	return !t.Completed && t.Deadline != nil && t.Deadline.Before(now)
}

func (t *Task) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// Clone - глубокая копия, хранилища не отдают наружу свои указатели
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	return &c
}

// SameDeadline сравнивает дедлайны с точностью до миллисекунды
func SameDeadline(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UnixMilli() == b.UnixMilli()
}
