package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority represents the urgency level of a task.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

var priorityNames = [...]string{"Low", "Medium", "High", "Urgent"}

// String returns the display name of the priority ("Low", "Medium", ...).
func (p Priority) String() string {
	if p < PriorityLow || p > PriorityUrgent {
		return "Priority(" + strconv.Itoa(int(p)) + ")"
	}
	return priorityNames[p]
}

// Valid reports whether p is one of the four defined priorities.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityUrgent
}

// ParsePriority accepts a priority name (case-insensitive) or its ordinal 0-3.
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	for i, name := range priorityNames {
		if strings.EqualFold(s, name) {
			return Priority(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Priority(n).Valid() {
		return Priority(n), nil
	}
	return PriorityMedium, fmt.Errorf("invalid priority %q: must be one of low, medium, high, urgent", s)
}

// Task is a single unit of work tracked by taskday.
//
// CompletedAt is non-nil exactly when IsCompleted is true for every task
// mutated through the store. A nil DueDate means the task has no deadline.
// Tags is kept for compatibility with older task files and is never
// encoded or consumed.
type Task struct {
	ID          uuid.UUID  `yaml:"id" json:"id" toml:"id"`
	Title       string     `yaml:"title" json:"title" toml:"title"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty" toml:"description,omitempty"`
	CreatedAt   time.Time  `yaml:"created_at" json:"created_at" toml:"created_at"`
	DueDate     *time.Time `yaml:"due_date,omitempty" json:"due_date,omitempty" toml:"due_date,omitempty"`
	CompletedAt *time.Time `yaml:"completed_at,omitempty" json:"completed_at,omitempty" toml:"completed_at,omitempty"`
	IsCompleted bool       `yaml:"is_completed" json:"is_completed" toml:"is_completed"`
	IsInBacklog bool       `yaml:"is_in_backlog" json:"is_in_backlog" toml:"is_in_backlog"`
	Priority    Priority   `yaml:"priority" json:"priority" toml:"priority"`
	Tags        []string   `yaml:"tags,omitempty" json:"tags,omitempty" toml:"tags,omitempty"`
}

// NewTask returns a task with a fresh ID, CreatedAt set to now, Medium
// priority and an empty tag list.
func NewTask(title string) Task {
	return Task{
		ID:        uuid.New(),
		Title:     title,
		CreatedAt: time.Now(),
		Priority:  PriorityMedium,
		Tags:      []string{},
	}
}

// Clone returns a deep copy of t. The optional timestamps and the tag slice
// of the copy share no memory with t.
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.CompletedAt != nil {
		d := *t.CompletedAt
		c.CompletedAt = &d
	}
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	return c
}

// DateOf truncates t to midnight of its calendar day in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date, comparing
// wall-clock fields without converting either time to another zone.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// CheckDate rejects dates the task file cannot hold. Dates are written
// with a four-digit year.
func CheckDate(t time.Time) error {
	if y := t.Year(); y < 1 || y > 9999 {
		return fmt.Errorf("date out of range: year %d is not between 1 and 9999", y)
	}
	return nil
}

// CleanText trims s and replaces invalid UTF-8 with U+FFFD, which is what
// the task file would read back.
func CleanText(s string) string {
	return strings.TrimSpace(strings.ToValidUTF8(s, "\uFFFD"))
}
