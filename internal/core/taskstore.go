package core

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/taskday/pkg/models"
)

var (
	// ErrTaskNotFound is reported when an operation names an unknown task.
	ErrTaskNotFound = errors.New("task not found")
	// ErrPersistFailed is reported when a mutation could not be saved. The
	// in-memory state still reflects the mutation.
	ErrPersistFailed = errors.New("persisting tasks failed")
	// ErrAmbiguousRef is reported when an id prefix matches several tasks.
	ErrAmbiguousRef = errors.New("ambiguous task reference")
	// ErrExtendedFieldsDisabled is reported by adapters asked to set a
	// description or priority that the task file will not keep.
	ErrExtendedFieldsDisabled = errors.New("description and priority are only saved when store.extended_fields is enabled")
)

// TaskRepository is the subset of storage.TaskRepository the store needs.
// Defining it here keeps core independent of the storage package.
type TaskRepository interface {
	Load() ([]models.Task, error)
	Save(tasks []models.Task) error
}

// Outcome describes the effect of a mutating store operation. Callers that
// do not care may ignore it entirely.
type Outcome struct {
	// ID is the task the operation addressed.
	ID uuid.UUID
	// Matched is the number of stored tasks the operation found.
	Matched int
	// Persisted reports whether the collection was written after the
	// operation. It is false both when no save was attempted and when the
	// save failed.
	Persisted bool
	// PersistErr is the save error, if a save was attempted and failed.
	PersistErr error
}

// Found reports whether the operation matched at least one task.
func (o Outcome) Found() bool {
	return o.Matched > 0
}

// Err folds the outcome into a single error: ErrTaskNotFound for a lookup
// miss, ErrPersistFailed wrapping the I/O error for a failed save, or nil.
func (o Outcome) Err() error {
	if o.PersistErr != nil {
		return fmt.Errorf("%w: %w", ErrPersistFailed, o.PersistErr)
	}
	if o.Matched == 0 {
		return fmt.Errorf("task %s: %w", o.ID, ErrTaskNotFound)
	}
	return nil
}

// TaskStore owns the task collection and persists it after every mutation.
type TaskStore interface {
	GetAll() []models.Task
	GetToday() []models.Task
	GetBacklog() []models.Task
	GetCompleted() []models.Task
	GetStats(windowDays int) []DayCount
	Summary() Summary

	Add(task models.Task) Outcome
	Update(task models.Task) Outcome
	Delete(id uuid.UUID) Outcome
	Complete(id uuid.UUID) Outcome
	MoveToBacklog(id uuid.UUID) Outcome
	MoveFromBacklog(id uuid.UUID, dueDate *time.Time) Outcome

	// Resolve maps a full id or a unique id prefix to a stored task id.
	Resolve(ref string) (uuid.UUID, error)
	// LoadErr returns the reason the initial load degraded to an empty
	// collection, or nil.
	LoadErr() error
}

// TaskStoreConfig holds the dependencies of a TaskStore.
type TaskStoreConfig struct {
	Repository TaskRepository
	// Events receives diagnostics and lifecycle events. May be nil.
	Events EventLogger
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

type taskStore struct {
	mu      sync.Mutex
	repo    TaskRepository
	events  EventLogger
	now     func() time.Time
	tasks   []models.Task
	loadErr error
}

// NewTaskStore creates a TaskStore and loads the collection from the
// repository. A load failure leaves the store empty; the reason is kept for
// LoadErr and written to the event log.
func NewTaskStore(cfg TaskStoreConfig) TaskStore {
	s := &taskStore{
		repo:   cfg.Repository,
		events: cfg.Events,
		now:    cfg.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	tasks, err := s.repo.Load()
	if err != nil {
		s.loadErr = err
		s.logEvent(EventLoadFailed, map[string]any{"error": err.Error()})
		tasks = nil
	}
	s.tasks = make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		s.tasks = append(s.tasks, t.Clone())
	}
	return s
}

func (s *taskStore) LoadErr() error {
	return s.loadErr
}

// --- Queries ---

func (s *taskStore) GetAll() []models.Task {
	return s.filter(func(models.Task) bool { return true })
}

func (s *taskStore) GetToday() []models.Task {
	today := s.now()
	return s.filter(func(t models.Task) bool {
		return isToday(t, today)
	})
}

func (s *taskStore) GetBacklog() []models.Task {
	return s.filter(isBacklog)
}

func (s *taskStore) GetCompleted() []models.Task {
	return s.filter(func(t models.Task) bool { return t.IsCompleted })
}

func (s *taskStore) GetStats(windowDays int) []DayCount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CompletionHistogram(s.tasks, s.now(), windowDays)
}

func (s *taskStore) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summarize(s.tasks, s.now())
}

func (s *taskStore) filter(keep func(models.Task) bool) []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := []models.Task{}
	for _, t := range s.tasks {
		if keep(t) {
			result = append(result, t.Clone())
		}
	}
	return result
}

// isToday reports whether t belongs in the today view: open, not in the
// backlog, and due or created on today's date.
func isToday(t models.Task, today time.Time) bool {
	if t.IsInBacklog || t.IsCompleted {
		return false
	}
	if t.DueDate != nil && models.SameDay(*t.DueDate, today) {
		return true
	}
	return models.SameDay(t.CreatedAt, today)
}

func isBacklog(t models.Task) bool {
	return t.IsInBacklog && !t.IsCompleted
}

// --- Mutations ---

// Add appends task without checking for an existing task with the same id.
func (s *taskStore) Add(task models.Task) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task.Clone())
	out := s.persist(Outcome{ID: task.ID, Matched: 1})
	s.logMutation(EventTaskAdded, out, map[string]any{"title": task.Title, "backlog": task.IsInBacklog})
	return out
}

// Update replaces the first task whose id matches.
func (s *taskStore) Update(task models.Task) Outcome {
	return s.mutateFirst(task.ID, EventTaskUpdated, func(t *models.Task) {
		*t = task.Clone()
	})
}

// Delete removes every task with the given id and always persists.
func (s *taskStore) Delete(id uuid.UUID) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.tasks[:0]
	removed := 0
	for _, t := range s.tasks {
		if t.ID == id {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	clear(s.tasks[len(kept):])
	s.tasks = kept
	out := s.persist(Outcome{ID: id, Matched: removed})
	if removed > 0 {
		s.logMutation(EventTaskDeleted, out, map[string]any{"removed": removed})
	}
	return out
}

func (s *taskStore) Complete(id uuid.UUID) Outcome {
	return s.mutateFirst(id, EventTaskCompleted, func(t *models.Task) {
		now := s.now()
		t.IsCompleted = true
		t.CompletedAt = &now
	})
}

// MoveToBacklog flags the task as backlogged and leaves its due date alone.
func (s *taskStore) MoveToBacklog(id uuid.UUID) Outcome {
	return s.mutateFirst(id, EventTaskBacklogged, func(t *models.Task) {
		t.IsInBacklog = true
	})
}

// MoveFromBacklog clears the backlog flag. A nil dueDate keeps the task's
// current due date; there is no way to unschedule through this call.
func (s *taskStore) MoveFromBacklog(id uuid.UUID, dueDate *time.Time) Outcome {
	return s.mutateFirst(id, EventTaskScheduled, func(t *models.Task) {
		t.IsInBacklog = false
		if dueDate != nil {
			d := *dueDate
			t.DueDate = &d
		}
	})
}

// mutateFirst applies fn to the first task with the given id and persists.
// A miss is a silent no-op that does not touch the file.
func (s *taskStore) mutateFirst(id uuid.UUID, eventType string, fn func(*models.Task)) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID != id {
			continue
		}
		fn(&s.tasks[i])
		out := s.persist(Outcome{ID: id, Matched: 1})
		s.logMutation(eventType, out, nil)
		return out
	}
	return Outcome{ID: id}
}

// persist writes the whole collection. Failures go to the event log and
// are recorded on the outcome; the in-memory state stays authoritative.
func (s *taskStore) persist(out Outcome) Outcome {
	if err := s.repo.Save(s.tasks); err != nil {
		out.PersistErr = err
		s.logEvent(EventSaveFailed, map[string]any{"error": err.Error(), "task_id": out.ID.String()})
		return out
	}
	out.Persisted = true
	return out
}

func (s *taskStore) logMutation(eventType string, out Outcome, data map[string]any) {
	if data == nil {
		data = make(map[string]any, 2)
	}
	data["task_id"] = out.ID.String()
	data["persisted"] = out.Persisted
	s.logEvent(eventType, data)
}

func (s *taskStore) logEvent(eventType string, data map[string]any) {
	if s.events == nil {
		return
	}
	_ = s.events.LogEvent(eventType, data) // Diagnostics only.
}

// Resolve accepts a full id, or an unambiguous prefix of the canonical
// string form. Matching is case-insensitive and ignores dashes.
func (s *taskStore) Resolve(ref string) (uuid.UUID, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	needle := normalizeRef(ref)
	if needle == "" {
		return uuid.Nil, fmt.Errorf("resolving %q: %w", ref, ErrTaskNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var match uuid.UUID
	found := false
	for _, t := range s.tasks {
		if !strings.HasPrefix(normalizeRef(t.ID.String()), needle) {
			continue
		}
		if found && t.ID != match {
			return uuid.Nil, fmt.Errorf("resolving %q: %w", ref, ErrAmbiguousRef)
		}
		match, found = t.ID, true
	}
	if !found {
		return uuid.Nil, fmt.Errorf("resolving %q: %w", ref, ErrTaskNotFound)
	}
	return match, nil
}

func normalizeRef(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "-", ""))
}
