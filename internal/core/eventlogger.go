package core

// Event types written by the task store.
const (
	EventTaskAdded      = "task.added"
	EventTaskUpdated    = "task.updated"
	EventTaskCompleted  = "task.completed"
	EventTaskBacklogged = "task.backlogged"
	EventTaskScheduled  = "task.scheduled"
	EventTaskDeleted    = "task.deleted"
	EventLoadFailed     = "store.load_failed"
	EventSaveFailed     = "store.save_failed"
)

// EventLogger is the subset of the observability event log that core
// services need. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}
