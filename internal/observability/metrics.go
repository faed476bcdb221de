package observability

import (
	"fmt"
	"time"
)

// Metrics holds counters derived from the event log.
type Metrics struct {
	TasksAdded     int            `json:"tasks_added"`
	TasksCompleted int            `json:"tasks_completed"`
	TasksDeleted   int            `json:"tasks_deleted"`
	TasksUpdated   int            `json:"tasks_updated"`
	Transitions    map[string]int `json:"transitions"`
	SaveFailures   int            `json:"save_failures"`
	LoadFailures   int            `json:"load_failures"`
	EventCount     int            `json:"event_count"`
	OldestEvent    *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent    *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator reading from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate aggregates every event at or after since.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{Transitions: make(map[string]int)}
	m.EventCount = len(events)

	for i, event := range events {
		t := event.Time
		if i == 0 {
			m.OldestEvent = &t
		}
		m.NewestEvent = &t

		switch event.Type {
		case "task.added":
			m.TasksAdded++
		case "task.completed":
			m.TasksCompleted++
		case "task.deleted":
			if n, ok := event.Data["removed"].(float64); ok && n > 0 {
				m.TasksDeleted += int(n)
			} else {
				m.TasksDeleted++
			}
		case "task.updated":
			m.TasksUpdated++
		case "task.backlogged":
			m.Transitions["to_backlog"]++
		case "task.scheduled":
			m.Transitions["from_backlog"]++
		case "store.save_failed":
			m.SaveFailures++
		case "store.load_failed":
			m.LoadFailures++
		}
	}

	return m, nil
}
