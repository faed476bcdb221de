package observability

import (
	"fmt"
	"time"

	"github.com/valter-silva-au/taskday/internal/core"
	"github.com/valter-silva-au/taskday/pkg/models"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts fire. A zero MaxBacklogSize or
// StaleBacklogDays disables that check.
type AlertThresholds struct {
	MaxBacklogSize   int `yaml:"max_backlog_size" json:"max_backlog_size"`
	OverdueDays      int `yaml:"overdue_days" json:"overdue_days"`
	StaleBacklogDays int `yaml:"stale_backlog_days" json:"stale_backlog_days"`
}

// DefaultAlertThresholds returns the default thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		MaxBacklogSize:   20,
		OverdueDays:      0,
		StaleBacklogDays: 30,
	}
}

// TaskSnapshot is the read side of the task store the alert engine needs.
type TaskSnapshot interface {
	GetAll() []models.Task
	GetBacklog() []models.Task
}

// AlertEngine evaluates alert conditions.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

type alertEngine struct {
	tasks      TaskSnapshot
	eventLog   EventLog
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates an AlertEngine over the task snapshot. eventLog may
// be nil, in which case save-failure alerts are not evaluated.
func NewAlertEngine(tasks TaskSnapshot, eventLog EventLog, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		tasks:      tasks,
		eventLog:   eventLog,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// Evaluate runs every check and returns the triggered alerts, most severe
// checks first.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	now := ae.now()
	var alerts []Alert

	saveAlerts, err := ae.checkSaveFailures(now)
	if err != nil {
		return nil, fmt.Errorf("checking save failures: %w", err)
	}
	alerts = append(alerts, saveAlerts...)
	alerts = append(alerts, ae.checkOverdue(now)...)
	alerts = append(alerts, ae.checkBacklogSize(now)...)
	alerts = append(alerts, ae.checkStaleBacklog(now)...)

	return alerts, nil
}

// checkOverdue flags open tasks whose due date is more than OverdueDays
// before today.
func (ae *alertEngine) checkOverdue(now time.Time) []Alert {
	var alerts []Alert
	for _, t := range core.OverdueTasks(ae.tasks.GetAll(), now, ae.thresholds.OverdueDays) {
		alerts = append(alerts, Alert{
			ID:          "overdue-" + t.ID.String(),
			Condition:   "task_overdue",
			Severity:    SeverityHigh,
			Message:     fmt.Sprintf("task %q was due on %s", t.Title, t.DueDate.Format("2006-01-02")),
			TriggeredAt: now,
		})
	}
	return alerts
}

func (ae *alertEngine) checkBacklogSize(now time.Time) []Alert {
	if ae.thresholds.MaxBacklogSize <= 0 {
		return nil
	}
	size := len(ae.tasks.GetBacklog())
	if size <= ae.thresholds.MaxBacklogSize {
		return nil
	}
	return []Alert{{
		ID:          "backlog-size",
		Condition:   "backlog_too_large",
		Severity:    SeverityMedium,
		Message:     fmt.Sprintf("backlog has %d tasks (threshold: %d)", size, ae.thresholds.MaxBacklogSize),
		TriggeredAt: now,
	}}
}

// checkStaleBacklog flags backlog tasks created more than StaleBacklogDays ago.
func (ae *alertEngine) checkStaleBacklog(now time.Time) []Alert {
	if ae.thresholds.StaleBacklogDays <= 0 {
		return nil
	}
	cutoff := now.AddDate(0, 0, -ae.thresholds.StaleBacklogDays)
	var alerts []Alert
	for _, t := range ae.tasks.GetBacklog() {
		if !t.CreatedAt.Before(cutoff) {
			continue
		}
		alerts = append(alerts, Alert{
			ID:          "stale-" + t.ID.String(),
			Condition:   "backlog_task_stale",
			Severity:    SeverityLow,
			Message:     fmt.Sprintf("task %q has been in the backlog for more than %d days", t.Title, ae.thresholds.StaleBacklogDays),
			TriggeredAt: now,
		})
	}
	return alerts
}

// checkSaveFailures reports failed saves recorded in the last 24 hours.
func (ae *alertEngine) checkSaveFailures(now time.Time) ([]Alert, error) {
	if ae.eventLog == nil {
		return nil, nil
	}
	since := now.Add(-24 * time.Hour)
	events, err := ae.eventLog.Read(EventFilter{Since: &since, Type: "store.save_failed"})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	last := events[len(events)-1]
	msg := fmt.Sprintf("%d task save(s) failed in the last 24 hours", len(events))
	if reason, ok := last.Data["error"].(string); ok && reason != "" {
		msg += "; last error: " + reason
	}
	return []Alert{{
		ID:          "save-failures",
		Condition:   "save_failed",
		Severity:    SeverityHigh,
		Message:     msg,
		TriggeredAt: now,
	}}, nil
}
