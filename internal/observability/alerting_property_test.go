package observability

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/valter-silva-au/taskday/internal/core"
	"github.com/valter-silva-au/taskday/pkg/models"
	"pgregory.net/rapid"
)

// genTask draws a task whose due date and backlog state are relative to
// alertNow.
func genTask(t *rapid.T, label string) models.Task {
	task := models.Task{
		ID:          uuid.New(),
		Title:       fmt.Sprintf("task %s", label),
		CreatedAt:   alertNow.AddDate(0, 0, -rapid.IntRange(0, 90).Draw(t, label+"_age")),
		IsInBacklog: rapid.Bool().Draw(t, label+"_backlog"),
		IsCompleted: rapid.Bool().Draw(t, label+"_completed"),
	}
	if rapid.Bool().Draw(t, label+"_hasDue") {
		due := models.DateOf(alertNow).AddDate(0, 0, rapid.IntRange(-20, 20).Draw(t, label+"_due"))
		task.DueDate = &due
	}
	if task.IsCompleted {
		c := alertNow
		task.CompletedAt = &c
	}
	return task
}

// For any task set, overdue alerts are exactly the open tasks due more than
// OverdueDays days before today, and agree with the store summary.
func TestProperty_OverdueAlertsMatchTasks(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 25).Draw(rt, "n")
		tasks := make([]models.Task, n)
		for i := range tasks {
			tasks[i] = genTask(rt, fmt.Sprintf("t%d", i))
		}
		grace := rapid.IntRange(0, 10).Draw(rt, "grace")

		thresholds := AlertThresholds{OverdueDays: grace}
		engine := newTestEngine(tasks, nil, thresholds)
		alerts, err := engine.Evaluate()
		if err != nil {
			rt.Fatalf("evaluating alerts: %v", err)
		}

		limit := models.DateOf(alertNow).AddDate(0, 0, -grace)
		want := make(map[string]bool)
		for _, task := range tasks {
			if !task.IsCompleted && task.DueDate != nil && task.DueDate.Before(limit) {
				want["overdue-"+task.ID.String()] = true
			}
		}
		if summary := core.Summarize(tasks, alertNow); grace == 0 && len(want) != summary.Overdue {
			rt.Errorf("%d overdue alerts, summary counts %d", len(want), summary.Overdue)
		}

		got := findAlert(alerts, "task_overdue")
		if len(got) != len(want) {
			rt.Fatalf("got %d overdue alerts, want %d", len(got), len(want))
		}
		for _, a := range got {
			if !want[a.ID] {
				rt.Errorf("unexpected overdue alert %s", a.ID)
			}
		}
	})
}

// The backlog size alert fires iff the open backlog exceeds the threshold.
func TestProperty_BacklogSizeAlert(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(rt, "n")
		tasks := make([]models.Task, n)
		for i := range tasks {
			tasks[i] = genTask(rt, fmt.Sprintf("t%d", i))
		}
		maxSize := rapid.IntRange(1, 20).Draw(rt, "max")

		engine := newTestEngine(tasks, nil, AlertThresholds{MaxBacklogSize: maxSize})
		alerts, err := engine.Evaluate()
		if err != nil {
			rt.Fatalf("evaluating alerts: %v", err)
		}

		backlog := 0
		for _, task := range tasks {
			if task.IsInBacklog && !task.IsCompleted {
				backlog++
			}
		}
		fired := len(findAlert(alerts, "backlog_too_large")) == 1
		if fired != (backlog > maxSize) {
			rt.Errorf("backlog=%d max=%d: alert fired=%v", backlog, maxSize, fired)
		}
	})
}

