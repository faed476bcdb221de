package core

import (
	"time"

	"github.com/valter-silva-au/taskday/pkg/models"
)

// DayCount is the number of tasks completed on one calendar date.
type DayCount struct {
	Date  time.Time `json:"date" yaml:"date"`
	Count int       `json:"count" yaml:"count"`
}

// CompletionHistogram returns exactly windowDays entries in ascending date
// order, the last one being the date of now. Days without completions are
// present with a zero count. Completion timestamps are truncated to their
// calendar date without any zone conversion.
func CompletionHistogram(tasks []models.Task, now time.Time, windowDays int) []DayCount {
	if windowDays <= 0 {
		return []DayCount{}
	}

	today := models.DateOf(now)
	start := today.AddDate(0, 0, -(windowDays - 1))

	byDay := make(map[[3]int]int)
	for _, t := range tasks {
		if t.CompletedAt == nil {
			continue
		}
		byDay[dayKey(*t.CompletedAt)]++
	}

	stats := make([]DayCount, windowDays)
	for i := range stats {
		d := start.AddDate(0, 0, i)
		stats[i] = DayCount{Date: d, Count: byDay[dayKey(d)]}
	}
	return stats
}

func dayKey(t time.Time) [3]int {
	y, m, d := t.Date()
	return [3]int{y, int(m), d}
}

// LastDays returns at most the n most recent entries of stats.
func LastDays(stats []DayCount, n int) []DayCount {
	if n <= 0 {
		return []DayCount{}
	}
	if len(stats) <= n {
		return stats
	}
	return stats[len(stats)-n:]
}

// MaxCount returns the highest count in stats, or 0 for an empty slice.
func MaxCount(stats []DayCount) int {
	highest := 0
	for _, s := range stats {
		if s.Count > highest {
			highest = s.Count
		}
	}
	return highest
}

// Summary counts tasks per view.
type Summary struct {
	Total     int `json:"total" yaml:"total"`
	Today     int `json:"today" yaml:"today"`
	Backlog   int `json:"backlog" yaml:"backlog"`
	Completed int `json:"completed" yaml:"completed"`
	Overdue   int `json:"overdue" yaml:"overdue"`
}

// Summarize computes per-view counts for tasks as of now.
func Summarize(tasks []models.Task, now time.Time) Summary {
	s := Summary{Total: len(tasks)}
	for _, t := range tasks {
		if isToday(t, now) {
			s.Today++
		}
		if isBacklog(t) {
			s.Backlog++
		}
		if t.IsCompleted {
			s.Completed++
		}
		if isOverdue(t, now, 0) {
			s.Overdue++
		}
	}
	return s
}

// isOverdue reports whether an open task's due date lies more than
// graceDays calendar days before now.
func isOverdue(t models.Task, now time.Time, graceDays int) bool {
	if t.IsCompleted || t.DueDate == nil {
		return false
	}
	limit := models.DateOf(now).AddDate(0, 0, -graceDays)
	return models.DateOf(*t.DueDate).Before(limit)
}

// OverdueTasks returns the open tasks whose due date is more than
// graceDays days in the past, in their original order.
func OverdueTasks(tasks []models.Task, now time.Time, graceDays int) []models.Task {
	var result []models.Task
	for _, t := range tasks {
		if isOverdue(t, now, graceDays) {
			result = append(result, t.Clone())
		}
	}
	return result
}
