package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskday/internal/core"
	"github.com/valter-silva-au/taskday/pkg/models"
)

// nowFunc is replaced in tests.
var nowFunc = time.Now

func requireStore() error {
	if Store == nil {
		return fmt.Errorf("task store not initialized")
	}
	return nil
}

// resolveTask turns a task reference (full id or unique prefix) into an id.
// An unknown reference reports ok=false; it is only an error under the
// strict policy. An ambiguous prefix is always an error.
func resolveTask(ref string) (id uuid.UUID, ok bool, err error) {
	id, err = Store.Resolve(ref)
	switch {
	case err == nil:
		return id, true, nil
	case errors.Is(err, core.ErrAmbiguousRef):
		return uuid.Nil, false, err
	case Policy == models.PolicyStrict:
		return uuid.Nil, false, err
	default:
		return uuid.Nil, false, nil
	}
}

// checkOutcome applies the configured error policy to a store outcome.
func checkOutcome(out core.Outcome) error {
	if Policy != models.PolicyStrict {
		return nil
	}
	return out.Err()
}

func findTask(id uuid.UUID) (models.Task, bool) {
	for _, t := range Store.GetAll() {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

// checkExtendedFlags rejects --desc and --priority when the task file
// would drop them.
func checkExtendedFlags(cmd *cobra.Command) error {
	if ExtendedFields {
		return nil
	}
	for _, name := range []string{"desc", "priority"} {
		if cmd.Flags().Changed(name) {
			return fmt.Errorf("--%s: %w", name, core.ErrExtendedFieldsDisabled)
		}
	}
	return nil
}

// maxRelativeDays bounds "+Nd" due dates.
const maxRelativeDays = 100 * 366

// parseDueDate accepts "today", "tomorrow", "+N" / "+Nd" (days from now) or
// an ISO date (YYYY-MM-DD). The result is midnight local time.
func parseDueDate(s string, now time.Time) (time.Time, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	today := models.DateOf(now)
	switch {
	case s == "today":
		return today, nil
	case s == "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case strings.HasPrefix(s, "+"):
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(s, "+"), "d"))
		if err != nil || n < 0 {
			return time.Time{}, fmt.Errorf("invalid relative date %q (use e.g. +3d)", s)
		}
		if n > maxRelativeDays {
			return time.Time{}, fmt.Errorf("relative date %q is too far ahead (at most +%dd)", s, maxRelativeDays)
		}
		d := today.AddDate(0, 0, n)
		return d, models.CheckDate(d)
	}
	d, err := time.ParseInLocation("2006-01-02", s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD, today, tomorrow or +Nd)", s)
	}
	return d, models.CheckDate(d)
}

// printTask writes a one-line summary of t.
func printTask(w io.Writer, t models.Task, now time.Time) {
	mark := " "
	if t.IsCompleted {
		mark = "x"
	}
	due := "-"
	if t.DueDate != nil {
		due = t.DueDate.Format("2006-01-02")
		if !t.IsCompleted && models.DateOf(*t.DueDate).Before(models.DateOf(now)) {
			due += "!"
		}
	}
	fmt.Fprintf(w, "[%s] %s  %-11s %-7s %s\n", mark, shortID(t.ID), due, t.Priority, singleLine(t.Title))
}

func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
