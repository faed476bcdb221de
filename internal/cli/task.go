package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskday/pkg/models"
)

var (
	addDescFlag     string
	addDueFlag      string
	addPriorityFlag string
	addBacklogFlag  bool
)

var addCmd = &cobra.Command{
	Use:   "add <title...>",
	Short: "Add a task",
	Long: `Add a task with the given title.

Without --due the task goes to the backlog. With --due it is scheduled and
shows up in the today view on that date.

--desc and --priority are only accepted when store.extended_fields is
enabled in config.yaml.

Examples:
  td add Buy milk
  td add "Call the bank" --due today --priority high
  td add Renew passport --due +14d --desc "photos first"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}
		if err := checkExtendedFlags(cmd); err != nil {
			return err
		}

		title := models.CleanText(strings.Join(args, " "))
		if title == "" {
			return fmt.Errorf("title must not be empty")
		}

		task := models.NewTask(title)
		task.CreatedAt = nowFunc()
		task.Description = models.CleanText(addDescFlag)

		if addPriorityFlag != "" {
			p, err := models.ParsePriority(addPriorityFlag)
			if err != nil {
				return err
			}
			task.Priority = p
		}

		if addDueFlag != "" {
			due, err := parseDueDate(addDueFlag, nowFunc())
			if err != nil {
				return fmt.Errorf("parsing --due: %w", err)
			}
			task.DueDate = &due
		}
		task.IsInBacklog = task.DueDate == nil || addBacklogFlag

		out := Store.Add(task)
		if err := checkOutcome(out); err != nil {
			return fmt.Errorf("adding task: %w", err)
		}

		view := "today"
		if task.IsInBacklog {
			view = "backlog"
		} else if task.DueDate != nil && !models.SameDay(*task.DueDate, nowFunc()) {
			view = "scheduled for " + task.DueDate.Format("2006-01-02")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added task %s (%s)\n", shortID(task.ID), view)
		return nil
	},
}

var (
	listBacklogFlag   bool
	listCompletedFlag bool
	listAllFlag       bool
	listJSONFlag      bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks (today by default)",
	Long: `List tasks in one of the views.

By default the today view is shown: open tasks that are not in the backlog
and are due or were created today. Use --backlog, --completed or --all to
pick another view.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}

		var tasks []models.Task
		var title string
		switch {
		case listAllFlag:
			tasks, title = Store.GetAll(), "All tasks"
		case listBacklogFlag:
			tasks, title = Store.GetBacklog(), "Backlog"
		case listCompletedFlag:
			tasks, title = Store.GetCompleted(), "Completed"
		default:
			tasks, title = Store.GetToday(), "Today"
		}

		w := cmd.OutOrStdout()
		if listJSONFlag {
			data, err := json.MarshalIndent(tasks, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting tasks as JSON: %w", err)
			}
			fmt.Fprintln(w, string(data))
			return nil
		}

		fmt.Fprintf(w, "%s (%d)\n", title, len(tasks))
		now := nowFunc()
		for _, t := range tasks {
			printTask(w, t, now)
		}
		return nil
	},
}

var doneCmd = &cobra.Command{
	Use:     "done <task-id>",
	Aliases: []string{"complete"},
	Short:   "Mark a task as completed",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}
		id, ok, err := resolveTask(args[0])
		if err != nil || !ok {
			return err
		}
		if err := checkOutcome(Store.Complete(id)); err != nil {
			return fmt.Errorf("completing task: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Completed task %s\n", shortID(id))
		return nil
	},
}

var backlogCmd = &cobra.Command{
	Use:   "backlog <task-id>",
	Short: "Move a task to the backlog",
	Long: `Move a task to the backlog. Its due date is kept, so scheduling it again
without --due restores the previous date.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}
		id, ok, err := resolveTask(args[0])
		if err != nil || !ok {
			return err
		}
		if err := checkOutcome(Store.MoveToBacklog(id)); err != nil {
			return fmt.Errorf("moving task to backlog: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Moved task %s to the backlog\n", shortID(id))
		return nil
	},
}

var scheduleDueFlag string

var scheduleCmd = &cobra.Command{
	Use:   "schedule <task-id>",
	Short: "Move a task out of the backlog",
	Long: `Move a task out of the backlog, optionally setting its due date.

Without --due the task keeps whatever due date it had; there is no way to
clear a due date through this command.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}
		var due *time.Time
		if scheduleDueFlag != "" {
			d, err := parseDueDate(scheduleDueFlag, nowFunc())
			if err != nil {
				return fmt.Errorf("parsing --due: %w", err)
			}
			due = &d
		}
		id, ok, err := resolveTask(args[0])
		if err != nil || !ok {
			return err
		}
		if err := checkOutcome(Store.MoveFromBacklog(id, due)); err != nil {
			return fmt.Errorf("scheduling task: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Scheduled task %s\n", shortID(id))
		return nil
	},
}

var (
	editTitleFlag    string
	editDescFlag     string
	editPriorityFlag string
	editDueFlag      string
)

var editCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Change a task's title, description, priority or due date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}
		if err := checkExtendedFlags(cmd); err != nil {
			return err
		}
		id, ok, err := resolveTask(args[0])
		if err != nil || !ok {
			return err
		}
		task, found := findTask(id)
		if !found {
			return checkOutcome(Store.Update(models.Task{ID: id}))
		}

		flags := cmd.Flags()
		if flags.Changed("title") {
			title := models.CleanText(editTitleFlag)
			if title == "" {
				return fmt.Errorf("title must not be empty")
			}
			task.Title = title
		}
		if flags.Changed("desc") {
			task.Description = models.CleanText(editDescFlag)
		}
		if flags.Changed("priority") {
			p, err := models.ParsePriority(editPriorityFlag)
			if err != nil {
				return err
			}
			task.Priority = p
		}
		if flags.Changed("due") {
			d, err := parseDueDate(editDueFlag, nowFunc())
			if err != nil {
				return fmt.Errorf("parsing --due: %w", err)
			}
			task.DueDate = &d
		}

		if err := checkOutcome(Store.Update(task)); err != nil {
			return fmt.Errorf("updating task: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s\n", shortID(id))
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <task-id>",
	Aliases: []string{"delete"},
	Short:   "Delete a task permanently",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}
		id, ok, err := resolveTask(args[0])
		if err != nil || !ok {
			return err
		}
		if err := checkOutcome(Store.Delete(id)); err != nil {
			return fmt.Errorf("deleting task: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", shortID(id))
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addDescFlag, "desc", "", "Task description")
	addCmd.Flags().StringVar(&addDueFlag, "due", "", "Due date (YYYY-MM-DD, today, tomorrow, +Nd)")
	addCmd.Flags().StringVarP(&addPriorityFlag, "priority", "p", "", "Priority (low, medium, high, urgent)")
	addCmd.Flags().BoolVar(&addBacklogFlag, "backlog", false, "Put the task in the backlog even if it has a due date")

	listCmd.Flags().BoolVarP(&listBacklogFlag, "backlog", "b", false, "Show the backlog")
	listCmd.Flags().BoolVarP(&listCompletedFlag, "completed", "c", false, "Show completed tasks")
	listCmd.Flags().BoolVarP(&listAllFlag, "all", "a", false, "Show every task")
	listCmd.Flags().BoolVar(&listJSONFlag, "json", false, "Output tasks as JSON")
	listCmd.MarkFlagsMutuallyExclusive("backlog", "completed", "all")

	scheduleCmd.Flags().StringVar(&scheduleDueFlag, "due", "", "New due date (YYYY-MM-DD, today, tomorrow, +Nd)")

	editCmd.Flags().StringVar(&editTitleFlag, "title", "", "New title")
	editCmd.Flags().StringVar(&editDescFlag, "desc", "", "New description")
	editCmd.Flags().StringVarP(&editPriorityFlag, "priority", "p", "", "New priority (low, medium, high, urgent)")
	editCmd.Flags().StringVar(&editDueFlag, "due", "", "New due date (YYYY-MM-DD, today, tomorrow, +Nd)")

	for _, c := range []*cobra.Command{doneCmd, backlogCmd, scheduleCmd, editCmd} {
		c.ValidArgsFunction = completeTaskIDs(false)
	}
	rmCmd.ValidArgsFunction = completeTaskIDs(true)
	for _, c := range []*cobra.Command{addCmd, scheduleCmd, editCmd} {
		registerTaskFlagCompletions(c)
	}
	rootCmd.AddCommand(addCmd, listCmd, doneCmd, backlogCmd, scheduleCmd, editCmd, rmCmd)
}
