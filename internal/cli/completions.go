package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskday/pkg/models"
)

// completeTaskIDs returns a completion function that lists short task IDs
// with their titles. Completed tasks are skipped unless includeCompleted.
func completeTaskIDs(includeCompleted bool) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if Store == nil || len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		prefix := strings.ToLower(toComplete)
		var ids []string
		for _, task := range Store.GetAll() {
			if task.IsCompleted && !includeCompleted {
				continue
			}
			id := shortID(task.ID)
			if prefix == "" || strings.HasPrefix(id, prefix) {
				ids = append(ids, id+"\t"+singleLine(task.Title))
			}
		}

		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}

// completePriorities lists the priority names.
func completePriorities(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		models.PriorityLow.String(),
		models.PriorityMedium.String(),
		models.PriorityHigh.String(),
		models.PriorityUrgent.String(),
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeDueDates lists the relative due date shortcuts.
func completeDueDates(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"today\tDue today",
		"tomorrow\tDue tomorrow",
		"+7d\tDue in a week",
	}, cobra.ShellCompDirectiveNoFileComp
}

// registerTaskFlagCompletions registers flag completion functions on a
// command that takes --priority and --due.
func registerTaskFlagCompletions(cmd *cobra.Command) {
	if cmd.Flags().Lookup("priority") != nil {
		_ = cmd.RegisterFlagCompletionFunc("priority", completePriorities)
	}
	if cmd.Flags().Lookup("due") != nil {
		_ = cmd.RegisterFlagCompletionFunc("due", completeDueDates)
	}
}
