package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskday/internal/storage"
)

var (
	exportFormatFlag string
	exportOutputFlag string
	exportViewFlag   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export tasks as native, JSON, YAML or TOML",
	Long: `Export tasks to stdout or a file.

The native format is the same format as the task file and can be copied
back into place. JSON, YAML and TOML write a versioned document meant for
other tools.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}

		tasks := Store.GetAll()
		switch strings.ToLower(exportViewFlag) {
		case "", "all":
		case "today":
			tasks = Store.GetToday()
		case "backlog":
			tasks = Store.GetBacklog()
		case "completed":
			tasks = Store.GetCompleted()
		default:
			return fmt.Errorf("unknown view %q (use all, today, backlog or completed)", exportViewFlag)
		}

		data, err := storage.ExportTasks(tasks, strings.ToLower(exportFormatFlag))
		if err != nil {
			return err
		}

		if exportOutputFlag == "" || exportOutputFlag == "-" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}

		if dir := filepath.Dir(exportOutputFlag); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("creating export directory: %w", err)
			}
		}
		if err := os.WriteFile(exportOutputFlag, data, 0o600); err != nil {
			return fmt.Errorf("writing export file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d task(s) to %s\n", len(tasks), exportOutputFlag)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormatFlag, "format", "f", storage.FormatJSON,
		"Export format ("+strings.Join(storage.ExportFormats, ", ")+")")
	exportCmd.Flags().StringVarP(&exportOutputFlag, "output", "o", "", "Write to this file instead of stdout")
	exportCmd.Flags().StringVar(&exportViewFlag, "view", "all", "Which tasks to export (all, today, backlog, completed)")
	_ = exportCmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(storage.ExportFormats, cobra.ShellCompDirectiveNoFileComp))
	rootCmd.AddCommand(exportCmd)
}
