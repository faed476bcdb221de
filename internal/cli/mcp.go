package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	tdmcp "github.com/valter-silva-au/taskday/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the taskday MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the taskday MCP server on stdio",
	Long: `Start the taskday MCP server on stdio transport.

The server exposes the task store as MCP tools that AI assistants can call:
list_tasks, add_task, update_task, complete_task, move_to_backlog,
move_from_backlog, delete_task, get_stats and get_alerts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}

		srv := tdmcp.NewServer(tdmcp.Config{
			Store:          Store,
			AlertEngine:    AlertEngine,
			Policy:         Policy,
			StatsWindow:    StatsWindow,
			ExtendedFields: ExtendedFields,
			Version:        appVersion,
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
