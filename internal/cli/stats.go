package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskday/internal/core"
)

var (
	statsDaysFlag int
	statsJSONFlag bool
	statsListFlag bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show completed tasks per day",
	Long: `Show how many tasks were completed on each of the last N days, ending
today, as a heatmap with one column per week.

Use --list for one line per day, or --json for machine-readable output.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}

		days := statsDaysFlag
		if !cmd.Flags().Changed("days") {
			days = StatsWindow
		}
		if days < 1 {
			return fmt.Errorf("--days must be at least 1")
		}

		stats := Store.GetStats(days)
		summary := Store.Summary()
		w := cmd.OutOrStdout()

		if statsJSONFlag {
			data, err := json.MarshalIndent(struct {
				Days    []core.DayCount `json:"days"`
				Summary core.Summary    `json:"summary"`
			}{stats, summary}, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting stats as JSON: %w", err)
			}
			fmt.Fprintln(w, string(data))
			return nil
		}

		total := 0
		for _, d := range stats {
			total += d.Count
		}
		fmt.Fprintf(w, "Completed in the last %d days: %d\n\n", days, total)
		if statsListFlag {
			fmt.Fprint(w, renderDayList(stats))
		} else {
			fmt.Fprint(w, renderHeatmap(stats))
		}
		fmt.Fprintf(w, "\nToday: %d  Backlog: %d  Completed: %d  Overdue: %d\n",
			summary.Today, summary.Backlog, summary.Completed, summary.Overdue)
		return nil
	},
}

var heatLevels = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("22")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
}

// heatLevel maps count onto 0..len(heatLevels)-1 relative to highest.
func heatLevel(count, highest int) int {
	if count <= 0 || highest <= 0 {
		return 0
	}
	top := len(heatLevels) - 1
	level := (count*top + highest - 1) / highest
	if level > top {
		level = top
	}
	return level
}

// renderHeatmap lays stats out as a weekday-by-week grid, Monday on top.
func renderHeatmap(stats []core.DayCount) string {
	if len(stats) == 0 {
		return ""
	}
	highest := core.MaxCount(stats)

	first := stats[0].Date
	offset := (int(first.Weekday()) + 6) % 7
	weeks := (offset + len(stats) + 6) / 7

	grid := make([][]string, 7)
	for row := range grid {
		grid[row] = make([]string, weeks)
		for col := range grid[row] {
			grid[row][col] = "  "
		}
	}
	for i, d := range stats {
		pos := offset + i
		cell := heatLevels[heatLevel(d.Count, highest)].Render("■")
		grid[pos%7][pos/7] = cell + " "
	}

	labels := []string{"Mon", "   ", "Wed", "   ", "Fri", "   ", "Sun"}
	var b strings.Builder
	for row := range grid {
		b.WriteString(labels[row])
		b.WriteString(" ")
		b.WriteString(strings.TrimRight(strings.Join(grid[row], ""), " "))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "    %s .. %s  (max %d/day)\n",
		first.Format("Jan 2"), stats[len(stats)-1].Date.Format("Jan 2"), highest)
	return b.String()
}

// renderDayList prints one line per day with a proportional bar.
func renderDayList(stats []core.DayCount) string {
	highest := core.MaxCount(stats)
	var b strings.Builder
	for _, d := range stats {
		bar := ""
		if highest > 0 {
			bar = strings.Repeat("█", (d.Count*20+highest-1)/highest)
		}
		fmt.Fprintf(&b, "%s %s %3d %s\n", d.Date.Format("2006-01-02"), d.Date.Weekday().String()[:3], d.Count,
			heatLevels[heatLevel(d.Count, highest)].Render(bar))
	}
	return b.String()
}

// weekTotal sums the counts of the last seven entries.
func weekTotal(stats []core.DayCount) int {
	total := 0
	for _, d := range core.LastDays(stats, 7) {
		total += d.Count
	}
	return total
}

func init() {
	statsCmd.Flags().IntVarP(&statsDaysFlag, "days", "d", 30, "Number of days to show, ending today")
	statsCmd.Flags().BoolVar(&statsJSONFlag, "json", false, "Output stats as JSON")
	statsCmd.Flags().BoolVar(&statsListFlag, "list", false, "Show one line per day instead of a heatmap")
	rootCmd.AddCommand(statsCmd)
}
