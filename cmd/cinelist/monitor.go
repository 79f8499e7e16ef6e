package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/varoOP/cinelist/internal/app"
	"github.com/varoOP/cinelist/internal/domain"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Manage lists that are re-scraped on a schedule",
	Long: `Monitored lists live in monitor.yaml under the root path. Each list is
written to the store of the same name. 'monitor run' checks the lists that
are due once and exits, so schedule it with cron or a systemd timer.`,
}

var monitorAddCmd = &cobra.Command{
	Use:   "add URL...",
	Short: "Add list URLs to a monitored list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, _ := cmd.Flags().GetString("list")

		return withApp(func(a *app.App) error {
			added, err := a.MonitorAdd(cmd.Context(), list, args)
			if err != nil {
				return err
			}
			fmt.Printf("%d url(s) added to %s\n", added, list)
			return nil
		})
	},
}

var monitorRemoveCmd = &cobra.Command{
	Use:   "remove [URL]",
	Short: "Remove a URL from a monitored list, or the whole list",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, _ := cmd.Flags().GetString("list")
		url := ""
		if len(args) == 1 {
			url = args[0]
		}

		return withApp(func(a *app.App) error {
			return a.MonitorRemove(cmd.Context(), list, url)
		})
	},
}

var monitorRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Check every monitored list that is due",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		list, _ := cmd.Flags().GetString("list")
		fix, _ := cmd.Flags().GetBool("fix")

		return withApp(func(a *app.App) error {
			report, err := a.MonitorRun(cmd.Context(), app.MonitorOptions{Force: force, List: list, Fix: fix})
			if err != nil {
				return fmt.Errorf("monitor run failed: %w", err)
			}

			fmt.Printf("%d list(s) checked, %d skipped: %d titles, %d new, %d errors, %d duplicates\n",
				len(report.Checked), len(report.Skipped), report.Titles, report.New, report.Errors, report.Dupes)
			return nil
		})
	},
}

var monitorStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show monitored lists and maintenance history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			cfg, history, err := a.MonitorStatus(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println(listTable(cfg, time.Now()))
			if len(history) > 0 {
				fmt.Println(historyTable(history))
			}
			return nil
		})
	},
}

func init() {
	monitorAddCmd.Flags().StringP("list", "l", "", "monitored list name, also the store name (required)")
	monitorAddCmd.MarkFlagRequired("list")
	monitorRemoveCmd.Flags().StringP("list", "l", "", "monitored list name (required)")
	monitorRemoveCmd.MarkFlagRequired("list")

	monitorRunCmd.Flags().Bool("force", false, "check lists even when they are not due")
	monitorRunCmd.Flags().StringP("list", "l", "", "only check this list")
	monitorRunCmd.Flags().Bool("fix", false, "repair errors and remove duplicates after each list")

	monitorCmd.AddCommand(monitorAddCmd, monitorRemoveCmd, monitorRunCmd, monitorStatusCmd)
	rootCmd.AddCommand(monitorCmd)
}

func listTable(cfg *domain.MonitorConfig, now time.Time) string {
	interval := cfg.IntervalDuration()

	var rows [][]string
	for _, name := range cfg.Names() {
		l := cfg.Lists[name]
		next := "now"
		if !l.Enabled {
			next = "disabled"
		} else if n := l.NextCheck(interval); n.After(now) {
			next = n.Local().Format(time.DateTime)
		}
		rows = append(rows, []string{
			name,
			strconv.Itoa(len(l.URLs)),
			formatTime(l.LastCheck),
			next,
			strconv.Itoa(l.ErrorCount),
			strconv.Itoa(l.DuplicateCount),
		})
	}
	return renderTable([]string{"List", "URLs", "Last Check", "Next Check", "Errors", "Duplicates"}, rows, 2, 5, 6)
}

func historyTable(records []domain.MaintenanceRecord) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Store,
			string(r.Kind),
			strconv.Itoa(r.Checks),
			strconv.Itoa(r.Found),
			strconv.Itoa(r.Fixed),
			strconv.Itoa(r.Remaining),
			formatTime(r.LastCheck),
		})
	}
	return renderTable([]string{"Store", "Check", "Runs", "Found", "Fixed", "Remaining", "Last Check"}, rows, 3, 4, 5, 6)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}
