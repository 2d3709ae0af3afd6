package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sanketnighot/hookified/pkg/cron"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Scheduler prerequisite diagnostics",
}

var setupStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show scheduler prerequisite checks",
	Run: func(cmd *cobra.Command, args []string) {
		var report cron.SetupReport
		if err := getClient().Get("/cron/setup", &report); err != nil {
			exitError(err)
		}
		printSetupReport(report)
	},
}

var setupRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-probe prerequisites, bypassing the cache",
	Run: func(cmd *cobra.Command, args []string) {
		var report cron.SetupReport
		if err := getClient().Post("/cron/setup/refresh", nil, &report); err != nil {
			exitError(err)
		}
		printSetupReport(report)
	},
}

var setupJobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List scheduler-side jobs for drift inspection",
	Run: func(cmd *cobra.Command, args []string) {
		var jobs []cron.Job
		if err := getClient().Get("/cron/jobs", &jobs); err != nil {
			exitError(err)
		}
		PrintResult(jobs, func() {
			if len(jobs) == 0 {
				fmt.Println(MutedStyle.Render("no scheduler jobs"))
				return
			}
			for _, j := range jobs {
				active := "active"
				if !j.Active {
					active = MutedStyle.Render("paused")
				}
				fmt.Printf("%-40s %-16s %s\n", j.Name, j.Schedule, active)
			}
		})
	},
}

func printSetupReport(report cron.SetupReport) {
	PrintResult(report, func() {
		for _, check := range report.Checks {
			fmt.Printf("%-20s %s\n", check.Name, statusBadge(check.OK))
			if !check.OK {
				fmt.Println(MutedStyle.Render("  " + check.Detail))
				if check.Remediation != "" {
					fmt.Println(MutedStyle.Render("  fix: " + check.Remediation))
				}
			}
		}
		if report.Ready {
			fmt.Println(SuccessStyle.Render("scheduler ready"))
		} else {
			fmt.Println(ErrorStyle.Render(fmt.Sprintf("%d of %d checks failing", report.Failed, report.Failed+report.Passed)))
		}
	})
}

func init() {
	setupCmd.AddCommand(setupStatusCmd)
	setupCmd.AddCommand(setupRefreshCmd)
	setupCmd.AddCommand(setupJobsCmd)
}
