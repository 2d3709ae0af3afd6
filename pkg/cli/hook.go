package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	apiv1 "github.com/sanketnighot/hookified/pkg/api/v1"
	"github.com/sanketnighot/hookified/pkg/types"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage hooks",
}

var hookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your hooks",
	Run: func(cmd *cobra.Command, args []string) {
		var hooks []apiv1.HookResponse
		if err := getClient().Get("/hooks", &hooks); err != nil {
			exitError(err)
		}
		PrintResult(hooks, func() {
			if len(hooks) == 0 {
				fmt.Println(MutedStyle.Render("no hooks"))
				return
			}
			for _, h := range hooks {
				state := SuccessStyle.Render(string(h.Status))
				if h.Status != types.HookStatusActive {
					state = ErrorStyle.Render(string(h.Status))
				}
				fmt.Printf("%s  %-28s %-8s %s\n", h.ExternalId, h.Name, h.TriggerType, state)
			}
		})
	},
}

var hookGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one hook",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var hook apiv1.HookResponse
		if err := getClient().Get("/hooks/"+args[0], &hook); err != nil {
			exitError(err)
		}
		PrintResult(hook, func() {
			out, _ := json.MarshalIndent(hook, "", "  ")
			fmt.Println(string(out))
		})
	},
}

var hookRunData string

var hookRunCmd = &cobra.Command{
	Use:   "run <id>",
	Short: "Fire a hook manually and wait for the result",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		body := map[string]any{}
		if hookRunData != "" {
			data := map[string]any{}
			if err := json.Unmarshal([]byte(hookRunData), &data); err != nil {
				exitError(fmt.Errorf("--data is not valid JSON: %w", err))
			}
			body["data"] = data
		}

		var run types.HookRun
		if err := getClient().Post("/hooks/"+args[0]+"/run", body, &run); err != nil {
			exitError(err)
		}
		PrintResult(run, func() {
			badge := SuccessStyle.Render(string(run.Status))
			if run.Status != types.RunStatusSuccess {
				badge = ErrorStyle.Render(string(run.Status))
			}
			fmt.Printf("run %s %s\n", run.ExternalId, badge)
			for _, a := range run.Meta.Actions {
				fmt.Printf("  %-14s %-8s %dms\n", a.Type, a.Status, a.DurationMs)
			}
			if run.Error != "" {
				fmt.Println(ErrorStyle.Render("  " + run.Error))
			}
		})
	},
}

var hookToggleCmd = &cobra.Command{
	Use:   "toggle <id> <on|off>",
	Short: "Pause or resume a hook",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		active := args[1] == "on"
		var hook apiv1.HookResponse
		if err := getClient().Post("/hooks/"+args[0]+"/toggle", map[string]bool{"active": active}, &hook); err != nil {
			exitError(err)
		}
		PrintResult(hook, func() {
			fmt.Printf("%s is_active=%v status=%s\n", hook.ExternalId, hook.IsActive, hook.Status)
		})
	},
}

var runCmd = &cobra.Command{
	Use:   "runs <hook-id>",
	Short: "List recent runs for a hook",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var runs []types.HookRun
		if err := getClient().Get("/hooks/"+args[0]+"/runs", &runs); err != nil {
			exitError(err)
		}
		PrintResult(runs, func() {
			if len(runs) == 0 {
				fmt.Println(MutedStyle.Render("no runs"))
				return
			}
			for _, r := range runs {
				fmt.Printf("%s  %-8s %s\n", r.ExternalId, r.Status, r.TriggeredAt.Format("2006-01-02 15:04:05"))
			}
		})
	},
}

func init() {
	hookRunCmd.Flags().StringVar(&hookRunData, "data", "", "JSON object merged into the trigger context")

	hookCmd.AddCommand(hookListCmd)
	hookCmd.AddCommand(hookGetCmd)
	hookCmd.AddCommand(hookRunCmd)
	hookCmd.AddCommand(hookToggleCmd)
}
