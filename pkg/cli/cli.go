// Package cli is the operator command line: inspect hooks, fire them
// manually, and check scheduler prerequisites against a running gateway.
package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// Build information (injected at compile time via ldflags)
var Version = "dev"

const defaultGatewayHTTP = "http://localhost:1993"

var (
	gatewayHTTPAddr string
	authToken       string
	jsonOutput      bool
)

var rootCmd = &cobra.Command{
	Use:   "hookified",
	Short: "Event-driven hook automation",
	Long: lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Render("hookified") + ` - Event-driven hook automation

Define hooks that fire on schedules, onchain events, or inbound webhooks
and run ordered action pipelines when they do.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		SetJSONOutput(jsonOutput)
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("  %s version %s\n", BrandStyle.Render("hookified"), Version))

	rootCmd.PersistentFlags().StringVar(&gatewayHTTPAddr, "gateway", getEnv("HOOKIFIED_GATEWAY", defaultGatewayHTTP), "Gateway HTTP address")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", getEnv("HOOKIFIED_TOKEN", ""), "Authentication token")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(tokenCmd)
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getClient() *Client {
	return NewClient(gatewayHTTPAddr, authToken)
}

func exitError(err error) {
	PrintError(err)
	os.Exit(1)
}
