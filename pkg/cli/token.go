package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sanketnighot/hookified/pkg/auth"
)

var (
	tokenUserId uint
	tokenSecret string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token",
	Run: func(cmd *cobra.Command, args []string) {
		if tokenSecret == "" {
			exitError(fmt.Errorf("--secret required (the gateway's JWT secret)"))
		}
		if tokenUserId == 0 {
			exitError(fmt.Errorf("--user required"))
		}
		token, err := auth.IssueToken(tokenSecret, tokenUserId, tokenTTL)
		if err != nil {
			exitError(err)
		}
		PrintResult(map[string]string{"token": token}, func() {
			fmt.Println(token)
		})
	},
}

func init() {
	tokenCmd.Flags().UintVar(&tokenUserId, "user", 0, "User id to embed in the token")
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", getEnv("HOOKIFIED_GATEWAY_JWTSECRET", ""), "JWT signing secret")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 30*24*time.Hour, "Token lifetime")
}
