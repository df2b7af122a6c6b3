package main

import (
	"time"

	"github.com/redbco/redb-facade/cmd/cli/internal/ping"
	"github.com/spf13/cobra"
)

// pingCmd represents the ping command
var pingCmd = &cobra.Command{
	Use:   "ping [mysql|mongodb|redis]",
	Short: "Check that a configured database accepts a session",
	Long: `Connect to the configured database through the adapter registry, ping it
and print the session handle. Aliases such as mariadb, mongo or valkey are accepted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		retries, _ := cmd.Flags().GetInt("retries")
		backoff, _ := cmd.Flags().GetDuration("backoff")
		return ping.Run(cmd.Context(), s, args[0], ping.Options{Retries: retries, Backoff: backoff})
	},
}

func init() {
	pingCmd.Flags().Int("retries", 0, "Number of extra attempts when the connection fails")
	pingCmd.Flags().Duration("backoff", time.Second, "Delay between attempts")
}
