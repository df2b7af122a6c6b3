package main

import (
	"github.com/redbco/redb-facade/cmd/cli/internal/locks"
	"github.com/spf13/cobra"
)

// lockCmd represents the lock command
var lockCmd = &cobra.Command{
	Use:   "lock [name]",
	Short: "Acquire and release a named MySQL advisory lock",
	Long: `Acquire the named advisory lock, optionally hold it, then release it.
The lock belongs to this command's session, so it is always released on exit.
There is no separate unlock command: a new invocation opens a new session and
could never release a lock taken by another one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		timeout := s.Config.MySQL.LockTimeout
		if cmd.Flags().Changed("timeout") {
			timeout, _ = cmd.Flags().GetDuration("timeout")
		}
		hold, _ := cmd.Flags().GetDuration("hold")

		a, err := locks.Open(cmd.Context(), s)
		if err != nil {
			return err
		}
		defer a.Close()

		return locks.Acquire(cmd.Context(), s, a, args[0], timeout, hold, nil)
	},
}

func init() {
	lockCmd.Flags().Duration("timeout", 0, "How long to wait for the lock (default mysql.lock_timeout, negative waits forever)")
	lockCmd.Flags().Duration("hold", 0, "How long to hold the lock before releasing it")
}
