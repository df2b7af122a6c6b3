package main

import (
	"github.com/redbco/redb-facade/cmd/cli/internal/credentials"
	"github.com/spf13/cobra"
)

// credentialsCmd represents the credentials command
var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage database passwords kept in the keyring",
	Long: `Store database passwords in the system keyring, or in an encrypted file when no
keyring is available, so they do not have to live in the config file. A stored
password is used whenever the configured one is empty.`,
}

// credentialsSetCmd represents the credentials set command
var credentialsSetCmd = &cobra.Command{
	Use:   "set [mysql]",
	Short: "Store the password for a database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if _, err := credentials.Account(s, args[0]); err != nil {
			return err
		}
		secret, err := credentials.ReadSecret(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		return credentials.Set(s, args[0], secret)
	},
}

// credentialsDeleteCmd represents the credentials delete command
var credentialsDeleteCmd = &cobra.Command{
	Use:   "delete [mysql]",
	Short: "Remove the stored password for a database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		return credentials.Delete(s, args[0])
	},
}

func init() {
	credentialsCmd.AddCommand(credentialsSetCmd)
	credentialsCmd.AddCommand(credentialsDeleteCmd)
}
