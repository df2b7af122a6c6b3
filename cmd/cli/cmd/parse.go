package main

import (
	"github.com/redbco/redb-facade/cmd/cli/internal/parse"
	"github.com/spf13/cobra"
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse [connection-string]",
	Short: "Show how a connection string is understood",
	Long:  `Parse a mysql://, mongodb:// or redis:// connection string and print the details and capabilities as YAML.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return parse.Run(cmd.OutOrStdout(), args[0])
	},
}
