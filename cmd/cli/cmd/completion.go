package main

import (
	"strings"

	"github.com/redbco/redb-facade/pkg/anchor/adapter"
	"github.com/spf13/cobra"
)

// databaseTypeCompletion completes the registered adapter types
func databaseTypeCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var names []string
	for _, t := range adapter.ListRegistered() {
		if strings.HasPrefix(string(t), toComplete) {
			names = append(names, string(t))
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// setupCustomCompletions adds custom completion functions to commands
func setupCustomCompletions() {
	pingCmd.ValidArgsFunction = databaseTypeCompletion
	lockCmd.ValidArgsFunction = cobra.NoFileCompletions
	parseCmd.ValidArgsFunction = cobra.NoFileCompletions
}
