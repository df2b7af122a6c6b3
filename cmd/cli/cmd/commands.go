package main

import "github.com/spf13/cobra"

// setupCommands initializes all commands and their relationships
func setupCommands() {
	rootCmd.AddCommand(pingCmd)

	// Relational advisory locks
	rootCmd.AddCommand(lockCmd)

	// Key-value cache
	rootCmd.AddCommand(cacheCmd)

	rootCmd.AddCommand(credentialsCmd)

	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(versionCmd)
}

// setupCompletion adds shell completion support
func setupCompletion() {
	rootCmd.AddCommand(completionCmd)
	setupCustomCompletions()
}

// completionCmd represents the completion command
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate completion script",
	Long: `To load completions:

Bash:
  $ source <(redb-facade completion bash)

Zsh:
  $ redb-facade completion zsh > "${fpath[1]}/_redb-facade"

Fish:
  $ redb-facade completion fish | source

PowerShell:
  PS> redb-facade completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		default:
			return cmd.Root().GenPowerShellCompletion(cmd.OutOrStdout())
		}
	},
}

// versionCmd prints build information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printVersionInfo(cmd.OutOrStdout())
	},
}
