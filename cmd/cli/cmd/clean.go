package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/redbco/redb-facade/cmd/cli/internal/files"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove a file or directory tree and report the space freed",
	Long: `Remove the file or directory at path. With --contents-only the directory is kept
and only its contents are removed. With --match the path is a glob and every matching
file is removed.

The command prompts for confirmation unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		contentsOnly, _ := cmd.Flags().GetBool("contents-only")
		match, _ := cmd.Flags().GetBool("match")

		s, err := loadSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if !force {
			fmt.Fprintf(cmd.OutOrStdout(), "Remove %s? This action cannot be undone. (y/N): ", args[0])
			response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read confirmation: %v", err)
			}
			response = strings.ToLower(strings.TrimSpace(response))
			if response != "y" && response != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "❌ Clean operation cancelled")
				return nil
			}
		}

		return files.Clean(afero.NewOsFs(), s, args[0], files.CleanOptions{
			ContentsOnly: contentsOnly,
			Match:        match,
		})
	},
}

func init() {
	cleanCmd.Flags().Bool("force", false, "Skip confirmation prompt")
	cleanCmd.Flags().Bool("contents-only", false, "Keep the directory and remove only its contents")
	cleanCmd.Flags().Bool("match", false, "Treat path as a glob pattern")
}
