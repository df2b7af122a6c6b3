package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"

	"github.com/redbco/redb-facade/cmd/cli/internal/session"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string

	// Build information, set with -ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// printVersionInfo displays detailed version information
func printVersionInfo(w io.Writer) {
	fmt.Fprintf(w, "redb-facade %s\n", Version)
	fmt.Fprintf(w, "Built: %s, from commit: %s\n", BuildTime, GitCommit)
	fmt.Fprintf(w, "Go version: %s\n", runtime.Version())
	fmt.Fprintf(w, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "redb-facade",
	Short: "Connect to MySQL, MongoDB and Redis through one facade",
	Long: "Inspect and exercise the facade's database adapters: check connectivity, take advisory locks, " +
		"work with the cache and clean up local files.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			printVersionInfo(cmd.OutOrStdout())
			return nil
		}
		return cmd.Help()
	},
}

// loadSession builds the per-invocation session from the persistent flags.
func loadSession(cmd *cobra.Command) (*session.Session, error) {
	s, err := session.Load(configFile, logLevel, Version, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return s, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default ./redb-facade.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.Flags().Bool("version", false, "Show version information and exit")

	setupCommands()
	setupCompletion()
}

func main() {
	os.Exit(Execute())
}
