package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "arena_indexer"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigDir string
	Storage   string
	LogLevel  string
}

func newRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   AppName,
		Short: "Derived-state indexer for Dark Forest arena matches",
		Long: `Replays recorded arena contract events and maintains match, player,
planet, rating and badge records in the configured storage backend.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigDir, "config-dir", ".", "directory holding "+AppName+".cfg.json")
	cmd.PersistentFlags().StringVar(&opts.Storage, "storage", "", "override storage.type (memory|sqlite|postgres|redis)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override logLevel")

	cmd.AddCommand(newReplayCommand(opts))
	cmd.AddCommand(newLeaderboardCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (built %s)\n", AppName, CurrentVersion, BuildDate)
		},
	}
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
