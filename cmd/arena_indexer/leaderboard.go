package main

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/dfarena/indexer/internal/util"
)

// LeaderboardOptions holds flags for the leaderboard command.
type LeaderboardOptions struct {
	*RootOptions
	Limit int
}

func newLeaderboardCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LeaderboardOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "leaderboard <config-hash>",
		Short: "Print the rating leaderboard of one ruleset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaderboard(cmd, opts, args[0])
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 25, "maximum entries (0 for all)")

	return cmd
}

func runLeaderboard(cmd *cobra.Command, opts *LeaderboardOptions, configHash string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, opts.RootOptions, true)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	entries, err := a.engine.Leaderboard(util.NormalizeHash(configHash), opts.Limit)
	if err != nil {
		return fmt.Errorf("reading leaderboard: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
