package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dfarena/indexer/internal/config"
	"github.com/dfarena/indexer/internal/dispatcher"
	"github.com/dfarena/indexer/internal/feed"
	"github.com/dfarena/indexer/internal/logging"
	"github.com/dfarena/indexer/internal/monitor"
	"github.com/dfarena/indexer/internal/parser"
	"github.com/dfarena/indexer/internal/worker"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Concurrency int
}

func newReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <feed>...",
		Short: "Replay recorded event feeds into storage",
		Long: `Replay one or more newline-delimited JSON event feeds (optionally gzip
compressed). Events inside a feed are applied in file order; separate feeds
are replayed concurrently, so one arena's events must not span feeds.

Example:
  arena_indexer replay --storage sqlite events/*.jsonl.gz`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, opts, args)
		},
	}

	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 4, "number of feeds replayed at once")

	return cmd
}

type replayTotals struct {
	mu sync.Mutex
	feed.Stats
}

func (t *replayTotals) add(s feed.Stats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Events += s.Events
	t.Failed += s.Failed
	t.Dropped += s.Dropped
}

func runReplay(cmd *cobra.Command, opts *ReplayOptions, paths []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, opts.RootOptions, false)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	dlog := logging.NewDispatcherLogger(a.log)
	dcfg := config.GetDispatcherConfig()
	d, err := dispatcher.New(dlog, dispatcher.Config{
		Shards:     dcfg.Shards,
		BufferSize: dcfg.BufferSize,
		Blocking:   dcfg.Blocking,
	})
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	defer d.Close()

	manager := worker.NewManager(worker.Dependencies{
		Engine: a.engine,
		Parser: parser.NewParser(a.slogManager.Logger()),
		Logger: dlog,
	}, a.backend)
	manager.RegisterHandlers(d)

	monDeps := monitor.Dependencies{
		Logger:     a.log,
		Dispatcher: d,
		Engine:     a.engine,
		LastWrite:  manager.GetLastDBWriteDuration,
		StatusFile: statusFilePath(a.logsDir),
		Interval:   config.GetDuration("monitor.interval"),
	}
	if a.influx != nil {
		monDeps.Sink = a.influx
	}
	mon := monitor.NewService(monDeps)
	if err := mon.Start(); err != nil {
		return err
	}
	defer mon.Stop()

	totals := &replayTotals{}
	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for _, path := range paths {
		g.Go(func() error {
			stats, err := replayFile(gctx, path, d, dlog)
			totals.add(stats)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			a.log.Info().Str("feed", path).Int("events", stats.Events).
				Int("failed", stats.Failed).Int("dropped", stats.Dropped).Msg("Feed replayed")
			return nil
		})
	}
	replayErr := g.Wait()

	// drain the shards before reading totals
	d.Close()
	ds := d.Stats()
	es := a.engine.Stats()
	a.log.Info().
		Int64("processed", ds.Processed).
		Int64("failed", ds.Failed).
		Int("settled", es.Settled).
		Int("ratingUpdates", es.RatingUpdates).
		Msg("Replay finished")

	fmt.Fprintf(cmd.OutOrStdout(),
		"events=%d processed=%d failed=%d dropped=%d settled=%d ratingUpdates=%d badges=%d integrityFaults=%d\n",
		totals.Events, ds.Processed, ds.Failed+int64(totals.Failed), ds.Dropped,
		es.Settled, es.RatingUpdates, es.BadgesAwarded, es.IntegrityFaults)

	return replayErr
}

func replayFile(ctx context.Context, path string, d feed.Dispatcher, logger dispatcher.Logger) (feed.Stats, error) {
	rc, err := feed.Open(path)
	if err != nil {
		return feed.Stats{}, err
	}
	defer rc.Close()
	return feed.Replay(ctx, feed.NewReader(rc), d, logger)
}

func statusFilePath(logsDir string) string {
	if logsDir == "" {
		return ""
	}
	return filepath.Join(logsDir, "status.txt")
}
