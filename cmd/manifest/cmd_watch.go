package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/inbox"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/orders"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/pipeline"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/policy"
)

const (
	// runTimeout bounds a single pipeline run started by the watcher.
	runTimeout = 5 * time.Minute
	// statsInterval is how often watcher counters are logged.
	statsInterval = time.Minute
)

var (
	watchGroup string
	watchInbox string
)

// watchCmd processes exports dropped into the inbox directory
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Generate manifests for every CSV export dropped into the inbox",
	Long: `Watches the inbox directory and runs the generator for each *.csv file
once it has stopped changing for the debounce window. Archives are written to
the output directory and handled exports are moved to the processed directory.

Runs until interrupted (Ctrl+C / SIGTERM).`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchGroup, "group", "g", "", "Customer group (default from config)")
	watchCmd.Flags().StringVar(&watchInbox, "inbox", "", "Inbox directory (default from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	key := watchGroup
	if key == "" {
		key = cfg.Watch.Group
	}
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	group, err := reg.Lookup(key)
	if err != nil {
		return err
	}
	dir := watchInbox
	if dir == "" {
		dir = cfg.Watch.InboxDir
	}

	w, err := inbox.New(inbox.Options{
		Dir:          dir,
		ProcessedDir: cfg.Watch.ProcessedDir,
		Debounce:     cfg.GetDebounce(),
	}, inboxHandler(group))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watching inbox",
		zap.String("dir", dir),
		zap.String("group", group.Key),
		zap.Duration("debounce", cfg.GetDebounce()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s := w.GetStats()
				logger.Debug("inbox stats",
					zap.Strings("dirs", w.WatchedDirs()),
					zap.Int("seen", s.FilesSeen),
					zap.Int("handled", s.FilesHandled),
					zap.Int("errors", s.Errors))
			}
		}
	})
	err = g.Wait()

	s := w.GetStats()
	logger.Info("watcher stopped",
		zap.Int("handled", s.FilesHandled),
		zap.Int("errors", s.Errors))
	return err
}

// inboxHandler runs one pipeline per settled export.
func inboxHandler(group policy.GroupPolicy) inbox.Handler {
	return func(ctx context.Context, path string) error {
		ctx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()

		src, f, err := orders.FileSource(path)
		if err != nil {
			return err
		}
		defer f.Close()

		res, err := pipeline.Run(ctx, pipeline.Request{
			Group:        group,
			ColdPickup:   cfg.Watch.ColdPickup,
			Inputs:       []orders.Source{src},
			TemplatePath: cfg.Templates.CXReady,
		})
		if err != nil {
			return err
		}
		out, err := pipeline.WriteArchive(cfg.Output.Dir, res, time.Now(), cfg.Output.Overwrite)
		if err != nil {
			return err
		}
		logger.Info("inbox export processed",
			zap.String("input", path),
			zap.String("archive", out),
			zap.String("run_id", res.RunID),
			zap.Int("warnings", len(res.Warnings)))
		return nil
	}
}
