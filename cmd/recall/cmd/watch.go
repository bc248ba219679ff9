package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/notewell/recall/internal/index"
	"github.com/notewell/recall/internal/output"
	"github.com/notewell/recall/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the vault and keep the index current",
		Long: `Build the index, then watch the vault for note changes and
apply them incrementally. Runs until interrupted.

Example:
  recall watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer setupLogging(cfg)()

			out := output.New(cmd.OutOrStdout())
			coord, v, provider, err := newCoordinator(cfg, index.WithNotifier(func(n index.Notification) {
				if n.SourceID != "" {
					out.Printf("%s %s (%d chunks)", n.Kind, n.SourceID, n.Chunks)
				}
			}))
			if err != nil {
				return err
			}
			defer func() { _ = provider.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := coord.BuildIndex(ctx, false); err != nil {
				return err
			}
			stats := coord.Stats()
			out.Printf("Watching %s (%d notes indexed)", v.Root(), stats.Sources)

			w, err := watcher.New(v.Root(), watcher.Options{
				DebounceWindow: cfg.WatchDebounce(),
			}, v.Indexable)
			if err != nil {
				return err
			}
			defer func() { _ = w.Stop() }()

			watchErr := make(chan error, 1)
			go func() { watchErr <- w.Start() }()
			go coord.HandleEvents(ctx, w.Events())

			select {
			case <-ctx.Done():
			case err := <-watchErr:
				if err != nil {
					return err
				}
			}

			// Persist whatever is still pending before exiting.
			coord.Flush()
			out.Println("Stopped.")
			return nil
		},
	}
	return cmd
}
