package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/notewell/recall/internal/output"
	"github.com/notewell/recall/internal/store"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Long: `Show statistics for the persisted index. Reads the cache
document directly; no embedding provider is contacted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer setupLogging(cfg)()

			out := output.New(cmd.OutOrStdout())
			out.Printf("Vault: %s", cfg.Vault.Root)

			cache := store.NewPersistentCache(cfg.CachePath(), cfg.StalenessWindow())
			doc, err := cache.Load("", 0)
			if err != nil {
				out.Warningf("Index: unusable (%v)", err)
				out.Println("Run 'recall index' to rebuild.")
				return nil
			}
			if doc == nil {
				out.Println("Index: not built. Run 'recall index' first.")
				return nil
			}

			idx := store.NewIndex()
			idx.Replace(*doc)
			stats := idx.Stats()

			out.Printf("Notes:      %d", stats.Sources)
			out.Printf("Chunks:     %d", stats.Chunks)
			out.Printf("Dimensions: %d", stats.Dimensions)
			out.Printf("Model:      %s", stats.Model)
			out.Printf("Built:      %s (%s ago)",
				stats.LastBuilt.Format("2006-01-02 15:04:05"),
				time.Since(stats.LastBuilt).Round(time.Second))
			return nil
		},
	}
	return cmd
}
