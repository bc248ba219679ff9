package cmd

import (
	"github.com/spf13/cobra"

	"github.com/notewell/recall/internal/output"
	"github.com/notewell/recall/internal/store"
)

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the persisted index cache",
		Long: `Delete the persisted index cache. The next index or search
rebuilds from scratch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer setupLogging(cfg)()

			cache := store.NewPersistentCache(cfg.CachePath(), cfg.StalenessWindow())
			if err := cache.Delete(); err != nil {
				return err
			}
			output.New(cmd.OutOrStdout()).Successf("Index cleared.")
			return nil
		},
	}
	return cmd
}
