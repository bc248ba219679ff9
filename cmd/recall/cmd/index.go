package cmd

import (
	"github.com/spf13/cobra"

	"github.com/notewell/recall/internal/output"
)

func newIndexCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the vault index",
		Long: `Build the retrieval index for the vault.

Without --force a fresh cached index is reused and no embedding
calls are made.

Examples:
  recall index
  recall index --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer setupLogging(cfg)()

			coord, _, provider, err := newCoordinator(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = provider.Close() }()

			if err := coord.BuildIndex(cmd.Context(), force); err != nil {
				return err
			}

			stats := coord.Stats()
			output.New(cmd.OutOrStdout()).Successf("Indexed %d notes (%d chunks, model %s)",
				stats.Sources, stats.Chunks, stats.Model)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Rebuild even if a usable cache exists")
	return cmd
}
