package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/notewell/recall/configs"
	recallerrors "github.com/notewell/recall/internal/errors"
	"github.com/notewell/recall/internal/output"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an annotated recall.yaml",
		Long: `Write the annotated default configuration as recall.yaml in the
vault (or the working directory when no vault is given).

Example:
  recall init --vault ~/notes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())

			dir := vaultRoot
			if dir == "" {
				wd, err := os.Getwd()
				if err != nil {
					return recallerrors.New(recallerrors.ErrCodeInternal,
						"failed to resolve working directory", err)
				}
				dir = wd
			}

			path := filepath.Join(dir, "recall.yaml")
			if _, err := os.Stat(path); err == nil && !force {
				return recallerrors.ConfigError(
					path+" already exists (use --force to overwrite)", nil)
			}

			if err := os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644); err != nil {
				return recallerrors.ConfigError("failed to write "+path, err)
			}
			out.Successf("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing recall.yaml")
	return cmd
}
