// Package cmd provides the CLI commands for recall.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/notewell/recall/internal/config"
	"github.com/notewell/recall/internal/embed"
	"github.com/notewell/recall/internal/index"
	"github.com/notewell/recall/internal/logging"
	"github.com/notewell/recall/internal/vault"
	"github.com/notewell/recall/pkg/version"
)

var (
	configPath string
	vaultRoot  string
	debugMode  bool
)

// NewRootCmd creates the root command for the recall CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recall",
		Short: "Retrieval index for a local note vault",
		Long: `Recall chunks the notes in a vault, embeds them, and serves
similarity-ranked context for queries.

The index is kept in a JSON cache under <vault>/.recall and is
updated incrementally as notes change.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("recall version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path")
	cmd.PersistentFlags().StringVar(&vaultRoot, "vault", "", "Vault directory (overrides config)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newClearCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// loadConfig resolves configuration from flags, files, and environment.
func loadConfig() (*config.Config, error) {
	// A .env in the working directory may carry the provider credential.
	_ = godotenv.Load()

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	if vaultRoot != "" {
		cfg.Vault.Root = vaultRoot
	}
	if debugMode {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging initializes file logging under the vault data directory.
func setupLogging(cfg *config.Config) func() {
	cleanup, err := logging.SetupDefault(cfg.DataDir(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		return func() {}
	}
	return cleanup
}

// newCoordinator wires the vault, provider, and coordinator for a
// command invocation.
func newCoordinator(cfg *config.Config, opts ...index.Option) (*index.Coordinator, *vault.Vault, embed.Provider, error) {
	v, err := vault.New(cfg.Vault.Root, vault.Options{
		Extensions:  cfg.Vault.Extensions,
		MaxFileSize: int64(cfg.Vault.MaxFileSizeKB) * 1024,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	provider, err := embed.NewProvider(cfg.Embeddings)
	if err != nil {
		return nil, nil, nil, err
	}

	coord, err := index.New(cfg, v, provider, opts...)
	if err != nil {
		_ = provider.Close()
		return nil, nil, nil, err
	}
	return coord, v, provider, nil
}
