// Package config loads and validates the recall configuration.
//
// Resolution order: explicit --config path, ./recall.yaml, then
// ~/.config/recall/config.yaml. Missing files fall back to defaults.
// RECALL_* environment variables override file settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	recallerrors "github.com/notewell/recall/internal/errors"
)

// CurrentVersion is the config schema version.
const CurrentVersion = 1

// Provider modes for embedding selection.
const (
	ProviderModeHosted = "hosted"
	ProviderModeCustom = "custom"
)

// Config is the complete recall configuration.
type Config struct {
	Version    int              `yaml:"version"`
	Vault      VaultConfig      `yaml:"vault"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Cache      CacheConfig      `yaml:"cache"`
	Indexing   IndexingConfig   `yaml:"indexing"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Watch      WatchConfig      `yaml:"watch"`
	LogLevel   string           `yaml:"log_level"`
}

// VaultConfig configures the note vault to index.
type VaultConfig struct {
	// Root is the vault directory. Defaults to the working directory.
	Root string `yaml:"root"`
	// Extensions lists the note file extensions to index.
	Extensions []string `yaml:"extensions"`
	// MaxFileSizeKB skips notes larger than this (default 1024).
	MaxFileSizeKB int `yaml:"max_file_size_kb"`
}

// ChunkingConfig configures how notes are split into chunks.
type ChunkingConfig struct {
	// SizeTokens is the approximate token budget per chunk.
	SizeTokens int `yaml:"size_tokens"`
	// OverlapTokens is the approximate token overlap between chunks.
	OverlapTokens int `yaml:"overlap_tokens"`
}

// RetrievalConfig configures query-time retrieval.
type RetrievalConfig struct {
	// TopK is the maximum number of context entries returned per query.
	TopK int `yaml:"top_k"`
}

// CacheConfig configures the persistent index cache.
type CacheConfig struct {
	// Path is the cache document location. Defaults to
	// <vault>/.recall/index-cache.json.
	Path string `yaml:"path"`
	// StalenessDays is the maximum cache age before a rebuild is forced.
	StalenessDays int `yaml:"staleness_days"`
	// SaveDebounce is the coalescing window for cache saves (e.g. "2s").
	SaveDebounce string `yaml:"save_debounce"`
}

// IndexingConfig configures full rebuilds.
type IndexingConfig struct {
	// BatchSize is the number of documents embedded per batch.
	BatchSize int `yaml:"batch_size"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the provider mode: "hosted" or "custom".
	Provider string `yaml:"provider"`
	// Model is the embedding model name.
	Model string `yaml:"model"`
	// APIKeyEnv names the environment variable holding the credential.
	APIKeyEnv string `yaml:"api_key_env"`
	// APIBase is the custom OpenAI-compatible API base, used when
	// Provider is "custom".
	APIBase string `yaml:"api_base"`
	// EmbeddingURL is an explicit self-hosted embedding endpoint. When
	// set it takes precedence over the provider mode.
	EmbeddingURL string `yaml:"embedding_url"`
	// BatchSize is the maximum texts per embedding request.
	BatchSize int `yaml:"batch_size"`
	// TimeoutSecs is the per-request timeout.
	TimeoutSecs int `yaml:"timeout_secs"`
	// CacheSize is the query-embedding LRU size (0 = default, -1 = off).
	CacheSize int `yaml:"cache_size"`
}

// WatchConfig configures the vault watcher.
type WatchConfig struct {
	// Debounce is the file-event coalescing window (e.g. "500ms").
	Debounce string `yaml:"debounce"`
}

// Default returns the default configuration rooted at the given vault.
func Default(vaultRoot string) *Config {
	return &Config{
		Version: CurrentVersion,
		Vault: VaultConfig{
			Root:          vaultRoot,
			Extensions:    []string{".md", ".txt"},
			MaxFileSizeKB: 1024,
		},
		Chunking: ChunkingConfig{
			SizeTokens:    500,
			OverlapTokens: 50,
		},
		Retrieval: RetrievalConfig{
			TopK: 3,
		},
		Cache: CacheConfig{
			StalenessDays: 7,
			SaveDebounce:  "2s",
		},
		Indexing: IndexingConfig{
			BatchSize: 10,
		},
		Embeddings: EmbeddingsConfig{
			Provider:    ProviderModeHosted,
			Model:       "text-embedding-3-small",
			APIKeyEnv:   "OPENAI_API_KEY",
			BatchSize:   32,
			TimeoutSecs: 30,
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		LogLevel: "info",
	}
}

// Load reads the config from path. A missing file yields defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default("")
			applyEnvOverrides(cfg)
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, recallerrors.ConfigError("failed to read config file", err)
	}

	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, recallerrors.ConfigError("failed to parse config file", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

// LoadDefault resolves the config from ./recall.yaml, then
// ~/.config/recall/config.yaml, then built-in defaults.
func LoadDefault() (*Config, error) {
	if _, err := os.Stat("recall.yaml"); err == nil {
		return Load("recall.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(home, ".config", "recall", "config.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return Load(userPath)
		}
	}
	cfg := Default("")
	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

// DataDir returns the recall data directory for the configured vault.
func (c *Config) DataDir() string {
	return filepath.Join(c.Vault.Root, ".recall")
}

// CachePath returns the resolved cache document path.
func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(c.DataDir(), "index-cache.json")
}

// StalenessWindow returns the cache staleness window as a duration.
func (c *Config) StalenessWindow() time.Duration {
	days := c.Cache.StalenessDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

// SaveDebounce returns the cache-save debounce window.
func (c *Config) SaveDebounce() time.Duration {
	return parseDurationOr(c.Cache.SaveDebounce, 2*time.Second)
}

// WatchDebounce returns the file-event debounce window.
func (c *Config) WatchDebounce() time.Duration {
	return parseDurationOr(c.Watch.Debounce, 500*time.Millisecond)
}

// Validate checks the configuration for precondition violations.
// Chunking constraints mirror the chunker's own checks so that bad
// parameters fail at startup rather than at first use.
func (c *Config) Validate() error {
	if c.Chunking.SizeTokens <= 0 {
		return recallerrors.ChunkParamsError(
			fmt.Sprintf("chunking.size_tokens must be positive, got %d", c.Chunking.SizeTokens))
	}
	if c.Chunking.OverlapTokens < 0 {
		return recallerrors.ChunkParamsError(
			fmt.Sprintf("chunking.overlap_tokens must not be negative, got %d", c.Chunking.OverlapTokens))
	}
	if c.Chunking.OverlapTokens >= c.Chunking.SizeTokens {
		return recallerrors.ChunkParamsError(
			fmt.Sprintf("chunking.overlap_tokens (%d) must be smaller than size_tokens (%d)",
				c.Chunking.OverlapTokens, c.Chunking.SizeTokens))
	}
	if c.Retrieval.TopK <= 0 {
		return recallerrors.ConfigError(
			fmt.Sprintf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK), nil)
	}
	if c.Indexing.BatchSize <= 0 {
		return recallerrors.ConfigError(
			fmt.Sprintf("indexing.batch_size must be positive, got %d", c.Indexing.BatchSize), nil)
	}
	switch c.Embeddings.Provider {
	case ProviderModeHosted, ProviderModeCustom:
	default:
		return recallerrors.ConfigError(
			fmt.Sprintf("embeddings.provider must be %q or %q, got %q",
				ProviderModeHosted, ProviderModeCustom, c.Embeddings.Provider), nil)
	}
	return nil
}

// applyEnvOverrides applies RECALL_* environment overrides. Env vars take
// precedence over file settings.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RECALL_VAULT"); v != "" {
		cfg.Vault.Root = v
	}
	if v := os.Getenv("RECALL_PROVIDER"); v != "" {
		cfg.Embeddings.Provider = v
	}
	if v := os.Getenv("RECALL_EMBEDDING_URL"); v != "" {
		cfg.Embeddings.EmbeddingURL = v
	}
	if v := os.Getenv("RECALL_API_BASE"); v != "" {
		cfg.Embeddings.APIBase = v
	}
	if v := os.Getenv("RECALL_EMBEDDING_MODEL"); v != "" {
		cfg.Embeddings.Model = v
	}
	if v := os.Getenv("RECALL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Vault.Root == "" {
		if wd, err := os.Getwd(); err == nil {
			cfg.Vault.Root = wd
		}
	}
	if len(cfg.Vault.Extensions) == 0 {
		cfg.Vault.Extensions = []string{".md", ".txt"}
	}
	if cfg.Vault.MaxFileSizeKB <= 0 {
		cfg.Vault.MaxFileSizeKB = 1024
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "text-embedding-3-small"
	}
	if cfg.Embeddings.APIKeyEnv == "" {
		cfg.Embeddings.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embeddings.BatchSize <= 0 {
		cfg.Embeddings.BatchSize = 32
	}
	if cfg.Embeddings.TimeoutSecs <= 0 {
		cfg.Embeddings.TimeoutSecs = 30
	}
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
