package embed

import (
	"os"
	"time"

	"github.com/notewell/recall/internal/config"
	recallerrors "github.com/notewell/recall/internal/errors"
)

// Kind identifies the closed set of provider variants. The variant is
// resolved once at startup from validated configuration; there is no
// runtime re-selection.
type Kind string

const (
	// KindHosted is the hosted provider at the fixed API base.
	KindHosted Kind = "hosted"
	// KindSelfHosted is an OpenAI-compatible endpoint at a configured base.
	KindSelfHosted Kind = "self-hosted"
)

// Resolve determines the provider variant and base URL from config.
// Selection order: an explicit self-hosted embedding URL wins; otherwise
// provider mode "custom" with a custom API base selects self-hosted at
// that base; otherwise the hosted variant is used.
func Resolve(cfg config.EmbeddingsConfig) (Kind, string) {
	if cfg.EmbeddingURL != "" {
		return KindSelfHosted, cfg.EmbeddingURL
	}
	if cfg.Provider == config.ProviderModeCustom && cfg.APIBase != "" {
		return KindSelfHosted, cfg.APIBase
	}
	return KindHosted, DefaultHostedBase
}

// NewProvider constructs the embedding provider for the given config and
// wraps it in a query-embedding LRU cache unless caching is disabled
// (CacheSize < 0). Selecting the hosted variant without a credential is
// a config error.
func NewProvider(cfg config.EmbeddingsConfig) (Provider, error) {
	kind, base := Resolve(cfg)

	httpCfg := HTTPConfig{
		BaseURL: base,
		APIKey:  os.Getenv(cfg.APIKeyEnv),
		Model:   cfg.Model,
		Timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
	}

	var (
		provider Provider
		err      error
	)
	switch kind {
	case KindSelfHosted:
		provider, err = NewSelfHosted(httpCfg)
	case KindHosted:
		provider, err = NewHosted(httpCfg)
	default:
		return nil, recallerrors.ConfigError("unknown embedding provider variant", nil)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize >= 0 {
		provider = NewCachedProvider(provider, cfg.CacheSize)
	}
	return provider, nil
}
