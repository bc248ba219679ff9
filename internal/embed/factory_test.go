package embed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notewell/recall/internal/config"
)

func TestResolve_ExplicitEmbeddingURLWins(t *testing.T) {
	kind, base := Resolve(config.EmbeddingsConfig{
		Provider:     config.ProviderModeHosted,
		EmbeddingURL: "http://localhost:8080/v1",
		APIBase:      "http://ignored:9999/v1",
	})
	assert.Equal(t, KindSelfHosted, kind)
	assert.Equal(t, "http://localhost:8080/v1", base)
}

func TestResolve_CustomModeUsesAPIBase(t *testing.T) {
	kind, base := Resolve(config.EmbeddingsConfig{
		Provider: config.ProviderModeCustom,
		APIBase:  "http://localhost:1234/v1",
	})
	assert.Equal(t, KindSelfHosted, kind)
	assert.Equal(t, "http://localhost:1234/v1", base)
}

func TestResolve_DefaultsToHosted(t *testing.T) {
	kind, base := Resolve(config.EmbeddingsConfig{Provider: config.ProviderModeHosted})
	assert.Equal(t, KindHosted, kind)
	assert.Equal(t, DefaultHostedBase, base)

	// Custom mode without a base still falls back to hosted.
	kind, base = Resolve(config.EmbeddingsConfig{Provider: config.ProviderModeCustom})
	assert.Equal(t, KindHosted, kind)
	assert.Equal(t, DefaultHostedBase, base)
}

func TestNewProvider_HostedWithoutKeyFails(t *testing.T) {
	t.Setenv("RECALL_TEST_API_KEY", "")

	_, err := NewProvider(config.EmbeddingsConfig{
		Provider:  config.ProviderModeHosted,
		Model:     DefaultModel,
		APIKeyEnv: "RECALL_TEST_API_KEY",
	})
	require.Error(t, err)
}

func TestNewProvider_SelfHostedWithoutKeySucceeds(t *testing.T) {
	t.Setenv("RECALL_TEST_API_KEY", "")

	p, err := NewProvider(config.EmbeddingsConfig{
		Provider:     config.ProviderModeCustom,
		EmbeddingURL: "http://localhost:8080/v1",
		APIKeyEnv:    "RECALL_TEST_API_KEY",
	})
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	// Caching is on by default, so the factory returns the wrapper.
	_, ok := p.(*CachedProvider)
	assert.True(t, ok)
}

func TestNewProvider_CachingDisabled(t *testing.T) {
	t.Setenv("RECALL_TEST_API_KEY", "sk-test")

	p, err := NewProvider(config.EmbeddingsConfig{
		Provider:  config.ProviderModeHosted,
		Model:     DefaultModel,
		APIKeyEnv: "RECALL_TEST_API_KEY",
		CacheSize: -1,
	})
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	_, ok := p.(*HTTPProvider)
	assert.True(t, ok)
}
