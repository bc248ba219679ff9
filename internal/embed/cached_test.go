package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notewell/recall/internal/vector"
)

// countingProvider is an in-memory Provider that records how many texts
// it was asked to embed.
type countingProvider struct {
	calls int
	texts int
}

var _ Provider = (*countingProvider)(nil)

func (f *countingProvider) Embed(ctx context.Context, text string) (vector.Vector, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return vector.Vector{}, err
	}
	return vecs[0], nil
}

func (f *countingProvider) EmbedBatch(_ context.Context, texts []string) ([]vector.Vector, error) {
	f.calls++
	f.texts += len(texts)
	vecs := make([]vector.Vector, len(texts))
	for i, t := range texts {
		vecs[i] = vector.New([]float32{float32(len(t)), 1, 0})
	}
	return vecs, nil
}

func (f *countingProvider) ModelName() string { return "counting-model" }
func (f *countingProvider) Dimensions() int   { return 3 }
func (f *countingProvider) Close() error      { return nil }

func TestCachedProvider_RepeatedTextSkipsInner(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedProvider(inner, 16)

	first, err := cached.Embed(context.Background(), "same query")
	require.NoError(t, err)

	second, err := cached.Embed(context.Background(), "same query")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedProvider_BatchRequestsOnlyMisses(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedProvider(inner, 16)

	_, err := cached.Embed(context.Background(), "warm")
	require.NoError(t, err)

	vecs, err := cached.EmbedBatch(context.Background(), []string{"cold1", "warm", "cold2"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	// One initial call plus one batch for the two misses.
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 3, inner.texts)

	// Position 1 is the cached "warm" vector.
	assert.Equal(t, float32(4), vecs[1].Values[0])
}

func TestCachedProvider_AllHitsSkipInner(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedProvider(inner, 16)

	_, err := cached.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	_, err = cached.EmbedBatch(context.Background(), []string{"b", "a"})
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
}

func TestCachedProvider_EvictionRefetches(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedProvider(inner, 1)

	_, err := cached.Embed(context.Background(), "one")
	require.NoError(t, err)
	_, err = cached.Embed(context.Background(), "two")
	require.NoError(t, err)
	_, err = cached.Embed(context.Background(), "one")
	require.NoError(t, err)

	assert.Equal(t, 3, inner.calls)
}

func TestCachedProvider_DelegatesMetadata(t *testing.T) {
	cached := NewCachedProvider(&countingProvider{}, 16)
	assert.Equal(t, "counting-model", cached.ModelName())
	assert.Equal(t, 3, cached.Dimensions())
	assert.NoError(t, cached.Close())
}
