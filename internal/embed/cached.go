package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/notewell/recall/internal/vector"
)

// DefaultCacheSize is the default number of embeddings kept in memory.
// At 768 dimensions * 4 bytes * 512 entries this is about 1.5MB.
const DefaultCacheSize = 512

// CachedProvider wraps a Provider with LRU caching so repeated texts
// (typically queries) skip the network round trip.
type CachedProvider struct {
	inner Provider
	cache *lru.Cache[string, vector.Vector]
}

var _ Provider = (*CachedProvider)(nil)

// NewCachedProvider creates a caching wrapper around inner.
func NewCachedProvider(inner Provider, size int) *CachedProvider {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, vector.Vector](size)
	return &CachedProvider{inner: inner, cache: cache}
}

// cacheKey hashes text together with the model name so a model switch
// never serves stale vectors.
func (c *CachedProvider) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text + "\x00" + c.inner.ModelName()))
	return hex.EncodeToString(sum[:])
}

// Embed returns a cached embedding when available.
func (c *CachedProvider) Embed(ctx context.Context, text string) (vector.Vector, error) {
	key := c.cacheKey(text)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return vector.Vector{}, err
	}
	c.cache.Add(key, vec)
	return vec, nil
}

// EmbedBatch embeds texts, serving cached entries individually and
// requesting only the misses in one call. Result order matches input.
func (c *CachedProvider) EmbedBatch(ctx context.Context, texts []string) ([]vector.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([]vector.Vector, len(texts))
	missIdx := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))

	for i, t := range texts {
		if vec, ok := c.cache.Get(c.cacheKey(t)); ok {
			results[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}

	if len(missTexts) > 0 {
		vecs, err := c.inner.EmbedBatch(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		for j, i := range missIdx {
			results[i] = vecs[j]
			c.cache.Add(c.cacheKey(texts[i]), vecs[j])
		}
	}

	return results, nil
}

// ModelName returns the wrapped provider's model identifier.
func (c *CachedProvider) ModelName() string { return c.inner.ModelName() }

// Dimensions returns the wrapped provider's dimensionality.
func (c *CachedProvider) Dimensions() int { return c.inner.Dimensions() }

// Close closes the wrapped provider.
func (c *CachedProvider) Close() error { return c.inner.Close() }
