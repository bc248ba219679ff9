package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	recallerrors "github.com/notewell/recall/internal/errors"
)

// PersistentCache reads and writes the JSON cache document. Saves are
// atomic (temp file + rename) and serialized by an in-process mutex
// plus an advisory file lock, so a second recall process cannot
// interleave a write.
type PersistentCache struct {
	path      string
	staleness time.Duration

	mu sync.Mutex
	fl *flock.Flock
}

// NewPersistentCache creates a cache at path with the given staleness
// window. A document older than the window is treated as absent.
func NewPersistentCache(path string, staleness time.Duration) *PersistentCache {
	return &PersistentCache{
		path:      path,
		staleness: staleness,
		fl:        flock.New(path + ".lock"),
	}
}

// Path returns the cache document location.
func (c *PersistentCache) Path() string { return c.path }

// Load reads and validates the cache document. A missing file returns
// (nil, nil). An unreadable, malformed, stale, or mismatched document
// returns a cache error; callers treat any error as "no usable cache".
//
// model and dims fingerprint the expected embedding space. A zero dims
// skips the dimensionality check, for providers whose dimensionality
// is only known after the first request.
func (c *PersistentCache) Load(model string, dims int) (*CacheDocument, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, recallerrors.CacheError(recallerrors.ErrCodeCacheRead,
			"failed to read cache document", err)
	}

	var doc CacheDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, recallerrors.CacheError(recallerrors.ErrCodeCacheInvalid,
			"cache document is not valid JSON", err)
	}

	if doc.Version != CacheVersion {
		return nil, recallerrors.CacheError(recallerrors.ErrCodeCacheInvalid,
			fmt.Sprintf("cache version %d does not match %d", doc.Version, CacheVersion), nil)
	}
	built := time.UnixMilli(doc.LastBuilt)
	if doc.LastBuilt <= 0 || time.Since(built) > c.staleness {
		return nil, recallerrors.CacheError(recallerrors.ErrCodeCacheInvalid,
			fmt.Sprintf("cache built %s is older than the %s staleness window",
				built.Format(time.RFC3339), c.staleness), nil)
	}
	if model != "" && doc.Model != model {
		return nil, recallerrors.CacheError(recallerrors.ErrCodeCacheInvalid,
			fmt.Sprintf("cache model %q does not match configured model %q", doc.Model, model), nil)
	}
	if dims > 0 && doc.Dimensions != dims {
		return nil, recallerrors.CacheError(recallerrors.ErrCodeCacheInvalid,
			fmt.Sprintf("cache dimensionality %d does not match provider dimensionality %d",
				doc.Dimensions, dims), nil)
	}
	for i, r := range doc.Chunks {
		if r.Embedding.Dimensions != doc.Dimensions || len(r.Embedding.Values) != doc.Dimensions {
			return nil, recallerrors.CacheError(recallerrors.ErrCodeCacheInvalid,
				fmt.Sprintf("cache chunk %d has inconsistent dimensionality", i), nil)
		}
	}

	return &doc, nil
}

// Save writes the document atomically: marshal, write to a temp file
// in the same directory, then rename over the target.
func (c *PersistentCache) Save(doc CacheDocument) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return recallerrors.CacheError(recallerrors.ErrCodeCacheWrite,
			"failed to create cache directory", err)
	}

	if err := c.fl.Lock(); err != nil {
		return recallerrors.CacheError(recallerrors.ErrCodeCacheWrite,
			"failed to acquire cache lock", err)
	}
	defer func() {
		if err := c.fl.Unlock(); err != nil {
			slog.Warn("failed to release cache lock", slog.Any("error", err))
		}
	}()

	data, err := json.Marshal(doc)
	if err != nil {
		return recallerrors.CacheError(recallerrors.ErrCodeCacheWrite,
			"failed to encode cache document", err)
	}

	tmp, err := os.CreateTemp(dir, ".index-cache-*.tmp")
	if err != nil {
		return recallerrors.CacheError(recallerrors.ErrCodeCacheWrite,
			"failed to create temp cache file", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return recallerrors.CacheError(recallerrors.ErrCodeCacheWrite,
			"failed to write temp cache file", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return recallerrors.CacheError(recallerrors.ErrCodeCacheWrite,
			"failed to close temp cache file", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		_ = os.Remove(tmpPath)
		return recallerrors.CacheError(recallerrors.ErrCodeCacheWrite,
			"failed to replace cache document", err)
	}
	return nil
}

// Delete removes the cache document. A missing file is not an error.
func (c *PersistentCache) Delete() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return recallerrors.CacheError(recallerrors.ErrCodeCacheWrite,
			"failed to delete cache document", err)
	}
	return nil
}
