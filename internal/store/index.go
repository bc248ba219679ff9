package store

import (
	"sort"
	"sync"
	"time"

	recallerrors "github.com/notewell/recall/internal/errors"
	"github.com/notewell/recall/internal/vector"
)

// Index is the in-memory vector index: a flat list of embedded chunks
// queried by exact cosine similarity. All access goes through the
// embedded mutex; the coordinator is the only writer.
type Index struct {
	mu     sync.RWMutex
	chunks []ChunkRecord
	dims   int

	model     string
	lastBuilt time.Time
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{}
}

// AddChunks appends records to the index. Every embedding must match
// the index dimensionality, which is fixed by the first insert. On a
// mismatch nothing is inserted.
func (x *Index) AddChunks(records []ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	dims := x.dims
	if dims == 0 {
		dims = records[0].Embedding.Dimensions
	}
	for _, r := range records {
		if r.Embedding.Dimensions != dims {
			return recallerrors.DimensionMismatch(dims, r.Embedding.Dimensions)
		}
	}

	x.dims = dims
	x.chunks = append(x.chunks, records...)
	return nil
}

// RemoveBySource removes every chunk belonging to sourceID and returns
// the number removed.
func (x *Index) RemoveBySource(sourceID string) int {
	x.mu.Lock()
	defer x.mu.Unlock()

	kept := x.chunks[:0]
	removed := 0
	for _, r := range x.chunks {
		if r.SourceID == sourceID {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	x.chunks = kept
	return removed
}

// SourceLastModified returns the recorded modification time for a
// source, or false when the source is not indexed.
func (x *Index) SourceLastModified(sourceID string) (int64, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	for _, r := range x.chunks {
		if r.SourceID == sourceID {
			return r.LastModified, true
		}
	}
	return 0, false
}

// Sources returns the distinct source IDs currently indexed.
func (x *Index) Sources() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, r := range x.chunks {
		if _, ok := seen[r.SourceID]; ok {
			continue
		}
		seen[r.SourceID] = struct{}{}
		out = append(out, r.SourceID)
	}
	sort.Strings(out)
	return out
}

// Query scores every chunk against the query embedding and returns up
// to topK entries, at most one per source. Chunks of the same score
// keep their insertion order; a source contributes its best chunk.
func (x *Index) Query(query vector.Vector, topK int) ([]ContextEntry, error) {
	if topK <= 0 {
		return nil, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.chunks) == 0 {
		return nil, nil
	}
	if query.Dimensions != x.dims {
		return nil, recallerrors.DimensionMismatch(x.dims, query.Dimensions)
	}

	candidates := make([]vector.Vector, len(x.chunks))
	for i, r := range x.chunks {
		candidates[i] = r.Embedding
	}
	ranked, err := vector.TopK(query, candidates, len(candidates))
	if err != nil {
		return nil, err
	}

	entries := make([]ContextEntry, 0, topK)
	seen := make(map[string]struct{}, topK)
	for _, s := range ranked {
		r := x.chunks[s.Index]
		if _, ok := seen[r.SourceID]; ok {
			continue
		}
		seen[r.SourceID] = struct{}{}
		entries = append(entries, ContextEntry{
			SourceID: r.SourceID,
			Text:     r.Text,
			Score:    s.Score,
		})
		if len(entries) == topK {
			break
		}
	}
	return entries, nil
}

// Stats summarizes the current index contents.
func (x *Index) Stats() Stats {
	x.mu.RLock()
	defer x.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, r := range x.chunks {
		seen[r.SourceID] = struct{}{}
	}
	return Stats{
		Sources:    len(seen),
		Chunks:     len(x.chunks),
		Dimensions: x.dims,
		Model:      x.model,
		LastBuilt:  x.lastBuilt,
	}
}

// SetMetadata records the embedding model and build time shown in
// stats and written to the cache document.
func (x *Index) SetMetadata(model string, lastBuilt time.Time) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.model = model
	x.lastBuilt = lastBuilt
}

// Clear drops all chunks and resets the dimensionality.
func (x *Index) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.chunks = nil
	x.dims = 0
	x.model = ""
	x.lastBuilt = time.Time{}
}

// Snapshot returns the index contents as a cache document.
func (x *Index) Snapshot() CacheDocument {
	x.mu.RLock()
	defer x.mu.RUnlock()

	chunks := make([]ChunkRecord, len(x.chunks))
	copy(chunks, x.chunks)
	return CacheDocument{
		Version:    CacheVersion,
		LastBuilt:  x.lastBuilt.UnixMilli(),
		Model:      x.model,
		Dimensions: x.dims,
		Chunks:     chunks,
	}
}

// Replace swaps the index contents for the given document, as when
// hydrating from a valid cache.
func (x *Index) Replace(doc CacheDocument) {
	chunks := make([]ChunkRecord, len(doc.Chunks))
	copy(chunks, doc.Chunks)

	x.mu.Lock()
	defer x.mu.Unlock()
	x.chunks = chunks
	x.dims = doc.Dimensions
	x.model = doc.Model
	x.lastBuilt = time.UnixMilli(doc.LastBuilt)
}

// Formatted renders the entry for prompt inclusion.
func (e ContextEntry) Formatted() string {
	return "From \"" + e.SourceID + "\":\n" + e.Text
}
