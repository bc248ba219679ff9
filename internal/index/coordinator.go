// Package index orchestrates the retrieval index: full rebuilds,
// incremental per-note updates, debounced cache persistence, and
// query-time retrieval with error containment.
package index

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/notewell/recall/internal/chunk"
	"github.com/notewell/recall/internal/config"
	"github.com/notewell/recall/internal/embed"
	recallerrors "github.com/notewell/recall/internal/errors"
	"github.com/notewell/recall/internal/store"
	"github.com/notewell/recall/internal/vault"
	"github.com/notewell/recall/internal/watcher"
)

// State is the coordinator lifecycle state.
type State int32

const (
	// StateEmpty means no index contents are available.
	StateEmpty State = iota
	// StateInitializing means a full rebuild is running.
	StateInitializing
	// StateBuilt means the index is ready to serve queries.
	StateBuilt
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateInitializing:
		return "initializing"
	case StateBuilt:
		return "built"
	default:
		return "unknown"
	}
}

// Notification reports an index lifecycle change to the host.
type Notification struct {
	// Kind is one of "built", "updated", "removed", "cleared".
	Kind string
	// SourceID is the affected note for updated/removed, empty otherwise.
	SourceID string
	// Chunks is the number of chunks involved.
	Chunks int
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithNotifier registers a callback invoked after index mutations. The
// callback runs on the mutating goroutine and must not block.
func WithNotifier(fn func(Notification)) Option {
	return func(c *Coordinator) { c.notify = fn }
}

// Coordinator owns the vector index. Every mutation goes through its
// operation mutex, so no two read-modify-write sequences interleave;
// collaborators interact only through method calls and the injected
// event channel.
type Coordinator struct {
	vault    *vault.Vault
	chunker  *chunk.Chunker
	provider embed.Provider
	idx      *store.Index
	cache    *store.PersistentCache

	topK         int
	batchSize    int
	saveDebounce time.Duration

	opMu       sync.Mutex
	state      atomic.Int32
	rebuilding atomic.Bool

	timerMu   sync.Mutex
	saveTimer *time.Timer

	buildGroup singleflight.Group
	notify     func(Notification)
}

// New creates a coordinator for the given vault and provider.
func New(cfg *config.Config, v *vault.Vault, provider embed.Provider, opts ...Option) (*Coordinator, error) {
	chunker, err := chunk.NewChunker(cfg.Chunking.SizeTokens, cfg.Chunking.OverlapTokens)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		vault:        v,
		chunker:      chunker,
		provider:     provider,
		idx:          store.NewIndex(),
		cache:        store.NewPersistentCache(cfg.CachePath(), cfg.StalenessWindow()),
		topK:         cfg.Retrieval.TopK,
		batchSize:    cfg.Indexing.BatchSize,
		saveDebounce: cfg.SaveDebounce(),
	}
	if c.topK <= 0 {
		c.topK = 3
	}
	if c.batchSize <= 0 {
		c.batchSize = 10
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Stats summarizes the current index contents.
func (c *Coordinator) Stats() store.Stats {
	return c.idx.Stats()
}

// BuildIndex makes the index ready. Without force it first tries to
// hydrate from the persisted cache; a usable cache document is adopted
// verbatim with no embedding calls. Otherwise the vault is re-indexed
// in document batches and the result is persisted synchronously.
//
// A provider failure aborts the rebuild and propagates; the index is
// left with whatever the rebuild reached and the state returns to
// empty so the next call starts over.
func (c *Coordinator) BuildIndex(ctx context.Context, force bool) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if !force && c.State() == StateBuilt {
		return nil
	}

	if !force {
		doc, err := c.cache.Load(c.provider.ModelName(), 0)
		if err != nil {
			slog.Warn("ignoring unusable index cache", slog.Any("error", err))
		}
		if doc != nil {
			c.idx.Replace(*doc)
			c.state.Store(int32(StateBuilt))
			slog.Info("index hydrated from cache",
				slog.Int("chunks", len(doc.Chunks)),
				slog.String("model", doc.Model))
			c.emit(Notification{Kind: "built", Chunks: len(doc.Chunks)})
			return nil
		}
	}

	return c.rebuild(ctx)
}

func (c *Coordinator) rebuild(ctx context.Context) error {
	c.state.Store(int32(StateInitializing))
	c.rebuilding.Store(true)
	defer c.rebuilding.Store(false)

	started := time.Now()
	c.idx.Clear()

	docs, err := c.vault.Documents()
	if err != nil {
		c.state.Store(int32(StateEmpty))
		return err
	}

	total := 0
	for start := 0; start < len(docs); start += c.batchSize {
		end := start + c.batchSize
		if end > len(docs) {
			end = len(docs)
		}

		records, err := c.indexBatch(ctx, docs[start:end])
		if err != nil {
			c.state.Store(int32(StateEmpty))
			return err
		}
		if err := c.idx.AddChunks(records); err != nil {
			c.state.Store(int32(StateEmpty))
			return err
		}
		total += len(records)
	}

	c.idx.SetMetadata(c.provider.ModelName(), time.Now())
	c.state.Store(int32(StateBuilt))

	// Synchronous save, outside the debounce path. The cache's own
	// lock keeps it from racing a pending debounced save.
	if err := c.cache.Save(c.idx.Snapshot()); err != nil {
		slog.Warn("failed to persist rebuilt index", slog.Any("error", err))
	}

	slog.Info("index rebuilt",
		slog.Int("documents", len(docs)),
		slog.Int("chunks", total),
		slog.Duration("elapsed", time.Since(started)))
	c.emit(Notification{Kind: "built", Chunks: total})
	return nil
}

// indexBatch chunks a batch of documents and embeds all their chunk
// texts in one provider call, attaching vectors in call order.
func (c *Coordinator) indexBatch(ctx context.Context, docs []vault.Document) ([]store.ChunkRecord, error) {
	var records []store.ChunkRecord
	var texts []string

	for _, doc := range docs {
		content, err := doc.Load()
		if err != nil {
			slog.Warn("skipping unreadable note",
				slog.String("source", doc.ID), slog.Any("error", err))
			continue
		}
		for _, piece := range c.chunker.Split(content) {
			records = append(records, store.ChunkRecord{
				SourceID:     doc.ID,
				ChunkIndex:   piece.ChunkIndex,
				Text:         piece.Text,
				LastModified: doc.ModTime.UnixMilli(),
				TokenCount:   piece.TokenCount,
			})
			texts = append(texts, piece.Text)
		}
	}
	if len(texts) == 0 {
		return nil, nil
	}

	vecs, err := c.provider.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(records) {
		return nil, recallerrors.New(recallerrors.ErrCodeProviderResponse,
			"embedding count does not match chunk count", nil)
	}
	for i := range records {
		records[i].Embedding = vecs[i]
	}
	return records, nil
}

// UpdateSource re-indexes one note: its old chunks are replaced by
// freshly chunked and embedded content, and a debounced cache save is
// scheduled. The call is a no-op while a full rebuild is running, and
// when the indexed copy is at least as new as the note on disk.
func (c *Coordinator) UpdateSource(ctx context.Context, doc vault.Document) error {
	if c.rebuilding.Load() {
		slog.Debug("skipping update during rebuild", slog.String("source", doc.ID))
		return nil
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	if lm, ok := c.idx.SourceLastModified(doc.ID); ok && lm >= doc.ModTime.UnixMilli() {
		return nil
	}

	content, err := doc.Load()
	if err != nil {
		return err
	}

	removed := c.idx.RemoveBySource(doc.ID)

	pieces := c.chunker.Split(content)
	if len(pieces) == 0 {
		if removed > 0 {
			c.scheduleCacheSave()
		}
		return nil
	}

	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.Text
	}
	vecs, err := c.provider.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}

	records := make([]store.ChunkRecord, len(pieces))
	for i, p := range pieces {
		records[i] = store.ChunkRecord{
			SourceID:     doc.ID,
			ChunkIndex:   p.ChunkIndex,
			Text:         p.Text,
			Embedding:    vecs[i],
			LastModified: doc.ModTime.UnixMilli(),
			TokenCount:   p.TokenCount,
		}
	}
	if err := c.idx.AddChunks(records); err != nil {
		return err
	}

	c.scheduleCacheSave()
	slog.Debug("source updated",
		slog.String("source", doc.ID), slog.Int("chunks", len(records)))
	c.emit(Notification{Kind: "updated", SourceID: doc.ID, Chunks: len(records)})
	return nil
}

// RemoveSource drops all chunks for a note. A debounced cache save is
// scheduled only when something was actually removed.
func (c *Coordinator) RemoveSource(sourceID string) int {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	removed := c.idx.RemoveBySource(sourceID)
	if removed > 0 {
		c.scheduleCacheSave()
		slog.Debug("source removed",
			slog.String("source", sourceID), slog.Int("chunks", removed))
		c.emit(Notification{Kind: "removed", SourceID: sourceID, Chunks: removed})
	}
	return removed
}

// RetrieveContext returns up to topK formatted context entries for the
// query. The index is built lazily on first use; concurrent callers
// share one build. This method never fails: any error along the way
// degrades to an empty result, because retrieval sits on an
// interactive path that must stay responsive.
func (c *Coordinator) RetrieveContext(ctx context.Context, query string) []string {
	if c.State() != StateBuilt {
		_, err, _ := c.buildGroup.Do("build", func() (any, error) {
			return nil, c.BuildIndex(ctx, false)
		})
		if err != nil {
			slog.Warn("retrieval unavailable, index build failed", slog.Any("error", err))
			return nil
		}
	}

	qvec, err := c.provider.Embed(ctx, query)
	if err != nil {
		slog.Warn("retrieval degraded, query embedding failed", slog.Any("error", err))
		return nil
	}

	entries, err := c.idx.Query(qvec, c.topK)
	if err != nil {
		slog.Warn("retrieval degraded, index query failed", slog.Any("error", err))
		return nil
	}

	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Formatted()
	}
	return out
}

// ClearIndex cancels any pending save, empties the index, deletes the
// persisted cache document, and resets the state to empty.
func (c *Coordinator) ClearIndex() error {
	c.cancelPendingSave()

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.idx.Clear()
	c.state.Store(int32(StateEmpty))
	if err := c.cache.Delete(); err != nil {
		return err
	}
	c.emit(Notification{Kind: "cleared"})
	return nil
}

// Flush persists any pending debounced save immediately. Intended for
// shutdown paths.
func (c *Coordinator) Flush() {
	c.timerMu.Lock()
	pending := c.saveTimer != nil && c.saveTimer.Stop()
	c.saveTimer = nil
	c.timerMu.Unlock()

	if pending {
		c.saveNow()
	}
}

// scheduleCacheSave arms the debounced save. A call within the window
// restarts the timer, so a burst of updates produces one write.
func (c *Coordinator) scheduleCacheSave() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()

	if c.saveTimer != nil {
		c.saveTimer.Stop()
	}
	c.saveTimer = time.AfterFunc(c.saveDebounce, c.saveNow)
}

func (c *Coordinator) cancelPendingSave() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()

	if c.saveTimer != nil {
		c.saveTimer.Stop()
		c.saveTimer = nil
	}
}

func (c *Coordinator) saveNow() {
	if err := c.cache.Save(c.idx.Snapshot()); err != nil {
		slog.Warn("debounced cache save failed", slog.Any("error", err))
	}
}

func (c *Coordinator) emit(n Notification) {
	if c.notify != nil {
		c.notify(n)
	}
}

// HandleEvents consumes debounced note events until the channel closes
// or the context is cancelled. Creates and modifications re-index the
// note; deletions and renames drop it (a rename's new path arrives as
// its own create event).
func (c *Coordinator) HandleEvents(ctx context.Context, events <-chan []watcher.FileEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-events:
			if !ok {
				return
			}
			for _, ev := range batch {
				c.handleEvent(ctx, ev)
			}
		}
	}
}

func (c *Coordinator) handleEvent(ctx context.Context, ev watcher.FileEvent) {
	switch ev.Operation {
	case watcher.OpCreate, watcher.OpModify:
		doc, ok := c.vault.Lookup(ev.Path)
		if !ok {
			// The note vanished between the event and now.
			if id, err := c.vault.SourceID(ev.Path); err == nil {
				c.RemoveSource(id)
			}
			return
		}
		if err := c.UpdateSource(ctx, doc); err != nil {
			slog.Warn("failed to update note",
				slog.String("path", ev.Path), slog.Any("error", err))
		}
	case watcher.OpDelete, watcher.OpRename:
		id, err := c.vault.SourceID(ev.Path)
		if err != nil {
			return
		}
		c.RemoveSource(id)
	}
}
