package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	recallerrors "github.com/notewell/recall/internal/errors"
	"github.com/notewell/recall/internal/vector"
)

func record(source string, idx int, text string, values ...float32) ChunkRecord {
	return ChunkRecord{
		SourceID:     source,
		ChunkIndex:   idx,
		Text:         text,
		Embedding:    vector.New(values),
		LastModified: 1000,
		TokenCount:   len(text) / 4,
	}
}

func TestAddChunks_FixesDimensionsOnFirstInsert(t *testing.T) {
	x := NewIndex()

	require.NoError(t, x.AddChunks([]ChunkRecord{record("a.md", 0, "alpha", 1, 0, 0)}))

	err := x.AddChunks([]ChunkRecord{record("b.md", 0, "beta", 1, 0)})
	require.Error(t, err)
	assert.True(t, recallerrors.IsCode(err, recallerrors.ErrCodeDimensionMismatch))

	// The failed insert must not change the index.
	assert.Equal(t, 1, x.Stats().Chunks)
}

func TestAddChunks_MismatchWithinBatchInsertsNothing(t *testing.T) {
	x := NewIndex()

	err := x.AddChunks([]ChunkRecord{
		record("a.md", 0, "alpha", 1, 0, 0),
		record("a.md", 1, "beta", 1, 0),
	})
	require.Error(t, err)
	assert.Zero(t, x.Stats().Chunks)
}

func TestRemoveBySource_ReturnsCount(t *testing.T) {
	x := NewIndex()
	require.NoError(t, x.AddChunks([]ChunkRecord{
		record("a.md", 0, "one", 1, 0),
		record("a.md", 1, "two", 0, 1),
		record("b.md", 0, "three", 1, 1),
	}))

	assert.Equal(t, 2, x.RemoveBySource("a.md"))
	assert.Equal(t, 0, x.RemoveBySource("a.md"))
	assert.Equal(t, []string{"b.md"}, x.Sources())
}

func TestQuery_RanksByCosineSimilarity(t *testing.T) {
	x := NewIndex()
	require.NoError(t, x.AddChunks([]ChunkRecord{
		record("far.md", 0, "far", 0, 1),
		record("near.md", 0, "near", 1, 0),
		record("mid.md", 0, "mid", 1, 1),
	}))

	entries, err := x.Query(vector.New([]float32{1, 0}), 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "near.md", entries[0].SourceID)
	assert.Equal(t, "mid.md", entries[1].SourceID)
	assert.Equal(t, "far.md", entries[2].SourceID)
	assert.Greater(t, entries[0].Score, entries[1].Score)
}

func TestQuery_DeduplicatesPerSourceKeepingBestChunk(t *testing.T) {
	x := NewIndex()
	require.NoError(t, x.AddChunks([]ChunkRecord{
		record("notes.md", 0, "weak match", 0, 1),
		record("notes.md", 1, "strong match", 1, 0),
		record("other.md", 0, "other", 1, 1),
	}))

	entries, err := x.Query(vector.New([]float32{1, 0}), 3)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "notes.md", entries[0].SourceID)
	assert.Equal(t, "strong match", entries[0].Text)
	assert.Equal(t, "other.md", entries[1].SourceID)
}

func TestQuery_TiesKeepInsertionOrder(t *testing.T) {
	x := NewIndex()
	require.NoError(t, x.AddChunks([]ChunkRecord{
		record("first.md", 0, "same direction", 2, 0),
		record("second.md", 0, "same direction scaled", 4, 0),
	}))

	entries, err := x.Query(vector.New([]float32{1, 0}), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first.md", entries[0].SourceID)
	assert.Equal(t, "second.md", entries[1].SourceID)
}

func TestQuery_TopKLimitsResults(t *testing.T) {
	x := NewIndex()
	require.NoError(t, x.AddChunks([]ChunkRecord{
		record("a.md", 0, "a", 1, 0),
		record("b.md", 0, "b", 0.9, 0.1),
		record("c.md", 0, "c", 0.8, 0.2),
	}))

	entries, err := x.Query(vector.New([]float32{1, 0}), 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = x.Query(vector.New([]float32{1, 0}), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestQuery_EmptyIndexReturnsNoEntries(t *testing.T) {
	entries, err := NewIndex().Query(vector.New([]float32{1, 0}), 3)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestQuery_DimensionMismatchFails(t *testing.T) {
	x := NewIndex()
	require.NoError(t, x.AddChunks([]ChunkRecord{record("a.md", 0, "a", 1, 0, 0)}))

	_, err := x.Query(vector.New([]float32{1, 0}), 3)
	require.Error(t, err)
	assert.True(t, recallerrors.IsCode(err, recallerrors.ErrCodeDimensionMismatch))
}

func TestFormatted_QuotesSourceAndAppendsText(t *testing.T) {
	e := ContextEntry{SourceID: "daily/2026-08-25.md", Text: "Standup at nine."}
	assert.Equal(t, "From \"daily/2026-08-25.md\":\nStandup at nine.", e.Formatted())
}

func TestSnapshotReplace_RoundTrip(t *testing.T) {
	x := NewIndex()
	require.NoError(t, x.AddChunks([]ChunkRecord{
		record("a.md", 0, "alpha", 1, 0),
		record("b.md", 0, "beta", 0, 1),
	}))
	built := time.Now().Truncate(time.Millisecond)
	x.SetMetadata("test-model", built)

	doc := x.Snapshot()
	assert.Equal(t, CacheVersion, doc.Version)
	assert.Equal(t, "test-model", doc.Model)
	assert.Equal(t, 2, doc.Dimensions)
	assert.Len(t, doc.Chunks, 2)

	y := NewIndex()
	y.Replace(doc)

	stats := y.Stats()
	assert.Equal(t, 2, stats.Sources)
	assert.Equal(t, 2, stats.Chunks)
	assert.Equal(t, "test-model", stats.Model)
	assert.Equal(t, built.UnixMilli(), stats.LastBuilt.UnixMilli())
}

func TestClear_ResetsDimensions(t *testing.T) {
	x := NewIndex()
	require.NoError(t, x.AddChunks([]ChunkRecord{record("a.md", 0, "a", 1, 0, 0)}))

	x.Clear()
	assert.Zero(t, x.Stats().Chunks)

	// A different dimensionality is accepted after a clear.
	require.NoError(t, x.AddChunks([]ChunkRecord{record("b.md", 0, "b", 1, 0)}))
}
