// Package store holds the in-memory vector index and its persistent
// JSON cache document.
package store

import (
	"time"

	"github.com/notewell/recall/internal/vector"
)

// CacheVersion is the cache document schema version. A document with a
// different version is discarded and triggers a rebuild.
const CacheVersion = 1

// ChunkRecord is one embedded chunk as held in the index and serialized
// into the cache document.
type ChunkRecord struct {
	// SourceID identifies the originating note, relative to the vault root.
	SourceID string `json:"sourceId"`
	// ChunkIndex is the chunk's position within its source.
	ChunkIndex int `json:"chunkIndex"`
	// Text is the chunk text.
	Text string `json:"text"`
	// Embedding is the chunk's embedding vector.
	Embedding vector.Vector `json:"embedding"`
	// LastModified is the source's modification time, epoch milliseconds.
	LastModified int64 `json:"lastModified"`
	// TokenCount is the chunk's approximate token count.
	TokenCount int `json:"tokenCount"`
}

// CacheDocument is the on-disk shape of the persisted index.
type CacheDocument struct {
	Version    int           `json:"version"`
	LastBuilt  int64         `json:"lastBuilt"`
	Model      string        `json:"model"`
	Dimensions int           `json:"dimensions"`
	Chunks     []ChunkRecord `json:"chunks"`
}

// ContextEntry is one retrieved result: the best-scoring chunk of a
// source, formatted for prompt inclusion.
type ContextEntry struct {
	SourceID string
	Text     string
	Score    float64
}

// Stats summarizes the index contents.
type Stats struct {
	Sources    int
	Chunks     int
	Dimensions int
	Model      string
	LastBuilt  time.Time
}
