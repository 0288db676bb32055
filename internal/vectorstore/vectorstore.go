// Package vectorstore provides interfaces and implementations for vector
// similarity search over the chunk corpus.
package vectorstore

import (
	"context"
	"time"
)

// Metadata is the structured metadata record attached to every chunk.
// Fields absent at ingestion time keep their zero values.
type Metadata struct {
	Category     string
	DocumentType string
	Topics       []string
	Filename     string
	SizeBytes    int64
	WordCount    int
	UploadedAt   time.Time
}

// Chunk is a retrievable unit of indexed text together with its embedding.
// The ID is the canonical chunk identifier assigned at ingestion time and is
// the merge key used by every retrieval path.
type Chunk struct {
	ID       string
	Title    string
	Content  string
	Vector   []float32
	Metadata Metadata
}

// Hit is a single nearest-neighbor result. Distance is the cosine distance
// (1 - cosine similarity); lower means closer.
type Hit struct {
	ID       string
	Title    string
	Content  string
	Metadata Metadata
	Distance float64
}

// StoredChunk is a chunk as returned by a full corpus listing. Vectors are
// omitted; the lexical path only needs text and metadata.
type StoredChunk struct {
	ID       string
	Title    string
	Content  string
	Metadata Metadata
}

// VectorStore defines the operations the search core consumes from a vector
// database.
type VectorStore interface {
	// EnsureCollection creates the chunk collection if it does not exist.
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert inserts or updates chunks.
	Upsert(ctx context.Context, chunks []Chunk) error

	// NearestNeighbors returns the k chunks closest to the query vector,
	// ordered by ascending distance.
	NearestNeighbors(ctx context.Context, vector []float32, k int) ([]Hit, error)

	// ListAll returns a snapshot of every chunk in the collection. The
	// lexical retriever rescans this snapshot per query, so implementations
	// only need to support small to medium corpora.
	ListAll(ctx context.Context) ([]StoredChunk, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (uint64, error)
}
