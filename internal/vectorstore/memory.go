package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore is a brute-force in-memory vector store used for development
// and tests. It keeps chunks in insertion order so listings are
// deterministic.
type MemoryStore struct {
	mu     sync.RWMutex
	order  []string
	chunks map[string]Chunk
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chunks: make(map[string]Chunk),
	}
}

// EnsureCollection is a no-op for the in-memory store.
func (s *MemoryStore) EnsureCollection(ctx context.Context, dimension int) error {
	return nil
}

// Upsert inserts or updates chunks.
func (s *MemoryStore) Upsert(ctx context.Context, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		if _, exists := s.chunks[chunk.ID]; !exists {
			s.order = append(s.order, chunk.ID)
		}
		s.chunks[chunk.ID] = chunk
	}
	return nil
}

// NearestNeighbors scans every chunk and returns the k closest by cosine
// distance. Ties keep insertion order.
func (s *MemoryStore) NearestNeighbors(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]Hit, 0, len(s.order))
	for _, id := range s.order {
		chunk := s.chunks[id]
		hits = append(hits, Hit{
			ID:       chunk.ID,
			Title:    chunk.Title,
			Content:  chunk.Content,
			Metadata: chunk.Metadata,
			Distance: 1 - cosineSimilarity(vector, chunk.Vector),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// ListAll returns every chunk in insertion order.
func (s *MemoryStore) ListAll(ctx context.Context) ([]StoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := make([]StoredChunk, 0, len(s.order))
	for _, id := range s.order {
		chunk := s.chunks[id]
		chunks = append(chunks, StoredChunk{
			ID:       chunk.ID,
			Title:    chunk.Title,
			Content:  chunk.Content,
			Metadata: chunk.Metadata,
		})
	}
	return chunks, nil
}

// Count returns the number of stored chunks.
func (s *MemoryStore) Count(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.chunks)), nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Ensure MemoryStore implements VectorStore.
var _ VectorStore = (*MemoryStore)(nil)
