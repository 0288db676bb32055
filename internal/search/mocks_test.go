package search

import (
	"context"
	"errors"

	"github.com/knoguchi/kbsearch/internal/vectorstore"
)

var errBackendDown = errors.New("backend down")

// stubEmbedder returns a fixed vector and records the last embedded text.
type stubEmbedder struct {
	vector   []float32
	err      error
	lastText string
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.lastText = text
	if e.err != nil {
		return nil, e.err
	}
	return e.vector, nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *stubEmbedder) Dimension() int    { return len(e.vector) }
func (e *stubEmbedder) ModelName() string { return "stub" }

// stubStore serves canned hits and chunks, or a configured error.
type stubStore struct {
	hits   []vectorstore.Hit
	chunks []vectorstore.StoredChunk
	err    error
}

func (s *stubStore) EnsureCollection(ctx context.Context, dimension int) error { return s.err }

func (s *stubStore) Upsert(ctx context.Context, chunks []vectorstore.Chunk) error { return s.err }

func (s *stubStore) NearestNeighbors(ctx context.Context, vector []float32, k int) ([]vectorstore.Hit, error) {
	if s.err != nil {
		return nil, s.err
	}
	hits := s.hits
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *stubStore) ListAll(ctx context.Context) ([]vectorstore.StoredChunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.chunks, nil
}

func (s *stubStore) Count(ctx context.Context) (uint64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return uint64(len(s.chunks)), nil
}
