package service

import (
	"context"
	"errors"
	"testing"

	"github.com/knoguchi/kbsearch/internal/vectorstore"
)

func TestEnsureSeeded_PopulatesEmptyStore(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	seeder := NewSeeder(&stubEmbedder{vector: []float32{1, 0, 0}}, store, discardLogger())

	if err := seeder.EnsureSeeded(context.Background()); err != nil {
		t.Fatalf("EnsureSeeded: %v", err)
	}

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if int(count) != len(seedCorpus) {
		t.Fatalf("count = %d, want %d", count, len(seedCorpus))
	}

	chunks, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	for i, chunk := range chunks {
		doc := seedCorpus[i]
		if chunk.Title != doc.Title {
			t.Errorf("chunk %d title = %q, want %q", i, chunk.Title, doc.Title)
		}
		if chunk.Metadata.Category != doc.Category {
			t.Errorf("chunk %d category = %q, want %q", i, chunk.Metadata.Category, doc.Category)
		}
		if chunk.Metadata.WordCount == 0 {
			t.Errorf("chunk %d has zero word count", i)
		}
		if chunk.Metadata.UploadedAt.IsZero() {
			t.Errorf("chunk %d has zero upload time", i)
		}
	}
}

func TestEnsureSeeded_StableChunkIDs(t *testing.T) {
	ids := func() map[string]bool {
		store := vectorstore.NewMemoryStore()
		seeder := NewSeeder(&stubEmbedder{vector: []float32{1, 0, 0}}, store, discardLogger())
		if err := seeder.EnsureSeeded(context.Background()); err != nil {
			t.Fatalf("EnsureSeeded: %v", err)
		}
		chunks, err := store.ListAll(context.Background())
		if err != nil {
			t.Fatalf("ListAll: %v", err)
		}
		set := make(map[string]bool, len(chunks))
		for _, c := range chunks {
			set[c.ID] = true
		}
		return set
	}

	first, second := ids(), ids()
	if len(first) != len(seedCorpus) {
		t.Fatalf("got %d distinct IDs, want %d", len(first), len(seedCorpus))
	}
	for id := range first {
		if !second[id] {
			t.Errorf("chunk ID %s not reproduced on a second seeding", id)
		}
	}
}

func TestEnsureSeeded_SkipsPopulatedStore(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	emb := &stubEmbedder{vector: []float32{1, 0, 0}}
	seeder := NewSeeder(emb, store, discardLogger())

	if err := seeder.EnsureSeeded(context.Background()); err != nil {
		t.Fatalf("first EnsureSeeded: %v", err)
	}
	if err := seeder.EnsureSeeded(context.Background()); err != nil {
		t.Fatalf("second EnsureSeeded: %v", err)
	}

	if emb.batchCalls != 1 {
		t.Errorf("embed batch called %d times, want 1 (second run must skip)", emb.batchCalls)
	}
	count, _ := store.Count(context.Background())
	if int(count) != len(seedCorpus) {
		t.Errorf("count = %d after reseeding, want %d", count, len(seedCorpus))
	}
}

func TestEnsureSeeded_EmbedderError(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	seeder := NewSeeder(&stubEmbedder{err: errEmbedderDown}, store, discardLogger())

	err := seeder.EnsureSeeded(context.Background())
	if !errors.Is(err, errEmbedderDown) {
		t.Fatalf("err = %v, want wrapped embedder error", err)
	}

	count, _ := store.Count(context.Background())
	if count != 0 {
		t.Errorf("count = %d after failed seeding, want 0", count)
	}
}
