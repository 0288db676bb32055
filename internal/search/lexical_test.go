package search

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/knoguchi/kbsearch/internal/query"
	"github.com/knoguchi/kbsearch/internal/vectorstore"
)

func mustAnalyze(t *testing.T, q string) *query.Context {
	t.Helper()
	qc, err := query.Analyze(q)
	if err != nil {
		t.Fatalf("Analyze(%q): %v", q, err)
	}
	return qc
}

func TestLexicalRetriever_BM25SingleTermAtAverageLength(t *testing.T) {
	// A 200-token document containing the term exactly once scores
	// 1*(k1+1) / (1 + k1*(1 - b + b*(200/200))) = 2.5 / 2.5 = 1.0.
	tokens := make([]string, 200)
	for i := range tokens {
		tokens[i] = "filler"
	}
	tokens[0] = "slotting"
	content := strings.Join(tokens, " ")

	store := &stubStore{chunks: []vectorstore.StoredChunk{
		{ID: "a", Content: content},
	}}
	retriever := NewLexicalRetriever(store)

	candidates, err := retriever.Retrieve(context.Background(), mustAnalyze(t, "slotting"), 10)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if math.Abs(candidates[0].Score-1.0) > 1e-9 {
		t.Errorf("expected BM25 score 1.0, got %v", candidates[0].Score)
	}
}

func TestLexicalRetriever_DropsZeroScores(t *testing.T) {
	store := &stubStore{chunks: []vectorstore.StoredChunk{
		{ID: "match", Content: "pallet racking layout"},
		{ID: "miss", Content: "unrelated text about nothing"},
	}}
	retriever := NewLexicalRetriever(store)

	candidates, err := retriever.Retrieve(context.Background(), mustAnalyze(t, "pallet"), 10)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected only the matching chunk, got %d candidates", len(candidates))
	}
	if candidates[0].ID != "match" {
		t.Errorf("expected chunk 'match', got %q", candidates[0].ID)
	}
}

func TestLexicalRetriever_OrdersAndTruncates(t *testing.T) {
	store := &stubStore{chunks: []vectorstore.StoredChunk{
		{ID: "once", Content: "pallet storage here plus several other filler words"},
		{ID: "thrice", Content: "pallet pallet pallet storage and more filler words"},
		{ID: "twice", Content: "pallet and pallet again with extra filler words here"},
	}}
	retriever := NewLexicalRetriever(store)

	candidates, err := retriever.Retrieve(context.Background(), mustAnalyze(t, "pallet"), 2)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected truncation to 2 candidates, got %d", len(candidates))
	}
	if candidates[0].ID != "thrice" || candidates[1].ID != "twice" {
		t.Errorf("expected [thrice twice], got [%s %s]", candidates[0].ID, candidates[1].ID)
	}
	if candidates[0].Score < candidates[1].Score {
		t.Errorf("candidates not in descending score order")
	}
}

func TestLexicalRetriever_ExpansionTermsScore(t *testing.T) {
	// "inventory" expands to "stock"; a chunk containing only "stock"
	// should still score.
	store := &stubStore{chunks: []vectorstore.StoredChunk{
		{ID: "syn", Content: "stock levels are reviewed weekly by the team"},
	}}
	retriever := NewLexicalRetriever(store)

	candidates, err := retriever.Retrieve(context.Background(), mustAnalyze(t, "inventory"), 10)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected synonym match, got %d candidates", len(candidates))
	}
}

func TestLexicalRetriever_Highlights(t *testing.T) {
	content := "Warehouses use pallet racking to store goods at height, and pallet jacks to move loads."
	store := &stubStore{chunks: []vectorstore.StoredChunk{
		{ID: "a", Content: content},
	}}
	retriever := NewLexicalRetriever(store)

	candidates, err := retriever.Retrieve(context.Background(), mustAnalyze(t, "pallet"), 10)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}

	highlights := candidates[0].Highlights
	if len(highlights) != 1 {
		t.Fatalf("expected 1 highlight, got %d: %v", len(highlights), highlights)
	}
	if !strings.Contains(highlights[0], "**pallet**") {
		t.Errorf("highlight does not mark the matched span: %q", highlights[0])
	}
	// Only the first occurrence is marked.
	if strings.Count(highlights[0], "**") != 2 {
		t.Errorf("expected a single marked span, got %q", highlights[0])
	}
}

func TestLexicalRetriever_HighlightLimit(t *testing.T) {
	content := "inventory stock supplies audit tally and more inventory words to pad things out"
	store := &stubStore{chunks: []vectorstore.StoredChunk{
		{ID: "a", Content: content},
	}}
	retriever := NewLexicalRetriever(store)

	// "inventory count" yields terms inventory, count, stock, supplies,
	// audit, tally; at most 3 of those present become snippets.
	candidates, err := retriever.Retrieve(context.Background(), mustAnalyze(t, "inventory count"), 10)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(candidates[0].Highlights) != 3 {
		t.Errorf("expected 3 highlights, got %d", len(candidates[0].Highlights))
	}
}

func TestLexicalRetriever_HighlightsMultibyteContent(t *testing.T) {
	// Runes whose lowercase form has a different byte length ("İ" 2→3,
	// "Ⱥ" 2→3) must not shift or corrupt the marked span.
	store := &stubStore{chunks: []vectorstore.StoredChunk{
		{ID: "dotted", Content: "İİİİ fifo rotates stock daily"},
		{ID: "stroke", Content: "ȺȺȺȺ fifo rotates stock daily"},
	}}
	retriever := NewLexicalRetriever(store)

	candidates, err := retriever.Retrieve(context.Background(), mustAnalyze(t, "fifo"), 10)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}

	for _, c := range candidates {
		if len(c.Highlights) != 1 {
			t.Fatalf("%s: expected 1 highlight, got %v", c.ID, c.Highlights)
		}
		if !strings.Contains(c.Highlights[0], "**fifo**") {
			t.Errorf("%s: highlight marks the wrong span: %q", c.ID, c.Highlights[0])
		}
		if !utf8.ValidString(c.Highlights[0]) {
			t.Errorf("%s: highlight is not valid UTF-8: %q", c.ID, c.Highlights[0])
		}
	}
}

func TestLexicalRetriever_HighlightsPreserveOriginalCase(t *testing.T) {
	store := &stubStore{chunks: []vectorstore.StoredChunk{
		{ID: "a", Content: "Teams use FIFO for stock rotation on every shift"},
	}}
	retriever := NewLexicalRetriever(store)

	candidates, err := retriever.Retrieve(context.Background(), mustAnalyze(t, "fifo"), 10)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if !strings.Contains(candidates[0].Highlights[0], "**FIFO**") {
		t.Errorf("highlight should keep the content's casing: %q", candidates[0].Highlights[0])
	}
}

func TestLexicalRetriever_HighlightWindowStaysOnRuneBoundaries(t *testing.T) {
	// Multibyte runes on both sides of the match put the 50-byte window
	// edges inside a rune; the snippet must still be valid UTF-8.
	content := strings.Repeat("Ⱥ", 30) + " fifo " + strings.Repeat("Ⱥ", 30)
	store := &stubStore{chunks: []vectorstore.StoredChunk{
		{ID: "a", Content: content},
	}}
	retriever := NewLexicalRetriever(store)

	candidates, err := retriever.Retrieve(context.Background(), mustAnalyze(t, "fifo"), 10)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}

	snippet := candidates[0].Highlights[0]
	if !utf8.ValidString(snippet) {
		t.Errorf("window edges split a rune: %q", snippet)
	}
	if !strings.Contains(snippet, "**fifo**") {
		t.Errorf("highlight marks the wrong span: %q", snippet)
	}
}

func TestLexicalRetriever_StoreError(t *testing.T) {
	retriever := NewLexicalRetriever(&stubStore{err: errBackendDown})

	_, err := retriever.Retrieve(context.Background(), mustAnalyze(t, "pallet"), 10)
	if !errors.Is(err, errBackendDown) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
