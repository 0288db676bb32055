package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/knoguchi/kbsearch/internal/query"
	"github.com/knoguchi/kbsearch/internal/vectorstore"
)

// BM25 constants. IDF is fixed at 1 (no corpus-wide document-frequency
// weighting) and the average document length is a constant rather than
// corpus-derived; both simplifications are intentional.
const (
	bm25K1        = 1.5
	bm25B         = 0.75
	bm25IDF       = 1.0
	avgDocLen     = 200.0
	maxSnippets   = 3
	snippetWindow = 50
)

// LexicalRetriever scores every chunk in a full corpus snapshot with a
// simplified BM25 formula. Each call is O(corpus size); acceptable for small
// to medium corpora only.
type LexicalRetriever struct {
	store vectorstore.VectorStore
}

// NewLexicalRetriever creates a lexical retriever over the given store.
func NewLexicalRetriever(s vectorstore.VectorStore) *LexicalRetriever {
	return &LexicalRetriever{store: s}
}

// Retrieve returns up to k candidates ordered by descending BM25 score.
// Chunks with a zero score are dropped. Errors from the store are returned
// to the caller; the orchestrator decides whether to degrade.
func (r *LexicalRetriever) Retrieve(ctx context.Context, qc *query.Context, k int) ([]Candidate, error) {
	chunks, err := r.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}

	terms := qc.Terms()

	candidates := make([]Candidate, 0, len(chunks))
	for _, chunk := range chunks {
		score := bm25Score(terms, chunk.Content)
		if score == 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			ID:         chunk.ID,
			Title:      chunk.Title,
			Content:    chunk.Content,
			Metadata:   chunk.Metadata,
			Score:      score,
			Highlights: highlight(chunk.Content, terms),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// bm25Score sums, over the query terms, tf saturation with document-length
// normalization. Term frequency is the raw token count after a lowercase
// whitespace split.
func bm25Score(terms []string, content string) float64 {
	tokens := strings.Fields(strings.ToLower(content))
	if len(tokens) == 0 {
		return 0
	}

	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}

	docLen := float64(len(tokens))
	var score float64
	for _, term := range terms {
		tf := float64(counts[term])
		if tf == 0 {
			continue
		}
		score += bm25IDF * tf * (bm25K1 + 1) /
			(tf + bm25K1*(1-bm25B+bm25B*docLen/avgDocLen))
	}
	return score
}

// highlight extracts a snippet around the first case-insensitive occurrence
// of each of the first few query terms found in the content. The matched span
// is wrapped in "**" markers; window bounds are clamped to rune boundaries so
// snippets stay valid UTF-8.
func highlight(content string, terms []string) []string {
	var snippets []string
	for _, term := range terms {
		if len(snippets) == maxSnippets {
			break
		}
		start, end := foldIndex(content, term)
		if start < 0 {
			continue
		}

		lo := start - snippetWindow
		if lo < 0 {
			lo = 0
		}
		for lo > 0 && !utf8.RuneStart(content[lo]) {
			lo--
		}
		hi := end + snippetWindow
		if hi > len(content) {
			hi = len(content)
		}
		for hi < len(content) && !utf8.RuneStart(content[hi]) {
			hi++
		}

		snippet := content[lo:start] + "**" + content[start:end] + "**" + content[end:hi]
		snippets = append(snippets, snippet)
	}
	return snippets
}

// foldIndex returns the byte span [start, end) in s of the first
// case-insensitive occurrence of term, or (-1, -1). Offsets are into s
// itself, so matches stay aligned even where lowercasing changes a rune's
// byte length.
func foldIndex(s, term string) (int, int) {
	if term == "" {
		return -1, -1
	}
	for i := range s {
		if n, ok := foldPrefix(s[i:], term); ok {
			return i, i + n
		}
	}
	return -1, -1
}

// foldPrefix reports whether s begins with term under per-rune case folding,
// returning the byte length of the matched prefix of s.
func foldPrefix(s, term string) (int, bool) {
	n := 0
	for _, tr := range term {
		r, size := utf8.DecodeRuneInString(s[n:])
		if size == 0 {
			return 0, false
		}
		if unicode.ToLower(r) != unicode.ToLower(tr) {
			return 0, false
		}
		n += size
	}
	return n, true
}
