package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/knoguchi/kbsearch/internal/embedder"
	"github.com/knoguchi/kbsearch/internal/query"
	"github.com/knoguchi/kbsearch/internal/vectorstore"
)

// maxAugmentationTerms caps how many expansion terms are appended to the
// embedded query text.
const maxAugmentationTerms = 3

// SemanticRetriever fetches candidates by embedding the query and running a
// nearest-neighbor search against the vector store.
type SemanticRetriever struct {
	embedder embedder.Embedder
	store    vectorstore.VectorStore
}

// NewSemanticRetriever creates a semantic retriever over the given embedder
// and vector store.
func NewSemanticRetriever(e embedder.Embedder, s vectorstore.VectorStore) *SemanticRetriever {
	return &SemanticRetriever{embedder: e, store: s}
}

// Retrieve returns up to k candidates ordered by descending similarity.
// Distances are converted with similarity = max(0, 1 - distance), which is
// meaningful for cosine distance; swapping the store to an unbounded metric
// would require revisiting this conversion.
//
// Errors from the embedder or the store are returned to the caller; the
// orchestrator decides whether to degrade.
func (r *SemanticRetriever) Retrieve(ctx context.Context, qc *query.Context, k int) ([]Candidate, error) {
	vec, err := r.embedder.Embed(ctx, augmentedQuery(qc))
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.store.NearestNeighbors(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbors: %w", err)
	}

	candidates := make([]Candidate, 0, len(hits))
	for _, hit := range hits {
		similarity := 1 - hit.Distance
		if similarity < 0 {
			similarity = 0
		}
		candidates = append(candidates, Candidate{
			ID:       hit.ID,
			Title:    hit.Title,
			Content:  hit.Content,
			Metadata: hit.Metadata,
			Score:    similarity,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates, nil
}

// augmentedQuery builds the text sent to the embedding service: the
// normalized query followed by the first few expansion terms.
func augmentedQuery(qc *query.Context) string {
	expansions := qc.Expansions
	if len(expansions) > maxAugmentationTerms {
		expansions = expansions[:maxAugmentationTerms]
	}
	if len(expansions) == 0 {
		return qc.Normalized
	}
	return qc.Normalized + " " + strings.Join(expansions, " ")
}
