// Package service wires query analysis, dual retrieval, fusion, filtering,
// and analytics into the request-level search and answer operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/knoguchi/kbsearch/internal/analytics"
	"github.com/knoguchi/kbsearch/internal/query"
	"github.com/knoguchi/kbsearch/internal/search"
	"github.com/knoguchi/kbsearch/internal/vectorstore"
)

// Strategy selects which retrieval paths a search exercises.
type Strategy string

const (
	StrategySemantic Strategy = "semantic"
	StrategyLexical  Strategy = "lexical"
	StrategyHybrid   Strategy = "hybrid"

	// StrategyAuto is accepted in requests and currently resolves to
	// hybrid. It has no distinguishing behavior yet; the alias is explicit
	// so a future heuristic has a place to live.
	StrategyAuto Strategy = "auto"
)

// ErrUnknownStrategy is returned for a strategy value outside the enum.
var ErrUnknownStrategy = errors.New("unknown search strategy")

// ParseStrategy validates a request strategy string. Empty input defaults to
// hybrid.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "":
		return StrategyHybrid, nil
	case StrategySemantic, StrategyLexical, StrategyHybrid, StrategyAuto:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// resolve maps the inert auto variant to hybrid.
func (s Strategy) resolve() Strategy {
	if s == StrategyAuto {
		return StrategyHybrid
	}
	return s
}

const (
	// defaultResultLimit is the number of results returned when the request
	// does not specify one.
	defaultResultLimit = 5

	// overfetchFactor is how many times the requested limit each retriever
	// fetches, so fusion and filtering have enough candidates to work with.
	overfetchFactor = 3
)

// SearchRequest is the caller-facing search contract.
type SearchRequest struct {
	Query              string   `json:"query"`
	Limit              int      `json:"limit,omitempty"`
	MinScore           *float64 `json:"min_score,omitempty"`
	CategoryFilter     string   `json:"category_filter,omitempty"`
	DocumentTypeFilter string   `json:"document_type_filter,omitempty"`
	Strategy           string   `json:"strategy,omitempty"`
}

// RankedChunk is the response projection of one fused result.
type RankedChunk struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Content       string             `json:"content"`
	Category      string             `json:"category,omitempty"`
	DocumentType  string             `json:"document_type,omitempty"`
	Topics        []string           `json:"topics,omitempty"`
	UploadedAt    string             `json:"uploaded_at,omitempty"`
	SemanticScore float64            `json:"semantic_score"`
	LexicalScore  float64            `json:"lexical_score"`
	FinalScore    float64            `json:"final_score"`
	Highlights    []string           `json:"highlights,omitempty"`
	RankFactors   search.RankFactors `json:"rank_factors"`
}

// SearchResponse is the caller-facing search result.
type SearchResponse struct {
	Results        []RankedChunk `json:"results"`
	TotalFound     int           `json:"total_found"`
	Query          string        `json:"query"`
	SearchTimeMs   float64       `json:"search_time_ms"`
	SearchStrategy string        `json:"search_strategy"`
}

// SearchService orchestrates the hybrid search pipeline.
type SearchService struct {
	semantic     *search.SemanticRetriever
	lexical      *search.LexicalRetriever
	fuser        *search.Fuser
	analytics    *analytics.Recorder
	logger       *slog.Logger
	defaultLimit int
}

// NewSearchService creates the orchestrator. The analytics recorder is an
// explicitly owned instance, not ambient state. defaultLimit is the result
// count used when a request does not specify one; non-positive falls back to
// defaultResultLimit.
func NewSearchService(
	semantic *search.SemanticRetriever,
	lexical *search.LexicalRetriever,
	recorder *analytics.Recorder,
	defaultLimit int,
	logger *slog.Logger,
) *SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultLimit <= 0 {
		defaultLimit = defaultResultLimit
	}
	return &SearchService{
		semantic:     semantic,
		lexical:      lexical,
		fuser:        search.NewFuser(),
		analytics:    recorder,
		logger:       logger,
		defaultLimit: defaultLimit,
	}
}

// Search runs the full pipeline: analyze, retrieve both paths concurrently,
// fuse, filter, truncate, record. A failing retrieval path degrades to an
// empty contribution; only an invalid request is an error. Both paths empty
// yields a successful response with zero results.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	start := time.Now()

	qc, err := query.Analyze(req.Query)
	if err != nil {
		return nil, err
	}

	strategy, err := ParseStrategy(req.Strategy)
	if err != nil {
		return nil, err
	}
	resolved := strategy.resolve()

	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	fetchK := limit * overfetchFactor

	var semCandidates, lexCandidates []search.Candidate

	// The retrievers share no mutable state and run concurrently; fusion is
	// the join point. Each closure swallows its path's error after logging,
	// so one failing path never cancels the other.
	var g errgroup.Group
	if resolved == StrategyHybrid || resolved == StrategySemantic {
		g.Go(func() error {
			candidates, err := s.semantic.Retrieve(ctx, qc, fetchK)
			if err != nil {
				s.logger.Warn("semantic retrieval degraded to empty",
					"error", err, "query", qc.Normalized)
				return nil
			}
			semCandidates = candidates
			return nil
		})
	}
	if resolved == StrategyHybrid || resolved == StrategyLexical {
		g.Go(func() error {
			candidates, err := s.lexical.Retrieve(ctx, qc, fetchK)
			if err != nil {
				s.logger.Warn("lexical retrieval degraded to empty",
					"error", err, "query", qc.Normalized)
				return nil
			}
			lexCandidates = candidates
			return nil
		})
	}
	_ = g.Wait() // closures never return errors

	fused := s.fuser.Fuse(semCandidates, lexCandidates, qc)
	filtered := search.Apply(fused, search.Filters{
		Category:     req.CategoryFilter,
		DocumentType: req.DocumentTypeFilter,
		MinScore:     req.MinScore,
	})

	totalFound := len(filtered)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	elapsed := time.Since(start)
	s.analytics.Record(qc, totalFound, elapsed, string(resolved))

	return &SearchResponse{
		Results:        projectResults(filtered),
		TotalFound:     totalFound,
		Query:          req.Query,
		SearchTimeMs:   float64(elapsed) / float64(time.Millisecond),
		SearchStrategy: string(resolved),
	}, nil
}

// Analytics exposes the owned recorder for the analytics endpoint.
func (s *SearchService) Analytics() *analytics.Recorder {
	return s.analytics
}

func projectResults(results []search.Result) []RankedChunk {
	out := make([]RankedChunk, len(results))
	for i, r := range results {
		out[i] = RankedChunk{
			ID:            r.ID,
			Title:         r.Title,
			Content:       r.Content,
			Category:      r.Metadata.Category,
			DocumentType:  r.Metadata.DocumentType,
			Topics:        r.Metadata.Topics,
			UploadedAt:    formatUploadedAt(r.Metadata),
			SemanticScore: r.SemanticScore,
			LexicalScore:  r.LexicalScore,
			FinalScore:    r.FinalScore,
			Highlights:    r.Highlights,
			RankFactors:   r.Factors,
		}
	}
	return out
}

func formatUploadedAt(meta vectorstore.Metadata) string {
	if meta.UploadedAt.IsZero() {
		return ""
	}
	return meta.UploadedAt.Format(time.RFC3339)
}
