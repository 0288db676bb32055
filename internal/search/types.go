// Package search implements the hybrid retrieval pipeline: semantic and
// lexical candidate retrieval, weighted score fusion, and post-filtering.
package search

import "github.com/knoguchi/kbsearch/internal/vectorstore"

// Candidate is a chunk retrieved by a single path before fusion. Score is a
// semantic similarity in [0,1] for the semantic retriever and an unbounded
// BM25 score for the lexical retriever.
type Candidate struct {
	ID         string
	Title      string
	Content    string
	Metadata   vectorstore.Metadata
	Score      float64
	Highlights []string
}

// RankFactors is the named breakdown of a fused score, kept for
// explainability.
type RankFactors struct {
	Base           float64 `json:"base"`
	TitleBoost     float64 `json:"title_boost"`
	EntityBoost    float64 `json:"entity_boost"`
	FreshnessBoost float64 `json:"freshness_boost"`
	LengthPenalty  float64 `json:"length_penalty"`
}

// Result is a fused, scored candidate. A chunk appears at most once per
// result list; both retrieval contributions are reflected here.
type Result struct {
	ID            string
	Title         string
	Content       string
	Metadata      vectorstore.Metadata
	SemanticScore float64
	LexicalScore  float64
	FinalScore    float64
	Highlights    []string
	Factors       RankFactors
}
