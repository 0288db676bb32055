package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knoguchi/kbsearch/internal/llm"
)

const answerSystemPrompt = `You are a helpful assistant with access to a knowledge base about warehouse management and inventory systems. Answer using only the provided context documents. If the answer is not in the context, say so politely.`

// noResultsAnswer mirrors the assistant's reply when retrieval finds nothing.
const noResultsAnswer = "I couldn't find relevant information in my knowledge base. Could you please rephrase your question or ask about warehouse management, inventory systems, or logistics topics?"

const (
	answerTemperature = 0.3
	answerMaxTokens   = 500
)

// AnswerRequest extends a search request; the ranked results become the
// generation context.
type AnswerRequest struct {
	SearchRequest
}

// AnswerResponse carries the generated answer together with its sources.
type AnswerResponse struct {
	Answer       string        `json:"answer"`
	Sources      []RankedChunk `json:"sources"`
	Query        string        `json:"query"`
	SearchTimeMs float64       `json:"search_time_ms"`
}

// AnswerService consumes the search core's ranked output and generates a
// natural-language answer with the completion service.
type AnswerService struct {
	search *SearchService
	llm    llm.LLM
	model  string
	logger *slog.Logger
}

// NewAnswerService creates an answer service on top of the search pipeline.
func NewAnswerService(search *SearchService, client llm.LLM, model string, logger *slog.Logger) *AnswerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerService{
		search: search,
		llm:    client,
		model:  model,
		logger: logger,
	}
}

// Answer runs a search and generates an answer grounded in the ranked
// chunks. A generation failure degrades to a context-only fallback; only an
// invalid request is an error.
func (s *AnswerService) Answer(ctx context.Context, req AnswerRequest) (*AnswerResponse, error) {
	searchResp, err := s.search.Search(ctx, req.SearchRequest)
	if err != nil {
		return nil, err
	}

	resp := &AnswerResponse{
		Sources:      searchResp.Results,
		Query:        req.Query,
		SearchTimeMs: searchResp.SearchTimeMs,
	}

	if len(searchResp.Results) == 0 {
		resp.Answer = noResultsAnswer
		return resp, nil
	}

	answer, err := s.llm.Generate(ctx, buildAnswerPrompt(req.Query, searchResp.Results), llm.GenerateOptions{
		Model:        s.model,
		SystemPrompt: answerSystemPrompt,
		Temperature:  answerTemperature,
		MaxTokens:    answerMaxTokens,
	})
	if err != nil {
		s.logger.Warn("answer generation failed, falling back to context excerpt", "error", err)
		resp.Answer = fallbackAnswer(searchResp.Results)
		return resp, nil
	}

	resp.Answer = answer
	return resp, nil
}

// buildAnswerPrompt lays out the ranked chunks as numbered context documents
// followed by the question.
func buildAnswerPrompt(question string, chunks []RankedChunk) string {
	var sb strings.Builder

	sb.WriteString("## Context Documents\n\n")
	for i, chunk := range chunks {
		sb.WriteString(fmt.Sprintf("[Doc %d]", i+1))
		if chunk.Title != "" {
			sb.WriteString(fmt.Sprintf(" (Title: %s)", chunk.Title))
		}
		sb.WriteString("\n")
		sb.WriteString(chunk.Content)
		sb.WriteString("\n\n")
	}

	sb.WriteString("## Question\n")
	sb.WriteString(question)
	sb.WriteString("\n\n## Answer (be brief and direct)\n")

	return sb.String()
}

// fallbackAnswer surfaces the top retrieved content when generation is
// unavailable.
func fallbackAnswer(chunks []RankedChunk) string {
	limit := 2
	if len(chunks) < limit {
		limit = len(chunks)
	}

	var excerpts []string
	for _, chunk := range chunks[:limit] {
		excerpts = append(excerpts, chunk.Content)
	}
	return "I found some relevant information but encountered an error generating the response. The relevant context was: " +
		strings.Join(excerpts, " ")
}
