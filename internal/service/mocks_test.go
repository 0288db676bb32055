package service

import (
	"context"
	"errors"

	"github.com/knoguchi/kbsearch/internal/llm"
)

var errEmbedderDown = errors.New("embedder down")

// stubEmbedder returns a fixed vector for every input and records calls.
type stubEmbedder struct {
	vector     []float32
	err        error
	lastText   string
	batchCalls int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.lastText = text
	if s.err != nil {
		return nil, s.err
	}
	return s.vector, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	s.batchCalls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vector
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int { return 3 }

func (s *stubEmbedder) ModelName() string { return "stub-embed" }

// stubLLM returns a canned answer and records the last generation request.
type stubLLM struct {
	answer     string
	err        error
	calls      int
	lastPrompt string
	lastOpts   llm.GenerateOptions
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	s.lastOpts = opts
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}
