// Package llm provides the interface and client for the external completion
// service consumed by the answer endpoint. The search core itself never
// calls it.
package llm

import "context"

// GenerateOptions configures a single generation request.
type GenerateOptions struct {
	// Model specifies the model to use (e.g., "llama3.2").
	Model string

	// SystemPrompt sets system-level instructions for the model.
	SystemPrompt string

	// Temperature controls randomness (0.0 deterministic, 1.0 creative).
	Temperature float32

	// MaxTokens limits the response length; 0 means no limit.
	MaxTokens int
}

// LLM defines the interface for completion clients.
type LLM interface {
	// Generate sends a prompt and blocks until the full response is
	// received or an error occurs.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}
