// Package llm provides a unified text-completion interface over
// locally hosted model runtimes (llama.cpp server, Ollama) with a
// fallback router and a startup readiness gate.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Provider names for routing and configuration.
const (
	ProviderLlama  = "llama"
	ProviderOllama = "ollama"
)

// Common errors returned by generation backends.
var (
	ErrProviderDown = errors.New("llm: provider unavailable")
	ErrNoProviders  = errors.New("llm: no providers configured")
	ErrNotReady     = errors.New("llm: no generation backend ready")
)

// GenerateOptions configures a single completion request.
type GenerateOptions struct {
	Model       string   `json:"model,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	TopP        float64  `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// Completion is the result of a generation request.
type Completion struct {
	Text     string        `json:"text"`
	Model    string        `json:"model"`
	Provider string        `json:"provider"`
	Latency  time.Duration `json:"latency"`
}

// Provider is the interface every generation backend must implement.
// The contract is deliberately opaque: prompt string and generation
// config in, completion text or failure out.
type Provider interface {
	// Name returns the provider identifier (e.g., "llama", "ollama").
	Name() string

	// Complete sends a prompt and returns the completion.
	Complete(ctx context.Context, prompt string, opts *GenerateOptions) (*Completion, error)

	// Ping checks if the backend is reachable and a model is loaded.
	Ping(ctx context.Context) error
}

// String returns a human-readable summary of the completion.
func (c *Completion) String() string {
	truncated := c.Text
	if len(truncated) > 100 {
		truncated = truncated[:100] + "..."
	}
	return fmt.Sprintf("[%s/%s] %q, %v", c.Provider, c.Model, truncated, c.Latency.Round(time.Millisecond))
}
