package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"

	"github.com/seenimoa/finchat/internal/llm"
)

// User-facing degraded replies. Generation failures never surface raw
// errors; history is left untouched on either path.
const (
	FallbackReply = "I apologize, but I encountered an error while processing your request. Please try again with a different query."
	NotReadyReply = "I'm sorry, but I'm unable to process your request at the moment due to a technical issue with the language model."
)

// Enricher produces the market-data summary block for a user message.
type Enricher interface {
	Enrich(ctx context.Context, message string) string
}

// Assistant runs one request through the pipeline: enrichment, prompt
// assembly, generation, history append. The generation backend is a
// single shared model runtime, so completion calls serialize on genMu.
type Assistant struct {
	enricher Enricher
	backend  llm.Provider
	store    *Store
	opts     llm.GenerateOptions
	genMu    sync.Mutex
	now      func() time.Time
}

// AssistantOption configures the assistant.
type AssistantOption func(*Assistant)

// WithGenerateOptions overrides the generation parameters.
func WithGenerateOptions(opts llm.GenerateOptions) AssistantOption {
	return func(a *Assistant) { a.opts = opts }
}

// WithClock replaces the timestamp source, keeping prompts
// deterministic in tests.
func WithClock(now func() time.Time) AssistantOption {
	return func(a *Assistant) { a.now = now }
}

// NewAssistant creates an assistant over the given pipeline pieces.
func NewAssistant(enricher Enricher, backend llm.Provider, store *Store, opts ...AssistantOption) *Assistant {
	a := &Assistant{
		enricher: enricher,
		backend:  backend,
		store:    store,
		opts: llm.GenerateOptions{
			MaxTokens:   800,
			Temperature: 0.7,
			TopP:        0.95,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Store exposes the session store for history management endpoints.
func (a *Assistant) Store() *Store { return a.store }

// Respond answers one user message within a session. Upstream data
// failures have already degraded to summary sentences by the time the
// prompt is built; only a failed generation call produces a degraded
// final answer, and then the history is not updated.
func (a *Assistant) Respond(ctx context.Context, sessionID, message string) string {
	log.Info().Str("session", sessionID).Str("message", message).Msg("processing user query")

	sess := a.store.Get(sessionID)
	history := sess.History()

	summary := a.enricher.Enrich(ctx, message)
	log.Info().Str("summary", summary).Msg("market data summary assembled")

	prompt := BuildPrompt(history, message, summary, a.now())

	a.genMu.Lock()
	completion, err := a.backend.Complete(ctx, prompt, &a.opts)
	a.genMu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("session", sessionID).Msg("generation failed")
		if errors.Is(err, llm.ErrNotReady) {
			return NotReadyReply
		}
		return FallbackReply
	}

	reply := strings.TrimSpace(completion.Text)
	sess.Append(message, reply)

	log.Info().Str("session", sessionID).Dur("latency", completion.Latency).Msg("generated response")
	return reply
}
