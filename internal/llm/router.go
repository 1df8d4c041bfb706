package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/phuslu/log"
)

// Router fronts a chain of generation backends: the accelerated
// primary first, baseline fallbacks after. Negotiate walks the chain
// at startup and selects the first reachable backend as active; until
// it succeeds, Complete fails fast with ErrNotReady. The Router itself
// implements Provider.
type Router struct {
	mu        sync.RWMutex
	providers map[string]Provider
	chain     []string
	active    string
}

// NewRouter creates a router with the given provider chain, primary
// first.
func NewRouter(primary string, fallbacks ...string) *Router {
	return &Router{
		providers: make(map[string]Provider),
		chain:     append([]string{primary}, fallbacks...),
	}
}

// RegisterProvider adds a backend to the router.
func (r *Router) RegisterProvider(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// GetProvider returns a registered backend by name.
func (r *Router) GetProvider(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Negotiate is the startup readiness gate: it pings the chain in order
// and marks the first reachable backend active. Falling past the
// primary means running without acceleration; that is logged, not
// fatal.
func (r *Router) Negotiate(ctx context.Context) error {
	r.mu.RLock()
	chain := append([]string(nil), r.chain...)
	r.mu.RUnlock()

	var lastErr error
	for i, name := range chain {
		p, ok := r.GetProvider(name)
		if !ok {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			lastErr = err
			log.Warn().Err(err).Str("provider", name).Msg("generation backend not reachable")
			continue
		}
		if i > 0 {
			log.Warn().Str("provider", name).Str("primary", chain[0]).Msg("primary backend unavailable, running on fallback")
		} else {
			log.Info().Str("provider", name).Msg("generation backend ready")
		}
		r.mu.Lock()
		r.active = name
		r.mu.Unlock()
		return nil
	}

	if lastErr == nil {
		return ErrNoProviders
	}
	return fmt.Errorf("%w: %v", ErrNotReady, lastErr)
}

// Ready reports whether a backend has been negotiated.
func (r *Router) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active != ""
}

// Active returns the name of the active backend, if any.
func (r *Router) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

func (r *Router) Name() string { return "router" }

// Ping checks the active backend.
func (r *Router) Ping(ctx context.Context) error {
	r.mu.RLock()
	active := r.active
	r.mu.RUnlock()
	if active == "" {
		return ErrNotReady
	}
	p, ok := r.GetProvider(active)
	if !ok {
		return ErrNotReady
	}
	return p.Ping(ctx)
}

// Complete routes a completion through the chain, starting at the
// active backend. A success on a fallback promotes it to active.
func (r *Router) Complete(ctx context.Context, prompt string, opts *GenerateOptions) (*Completion, error) {
	r.mu.RLock()
	active := r.active
	chain := append([]string(nil), r.chain...)
	r.mu.RUnlock()

	if active == "" {
		return nil, ErrNotReady
	}

	// Rotate the chain so the active backend goes first.
	ordered := make([]string, 0, len(chain))
	ordered = append(ordered, active)
	for _, name := range chain {
		if name != active {
			ordered = append(ordered, name)
		}
	}

	var lastErr error
	for _, name := range ordered {
		p, ok := r.GetProvider(name)
		if !ok {
			continue
		}

		resp, err := p.Complete(ctx, prompt, opts)
		if err == nil {
			if name != active {
				log.Warn().Str("provider", name).Msg("completion served by fallback backend")
				r.mu.Lock()
				r.active = name
				r.mu.Unlock()
			}
			return resp, nil
		}

		lastErr = err
		log.Warn().Err(err).Str("provider", name).Msg("generation backend failed, trying next")

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("llm: all backends failed, last error: %w", lastErr)
}
