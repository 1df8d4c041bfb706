package provider

import (
	"context"
	"sort"
	"sync"
)

// Registry is a thread-safe registry of data providers. It maps
// provider names to Provider instances and maintains an index of which
// providers support which standard model types.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	modelIdx  map[ModelType][]string
	defaults  map[ModelType]string
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		modelIdx:  make(map[ModelType][]string),
		defaults:  make(map[ModelType]string),
	}
}

// Register adds a provider to the registry. Duplicate registrations
// overwrite the previous entry.
func (r *Registry) Register(p Provider) error {
	info := p.Info()
	if info.Name == "" {
		return &ErrProviderNotFound{Name: ""}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[info.Name] = p

	for _, model := range p.SupportedModels() {
		existing := r.modelIdx[model]
		found := false
		for _, name := range existing {
			if name == info.Name {
				found = true
				break
			}
		}
		if !found {
			r.modelIdx[model] = append(existing, info.Name)
		}
		if _, ok := r.defaults[model]; !ok {
			r.defaults[model] = info.Name
		}
	}
	return nil
}

// Get returns a provider by name, or an error if not found.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}
	return p, nil
}

// List returns info about all registered providers, sorted by name.
func (r *Registry) List() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ProviderInfo, 0, len(r.providers))
	for _, p := range r.providers {
		infos = append(infos, p.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// ProvidersFor returns the names of providers that support the given
// model type, in priority order (first = default).
func (r *Registry) ProvidersFor(model ModelType) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := r.modelIdx[model]
	result := make([]string, len(names))
	copy(result, names)
	return result
}

// Fetch routes a request to the default provider for the model type,
// validates the parameters, and invokes the matching fetcher.
func (r *Registry) Fetch(ctx context.Context, model ModelType, params QueryParams) (*FetchResult, error) {
	r.mu.RLock()
	name, ok := r.defaults[model]
	r.mu.RUnlock()
	if !ok {
		return nil, &ErrModelNotSupported{Provider: "", Model: model}
	}

	p, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	f := p.Fetcher(model)
	if f == nil {
		return nil, &ErrModelNotSupported{Provider: name, Model: model}
	}

	if err := ValidateParams(params, f.RequiredParams()); err != nil {
		return nil, err
	}

	result, err := f.Fetch(ctx, params)
	if err != nil {
		return nil, err
	}
	result.Provider = name
	result.Model = model
	return result, nil
}
