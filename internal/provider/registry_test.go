package provider

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubFetcher struct {
	BaseFetcher
	result *FetchResult
	err    error
	calls  int
}

func (f *stubFetcher) Fetch(ctx context.Context, params QueryParams) (*FetchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type stubProvider struct {
	BaseProvider
}

func newStubProvider(name string, fetchers ...Fetcher) *stubProvider {
	p := &stubProvider{
		BaseProvider: NewBaseProvider(name, "test provider", "https://example.test", nil),
	}
	for _, f := range fetchers {
		p.RegisterFetcher(f)
	}
	return p
}

func newStubFetcher(model ModelType, required []string) *stubFetcher {
	return &stubFetcher{
		BaseFetcher: NewBaseFetcher(model, "stub", required, nil),
		result:      &FetchResult{Data: "payload", FetchedAt: time.Now()},
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	p := newStubProvider("alpha", newStubFetcher(ModelRealtimeQuote, nil))

	if err := r.Register(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := r.Get("alpha")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Info().Name != "alpha" {
		t.Errorf("wrong provider: %+v", got.Info())
	}

	if _, err := r.Get("missing"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestRegistryFetchRoutesToDefault(t *testing.T) {
	r := NewRegistry()
	f := newStubFetcher(ModelRealtimeQuote, []string{ParamSymbol})
	if err := r.Register(newStubProvider("alpha", f)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := r.Fetch(context.Background(), ModelRealtimeQuote, QueryParams{ParamSymbol: "TSLA"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provider != "alpha" || res.Model != ModelRealtimeQuote || res.Data != "payload" {
		t.Errorf("unexpected result: %+v", res)
	}
	if f.calls != 1 {
		t.Errorf("expected 1 fetch, got %d", f.calls)
	}
}

func TestRegistryFetchValidatesParams(t *testing.T) {
	r := NewRegistry()
	f := newStubFetcher(ModelRealtimeQuote, []string{ParamSymbol})
	if err := r.Register(newStubProvider("alpha", f)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := r.Fetch(context.Background(), ModelRealtimeQuote, QueryParams{})
	var missing *ErrMissingParam
	if !errors.As(err, &missing) {
		t.Fatalf("expected ErrMissingParam, got %v", err)
	}
	if missing.Param != ParamSymbol {
		t.Errorf("wrong missing param: %q", missing.Param)
	}
	if f.calls != 0 {
		t.Errorf("fetcher must not run on invalid params, got %d calls", f.calls)
	}
}

func TestRegistryFetchUnsupportedModel(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newStubProvider("alpha", newStubFetcher(ModelRealtimeQuote, nil))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := r.Fetch(context.Background(), ModelCompanyNews, QueryParams{})
	var unsupported *ErrModelNotSupported
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected ErrModelNotSupported, got %v", err)
	}
}

func TestRegistryProvidersFor(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newStubProvider("alpha", newStubFetcher(ModelRealtimeQuote, nil))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(newStubProvider("beta", newStubFetcher(ModelRealtimeQuote, nil))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := r.ProvidersFor(ModelRealtimeQuote)
	if len(names) != 2 || names[0] != "alpha" {
		t.Errorf("expected [alpha beta] with registration order priority, got %v", names)
	}
	if got := r.ProvidersFor(ModelEsgScores); len(got) != 0 {
		t.Errorf("expected no providers, got %v", got)
	}
}

func TestBaseProviderInitCredentials(t *testing.T) {
	p := &stubProvider{
		BaseProvider: NewBaseProvider("alpha", "desc", "site", []ProviderCredential{
			{Name: "api_key", Required: true},
		}),
	}

	err := p.Init(map[string]string{})
	var invalid *ErrInvalidCredentials
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if err := p.Init(map[string]string{"api_key": "secret"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Credential("api_key") != "secret" {
		t.Errorf("credential not stored")
	}
}

func TestCacheKeyDeterministic(t *testing.T) {
	a := CacheKey(ModelRealtimeQuote, QueryParams{"symbol": "TSLA", "type": "STOCKS", "page": "1"})
	b := CacheKey(ModelRealtimeQuote, QueryParams{"type": "STOCKS", "page": "1", "symbol": "TSLA"})
	if a != b {
		t.Errorf("cache keys differ for identical params: %q vs %q", a, b)
	}
	if a != "RealtimeQuote:page=1:symbol=TSLA:type=STOCKS" {
		t.Errorf("unexpected key layout: %q", a)
	}
}

func TestValidateParams(t *testing.T) {
	if err := ValidateParams(QueryParams{"symbol": "TSLA"}, []string{"symbol"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateParams(QueryParams{"symbol": ""}, []string{"symbol"}); err == nil {
		t.Error("empty value must fail validation")
	}
	if err := ValidateParams(QueryParams{}, nil); err != nil {
		t.Errorf("no required params must pass: %v", err)
	}
}
