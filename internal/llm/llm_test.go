package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeProvider struct {
	name      string
	pingErr   error
	reply     string
	completes int
	fail      bool
}

func (f *fakeProvider) Name() string                   { return f.name }
func (f *fakeProvider) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeProvider) Complete(ctx context.Context, prompt string, opts *GenerateOptions) (*Completion, error) {
	f.completes++
	if f.fail {
		return nil, errors.New(f.name + ": boom")
	}
	return &Completion{Text: f.reply, Provider: f.name}, nil
}

func TestRouterNegotiatePrimary(t *testing.T) {
	primary := &fakeProvider{name: "llama", reply: "from llama"}
	fallback := &fakeProvider{name: "ollama", reply: "from ollama"}

	r := NewRouter("llama", "ollama")
	r.RegisterProvider(primary)
	r.RegisterProvider(fallback)

	if err := r.Negotiate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Ready() || r.Active() != "llama" {
		t.Errorf("expected active primary, got %q", r.Active())
	}
}

func TestRouterNegotiateFallsBack(t *testing.T) {
	primary := &fakeProvider{name: "llama", pingErr: errors.New("connection refused")}
	fallback := &fakeProvider{name: "ollama", reply: "from ollama"}

	r := NewRouter("llama", "ollama")
	r.RegisterProvider(primary)
	r.RegisterProvider(fallback)

	if err := r.Negotiate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Active() != "ollama" {
		t.Errorf("expected fallback active, got %q", r.Active())
	}

	resp, err := r.Complete(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "from ollama" {
		t.Errorf("wrong backend answered: %+v", resp)
	}
	if primary.completes != 0 {
		t.Errorf("unreachable primary must not be asked first, got %d calls", primary.completes)
	}
}

func TestRouterNegotiateAllDown(t *testing.T) {
	r := NewRouter("llama", "ollama")
	r.RegisterProvider(&fakeProvider{name: "llama", pingErr: errors.New("down")})
	r.RegisterProvider(&fakeProvider{name: "ollama", pingErr: errors.New("down")})

	err := r.Negotiate(context.Background())
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if r.Ready() {
		t.Error("router must not be ready after failed negotiation")
	}
}

func TestRouterCompleteBeforeNegotiate(t *testing.T) {
	r := NewRouter("llama")
	r.RegisterProvider(&fakeProvider{name: "llama", reply: "x"})

	_, err := r.Complete(context.Background(), "hi", nil)
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady before negotiation, got %v", err)
	}
}

func TestRouterCompletePromotesFallback(t *testing.T) {
	primary := &fakeProvider{name: "llama", fail: true}
	fallback := &fakeProvider{name: "ollama", reply: "rescued"}

	r := NewRouter("llama", "ollama")
	r.RegisterProvider(primary)
	r.RegisterProvider(fallback)

	if err := r.Negotiate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := r.Complete(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "rescued" {
		t.Errorf("expected fallback answer, got %+v", resp)
	}
	if r.Active() != "ollama" {
		t.Errorf("successful fallback must be promoted, active=%q", r.Active())
	}

	// The next completion goes straight to the promoted backend.
	if _, err := r.Complete(context.Background(), "hi again", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if primary.completes != 1 {
		t.Errorf("failed primary must not be retried first, got %d calls", primary.completes)
	}
}

func TestRouterCompleteAllFail(t *testing.T) {
	primary := &fakeProvider{name: "llama", fail: true}

	r := NewRouter("llama")
	r.RegisterProvider(primary)
	if err := r.Negotiate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := r.Complete(context.Background(), "hi", nil); err == nil {
		t.Fatal("expected error when every backend fails")
	}
}

func TestLlamaProviderComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/completion":
			var req struct {
				Prompt   string `json:"prompt"`
				NPredict int    `json:"n_predict"`
				Stream   bool   `json:"stream"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("bad request body: %v", err)
			}
			if req.Prompt != "hello" || req.NPredict != 800 || req.Stream {
				t.Errorf("unexpected request: %+v", req)
			}
			json.NewEncoder(w).Encode(map[string]string{"content": " hi there ", "model": "finance-chat-q4"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewLlamaProvider(srv.URL)
	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}

	resp, err := p.Complete(context.Background(), "hello", &GenerateOptions{MaxTokens: 800, Temperature: 0.7, TopP: 0.95})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != " hi there " || resp.Model != "finance-chat-q4" || resp.Provider != ProviderLlama {
		t.Errorf("unexpected completion: %+v", resp)
	}
}

func TestLlamaProviderPingWhileLoading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewLlamaProvider(srv.URL)
	if err := p.Ping(context.Background()); !errors.Is(err, ErrProviderDown) {
		t.Fatalf("expected ErrProviderDown while model loads, got %v", err)
	}
}

func TestOllamaProviderComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.Write([]byte(`{"models":[]}`))
		case "/api/generate":
			var req struct {
				Model   string `json:"model"`
				Prompt  string `json:"prompt"`
				Options struct {
					NumPredict int `json:"num_predict"`
				} `json:"options"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("bad request body: %v", err)
			}
			if req.Model != "finance-chat" || req.Options.NumPredict != 800 {
				t.Errorf("unexpected request: %+v", req)
			}
			json.NewEncoder(w).Encode(map[string]string{"model": req.Model, "response": "answer text"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, WithOllamaModel("finance-chat"))
	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}

	resp, err := p.Complete(context.Background(), "hello", &GenerateOptions{MaxTokens: 800})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "answer text" || resp.Provider != ProviderOllama {
		t.Errorf("unexpected completion: %+v", resp)
	}
}

func TestOllamaProviderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL)
	if _, err := p.Complete(context.Background(), "hello", nil); err == nil {
		t.Fatal("expected error on server failure")
	}
}
