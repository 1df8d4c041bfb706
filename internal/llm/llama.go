package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// LlamaProvider implements Provider for a llama.cpp server instance.
// The server owns model provisioning and hardware acceleration; this
// client only speaks its completion API.
type LlamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// LlamaOption configures the llama.cpp provider.
type LlamaOption func(*LlamaProvider)

// WithLlamaModel sets the model name reported in completions.
func WithLlamaModel(model string) LlamaOption {
	return func(p *LlamaProvider) { p.model = model }
}

// WithLlamaHTTPClient sets a custom HTTP client.
func WithLlamaHTTPClient(client *http.Client) LlamaOption {
	return func(p *LlamaProvider) { p.client = client }
}

// NewLlamaProvider creates a llama.cpp server provider.
// baseURL is the server URL (e.g., "http://localhost:8080").
func NewLlamaProvider(baseURL string, opts ...LlamaOption) *LlamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	p := &LlamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   "finance-chat",
		client:  &http.Client{Timeout: 300 * time.Second}, // longer timeout for local models
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *LlamaProvider) Name() string { return ProviderLlama }

// Ping checks the server health endpoint; llama.cpp returns 503 while
// the model is still loading.
func (p *LlamaProvider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderDown, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrProviderDown, resp.StatusCode)
	}
	return nil
}

type llamaCompletionRequest struct {
	Prompt      string   `json:"prompt"`
	NPredict    int      `json:"n_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	TopP        float64  `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	Stream      bool     `json:"stream"`
}

type llamaCompletionResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
}

// Complete sends a completion request to the /completion endpoint.
func (p *LlamaProvider) Complete(ctx context.Context, prompt string, opts *GenerateOptions) (*Completion, error) {
	start := time.Now()

	body := llamaCompletionRequest{
		Prompt: prompt,
		Stream: false,
	}
	if opts != nil {
		body.NPredict = opts.MaxTokens
		body.Temperature = opts.Temperature
		body.TopP = opts.TopP
		body.Stop = opts.Stop
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("llama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/completion", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderDown, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("llama: HTTP %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result llamaCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("llama: decode response: %w", err)
	}

	model := result.Model
	if model == "" {
		model = p.model
	}
	return &Completion{
		Text:     result.Content,
		Model:    model,
		Provider: ProviderLlama,
		Latency:  time.Since(start),
	}, nil
}
