// Package api provides the HTTP REST API server for finchat.
//
// It exposes the chat endpoint backed by the enrichment pipeline, a
// liveness check, market data passthroughs, and WebSocket chat.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phuslu/log"

	"github.com/seenimoa/finchat/internal/chat"
	"github.com/seenimoa/finchat/internal/config"
	"github.com/seenimoa/finchat/internal/fusion"
	"github.com/seenimoa/finchat/internal/infra"
	"github.com/seenimoa/finchat/internal/llm"
	"github.com/seenimoa/finchat/internal/news"
	"github.com/seenimoa/finchat/internal/provider"
	"github.com/seenimoa/finchat/internal/providers/rapidyahoo"
	"github.com/seenimoa/finchat/pkg/models"
)

// responder answers one user message within a session.
type responder interface {
	Respond(ctx context.Context, sessionID, message string) string
}

// marketData is the slice of the market provider the passthrough
// endpoints use.
type marketData interface {
	RealtimeQuote(ctx context.Context, symbol string) *models.RealtimeQuote
	EsgScores(ctx context.Context, symbol string) models.EsgProfile
}

// newsFeed serves the news endpoints.
type newsFeed interface {
	MarketNews(ctx context.Context, limit int) ([]models.NewsArticle, error)
	SymbolNews(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error)
}

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	assistant responder
	store     *chat.Store
	market    marketData
	news      newsFeed
	registry  *provider.Registry
	llmRouter *llm.Router
}

// NewServer wires the full pipeline and creates a configured API
// server with all routes and middleware.
func NewServer(cfg *config.Config) (*Server, error) {
	client := infra.NewClient(cfg.Upstream.Timeout(), cfg.Upstream.MaxRetries, cfg.Upstream.RetryDelay())
	market := rapidyahoo.New(cfg.Upstream, client)

	registry := provider.NewRegistry()
	if err := registry.Register(market); err != nil {
		return nil, err
	}

	engine := fusion.NewEngine(market, fusion.WithMaxPages(cfg.Upstream.SearchPages))

	router := llm.NewRouter(cfg.LLM.Primary, fallbackChain(cfg.LLM.Primary)...)
	router.RegisterProvider(llm.NewLlamaProvider(cfg.LLM.LlamaURL, llm.WithLlamaModel(cfg.LLM.Model)))
	router.RegisterProvider(llm.NewOllamaProvider(cfg.LLM.OllamaURL, llm.WithOllamaModel(cfg.LLM.Model)))

	store := chat.NewStore(cfg.Chat.MaxHistoryTurns)
	assistant := chat.NewAssistant(engine, router, store, chat.WithGenerateOptions(llm.GenerateOptions{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		TopP:        cfg.LLM.TopP,
	}))

	srv := &Server{
		cfg:       cfg,
		assistant: assistant,
		store:     store,
		market:    market,
		news:      news.NewService(cfg.News),
		registry:  registry,
		llmRouter: router,
	}
	srv.router = srv.buildRouter()
	return srv, nil
}

// fallbackChain orders the remaining backend after the primary.
func fallbackChain(primary string) []string {
	if primary == llm.ProviderOllama {
		return []string{llm.ProviderLlama}
	}
	return []string{llm.ProviderOllama}
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Negotiate runs the generation backend readiness gate. Failure is
// not fatal: chat requests degrade until a backend comes up.
func (s *Server) Negotiate(ctx context.Context) {
	if s.llmRouter == nil {
		return
	}
	if err := s.llmRouter.Negotiate(ctx); err != nil {
		log.Error().Err(err).Msg("no generation backend ready, chat will degrade")
	}
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-done:
	}
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if s.cfg != nil && len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Session-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/chat", s.handleChat)
		r.Delete("/chat/history", s.handleClearHistory)

		r.Get("/quote/{symbol}", s.handleQuote)
		r.Get("/esg/{symbol}", s.handleESG)

		r.Get("/news", s.handleMarketNews)
		r.Get("/news/{symbol}", s.handleSymbolNews)

		r.Get("/providers", s.handleProviders)

		r.Get("/ws/chat", s.handleChatSocket)
	})

	return r
}

// --- Request/response types ---

// APIResponse is the standard response envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ChatRequest is the inbound chat payload.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// HistoryRequest identifies a session for history operations.
type HistoryRequest struct {
	SessionID string `json:"session_id"`
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ready := s.llmRouter != nil && s.llmRouter.Ready()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":      "healthy",
			"model_ready": ready,
		},
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "Invalid request. 'message' field is required.")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = r.Header.Get("X-Session-ID")
	}
	if sessionID == "" {
		sessionID = chat.NewSessionID()
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	reply := s.assistant.Respond(ctx, sessionID, req.Message)

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"response":   reply,
			"session_id": sessionID,
		},
	})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		var req HistoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			sessionID = req.SessionID
		}
	}
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	s.store.Clear(sessionID)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]any{"session_id": sessionID, "cleared": true},
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	quote := s.market.RealtimeQuote(r.Context(), symbol)
	if quote == nil {
		writeError(w, http.StatusNotFound, "no quote available for "+symbol)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: quote})
}

func (s *Server) handleESG(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	profile := s.market.EsgScores(r.Context(), symbol)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: profile})
}

func (s *Server) handleMarketNews(w http.ResponseWriter, r *http.Request) {
	articles, err := s.news.MarketNews(r.Context(), s.newsLimit())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: articles})
}

func (s *Server) handleSymbolNews(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	articles, err := s.news.SymbolNews(r.Context(), symbol, s.newsLimit())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: articles})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.registry.List()})
}

func (s *Server) newsLimit() int {
	if s.cfg != nil && s.cfg.News.Limit > 0 {
		return s.cfg.News.Limit
	}
	return 10
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{Success: false, Error: msg})
}
