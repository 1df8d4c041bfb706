// finchat — conversational financial assistant.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/seenimoa/finchat/api"
	"github.com/seenimoa/finchat/internal/chat"
	"github.com/seenimoa/finchat/internal/config"
	"github.com/seenimoa/finchat/internal/fusion"
	"github.com/seenimoa/finchat/internal/infra"
	"github.com/seenimoa/finchat/internal/llm"
	"github.com/seenimoa/finchat/internal/providers/rapidyahoo"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "finchat",
	Short: "finchat — conversational financial assistant",
	Long: `finchat enriches free-text financial questions with live market
quotes, directory data, and ESG scores, then answers them with a
locally hosted language model while keeping per-session context.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		configureLogging(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(quoteCmd)
}

func configureLogging(lc config.LoggingConfig) {
	logger := log.Logger{Level: log.ParseLevel(lc.Level)}
	if lc.Format != "json" {
		logger.Writer = &log.ConsoleWriter{ColorOutput: true}
	}
	log.DefaultLogger = logger
}

// --- Version command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("finchat %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := api.NewServer(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		srv.Negotiate(ctx)
		cancel()

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		log.Info().Str("addr", addr).Msg("starting API server")
		return srv.ListenAndServe(addr)
	},
}

// --- Chat command ---

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask a one-shot financial question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		assistant, router := buildAssistant(cfg)

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		if err := router.Negotiate(ctx); err != nil {
			return fmt.Errorf("no generation backend available: %w", err)
		}

		reply := assistant.Respond(ctx, chat.NewSessionID(), args[0])
		fmt.Println(reply)
		return nil
	},
}

// --- Quote command ---

var quoteCmd = &cobra.Command{
	Use:   "quote [symbol]",
	Short: "Print the realtime quote for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := infra.NewClient(cfg.Upstream.Timeout(), cfg.Upstream.MaxRetries, cfg.Upstream.RetryDelay())
		market := rapidyahoo.New(cfg.Upstream, client)

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		quote := market.RealtimeQuote(ctx, args[0])
		if quote == nil {
			return fmt.Errorf("no quote available for %s", args[0])
		}

		out, err := json.MarshalIndent(quote, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

// buildAssistant wires the enrichment pipeline for CLI use.
func buildAssistant(cfg *config.Config) (*chat.Assistant, *llm.Router) {
	client := infra.NewClient(cfg.Upstream.Timeout(), cfg.Upstream.MaxRetries, cfg.Upstream.RetryDelay())
	market := rapidyahoo.New(cfg.Upstream, client)
	engine := fusion.NewEngine(market, fusion.WithMaxPages(cfg.Upstream.SearchPages))

	fallback := llm.ProviderOllama
	if cfg.LLM.Primary == llm.ProviderOllama {
		fallback = llm.ProviderLlama
	}
	router := llm.NewRouter(cfg.LLM.Primary, fallback)
	router.RegisterProvider(llm.NewLlamaProvider(cfg.LLM.LlamaURL, llm.WithLlamaModel(cfg.LLM.Model)))
	router.RegisterProvider(llm.NewOllamaProvider(cfg.LLM.OllamaURL, llm.WithOllamaModel(cfg.LLM.Model)))

	store := chat.NewStore(cfg.Chat.MaxHistoryTurns)
	assistant := chat.NewAssistant(engine, router, store, chat.WithGenerateOptions(llm.GenerateOptions{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		TopP:        cfg.LLM.TopP,
	}))
	return assistant, router
}
