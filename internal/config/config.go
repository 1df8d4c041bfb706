// Package config handles configuration loading for finchat.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Upstream UpstreamConfig `mapstructure:"upstream" yaml:"upstream"`
	LLM      LLMConfig      `mapstructure:"llm"      yaml:"llm"`
	Chat     ChatConfig     `mapstructure:"chat"     yaml:"chat"`
	News     NewsConfig     `mapstructure:"news"     yaml:"news"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// UpstreamConfig holds the RapidAPI finance endpoints and the shared
// fetch policy (timeout, retry budget, backoff base).
type UpstreamConfig struct {
	TickersURL    string `mapstructure:"tickers_url"     yaml:"tickers_url"`
	QuoteURL      string `mapstructure:"quote_url"       yaml:"quote_url"`
	EsgURL        string `mapstructure:"esg_url"         yaml:"esg_url"` // %s is the symbol
	TickersHost   string `mapstructure:"tickers_host"    yaml:"tickers_host"`
	EsgHost       string `mapstructure:"esg_host"        yaml:"esg_host"`
	RapidAPIKey   string `mapstructure:"rapidapi_key"    yaml:"rapidapi_key"`
	TimeoutSec    int    `mapstructure:"timeout_sec"     yaml:"timeout_sec"`
	MaxRetries    int    `mapstructure:"max_retries"     yaml:"max_retries"`
	RetryDelaySec int    `mapstructure:"retry_delay_sec" yaml:"retry_delay_sec"`
	SearchPages   int    `mapstructure:"search_pages"    yaml:"search_pages"`
}

// Timeout returns the per-call HTTP timeout.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSec) * time.Second
}

// RetryDelay returns the base backoff delay.
func (u UpstreamConfig) RetryDelay() time.Duration {
	return time.Duration(u.RetryDelaySec) * time.Second
}

// LLMConfig holds generation backend configuration.
type LLMConfig struct {
	Primary     string  `mapstructure:"primary"      yaml:"primary"` // "llama" or "ollama"
	LlamaURL    string  `mapstructure:"llama_url"    yaml:"llama_url"`
	OllamaURL   string  `mapstructure:"ollama_url"   yaml:"ollama_url"`
	Model       string  `mapstructure:"model"        yaml:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"   yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"  yaml:"temperature"`
	TopP        float64 `mapstructure:"top_p"        yaml:"top_p"`
	TimeoutSec  int     `mapstructure:"timeout_sec"  yaml:"timeout_sec"`
}

// ChatConfig holds conversation/session settings.
type ChatConfig struct {
	MaxHistoryTurns int `mapstructure:"max_history_turns" yaml:"max_history_turns"`
}

// NewsConfig holds the RSS news enrichment settings.
type NewsConfig struct {
	MarketFeedURL string `mapstructure:"market_feed_url" yaml:"market_feed_url"`
	SymbolFeedURL string `mapstructure:"symbol_feed_url" yaml:"symbol_feed_url"` // %s is the symbol
	Limit         int    `mapstructure:"limit"           yaml:"limit"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.finchat/config.yaml (home directory)
//  3. /etc/finchat/config.yaml (system)
//
// Environment variables override config file values.
// Format: FINCHAT_<SECTION>_<KEY>, e.g., FINCHAT_UPSTREAM_RAPIDAPI_KEY
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".finchat"))
	}
	v.AddConfigPath("/etc/finchat")

	v.SetEnvPrefix("FINCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No config file is fine; defaults plus env carry the day.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// LoadFromFile reads the configuration from an explicit file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("FINCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 2500)
	v.SetDefault("api.cors_origins", []string{"*"})

	v.SetDefault("upstream.tickers_url", "https://yahoo-finance15.p.rapidapi.com/api/v2/markets/tickers")
	v.SetDefault("upstream.quote_url", "https://yahoo-finance15.p.rapidapi.com/api/v1/markets/quote")
	v.SetDefault("upstream.esg_url", "https://yahoo-finance127.p.rapidapi.com/esg-scores/%s")
	v.SetDefault("upstream.tickers_host", "yahoo-finance15.p.rapidapi.com")
	v.SetDefault("upstream.esg_host", "yahoo-finance127.p.rapidapi.com")
	v.SetDefault("upstream.rapidapi_key", "")
	v.SetDefault("upstream.timeout_sec", 10)
	v.SetDefault("upstream.max_retries", 3)
	v.SetDefault("upstream.retry_delay_sec", 2)
	v.SetDefault("upstream.search_pages", 5)

	v.SetDefault("llm.primary", "llama")
	v.SetDefault("llm.llama_url", "http://localhost:8080")
	v.SetDefault("llm.ollama_url", "http://localhost:11434")
	v.SetDefault("llm.model", "finance-chat")
	v.SetDefault("llm.max_tokens", 800)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.top_p", 0.95)
	v.SetDefault("llm.timeout_sec", 300)

	v.SetDefault("chat.max_history_turns", 20)

	v.SetDefault("news.market_feed_url", "https://finance.yahoo.com/news/rssindex")
	v.SetDefault("news.symbol_feed_url", "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US")
	v.SetDefault("news.limit", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}
