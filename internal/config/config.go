// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - Load layers a YAML file and RECO_ environment variables on top.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Dataset files. Ingredients and sales may be empty.
	ProductsPath    string `koanf:"products_path"`
	IngredientsPath string `koanf:"ingredients_path"`
	SalesPath       string `koanf:"sales_path"`

	// TopK is the default number of recommendations; MaxTopK caps ?k.
	TopK    int `koanf:"top_k"`
	MaxTopK int `koanf:"max_top_k"`

	// Ranking weights applied to similarity and popularity.
	SimilarityWeight float64 `koanf:"similarity_weight"`
	PopularityWeight float64 `koanf:"popularity_weight"`

	// Daily sales indices compared to compute the trend.
	TrendWindowStart int `koanf:"trend_window_start"`
	TrendWindowEnd   int `koanf:"trend_window_end"`

	// Language model provider (OpenAI-compatible chat completions).
	LLMBaseURL           string  `koanf:"llm_base_url"`
	LLMAPIKey            string  `koanf:"llm_api_key"`
	LLMModel             string  `koanf:"llm_model"`
	LLMTimeoutMS         int     `koanf:"llm_timeout_ms"`
	LLMMaxTokens         int     `koanf:"llm_max_tokens"`
	LLMTemperature       float64 `koanf:"llm_temperature"`
	LLMRequestsPerMinute int     `koanf:"llm_requests_per_minute"`

	// ExplainConcurrency bounds in-flight explanation calls per request.
	ExplainConcurrency int `koanf:"explain_concurrency"`

	// ExplainFallback replaces a recommendation explanation that failed.
	ExplainFallback string `koanf:"explain_fallback"`

	// ExplainCacheTTLSec is the lifetime of cached explanations; 0 disables caching.
	ExplainCacheTTLSec int `koanf:"explain_cache_ttl_sec"`

	// Redis backs the explanation cache when RedisAddr is set.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// Warm-up pre-generates listing descriptions at start.
	WarmupEnabled   bool `koanf:"warmup_enabled"`
	WarmupWorkers   int  `koanf:"warmup_workers"`
	WarmupQueueSize int  `koanf:"warmup_queue_size"`

	// CORSAllowedOrigins is a comma separated origin list.
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`

	// Per-client request limit over RateLimitWindowSec; 0 disables it.
	RateLimitRequests  int `koanf:"rate_limit_requests"`
	RateLimitWindowSec int `koanf:"rate_limit_window_sec"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		ProductsPath:         "data/products.json",
		IngredientsPath:      "data/ingredients.json",
		SalesPath:            "data/sales.json",
		TopK:                 3,
		MaxTopK:              50,
		SimilarityWeight:     1.0,
		PopularityWeight:     1.0,
		TrendWindowStart:     0,
		TrendWindowEnd:       3,
		LLMBaseURL:           "https://api.groq.com/openai/v1",
		LLMModel:             "llama-3.1-8b-instant",
		LLMTimeoutMS:         10_000,
		LLMMaxTokens:         120,
		LLMTemperature:       0.7,
		LLMRequestsPerMinute: 30,
		ExplainConcurrency:   3,
		ExplainFallback:      "",
		ExplainCacheTTLSec:   3600,
		RedisDB:              0,
		WarmupEnabled:        true,
		WarmupWorkers:        2,
		WarmupQueueSize:      1024,
		CORSAllowedOrigins:   "*",
		RateLimitRequests:    100,
		RateLimitWindowSec:   60,
	}
}

// Validate reports the first invalid setting, wrapped with ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ProductsPath == "":
		return fmt.Errorf("%w: products_path must not be empty", ErrInvalidConfig)
	case c.TopK < 0:
		return fmt.Errorf("%w: top_k must not be negative", ErrInvalidConfig)
	case c.MaxTopK < c.TopK:
		return fmt.Errorf("%w: max_top_k (%d) must be >= top_k (%d)", ErrInvalidConfig, c.MaxTopK, c.TopK)
	case c.TrendWindowStart < 0 || c.TrendWindowEnd <= c.TrendWindowStart:
		return fmt.Errorf("%w: trend window [%d,%d] is invalid", ErrInvalidConfig, c.TrendWindowStart, c.TrendWindowEnd)
	case c.LLMTimeoutMS <= 0:
		return fmt.Errorf("%w: llm_timeout_ms must be positive", ErrInvalidConfig)
	case c.LLMRequestsPerMinute < 0:
		return fmt.Errorf("%w: llm_requests_per_minute must not be negative", ErrInvalidConfig)
	case c.ExplainConcurrency <= 0:
		return fmt.Errorf("%w: explain_concurrency must be positive", ErrInvalidConfig)
	case c.ExplainCacheTTLSec < 0:
		return fmt.Errorf("%w: explain_cache_ttl_sec must not be negative", ErrInvalidConfig)
	case c.WarmupEnabled && (c.WarmupWorkers <= 0 || c.WarmupQueueSize <= 0):
		return fmt.Errorf("%w: warm-up needs positive workers and queue size", ErrInvalidConfig)
	case c.RateLimitRequests < 0 || (c.RateLimitRequests > 0 && c.RateLimitWindowSec <= 0):
		return fmt.Errorf("%w: rate limit settings are invalid", ErrInvalidConfig)
	}
	return nil
}

// LLMTimeout returns the per-call language model timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutMS) * time.Millisecond
}

// ExplainCacheTTL returns the explanation cache lifetime.
func (c *Config) ExplainCacheTTL() time.Duration {
	return time.Duration(c.ExplainCacheTTLSec) * time.Second
}

// RateLimitWindow returns the HTTP rate limit window.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSec) * time.Second
}

// AllowedOrigins splits CORSAllowedOrigins into trimmed, non-empty entries.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
