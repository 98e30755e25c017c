package config

import "time"

// Config is the root configuration for the retrieval engine.
type Config struct {
	Search    SearchConfig    `json:"search" yaml:"search"`
	LLM       LLMConfig       `json:"llm" yaml:"llm"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	Cache     CacheConfig     `json:"cache" yaml:"cache"`
	Session   SessionConfig   `json:"session" yaml:"session"`
	Retrieval RetrievalConfig `json:"retrieval" yaml:"retrieval"`
}

// SearchConfig configures the lexical+vector search backend.
type SearchConfig struct {
	Endpoint string            `json:"endpoint" yaml:"endpoint"`
	Username string            `json:"username,omitempty" yaml:"username,omitempty"`
	Password string            `json:"password,omitempty" yaml:"password,omitempty"`
	Indices  IndexNames        `json:"indices" yaml:"indices"`
	HTTP     *HTTPClientConfig `json:"http,omitempty" yaml:"http,omitempty"`
}

// IndexNames maps each evidence source to its index.
type IndexNames struct {
	Literature string `json:"literature" yaml:"literature"`
	Trials     string `json:"trials" yaml:"trials"`
	Drugs      string `json:"drugs" yaml:"drugs"`
}

// LLMConfig configures the generation backend.
type LLMConfig struct {
	APIKey         string  `json:"api_key,omitempty" yaml:"api_key"`
	BaseURL        string  `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model          string  `json:"model" yaml:"model"`
	EscalatedModel string  `json:"escalated_model,omitempty" yaml:"escalated_model,omitempty"`
	Temperature    float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens      int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// EmbeddingConfig configures the embedding model.
type EmbeddingConfig struct {
	Model      string `json:"model,omitempty" yaml:"model,omitempty"`
	Dimensions int    `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
}

// CacheConfig configures the shared cache. Provider is "memory" or "redis".
type CacheConfig struct {
	Provider           string `json:"provider,omitempty" yaml:"provider,omitempty"`
	Capacity           int    `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	RedisAddr          string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword      string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB            int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
	EmbeddingTTLSec    int    `json:"embedding_ttl_seconds,omitempty" yaml:"embedding_ttl_seconds,omitempty"`
	SearchResultTTLSec int    `json:"search_result_ttl_seconds,omitempty" yaml:"search_result_ttl_seconds,omitempty"`
}

// EmbeddingTTL returns the embedding cache lifetime.
func (c CacheConfig) EmbeddingTTL() time.Duration {
	return time.Duration(c.EmbeddingTTLSec) * time.Second
}

// SearchResultTTL returns the fused result cache lifetime.
func (c CacheConfig) SearchResultTTL() time.Duration {
	return time.Duration(c.SearchResultTTLSec) * time.Second
}

// SessionConfig configures session persistence. Provider is "memory" or "sqlite".
type SessionConfig struct {
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
}

// RetrievalConfig holds cross-agent retrieval knobs.
type RetrievalConfig struct {
	MaxResults    int    `json:"max_results,omitempty" yaml:"max_results,omitempty"`
	Strategy      string `json:"strategy,omitempty" yaml:"strategy,omitempty"` // weighted or rrf
	RRFK          int    `json:"rrf_k,omitempty" yaml:"rrf_k,omitempty"`
	RerankEnabled bool   `json:"rerank_enabled,omitempty" yaml:"rerank_enabled,omitempty"`
	RerankTopK    int    `json:"rerank_top_k,omitempty" yaml:"rerank_top_k,omitempty"`
	TimeoutMs     int    `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
}

// HTTPClientConfig tunes the outbound HTTP client.
type HTTPClientConfig struct {
	TimeoutMs              int      `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	Retry                  int      `json:"retry,omitempty" yaml:"retry,omitempty"`
	BackoffMinMs           int      `json:"backoff_min_ms,omitempty" yaml:"backoff_min_ms,omitempty"`
	BackoffMaxMs           int      `json:"backoff_max_ms,omitempty" yaml:"backoff_max_ms,omitempty"`
	HostAllowlist          []string `json:"host_allowlist,omitempty" yaml:"host_allowlist,omitempty"`
	MaxConsecutiveFailures int      `json:"max_consecutive_failures,omitempty" yaml:"max_consecutive_failures,omitempty"`
	CircuitOpenSeconds     int      `json:"circuit_open_seconds,omitempty" yaml:"circuit_open_seconds,omitempty"`
}

func (c *Config) applyDefaults() {
	if c.Cache.Provider == "" {
		c.Cache.Provider = "memory"
	}
	if c.Cache.Capacity <= 0 {
		c.Cache.Capacity = 2048
	}
	if c.Cache.EmbeddingTTLSec <= 0 {
		c.Cache.EmbeddingTTLSec = 86400 // 24h
	}
	if c.Cache.SearchResultTTLSec <= 0 {
		c.Cache.SearchResultTTLSec = 3600 // 1h
	}
	if c.Session.Provider == "" {
		c.Session.Provider = "memory"
	}
	if c.Retrieval.MaxResults <= 0 {
		c.Retrieval.MaxResults = 5
	}
	if c.Retrieval.Strategy == "" {
		c.Retrieval.Strategy = "weighted"
	}
	if c.Retrieval.RRFK <= 0 {
		c.Retrieval.RRFK = 60
	}
	if c.Retrieval.RerankTopK <= 0 {
		c.Retrieval.RerankTopK = 10
	}
	if c.Retrieval.TimeoutMs <= 0 {
		c.Retrieval.TimeoutMs = 10000
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.6
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 2048
	}
	if c.LLM.EscalatedModel == "" {
		c.LLM.EscalatedModel = c.LLM.Model
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 768
	}
}
