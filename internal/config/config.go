// Package config loads process configuration via viper, mirroring the
// teacher's nested Config shape (config.Conversation.MaxRounds et al.).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration object, populated from config.yaml plus
// environment overrides with the RETRIEVAL_ prefix (e.g. RETRIEVAL_DATABASE_DSN).
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Reranker  RerankerConfig  `mapstructure:"reranker"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Chat      ChatConfig      `mapstructure:"chat"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	HTTP      HTTPConfig      `mapstructure:"http"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EmbeddingConfig selects and parameterizes the embedding provider (C2).
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"` // "local" | "api"
	Model      string `mapstructure:"model"`
	Dimension  int    `mapstructure:"dimension"`
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Device     string `mapstructure:"device"` // "cpu" | "gpu", local only
}

// RerankerConfig selects and parameterizes the cross-encoder reranker (C3).
type RerankerConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Provider      string `mapstructure:"provider"`
	Model         string `mapstructure:"model"`
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	Device        string `mapstructure:"device"`
	MaxCandidates int    `mapstructure:"max_candidates"`
	BatchSize     int    `mapstructure:"batch_size"`
}

// LLMConfig configures the unified LLM Gateway (C4).
type LLMConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	FastModel     string        `mapstructure:"fast_model"`
	SlowModel     string        `mapstructure:"slow_model"`
	RPM           int           `mapstructure:"rpm"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// BatchConfig configures the batch orchestrator (C7).
type BatchConfig struct {
	BaseURL             string        `mapstructure:"base_url"`
	APIKey              string        `mapstructure:"api_key"`
	Model               string        `mapstructure:"model"`
	EntitiesPerBatch    int           `mapstructure:"entities_per_batch"`
	PollIntervalSeconds int           `mapstructure:"poll_interval_seconds"`
	HTTPTimeoutSeconds  int           `mapstructure:"http_timeout_seconds"`
	SentDir             string        `mapstructure:"sent_dir"`
	ReceivedDir         string        `mapstructure:"received_dir"`
	MaxFieldChars       int           `mapstructure:"max_field_chars"`
	CompletionWindow    time.Duration `mapstructure:"completion_window"`
}

// WorkerConfig configures the enrichment worker loops (C6).
type WorkerConfig struct {
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`
	BackoffSeconds      int `mapstructure:"backoff_seconds"`
	MaxBackoffSeconds   int `mapstructure:"max_backoff_seconds"`
	PageSize            int `mapstructure:"page_size"`
	PoolSize            int `mapstructure:"pool_size"`
	SummarizeBatchSize  int `mapstructure:"summarize_batch_size"`
}

// ChatConfig configures the RAG chat engine (C10).
type ChatConfig struct {
	MinInputLength      int     `mapstructure:"min_input_length"`
	MaxInputLength      int     `mapstructure:"max_input_length"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	TopKDocs            int     `mapstructure:"top_k_docs"`
	TopKQAs             int     `mapstructure:"top_k_qas"`
	TopKIssues          int     `mapstructure:"top_k_issues"`
	TopKForum           int     `mapstructure:"top_k_forum"`
}

// RateLimitConfig configures the HTTP surface's per-IP rate limiter (C11).
type RateLimitConfig struct {
	SimilarityRPM int `mapstructure:"similarity_rpm"`
	EmbeddingRPM  int `mapstructure:"embedding_rpm"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration from the given file path (if present) and
// environment variables, applying defaults for anything unset.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("RETRIEVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_idle_time", 5*time.Minute)
	v.SetDefault("database.connect_timeout", 10*time.Second)

	v.SetDefault("embedding.provider", "local")
	v.SetDefault("embedding.dimension", 768)
	v.SetDefault("embedding.device", "cpu")

	v.SetDefault("reranker.enabled", true)
	v.SetDefault("reranker.max_candidates", 50)
	v.SetDefault("reranker.batch_size", 16)

	v.SetDefault("llm.rpm", 60)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", 2*time.Second)
	v.SetDefault("llm.request_timeout", 30*time.Second)
	v.SetDefault("llm.fast_model", "fast")
	v.SetDefault("llm.slow_model", "slow")

	v.SetDefault("batch.entities_per_batch", 100)
	v.SetDefault("batch.poll_interval_seconds", 60)
	v.SetDefault("batch.http_timeout_seconds", 120)
	v.SetDefault("batch.sent_dir", "batch/sent")
	v.SetDefault("batch.received_dir", "batch/received")
	v.SetDefault("batch.max_field_chars", 2000)
	v.SetDefault("batch.completion_window", 24*time.Hour)

	v.SetDefault("worker.poll_interval_seconds", 30)
	v.SetDefault("worker.backoff_seconds", 5)
	v.SetDefault("worker.max_backoff_seconds", 300)
	v.SetDefault("worker.page_size", 50)
	v.SetDefault("worker.pool_size", 8)
	v.SetDefault("worker.summarize_batch_size", 300)

	v.SetDefault("chat.min_input_length", 3)
	v.SetDefault("chat.max_input_length", 4000)
	v.SetDefault("chat.similarity_threshold", 0.5)
	v.SetDefault("chat.top_k_docs", 5)
	v.SetDefault("chat.top_k_qas", 5)
	v.SetDefault("chat.top_k_issues", 5)
	v.SetDefault("chat.top_k_forum", 5)

	v.SetDefault("rate_limit.similarity_rpm", 10)
	v.SetDefault("rate_limit.embedding_rpm", 100)

	v.SetDefault("http.addr", ":8080")
}
