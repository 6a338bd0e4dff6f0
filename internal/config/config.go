package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Database      DatabaseConfig   `json:"database"`
	DocSource     DocSourceConfig  `json:"doc_source"`
	AI            AIConfig         `json:"ai"`
	Retrieval     RetrievalConfig  `json:"retrieval"`
	Context       ContextConfig    `json:"context"`
	Ingest        IngestConfig     `json:"ingest"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	// AskRateLimitSeconds throttles repeated /ask calls from one client.
	AskRateLimitSeconds int `json:"ask_rate_limit_seconds"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type DocSourceConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ProviderConfig struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type AIConfig struct {
	Generators []ProviderConfig `json:"generators"`
	Embedders  []ProviderConfig `json:"embedders"`
	// EmbedDim is the dimension of the vector index column. The embedding
	// model must produce vectors of exactly this size.
	EmbedDim           int `json:"embed_dim"`
	EmbedCacheSize     int `json:"embed_cache_size"`
	EmbedCacheTTLHours int `json:"embed_cache_ttl_hours"`
}

type RetrievalConfig struct {
	// Policy selects the fusion strategy: "interleave" or "weighted".
	Policy       string  `json:"policy"`
	K            int     `json:"k"`
	DenseWeight  float64 `json:"dense_weight"`
	SparseWeight float64 `json:"sparse_weight"`
}

type ContextConfig struct {
	// Budget is the maximum number of characters of chunk content that may
	// enter one prompt context.
	Budget int `json:"budget"`
}

type IngestConfig struct {
	// CronSpec, when non-empty, schedules a periodic re-scan of the document
	// source. Standard 5-field cron syntax.
	CronSpec string `json:"cron_spec"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.DocSource.Type == "" {
		cfg.DocSource.Type = "local"
	}
	if err := cfg.Retrieval.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Context.normalize(); err != nil {
		return nil, err
	}
	if cfg.AI.EmbedDim == 0 {
		cfg.AI.EmbedDim = 768
	}
	if cfg.AI.EmbedDim < 0 {
		return nil, fmt.Errorf("ai.embed_dim must be positive, got %d", cfg.AI.EmbedDim)
	}
	if cfg.AI.EmbedCacheSize == 0 {
		cfg.AI.EmbedCacheSize = 10000
	}
	if cfg.AI.EmbedCacheTTLHours == 0 {
		cfg.AI.EmbedCacheTTLHours = 24
	}
	return &cfg, nil
}

func (c *RetrievalConfig) normalize() error {
	if c.Policy == "" {
		c.Policy = "interleave"
	}
	if c.Policy != "interleave" && c.Policy != "weighted" {
		return fmt.Errorf("retrieval.policy must be interleave or weighted, got %q", c.Policy)
	}
	if c.K == 0 {
		c.K = 6
	}
	if c.K < 0 {
		return fmt.Errorf("retrieval.k must be positive, got %d", c.K)
	}
	if c.DenseWeight == 0 && c.SparseWeight == 0 {
		c.DenseWeight = 0.3
		c.SparseWeight = 0.7
	}
	if c.DenseWeight < 0 || c.SparseWeight < 0 || c.DenseWeight+c.SparseWeight <= 0 {
		return fmt.Errorf("retrieval weights must be non-negative and sum to a positive value")
	}
	return nil
}

func (c *ContextConfig) normalize() error {
	if c.Budget == 0 {
		c.Budget = 4000
	}
	if c.Budget < 0 {
		return fmt.Errorf("context.budget must be positive, got %d", c.Budget)
	}
	return nil
}
