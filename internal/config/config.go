// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AIConfig struct {
	OpenAIKey       string        `yaml:"openai_key"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"` // OpenAI-compatible gateways
	GeminiKey       string        `yaml:"gemini_key"`
	GeminiURL       string        `yaml:"gemini_url"`
	DefaultModel    string        `yaml:"default_model"`
	VerifierModel   string        `yaml:"verifier_model"`
	SuggestionModel string        `yaml:"suggestion_model"`
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent AI calls
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

type TranslationConfig struct {
	MaxChunkChars       int           `yaml:"max_chunk_chars"`
	MaxChunkTokens      int           `yaml:"max_chunk_tokens"`
	TokenEncoding       string        `yaml:"token_encoding"` // tiktoken encoding; empty uses a rune estimate
	Parallelism         int           `yaml:"parallelism"`
	MaxRetries          int           `yaml:"max_retries"`
	BaseBackoff         time.Duration `yaml:"base_backoff"`
	QualityThreshold    float64       `yaml:"quality_threshold"`
	CostPerWord         float64       `yaml:"cost_per_word"`
	DefaultOutputFormat string        `yaml:"default_output_format"`
	MaxUploadMB         int           `yaml:"max_upload_mb"`
}

type JobsConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	SweepInterval   time.Duration `yaml:"sweep_interval"`
	SweepRetryDelay time.Duration `yaml:"sweep_retry_delay"`
	Workers         int           `yaml:"workers"`
	QueueSize       int           `yaml:"queue_size"`
}

type ChatsConfig struct {
	RetentionDays int           `yaml:"retention_days"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	JWTSecret       string        `yaml:"jwt_secret"`
	CookieName      string        `yaml:"cookie_name"`
	UploadRateLimit int           `yaml:"upload_rate_limit"` // uploads per user per minute
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

type Config struct {
	Log         LogConfig         `yaml:"log"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	AI          AIConfig          `yaml:"ai"`
	Translation TranslationConfig `yaml:"translation"`
	Jobs        JobsConfig        `yaml:"jobs"`
	Chats       ChatsConfig       `yaml:"chats"`
	HTTP        HTTPConfig        `yaml:"http"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path. Secrets left empty in the file are
// taken from the environment.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse applies defaults and minimal validation to raw YAML.
func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	fromEnv(&cfg)
	ApplyDefaults(&cfg)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.HTTP.JWTSecret == "" {
		return nil, errors.New("http.jwt_secret is required")
	}
	if cfg.AI.OpenAIKey == "" && cfg.AI.GeminiKey == "" {
		return nil, errors.New("ai.openai_key or ai.gemini_key is required")
	}
	if cfg.Translation.QualityThreshold < 0 || cfg.Translation.QualityThreshold > 1 {
		return nil, errors.New("translation.quality_threshold must be within [0,1]")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// LoadLocal is the CLI variant: the file is optional and only an AI provider
// key is required.
func LoadLocal(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	fromEnv(&cfg)
	ApplyDefaults(&cfg)
	if cfg.AI.OpenAIKey == "" && cfg.AI.GeminiKey == "" {
		return nil, errors.New("set OPENAI_API_KEY or GEMINI_API_KEY")
	}
	cfg.Runtime.Dev = true
	return &cfg, nil
}

// ApplyDefaults fills every zero value that has a sensible default.
func ApplyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gemini-2.5-pro"
	}
	if cfg.AI.VerifierModel == "" {
		cfg.AI.VerifierModel = "gpt-4o"
	}
	if cfg.AI.SuggestionModel == "" {
		cfg.AI.SuggestionModel = cfg.AI.DefaultModel
	}
	if cfg.AI.RequestTimeout <= 0 {
		cfg.AI.RequestTimeout = 2 * time.Minute
	}

	t := &cfg.Translation
	if t.MaxChunkChars <= 0 {
		t.MaxChunkChars = 8000
	}
	if t.MaxChunkTokens <= 0 {
		t.MaxChunkTokens = 4000
	}
	if t.Parallelism <= 0 {
		t.Parallelism = 4
	}
	if t.MaxRetries < 0 {
		t.MaxRetries = 0
	} else if t.MaxRetries == 0 {
		t.MaxRetries = 3
	}
	if t.BaseBackoff <= 0 {
		t.BaseBackoff = 500 * time.Millisecond
	}
	if t.QualityThreshold == 0 {
		t.QualityThreshold = 0.7
	}
	if t.CostPerWord <= 0 {
		t.CostPerWord = 0.05
	}
	if t.DefaultOutputFormat == "" {
		t.DefaultOutputFormat = "markdown"
	}
	if t.MaxUploadMB <= 0 {
		t.MaxUploadMB = 25
	}

	if cfg.Jobs.TTL <= 0 {
		cfg.Jobs.TTL = 2 * time.Hour
	}
	if cfg.Jobs.SweepInterval <= 0 {
		cfg.Jobs.SweepInterval = 2 * time.Hour
	}
	if cfg.Jobs.SweepRetryDelay <= 0 {
		cfg.Jobs.SweepRetryDelay = 10 * time.Minute
	}
	if cfg.Jobs.Workers <= 0 {
		cfg.Jobs.Workers = 4
	}
	if cfg.Jobs.QueueSize <= 0 {
		cfg.Jobs.QueueSize = 64
	}

	if cfg.Chats.RetentionDays <= 0 {
		cfg.Chats.RetentionDays = 90
	}
	if cfg.Chats.SweepInterval <= 0 {
		cfg.Chats.SweepInterval = 24 * time.Hour
	}

	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.CookieName == "" {
		cfg.HTTP.CookieName = "doc_session"
	}
	if cfg.HTTP.UploadRateLimit <= 0 {
		cfg.HTTP.UploadRateLimit = 10
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 60 * time.Second
	}
}

func fromEnv(cfg *Config) {
	setIfEmpty(&cfg.Database.URL, "DATABASE_URL")
	setIfEmpty(&cfg.Redis.URL, "REDIS_URL")
	setIfEmpty(&cfg.AI.OpenAIKey, "OPENAI_API_KEY")
	setIfEmpty(&cfg.AI.GeminiKey, "GEMINI_API_KEY")
	setIfEmpty(&cfg.HTTP.JWTSecret, "JWT_SECRET")
}

func setIfEmpty(dst *string, env string) {
	if *dst == "" {
		*dst = os.Getenv(env)
	}
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
