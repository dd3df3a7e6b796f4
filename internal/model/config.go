package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the complete attrib configuration
type Config struct {
	Attribution  AttributionConfig `yaml:"attribution" mapstructure:"attribution"`
	Embedding    EmbeddingConfig   `yaml:"embedding" mapstructure:"embedding"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
}

// AttributionConfig controls the attribution engine itself
type AttributionConfig struct {
	Threshold       float64 `yaml:"threshold" mapstructure:"threshold" validate:"gte=0,lte=100"` // Minimum score (0-100) for a match
	Verbose         bool    `yaml:"verbose" mapstructure:"verbose"`                              // Per-segment diagnostic trace
	TokenizeContext bool    `yaml:"tokenize_context" mapstructure:"tokenize_context"`            // Split plain-text context into sentences
	UseEmbeddings   bool    `yaml:"use_embeddings" mapstructure:"use_embeddings"`                // Cosine matcher instead of fuzzy
}

// EmbeddingConfig selects and tunes the embedding backend
type EmbeddingConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider" validate:"oneof=hash openai ollama"`
	Model       string        `yaml:"model" mapstructure:"model"`
	APIKey      string        `yaml:"-" mapstructure:"api_key"` // never written to config files
	BaseURL     string        `yaml:"base_url,omitempty" mapstructure:"base_url" validate:"omitempty,url"`
	Dimensions  int           `yaml:"dimensions" mapstructure:"dimensions" validate:"gte=0"`
	BatchSize   int           `yaml:"batch_size" mapstructure:"batch_size" validate:"gte=0"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	LoadTimeout time.Duration `yaml:"load_timeout" mapstructure:"load_timeout" validate:"gte=0"` // 0 waits forever
}

// CacheConfig controls the embedding vector cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl" validate:"gte=0"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl" validate:"gte=0"`
}

// HTTPConfig applies to context pages fetched from URLs and remote embedders
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes" validate:"gt=0"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// ConcurrencyConfig sizes the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=1"`
}

// RateLimitConfig throttles remote calls per host
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gt=0"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size" validate:"gte=1"`
}

// OutputConfig controls how results are printed
type OutputConfig struct {
	Color bool `yaml:"color" mapstructure:"color"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Attribution: AttributionConfig{
			Threshold:       50,
			Verbose:         false,
			TokenizeContext: true,
			UseEmbeddings:   false,
		},
		Embedding: EmbeddingConfig{
			Provider:    "ollama",
			Model:       "", // provider default
			Dimensions:  0,
			BatchSize:   64,
			Timeout:     60 * time.Second,
			LoadTimeout: 2 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       defaultCacheDir(),
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "attrib/0.1 (+https://github.com/ppiankov/attrib)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Output: OutputConfig{
			Color: true,
		},
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "attrib")
	}
	return ".attrib-cache"
}

var validate = validator.New()

// Validate checks the full configuration
func (c *Config) Validate() error {
	return checkStruct(c)
}

// Validate checks the engine configuration
func (c AttributionConfig) Validate() error {
	return checkStruct(c)
}

func checkStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s (got %v)", fe.Namespace(), rule, fe.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(msgs, "; "))
}
