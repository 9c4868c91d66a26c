// Package config provides configuration loading for sprintforge-go.
// Configuration is loaded from (highest to lowest priority):
// 1. Environment variables (SPRINTFORGE_*)
// 2. Config file (sprintforge.yaml)
// 3. Defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sprintforge/sprintforge-go/internal/application/decision"
	"github.com/sprintforge/sprintforge-go/internal/domain/episode"
	chronicleinfra "github.com/sprintforge/sprintforge-go/internal/infrastructure/chronicle"
)

// Config holds all sprintforge configuration.
type Config struct {
	// Validator configures episode quality validation.
	Validator episode.ValidatorConfig `yaml:"validator" json:"validator"`

	// Decision configures the decision support service, including the
	// bridge, analyzer, and combiner thresholds.
	Decision decision.Config `yaml:"decision" json:"decision"`

	// Store configures episode persistence.
	Store StoreConfig `yaml:"store" json:"store"`

	// Chronicle configures the chronicle service client.
	Chronicle ChronicleConfig `yaml:"chronicle" json:"chronicle"`

	// EmbeddingDimensions is the local embedding dimensionality.
	EmbeddingDimensions int `yaml:"embedding_dimensions" json:"embeddingDimensions"`
}

// StoreConfig configures the episode store.
type StoreConfig struct {
	// Path is the SQLite database path; empty means in-memory.
	Path string `yaml:"path" json:"path"`
}

// ChronicleConfig configures the chronicle client.
type ChronicleConfig struct {
	// BaseURL is the chronicle service base URL; empty disables the source.
	BaseURL string `yaml:"base_url" json:"baseUrl"`

	// TimeoutSeconds bounds each chronicle request.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeoutSeconds"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Validator:           episode.DefaultValidatorConfig(),
		Decision:            decision.DefaultConfig(),
		Store:               StoreConfig{Path: "sprintforge.db"},
		Chronicle:           ChronicleConfig{TimeoutSeconds: 10},
		EmbeddingDimensions: 384,
	}
}

// Load reads configuration from the given file path (optional) and applies
// environment overrides on top of defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// ChronicleClientConfig converts to the chronicle client configuration.
func (c Config) ChronicleClientConfig() chronicleinfra.ClientConfig {
	return chronicleinfra.ClientConfig{
		BaseURL: c.Chronicle.BaseURL,
		Timeout: time.Duration(c.Chronicle.TimeoutSeconds) * time.Second,
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SPRINTFORGE_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("SPRINTFORGE_CHRONICLE_URL"); v != "" {
		cfg.Chronicle.BaseURL = v
	}
	if v, ok := envFloat("SPRINTFORGE_MIN_QUALITY"); ok {
		cfg.Validator.MinQualityScore = v
	}
	if v, ok := envFloat("SPRINTFORGE_MIN_SIMILARITY"); ok {
		cfg.Decision.Bridge.MinSimilarity = v
	}
	if v, ok := envFloat("SPRINTFORGE_MIN_PATTERN_CONFIDENCE"); ok {
		cfg.Decision.Combiner.MinPatternConfidence = v
	}
	if v, ok := envInt("SPRINTFORGE_EPISODE_LIMIT"); ok {
		cfg.Decision.EpisodeLimit = v
	}
}

func envFloat(key string) (float64, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
