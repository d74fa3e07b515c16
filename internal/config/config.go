package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
}

type PostgresConfig struct {
	URL string `toml:"url"`
}

// VisionPrompts are the task-specific instruction profiles handed to the
// vision collaborator, one per extraction task. Each is a format template
// receiving the task parameters.
type VisionPrompts struct {
	SheetClassification  string `toml:"sheet_classification"`
	ComponentExtraction  string `toml:"component_extraction"`
	CrossingDetection    string `toml:"crossing_detection"`
	TerminationDetection string `toml:"termination_detection"`
}

type IngestConfig struct {
	BatchSize    int `toml:"batch_size"`
	BatchDelayMs int `toml:"batch_delay_ms"`
}

type RouterConfig struct {
	MaxResults      int     `toml:"max_results"`
	MinConfidence   float64 `toml:"min_confidence"`
	MaxVisualSheets int     `toml:"max_visual_sheets"`
}

type Config struct {
	LLM      LLMConfig      `toml:"llm"`
	Postgres PostgresConfig `toml:"postgres"`
	Vision   VisionPrompts  `toml:"vision"`
	Ingest   IngestConfig   `toml:"ingest"`
	Router   RouterConfig   `toml:"router"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a usable configuration when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Ingest.BatchSize < 2 {
		c.Ingest.BatchSize = 3
	}
	if c.Ingest.BatchSize > 3 {
		// Bounded by the vision collaborator's rate limits.
		c.Ingest.BatchSize = 3
	}
	if c.Ingest.BatchDelayMs <= 0 {
		c.Ingest.BatchDelayMs = 1500
	}
	if c.Router.MaxResults <= 0 {
		c.Router.MaxResults = 10
	}
	if c.Router.MinConfidence <= 0 {
		c.Router.MinConfidence = 0.3
	}
	if c.Router.MaxVisualSheets <= 0 {
		c.Router.MaxVisualSheets = 6
	}
}
