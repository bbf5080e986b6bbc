// Package config loads runtime configuration for the assistant memory
// subsystem from a YAML file, applying defaults for anything unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// JudgeConfig configures the judge model endpoint. The judge is typically a
// small local model served through an OpenAI-compatible API.
type JudgeConfig struct {
	ModelName      string `yaml:"model_name"`
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the judge call timeout as a duration.
func (j JudgeConfig) Timeout() time.Duration {
	return time.Duration(j.TimeoutSeconds) * time.Second
}

// MemoryConfig configures the long-term memory store and pipeline.
type MemoryConfig struct {
	// CollectionName is the vector collection holding memory records.
	CollectionName string `yaml:"collection_name"`

	// PeriodicInterval is N: the periodic judge fires every Nth user turn.
	PeriodicInterval int `yaml:"periodic_interval"`

	// RetrievalTopK bounds the synchronous read-path search.
	RetrievalTopK int `yaml:"retrieval_top_k"`

	// RetrievalMinScore drops weak matches on the read path.
	RetrievalMinScore float64 `yaml:"retrieval_min_score"`

	// ConsolidationTopK bounds the neighbor search during consolidation.
	ConsolidationTopK int `yaml:"consolidation_top_k"`
}

// LLMConfig configures the main conversational model.
type LLMConfig struct {
	ModelName string `yaml:"model_name"`
	MaxTokens int64  `yaml:"max_tokens"`
}

// EmbeddingConfig configures the local embedder.
type EmbeddingConfig struct {
	ModelPath     string `yaml:"model_path"`
	TokenizerPath string `yaml:"tokenizer_path"`
	LibraryPath   string `yaml:"library_path"`
	Dimensions    int    `yaml:"dimensions"`
}

// Config is the top-level runtime configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Judge     JudgeConfig     `yaml:"judge"`
	Memory    MemoryConfig    `yaml:"memory"`
	Embedding EmbeddingConfig `yaml:"embedding"`
}

// Default returns the production defaults.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			ModelName: "claude-sonnet-4-20250514",
			MaxTokens: 1024,
		},
		Judge: JudgeConfig{
			ModelName:      "qwen/qwen3-vl-4b",
			BaseURL:        "http://localhost:1234/v1",
			APIKey:         "no-key-required",
			TimeoutSeconds: 120,
		},
		Memory: MemoryConfig{
			CollectionName:    "long_term_memory",
			PeriodicInterval:  10,
			RetrievalTopK:     4,
			RetrievalMinScore: 0.35,
			ConsolidationTopK: 5,
		},
		Embedding: EmbeddingConfig{
			Dimensions: 384,
		},
	}
}

// Load reads a YAML config file and merges it over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Memory.PeriodicInterval < 1 {
		return fmt.Errorf("memory.periodic_interval must be >= 1, got %d", c.Memory.PeriodicInterval)
	}
	if c.Memory.RetrievalTopK < 1 {
		return fmt.Errorf("memory.retrieval_top_k must be >= 1, got %d", c.Memory.RetrievalTopK)
	}
	if c.Memory.RetrievalMinScore < 0 || c.Memory.RetrievalMinScore > 1 {
		return fmt.Errorf("memory.retrieval_min_score must be in [0,1], got %f", c.Memory.RetrievalMinScore)
	}
	if c.Judge.TimeoutSeconds < 1 {
		return fmt.Errorf("judge.timeout_seconds must be >= 1, got %d", c.Judge.TimeoutSeconds)
	}
	return nil
}
