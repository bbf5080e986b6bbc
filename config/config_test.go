package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10, cfg.Memory.PeriodicInterval)
	assert.Equal(t, 4, cfg.Memory.RetrievalTopK)
	assert.Equal(t, 0.35, cfg.Memory.RetrievalMinScore)
	assert.Equal(t, 5, cfg.Memory.ConsolidationTopK)
	assert.Equal(t, "long_term_memory", cfg.Memory.CollectionName)
	assert.Equal(t, 120*time.Second, cfg.Judge.Timeout())
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
	assert.NoError(t, cfg.validate())
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
judge:
  model_name: llama3.2
  base_url: http://localhost:11434/v1
memory:
  periodic_interval: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "llama3.2", cfg.Judge.ModelName)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Judge.BaseURL)
	assert.Equal(t, 5, cfg.Memory.PeriodicInterval)

	// untouched fields keep their defaults
	assert.Equal(t, 120, cfg.Judge.TimeoutSeconds)
	assert.Equal(t, 4, cfg.Memory.RetrievalTopK)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.LLM.ModelName)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "judge: [not: a: mapping")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero interval", "memory:\n  periodic_interval: 0\n"},
		{"negative top_k", "memory:\n  retrieval_top_k: -1\n"},
		{"min score above one", "memory:\n  retrieval_min_score: 1.5\n"},
		{"zero judge timeout", "judge:\n  timeout_seconds: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
