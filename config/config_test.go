package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "general:\n  log_level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.General.LogLevel)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "tinyllama", cfg.LLM.Model)
	assert.Equal(t, 0.2, cfg.LLM.Temperature)
	assert.Equal(t, 250, cfg.LLM.MaxTokens)
	assert.Equal(t, 0.9, cfg.LLM.TopP)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Tools.Timeout)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Storage.TTL)
	assert.Equal(t, 1000, cfg.Storage.MaxReports)
	assert.Equal(t, 3, cfg.Pipeline.QueryCount)
	assert.Equal(t, 10, cfg.Pipeline.MinImpactItems)
	assert.Equal(t, ":8001", cfg.Server.Address)
	assert.Equal(t, 5*time.Minute, cfg.Server.Timeout)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("MARKETINTEL_LLM_PROVIDER", "none")
	t.Setenv("MARKETINTEL_STORAGE_MAX_REPORTS", "5")
	t.Setenv("MARKETINTEL_TOOLS_REMOTE_URL", "http://tools:8001")

	cfg, err := LoadConfig(writeConfig(t, "server:\n  address: \"9000\"\n  timeout: 30s\n"))
	require.NoError(t, err)

	assert.Equal(t, "none", cfg.LLM.Provider)
	assert.Equal(t, 5, cfg.Storage.MaxReports)
	assert.Equal(t, "http://tools:8001", cfg.Tools.RemoteURL)
	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown llm provider", body: "llm:\n  provider: magic\n"},
		{name: "openai without key", body: "llm:\n  provider: openai\n"},
		{name: "tavily without key", body: "search:\n  provider: tavily\n"},
		{name: "unknown storage backend", body: "storage:\n  backend: s3\n"},
		{name: "zero query count", body: "pipeline:\n  query_count: 0\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
