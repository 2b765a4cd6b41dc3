package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_LoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	configJSON := `{
		"http_port": 8080,
		"metrics_port": 9191,
		"log_level": "debug",
		"db_path": "/tmp/test.db",
		"openai": {
			"api_key": "test-key",
			"model": "gpt-4o-mini",
			"timeout": "20s"
		},
		"agent": {
			"max_iterations": 3,
			"query_timeout": "1m"
		}
	}`
	require.NoError(t, os.WriteFile(configPath, []byte(configJSON), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 9191, cfg.MetricsPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "test-key", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 20*time.Second, cfg.OpenAI.Timeout.Duration)
	assert.Equal(t, 3, cfg.Agent.MaxIterations)
	assert.Equal(t, time.Minute, cfg.Agent.QueryTimeout.Duration)
}

func TestConfig_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, 9090, cfg.MetricsPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAI.Model)
	assert.Equal(t, 30*time.Second, cfg.OpenAI.Timeout.Duration)
	assert.Equal(t, 5, cfg.Agent.MaxIterations)
	assert.Equal(t, "env-key", cfg.OpenAI.APIKey)
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("HTTP_PORT", "8123")
	t.Setenv("DB_PATH", "/tmp/override.db")
	t.Setenv("AGENT_MAX_ITERATIONS", "7")
	t.Setenv("AGENT_QUERY_TIMEOUT", "90s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 8123, cfg.HTTPPort)
	assert.Equal(t, "/tmp/override.db", cfg.DBPath)
	assert.Equal(t, 7, cfg.Agent.MaxIterations)
	assert.Equal(t, 90*time.Second, cfg.Agent.QueryTimeout.Duration)
}

func TestConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "bad port",
			env:  map[string]string{"OPENAI_API_KEY": "k", "HTTP_PORT": "not-a-port"},
		},
		{
			name: "bad log level",
			env:  map[string]string{"OPENAI_API_KEY": "k", "LOG_LEVEL": "loud"},
		},
		{
			name: "bad timeout",
			env:  map[string]string{"OPENAI_API_KEY": "k", "OPENAI_TIMEOUT": "soon"},
		},
		{
			name: "zero iterations",
			env:  map[string]string{"OPENAI_API_KEY": "k", "AGENT_MAX_ITERATIONS": "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestConfig_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.json")
	assert.Error(t, err)
}
