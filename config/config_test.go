package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://wordpress", cfg.WordPress.BaseURL)
	assert.Equal(t, "mcp", cfg.WordPress.User)
	assert.Equal(t, "agent", cfg.WordPress.Password)
	assert.Equal(t, "SEO hotéis RJ, 5 estrelas, reservas", cfg.Context)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, ":8000", cfg.Server.FallbackAddr)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, int64(450), cfg.LLM.MaxTokens)
	assert.False(t, cfg.LLM.Enabled(), "no api key means no primary generator")
	assert.Empty(t, cfg.Fallback.URL)
	assert.Equal(t, 20, cfg.Redis.HistoryLimit)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 15*time.Second, Duration(cfg.WordPress.Timeout))
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WP_BASE_URL", "https://blog.example.com/")
	t.Setenv("WP_API_USER", "editor")
	t.Setenv("OPENAI_API_KEY", " sk-test ")
	t.Setenv("OPENAI_MODEL", "gpt-4.1")
	t.Setenv("MCP_CONTEXT", "SEO pousadas Paraty")
	t.Setenv("FALLBACK_AGENT_URL", "http://python-agent:8000/generate")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")
	t.Setenv("RUN_HISTORY_LIMIT", "5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://blog.example.com", cfg.WordPress.BaseURL, "trailing slash trimmed")
	assert.Equal(t, "editor", cfg.WordPress.User)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.True(t, cfg.LLM.Enabled())
	assert.Equal(t, "gpt-4.1", cfg.LLM.Model)
	assert.Equal(t, "SEO pousadas Paraty", cfg.Context)
	assert.Equal(t, "http://python-agent:8000/generate", cfg.Fallback.URL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, 5, cfg.Redis.HistoryLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
context: SEO resorts Búzios
wordpress:
  base_url: http://wp.internal
  timeout: 5000
llm:
  provider: mock
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("WP_API_PASS", "secret")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "SEO resorts Búzios", cfg.Context)
	assert.Equal(t, "http://wp.internal", cfg.WordPress.BaseURL)
	assert.Equal(t, "secret", cfg.WordPress.Password, "env wins over file")
	assert.Equal(t, 5*time.Second, Duration(cfg.WordPress.Timeout))
	assert.True(t, cfg.LLM.Enabled(), "mock provider needs no key")
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"relative wp url", map[string]string{"WP_BASE_URL": "wordpress"}},
		{"unknown provider", map[string]string{"LLM_PROVIDER": "bard"}},
		{"deepseek without base url", map[string]string{"LLM_PROVIDER": "deepseek", "OPENAI_API_KEY": "k"}},
		{"bad fallback url", map[string]string{"FALLBACK_AGENT_URL": "/generate"}},
		{"zero timeout", map[string]string{"WP_TIMEOUT_MS": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_DeepSeekWithBaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "DeepSeek")
	t.Setenv("OPENAI_API_KEY", "k")
	t.Setenv("OPENAI_BASE_URL", "https://api.deepseek.com/v1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ProviderDeepSeek, cfg.LLM.Provider)
}
