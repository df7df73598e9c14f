package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
server:
  port: "9090"
  debug: true
  log_level: debug
  cors_origins:
    - http://localhost:3000

providers:
  - name: OpenAI
    code: openai
    url: https://api.openai.com/v1
    supports_schema: true
    api_key: sk-test
    models:
      - name: Small
        code: small-model
        max_tokens: 2048
      - name: Large
        code: large-model
        max_tokens: 8192
  - name: Local
    code: local
    url: http://localhost:11434/v1
    supports_schema: false
    models:
      - name: Llama
        code: llama-model

generation:
  max_retries: 5
  retry_delay: 500ms
  timeout: 30s
  default_model: small-model
  fallback_models:
    - large-model
  locale: en
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewConfig_LoadsYAML(t *testing.T) {
	t.Setenv("HIREQUIZ_CONFIG_FILE", writeTestConfig(t, testConfigYAML))

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)

	assert.Equal(t, 5, cfg.Generation.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Generation.RetryDelay)
	assert.Equal(t, 30*time.Second, cfg.Generation.Timeout)
	assert.Equal(t, "small-model", cfg.Generation.DefaultModel)
	assert.Equal(t, []string{"large-model"}, cfg.Generation.FallbackModels)
	assert.Equal(t, "en", cfg.Generation.Locale)

	require.Len(t, cfg.Providers, 2)
	assert.True(t, cfg.Providers[0].SupportsSchema)
	assert.False(t, cfg.Providers[1].SupportsSchema)
}

func TestNewConfig_AppliesDefaults(t *testing.T) {
	t.Setenv("HIREQUIZ_CONFIG_FILE", writeTestConfig(t, "server:\n  debug: false\n"))

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DefaultMaxRetries, cfg.Generation.MaxRetries)
	assert.Equal(t, DefaultRetryDelay, cfg.Generation.RetryDelay)
	assert.Equal(t, GenerationRequestTimeout, cfg.Generation.Timeout)
	assert.Equal(t, "it", cfg.Generation.Locale)
	assert.Equal(t, DefaultMaxConcurrentGenerations, cfg.Server.MaxConcurrentGenerations)
	assert.Equal(t, DefaultMaxPerCaller, cfg.Server.MaxPerCaller)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HIREQUIZ_CONFIG_FILE", writeTestConfig(t, testConfigYAML))
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("SERVER_DEBUG", "false")
	t.Setenv("GENERATION_MAX_RETRIES", "1")
	t.Setenv("GENERATION_RETRY_DELAY", "2s")
	t.Setenv("GENERATION_LOCALE", "de")
	t.Setenv("GENERATION_FALLBACK_MODELS", "llama-model,large-model")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.False(t, cfg.Server.Debug)
	assert.Equal(t, 1, cfg.Generation.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Generation.RetryDelay)
	assert.Equal(t, "de", cfg.Generation.Locale)
	assert.Equal(t, []string{"llama-model", "large-model"}, cfg.Generation.FallbackModels)
}

func TestNewConfig_MissingFile(t *testing.T) {
	t.Setenv("HIREQUIZ_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := NewConfig()
	assert.Error(t, err)
}

func TestProviderForModel(t *testing.T) {
	t.Setenv("HIREQUIZ_CONFIG_FILE", writeTestConfig(t, testConfigYAML))
	cfg, err := NewConfig()
	require.NoError(t, err)

	provider := cfg.ProviderForModel("llama-model")
	require.NotNil(t, provider)
	assert.Equal(t, "local", provider.Code)

	assert.Nil(t, cfg.ProviderForModel("unknown-model"))
}

func TestMaxTokensForModel(t *testing.T) {
	t.Setenv("HIREQUIZ_CONFIG_FILE", writeTestConfig(t, testConfigYAML))
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 8192, cfg.MaxTokensForModel("large-model"))
	// No configured limit falls back to the package default.
	assert.Equal(t, DefaultMaxTokens, cfg.MaxTokensForModel("llama-model"))
	assert.Equal(t, DefaultMaxTokens, cfg.MaxTokensForModel("unknown-model"))
}
