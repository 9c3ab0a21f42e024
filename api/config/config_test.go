package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_MAX_ATTEMPTS", "")
	t.Setenv("LLM_BASE_DELAY", "")
	t.Setenv("MODEL_PROVIDER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.ModelProvider)
	assert.Equal(t, 4, cfg.LLMMaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.LLMBaseDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.LLMMaxJitter)
	assert.Equal(t, 8, cfg.KeywordLimit)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LLM_MAX_ATTEMPTS", "0")
	t.Setenv("LLM_BASE_DELAY", "250")
	t.Setenv("LLM_MAX_JITTER", "1s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.LLMMaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.LLMBaseDelay)
	assert.Equal(t, time.Second, cfg.LLMMaxJitter)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}
