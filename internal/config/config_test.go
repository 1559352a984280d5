package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("OPENAI_EXTRACTION_MODEL", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIExtractionModel)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
	assert.Equal(t, []string{"https://cloudmiami.com", "http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("OPENAI_EXTRACTION_MODEL", "gpt-4o-mini")
	t.Setenv("LLM_TIMEOUT_SECONDS", "30")
	t.Setenv("CHAT_HISTORY_LIMIT", "not-a-number")
	t.Setenv("NOTIFY_TO", "sales@cloudmiami.com, ops@cloudmiami.com")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("NOTIFY_FROM", "bot@cloudmiami.com")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIExtractionModel)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 10, cfg.ChatHistoryLimit)
	assert.Equal(t, []string{"sales@cloudmiami.com", "ops@cloudmiami.com"}, cfg.NotifyTo)
	assert.True(t, cfg.EmailEnabled())
	assert.False(t, cfg.SlackEnabled())
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := FromEnv()
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("lead saved", "email", "a@b.com")

	assert.Contains(t, stderr.String(), "lead saved")
	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, file.String(), `"msg":"lead saved"`)
}
