package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("TOP_K", "")
	t.Setenv("MAX_OUTPUT_TOKENS", "")
	t.Setenv("REQUEST_TIMEOUT_MS", "")

	cfg := Load()
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, ModeProduction, cfg.Mode)
	assert.Equal(t, 4, cfg.TopK)
	assert.Equal(t, 1000, cfg.MaxOutputTokens)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "next-auth.session-token", cfg.SessionCookie)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "Development")
	t.Setenv("TOP_K", "7")
	t.Setenv("MAX_OUTPUT_TOKENS", "not-a-number")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 7, cfg.TopK)
	assert.Equal(t, 1000, cfg.MaxOutputTokens)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	t.Run("development skips credentials", func(t *testing.T) {
		cfg := &Config{Mode: ModeDevelopment}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("production requires secrets", func(t *testing.T) {
		cfg := &Config{
			Mode:            ModeProduction,
			TopK:            4,
			MaxOutputTokens: 1000,
			ModelProvider:   ProviderGemini,
			EmbedProvider:   ProviderOpenAI,
		}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SESSION_SECRET")
		assert.Contains(t, err.Error(), "GOOGLE_API_KEY")
		assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	})

	t.Run("production complete", func(t *testing.T) {
		cfg := &Config{
			Mode:            ModeProduction,
			SessionSecret:   "s",
			TopK:            4,
			MaxOutputTokens: 1000,
			ModelProvider:   ProviderOllama,
			EmbedProvider:   ProviderGemini,
			GoogleAPIKey:    "k",
		}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := &Config{Mode: ModeProduction, SessionSecret: "s", TopK: 1, MaxOutputTokens: 1, ModelProvider: "bard", EmbedProvider: ProviderOllama}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported provider: bard")
	})
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("chat answered", "doc_id", "d1")

	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), "doc_id=d1")
	assert.True(t, strings.Contains(file.String(), `"doc_id":"d1"`))
	assert.Contains(t, stderr.String(), "service=docchat")
	assert.Contains(t, file.String(), `"service":"docchat"`)
}

func TestSetupLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docchat.log")
	logger, closeLog := SetupLogger(path, slog.LevelInfo)
	logger.Info("chat answered", "doc_id", "d2")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"doc_id":"d2"`)
}

func TestSetupLoggerFallsBackToStderr(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "docchat.log")
	logger, closeLog := SetupLogger(path, slog.LevelInfo)
	require.NotNil(t, logger)
	assert.NoError(t, closeLog())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
