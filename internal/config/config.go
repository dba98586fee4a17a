// Package config provides configuration for the document chat service.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Mode values for APP_ENV.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Provider names shared by MODEL_PROVIDER and EMBED_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderMock   = "mock"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int
	Mode     string

	// Database
	DatabaseURL string

	// Session provider
	SessionSecret string
	SessionCookie string

	// Similarity index
	WeaviateURL    string
	WeaviateAPIKey string
	WeaviateClass  string
	TopK           int

	// Models
	ModelProvider   string
	ChatModel       string
	EmbedProvider   string
	EmbedModel      string
	GoogleAPIKey    string
	OpenAIAPIKey    string
	OllamaHost      string
	MaxOutputTokens int

	// Timeouts
	RequestTimeout time.Duration

	// WebSocket settings
	WSMaxMessageSize int64
	WSWriteTimeout   time.Duration

	// Logging
	LogLevel slog.Level
	LogFile  string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:         getEnvInt("HTTP_PORT", 8080),
		Mode:             strings.ToLower(getEnv("APP_ENV", ModeProduction)),
		DatabaseURL:      getEnv("DATABASE_URL", "file:docchat.db?cache=shared&mode=rwc"),
		SessionSecret:    getEnv("SESSION_SECRET", ""),
		SessionCookie:    getEnv("SESSION_COOKIE", "next-auth.session-token"),
		WeaviateURL:      getEnv("WEAVIATE_URL", "http://localhost:8081"),
		WeaviateAPIKey:   getEnv("WEAVIATE_API_KEY", ""),
		WeaviateClass:    getEnv("WEAVIATE_CLASS", "DocumentChunk"),
		TopK:             getEnvInt("TOP_K", 4),
		ModelProvider:    strings.ToLower(getEnv("MODEL_PROVIDER", ProviderGemini)),
		ChatModel:        getEnv("CHAT_MODEL", "gemini-2.0-flash"),
		EmbedProvider:    strings.ToLower(getEnv("EMBED_PROVIDER", ProviderGemini)),
		EmbedModel:       getEnv("EMBED_MODEL", "text-embedding-004"),
		GoogleAPIKey:     getEnv("GOOGLE_API_KEY", ""),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OllamaHost:       getEnv("OLLAMA_HOST", "http://localhost:11434"),
		MaxOutputTokens:  getEnvInt("MAX_OUTPUT_TOKENS", 1000),
		RequestTimeout:   time.Duration(getEnvInt("REQUEST_TIMEOUT_MS", 30000)) * time.Millisecond,
		WSMaxMessageSize: int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 65536)),
		WSWriteTimeout:   time.Duration(getEnvInt("WS_WRITE_TIMEOUT_MS", 10000)) * time.Millisecond,
		LogLevel:         parseLogLevel(getEnv("LOG_LEVEL", "INFO")),
		LogFile:          getEnv("LOG_FILE", "/tmp/docchat.log"),
	}
	return cfg
}

// IsDevelopment reports whether the simulated responder should be used.
func (c *Config) IsDevelopment() bool {
	return c.Mode == ModeDevelopment
}

// Validate checks that production settings carry the credentials they need.
func (c *Config) Validate() error {
	if c.IsDevelopment() {
		return nil
	}
	var errs []error
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	if c.TopK <= 0 {
		errs = append(errs, fmt.Errorf("TOP_K must be positive, got %d", c.TopK))
	}
	if c.MaxOutputTokens <= 0 {
		errs = append(errs, fmt.Errorf("MAX_OUTPUT_TOKENS must be positive, got %d", c.MaxOutputTokens))
	}
	for _, p := range []string{c.ModelProvider, c.EmbedProvider} {
		switch p {
		case ProviderGemini:
			if c.GoogleAPIKey == "" {
				errs = append(errs, errors.New("GOOGLE_API_KEY is required for the gemini provider"))
			}
		case ProviderOpenAI:
			if c.OpenAIAPIKey == "" {
				errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
			}
		case ProviderOllama, ProviderMock:
		default:
			errs = append(errs, fmt.Errorf("unsupported provider: %s", p))
		}
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
