package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultCORSOrigins = "https://cloudmiami.com,http://localhost:5173"
	devJWTSecret       = "dev-only-jwt-secret-change-me"
)

// ErrMissingJWTSecret is returned when production runs without JWT_SECRET.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set in production")

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort    string
	Environment string
	DatabaseURL string // Empty selects the in-memory store

	// LLM
	OpenAIKey             string
	OpenAIModel           string
	OpenAIExtractionModel string
	OpenAIBaseURL         string
	LLMTimeout            time.Duration
	ExtractionTimeout     time.Duration
	ChatHistoryLimit      int
	ExtractionWorkers     int

	// Notifications
	SMTPHost          string
	SMTPPort          int
	SMTPUser          string
	SMTPPassword      string
	NotifyFrom        string
	NotifyTo          []string
	NotifyMaxRetries  int
	AdminDashboardURL string
	SlackBotToken     string
	SlackChannelID    string

	// Admin
	AdminPassword     string
	AdminPasswordHash string
	JWTSecret         string
	TokenExpiration   time.Duration

	CalendarWebhookSecret string
	CORSAllowedOrigins    []string
	RateLimitPerMinute    int

	LogLevel slog.Level
	LogFile  string
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Could not load .env file, using environment variables only", "error", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment without touching .env.
func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		Environment: strings.ToLower(getEnv("APP_ENV", EnvDevelopment)),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		OpenAIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		LLMTimeout:        getSeconds("LLM_TIMEOUT_SECONDS", 60),
		ExtractionTimeout: getSeconds("EXTRACTION_TIMEOUT_SECONDS", 45),
		ChatHistoryLimit:  getInt("CHAT_HISTORY_LIMIT", 10),
		ExtractionWorkers: getInt("EXTRACTION_WORKERS", 4),

		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getInt("SMTP_PORT", 587),
		SMTPUser:          getEnv("SMTP_USER", ""),
		SMTPPassword:      getEnv("SMTP_PASS", ""),
		NotifyFrom:        getEnv("NOTIFY_FROM", ""),
		NotifyTo:          splitList(getEnv("NOTIFY_TO", "")),
		NotifyMaxRetries:  getInt("NOTIFY_MAX_RETRIES", 2),
		AdminDashboardURL: getEnv("ADMIN_DASHBOARD_URL", ""),
		SlackBotToken:     getEnv("SLACK_BOT_TOKEN", ""),
		SlackChannelID:    getEnv("SLACK_CHANNEL_ID", ""),

		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		TokenExpiration:   time.Hour * time.Duration(getInt("JWT_EXPIRATION_HOURS", 24)),

		CalendarWebhookSecret: getEnv("CALENDAR_WEBHOOK_SECRET", ""),
		CORSAllowedOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigins)),
		RateLimitPerMinute:    getInt("RATE_LIMIT_PER_MINUTE", 20),

		LogLevel: ParseLevel(getEnv("LOG_LEVEL", "INFO")),
		LogFile:  getEnv("LOG_FILE", ""),
	}
	cfg.OpenAIExtractionModel = getEnv("OPENAI_EXTRACTION_MODEL", cfg.OpenAIModel)

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, ErrMissingJWTSecret
		}
		slog.Warn("JWT_SECRET not set, using development secret")
		cfg.JWTSecret = devJWTSecret
	}
	if cfg.ExtractionWorkers < 1 {
		cfg.ExtractionWorkers = 1
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// EmailEnabled reports whether SMTP delivery is fully configured.
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != "" && c.NotifyFrom != "" && len(c.NotifyTo) > 0
}

func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackChannelID != ""
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		slog.Warn("Invalid integer in environment, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return n
}

func getSeconds(key string, fallback int) time.Duration {
	n := getInt(key, fallback)
	if n == 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
