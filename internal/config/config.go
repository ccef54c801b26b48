package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port          string
	DBPath        string
	JWTSecret     string
	TokenTTL      time.Duration
	CORSOrigins   []string
	MigrationsDir string

	// Wall-clock TTL for the cached top-logs query.
	TopLogsCacheTTL time.Duration

	// Asynchronous mail dispatch.
	MailMaxRetries int
	MailRetryDelay time.Duration

	// Pre-signed attachment upload URLs.
	UploadURLSecret string
	UploadURLTTL    time.Duration
}

func Load() Config {
	return Config{
		Port:            getEnv("PORT", "8080"),
		DBPath:          getEnv("DB_PATH", "./data/tasktracker.db"),
		JWTSecret:       getEnv("JWT_SECRET", "change-this-secret"),
		TokenTTL:        time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		CORSOrigins:     getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		MigrationsDir:   getEnv("MIGRATIONS_DIR", "./migrations"),
		TopLogsCacheTTL: time.Duration(getEnvInt("TOP_LOGS_CACHE_TTL_SECONDS", 60)) * time.Second,
		MailMaxRetries:  getEnvInt("MAIL_MAX_RETRIES", 5),
		MailRetryDelay:  time.Duration(getEnvInt("MAIL_RETRY_DELAY_SECONDS", 600)) * time.Second,
		UploadURLSecret: getEnv("UPLOAD_URL_SECRET", "change-this-upload-secret"),
		UploadURLTTL:    time.Duration(getEnvInt("UPLOAD_URL_TTL_MINUTES", 15)) * time.Minute,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
