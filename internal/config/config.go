package config

import (
	"os"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	RedisAddr   string
	CORSOrigins string
	TablePrefix string
	// Delivery configuration
	WebhookTimeout time.Duration
	PolicyTTL      time.Duration
	DefaultLocale  string
	// Logging
	LogDir      string // empty = stdout only
	LogMaxFiles int
	Debug       bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    env,
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		CORSOrigins:    getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:    getTablePrefix(env),
		WebhookTimeout: getDuration("WEBHOOK_TIMEOUT", 15*time.Second),
		PolicyTTL:      getDuration("POLICY_TTL", 0), // 0 = policies persist until changed
		DefaultLocale:  getEnv("DEFAULT_LOCALE", "en"),
		LogDir:         getEnv("LOG_DIR", ""),
		LogMaxFiles:    10,
		Debug:          getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
