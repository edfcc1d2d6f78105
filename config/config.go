package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Infrastructure
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string
	MetricsAddr   string
	APIAddr       string

	// Analysis
	DefaultIndicators string // comma-separated indicator names
	HistorySize       int    // recent-results ring capacity

	// Alerting (optional; empty disables the channel)
	WebhookURL       string
	TelegramBotToken string
	TelegramChatID   string

	// Logging
	LogLevel string // debug, info, warn, error
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		SQLitePath:    getEnv("SQLITE_PATH", "data/analysis.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		APIAddr:       getEnv("API_ADDR", ":8080"),

		DefaultIndicators: getEnv("DEFAULT_INDICATORS", "sma,ema,rsi,bbands,macd,atr,vwap,ichimoku"),
		HistorySize:       getEnvInt("HISTORY_SIZE", 64),

		WebhookURL:       getEnv("WEBHOOK_URL", ""),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// ParseIndicators splits DefaultIndicators into a cleaned name list.
func (c *Config) ParseIndicators() []string {
	parts := strings.Split(c.DefaultIndicators, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		names = append(names, p)
	}
	return names
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s value %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
