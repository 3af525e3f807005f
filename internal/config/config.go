package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultSecret   = "dev-secret-change-me"
	defaultDatabase = "data/ticktock.db"
)

// Config keeps runtime settings for the API server.
type Config struct {
	Port           int
	Environment    string
	DatabaseURL    string
	SecretKey      string
	CORSOrigins    []string
	PushPublicKey  string
	PushPrivateKey string
	SessionTTL     time.Duration
	SessionStore   string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	AuthRateLimit  int
	SessionPurgeAt string
	LogLevel       string
	TrustedProxies []string
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:           parseInt(env("PORT"), 8080),
		Environment:    strings.ToLower(env("APP_ENV")),
		DatabaseURL:    firstNonEmpty(env("DATABASE_URL"), env("SQLITE_FILE")),
		SecretKey:      firstNonEmpty(env("SECRET_KEY"), env("JWT_SECRET")),
		CORSOrigins:    splitList(env("CORS_ORIGIN")),
		PushPublicKey:  env("WEB_PUSH_PUBLIC_KEY"),
		PushPrivateKey: env("WEB_PUSH_PRIVATE_KEY"),
		SessionTTL:     parseHours(env("SESSION_TTL_HOURS")),
		SessionStore:   strings.ToLower(env("SESSION_STORE")),
		RedisAddr:      env("REDIS_ADDR"),
		RedisPassword:  env("REDIS_PASSWORD"),
		RedisDB:        parseInt(env("REDIS_DB"), 0),
		AuthRateLimit:  parseInt(env("AUTH_RATE_LIMIT"), 50),
		SessionPurgeAt: env("SESSION_PURGE_AT"),
		LogLevel:       strings.ToLower(env("LOG_LEVEL")),
		TrustedProxies: splitList(env("TRUSTED_PROXIES")),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabase
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.SessionStore == "" {
		cfg.SessionStore = "sql"
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	if cfg.SessionPurgeAt == "" {
		cfg.SessionPurgeAt = "03:30"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.SecretKey == "" {
		if cfg.IsProduction() {
			return cfg, fmt.Errorf("SECRET_KEY is required in production")
		}
		cfg.SecretKey = defaultSecret
	}

	if cfg.SessionStore != "sql" && cfg.SessionStore != "redis" {
		return cfg, fmt.Errorf("SESSION_STORE must be sql or redis, got %q", cfg.SessionStore)
	}

	return cfg, nil
}

// IsProduction reports whether the server runs behind a real TLS frontend.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesDefaultSecret reports whether the development secret is in effect.
func (c Config) UsesDefaultSecret() bool {
	return c.SecretKey == defaultSecret
}

// CrossSiteCookies reports whether session cookies must be sent cross-site
// (Secure, SameSite=None).
func (c Config) CrossSiteCookies() bool {
	return c.IsProduction() || len(c.CORSOrigins) > 0
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func parseHours(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
