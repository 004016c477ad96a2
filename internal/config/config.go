package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port           string
	RequestTimeout time.Duration
	// Storage
	Storage       string
	DatabaseURL   string
	SQLitePath    string
	WatchlistPath string
	// Cache
	CacheBackend   string
	CacheRetention time.Duration
	// Redis (shared caches, idempotency)
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	IdempotencyBackend string
	IdempotencyTTL     time.Duration
	// Providers
	YahooBaseURL       string
	AlphaVantageURL    string
	AlphaVantageAPIKey string
	ProviderTimeout    time.Duration
	Throttle           time.Duration
	RateLimitCooldown  time.Duration
	MockFallback       bool
	MockTablePath      string
	// Worker
	WarmSchedule string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func boolDef(s string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return b
}

func msDef(key string, def int) time.Duration {
	return time.Duration(atoiDef(getEnv(key, ""), def)) * time.Millisecond
}

// Load reads environment variables and applies defaults.
func Load() Config {
	return Config{
		Env:                getEnv("ENV", "local"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Port:               getEnv("PORT", "8080"),
		RequestTimeout:     msDef("REQUEST_TIMEOUT_MS", 60000),
		Storage:            getEnv("STORAGE", "sqlite"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		SQLitePath:         getEnv("SQLITE_PATH", "data/portfolio.db"),
		WatchlistPath:      getEnv("WATCHLIST_PATH", "data/state.json"),
		CacheBackend:       getEnv("CACHE_BACKEND", "memory"),
		CacheRetention:     msDef("CACHE_RETENTION_MS", 0),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            atoiDef(getEnv("REDIS_DB", "0"), 0),
		IdempotencyBackend: getEnv("IDEMPOTENCY_BACKEND", "none"),
		IdempotencyTTL:     msDef("IDEMPOTENCY_TTL_MS", 86400000),
		YahooBaseURL:       getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
		AlphaVantageURL:    getEnv("ALPHAVANTAGE_BASE_URL", "https://www.alphavantage.co"),
		AlphaVantageAPIKey: getEnv("ALPHAVANTAGE_API_KEY", ""),
		ProviderTimeout:    msDef("PROVIDER_TIMEOUT_MS", 10000),
		Throttle:           msDef("THROTTLE_MS", 1200),
		RateLimitCooldown:  msDef("RATE_LIMIT_COOLDOWN_MS", 2000),
		MockFallback:       boolDef(getEnv("MOCK_FALLBACK", "true"), true),
		MockTablePath:      getEnv("MOCK_TABLE_PATH", ""),
		WarmSchedule:       getEnv("WARM_SCHEDULE", "@every 5m"),
	}
}

// IsProd reports whether debug-only surfaces must stay hidden.
func (c Config) IsProd() bool {
	e := strings.ToLower(c.Env)
	return e == "prod" || e == "production"
}
