package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	BookFile       string        // path to book.json / book.yaml holding the navigation section
	SiteDir        string        // rendered book output served to clients
	HeaderSelector string        // CSS selector of the header anchor (default: .book-header)
	ReloadInterval time.Duration // periodic book reload, 0 disables (default: 1h)
	WatchBookFile  bool          // reload when the book file changes on disk

	RateLimitBurst  int // page requests allowed in a burst per client IP
	RateLimitPerMin int // sustained page requests per minute per client IP

	// Redis (optional; empty address disables snapshots and render counters)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password when Redis is enabled
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict infra/reload endpoints to these IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

// RedisEnabled reports whether a Redis address is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("NAVBAR_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("NAVBAR_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("NAVBAR_LOG_LEVEL", "info"),
		PrettyLog: mustBool("NAVBAR_PRETTY_LOG", true),

		// Book
		BookFile:       requireEnv("NAVBAR_BOOK_FILE"),
		SiteDir:        requireEnv("NAVBAR_SITE_DIR"),
		HeaderSelector: getenv("NAVBAR_HEADER_SELECTOR", ".book-header"),
		ReloadInterval: mustDuration("NAVBAR_RELOAD_INTERVAL", time.Hour),
		WatchBookFile:  mustBool("NAVBAR_WATCH_BOOK_FILE", true),

		// Page rate limiting
		RateLimitBurst:  getenvInt("NAVBAR_RATE_LIMIT_BURST", 60),
		RateLimitPerMin: getenvInt("NAVBAR_RATE_LIMIT_PER_MIN", 600),

		// Redis settings
		RedisAddr:             getenv("NAVBAR_REDIS_ADDR", ""),
		RedisUser:             getenv("NAVBAR_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("NAVBAR_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("NAVBAR_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("NAVBAR_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("NAVBAR_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(getenv("NAVBAR_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("NAVBAR_TRUST_PROXY", false),
	}

	if cfg.RedisEnabled() && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: NAVBAR_REDIS_PASSWORD is required when NAVBAR_REDIS_PASSWORD_REQUIRED=true")
	}

	if info, err := os.Stat(cfg.SiteDir); err != nil || !info.IsDir() {
		panic(fmt.Sprintf("❌ FATAL: NAVBAR_SITE_DIR %q is not a readable directory", cfg.SiteDir))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
