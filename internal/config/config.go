package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultUserAgent mimics a desktop browser; many sites hide OG tags from bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Metadata fetcher
	FetchTimeout   time.Duration // hard cap on one page fetch (default: 5s)
	FetchUserAgent string        // User-Agent sent to fetched pages
	FetchStrict    bool          // true => transport errors mark the bookmark FAILED instead of COMPLETED
	FetchMaxBody   int64         // max bytes of HTML read per page

	// Enrichment
	SweepInterval time.Duration // period of the internal sweeper (0 = disabled, rely on /api/cron/process-ogp)
	EnrichWorkers int           // detached enrichment workers
	EnrichQueue   int           // pending dispatches before new ones are dropped

	// Import
	ImportFile string // Homepage bookmarks.yaml imported at startup (optional)
	ImportUser string // owner of imported topics (required with ImportFile)

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => refuse to start without a password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // dial timeout
	RedisRT               time.Duration // read timeout
	RedisWT               time.Duration // write timeout
	RedisMaxWait          time.Duration // max wait between connect retries
	RedisPingTimeout      time.Duration // timeout for each ping attempt
	RedisPoolSize         int           // connection pool size
	RedisConnectTimeout   time.Duration // total time to retry connecting
	RedisRetryInterval    time.Duration // initial wait between retries (doubles)
	RedisWarnThreshold    int           // warn (not error) for the first N failed attempts

	// HTTP access
	UserHeader   string   // trusted header carrying the signed-in user id
	AllowedHosts []string // optional Host header allow-list
	AllowedCIDRS []string // optional IP/CIDR allow-list for ops and cron endpoints
	TrustProxy   bool     // true => trust X-Forwarded-For and friends
	CORSOrigins  []string // allowed CORS origins (empty = CORS disabled)
	RateBurst    int      // write endpoints: bucket size per client (user, else IP)
	RatePerMin   int      // write endpoints: refill per minute per client
}

func Load() *Config {
	cfg := &Config{
		ListenPort:      getenv("SHELF_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SHELF_SHUTDOWN_TIMEOUT", 5*time.Second),

		LogLevel:  getenv("SHELF_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SHELF_PRETTY_LOG", true),

		FetchTimeout:   mustDuration("SHELF_FETCH_TIMEOUT", 5*time.Second),
		FetchUserAgent: getenv("SHELF_FETCH_USER_AGENT", DefaultUserAgent),
		FetchStrict:    mustBool("SHELF_FETCH_STRICT", false),
		FetchMaxBody:   int64(getenvInt("SHELF_FETCH_MAX_BODY", 2<<20)),

		SweepInterval: mustDuration("SHELF_SWEEP_INTERVAL", time.Minute),
		EnrichWorkers: getenvInt("SHELF_ENRICH_WORKERS", 4),
		EnrichQueue:   getenvInt("SHELF_ENRICH_QUEUE", 256),

		ImportFile: getenv("SHELF_IMPORT_FILE", ""),
		ImportUser: getenv("SHELF_IMPORT_USER", ""),

		RedisAddr:             requireEnv("SHELF_REDIS_ADDR"),
		RedisUser:             getenv("SHELF_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("SHELF_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("SHELF_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("SHELF_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		UserHeader:   getenv("SHELF_USER_HEADER", "X-Forwarded-User"),
		AllowedHosts: splitAndTrim(getenv("SHELF_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(getenv("SHELF_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("SHELF_TRUST_PROXY", true),
		CORSOrigins:  splitAndTrim(getenv("SHELF_CORS_ORIGINS", "")),
		RateBurst:    getenvInt("SHELF_RATE_BURST", 30),
		RatePerMin:   getenvInt("SHELF_RATE_PER_MIN", 60),
	}

	if err := cfg.validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func (c *Config) validate() error {
	if c.RedisPasswordRequired && c.RedisPassword == "" {
		return fmt.Errorf("SHELF_REDIS_PASSWORD is required when SHELF_REDIS_PASSWORD_REQUIRED=true")
	}
	if c.ImportFile != "" && c.ImportUser == "" {
		return fmt.Errorf("SHELF_IMPORT_USER is required when SHELF_IMPORT_FILE is set")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("SHELF_FETCH_TIMEOUT must be > 0, got %v", c.FetchTimeout)
	}
	if c.EnrichWorkers < 1 {
		return fmt.Errorf("SHELF_ENRICH_WORKERS must be >= 1, got %d", c.EnrichWorkers)
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("SHELF_SWEEP_INTERVAL must be >= 0, got %v", c.SweepInterval)
	}
	if c.UserHeader == "" {
		return fmt.Errorf("SHELF_USER_HEADER must not be empty")
	}
	return nil
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
		if b, err := strconv.ParseBool(v); err == nil {
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

// splitAndTrim splits a comma separated list, dropping blanks and quotes.
func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.Trim(strings.TrimSpace(part), `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
