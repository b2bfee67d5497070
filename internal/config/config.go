package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Transport
	Live      bool   // true => websocket + REST backend, false => simulated generator
	SocketURL string // ws(s):// endpoint, required when Live
	APIURL    string // REST API root, required when Live (optional otherwise)
	Token     string // bearer credential for socket and REST
	UserID    string // resolves readBy into isRead, also scopes the snapshot
	Role      string // forwarded on list calls
	CompanyID string // forwarded on list calls

	// Gateway
	RequestTimeout time.Duration // per attempt (default: 4s)
	MaxRetries     int           // retries after the first attempt (default: 2)
	RetryInterval  time.Duration // first backoff (default: 200ms, doubles)

	// Simulated mode
	SimInterval    time.Duration // generator tick (default: 5s)
	SimProbability float64       // chance a tick emits (default: 0.3)
	CatalogFile    string        // optional YAML catalog, empty = embedded

	// Background tasks
	PollInterval        time.Duration // REST polling while the socket is down (default: 30s)
	SnoozeCheckInterval time.Duration // snooze release check (default: 15s)

	// Redis (optional, empty address = snapshot kept in memory only)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	RateLimitBurst  int // mutation burst per client IP
	RateLimitPerMin int // mutation refill per client IP and minute
}

// Load reads the configuration from the environment, after merging the
// optional env file (HERALD_ENV_FILE, default ".env"). Variables already set
// in the environment win over the file.
func Load() *Config {
	loadEnvFile(getenv("HERALD_ENV_FILE", ".env"))

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("HERALD_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("HERALD_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("HERALD_LOG_LEVEL", "info"),
		PrettyLog: mustBool("HERALD_PRETTY_LOG", true),

		// Transport
		Live:      mustBool("HERALD_LIVE", false),
		SocketURL: getenv("HERALD_SOCKET_URL", ""),
		APIURL:    getenv("HERALD_API_URL", ""),
		Token:     getenv("HERALD_TOKEN", ""),
		UserID:    getenv("HERALD_USER_ID", ""),
		Role:      getenv("HERALD_ROLE", ""),
		CompanyID: getenv("HERALD_COMPANY_ID", ""),

		// Gateway
		RequestTimeout: mustDuration("HERALD_REQUEST_TIMEOUT", 4*time.Second),
		MaxRetries:     getenvInt("HERALD_MAX_RETRIES", 2),
		RetryInterval:  mustDuration("HERALD_RETRY_INTERVAL", 200*time.Millisecond),

		// Simulated mode
		SimInterval:    mustDuration("HERALD_SIM_INTERVAL", 5*time.Second),
		SimProbability: mustFloat("HERALD_SIM_PROBABILITY", 0.3),
		CatalogFile:    getenv("HERALD_CATALOG_FILE", ""),

		// Background tasks
		PollInterval:        mustDuration("HERALD_POLL_INTERVAL", 30*time.Second),
		SnoozeCheckInterval: mustDuration("HERALD_SNOOZE_CHECK_INTERVAL", 15*time.Second),

		// Redis settings
		RedisAddr:             getenv("HERALD_REDIS_ADDR", ""),
		RedisUser:             getenv("HERALD_REDIS_USERNAME", ""),
		RedisPasswordRequired: mustBool("HERALD_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("HERALD_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("HERALD_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 2*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 15*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 1*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("HERALD_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("HERALD_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("HERALD_TRUST_PROXY", false),

		RateLimitBurst:  getenvInt("HERALD_RATE_LIMIT_BURST", 20),
		RateLimitPerMin: getenvInt("HERALD_RATE_LIMIT_PER_MIN", 60),
	}

	// Live mode cannot run without its endpoints
	if cfg.Live {
		cfg.SocketURL = requireEnv("HERALD_SOCKET_URL")
		cfg.APIURL = requireEnv("HERALD_API_URL")
	}

	if cfg.SimProbability < 0 || cfg.SimProbability > 1 {
		panic(fmt.Sprintf("❌ FATAL: HERALD_SIM_PROBABILITY must be within [0,1], got %v", cfg.SimProbability))
	}

	// Validate Redis password configuration
	if cfg.RedisAddr != "" && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: HERALD_REDIS_PASSWORD is required when HERALD_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.Token != "" {
		cp.Token = "***REDACTED***"
	}
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	return cp
}

// RedisEnabled reports whether a Redis address is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// loadEnvFile merges a dotenv file into the environment. A missing file is
// not an error; a malformed one is fatal.
func loadEnvFile(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		panic(fmt.Sprintf("❌ FATAL: Cannot parse env file %s: %v", path, err))
	}
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

func mustFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
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
