package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/use-agent/trendscout/browser"
	"github.com/use-agent/trendscout/flow"
)

// DefaultProxyHost is used when only proxy credentials are configured.
const DefaultProxyHost = "in.proxymesh.com:31280"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Proxy     ProxyConfig
	Account   AccountConfig
	Store     StoreConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 5000
	Mode string // "debug", "release", "test"; default: "release"

	// MaxConcurrent caps simultaneous captures (one browser each).
	MaxConcurrent int // default: 2

	// RequestTimeout bounds one capture end to end.
	RequestTimeout time.Duration // default: 3m

	// CORSOrigins lists allowed origins; empty allows all.
	CORSOrigins []string
}

// BrowserConfig controls the fingerprint and the Chrome process.
type BrowserConfig struct {
	Headless        bool          // default: true
	NoSandbox       bool          // default: false
	Bin             string        // overrides the Chromium binary path
	UserAgent       string        // default: browser.DefaultUserAgent
	WindowWidth     int           // default: 1920
	WindowHeight    int           // default: 1080
	Language        string        // default: "en-US,en;q=0.9"
	PageLoadTimeout time.Duration // default: 30s
}

// ProxyConfig is the upstream proxy. URL wins over the split fields.
type ProxyConfig struct {
	URL      string
	User     string
	Password string
	Host     string // default: DefaultProxyHost
}

// AccountConfig holds the target-site credentials.
type AccountConfig struct {
	Username string
	Handle   string
	Password string
}

// StoreConfig selects the snapshot sink.
type StoreConfig struct {
	Driver string // "postgres" or "sqlite"; default: "sqlite"
	DSN    string // default: "trendscout.db"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 0.2

	// Burst is the maximum burst size per API key.
	Burst int // default: 2
}

// WebhookConfig enables a signed POST per saved snapshot.
type WebhookConfig struct {
	URL    string
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is loaded first if present; real
// environment variables take precedence over it.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return &Config{
		Server: ServerConfig{
			Host:           envOr("TRENDSCOUT_HOST", "0.0.0.0"),
			Port:           envIntOr("TRENDSCOUT_PORT", 5000),
			Mode:           envOr("TRENDSCOUT_MODE", "release"),
			MaxConcurrent:  envIntOr("TRENDSCOUT_MAX_CONCURRENT", 2),
			RequestTimeout: envDurationOr("TRENDSCOUT_REQUEST_TIMEOUT", 3*time.Minute),
			CORSOrigins:    envSliceOr("TRENDSCOUT_CORS_ORIGINS", nil),
		},
		Browser: BrowserConfig{
			Headless:        envBoolOr("TRENDSCOUT_HEADLESS", true),
			NoSandbox:       envBoolOr("TRENDSCOUT_NO_SANDBOX", false),
			Bin:             envOr("TRENDSCOUT_BROWSER_BIN", os.Getenv("CHROMEDRIVER_PATH")),
			UserAgent:       envOr("TRENDSCOUT_USER_AGENT", browser.DefaultUserAgent),
			WindowWidth:     envIntOr("TRENDSCOUT_WINDOW_WIDTH", 1920),
			WindowHeight:    envIntOr("TRENDSCOUT_WINDOW_HEIGHT", 1080),
			Language:        envOr("TRENDSCOUT_LANG", "en-US,en;q=0.9"),
			PageLoadTimeout: envDurationOr("TRENDSCOUT_PAGE_LOAD_TIMEOUT", 30*time.Second),
		},
		Proxy: ProxyConfig{
			URL:      os.Getenv("PROXY_URL"),
			User:     os.Getenv("PROXY_USER"),
			Password: os.Getenv("PROXY_PASSWORD"),
			Host:     envOr("PROXY_HOST", DefaultProxyHost),
		},
		Account: AccountConfig{
			Username: os.Getenv("TWITTER_USERNAME"),
			Handle:   os.Getenv("TWITTER_HANDLE"),
			Password: os.Getenv("TWITTER_PASSWORD"),
		},
		Store: StoreConfig{
			Driver: envOr("TRENDSCOUT_STORE_DRIVER", "sqlite"),
			DSN:    envOr("TRENDSCOUT_STORE_DSN", "trendscout.db"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("TRENDSCOUT_AUTH_ENABLED", false),
			APIKeys: envSliceOr("TRENDSCOUT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("TRENDSCOUT_RATE_RPS", 0.2),
			Burst:             envIntOr("TRENDSCOUT_RATE_BURST", 2),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("TRENDSCOUT_WEBHOOK_URL"),
			Secret: os.Getenv("TRENDSCOUT_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("TRENDSCOUT_LOG_LEVEL", "info"),
			Format: envOr("TRENDSCOUT_LOG_FORMAT", "json"),
		},
	}
}

// ProxyURL returns the effective proxy URL, or "" for a direct connection.
func (p ProxyConfig) ProxyURL() string {
	if p.URL != "" {
		return p.URL
	}
	if p.User == "" {
		return ""
	}
	u := &url.URL{Scheme: "http", User: url.UserPassword(p.User, p.Password), Host: p.Host}
	return u.String()
}

// Profile builds the browser fingerprint for one session.
func (c *Config) Profile() (browser.Profile, error) {
	proxy, err := browser.ParseProxy(c.Proxy.ProxyURL())
	if err != nil {
		return browser.Profile{}, err
	}
	return browser.Profile{
		Headless:        c.Browser.Headless,
		NoSandbox:       c.Browser.NoSandbox,
		Bin:             c.Browser.Bin,
		UserAgent:       c.Browser.UserAgent,
		Width:           c.Browser.WindowWidth,
		Height:          c.Browser.WindowHeight,
		Language:        c.Browser.Language,
		Proxy:           proxy,
		PageLoadTimeout: c.Browser.PageLoadTimeout,
	}, nil
}

// Credentials returns the target-site account.
func (c *Config) Credentials() flow.Credentials {
	return flow.Credentials{
		Identifier: c.Account.Username,
		Handle:     c.Account.Handle,
		Password:   c.Account.Password,
	}
}

// Validate reports configuration that makes every capture fail.
func (c *Config) Validate() error {
	if c.Account.Username == "" || c.Account.Password == "" {
		return fmt.Errorf("TWITTER_USERNAME and TWITTER_PASSWORD are required")
	}
	if c.Auth.Enabled && len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("TRENDSCOUT_AUTH_ENABLED is set but TRENDSCOUT_API_KEYS is empty")
	}
	if c.Server.MaxConcurrent < 1 {
		return fmt.Errorf("TRENDSCOUT_MAX_CONCURRENT must be at least 1")
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("TRENDSCOUT_RATE_RPS must be positive")
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("TRENDSCOUT_RATE_BURST must be at least 1")
	}
	return nil
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
