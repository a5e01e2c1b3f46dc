package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Remote API
	APIBaseURL   string
	ValidatePath string
	HTTPTimeout  time.Duration
	APIRateLimit float64 // requests per second, 0 disables
	APIRateBurst int

	// Session storage
	SessionBackend    string
	SessionFile       string
	SessionPassphrase string
	SQLiteDBPath      string
	TokenClockSkew    time.Duration

	// Currency
	RateCacheTTL  time.Duration
	RateCacheSize int
	FallbackRates string // "USD=1,EUR=0.93,..." overrides the built-in table

	// Aggregation
	AggregateConcurrency int

	// AMQP session events (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export (optional)
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientJSON    string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string
	OAuthRedirectPort        string
	ExportDir                string

	// Watch daemon
	WatchPort     string
	WatchInterval time.Duration
	WatchExport   bool // export after every successful refresh

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		APIBaseURL:   getEnv("API_BASE_URL", "http://localhost:8080"),
		ValidatePath: getEnv("VALIDATE_PATH", "/validate"),
		HTTPTimeout:  getEnvDuration("HTTP_TIMEOUT", 15*time.Second),
		APIRateLimit: getEnvFloat("API_RATE_LIMIT", 10),
		APIRateBurst: getEnvInt("API_RATE_BURST", 20),

		SessionBackend:    getEnv("SESSION_BACKEND", "file"),
		SessionFile:       getEnv("SESSION_FILE", defaultSessionFile()),
		SessionPassphrase: getEnv("SESSION_PASSPHRASE", ""),
		SQLiteDBPath:      getEnv("SQLITE_DB_PATH", "./data/alkansya.db"),
		TokenClockSkew:    getEnvDuration("TOKEN_CLOCK_SKEW", 30*time.Second),

		RateCacheTTL:  getEnvDuration("RATE_CACHE_TTL", time.Hour),
		RateCacheSize: getEnvInt("RATE_CACHE_SIZE", 256),
		FallbackRates: getEnv("FALLBACK_RATES", ""),

		AggregateConcurrency: getEnvInt("AGGREGATE_CONCURRENCY", 0),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "alkansya"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "session_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
		GoogleOAuthClientJSON:    getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthClientFile:    getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),
		OAuthRedirectPort:        getEnv("OAUTH_REDIRECT_PORT", "8085"),
		ExportDir:                getEnv("EXPORT_DIR", "./export"),

		WatchPort:     getEnv("WATCH_PORT", "9091"),
		WatchInterval: getEnvDuration("WATCH_INTERVAL", 5*time.Minute),
		WatchExport:   getEnvBool("WATCH_EXPORT", false),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate API base URL
	if c.APIBaseURL == "" {
		errors = append(errors, "API base URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.APIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}

	if !strings.HasPrefix(c.ValidatePath, "/") {
		errors = append(errors, fmt.Sprintf("invalid validate path '%s': must start with '/'", c.ValidatePath))
	}

	if c.HTTPTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at least 1 second", c.HTTPTimeout))
	}

	if c.APIRateLimit < 0 {
		errors = append(errors, fmt.Sprintf("invalid API rate limit %v: must not be negative", c.APIRateLimit))
	}
	if c.APIRateLimit > 0 && c.APIRateBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid API rate burst %d: must be at least 1", c.APIRateBurst))
	}

	// Validate session backend
	validBackends := []string{"memory", "file", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.SessionBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid session backend '%s': must be one of %v", c.SessionBackend, validBackends))
	}

	if c.SessionBackend == "file" && c.SessionFile == "" {
		errors = append(errors, "session file path cannot be empty when using file backend")
	}

	// Validate SQLite configuration if backend is sqlite
	if c.SessionBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if err := ensureDir(c.SQLiteDBPath); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if c.TokenClockSkew < 0 {
		errors = append(errors, fmt.Sprintf("invalid token clock skew %v: must not be negative", c.TokenClockSkew))
	}

	if c.RateCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate cache TTL %v: must not be negative", c.RateCacheTTL))
	}
	if c.RateCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate cache size %d: must be at least 1", c.RateCacheSize))
	}

	if c.AggregateConcurrency < 0 {
		errors = append(errors, fmt.Sprintf("invalid aggregate concurrency %d: must not be negative", c.AggregateConcurrency))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Google Sheets export is optional, but a spreadsheet needs credentials
	hasServiceAccount := c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != ""
	hasOAuthClient := c.GoogleOAuthClientJSON != "" || c.GoogleOAuthClientFile != ""
	if c.GoogleSpreadsheetID != "" && !hasServiceAccount && !(hasOAuthClient && c.GoogleOAuthTokenFile != "") {
		errors = append(errors, "GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or an OAuth client with GOOGLE_OAUTH_TOKEN_FILE must be provided when GOOGLE_SPREADSHEET_ID is set")
	}

	if port, err := strconv.Atoi(c.OAuthRedirectPort); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid OAuth redirect port '%s': must be between 1 and 65535", c.OAuthRedirectPort))
	}

	if port, err := strconv.Atoi(c.WatchPort); err != nil {
		errors = append(errors, fmt.Sprintf("invalid watch port '%s': must be a number", c.WatchPort))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid watch port %d: must be between 1 and 65535", port))
	}

	if c.WatchInterval < 10*time.Second {
		errors = append(errors, fmt.Sprintf("invalid watch interval %v: must be at least 10 seconds", c.WatchInterval))
	} else if c.WatchInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid watch interval %v: must be at most 24 hours", c.WatchInterval))
	}

	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// HasSheetsExport reports whether Google Sheets export is configured
func (c *Config) HasSheetsExport() bool {
	return c.GoogleSpreadsheetID != ""
}

// HasAMQP reports whether session events should be published
func (c *Config) HasAMQP() bool {
	return c.AMQPURL != ""
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory '%s': %v", dir, err)
		}
	}
	return nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./data/session.json"
	}
	return filepath.Join(dir, "alkansya", "session.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
