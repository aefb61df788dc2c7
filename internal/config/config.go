package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Credential store backends
const (
	CredentialStoreConfig  = "config"
	CredentialStoreKeyring = "keyring"
	CredentialStoreEnv     = "env"
)

// Config holds all application configuration
type Config struct {
	API         APIConfig
	Poll        PollConfig
	Credentials CredentialsConfig
	Logging     LoggingConfig
	Metrics     MetricsConfig
}

// APIConfig contains platform API client configuration
type APIConfig struct {
	URL     string
	Timeout time.Duration
	// RateLimit is requests per second; 0 disables client-side limiting.
	RateLimit float64
	Burst     int
	Tracing   bool
}

// PollConfig contains long-running task polling configuration
type PollConfig struct {
	Interval  time.Duration
	MaxErrors int
}

// CredentialsConfig selects where the session token lives
type CredentialsConfig struct {
	Store string
	// Token is read from DARKWATCH_TOKEN when Store is "env".
	Token string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// MetricsConfig contains the metrics listener used by long-running commands
type MetricsConfig struct {
	Addr string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors as it's optional)
	_ = godotenv.Load()

	cfg := &Config{
		API: APIConfig{
			URL:       strings.TrimRight(getEnv("DARKWATCH_API_URL", "http://localhost:8000"), "/"),
			Timeout:   getEnvAsDuration("DARKWATCH_API_TIMEOUT", 30*time.Second),
			RateLimit: getEnvAsFloat("DARKWATCH_RATE_LIMIT", 0),
			Burst:     getEnvAsInt("DARKWATCH_RATE_BURST", 5),
			Tracing:   getEnvAsBool("DARKWATCH_TRACING", false),
		},
		Poll: PollConfig{
			Interval:  getEnvAsDuration("DARKWATCH_POLL_INTERVAL", 2*time.Second),
			MaxErrors: getEnvAsInt("DARKWATCH_POLL_MAX_ERRORS", 3),
		},
		Credentials: CredentialsConfig{
			Store: getEnv("DARKWATCH_CREDENTIAL_STORE", CredentialStoreConfig),
			Token: getEnv("DARKWATCH_TOKEN", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "warn"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Metrics: MetricsConfig{
			Addr: getEnv("DARKWATCH_METRICS_ADDR", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.API.URL, "http://") && !strings.HasPrefix(c.API.URL, "https://") {
		return fmt.Errorf("API URL must start with http:// or https://: %q", c.API.URL)
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("API timeout must be positive: %s", c.API.Timeout)
	}

	if c.API.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative: %v", c.API.RateLimit)
	}

	if c.Poll.Interval < 100*time.Millisecond {
		return fmt.Errorf("poll interval too short: %s", c.Poll.Interval)
	}

	if c.Poll.MaxErrors < 1 {
		return fmt.Errorf("poll max errors must be at least 1: %d", c.Poll.MaxErrors)
	}

	switch c.Credentials.Store {
	case CredentialStoreConfig, CredentialStoreKeyring, CredentialStoreEnv:
	default:
		return fmt.Errorf("unsupported credential store: %s", c.Credentials.Store)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("unsupported log format: %s", c.Logging.Format)
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
