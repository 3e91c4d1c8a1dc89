package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// MaxBatchSize is the largest page the timeline and likes endpoints will return
const MaxBatchSize = 100

// Config holds all configuration options for xpurge
type Config struct {
	// API endpoint and application credentials
	API APIConfig `yaml:"api" json:"api"`

	// Where the logged in user credential lives
	Credentials CredentialsConfig `yaml:"credentials" json:"credentials"`

	// Delete/unlike loop settings
	Pipeline PipelineConfig `yaml:"pipeline" json:"pipeline"`

	// Client side rate limiting
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry policy for transport failures
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Local record of runs and actions
	Journal JournalConfig `yaml:"journal" json:"journal"`

	// Prometheus exposition
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Progress display settings
	Output OutputConfig `yaml:"output" json:"output"`
}

// APIConfig holds the X API connection settings and app credentials
type APIConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	BearerToken    string        `yaml:"bearer_token" json:"bearer_token"`
	ConsumerKey    string        `yaml:"consumer_key" json:"consumer_key"`
	ConsumerSecret string        `yaml:"consumer_secret" json:"consumer_secret"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
}

// CredentialsConfig selects the user credential backend
type CredentialsConfig struct {
	Path    string `yaml:"path" json:"path"`
	Backend string `yaml:"backend" json:"backend"`
}

// PipelineConfig holds delete/unlike loop settings
type PipelineConfig struct {
	BatchSize      int           `yaml:"batch_size" json:"batch_size"`
	ActionInterval time.Duration `yaml:"action_interval" json:"action_interval"`
	WorkFile       string        `yaml:"work_file" json:"work_file"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds retry configuration. Disabled by default so a failed fetch ends the run.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// JournalConfig holds the sqlite journal settings
type JournalConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// MetricsConfig holds the metrics listener address; empty disables it
type MetricsConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// OutputConfig selects how progress is shown
type OutputConfig struct {
	TUI    bool `yaml:"tui" json:"tui"`
	Notify bool `yaml:"notify" json:"notify"`
}

// AppCredential is the application's identity towards the API
type AppCredential struct {
	APIKey         string
	ConsumerKey    string
	ConsumerSecret string
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "https://api.twitter.com",
			Timeout:   5 * time.Second,
			UserAgent: "xpurge/1.0",
		},
		Credentials: CredentialsConfig{
			Path:    DefaultCredentialsPath(),
			Backend: "file",
		},
		Pipeline: PipelineConfig{
			BatchSize:      MaxBatchSize,
			ActionInterval: 500 * time.Millisecond,
			WorkFile:       filepath.Join(os.TempDir(), "xpurge.work.json"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         5,
		},
		Retry: RetryConfig{
			Enabled:     false,
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    60 * time.Second,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    filepath.Join(DataDir(), "journal.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// AppCredential returns the application credential assembled from the API section
func (c *Config) AppCredential() AppCredential {
	return AppCredential{
		APIKey:         c.API.BearerToken,
		ConsumerKey:    c.API.ConsumerKey,
		ConsumerSecret: c.API.ConsumerSecret,
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString(&c.API.BearerToken, "XPURGE_BEARER_TOKEN")
	setString(&c.API.ConsumerKey, "XPURGE_CONSUMER_KEY")
	setString(&c.API.ConsumerSecret, "XPURGE_CONSUMER_SECRET")
	setString(&c.API.BaseURL, "XPURGE_API_BASE_URL")
	setString(&c.Credentials.Path, "XPURGE_CREDENTIALS_PATH")
	setString(&c.Credentials.Backend, "XPURGE_CREDENTIALS_BACKEND")
	setString(&c.Pipeline.WorkFile, "XPURGE_WORK_FILE")
	setString(&c.Journal.Path, "XPURGE_JOURNAL_PATH")
	setString(&c.Metrics.Addr, "XPURGE_METRICS_ADDR")
	setString(&c.Logging.Level, "XPURGE_LOG_LEVEL")

	if interval := os.Getenv("XPURGE_ACTION_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			errs = append(errs, fmt.Errorf("XPURGE_ACTION_INTERVAL: %w", err))
		} else {
			c.Pipeline.ActionInterval = d
		}
	}

	if rpm := os.Getenv("XPURGE_REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			errs = append(errs, fmt.Errorf("XPURGE_REQUESTS_PER_MINUTE: %w", err))
		} else if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if retry := os.Getenv("XPURGE_RETRY_ENABLED"); retry != "" {
		c.Retry.Enabled = strings.ToLower(retry) == "true"
	}

	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home, _ := os.UserHomeDir()
	locations := []string{
		".xpurge.yaml",
		".xpurge.yml",
		filepath.Join(home, ".config", "xpurge", "config.yaml"),
		filepath.Join(home, ".config", "xpurge", "config.yml"),
		filepath.Join(home, ".xpurge.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, errors.New("api base URL must be an absolute URL"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api timeout must be positive"))
	}

	validBackends := map[string]bool{"file": true, "keyring": true, "encrypted": true, "env": true}
	if !validBackends[strings.ToLower(c.Credentials.Backend)] {
		errs = append(errs, fmt.Errorf("invalid credentials backend %q", c.Credentials.Backend))
	}
	if c.Credentials.Path == "" {
		errs = append(errs, errors.New("credentials path is required"))
	}

	if c.Pipeline.BatchSize <= 0 || c.Pipeline.BatchSize > MaxBatchSize {
		errs = append(errs, fmt.Errorf("batch size must be between 1 and %d", MaxBatchSize))
	}
	if c.Pipeline.ActionInterval < 0 {
		errs = append(errs, errors.New("action interval cannot be negative"))
	}
	if c.Pipeline.WorkFile == "" {
		errs = append(errs, errors.New("work file path is required"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	if c.Retry.Enabled {
		if c.Retry.MaxAttempts <= 0 {
			errs = append(errs, errors.New("retry max attempts must be positive"))
		}
		if c.Retry.BaseDelay <= 0 || c.Retry.MaxDelay < c.Retry.BaseDelay {
			errs = append(errs, errors.New("retry delays must be positive and max >= base"))
		}
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, errors.New("journal path is required when the journal is enabled"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// ValidateAppCredential checks that everything needed to talk to the API is present
func (c *Config) ValidateAppCredential() error {
	var errs []error
	if c.API.BearerToken == "" {
		errs = append(errs, errors.New("bearer token is required (XPURGE_BEARER_TOKEN)"))
	}
	if c.API.ConsumerKey == "" {
		errs = append(errs, errors.New("consumer key is required (XPURGE_CONSUMER_KEY)"))
	}
	if c.API.ConsumerSecret == "" {
		errs = append(errs, errors.New("consumer secret is required (XPURGE_CONSUMER_SECRET)"))
	}
	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set should be present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["credentials"].(string); ok && v != "" {
		c.Credentials.Path = v
	}
	if v, ok := flags["backend"].(string); ok && v != "" {
		c.Credentials.Backend = v
	}
	if v, ok := flags["work-file"].(string); ok && v != "" {
		c.Pipeline.WorkFile = v
	}
	if v, ok := flags["interval"].(time.Duration); ok && v >= 0 {
		c.Pipeline.ActionInterval = v
	}
	if v, ok := flags["base-url"].(string); ok && v != "" {
		c.API.BaseURL = v
	}
	if v, ok := flags["journal"].(string); ok && v != "" {
		c.Journal.Path = v
	}
	if v, ok := flags["no-journal"].(bool); ok && v {
		c.Journal.Enabled = false
	}
	if v, ok := flags["metrics-addr"].(string); ok && v != "" {
		c.Metrics.Addr = v
	}
	if v, ok := flags["retry"].(bool); ok && v {
		c.Retry.Enabled = true
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["tui"].(bool); ok && v {
		c.Output.TUI = true
	}
	if v, ok := flags["notify"].(bool); ok && v {
		c.Output.Notify = true
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	home, _ := os.UserHomeDir()
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(home, ".xpurge.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// DefaultCredentialsPath returns ~/.xpurge.json
func DefaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".xpurge.json"
	}
	return filepath.Join(home, ".xpurge.json")
}

// DataDir returns the per-user data directory for xpurge. It does not create it.
func DataDir() string {
	home, _ := os.UserHomeDir()

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "xpurge")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "xpurge")
		}
		return filepath.Join(home, "xpurge")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "xpurge")
		}
		return filepath.Join(home, ".local", "share", "xpurge")
	}
}
