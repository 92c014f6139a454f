package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the WordPress backup tool
type Config struct {
	// Site being backed up
	Site SiteConfig `yaml:"site" json:"site"`

	// Credentials for the WordPress REST API
	Auth AuthConfig `yaml:"auth" json:"auth"`

	// Rate limiting and retry configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Media download settings
	Media MediaConfig `yaml:"media" json:"media"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SiteConfig holds WordPress site configuration
type SiteConfig struct {
	// URL identifies the site; a bare name expands to name.wordpress.com
	URL            string        `yaml:"url" json:"url"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	PageSize       int           `yaml:"page_size" json:"page_size"`
	PostStatuses   []string      `yaml:"post_statuses" json:"post_statuses"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
}

// AuthConfig holds the WordPress application password credentials
type AuthConfig struct {
	Username    string `yaml:"username" json:"username"`
	AppPassword string `yaml:"app_password" json:"app_password"`
}

// RateLimitConfig holds rate limiting and retry configuration
type RateLimitConfig struct {
	// RequestDelay is the minimum gap between consecutive API requests
	RequestDelay time.Duration `yaml:"request_delay" json:"request_delay"`
	// MaxRetries is the total number of attempts for a failing request
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay" json:"retry_delay"`
	MaxRetryDelay     time.Duration `yaml:"max_retry_delay" json:"max_retry_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoff_multiplier"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}

// MediaConfig holds media download configuration
type MediaConfig struct {
	// DownloadFiles selects whether media binaries are fetched in addition
	// to their metadata
	DownloadFiles   bool          `yaml:"download_files" json:"download_files"`
	DownloadTimeout time.Duration `yaml:"download_timeout" json:"download_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			RequestTimeout: 30 * time.Second,
			PageSize:       20,
			PostStatuses:   []string{"publish"},
			UserAgent:      "wpbackup/2.0",
		},
		RateLimit: RateLimitConfig{
			RequestDelay:      500 * time.Millisecond,
			MaxRetries:        3,
			RetryDelay:        1 * time.Second,
			MaxRetryDelay:     60 * time.Second,
			BackoffMultiplier: 2.0,
		},
		Output: OutputConfig{
			Directory: "./backups",
		},
		Media: MediaConfig{
			DownloadFiles:   false,
			DownloadTimeout: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Site and credentials
	if siteURL := os.Getenv("WP_SITE_URL"); siteURL != "" {
		c.Site.URL = siteURL
	}
	if username := os.Getenv("WP_USERNAME"); username != "" {
		c.Auth.Username = username
	}
	if appPassword := os.Getenv("WP_APP_PASSWORD"); appPassword != "" {
		c.Auth.AppPassword = appPassword
	}

	// Output directory
	if backupDir := os.Getenv("BACKUP_DIR"); backupDir != "" {
		c.Output.Directory = backupDir
	}

	// Rate limit delay, in seconds
	if delay := os.Getenv("RATE_LIMIT_DELAY"); delay != "" {
		var val float64
		fmt.Sscanf(delay, "%f", &val)
		c.RateLimit.RequestDelay = time.Duration(val * float64(time.Second))
	}

	// Max retries
	if retries := os.Getenv("WP_MAX_RETRIES"); retries != "" {
		var val int
		fmt.Sscanf(retries, "%d", &val)
		if val > 0 {
			c.RateLimit.MaxRetries = val
		}
	}

	// Media download flag
	if download := os.Getenv("DOWNLOAD_MEDIA"); download != "" {
		c.Media.DownloadFiles = strings.ToLower(download) == "true"
	}

	// Logging level
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
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
	// Check in order of precedence
	locations := []string{
		".wpbackup.yaml",
		".wpbackup.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "wpbackup", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "wpbackup", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".wpbackup.yaml"),
		filepath.Join(os.Getenv("HOME"), ".wpbackup.yml"),
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

	// Validate site and credentials
	if c.Site.URL == "" {
		errs = append(errs, errors.New("site URL is required"))
	}
	if c.Auth.Username == "" {
		errs = append(errs, errors.New("WordPress username is required"))
	}
	if c.Auth.AppPassword == "" {
		errs = append(errs, errors.New("WordPress application password is required"))
	}

	// Validate rate limiting
	if c.RateLimit.MaxRetries <= 0 {
		errs = append(errs, errors.New("max retries must be positive"))
	}
	if c.RateLimit.RetryDelay <= 0 {
		errs = append(errs, errors.New("retry delay must be positive"))
	}
	if c.RateLimit.BackoffMultiplier < 1 {
		errs = append(errs, errors.New("backoff multiplier must be at least 1"))
	}

	// Validate site request settings
	if c.Site.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Site.PageSize <= 0 || c.Site.PageSize > 100 {
		errs = append(errs, errors.New("page size must be between 1 and 100"))
	}

	// Validate output settings
	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	// Validate media settings
	if c.Media.DownloadFiles && c.Media.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("media download timeout must be positive"))
	}

	// Validate logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if site, ok := flags["site"].(string); ok && site != "" {
		c.Site.URL = site
	}
	if username, ok := flags["username"].(string); ok && username != "" {
		c.Auth.Username = username
	}
	if appPassword, ok := flags["app-password"].(string); ok && appPassword != "" {
		c.Auth.AppPassword = appPassword
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if size, ok := flags["page-size"].(int); ok && size > 0 {
		c.Site.PageSize = size
	}
	if delay, ok := flags["rate-delay"].(time.Duration); ok {
		c.RateLimit.RequestDelay = delay
	}
	if retries, ok := flags["max-retries"].(int); ok && retries > 0 {
		c.RateLimit.MaxRetries = retries
	}
	if download, ok := flags["download-media"].(bool); ok {
		c.Media.DownloadFiles = download
	}
	if statuses, ok := flags["statuses"].([]string); ok && len(statuses) > 0 {
		c.Site.PostStatuses = statuses
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".wpbackup.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// A negative request delay means no delay, never an error
	if config.RateLimit.RequestDelay < 0 {
		config.RateLimit.RequestDelay = 0
	}
	if len(config.Site.PostStatuses) == 0 {
		config.Site.PostStatuses = []string{"publish"}
	}

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
