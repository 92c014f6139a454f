package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"wpbackup/pkg/config"
	"wpbackup/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage WordPress backup configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (WP_SITE_URL, WP_USERNAME, WP_APP_PASSWORD, ...)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.wpbackup.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources:
  - Command line flags
  - Environment variables
  - Configuration file
  - Default values

Sensitive values like the application password will be masked.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Required fields
  - Value types and ranges
  - Path accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	// Determine config file path
	configPath := configFile
	if configPath == "" {
		configPath = ".wpbackup.yaml"
	}

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	// Create example configuration
	exampleConfig := `# WordPress Backup Configuration File
#
# This file contains all available configuration options.
# Credentials can also come from environment variables:
# WP_SITE_URL, WP_USERNAME, WP_APP_PASSWORD

# Site being backed up
site:
  # Full URL, or a bare name for wordpress.com blogs
  # (myblog expands to https://myblog.wordpress.com)
  url: "myblog.wordpress.com"

  # Timeout per API request
  request_timeout: 30s

  # Records per API page
  # Range: 1-100
  page_size: 20

  # Post statuses to archive
  # Statuses other than publish require authentication
  post_statuses:
    - publish

# WordPress credentials
auth:
  # WordPress username (required)
  username: ""

  # Application password (required)
  # Generate under Users -> Profile -> Application Passwords
  # Prefer 'wpbackup auth login' over putting this in a file
  app_password: ""

# Rate limiting and retry configuration
rate_limit:
  # Minimum delay between consecutive API requests
  request_delay: 500ms

  # Attempts per failing request
  # Range: 1-10
  max_retries: 3

  # Initial retry backoff
  retry_delay: 1s

  # Maximum retry backoff
  max_retry_delay: 60s

  # Backoff multiplier
  backoff_multiplier: 2.0

# Output configuration
output:
  # Archive directory
  directory: "./backups"

# Media download configuration
media:
  # Download media binaries in addition to metadata
  download_files: false

  # Timeout per media file download
  download_timeout: 60s

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional)
  # Leave empty to log to the console only
  file: ""
`

	// Write configuration file
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the configuration file and set your site URL")
	fmt.Println("2. Store credentials with 'wpbackup auth login <site>'")
	fmt.Println("3. Run 'wpbackup config validate' to check the configuration")
	fmt.Println("4. Start the backup with 'wpbackup backup'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	// Load configuration without requiring credentials to be present
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		ui.PrintError("Failed to load environment variables", err.Error())
		os.Exit(1)
	}

	// Create a sanitized version for display
	displayCfg := *cfg

	// Mask the application password
	if displayCfg.Auth.AppPassword != "" {
		password := strings.ReplaceAll(displayCfg.Auth.AppPassword, " ", "")
		if len(password) > 8 {
			displayCfg.Auth.AppPassword = password[:4] + "..." + password[len(password)-4:]
		} else {
			displayCfg.Auth.AppPassword = "***"
		}
	}

	// Convert to YAML for display
	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	// Show configuration sources
	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (WP_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	// Check if config file is specified
	if configFile == "" {
		// Try to find config file in common locations
		possiblePaths := []string{
			".wpbackup.yaml",
			".wpbackup.yml",
			filepath.Join(os.Getenv("HOME"), ".wpbackup.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "wpbackup", "config.yaml"),
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			os.Exit(1)
		}
	}

	ui.PrintInfo("Validating configuration", configFile)

	// Load without full validation so missing credentials become warnings
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	// Perform additional validation checks
	warnings := []string{}
	errors := []string{}

	// Check site and credentials
	if cfg.Site.URL == "" {
		warnings = append(warnings, "site URL not configured")
	}
	if cfg.Auth.Username == "" {
		warnings = append(warnings, "WordPress username not configured (stored credentials will be used)")
	}
	if cfg.Auth.AppPassword == "" {
		warnings = append(warnings, "application password not configured (stored credentials will be used)")
	}

	// Check paths
	if cfg.Output.Directory != "" {
		if err := os.MkdirAll(cfg.Output.Directory, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create output directory: %v", err))
		}
	} else {
		errors = append(errors, "output directory is required")
	}

	// Check logging file path
	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	// Check value ranges
	if cfg.Site.PageSize < 1 || cfg.Site.PageSize > 100 {
		errors = append(errors, "page_size must be between 1 and 100")
	}
	if cfg.Site.RequestTimeout <= 0 {
		errors = append(errors, "request_timeout must be positive")
	}
	if cfg.RateLimit.MaxRetries < 1 || cfg.RateLimit.MaxRetries > 10 {
		errors = append(errors, "max_retries must be between 1 and 10")
	}
	if cfg.RateLimit.BackoffMultiplier < 1 {
		errors = append(errors, "backoff_multiplier must be at least 1")
	}

	// Display results
	if len(errors) > 0 {
		ui.PrintError("Configuration has errors:", "")
		for _, err := range errors {
			fmt.Printf("  - %s\n", err)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:", "")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	// Show summary
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Site: %s\n", cfg.Site.URL)
	fmt.Printf("  Output directory: %s\n", cfg.Output.Directory)
	fmt.Printf("  Page size: %d\n", cfg.Site.PageSize)
	fmt.Printf("  Post statuses: %s\n", strings.Join(cfg.Site.PostStatuses, ", "))
	fmt.Printf("  Download media: %t\n", cfg.Media.DownloadFiles)
	fmt.Printf("  Max retries: %d\n", cfg.RateLimit.MaxRetries)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
