// Package logger provides a structured logging interface for the WordPress
// backup tool.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors
// - Optional file output alongside the console
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "wpbackup/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	    File: "/var/log/wpbackup.log",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	logger.Info("Backup started")
//	logger.WithField("site", "example.wordpress.com").Info("Connected")
//	logger.WithError(err).Error("Failed to write post file")
//
// Advanced Usage:
//
//	// Create a logger instance with fields
//	log := logger.GetLogger().
//	    WithField("component", "orchestrator").
//	    WithField("phase", "posts")
//
//	// Use structured logging
//	log.InfoWithFields("Page fetched", map[string]interface{}{
//	    "page": 3,
//	    "records": 20,
//	    "duration": time.Second * 2,
//	})
//
// The logger supports the following configuration options:
// - Level: Log level (debug, info, warn, error, fatal)
// - File: Path to log file (empty for console only)
package logger
