package logger

// This file shows how to integrate the logger into the main application

/*
Example integration in a command:

package main

import (
	"os"

	"wpbackup/pkg/config"
	"wpbackup/pkg/logger"
	"wpbackup/pkg/ui"
)

func runBackup() {
	// Load configuration
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Initialize the logger
	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}

	// Now you can use the logger throughout the application
	logger.Info("WordPress backup starting")
	logger.WithField("site", cfg.Site.URL).Info("Backing up site")

	// Log configuration (be careful not to log credentials)
	logger.WithFields(map[string]interface{}{
		"output_dir":     cfg.Output.Directory,
		"page_size":      cfg.Site.PageSize,
		"download_media": cfg.Media.DownloadFiles,
		"log_level":      cfg.Logging.Level,
	}).Debug("Configuration loaded")
}
*/

// Example integration in the backup package:
/*
func (o *Orchestrator) fetchAuthors(ctx context.Context, run *models.BackupRun) error {
	log := logger.GetLogger().
		WithField("component", "backup").
		WithField("phase", "authors")

	log.Info("Fetching authors")

	// ... page walk ...

	log.WithFields(map[string]interface{}{
		"authors": len(o.registry.Authors()),
	}).Info("Author index complete")
}
*/

// Example integration in the wordpress client:
/*
func (c *Client) Get(ctx context.Context, requestURL string) ([]byte, http.Header, error) {
	start := time.Now()
	log := logger.GetLogger().
		WithField("component", "wordpress").
		WithField("url", requestURL)

	log.Debug("Fetching")

	// ... request logic ...

	log.WithField("duration", time.Since(start)).Debug("Fetched")

	return body, headers, nil
}
*/
