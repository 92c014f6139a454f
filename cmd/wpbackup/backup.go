package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wpbackup/pkg/auth"
	"wpbackup/pkg/backup"
	"wpbackup/pkg/config"
	"wpbackup/pkg/logger"
	"wpbackup/pkg/ui"
	"wpbackup/pkg/wordpress"
)

var (
	// Backup command flags
	outputDir     string
	username      string
	appPassword   string
	pageSize      int
	postStatuses  []string
	downloadMedia bool
	rateDelay     time.Duration
	maxRetries    int
)

// backupCmd represents the backup command
var backupCmd = &cobra.Command{
	Use:   "backup [site]",
	Short: "Back up a WordPress site to the local archive",
	Long: `Fetch every author, category, tag, media record, and post from the
site's REST API and write them to a local archive directory.

The site can be a full URL or a bare wordpress.com name. Credentials are
resolved from, in order:
  - Command line flags (--username and --app-password)
  - Environment variables (WP_USERNAME and WP_APP_PASSWORD)
  - Configuration file
  - Stored credentials (use 'wpbackup auth login' to store)

Posts are archived as Markdown files with YAML frontmatter under
year/month directories. Authors, taxonomies, and media become JSON
indexes, and a metadata.json summary is written when the run completes.`,
	Example: `  # Back up a wordpress.com blog
  wpbackup backup myblog.wordpress.com

  # Bare names expand to wordpress.com
  wpbackup backup myblog

  # Back up to a specific directory, including media binaries
  wpbackup backup myblog --output ./archive --download-media

  # Include drafts and private posts
  wpbackup backup myblog --statuses publish,draft,private`,
	Args: cobra.MaximumNArgs(1),
	Run:  runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)

	backupCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for the archive (default: ./backups)")
	backupCmd.Flags().StringVarP(&username, "username", "u", "", "WordPress username")
	backupCmd.Flags().StringVar(&appPassword, "app-password", "", "WordPress application password")
	backupCmd.Flags().IntVar(&pageSize, "page-size", 20, "records per API page (1-100)")
	backupCmd.Flags().StringSliceVar(&postStatuses, "statuses", []string{"publish"}, "post statuses to archive")
	backupCmd.Flags().BoolVar(&downloadMedia, "download-media", false, "download media binaries in addition to metadata")
	backupCmd.Flags().DurationVar(&rateDelay, "rate-delay", 500*time.Millisecond, "minimum delay between API requests")
	backupCmd.Flags().IntVar(&maxRetries, "max-retries", 3, "attempts per failing request")
}

func runBackup(cmd *cobra.Command, args []string) {
	// Build flags map from command line, only for flags the user set
	flags := make(map[string]interface{})
	if len(args) > 0 {
		flags["site"] = strings.TrimSpace(args[0])
	}
	if cmd.Flags().Changed("output") {
		flags["output"] = outputDir
	}
	if cmd.Flags().Changed("username") {
		flags["username"] = username
	}
	if cmd.Flags().Changed("app-password") {
		flags["app-password"] = appPassword
	}
	if cmd.Flags().Changed("page-size") {
		flags["page-size"] = pageSize
	}
	if cmd.Flags().Changed("statuses") {
		flags["statuses"] = postStatuses
	}
	if cmd.Flags().Changed("download-media") {
		flags["download-media"] = downloadMedia
	}
	if cmd.Flags().Changed("rate-delay") {
		flags["rate-delay"] = rateDelay
	}
	if cmd.Flags().Changed("max-retries") {
		flags["max-retries"] = maxRetries
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	// Load configuration, falling back to stored credentials
	cfg, usedAccount, err := loadConfigWithCredentials(flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		fmt.Println("\nTo store credentials securely, run:")
		fmt.Println("  wpbackup auth login <site>")
		fmt.Println("\nYou can also set environment variables:")
		fmt.Println("  export WP_SITE_URL=myblog.wordpress.com")
		fmt.Println("  export WP_USERNAME=admin")
		fmt.Println("  export WP_APP_PASSWORD='abcd EFGH 1234 ijkl MNOP 5678'")
		os.Exit(1)
	}

	// Initialize logger
	logger.Initialize(&cfg.Logging)
	logger.WithField("version", version).Info("WordPress backup starting")

	if usedAccount != nil {
		logger.WithField("site", usedAccount.Site).Info("Using stored credentials")
		if !quiet {
			ui.PrintInfo("Using account", usedAccount.Username)
		}
	}
	if !quiet {
		ui.PrintInfo("Site", cfg.Site.URL)
		ui.PrintInfo("Output", cfg.Output.Directory)
	}

	// Cancel the run cleanly on Ctrl-C; the orchestrator stops at the
	// next page boundary
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn("Interrupt received, stopping after the current page")
		cancel()
	}()

	orch := backup.New(cfg, nil)
	if !quiet {
		orch.SetProgress(ui.NewPhaseProgress())
	}

	run, err := orch.Run(ctx)

	// The summary is the only place recorded failures surface, so it
	// prints even in quiet mode
	if run != nil {
		ui.PrintRunSummary(run)
		if notifications && !quiet {
			ui.NewNotifier().NotifyRunResult(run)
		}
	}

	if err != nil {
		logger.WithError(err).WithField("site", cfg.Site.URL).Error("Backup failed")
		ui.PrintError("BACKUP FAILED", err.Error())
		os.Exit(1)
	}

	logger.WithFields(map[string]interface{}{
		"site":  cfg.Site.URL,
		"posts": run.Counts.Posts,
	}).Info("Backup completed successfully")
}

// loadConfigWithCredentials loads configuration from the usual sources,
// then retries once with credentials from the credential manager when the
// first attempt fails. Returns the stored account when one was used.
func loadConfigWithCredentials(flags map[string]interface{}) (*config.Config, *auth.Account, error) {
	cfg, err := config.Load(configFile, flags)
	if err == nil {
		return cfg, nil, nil
	}

	manager, merr := auth.NewManager()
	if merr != nil {
		return nil, nil, err
	}

	site, _ := flags["site"].(string)
	account, aerr := lookupAccount(manager, site)
	if aerr != nil {
		// Report the original config error, which names what is missing
		return nil, nil, err
	}

	if _, ok := flags["username"]; !ok {
		flags["username"] = account.Username
	}
	if _, ok := flags["app-password"]; !ok {
		flags["app-password"] = account.AppPassword
	}
	if site == "" && account.Site != "" {
		flags["site"] = account.Site
	}

	cfg, err = config.Load(configFile, flags)
	if err != nil {
		return nil, nil, err
	}
	return cfg, account, nil
}

// lookupAccount retrieves the account for a site, or the default account
// when no site is known yet. Accounts are keyed by normalized site URL.
func lookupAccount(manager *auth.Manager, site string) (*auth.Account, error) {
	if site != "" {
		if account, err := manager.Retrieve(wordpress.NormalizeSiteURL(site)); err == nil {
			return account, nil
		}
	}
	return manager.RetrieveDefault()
}

// Make backup the default command when no subcommand is specified
func init() {
	origRunE := rootCmd.RunE
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if origRunE != nil {
			return origRunE(cmd, args)
		}
		if len(args) > 0 && !isKnownCommand(args[0]) {
			// A bare argument is treated as the site to back up
			runBackup(backupCmd, args)
			return nil
		}
		return cmd.Help()
	}

	rootCmd.Args = cobra.ArbitraryArgs
}

func isKnownCommand(arg string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == arg || cmd.HasAlias(arg) {
			return true
		}
	}
	return false
}
