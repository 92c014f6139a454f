package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"wpbackup/pkg/auth"
	"wpbackup/pkg/ui"
	"wpbackup/pkg/wordpress"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage WordPress credentials",
	Long: `Manage stored WordPress credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (WP_USERNAME and WP_APP_PASSWORD)

Never share your application passwords or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [site]",
	Short: "Store WordPress credentials securely",
	Long: `Store WordPress credentials securely in the system keychain or an
encrypted file.

You will be prompted for:
  - Site URL (if not provided)
  - WordPress username
  - Application password (from your WordPress profile page)

An application password is not your login password. Generate one under
Users -> Profile -> Application Passwords in wp-admin, or under
Security -> Application Passwords on wordpress.com.`,
	Example: `  # Interactive login
  wpbackup auth login

  # Login for a specific site
  wpbackup auth login myblog.wordpress.com`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [site]",
	Short: "Remove stored credentials",
	Long: `Remove stored WordPress credentials.

If no site is provided, you will be shown a list of stored sites to
choose from. You can also remove all sites at once.`,
	Example: `  # Interactive logout
  wpbackup auth logout

  # Logout a specific site
  wpbackup auth logout myblog.wordpress.com`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored sites",
	Long:  `List all stored WordPress sites with sanitized credential information.`,
	Run:   runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	var site string
	if len(args) > 0 {
		site = args[0]
	}

	// Interactive prompts
	reader := bufio.NewReader(os.Stdin)

	// Show the application password guide first
	auth.ShowAppPasswordGuide()

	// Ask if ready to continue
	fmt.Print("Ready to enter your credentials? (Y/n): ")
	ready, _ := reader.ReadString('\n')
	if strings.ToLower(strings.TrimSpace(ready)) == "n" {
		fmt.Println("\nRun 'wpbackup auth login' when you're ready.")
		return
	}

	fmt.Println()

	if site == "" {
		fmt.Print("🌐 Site URL (e.g. myblog.wordpress.com): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			ui.PrintError("Failed to read site URL", err.Error())
			os.Exit(1)
		}
		site = strings.TrimSpace(input)
	}

	site = wordpress.NormalizeSiteURL(site)
	if site == "" {
		ui.PrintError("Site URL is required", "")
		os.Exit(1)
	}

	// Check if the site already has credentials
	if existing, _ := manager.Retrieve(site); existing != nil {
		fmt.Printf("\n⚠️  Credentials for '%s' already exist. Update them? (y/N): ", site)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Print("👤 WordPress username: ")
	input, err := reader.ReadString('\n')
	if err != nil {
		ui.PrintError("Failed to read username", err.Error())
		os.Exit(1)
	}
	wpUsername := strings.TrimSpace(input)
	if wpUsername == "" {
		ui.PrintError("Username is required", "")
		os.Exit(1)
	}

	fmt.Println("\n🔐 Enter your application password (it will be hidden as you type):")
	fmt.Println()

	// Get the application password with validation
	var password string
	for {
		fmt.Print("application password: ")
		password, err = readPassword()
		if err != nil {
			ui.PrintError("Failed to read application password", err.Error())
			os.Exit(1)
		}

		// Application passwords are 24 characters shown in groups of four;
		// spaces are cosmetic
		if len(strings.ReplaceAll(password, " ", "")) < 16 {
			fmt.Println("\n❌ That doesn't look like a valid application password.")
			fmt.Println("   It should be 24 characters, usually shown in groups of four.")
			fmt.Println("   Example: abcd EFGH 1234 ijkl MNOP 5678")
			fmt.Print("\nTry again? (Y/n): ")
			retry, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(retry)) == "n" {
				os.Exit(1)
			}
			continue
		}
		break
	}

	// Show what we're about to do
	account := &auth.Account{
		Site:         site,
		Username:     wpUsername,
		AppPassword:  password,
		LastModified: time.Now(),
	}
	sanitized := auth.SanitizeAccount(account)

	fmt.Println("\n📋 Summary:")
	fmt.Printf("   Site: %s\n", sanitized.Site)
	fmt.Printf("   Username: %s\n", sanitized.Username)
	fmt.Printf("   App Password: %s\n", sanitized.AppPassword)

	// Store credentials
	fmt.Println("\n💾 Storing credentials securely...")
	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	fmt.Println("\n🎉 Credentials stored successfully!")
	ui.PrintSuccess(fmt.Sprintf("Site saved: %s", site))

	// Show where credentials are stored
	fmt.Println("\n🔒 Security Information:")
	fmt.Println("   Your credentials are stored in:")
	fmt.Println("   • System keychain (when available)")
	fmt.Println("   • Encrypted file (fallback)")

	// Show how to use
	fmt.Println("\n📖 Quick Start Guide:")
	fmt.Println("   Back up your blog:")
	fmt.Printf("   $ wpbackup backup %s\n", site)
	fmt.Println("\n   Include media binaries:")
	fmt.Printf("   $ wpbackup backup %s --download-media\n", site)
	fmt.Println("\n   Show more options:")
	fmt.Printf("   $ wpbackup backup --help\n")
	fmt.Println("\n⚠️  Never share your application passwords or config files!")
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	if len(args) == 0 {
		// List sites and ask which to remove
		accounts, err := manager.List()
		if err != nil || len(accounts) == 0 {
			ui.PrintError("No stored sites found", "")
			return
		}

		if len(accounts) == 1 {
			// Only one site, confirm deletion
			account := accounts[0]
			reader := bufio.NewReader(os.Stdin)
			fmt.Printf("Remove credentials for '%s'? (y/N): ", account.Site)
			input, _ := reader.ReadString('\n')
			if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
				return
			}

			if err := manager.Delete(account.Site); err != nil {
				ui.PrintError("Failed to remove credentials", err.Error())
				os.Exit(1)
			}
			ui.PrintSuccess("Credentials removed: " + account.Site)
			return
		}

		// Multiple sites, show menu
		fmt.Println("Select site to remove:")
		for i, account := range accounts {
			fmt.Printf("  %d. %s\n", i+1, account.Site)
		}
		fmt.Printf("  %d. Remove all sites\n", len(accounts)+1)
		fmt.Printf("  0. Cancel\n\n")

		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Choice: ")
		input, _ := reader.ReadString('\n')

		var choice int
		fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

		if choice == 0 {
			return
		} else if choice == len(accounts)+1 {
			// Remove all
			fmt.Print("Remove ALL stored credentials? This cannot be undone! (yes/N): ")
			confirm, _ := reader.ReadString('\n')
			if strings.TrimSpace(confirm) != "yes" {
				return
			}

			if err := manager.DeleteAll(); err != nil {
				ui.PrintError("Failed to remove all credentials", err.Error())
				os.Exit(1)
			}
			ui.PrintSuccess("All credentials removed")
			return
		} else if choice > 0 && choice <= len(accounts) {
			account := accounts[choice-1]
			if err := manager.Delete(account.Site); err != nil {
				ui.PrintError("Failed to remove credentials", err.Error())
				os.Exit(1)
			}
			ui.PrintSuccess("Credentials removed: " + account.Site)
			return
		} else {
			ui.PrintError("Invalid choice", "")
			os.Exit(1)
		}
	}

	// Site provided as argument
	site := wordpress.NormalizeSiteURL(args[0])
	if err := manager.Delete(site); err != nil {
		ui.PrintError("Failed to remove credentials", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Credentials removed: " + site)
}

func runList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list sites", err.Error())
		os.Exit(1)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored sites", "Use 'wpbackup auth login' to add one")
		return
	}

	ui.PrintHighlight("Stored Sites")
	fmt.Println()

	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. Site: %s\n", i+1, sanitized.Site)
		fmt.Printf("   Username: %s\n", sanitized.Username)
		fmt.Printf("   App Password: %s\n", sanitized.AppPassword)
		fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
}

// readPassword reads a password from stdin without echoing
func readPassword() (string, error) {
	// Try to read without echo
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println() // New line after password
		if err == nil {
			return string(password), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
