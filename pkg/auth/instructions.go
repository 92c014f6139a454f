package auth

import (
	"fmt"
	"strings"
)

// ShowAppPasswordGuide displays step-by-step instructions for creating a
// WordPress application password
func ShowAppPasswordGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("📚 WORDPRESS APPLICATION PASSWORD GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("This tool authenticates against the WordPress REST API with an")
	fmt.Println("application password, a separate credential you can revoke at any time")
	fmt.Println("without changing your real password.")
	fmt.Println()

	fmt.Println("🌐 STEP 1: Open your profile page")
	fmt.Println("   • Self-hosted (WordPress 5.6+): go to wp-admin → Users → Profile")
	fmt.Println("   • wordpress.com: go to https://wordpress.com/me/security")
	fmt.Println()

	fmt.Println("🔑 STEP 2: Create the application password")
	fmt.Println("   1. Scroll to the 'Application Passwords' section")
	fmt.Println("   2. Enter a name for it, e.g. 'wpbackup'")
	fmt.Println("   3. Click 'Add New Application Password'")
	fmt.Println()

	fmt.Println("📋 STEP 3: Copy the generated password")
	fmt.Println("   - It looks like: abcd EFGH 1234 ijkl MNOP 5678")
	fmt.Println("   - It is shown ONCE; copy it before leaving the page")
	fmt.Println("   - Spaces inside the password do not matter")
	fmt.Println()

	fmt.Println("💡 TIPS:")
	fmt.Println("   • Use your normal WordPress login name as the username")
	fmt.Println("   • wordpress.com requires two-step authentication to be enabled first")
	fmt.Println("   • If your site forces HTTPS only for wp-admin, application passwords")
	fmt.Println("     still work for the REST API over HTTPS")
	fmt.Println()

	fmt.Println("⚠️  SECURITY:")
	fmt.Println("   • The password grants API access as your user; never share it")
	fmt.Println("   • Revoke it from the same profile page when you stop using this tool")
	fmt.Println("   • This tool stores it in your system keychain, or encrypted on disk")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickAppPasswordGuide shows a condensed version for experienced users
func ShowQuickAppPasswordGuide() {
	fmt.Println("\n🔑 Quick Guide: wp-admin → Users → Profile → Application Passwords → Add New")
	fmt.Println("   Need: your login name and the generated password (shown once)")
	fmt.Println("   Run 'wpbackup auth login --help' for detailed instructions")
}
