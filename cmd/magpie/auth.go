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

	"magpie/pkg/auth"
	"magpie/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Twitter OAuth2 application credentials",
	Long: `Manage stored Twitter OAuth2 application credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (TWITTER_OAUTH_CLIENT_ID / TWITTER_OAUTH_CLIENT_SECRET)

Only the application's client id and secret are stored. Access tokens
are obtained interactively on every run and never written to disk.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store OAuth2 application credentials securely",
	Long: `Store a Twitter OAuth2 application's client id and secret.

You will be prompted for:
  - Client ID
  - Client Secret (hidden as you type)

To get these values:
1. Open the Twitter developer portal
2. Select your project and app
3. Copy the OAuth 2.0 Client ID and Client Secret`,
	Example: `  # Store credentials under the default profile
  magpie auth login

  # Store credentials under a named profile
  magpie auth login work`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove stored credentials",
	Long: `Remove stored OAuth2 application credentials.

If no profile is provided, the default profile is removed.`,
	Example: `  # Remove the default profile
  magpie auth logout

  # Remove a named profile
  magpie auth logout work`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored credential profiles",
	Long:  `List all stored credential profiles with the client secret masked.`,
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

	profile := auth.DefaultProfile
	if len(args) > 0 {
		profile = args[0]
	}

	reader := bufio.NewReader(os.Stdin)

	// Warn before silently replacing an existing profile
	if existing, _ := manager.Retrieve(profile); existing != nil {
		fmt.Printf("Profile '%s' already exists. Update credentials? (y/N): ", profile)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Print("Client ID: ")
	clientID, err := reader.ReadString('\n')
	if err != nil {
		ui.PrintError("Failed to read client id", err.Error())
		os.Exit(1)
	}
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		ui.PrintError("Client ID is required", "")
		os.Exit(1)
	}

	fmt.Print("Client Secret (hidden): ")
	clientSecret, err := readSecret()
	if err != nil {
		ui.PrintError("Failed to read client secret", err.Error())
		os.Exit(1)
	}
	if clientSecret == "" {
		ui.PrintError("Client Secret is required", "")
		os.Exit(1)
	}

	creds := &auth.Credentials{
		Profile:      profile,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		LastModified: time.Now(),
	}

	if err := manager.Store(creds); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Credentials saved: " + profile)
	fmt.Println("\nDownload your liked images with:")
	fmt.Println("  $ magpie fetch")
	if profile != auth.DefaultProfile {
		fmt.Printf("  $ magpie fetch --account %s\n", profile)
	}
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	profile := auth.DefaultProfile
	if len(args) > 0 {
		profile = args[0]
	}

	if err := manager.Delete(profile); err != nil {
		ui.PrintError("Failed to remove credentials", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Credentials removed: " + profile)
}

func runList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	profiles, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list profiles", err.Error())
		os.Exit(1)
	}

	if len(profiles) == 0 {
		ui.PrintInfo("No stored profiles", "Use 'magpie auth login' to add one")
		return
	}

	ui.PrintHighlight("Stored Profiles")
	fmt.Println()

	for i, creds := range profiles {
		sanitized := auth.Sanitize(creds)
		fmt.Printf("%d. Profile: %s\n", i+1, sanitized.Profile)
		fmt.Printf("   Client ID: %s\n", sanitized.ClientID)
		fmt.Printf("   Client Secret: %s\n", sanitized.ClientSecret)
		fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
}

// readSecret reads a secret from stdin without echoing
func readSecret() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return string(secret), nil
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
