package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apperrors "magpie/pkg/errors"
	"magpie/pkg/logger"
	"magpie/pkg/ui"
)

var (
	version = "1.0.0"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "magpie",
	Short: "Archive the images from your liked tweets",
	Long: `Magpie logs into Twitter with OAuth2, walks your liked tweets and
downloads every attached photo to a local directory.

Credentials for your OAuth application are stored securely:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (TWITTER_OAUTH_CLIENT_ID / TWITTER_OAUTH_CLIENT_SECRET)`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and reports fatal errors with their
// full causal chain instead of a stack dump.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.GetLogger()
		log.Error("runtime error:")
		for _, line := range apperrors.Chain(err) {
			log.Error("--> " + line)
		}
		ui.PrintError(fmt.Sprintf("magpie failed: %v", err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ~/.config/magpie/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}
