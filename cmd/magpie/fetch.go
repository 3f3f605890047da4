package main

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"magpie/internal/downloader"
	"magpie/pkg/auth"
	"magpie/pkg/config"
	apperrors "magpie/pkg/errors"
	"magpie/pkg/feed"
	"magpie/pkg/logger"
	"magpie/pkg/storage"
	"magpie/pkg/twitter"
	"magpie/pkg/ui"
)

var (
	// Fetch command flags
	outputDir       string
	concurrent      int
	callbackPort    int
	callbackTimeout time.Duration
	sample          bool
	profileName     string
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [username]",
	Short: "Download the photos from a user's liked tweets",
	Long: `Log into Twitter with OAuth2 and download every photo attached to the
user's liked tweets.

Without a username the likes of the authenticated account are fetched.
The login opens your browser; after you approve the application the
redirect is captured on a local port and the download starts.`,
	Example: `  # Download your own liked images
  magpie fetch

  # Download another account's liked images into a specific directory
  magpie fetch someuser --output ./liked --concurrent 4

  # Only fetch the first page, for a quick look
  magpie fetch --sample

  # Bound the login wait instead of waiting forever
  magpie fetch --callback-timeout 2m`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads")
	fetchCmd.Flags().IntVar(&concurrent, "concurrent", 0, "number of concurrent downloads")
	fetchCmd.Flags().IntVar(&callbackPort, "port", 0, "local port for the OAuth2 callback")
	fetchCmd.Flags().DurationVar(&callbackTimeout, "callback-timeout", 0, "how long to wait for the browser login (0 waits forever)")
	fetchCmd.Flags().BoolVar(&sample, "sample", false, "only process the first page of likes")
	fetchCmd.Flags().StringVarP(&profileName, "account", "a", "", "use a specific stored credential profile")
}

func runFetch(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if concurrent > 0 {
		flags["concurrent"] = concurrent
	}
	if callbackPort > 0 {
		flags["port"] = callbackPort
	}
	if callbackTimeout > 0 {
		flags["callback-timeout"] = callbackTimeout
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	log := logger.GetLogger()

	clientID := cfg.Twitter.ClientID
	clientSecret := cfg.Twitter.ClientSecret.Secret()
	if clientID == "" || clientSecret == "" {
		creds, err := loadStoredCredentials(profileName)
		if err != nil {
			return err
		}
		clientID = creds.ClientID
		clientSecret = creds.ClientSecret
	}

	ctx := cmd.Context()

	token, err := login(ctx, log, cfg, clientID, clientSecret)
	if err != nil {
		return err
	}

	client := twitter.NewClient(token, cfg.Download.DownloadTimeout, log)
	if cfg.Twitter.APIBaseURL != "" {
		client.SetBaseURL(cfg.Twitter.APIBaseURL)
	}

	var user *twitter.User
	if len(args) == 1 {
		user, err = client.GetUserByUsername(ctx, args[0])
	} else {
		user, err = client.Me(ctx)
	}
	if err != nil {
		return err
	}
	ui.PrintInfo("Fetching likes of", "@"+user.Username)

	spinner := ui.NewSpinner("Fetching tweets...")
	pipeline := feed.NewPipeline(client, log)
	refs, err := pipeline.LikedImageRefs(ctx, user.ID, sample, feed.Progress{
		PageFetched: func(pages int) {
			spinner.SetMessage(fmt.Sprintf("Fetching tweets... finished page %d", pages))
		},
		RefsFound: func(total int) {
			spinner.SetMessage(fmt.Sprintf("Processing tweets... found %d images", total))
		},
	})
	spinner.Stop()
	if err != nil {
		return err
	}

	if len(refs) == 0 {
		ui.PrintWarning("No images found in liked tweets")
		return nil
	}
	log.WithField("count", len(refs)).Info("downloading images")

	store, err := storage.NewManager(cfg.Output.Directory)
	if err != nil {
		return err
	}

	bar := ui.NewProgressBar(len(refs))
	pool := downloader.NewPool(cfg.Download.ConcurrentDownloads, client, store, log)
	pool.OnComplete = func(outcome downloader.Outcome) {
		bar.Increment(outcome.Err != nil)
	}
	outcomes := pool.Run(ctx, refs)
	bar.Finish()

	if failed := downloader.FailureCount(outcomes); failed > 0 {
		for _, outcome := range outcomes {
			if outcome.Err != nil {
				ui.PrintError(fmt.Sprintf("  %s", outcome.Ref.Filename()), outcome.Err)
			}
		}
		return fmt.Errorf("%d of %d downloads failed", failed, len(outcomes))
	}

	ui.PrintSuccess(fmt.Sprintf("Downloaded %d images to %s", len(outcomes), cfg.Output.Directory))
	return nil
}

// login runs the OAuth2 PKCE flow: start the local callback receiver,
// open the browser, wait for the redirect, verify the anti-forgery
// state and exchange the code.
func login(ctx context.Context, log logger.Logger, cfg *config.Config, clientID, clientSecret string) (string, error) {
	exchanger := auth.NewExchanger(clientID, clientSecret, cfg.Twitter.CallbackPort)
	state := exchanger.BeginLogin()

	// Bind before opening the browser so the redirect cannot race the
	// listener.
	receiver, err := auth.Listen(cfg.Twitter.CallbackPort, log)
	if err != nil {
		return "", err
	}

	log.Info("logging into Twitter with OAuth2")
	if err := openBrowser(state.URL); err != nil {
		log.WithError(err).Warn("could not open browser")
		ui.PrintInfo("Open this URL to log in", state.URL)
	}

	waitCtx := ctx
	if cfg.Twitter.CallbackTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, cfg.Twitter.CallbackTimeout)
		defer cancel()
	}

	log.Debug("waiting for callback...")
	outcome, err := receiver.Wait(waitCtx)
	if err != nil {
		return "", err
	}

	switch {
	case outcome.Malformed():
		return "", apperrors.New(apperrors.KindTokenExchange, "callback carried no usable OAuth2 response")
	case outcome.Provider != nil:
		return "", apperrors.Wrap(apperrors.KindTokenExchange, "provider denied the login", outcome.Provider)
	}

	if outcome.Grant.State != state.State {
		return "", apperrors.New(apperrors.KindAuthIntegrity,
			"callback state does not match the login attempt")
	}

	return exchanger.CompleteLogin(ctx, outcome.Grant.Code, state.Verifier)
}

func loadStoredCredentials(profile string) (*auth.Credentials, error) {
	manager, err := auth.NewManager()
	if err != nil {
		return nil, fmt.Errorf("failed to open credential stores: %w", err)
	}
	if profile != "" {
		return manager.Retrieve(profile)
	}
	return manager.RetrieveDefault()
}

// openBrowser opens the URL with the platform's default handler
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
