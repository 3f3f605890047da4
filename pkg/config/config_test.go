package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Twitter.CallbackPort != 49277 {
		t.Errorf("Expected default callback port to be 49277, got %d", config.Twitter.CallbackPort)
	}

	if config.Twitter.CallbackTimeout != 0 {
		t.Errorf("Expected default callback timeout to be 0, got %v", config.Twitter.CallbackTimeout)
	}

	if config.Download.ConcurrentDownloads != 8 {
		t.Errorf("Expected default concurrent downloads to be 8, got %d", config.Download.ConcurrentDownloads)
	}

	if config.Output.Directory != "./downloads" {
		t.Errorf("Expected default output directory to be ./downloads, got %s", config.Output.Directory)
	}

	if config.Logging.Level != "info" {
		t.Errorf("Expected default log level to be info, got %s", config.Logging.Level)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("TWITTER_OAUTH_CLIENT_ID", "test-client-id")
	os.Setenv("TWITTER_OAUTH_CLIENT_SECRET", "test-client-secret")
	os.Setenv("MAGPIE_CALLBACK_PORT", "9999")
	os.Setenv("MAGPIE_CALLBACK_TIMEOUT", "2m")
	os.Setenv("MAGPIE_CONCURRENT_DOWNLOADS", "4")
	os.Setenv("MAGPIE_OUTPUT_DIR", "/tmp/test-downloads")
	os.Setenv("MAGPIE_LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("TWITTER_OAUTH_CLIENT_ID")
		os.Unsetenv("TWITTER_OAUTH_CLIENT_SECRET")
		os.Unsetenv("MAGPIE_CALLBACK_PORT")
		os.Unsetenv("MAGPIE_CALLBACK_TIMEOUT")
		os.Unsetenv("MAGPIE_CONCURRENT_DOWNLOADS")
		os.Unsetenv("MAGPIE_OUTPUT_DIR")
		os.Unsetenv("MAGPIE_LOG_LEVEL")
	}()

	config := DefaultConfig()
	err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Twitter.ClientID != "test-client-id" {
		t.Errorf("Expected client id to be test-client-id, got %s", config.Twitter.ClientID)
	}

	if config.Twitter.ClientSecret.Secret() != "test-client-secret" {
		t.Errorf("Expected client secret to be test-client-secret, got %s", config.Twitter.ClientSecret.Secret())
	}

	if config.Twitter.CallbackPort != 9999 {
		t.Errorf("Expected callback port to be 9999, got %d", config.Twitter.CallbackPort)
	}

	if config.Twitter.CallbackTimeout != 2*time.Minute {
		t.Errorf("Expected callback timeout to be 2m, got %v", config.Twitter.CallbackTimeout)
	}

	if config.Download.ConcurrentDownloads != 4 {
		t.Errorf("Expected concurrent downloads to be 4, got %d", config.Download.ConcurrentDownloads)
	}

	if config.Output.Directory != "/tmp/test-downloads" {
		t.Errorf("Expected output directory to be /tmp/test-downloads, got %s", config.Output.Directory)
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "MAGPIE_CALLBACK_PORT", "not-a-port"},
		{"bad callback timeout", "MAGPIE_CALLBACK_TIMEOUT", "soon"},
		{"bad concurrency", "MAGPIE_CONCURRENT_DOWNLOADS", "many"},
		{"bad download timeout", "MAGPIE_DOWNLOAD_TIMEOUT", "later"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv(tt.key, tt.value)
			defer os.Unsetenv(tt.key)

			config := DefaultConfig()
			if err := config.LoadFromEnv(); err == nil {
				t.Errorf("Expected error for %s=%s, got nil", tt.key, tt.value)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
	}{
		{
			name:      "valid defaults",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:      "port too low",
			mutate:    func(c *Config) { c.Twitter.CallbackPort = 0 },
			wantError: true,
		},
		{
			name:      "port too high",
			mutate:    func(c *Config) { c.Twitter.CallbackPort = 70000 },
			wantError: true,
		},
		{
			name:      "zero concurrency",
			mutate:    func(c *Config) { c.Download.ConcurrentDownloads = 0 },
			wantError: true,
		},
		{
			name:      "negative callback timeout",
			mutate:    func(c *Config) { c.Twitter.CallbackTimeout = -time.Second },
			wantError: true,
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "loud" },
			wantError: true,
		},
		{
			name:      "empty output directory",
			mutate:    func(c *Config) { c.Output.Directory = "" },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestApplyFlags(t *testing.T) {
	config := DefaultConfig()

	flags := map[string]interface{}{
		"output":           "/flag/output",
		"concurrent":       7,
		"port":             8123,
		"callback-timeout": 90 * time.Second,
		"log-level":        "error",
	}

	config.ApplyFlags(flags)

	if config.Output.Directory != "/flag/output" {
		t.Errorf("Expected output directory to be /flag/output, got %s", config.Output.Directory)
	}

	if config.Download.ConcurrentDownloads != 7 {
		t.Errorf("Expected concurrent downloads to be 7, got %d", config.Download.ConcurrentDownloads)
	}

	if config.Twitter.CallbackPort != 8123 {
		t.Errorf("Expected callback port to be 8123, got %d", config.Twitter.CallbackPort)
	}

	if config.Twitter.CallbackTimeout != 90*time.Second {
		t.Errorf("Expected callback timeout to be 90s, got %v", config.Twitter.CallbackTimeout)
	}

	if config.Logging.Level != "error" {
		t.Errorf("Expected log level to be error, got %s", config.Logging.Level)
	}
}

func TestSaveAndLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	config := DefaultConfig()
	config.Twitter.ClientID = "save-test-id"
	config.Twitter.CallbackPort = 8421
	config.Download.ConcurrentDownloads = 5

	err := config.SaveToFile(configPath)
	if err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loadedConfig := DefaultConfig()
	err = loadedConfig.LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loadedConfig.Twitter.ClientID != "save-test-id" {
		t.Errorf("Expected loaded client id to be save-test-id, got %s", loadedConfig.Twitter.ClientID)
	}

	if loadedConfig.Twitter.CallbackPort != 8421 {
		t.Errorf("Expected loaded callback port to be 8421, got %d", loadedConfig.Twitter.CallbackPort)
	}

	if loadedConfig.Download.ConcurrentDownloads != 5 {
		t.Errorf("Expected loaded concurrent downloads to be 5, got %d", loadedConfig.Download.ConcurrentDownloads)
	}
}

func TestRedacted(t *testing.T) {
	secret := Redacted("super-secret-value")

	if secret.Secret() != "super-secret-value" {
		t.Errorf("Secret() should return the raw value")
	}

	masked := secret.String()
	if masked == "super-secret-value" {
		t.Errorf("String() must not expose the raw value, got %s", masked)
	}

	short := Redacted("ab")
	if short.String() == "ab" {
		t.Errorf("String() must mask short values too, got %s", short.String())
	}
}
