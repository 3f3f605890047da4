package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for magpie
type Config struct {
	// Twitter OAuth application settings
	Twitter TwitterConfig `yaml:"twitter" json:"twitter"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TwitterConfig holds the OAuth client settings for the Twitter API
type TwitterConfig struct {
	ClientID     string   `yaml:"client_id" json:"client_id"`
	ClientSecret Redacted `yaml:"client_secret" json:"client_secret"`

	// APIBaseURL overrides the API host, used by the integration tests
	APIBaseURL string `yaml:"api_base_url,omitempty" json:"api_base_url,omitempty"`

	// CallbackPort is the local port the OAuth redirect is captured on
	CallbackPort int `yaml:"callback_port" json:"callback_port"`

	// CallbackTimeout bounds the wait for the browser redirect.
	// Zero means wait forever.
	CallbackTimeout time.Duration `yaml:"callback_timeout" json:"callback_timeout"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Twitter: TwitterConfig{
			CallbackPort:    49277,
			CallbackTimeout: 0,
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 8,
			DownloadTimeout:     30 * time.Second,
		},
		Output: OutputConfig{
			Directory: "./downloads",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if clientID := os.Getenv("TWITTER_OAUTH_CLIENT_ID"); clientID != "" {
		c.Twitter.ClientID = clientID
	}
	if clientSecret := os.Getenv("TWITTER_OAUTH_CLIENT_SECRET"); clientSecret != "" {
		c.Twitter.ClientSecret = Redacted(clientSecret)
	}
	if baseURL := os.Getenv("MAGPIE_API_BASE_URL"); baseURL != "" {
		c.Twitter.APIBaseURL = baseURL
	}
	if port := os.Getenv("MAGPIE_CALLBACK_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid MAGPIE_CALLBACK_PORT: %w", err)
		}
		c.Twitter.CallbackPort = p
	}
	if timeout := os.Getenv("MAGPIE_CALLBACK_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid MAGPIE_CALLBACK_TIMEOUT: %w", err)
		}
		c.Twitter.CallbackTimeout = d
	}
	if concurrent := os.Getenv("MAGPIE_CONCURRENT_DOWNLOADS"); concurrent != "" {
		n, err := strconv.Atoi(concurrent)
		if err != nil {
			return fmt.Errorf("invalid MAGPIE_CONCURRENT_DOWNLOADS: %w", err)
		}
		c.Download.ConcurrentDownloads = n
	}
	if timeout := os.Getenv("MAGPIE_DOWNLOAD_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid MAGPIE_DOWNLOAD_TIMEOUT: %w", err)
		}
		c.Download.DownloadTimeout = d
	}
	if dir := os.Getenv("MAGPIE_OUTPUT_DIR"); dir != "" {
		c.Output.Directory = dir
	}
	if level := os.Getenv("MAGPIE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if file := os.Getenv("MAGPIE_LOG_FILE"); file != "" {
		c.Logging.File = file
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// ApplyFlags overrides configuration with command line flag values
func (c *Config) ApplyFlags(flags map[string]interface{}) {
	for key, value := range flags {
		switch key {
		case "output":
			if v, ok := value.(string); ok && v != "" {
				c.Output.Directory = v
			}
		case "concurrent":
			if v, ok := value.(int); ok && v > 0 {
				c.Download.ConcurrentDownloads = v
			}
		case "port":
			if v, ok := value.(int); ok && v > 0 {
				c.Twitter.CallbackPort = v
			}
		case "callback-timeout":
			if v, ok := value.(time.Duration); ok && v > 0 {
				c.Twitter.CallbackTimeout = v
			}
		case "log-level":
			if v, ok := value.(string); ok && v != "" {
				c.Logging.Level = v
			}
		}
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Twitter.CallbackPort < 1 || c.Twitter.CallbackPort > 65535 {
		return fmt.Errorf("callback port must be between 1 and 65535, got %d", c.Twitter.CallbackPort)
	}
	if c.Download.ConcurrentDownloads < 1 {
		return fmt.Errorf("concurrent downloads must be at least 1, got %d", c.Download.ConcurrentDownloads)
	}
	if c.Download.DownloadTimeout < 0 {
		return fmt.Errorf("download timeout cannot be negative")
	}
	if c.Twitter.CallbackTimeout < 0 {
		return fmt.Errorf("callback timeout cannot be negative")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("unknown log level: %s", c.Logging.Level)
	}
	if c.Output.Directory == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	return nil
}

// Load builds the effective configuration: defaults, then the config
// file (explicit path or the default location), then environment
// variables, then command line flags.
func Load(configFile string, flags map[string]interface{}) (*Config, error) {
	// A .env file in the working directory supplies environment
	// variables without exporting them; missing files are fine.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			return nil, err
		}
	} else if path, ok := defaultConfigPath(); ok {
		if err := cfg.LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}

	cfg.ApplyFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToFile writes the configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfigFile is the location `magpie config init` writes to
func DefaultConfigFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "magpie", "config.yaml"), nil
}

func defaultConfigPath() (string, bool) {
	path, err := DefaultConfigFile()
	if err != nil {
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}
