package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Credentials holds an OAuth application's client id and secret under
// a profile name. The access token obtained at runtime is never
// persisted; only the application credentials are.
type Credentials struct {
	Profile      string    `json:"profile"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	LastModified time.Time `json:"last_modified"`
}

// DefaultProfile is the profile used when none is named
const DefaultProfile = "default"

// CredentialStore is the interface for storing and retrieving OAuth
// application credentials.
type CredentialStore interface {
	// Store saves credentials for a profile
	Store(creds *Credentials) error

	// Retrieve gets credentials for a specific profile
	Retrieve(profile string) (*Credentials, error)

	// List returns all stored profiles
	List() ([]*Credentials, error)

	// Delete removes credentials for a specific profile
	Delete(profile string) error

	// Exists checks if credentials exist for a profile
	Exists(profile string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager layering the available
// backends: system keychain first, encrypted file second, environment
// variables last.
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves credentials using the first store that accepts them
func (m *Manager) Store(creds *Credentials) error {
	if creds.Profile == "" {
		return errors.New("profile name is required")
	}
	if creds.ClientID == "" {
		return errors.New("client id is required")
	}
	if creds.ClientSecret == "" {
		return errors.New("client secret is required")
	}

	creds.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(creds); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(profile string) (*Credentials, error) {
	for _, store := range m.stores {
		if creds, err := store.Retrieve(profile); err == nil && creds != nil {
			return creds, nil
		}
	}
	return nil, fmt.Errorf("credentials not found for profile: %s", profile)
}

// RetrieveDefault gets credentials from the environment when set,
// otherwise the default profile, otherwise the first stored profile.
func (m *Manager) RetrieveDefault() (*Credentials, error) {
	if envStore, ok := m.stores[len(m.stores)-1].(*EnvironmentStore); ok {
		if creds, err := envStore.Retrieve(DefaultProfile); err == nil && creds != nil {
			return creds, nil
		}
	}

	if creds, err := m.Retrieve(DefaultProfile); err == nil {
		return creds, nil
	}

	profiles, err := m.List()
	if err == nil && len(profiles) > 0 {
		return profiles[0], nil
	}

	return nil, errors.New("no credentials found; run `magpie auth login` or set TWITTER_OAUTH_CLIENT_ID and TWITTER_OAUTH_CLIENT_SECRET")
}

// List returns all stored profiles across all stores
func (m *Manager) List() ([]*Credentials, error) {
	profileMap := make(map[string]*Credentials)

	for _, store := range m.stores {
		profiles, err := store.List()
		if err != nil {
			continue
		}
		for _, creds := range profiles {
			if existing, ok := profileMap[creds.Profile]; !ok || creds.LastModified.After(existing.LastModified) {
				profileMap[creds.Profile] = creds
			}
		}
	}

	var result []*Credentials
	for _, creds := range profileMap {
		result = append(result, creds)
	}
	return result, nil
}

// Delete removes credentials from all stores
func (m *Manager) Delete(profile string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(profile); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("credentials not found for profile: %s", profile)
	}
	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "magpie")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "magpie")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "magpie")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "magpie")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// Sanitize returns a copy of the credentials safe for display
func Sanitize(creds *Credentials) *Credentials {
	return &Credentials{
		Profile:      creds.Profile,
		ClientID:     creds.ClientID,
		ClientSecret: maskString(creds.ClientSecret),
		LastModified: creds.LastModified,
	}
}

// maskString masks all but the first 4 characters of a secret
func maskString(s string) string {
	if len(s) <= 4 {
		return "********"
	}
	return s[:4] + "***"
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
