package auth

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "magpie"
	keyringPrefix  = "oauth_"
	keyringIndex   = "profile_index"
)

// KeyringStore implements CredentialStore using the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a new keyring-based credential store
func NewKeyringStore() (*KeyringStore, error) {
	// Probe availability; headless systems often have no keychain
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Store saves credentials to the system keychain
func (k *KeyringStore) Store(creds *Credentials) error {
	if creds == nil || creds.Profile == "" {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	key := keyringPrefix + creds.Profile
	if err := keyring.Set(keyringService, key, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	return k.addToIndex(creds.Profile)
}

// Retrieve gets credentials from the system keychain
func (k *KeyringStore) Retrieve(profile string) (*Credentials, error) {
	if profile == "" {
		return nil, ErrInvalidCredentials
	}

	key := keyringPrefix + profile
	data, err := keyring.Get(keyringService, key)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return &creds, nil
}

// List returns all profiles recorded in the keyring index. The
// keychain API has no enumeration, so an index entry tracks the
// profile names.
func (k *KeyringStore) List() ([]*Credentials, error) {
	names, err := k.readIndex()
	if err != nil {
		return nil, err
	}

	var result []*Credentials
	for _, name := range names {
		creds, err := k.Retrieve(name)
		if err != nil {
			continue
		}
		result = append(result, creds)
	}
	return result, nil
}

// Delete removes credentials from the system keychain
func (k *KeyringStore) Delete(profile string) error {
	if profile == "" {
		return ErrInvalidCredentials
	}

	key := keyringPrefix + profile
	if err := keyring.Delete(keyringService, key); err != nil {
		if err == keyring.ErrNotFound {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return k.removeFromIndex(profile)
}

// Exists checks if credentials exist for a profile
func (k *KeyringStore) Exists(profile string) bool {
	creds, err := k.Retrieve(profile)
	return err == nil && creds != nil
}

func (k *KeyringStore) readIndex() ([]string, error) {
	data, err := keyring.Get(keyringService, keyringIndex)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read keyring index: %w", err)
	}
	if data == "" {
		return nil, nil
	}
	return strings.Split(data, ","), nil
}

func (k *KeyringStore) addToIndex(profile string) error {
	names, err := k.readIndex()
	if err != nil {
		return err
	}
	for _, name := range names {
		if name == profile {
			return nil
		}
	}
	names = append(names, profile)
	return keyring.Set(keyringService, keyringIndex, strings.Join(names, ","))
}

func (k *KeyringStore) removeFromIndex(profile string) error {
	names, err := k.readIndex()
	if err != nil {
		return err
	}
	var kept []string
	for _, name := range names {
		if name != profile {
			kept = append(kept, name)
		}
	}
	if len(kept) == 0 {
		return keyring.Delete(keyringService, keyringIndex)
	}
	return keyring.Set(keyringService, keyringIndex, strings.Join(kept, ","))
}
