package auth

import "os"

// Environment variable names, matching what the OAuth provider's app
// dashboard hands out.
const (
	EnvClientID     = "TWITTER_OAUTH_CLIENT_ID"
	EnvClientSecret = "TWITTER_OAUTH_CLIENT_SECRET"
)

// EnvironmentStore reads credentials from the environment. It is
// read-only and always maps to the default profile.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is unsupported; the environment cannot be written
func (s *EnvironmentStore) Store(creds *Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve reads the client id and secret from the environment
func (s *EnvironmentStore) Retrieve(profile string) (*Credentials, error) {
	if profile != "" && profile != DefaultProfile {
		return nil, ErrCredentialsNotFound
	}

	clientID := os.Getenv(EnvClientID)
	clientSecret := os.Getenv(EnvClientSecret)
	if clientID == "" || clientSecret == "" {
		return nil, ErrCredentialsNotFound
	}

	return &Credentials{
		Profile:      DefaultProfile,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}, nil
}

// List returns the environment credentials when present
func (s *EnvironmentStore) List() ([]*Credentials, error) {
	creds, err := s.Retrieve(DefaultProfile)
	if err != nil {
		return []*Credentials{}, nil
	}
	return []*Credentials{creds}, nil
}

// Delete is unsupported; the environment cannot be modified
func (s *EnvironmentStore) Delete(profile string) error {
	return ErrStoreUnavailable
}

// Exists checks whether both environment variables are set
func (s *EnvironmentStore) Exists(profile string) bool {
	creds, err := s.Retrieve(profile)
	return err == nil && creds != nil
}
