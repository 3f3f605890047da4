package auth

import (
	"sync"
	"time"
)

// MockStore is an in-memory CredentialStore for tests
type MockStore struct {
	mu       sync.RWMutex
	profiles map[string]*Credentials

	// Error overrides for failure injection
	StoreErr    error
	RetrieveErr error
	ListErr     error
	DeleteErr   error
}

// NewMockStore creates a new in-memory credential store
func NewMockStore() *MockStore {
	return &MockStore{
		profiles: make(map[string]*Credentials),
	}
}

// Store saves credentials in memory
func (m *MockStore) Store(creds *Credentials) error {
	if m.StoreErr != nil {
		return m.StoreErr
	}
	if creds == nil || creds.Profile == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copy := *creds
	if copy.LastModified.IsZero() {
		copy.LastModified = time.Now()
	}
	m.profiles[creds.Profile] = &copy
	return nil
}

// Retrieve gets credentials from memory
func (m *MockStore) Retrieve(profile string) (*Credentials, error) {
	if m.RetrieveErr != nil {
		return nil, m.RetrieveErr
	}
	if profile == "" {
		return nil, ErrInvalidCredentials
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	creds, exists := m.profiles[profile]
	if !exists {
		return nil, ErrCredentialsNotFound
	}
	copy := *creds
	return &copy, nil
}

// List returns all stored profiles
func (m *MockStore) List() ([]*Credentials, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Credentials
	for _, creds := range m.profiles {
		copy := *creds
		result = append(result, &copy)
	}
	return result, nil
}

// Delete removes credentials from memory
func (m *MockStore) Delete(profile string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if profile == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.profiles[profile]; !exists {
		return ErrCredentialsNotFound
	}
	delete(m.profiles, profile)
	return nil
}

// Exists checks if credentials exist
func (m *MockStore) Exists(profile string) bool {
	creds, err := m.Retrieve(profile)
	return err == nil && creds != nil
}
