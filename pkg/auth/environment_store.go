package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// It is read-only and always consulted first, so XHS_COOKIES set in the
// shell overrides any persisted session.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(creds *Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from XHS_COOKIES and XHS_USER_AGENT
func (e *EnvironmentStore) Retrieve(label string) (*Credentials, error) {
	cookies := os.Getenv("XHS_COOKIES")
	userAgent := os.Getenv("XHS_USER_AGENT")

	if cookies == "" {
		return nil, ErrCredentialsNotFound
	}

	// Environment variables carry no label of their own
	if label == "" {
		label = DefaultLabel
	}

	return &Credentials{
		Label:        label,
		Cookies:      cookies,
		UserAgent:    userAgent,
		LastModified: time.Now(),
	}, nil
}

// List returns a single entry if environment variables are set
func (e *EnvironmentStore) List() ([]*Credentials, error) {
	creds, err := e.Retrieve("")
	if err != nil {
		return []*Credentials{}, nil
	}
	return []*Credentials{creds}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(label string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(label string) bool {
	return os.Getenv("XHS_COOKIES") != ""
}
