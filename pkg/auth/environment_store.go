package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// It reads the same WP_USERNAME and WP_APP_PASSWORD variables the config
// loader recognizes.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(site string) (*Account, error) {
	username := os.Getenv("WP_USERNAME")
	appPassword := os.Getenv("WP_APP_PASSWORD")

	if username == "" || appPassword == "" {
		return nil, ErrCredentialsNotFound
	}

	// Environment variables are not tied to a site, so fall back to the
	// configured site URL or a default marker
	if site == "" {
		site = os.Getenv("WP_SITE_URL")
	}
	if site == "" {
		site = "default"
	}

	return &Account{
		Site:         site,
		Username:     username,
		AppPassword:  appPassword,
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(site string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(site string) bool {
	return os.Getenv("WP_USERNAME") != "" && os.Getenv("WP_APP_PASSWORD") != ""
}
