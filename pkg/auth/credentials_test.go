package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCredentialManager(t *testing.T) {
	// Use mock manager for reliable testing
	manager, mockStore := NewMockManager()

	// Test storing credentials
	account := &Account{
		Site:         "myblog.wordpress.com",
		Username:     "admin",
		AppPassword:  "abcd EFGH 1234 ijkl MNOP 5678",
		LastModified: time.Now(),
	}

	err := manager.Store(account)
	if err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	// Test retrieving credentials
	retrieved, err := manager.Retrieve("myblog.wordpress.com")
	if err != nil {
		t.Errorf("Failed to retrieve account: %v", err)
	}

	if retrieved.Site != account.Site {
		t.Errorf("Site mismatch: got %s, want %s", retrieved.Site, account.Site)
	}
	if retrieved.Username != account.Username {
		t.Errorf("Username mismatch: got %s, want %s", retrieved.Username, account.Username)
	}
	if retrieved.AppPassword != account.AppPassword {
		t.Errorf("AppPassword mismatch: got %s, want %s", retrieved.AppPassword, account.AppPassword)
	}

	// Test listing accounts
	accounts, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list accounts: %v", err)
	}
	if len(accounts) == 0 {
		t.Error("Expected at least one account in list")
	}

	// Test sanitization
	sanitized := SanitizeAccount(account)
	if sanitized.AppPassword == account.AppPassword {
		t.Error("AppPassword should be masked")
	}
	if sanitized.Username != account.Username {
		t.Error("Username should not be masked")
	}
	if sanitized.Site != account.Site {
		t.Error("Site should not be masked")
	}

	// Test deletion
	err = manager.Delete("myblog.wordpress.com")
	if err != nil {
		t.Errorf("Failed to delete account: %v", err)
	}

	// Verify deletion
	_, err = manager.Retrieve("myblog.wordpress.com")
	if err == nil {
		t.Error("Expected error retrieving deleted account")
	}

	// Verify mock store state
	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 accounts after deletion, got %d", mockStore.Count())
	}
}

func TestManagerValidation(t *testing.T) {
	manager, _ := NewMockManager()

	cases := []struct {
		name    string
		account *Account
	}{
		{"missing site", &Account{Username: "admin", AppPassword: "secret"}},
		{"missing username", &Account{Site: "blog.example.com", AppPassword: "secret"}},
		{"missing password", &Account{Site: "blog.example.com", Username: "admin"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := manager.Store(tc.account); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestEncryptedFileStore(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_creds.enc")

	// Set test passphrase
	t.Setenv("WPBACKUP_PASSPHRASE", "test_passphrase_123")

	// Create store
	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	// Test operations
	account := &Account{
		Site:        "encrypted.example.com",
		Username:    "encrypted_user",
		AppPassword: "encrypted_app_password",
	}

	// Store
	err = store.Store(account)
	if err != nil {
		t.Errorf("Failed to store in encrypted file: %v", err)
	}

	// Retrieve
	retrieved, err := store.Retrieve("encrypted.example.com")
	if err != nil {
		t.Errorf("Failed to retrieve from encrypted file: %v", err)
	}

	if retrieved.AppPassword != account.AppPassword {
		t.Errorf("AppPassword mismatch after encryption/decryption")
	}

	// Verify file is actually encrypted
	fileContent, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatal(err)
	}

	// File should not contain plaintext credentials
	if contains(fileContent, []byte("encrypted_app_password")) {
		t.Error("File contains plaintext application password")
	}
	if contains(fileContent, []byte("encrypted_user")) {
		t.Error("File contains plaintext username")
	}
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("WP_USERNAME", "env_user")
	t.Setenv("WP_APP_PASSWORD", "env_password")
	t.Setenv("WP_SITE_URL", "env.example.com")

	store := NewEnvironmentStore()

	// Test retrieve with no site falls back to the configured site URL
	account, err := store.Retrieve("")
	if err != nil {
		t.Errorf("Failed to retrieve from environment: %v", err)
	}

	if account.Site != "env.example.com" {
		t.Errorf("Site mismatch: got %s, want env.example.com", account.Site)
	}
	if account.Username != "env_user" {
		t.Errorf("Username mismatch: got %s, want env_user", account.Username)
	}
	if account.AppPassword != "env_password" {
		t.Errorf("AppPassword mismatch: got %s, want env_password", account.AppPassword)
	}

	// Test that store is not supported
	err = store.Store(&Account{})
	if err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}
}

func TestEnvironmentStoreMissingCredentials(t *testing.T) {
	t.Setenv("WP_USERNAME", "")
	t.Setenv("WP_APP_PASSWORD", "")

	store := NewEnvironmentStore()
	if _, err := store.Retrieve("any.example.com"); err != ErrCredentialsNotFound {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}
	if store.Exists("any.example.com") {
		t.Error("Exists should be false without environment credentials")
	}
}

func TestRealManagerWithEncryptedStore(t *testing.T) {
	tempDir := t.TempDir()

	// Set passphrase for testing
	t.Setenv("WPBACKUP_PASSPHRASE", "test_passphrase_real_manager")

	// Create manager with only encrypted file store (most reliable for testing)
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(tempDir, "credentials.enc"))
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	manager := NewMockManagerWithStores(encryptedStore)

	// Test storing credentials
	account := &Account{
		Site:         "real.example.com",
		Username:     "realuser",
		AppPassword:  "real_app_password",
		LastModified: time.Now(),
	}

	err = manager.Store(account)
	if err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}

	// Test listing accounts
	accounts, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("Expected 1 account in list, got %d", len(accounts))
	}

	// Test retrieving credentials
	retrieved, err := manager.Retrieve("real.example.com")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}

	if retrieved.Username != account.Username {
		t.Errorf("Username mismatch: got %s, want %s", retrieved.Username, account.Username)
	}
	if retrieved.AppPassword != account.AppPassword {
		t.Errorf("AppPassword mismatch: got %s, want %s", retrieved.AppPassword, account.AppPassword)
	}
}

func TestMockStore(t *testing.T) {
	store := NewMockStore()

	// Test empty store
	accounts, err := store.List()
	if err != nil {
		t.Errorf("Failed to list empty store: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("Expected 0 accounts, got %d", len(accounts))
	}

	// Test storing and retrieving
	account := &Account{
		Site:        "mock.example.com",
		Username:    "mockuser",
		AppPassword: "mock_password",
	}

	err = store.Store(account)
	if err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	// Verify count
	if store.Count() != 1 {
		t.Errorf("Expected 1 account, got %d", store.Count())
	}

	// Test exists
	if !store.Exists("mock.example.com") {
		t.Error("Account should exist")
	}

	// Test error injection
	store.ListError = fmt.Errorf("injected error")
	_, err = store.List()
	if err == nil || err.Error() != "injected error" {
		t.Error("Expected injected error")
	}
}

func contains(data []byte, substr []byte) bool {
	for i := 0; i <= len(data)-len(substr); i++ {
		if string(data[i:i+len(substr)]) == string(substr) {
			return true
		}
	}
	return false
}
