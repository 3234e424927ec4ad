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
	creds := &Credentials{
		Label:        "collector",
		Cookies:      "a1=test_device_id; web_session=test_session_12345; webId=abcdef",
		UserAgent:    "TestAgent/1.0",
		LastModified: time.Now(),
	}

	err := manager.Store(creds)
	if err != nil {
		t.Errorf("Failed to store credentials: %v", err)
	}

	// Test retrieving credentials
	retrieved, err := manager.Retrieve("collector")
	if err != nil {
		t.Errorf("Failed to retrieve credentials: %v", err)
	}

	if retrieved.Label != creds.Label {
		t.Errorf("Label mismatch: got %s, want %s", retrieved.Label, creds.Label)
	}
	if retrieved.Cookies != creds.Cookies {
		t.Errorf("Cookies mismatch: got %s, want %s", retrieved.Cookies, creds.Cookies)
	}

	// Test listing credentials
	list, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list credentials: %v", err)
	}
	if len(list) == 0 {
		t.Error("Expected at least one entry in list")
	}

	// Test sanitization
	sanitized := SanitizeCredentials(creds)
	if sanitized.Cookies == creds.Cookies {
		t.Error("Cookies should be masked")
	}
	if sanitized.Label != creds.Label {
		t.Error("Label should not be masked")
	}

	// Test deletion
	err = manager.Delete("collector")
	if err != nil {
		t.Errorf("Failed to delete credentials: %v", err)
	}

	// Verify deletion
	_, err = manager.Retrieve("collector")
	if err == nil {
		t.Error("Expected error retrieving deleted credentials")
	}

	// Verify mock store state
	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 entries after deletion, got %d", mockStore.Count())
	}
}

func TestManagerStoreRequiresCookies(t *testing.T) {
	manager, _ := NewMockManager()

	err := manager.Store(&Credentials{Label: "incomplete"})
	if err == nil {
		t.Error("Expected error storing credentials without cookies")
	}
}

func TestManagerStoreDefaultsLabel(t *testing.T) {
	manager, mockStore := NewMockManager()

	err := manager.Store(&Credentials{Cookies: "a1=x; web_session=y"})
	if err != nil {
		t.Fatalf("Failed to store credentials: %v", err)
	}
	if !mockStore.Exists(DefaultLabel) {
		t.Errorf("Expected credentials stored under %q", DefaultLabel)
	}
}

func TestEncryptedFileStore(t *testing.T) {
	// Create a temporary file
	tempFile := filepath.Join(t.TempDir(), "test_creds.enc")

	// Set test passphrase
	os.Setenv("XHSCOLLECT_PASSPHRASE", "test_passphrase_123")
	defer os.Unsetenv("XHSCOLLECT_PASSPHRASE")

	// Create store
	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	creds := &Credentials{
		Label:   "encrypted_label",
		Cookies: "a1=encdev; web_session=encrypted_session_value",
	}

	// Store
	err = store.Store(creds)
	if err != nil {
		t.Errorf("Failed to store in encrypted file: %v", err)
	}

	// Retrieve
	retrieved, err := store.Retrieve("encrypted_label")
	if err != nil {
		t.Errorf("Failed to retrieve from encrypted file: %v", err)
	}

	if retrieved.Cookies != creds.Cookies {
		t.Errorf("Cookies mismatch after encryption/decryption")
	}

	// Verify file is actually encrypted
	fileContent, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatal(err)
	}

	// File should not contain plaintext credentials
	if contains(fileContent, []byte("encrypted_session_value")) {
		t.Error("File contains plaintext session cookie")
	}
}

func TestEnvironmentStore(t *testing.T) {
	// Set environment variables
	os.Setenv("XHS_COOKIES", "a1=envdev; web_session=env_session")
	os.Setenv("XHS_USER_AGENT", "EnvAgent/1.0")
	defer os.Unsetenv("XHS_COOKIES")
	defer os.Unsetenv("XHS_USER_AGENT")

	store := NewEnvironmentStore()

	// Test retrieve
	creds, err := store.Retrieve("")
	if err != nil {
		t.Errorf("Failed to retrieve from environment: %v", err)
	}

	if creds.Cookies != "a1=envdev; web_session=env_session" {
		t.Errorf("Cookies mismatch: got %s", creds.Cookies)
	}
	if creds.UserAgent != "EnvAgent/1.0" {
		t.Errorf("UserAgent mismatch: got %s", creds.UserAgent)
	}
	if creds.Label != DefaultLabel {
		t.Errorf("Expected default label, got %s", creds.Label)
	}

	// Test that store is not supported
	err = store.Store(&Credentials{})
	if err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}
}

func TestEnvironmentOverridesStoredCredentials(t *testing.T) {
	mockStore := NewMockStore()
	mockStore.Store(&Credentials{Label: DefaultLabel, Cookies: "a1=stored; web_session=stored_session"})

	manager := NewMockManagerWithStores(NewEnvironmentStore(), mockStore)

	os.Setenv("XHS_COOKIES", "a1=env; web_session=env_wins")
	defer os.Unsetenv("XHS_COOKIES")

	creds, err := manager.RetrieveDefault()
	if err != nil {
		t.Fatalf("Failed to retrieve default credentials: %v", err)
	}
	if creds.Cookies != "a1=env; web_session=env_wins" {
		t.Errorf("Expected environment credentials to win, got %s", creds.Cookies)
	}
}

func TestRetrieveDefaultFallsBackToStored(t *testing.T) {
	os.Unsetenv("XHS_COOKIES")

	mockStore := NewMockStore()
	mockStore.Store(&Credentials{Label: "backup", Cookies: "a1=stored; web_session=stored_session"})

	manager := NewMockManagerWithStores(NewEnvironmentStore(), mockStore)

	creds, err := manager.RetrieveDefault()
	if err != nil {
		t.Fatalf("Failed to retrieve default credentials: %v", err)
	}
	if creds.Label != "backup" {
		t.Errorf("Expected stored credentials as fallback, got %s", creds.Label)
	}
}

func TestRealManagerWithEncryptedStore(t *testing.T) {
	tempDir := t.TempDir()

	// Set passphrase for testing
	os.Setenv("XHSCOLLECT_PASSPHRASE", "test_passphrase_real_manager")
	defer os.Unsetenv("XHSCOLLECT_PASSPHRASE")

	// Create manager with only encrypted file store (most reliable for testing)
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(tempDir, "credentials.enc"))
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	manager := NewMockManagerWithStores(encryptedStore)

	creds := &Credentials{
		Label:        "realuser",
		Cookies:      "a1=realdev; web_session=real_session",
		UserAgent:    "RealAgent/1.0",
		LastModified: time.Now(),
	}

	err = manager.Store(creds)
	if err != nil {
		t.Fatalf("Failed to store credentials: %v", err)
	}

	// Test listing credentials
	list, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list credentials: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("Expected 1 entry in list, got %d", len(list))
	}

	// Test retrieving credentials
	retrieved, err := manager.Retrieve("realuser")
	if err != nil {
		t.Fatalf("Failed to retrieve credentials: %v", err)
	}

	if retrieved.Label != creds.Label {
		t.Errorf("Label mismatch: got %s, want %s", retrieved.Label, creds.Label)
	}
	if retrieved.Cookies != creds.Cookies {
		t.Errorf("Cookies mismatch: got %s, want %s", retrieved.Cookies, creds.Cookies)
	}
}

func TestMockStore(t *testing.T) {
	store := NewMockStore()

	// Test empty store
	list, err := store.List()
	if err != nil {
		t.Errorf("Failed to list empty store: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected 0 entries, got %d", len(list))
	}

	// Test storing and retrieving
	creds := &Credentials{
		Label:   "mocklabel",
		Cookies: "a1=mockdev; web_session=mock_session",
	}

	err = store.Store(creds)
	if err != nil {
		t.Errorf("Failed to store credentials: %v", err)
	}

	// Verify count
	if store.Count() != 1 {
		t.Errorf("Expected 1 entry, got %d", store.Count())
	}

	// Test exists
	if !store.Exists("mocklabel") {
		t.Error("Credentials should exist")
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
