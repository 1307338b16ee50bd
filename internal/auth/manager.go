// Package auth provides Hugging Face authentication management for the
// reachy-mini CLI.
//
// This package handles storing and retrieving the Hugging Face access token
// from the user's home directory (~/.reachy-mini/credentials.json). It also
// understands the token written by `hf auth login` so users who already
// logged in with the official tooling are picked up automatically.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Credentials represents stored authentication credentials.
type Credentials struct {
	// Token is the Hugging Face access token.
	Token string `json:"token"`

	// Username is the Hugging Face account name (optional, for display).
	Username string `json:"username,omitempty"`

	// Fullname is the account's display name (optional).
	Fullname string `json:"fullname,omitempty"`
}

// Manager handles credential storage and retrieval.
type Manager struct {
	// configDir is the directory where credentials are stored.
	configDir string

	// hfTokenPath is the token file written by `hf auth login`.
	hfTokenPath string
}

// NewManager creates a new credential manager.
//
// Returns:
//   - *Manager: A new manager instance using ~/.reachy-mini as the config directory
func NewManager() *Manager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return &Manager{
		configDir:   filepath.Join(homeDir, ".reachy-mini"),
		hfTokenPath: filepath.Join(homeDir, ".cache", "huggingface", "token"),
	}
}

// NewManagerWithDir creates a new credential manager with custom paths.
//
// Parameters:
//   - configDir: The directory to store credentials in
//   - hfTokenPath: Path to the `hf auth login` token file ("" to disable)
//
// Returns:
//   - *Manager: A new manager instance
func NewManagerWithDir(configDir, hfTokenPath string) *Manager {
	return &Manager{
		configDir:   configDir,
		hfTokenPath: hfTokenPath,
	}
}

// credentialsPath returns the path to the credentials file.
func (m *Manager) credentialsPath() string {
	return filepath.Join(m.configDir, "credentials.json")
}

// GetCredentials retrieves stored credentials.
//
// Resolution order:
//  1. HF_TOKEN environment variable (for CI and scripts)
//  2. ~/.reachy-mini/credentials.json written by `reachy-mini auth login`
//  3. the token file written by `hf auth login`
//
// Returns:
//   - *Credentials: The stored credentials, or nil if not found
//   - error: Any error that occurred during retrieval
func (m *Manager) GetCredentials() (*Credentials, error) {
	if token := os.Getenv("HF_TOKEN"); token != "" {
		return &Credentials{Token: token}, nil
	}

	data, err := os.ReadFile(m.credentialsPath())
	if err == nil {
		var creds Credentials
		if err := json.Unmarshal(data, &creds); err != nil {
			return nil, fmt.Errorf("failed to parse credentials: %w", err)
		}
		return &creds, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	// Fall back to the Hugging Face CLI's own token file.
	if m.hfTokenPath != "" {
		if data, err := os.ReadFile(m.hfTokenPath); err == nil {
			token := strings.TrimSpace(string(data))
			if token != "" {
				return &Credentials{Token: token}, nil
			}
		}
	}

	return nil, nil
}

// SaveCredentials stores credentials to disk.
//
// Parameters:
//   - creds: The credentials to store
//
// Returns:
//   - error: Any error that occurred during storage
func (m *Manager) SaveCredentials(creds *Credentials) error {
	// Ensure config directory exists
	if err := os.MkdirAll(m.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	// Write with restricted permissions (owner read/write only)
	if err := os.WriteFile(m.credentialsPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}

	return nil
}

// ClearCredentials removes stored credentials.
//
// Only removes the CLI's own credentials file, never the token written by
// `hf auth login`.
//
// Returns:
//   - error: Any error that occurred during removal
func (m *Manager) ClearCredentials() error {
	err := os.Remove(m.credentialsPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}

// IsAuthenticated checks if valid credentials exist.
//
// Returns:
//   - bool: True if credentials exist and have a token
func (m *Manager) IsAuthenticated() bool {
	creds, err := m.GetCredentials()
	if err != nil {
		return false
	}
	return creds != nil && creds.Token != ""
}
