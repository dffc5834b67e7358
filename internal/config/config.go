// Package config manages the global settings and credential files under
// ~/.config/restrain.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the global config stored at ~/.config/restrain/config.json.
type Config struct {
	ServerURL string `json:"server_url"`
	LogFile   string `json:"log_file,omitempty"`
}

// Credentials stores authentication state at ~/.config/restrain/auth.json.
type Credentials struct {
	APIKey   string `json:"api_key"`
	UserID   string `json:"user_id"`
	Email    string `json:"email,omitempty"`
	DeviceID string `json:"device_id"`
}

const defaultServerURL = "http://localhost:8080"

// Dir returns ~/.config/restrain, creating it if necessary.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "restrain")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// Load reads the global config. A missing file yields defaults, not an
// error.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the global config.
func Save(cfg *Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(filepath.Join(dir, "config.json"), data, 0644)
}

// LoadCredentials reads auth state. Returns (nil, nil) when no one is
// logged in.
func LoadCredentials() (*Credentials, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "auth.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// SaveCredentials writes auth state (0600 perms).
func SaveCredentials(creds *Credentials) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(filepath.Join(dir, "auth.json"), data, 0600)
}

// ClearCredentials removes auth.json.
func ClearCredentials() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(dir, "auth.json"))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// ServerURL returns the backend URL.
// Priority: RESTRAIN_SERVER_URL env > config.json > default.
func ServerURL() string {
	if v := os.Getenv("RESTRAIN_SERVER_URL"); v != "" {
		return v
	}
	cfg, err := Load()
	if err == nil && cfg.ServerURL != "" {
		return cfg.ServerURL
	}
	return defaultServerURL
}

// APIKey returns the API key.
// Priority: RESTRAIN_API_KEY env > auth.json.
func APIKey() string {
	if v := os.Getenv("RESTRAIN_API_KEY"); v != "" {
		return v
	}
	creds, err := LoadCredentials()
	if err == nil && creds != nil {
		return creds.APIKey
	}
	return ""
}

// IsAuthenticated reports whether an API key is available.
func IsAuthenticated() bool {
	return APIKey() != ""
}

// DeviceID returns the stored device ID, generating one if needed.
func DeviceID() (string, error) {
	creds, err := LoadCredentials()
	if err != nil {
		return "", err
	}
	if creds != nil && creds.DeviceID != "" {
		return creds.DeviceID, nil
	}
	return GenerateDeviceID()
}

// GenerateDeviceID creates a new random device ID (16 bytes hex).
func GenerateDeviceID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate device id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// writeAtomic writes via a temp file and rename so a crash mid-write never
// leaves a truncated config behind.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
