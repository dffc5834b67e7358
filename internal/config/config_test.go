package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load (missing file): %v", err)
	}
	if cfg.ServerURL != "" {
		t.Errorf("fresh config ServerURL = %q", cfg.ServerURL)
	}

	cfg.ServerURL = "https://api.example.com"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ServerURL != "https://api.example.com" {
		t.Errorf("ServerURL = %q", got.ServerURL)
	}
}

func TestCredentialsLifecycle(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	creds, err := LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if creds != nil {
		t.Fatal("expected nil credentials before login")
	}

	if err := SaveCredentials(&Credentials{
		APIKey: "key-123", UserID: "user-1", DeviceID: "dev-1",
	}); err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}

	creds, err = LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if creds == nil || creds.APIKey != "key-123" || creds.UserID != "user-1" {
		t.Errorf("creds = %+v", creds)
	}

	dir, _ := Dir()
	info, err := os.Stat(filepath.Join(dir, "auth.json"))
	if err != nil {
		t.Fatalf("stat auth.json: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("auth.json perms = %v, want 0600", info.Mode().Perm())
	}

	if err := ClearCredentials(); err != nil {
		t.Fatalf("ClearCredentials: %v", err)
	}
	creds, err = LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials after clear: %v", err)
	}
	if creds != nil {
		t.Error("credentials should be gone after clear")
	}
	if err := ClearCredentials(); err != nil {
		t.Errorf("ClearCredentials twice: %v", err)
	}
}

func TestServerURLPriority(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RESTRAIN_SERVER_URL", "")

	if got := ServerURL(); got != defaultServerURL {
		t.Errorf("default ServerURL = %q", got)
	}

	if err := Save(&Config{ServerURL: "https://cfg.example.com"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := ServerURL(); got != "https://cfg.example.com" {
		t.Errorf("config ServerURL = %q", got)
	}

	t.Setenv("RESTRAIN_SERVER_URL", "https://env.example.com")
	if got := ServerURL(); got != "https://env.example.com" {
		t.Errorf("env ServerURL = %q", got)
	}
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RESTRAIN_API_KEY", "env-key")

	if got := APIKey(); got != "env-key" {
		t.Errorf("APIKey = %q", got)
	}
	if !IsAuthenticated() {
		t.Error("IsAuthenticated should be true with env key")
	}
}

func TestDeviceIDGeneratedOnce(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	id, err := GenerateDeviceID()
	if err != nil {
		t.Fatalf("GenerateDeviceID: %v", err)
	}
	if len(id) != 32 {
		t.Errorf("device id length = %d, want 32 hex chars", len(id))
	}

	if err := SaveCredentials(&Credentials{APIKey: "k", UserID: "u", DeviceID: id}); err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}
	got, err := DeviceID()
	if err != nil {
		t.Fatalf("DeviceID: %v", err)
	}
	if got != id {
		t.Errorf("DeviceID = %q, want stored %q", got, id)
	}
}
