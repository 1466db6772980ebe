package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func useTempConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.json")
	t.Setenv(EnvPath, path)
	Invalidate()
	t.Cleanup(Invalidate)
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	useTempConfig(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.DarkMode != nil {
		t.Errorf("DarkMode should default to nil, got %v", *cfg.DarkMode)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := useTempConfig(t)

	cfg := Current()
	if err := cfg.Set("darkMode", "false"); err != nil {
		t.Fatalf("Set() returned error: %v", err)
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	Invalidate()
	reloaded, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if got, _ := reloaded.Get("darkMode"); got != "false" {
		t.Errorf("darkMode should be 'false' after reload, got %s", got)
	}
}

func TestSetAndGet(t *testing.T) {
	cfg := &Config{}

	if got, _ := cfg.Get("darkMode"); got != "auto" {
		t.Errorf("unset darkMode should read 'auto', got %s", got)
	}
	if err := cfg.Set("darkMode", "true"); err != nil {
		t.Fatalf("Set(true) returned error: %v", err)
	}
	if cfg.DarkMode == nil || !*cfg.DarkMode {
		t.Error("darkMode should be true")
	}
	if err := cfg.Set("darkMode", "auto"); err != nil {
		t.Fatalf("Set(auto) returned error: %v", err)
	}
	if cfg.DarkMode != nil {
		t.Error("darkMode should be cleared by 'auto'")
	}
	if err := cfg.Set("darkMode", "maybe"); err == nil {
		t.Error("Set() should reject a non-boolean value")
	}
	if err := cfg.Set("colour", "true"); err == nil {
		t.Error("Set() should reject an unknown key")
	}
	if _, err := cfg.Get("colour"); err == nil {
		t.Error("Get() should reject an unknown key")
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := useTempConfig(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("Load() should fail on invalid JSON")
	}
	if Current().DarkMode != nil {
		t.Error("Current() should fall back to defaults")
	}
}

func TestIsCI(t *testing.T) {
	t.Setenv(EnvCI, "")
	if IsCI() {
		t.Error("IsCI() should return false when CI env var is empty")
	}

	t.Setenv(EnvCI, "true")
	if !IsCI() {
		t.Error("IsCI() should return true when CI=true")
	}
}
