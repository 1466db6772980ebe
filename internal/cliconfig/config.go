package cliconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const (
	// EnvPath overrides the location of the CLI config file
	EnvPath = "REDIRECT_CHECK_CLI_CONFIG"
	// EnvCI indicates CI environment (no interactive UI)
	EnvCI = "CI"
)

var (
	cachedConfig *Config
	configMutex  sync.Mutex
)

// Config represents the user-level CLI preferences stored at
// ~/.config/redirect-check/cli.json
type Config struct {
	DarkMode *bool `json:"dark_mode,omitempty"` // nil means detect from the terminal
}

// Keys lists the settings accepted by Get and Set.
var Keys = map[string]string{
	"darkMode": "Force dark (true) or light (false) colors; unset to auto-detect",
}

// GetPath returns the path to the CLI config file
func GetPath() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		cfgDir = os.Getenv("HOME")
	}
	return filepath.Join(cfgDir, "redirect-check", "cli.json")
}

// Load loads the CLI config from disk. A missing file yields defaults.
func Load() (*Config, error) {
	configMutex.Lock()
	defer configMutex.Unlock()

	if cachedConfig != nil {
		return cachedConfig, nil
	}

	data, err := os.ReadFile(GetPath())
	if err != nil {
		if os.IsNotExist(err) {
			cachedConfig = &Config{}
			return cachedConfig, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cachedConfig = &cfg
	return cachedConfig, nil
}

// Current returns the loaded config, or defaults when it cannot be read.
func Current() *Config {
	cfg, err := Load()
	if err != nil {
		return &Config{}
	}
	return cfg
}

// Save persists the config to disk
func (c *Config) Save() error {
	configMutex.Lock()
	defer configMutex.Unlock()

	path := GetPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}

	cachedConfig = c
	return nil
}

// Get returns the display value of a setting.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "darkMode":
		if c.DarkMode == nil {
			return "auto", nil
		}
		return strconv.FormatBool(*c.DarkMode), nil
	default:
		return "", unknownKeyError(key)
	}
}

// Set parses and applies a setting. "auto" (or "") clears it.
func (c *Config) Set(key, value string) error {
	switch key {
	case "darkMode":
		if value == "" || strings.EqualFold(value, "auto") {
			c.DarkMode = nil
			return nil
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("darkMode must be true, false or auto, got %q", value)
		}
		c.DarkMode = &b
		return nil
	default:
		return unknownKeyError(key)
	}
}

func unknownKeyError(key string) error {
	names := make([]string, 0, len(Keys))
	for k := range Keys {
		names = append(names, k)
	}
	sort.Strings(names)
	return fmt.Errorf("unknown setting %q (available: %s)", key, strings.Join(names, ", "))
}

// IsCI returns true if running in a CI environment
func IsCI() bool {
	return os.Getenv(EnvCI) != ""
}

// Invalidate clears the cached config, forcing a reload on next Load()
func Invalidate() {
	configMutex.Lock()
	defer configMutex.Unlock()
	cachedConfig = nil
}
