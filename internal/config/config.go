package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/Use-Tusk/redirect-check/internal/log"
	"github.com/Use-Tusk/redirect-check/internal/utils"
)

const (
	DefaultLocalAddress = "127.0.0.1:1975"
	DefaultMarker       = "test"
	DefaultTimeout      = "30s"
)

var (
	k = koanf.New(".")

	cachedConfig    *Config
	cachedConfigErr error
	loadMutex       sync.Mutex
	hasLoaded       bool
	loadedFile      string
)

type Config struct {
	Target        TargetConfig        `koanf:"target" yaml:"target"`
	Rules         RulesConfig         `koanf:"rules" yaml:"rules"`
	TestExecution TestExecutionConfig `koanf:"test_execution" yaml:"test_execution"`
	Results       ResultsConfig       `koanf:"results" yaml:"results"`
}

type TargetConfig struct {
	// Address, when set, is used as-is and wins over the local/remote choice.
	Address            string `koanf:"address" yaml:"address,omitempty"`
	LocalAddress       string `koanf:"local_address" yaml:"local_address"`
	RemoteAddress      string `koanf:"remote_address" yaml:"remote_address,omitempty"`
	UseRemote          bool   `koanf:"use_remote" yaml:"use_remote"`
	InsecureSkipVerify *bool  `koanf:"insecure_skip_verify" yaml:"insecure_skip_verify,omitempty"`
}

type RulesConfig struct {
	Dir    string `koanf:"dir" yaml:"dir"`
	Marker string `koanf:"marker" yaml:"marker"`
}

type TestExecutionConfig struct {
	Concurrency int    `koanf:"concurrency" yaml:"concurrency"`
	Timeout     string `koanf:"timeout" yaml:"timeout"`
}

type ResultsConfig struct {
	Dir string `koanf:"dir" yaml:"dir,omitempty"`
}

// Load loads the config file and applies environment overrides.
// This function is idempotent - calling it multiple times will only load once.
func Load(configFile string) error {
	loadMutex.Lock()
	defer loadMutex.Unlock()

	if hasLoaded {
		log.Debug("Config already loaded, skipping reload")
		return nil
	}

	if configFile == "" {
		configFile = findConfigFile()
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return fmt.Errorf("error loading config file: %w", err)
		}
		loadedFile = configFile
		log.Debug("Config file loaded", "file", configFile)
	} else {
		log.Debug("No config file found, using defaults and environment variables")
	}

	envOverrides := map[string]string{
		"REDIRECT_CHECK_TARGET":      "target.address",
		"REDIRECT_CHECK_RULES_DIR":   "rules.dir",
		"REDIRECT_CHECK_MARKER":      "rules.marker",
		"REDIRECT_CHECK_RESULTS_DIR": "results.dir",
	}

	for envKey, configKey := range envOverrides {
		if val := os.Getenv(envKey); val != "" {
			if err := k.Set(configKey, val); err != nil {
				return fmt.Errorf("error setting %s from env: %w", envKey, err)
			}
		}
	}

	if val := os.Getenv("REDIRECT_CHECK_USE_REMOTE"); val != "" {
		useRemote, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("REDIRECT_CHECK_USE_REMOTE: invalid boolean %q", val)
		}
		if err := k.Set("target.use_remote", useRemote); err != nil {
			return fmt.Errorf("error setting REDIRECT_CHECK_USE_REMOTE from env: %w", err)
		}
	}

	hasLoaded = true
	log.Debug("All loaded config", "config", k.All())
	return nil
}

// Get returns the cached config. If not loaded yet, loads from default location.
func Get() (*Config, error) {
	if err := Load(""); err != nil {
		return nil, err
	}

	loadMutex.Lock()
	defer loadMutex.Unlock()

	if cachedConfig != nil {
		return cachedConfig, cachedConfigErr
	}

	cachedConfig, cachedConfigErr = parseAndValidate()
	return cachedConfig, cachedConfigErr
}

// LoadedFile returns the config file in use, or "" when running on defaults.
func LoadedFile() string {
	loadMutex.Lock()
	defer loadMutex.Unlock()
	return loadedFile
}

// parseAndValidate parses the loaded koanf data into a Config struct and validates it
func parseAndValidate() (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.applyDefaults()

	root := ProjectRoot(loadedFile)
	cfg.Rules.Dir = utils.ResolvePath(root, cfg.Rules.Dir)
	cfg.Results.Dir = utils.ResolvePath(root, cfg.Results.Dir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a config with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Target.LocalAddress == "" {
		cfg.Target.LocalAddress = DefaultLocalAddress
	}
	if cfg.Rules.Dir == "" {
		cfg.Rules.Dir = "."
	}
	if cfg.Rules.Marker == "" {
		cfg.Rules.Marker = DefaultMarker
	}
	if cfg.TestExecution.Concurrency == 0 {
		cfg.TestExecution.Concurrency = 1
	}
	if cfg.TestExecution.Timeout == "" {
		cfg.TestExecution.Timeout = DefaultTimeout
	}
	if cfg.Results.Dir == "" {
		cfg.Results.Dir = filepath.Join(utils.ProjectDirName, utils.ResultsSubDir)
	}
}

func (cfg *Config) Validate() error {
	var errs []error

	if cfg.TestExecution.Timeout != "" {
		d, err := time.ParseDuration(cfg.TestExecution.Timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("test_execution.timeout: invalid duration %q", cfg.TestExecution.Timeout))
		} else if d <= 0 {
			errs = append(errs, fmt.Errorf("test_execution.timeout must be positive, got %s", cfg.TestExecution.Timeout))
		}
	}

	if cfg.TestExecution.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("test_execution.concurrency must be at least 1, got %d", cfg.TestExecution.Concurrency))
	}

	if cfg.Target.UseRemote && cfg.Target.Address == "" && cfg.Target.RemoteAddress == "" {
		errs = append(errs, errors.New("target.remote_address is required when target.use_remote is true"))
	}

	if addr := cfg.TargetAddress(); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			errs = append(errs, fmt.Errorf("target address must be host:port, got %q", addr))
		}
	}

	if strings.ContainsAny(cfg.Rules.Marker, `/\`) {
		errs = append(errs, fmt.Errorf("rules.marker must be a file name prefix, got %q", cfg.Rules.Marker))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// TargetAddress resolves the host:port of the server under test.
func (cfg *Config) TargetAddress() string {
	switch {
	case cfg.Target.Address != "":
		return cfg.Target.Address
	case cfg.Target.UseRemote:
		return cfg.Target.RemoteAddress
	default:
		return cfg.Target.LocalAddress
	}
}

// TimeoutDuration returns the per-request timeout.
func (cfg *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(cfg.TestExecution.Timeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultTimeout)
	}
	return d
}

// SkipTLSVerify reports whether certificate verification is disabled. Unless
// set explicitly, local targets skip verification and remote targets verify.
func (cfg *Config) SkipTLSVerify() bool {
	if cfg.Target.InsecureSkipVerify != nil {
		return *cfg.Target.InsecureSkipVerify
	}
	return !cfg.Target.UseRemote
}

// Write saves cfg as YAML to path, creating parent directories.
func Write(path string, cfg *Config) error {
	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ValidationResult contains detailed validation results for config files.
type ValidationResult struct {
	Valid       bool     `json:"valid"`
	Errors      []string `json:"errors,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	UnknownKeys []string `json:"unknown_keys,omitempty"`
	MissingKeys []string `json:"missing_keys,omitempty"`
	SchemaHint  string   `json:"schema_hint,omitempty"`
}

// ValidateConfigFile performs comprehensive validation on a config file.
// It checks for unknown keys, required fields, and value constraints.
func ValidateConfigFile(configPath string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Config file not found: %s", configPath))
		return result
	}

	Invalidate()
	if err := Load(configPath); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to parse config: %s", err))
		return result
	}

	unknownKeys := CheckUnknownKeys()
	if len(unknownKeys) > 0 {
		result.UnknownKeys = unknownKeys
		for _, key := range unknownKeys {
			if suggestion := suggestCorrectKey(key); suggestion != "" {
				result.Warnings = append(result.Warnings, fmt.Sprintf("Unknown key '%s' - did you mean '%s'?", key, suggestion))
			} else {
				result.Warnings = append(result.Warnings, fmt.Sprintf("Unknown key '%s' will be ignored", key))
			}
		}
	}

	cfg, err := Get()
	if err != nil {
		result.Valid = false
		result.MissingKeys = missingRequired()
		result.Errors = append(result.Errors, strings.Split(err.Error(), "\n")...)
	} else if len(cfg.CheckRequired()) > 0 {
		result.Valid = false
		result.MissingKeys = cfg.CheckRequired()
	}
	for _, key := range result.MissingKeys {
		result.Errors = append(result.Errors, fmt.Sprintf("Missing required field: %s", key))
	}

	if !result.Valid || len(result.Warnings) > 0 {
		result.SchemaHint = getMinimalSchemaHint()
	}

	return result
}

// CheckRequired returns required fields that are missing for the configured mode.
func (cfg *Config) CheckRequired() []string {
	var missing []string
	if cfg.Target.UseRemote && cfg.Target.Address == "" && cfg.Target.RemoteAddress == "" {
		missing = append(missing, "target.remote_address")
	}
	return missing
}

// missingRequired inspects the raw keys when the config failed to parse.
func missingRequired() []string {
	if k.Bool("target.use_remote") && k.String("target.address") == "" && k.String("target.remote_address") == "" {
		return []string{"target.remote_address"}
	}
	return nil
}

// CheckUnknownKeys compares loaded config keys against the valid schema.
// Returns a list of keys that don't match any known config field.
func CheckUnknownKeys() []string {
	validKeys := getValidKeys(reflect.TypeOf(Config{}), "")
	loadedKeys := k.Keys()

	validSet := make(map[string]bool)
	for _, key := range validKeys {
		validSet[key] = true
		parts := strings.Split(key, ".")
		for i := 1; i < len(parts); i++ {
			validSet[strings.Join(parts[:i], ".")] = true
		}
	}

	var unknown []string
	for _, key := range loadedKeys {
		if !validSet[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)

	return unknown
}

// getValidKeys extracts all valid config key paths from struct tags recursively.
func getValidKeys(t reflect.Type, prefix string) []string {
	var keys []string

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return keys
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("koanf")
		if tag == "" || tag == "-" {
			continue
		}

		fullKey := tag
		if prefix != "" {
			fullKey = prefix + "." + tag
		}

		keys = append(keys, fullKey)

		fieldType := field.Type
		if fieldType.Kind() == reflect.Ptr {
			fieldType = fieldType.Elem()
		}
		if fieldType.Kind() == reflect.Struct {
			keys = append(keys, getValidKeys(fieldType, fullKey)...)
		}
	}

	return keys
}

// suggestCorrectKey suggests a known key for a misspelled or misplaced one.
func suggestCorrectKey(unknownKey string) string {
	validKeys := getValidKeys(reflect.TypeOf(Config{}), "")

	// A bare leaf name ("marker") usually belongs under its section.
	for _, valid := range validKeys {
		if strings.HasSuffix(valid, "."+unknownKey) {
			return valid
		}
	}

	best, bestDist := "", -1
	for _, valid := range validKeys {
		d := levenshtein.ComputeDistance(unknownKey, valid)
		if bestDist < 0 || d < bestDist {
			best, bestDist = valid, d
		}
	}
	if bestDist >= 0 && bestDist <= max(2, len(unknownKey)/4) {
		return best
	}
	return ""
}

// getMinimalSchemaHint returns a minimal example of the correct config structure.
func getMinimalSchemaHint() string {
	return `target:
  local_address: 127.0.0.1:1975   # server under test
  remote_address: web01:443       # required when use_remote is true
  use_remote: false
rules:
  dir: .                          # searched recursively
  marker: test                    # rule files are <marker>*.yml
test_execution:
  concurrency: 1
  timeout: 30s`
}

// ProjectRoot returns the directory relative paths in the config resolve
// against: the directory holding the config file (or its .redirect-check
// folder), falling back to the working directory.
func ProjectRoot(configFile string) string {
	if configFile == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "."
		}
		return wd
	}
	dir := filepath.Dir(configFile)
	if filepath.Base(dir) == utils.ProjectDirName {
		return filepath.Dir(dir)
	}
	return dir
}

func findConfigFile() string {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	possiblePaths := []string{
		filepath.Join(utils.ProjectDirName, "config.yaml"),
		filepath.Join(utils.ProjectDirName, "config.yml"),
		"redirect-check.yaml",
		"redirect-check.yml",
	}

	currentDir := wd
	for {
		for _, relPath := range possiblePaths {
			fullPath := filepath.Join(currentDir, relPath)
			if _, err := os.Stat(fullPath); err == nil {
				return fullPath
			}
		}

		parent := filepath.Dir(currentDir)

		if parent == currentDir || parent == "." {
			break
		}

		currentDir = parent
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		globalConfig := filepath.Join(homeDir, utils.ProjectDirName, "config.yaml")
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig
		}
	}

	return ""
}

// Invalidate clears all cached config state, forcing a reload on next Get().
// Used when updating the config file and for testing.
func Invalidate() {
	loadMutex.Lock()
	defer loadMutex.Unlock()
	hasLoaded = false
	cachedConfig = nil
	cachedConfigErr = nil
	loadedFile = ""
	k = koanf.New(".")
}
