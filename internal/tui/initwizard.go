package tui

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/Use-Tusk/redirect-check/internal/config"
	"github.com/Use-Tusk/redirect-check/internal/rules"
	"github.com/Use-Tusk/redirect-check/internal/tui/styles"
	"github.com/Use-Tusk/redirect-check/internal/utils"
)

// SampleRulesFile is the rule file written by init when requested.
const SampleRulesFile = "test-redirects.yml"

const sampleRules = `# Each top-level key is a hostname. Rules are sent with that Host header.
www.example.com:
  - path: /old-page
    code: 301
    tests:
      - url: https://www.example.com/new-page
      - request_uri: /old-page?ref=mail
        url: https://www.example.com/new-page?ref=mail
  - path: /gone
    code: 404
    tests:
      - {}
  # Rules without tests are reported as skipped.
  - scheme: http
    path: /
    code: 301
`

// InitAnswers holds what the init form collected.
type InitAnswers struct {
	TargetAddress string
	UseRemote     bool
	RemoteAddress string
	RulesDir      string
	Marker        string
	Concurrency   string
	Timeout       string
	WriteSample   bool
}

// DefaultInitAnswers seeds the form from an existing config.
func DefaultInitAnswers(cfg *config.Config) InitAnswers {
	if cfg == nil {
		cfg = config.Default()
	}
	return InitAnswers{
		TargetAddress: cfg.Target.LocalAddress,
		UseRemote:     cfg.Target.UseRemote,
		RemoteAddress: cfg.Target.RemoteAddress,
		RulesDir:      cfg.Rules.Dir,
		Marker:        cfg.Rules.Marker,
		Concurrency:   strconv.Itoa(cfg.TestExecution.Concurrency),
		Timeout:       cfg.TestExecution.Timeout,
		WriteSample:   true,
	}
}

// RunInitWizard asks for the project settings. It returns huh.ErrUserAborted
// when the user cancels.
func RunInitWizard(answers *InitAnswers) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Local target address").
				Description("host:port of the web server under test").
				Value(&answers.TargetAddress).
				Validate(validateHostPort),
			huh.NewConfirm().
				Title("Test against a remote server?").
				Value(&answers.UseRemote),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Remote target address").
				Value(&answers.RemoteAddress).
				Validate(validateHostPort),
		).WithHideFunc(func() bool { return !answers.UseRemote }),
		huh.NewGroup(
			huh.NewInput().
				Title("Rules directory").
				Value(&answers.RulesDir),
			huh.NewInput().
				Title("Rule file prefix").
				Description("Files named <prefix>*.yml are loaded").
				Value(&answers.Marker).
				Validate(validateMarker),
			huh.NewInput().
				Title("Concurrency").
				Value(&answers.Concurrency).
				Validate(validateConcurrency),
			huh.NewInput().
				Title("Request timeout").
				Value(&answers.Timeout),
			huh.NewConfirm().
				Title("Write a sample rule file?").
				Value(&answers.WriteSample),
		),
	).WithTheme(styles.HuhTheme())

	return form.Run()
}

// Config turns the answers into a config ready to be written.
func (a InitAnswers) Config() (*config.Config, error) {
	concurrency, err := strconv.Atoi(strings.TrimSpace(a.Concurrency))
	if err != nil {
		return nil, fmt.Errorf("invalid concurrency %q", a.Concurrency)
	}

	cfg := config.Default()
	cfg.Target.LocalAddress = strings.TrimSpace(a.TargetAddress)
	cfg.Target.UseRemote = a.UseRemote
	cfg.Target.RemoteAddress = strings.TrimSpace(a.RemoteAddress)
	cfg.Rules.Dir = strings.TrimSpace(a.RulesDir)
	cfg.Rules.Marker = strings.TrimSpace(a.Marker)
	cfg.TestExecution.Concurrency = concurrency
	cfg.TestExecution.Timeout = strings.TrimSpace(a.Timeout)
	if cfg.Rules.Dir == "" {
		cfg.Rules.Dir = "."
	}
	if cfg.TestExecution.Timeout == "" {
		cfg.TestExecution.Timeout = config.DefaultTimeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteProject writes the config under root and, when asked, a sample rule
// file into the rules directory. Existing files are never overwritten. It
// returns the paths written.
func WriteProject(root string, a InitAnswers) ([]string, error) {
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}

	var written []string
	configPath := filepath.Join(root, utils.ProjectDirName, utils.ConfigFileName)
	if utils.FileExists(configPath) {
		return nil, fmt.Errorf("%s already exists", configPath)
	}
	if err := config.Write(configPath, cfg); err != nil {
		return nil, err
	}
	written = append(written, configPath)

	if !a.WriteSample {
		return written, nil
	}

	sampleName := SampleRulesFile
	if cfg.Rules.Marker != rules.DefaultMarker {
		sampleName = cfg.Rules.Marker + "-redirects" + rules.FileExt
	}
	samplePath := filepath.Join(utils.ResolvePath(root, cfg.Rules.Dir), sampleName)
	if utils.FileExists(samplePath) {
		return written, nil
	}
	if err := utils.EnsureDir(filepath.Dir(samplePath)); err != nil {
		return written, err
	}
	if err := os.WriteFile(samplePath, []byte(sampleRules), 0o600); err != nil {
		return written, fmt.Errorf("failed to write sample rules: %w", err)
	}
	return append(written, samplePath), nil
}

func validateHostPort(s string) error {
	if _, _, err := net.SplitHostPort(strings.TrimSpace(s)); err != nil {
		return errors.New("must be host:port")
	}
	return nil
}

func validateMarker(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("prefix cannot be empty")
	}
	if strings.ContainsAny(s, `/\`) {
		return errors.New("prefix cannot contain path separators")
	}
	return nil
}

func validateConcurrency(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return errors.New("must be a positive number")
	}
	return nil
}
