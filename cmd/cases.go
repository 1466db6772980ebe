package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Use-Tusk/redirect-check/internal/config"
	"github.com/Use-Tusk/redirect-check/internal/rules"
	"github.com/Use-Tusk/redirect-check/internal/runner"
	"github.com/Use-Tusk/redirect-check/internal/utils"
)

// Flags shared by run, list and validate.
var (
	rulesDir    string
	rulesFiles  []string
	marker      string
	filter      string
	useRemote   bool
	target      string
	concurrency int
	timeout     string
	resultsDir  string
)

func addRulesFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&rulesDir, "rules-dir", "", "Directory searched for rule files (default from config, or the current directory)")
	cmd.Flags().StringArrayVar(&rulesFiles, "rules-file", nil, "Rule file to load instead of discovering (repeatable)")
	cmd.Flags().StringVar(&marker, "marker", "", `File name prefix selecting rule files (default "test")`)
}

func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&useRemote, "use-remote", false, "Send requests to target.remote_address instead of target.local_address")
	cmd.Flags().StringVar(&target, "target", "", "host:port to send requests to (overrides config)")
	cmd.Flags().StringVar(&timeout, "timeout", "", "Per-request timeout, e.g. 10s (default from config, 30s)")
}

// loadConfig loads the config file and applies the command line flags the
// user set on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.Load(cfgFile); err != nil {
		return nil, err
	}
	loaded, err := config.Get()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg := *loaded
	root := config.ProjectRoot("")
	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "rules-dir":
			cfg.Rules.Dir = utils.ResolvePath(root, rulesDir)
		case "marker":
			cfg.Rules.Marker = marker
		case "use-remote":
			cfg.Target.UseRemote = useRemote
		case "target":
			cfg.Target.Address = target
		case "concurrency":
			cfg.TestExecution.Concurrency = concurrency
		case "timeout":
			cfg.TestExecution.Timeout = timeout
		case "results-dir":
			cfg.Results.Dir = utils.ResolvePath(root, resultsDir)
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return &cfg, nil
}

// ruleFiles returns the explicit --rules-file paths, or discovers them.
func ruleFiles(cfg *config.Config) ([]string, error) {
	if len(rulesFiles) > 0 {
		return rulesFiles, nil
	}
	paths, err := rules.Discover(cfg.Rules.Dir, cfg.Rules.Marker)
	if err != nil {
		return nil, err
	}
	slog.Debug("Discovered rule files", "dir", cfg.Rules.Dir, "marker", cfg.Rules.Marker, "count", len(paths))
	return paths, nil
}

// loadCases loads every rule file, expands it, and applies --filter.
func loadCases(cfg *config.Config) ([]runner.TestCase, error) {
	paths, err := ruleFiles(cfg)
	if err != nil {
		return nil, err
	}
	docs, err := rules.LoadFiles(paths)
	if err != nil {
		return nil, err
	}

	cases := runner.ExpandAll(docs)
	if filter != "" {
		if cases, err = runner.FilterCases(cases, filter); err != nil {
			return nil, err
		}
	}
	return cases, nil
}

func newExecutor(cfg *config.Config) *runner.Executor {
	executor := runner.NewExecutor(cfg.TargetAddress())
	executor.SetRemote(cfg.Target.UseRemote)
	executor.SetConcurrency(cfg.TestExecution.Concurrency)
	executor.SetTestTimeout(cfg.TimeoutDuration())
	executor.SetInsecureSkipVerify(cfg.SkipTLSVerify())
	return executor
}

func noCasesMessage(cfg *config.Config) string {
	if len(rulesFiles) > 0 {
		return "No cases found in the given rule files."
	}
	return fmt.Sprintf("No rule files found in %s (looking for %s*%s).", cfg.Rules.Dir, cfg.Rules.Marker, rules.FileExt)
}

func elapsed(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}
