package cmd

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/Use-Tusk/redirect-check/internal/log"
	"github.com/Use-Tusk/redirect-check/internal/runner"
	"github.com/Use-Tusk/redirect-check/internal/utils"
)

var (
	outputFormat string
	quiet        bool
	saveResults  bool
)

//go:embed short_docs/run.md
var runContent string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Check the server's redirects against the rule files",
	Long:  utils.RenderMarkdown(runContent + "\n\n" + filterContent),
	RunE:  runCases,
}

func init() {
	rootCmd.AddCommand(runCmd)

	addRulesFlags(runCmd)
	addTargetFlags(runCmd)
	runCmd.Flags().IntVar(&concurrency, "concurrency", 1, "Maximum number of concurrent requests. If set, overrides the concurrency setting in the config file.")
	runCmd.Flags().StringVarP(&filter, "filter", "f", "", "Filter cases (see above help)")
	runCmd.Flags().StringVar(&outputFormat, "output-format", "text", `Output format (choices: "text", "json")`)
	runCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Quiet output, only show failures (text output only)")
	runCmd.Flags().BoolVar(&saveResults, "save-results", false, "Save run results to a JSON file")
	runCmd.Flags().StringVar(&resultsDir, "results-dir", "", "Directory to save results in (only works with --save-results). Default is '.redirect-check/results'")

	runCmd.Flags().SortFlags = false
}

func runCases(cmd *cobra.Command, args []string) error {
	setupSignalHandling()

	if outputFormat != "text" && outputFormat != "json" {
		return fmt.Errorf("invalid --output-format %q (choices: text, json)", outputFormat)
	}

	slog.Debug("Starting case execution",
		"rules-dir", rulesDir,
		"rules-file", rulesFiles,
		"marker", marker,
		"filter", filter,
		"use-remote", useRemote,
		"target", target,
		"output-format", outputFormat,
		"quiet", quiet,
		"save-results", saveResults,
	)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Everything past option parsing is a runtime failure.
	cmd.SilenceUsage = true

	cases, err := loadCases(cfg)
	if err != nil {
		return err
	}

	if len(cases) == 0 {
		if outputFormat == "json" {
			fmt.Println(`{"summary":{"total":0,"passed":0,"failed":0,"skipped":0},"results":[]}`)
		}
		log.Stderrln(noCasesMessage(cfg))
		return nil
	}

	executor := newExecutor(cfg)

	showProgress := outputFormat == "text" && utils.IsTerminal()
	if showProgress {
		var done atomic.Int32
		total := len(cases)
		executor.SetOnCaseCompleted(func(r runner.Result) {
			n := done.Add(1)
			fmt.Fprintf(os.Stderr, "\r%d/%d cases", n, total)
		})
		log.UserProgress(fmt.Sprintf("Running %d cases against %s", len(cases), executor.Target()))
	}

	startedAt := time.Now().UTC()
	results, runErr := executor.Run(rootCtx, cases)
	if showProgress {
		fmt.Fprint(os.Stderr, "\r\033[K")
	}
	slog.Debug("Run finished", "elapsed", elapsed(startedAt), "results", len(results))

	if saveResults {
		path, err := executor.SaveResults(cfg.Results.Dir, startedAt, results)
		if err != nil {
			log.UserWarn(fmt.Sprintf("Failed to save results: %v", err))
		} else {
			log.Stderrln("Results saved to " + path)
		}
	}

	reportErr := runner.OutputResults(log.Output(), results, outputFormat, quiet)
	if runErr != nil {
		return fmt.Errorf("run interrupted after %d of %d cases: %w", len(results), len(cases), runErr)
	}
	return reportErr
}
