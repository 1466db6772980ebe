package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Use-Tusk/redirect-check/internal/config"
	"github.com/Use-Tusk/redirect-check/internal/log"
	"github.com/Use-Tusk/redirect-check/internal/rules"
	"github.com/Use-Tusk/redirect-check/internal/runner"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the config and rule files without sending any request",
	Long: `Load the config file and every rule file, reporting format errors,
unknown keys and config warnings. No request is sent.`,
	RunE:         validateAll,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addRulesFlags(validateCmd)
}

func validateAll(cmd *cobra.Command, args []string) error {
	if path := configPath(); path != "" {
		result := config.ValidateConfigFile(path)
		for _, w := range result.Warnings {
			log.UserWarn("config: " + w)
		}
		for _, e := range result.Errors {
			log.UserError("config: " + e)
		}
		if !result.Valid {
			if result.SchemaHint != "" {
				log.UserProgress(result.SchemaHint)
			}
			return errors.New("validation failed")
		}
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		log.UserError(err.Error())
		return errors.New("validation failed")
	}

	paths, err := ruleFiles(cfg)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		log.UserWarn(noCasesMessage(cfg))
	}

	failed := false
	total := 0
	for _, p := range paths {
		doc, err := rules.LoadFile(p)
		if err != nil {
			failed = true
			log.UserError(err.Error())
			continue
		}
		cases := runner.Expand(doc)
		skipped := 0
		for _, tc := range cases {
			if !tc.HasTest() {
				skipped++
			}
		}
		total += len(cases)
		msg := fmt.Sprintf("%s: %d hosts, %d rules, %d cases", p, len(doc.Hosts), doc.RuleCount(), len(cases))
		if skipped > 0 {
			msg += fmt.Sprintf(" (%d without tests)", skipped)
		}
		log.UserSuccess("✓ " + msg)
	}

	if failed {
		return errors.New("validation failed")
	}
	log.UserInfo(fmt.Sprintf("\n%d rule files, %d cases", len(paths), total))
	return nil
}

// configPath returns the config file that will be loaded, if any.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if err := config.Load(""); err != nil {
		return ""
	}
	return config.LoadedFile()
}
