package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/Use-Tusk/redirect-check/internal/config"
	"github.com/Use-Tusk/redirect-check/internal/log"
	"github.com/Use-Tusk/redirect-check/internal/tui"
	"github.com/Use-Tusk/redirect-check/internal/utils"
)

var initDefaults bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a redirect-check config in the current directory",
	Long: `Interactive wizard that writes .redirect-check/config.yaml in the current
directory and, optionally, a sample test-redirects.yml rule file.`,
	RunE: initProject,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initDefaults, "yes", "y", false, "Write the default config without prompting")
}

func initProject(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	answers := tui.DefaultInitAnswers(config.Default())
	if !initDefaults {
		if !utils.IsInteractive() {
			return errors.New("init needs an interactive terminal; use --yes to write the defaults")
		}
		if err := tui.RunInitWizard(&answers); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				log.UserInfo("Aborted.")
				return nil
			}
			return err
		}
	}

	written, err := tui.WriteProject(wd, answers)
	for _, p := range written {
		log.UserSuccess("✓ Wrote " + p)
	}
	if err != nil {
		return err
	}

	log.UserInfo(fmt.Sprintf("\nNext: add rules to a %s*.yml file and run \"redirect-check run\".", answers.Marker))
	return nil
}
