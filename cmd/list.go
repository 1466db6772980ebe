package cmd

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Use-Tusk/redirect-check/internal/cliconfig"
	"github.com/Use-Tusk/redirect-check/internal/log"
	"github.com/Use-Tusk/redirect-check/internal/runner"
	"github.com/Use-Tusk/redirect-check/internal/tui"
	"github.com/Use-Tusk/redirect-check/internal/utils"
)

var listPlain bool

//go:embed short_docs/list.md
var listContent string

//go:embed short_docs/filter.md
var filterContent string

var listCmd = &cobra.Command{
	Use:          "list",
	Short:        "List the cases the rule files expand to",
	Long:         utils.RenderMarkdown(listContent + "\n\n" + filterContent),
	RunE:         listCases,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(listCmd)

	addRulesFlags(listCmd)
	addTargetFlags(listCmd)
	listCmd.Flags().StringVarP(&filter, "filter", "f", "", "Filter cases (see above help)")
	listCmd.Flags().BoolVar(&listPlain, "plain", false, "Print a plain table even on a terminal")
}

func listCases(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cases, err := loadCases(cfg)
	if err != nil {
		return err
	}

	if len(cases) == 0 {
		log.UserInfo(noCasesMessage(cfg))
		return nil
	}

	if listPlain || !utils.IsInteractive() || cliconfig.IsCI() {
		return printCases(log.Output(), cases)
	}

	return tui.ShowCaseList(cases, newExecutor(cfg))
}

// printCases writes one line per case, aligned in columns.
func printCases(w io.Writer, cases []runner.TestCase) error {
	idWidth := len("ID")
	for _, tc := range cases {
		idWidth = max(idWidth, len(tc.ID))
	}

	header := fmt.Sprintf("%s  %-6s  %-4s  %s", utils.PadRight("ID", idWidth), "SCHEME", "CODE", "CASE")
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	for _, tc := range cases {
		line := fmt.Sprintf("%s  %-6s  %-4d  %s", utils.PadRight(tc.ID, idWidth), tc.Scheme, tc.ExpectedCode, tc.DisplayName())
		switch {
		case !tc.HasTest():
			line += " (skipped: no test)"
		case tc.ExpectedLocation != nil && *tc.ExpectedLocation != "":
			line += " => " + *tc.ExpectedLocation
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%d cases\n", len(cases))
	return err
}
