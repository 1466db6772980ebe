package runner

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/Use-Tusk/redirect-check/internal/tui/styles"
	"github.com/Use-Tusk/redirect-check/internal/utils"
)

// Summary counts outcomes of a run.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Outcome.Failed():
			s.Failed++
		case r.Outcome.Kind() == KindSkipped:
			s.Skipped++
		default:
			s.Passed++
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("Cases: %d total, %d passed, %d failed, %d skipped", s.Total, s.Passed, s.Failed, s.Skipped)
}

// resultJSON is the machine-readable form of a Result.
type resultJSON struct {
	ID         string          `json:"id"`
	File       string          `json:"file,omitempty"`
	Hostname   string          `json:"hostname"`
	Scheme     string          `json:"scheme"`
	Path       string          `json:"path"`
	Expected   int             `json:"expected_code"`
	Location   *string         `json:"expected_location,omitempty"`
	Outcome    Kind            `json:"outcome"`
	Details    json.RawMessage `json:"details,omitempty"`
	Diagnostic string          `json:"diagnostic,omitempty"`
	DurationMs int64           `json:"duration_ms"`
}

func toJSON(r Result) resultJSON {
	out := resultJSON{
		ID:         r.Case.ID,
		File:       r.Case.File,
		Hostname:   r.Case.Hostname,
		Scheme:     r.Case.Scheme,
		Path:       r.Case.Path,
		Expected:   r.Case.ExpectedCode,
		Location:   r.Case.ExpectedLocation,
		Outcome:    r.Outcome.Kind(),
		Diagnostic: FormatDiagnostic(r.Outcome),
		DurationMs: r.Duration.Milliseconds(),
	}
	if r.Outcome.Kind() != KindPassed {
		if details, err := json.Marshal(r.Outcome); err == nil {
			out.Details = details
		}
	}
	return out
}

// OutputResults writes results in the given format ("text" or "json") and
// returns an error when any case failed.
func OutputResults(w io.Writer, results []Result, format string, quiet bool) error {
	var err error
	switch format {
	case "json":
		err = outputJSON(w, results)
	default:
		err = outputText(w, results, quiet)
	}
	if err != nil {
		return err
	}

	if s := Summarize(results); s.Failed > 0 {
		return fmt.Errorf("%d of %d cases failed", s.Failed, s.Total)
	}
	return nil
}

func outputJSON(w io.Writer, results []Result) error {
	out := struct {
		Summary Summary      `json:"summary"`
		Results []resultJSON `json:"results"`
	}{
		Summary: Summarize(results),
		Results: make([]resultJSON, len(results)),
	}
	for i, r := range results {
		out.Results[i] = toJSON(r)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func outputText(w io.Writer, results []Result, quiet bool) error {
	color := utils.IsTerminal() && !styles.NoColor()
	paint := func(style lipgloss.Style, s string) string {
		if !color {
			return s
		}
		return style.Render(s)
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	for _, r := range results {
		switch {
		case r.Outcome.Failed():
			fmt.Fprintln(w, paint(styles.DeviationStyle, fmt.Sprintf("● FAILED - %s (%dms)", r.Case.ID, r.Duration.Milliseconds())))
			fmt.Fprintln(w, "  "+r.Case.DisplayName())
			fmt.Fprintln(w, paint(styles.WarningStyle, utils.Indent(FormatDiagnostic(r.Outcome), 2)))
		case quiet:
			continue
		case r.Outcome.Kind() == KindSkipped:
			fmt.Fprintln(w, paint(styles.DimStyle, fmt.Sprintf("○ SKIPPED - %s: %s", r.Case.ID, r.Outcome.(Skipped).Reason)))
		default:
			fmt.Fprintln(w, paint(styles.SuccessStyle, fmt.Sprintf("✓ PASSED - %s (%dms)", r.Case.ID, r.Duration.Milliseconds())))
		}
	}

	s := Summarize(results)
	var err error
	switch {
	case quiet && s.Failed > 0:
		_, err = fmt.Fprintf(w, "\nCases: %d total, %s\n", s.Total, paint(styles.DeviationStyle, fmt.Sprintf("%d failed", s.Failed)))
	case !quiet:
		_, err = fmt.Fprintf(w, "\nCases: %d total, %s, %s, %s\n\n", s.Total,
			paint(styles.SuccessStyle, fmt.Sprintf("%d passed", s.Passed)),
			paint(styles.DeviationStyle, fmt.Sprintf("%d failed", s.Failed)),
			paint(styles.DimStyle, fmt.Sprintf("%d skipped", s.Skipped)))
	}
	return err
}
