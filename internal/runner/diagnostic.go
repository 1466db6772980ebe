package runner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const diagnosticTrailer = "   no further details known at this point."

// FormatDiagnostic renders a failing outcome as a multi-line report. It
// returns "" for outcomes that are not failures.
func FormatDiagnostic(o Outcome) string {
	var lines []string
	switch v := o.(type) {
	case StatusMismatch:
		lines = []string{
			"usecase execution failed for Status Code",
			"   target: " + v.URL,
			fmt.Sprintf("   expected: %d received: %d", v.Expected, v.Actual),
		}
	case LocationMismatch:
		lines = []string{
			"usecase execution failed for Location Match",
			"   target: " + v.URL,
			fmt.Sprintf("   expected: %q received: %q", v.Expected, v.Actual),
		}
		if hint := locationHint(v.Expected, v.Actual); hint != "" {
			lines = append(lines, "   "+hint)
		}
	case TransportFailed:
		lines = []string{
			"usecase execution failed due to a generic issue",
			fmt.Sprintf("   URL: %q", v.URL),
			"   Req. headers: " + formatHeaderMap(v.RequestHeaders),
		}
		if v.Response != nil {
			lines = append(lines,
				"   Resp. headers: "+formatHeaderMap(v.Response.Headers),
				fmt.Sprintf("   status_code: %d", v.Response.StatusCode),
				fmt.Sprintf("   expected: %d received: %d", v.Expected, v.Response.StatusCode),
			)
		} else {
			lines = append(lines, fmt.Sprintf("   expected: %d received: %q", v.Expected, v.Message))
		}
	case ConnectionFailed:
		lines = []string{"usecase execution failed due to a Connection Error"}
		if v.URL != "" {
			lines = append(lines, "   target: "+v.URL)
		}
		lines = append(lines, fmt.Sprintf("   expected: a response received: %q", v.Cause))
	default:
		return ""
	}
	lines = append(lines, diagnosticTrailer)
	return strings.Join(lines, "\n")
}

// locationHint points at the first path segment where two redirect
// targets diverge.
func locationHint(expected, actual string) string {
	if expected == "" || actual == "" {
		return ""
	}
	a := strings.SplitAfter(expected, "/")
	b := strings.SplitAfter(actual, "/")
	for _, op := range difflib.NewMatcher(a, b).GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		return fmt.Sprintf("differs after %q: %q vs %q",
			strings.Join(a[:op.I1], ""),
			strings.Join(a[op.I1:op.I2], ""),
			strings.Join(b[op.J1:op.J2], ""))
	}
	return ""
}

// formatHeaderMap renders headers as {"Name": "value", ...} in name order.
func formatHeaderMap(h map[string]string) string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%q: %q", k, h[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
