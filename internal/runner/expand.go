package runner

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Use-Tusk/redirect-check/internal/rules"
)

// TestCase is one resolved, executable check built from a rule and at most
// one of its test overrides. It is not modified after expansion.
type TestCase struct {
	ID               string            `json:"id"`
	File             string            `json:"file,omitempty"`
	Hostname         string            `json:"hostname"`
	Scheme           string            `json:"scheme"`
	Path             string            `json:"path"`
	ExpectedCode     int               `json:"expected_code"`
	ExpectedLocation *string           `json:"expected_location,omitempty"`
	Headers          map[string]string `json:"headers"`
	Line             int               `json:"line,omitempty"`
	Index            int               `json:"-"`

	// Test is the override the case came from; nil for a rule without tests.
	Test *rules.TestOverride `json:"-"`
}

// HasTest reports whether the case is backed by a test override.
func (tc TestCase) HasTest() bool {
	return tc.Test != nil
}

// DisplayName is the one-line label used in reports.
func (tc TestCase) DisplayName() string {
	return fmt.Sprintf("usecase: %s -> %s", tc.Hostname, tc.Path)
}

// Expand walks a document and produces its test cases: hostnames sorted,
// rules in file order, one case per test override or exactly one case for
// a rule without overrides. No case is dropped here.
func Expand(doc *rules.Document) []TestCase {
	var cases []TestCase
	base := ""
	if doc.Source != "" {
		base = filepath.Base(doc.Source)
	}

	for _, host := range doc.Hostnames() {
		for ri, rule := range doc.Hosts[host] {
			ruleID := fmt.Sprintf("%s:%d", host, ri+1)
			if base != "" {
				ruleID = base + ":" + ruleID
			}

			if !rule.HasTests() {
				cases = append(cases, newCase(doc.Source, ruleID, host, rule, nil))
				continue
			}
			for ti := range rule.Tests {
				id := fmt.Sprintf("%s.%d", ruleID, ti+1)
				cases = append(cases, newCase(doc.Source, id, host, rule, &rule.Tests[ti]))
			}
		}
	}

	for i := range cases {
		cases[i].Index = i
	}
	return cases
}

// ExpandAll expands several documents in order and numbers the cases
// across all of them.
func ExpandAll(docs []*rules.Document) []TestCase {
	var cases []TestCase
	for _, doc := range docs {
		cases = append(cases, Expand(doc)...)
	}
	for i := range cases {
		cases[i].Index = i
	}
	return cases
}

func newCase(file, id, host string, rule rules.Rule, test *rules.TestOverride) TestCase {
	tc := TestCase{
		ID:       id,
		File:     file,
		Hostname: host,
		Scheme:   rule.Scheme,
		Headers:  map[string]string{"Host": host},
		Line:     rule.Line,
		Test:     test,
	}
	if tc.Scheme == "" {
		tc.Scheme = rules.DefaultScheme
	}
	if rule.Path != nil {
		tc.Path = *rule.Path
	}
	if rule.Code != nil {
		tc.ExpectedCode = *rule.Code
	}

	if test == nil {
		return tc
	}

	if test.Line > 0 {
		tc.Line = test.Line
	}
	if test.RequestURI != nil {
		tc.Path = *test.RequestURI
	}
	if test.Code != nil {
		tc.ExpectedCode = *test.Code
	}
	if test.URL != nil {
		loc := *test.URL
		tc.ExpectedLocation = &loc
	}
	for k, v := range rules.CanonicalHeaders(test.Headers) {
		tc.Headers[k] = v
	}
	return tc
}

// HostHeader returns the Host value the request will carry.
func (tc TestCase) HostHeader() string {
	if h, ok := tc.Headers["Host"]; ok && strings.TrimSpace(h) != "" {
		return h
	}
	return tc.Hostname
}

// requestHeaders returns the case headers without Host, which travels on
// the request itself.
func (tc TestCase) requestHeaders() http.Header {
	h := make(http.Header, len(tc.Headers))
	for k, v := range tc.Headers {
		if k == "Host" {
			continue
		}
		h.Set(k, v)
	}
	return h
}
