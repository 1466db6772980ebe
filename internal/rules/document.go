// Package rules holds the in-memory model of redirect rule files and the
// parser that builds it from YAML.
package rules

import (
	"fmt"
	"sort"
)

// DefaultScheme is used when a rule does not set one.
const DefaultScheme = "https"

// Document is one parsed rule file: hostname -> ordered rules.
type Document struct {
	Source string
	Hosts  map[string][]Rule
}

// Hostnames returns the document's hostnames in sorted order.
func (d *Document) Hostnames() []string {
	hosts := make([]string, 0, len(d.Hosts))
	for h := range d.Hosts {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

// RuleCount returns the total number of rules across all hostnames.
func (d *Document) RuleCount() int {
	n := 0
	for _, rs := range d.Hosts {
		n += len(rs)
	}
	return n
}

// Rule is a declarative expectation for a hostname and path.
// Path and Code are optional only when every test supplies them.
type Rule struct {
	Scheme string
	Path   *string
	Code   *int
	Tests  []TestOverride
	Line   int
}

// HasTests reports whether the rule carries at least one test override.
func (r Rule) HasTests() bool {
	return len(r.Tests) > 0
}

// TestOverride narrows or changes a rule's expectation. It never sets a
// scheme; scheme always comes from the owning rule.
type TestOverride struct {
	RequestURI *string
	Code       *int
	URL        *string
	Headers    map[string]string
	Line       int
}

// FormatError reports a malformed rule document.
type FormatError struct {
	Source   string
	Line     int
	Hostname string
	Msg      string
}

func (e *FormatError) Error() string {
	loc := e.Source
	if loc == "" {
		loc = "<input>"
	}
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, e.Line)
	}
	if e.Hostname != "" {
		return fmt.Sprintf("%s: %s: %s", loc, e.Hostname, e.Msg)
	}
	return fmt.Sprintf("%s: %s", loc, e.Msg)
}
