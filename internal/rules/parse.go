package rules

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"
)

var (
	ruleKeys = []string{"scheme", "path", "code", "tests"}
	testKeys = []string{"request_uri", "code", "url", "headers"}
)

// LoadFile reads and parses a single rule file.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- rule files are operator supplied
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	return Parse(data, path)
}

// LoadFiles parses every file in order and stops at the first error.
func LoadFiles(paths []string) ([]*Document, error) {
	docs := make([]*Document, 0, len(paths))
	for _, p := range paths {
		doc, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Parse builds a Document from YAML bytes. The top level must be a mapping
// of hostname to a sequence of rules. Any structural problem is returned as
// a *FormatError.
func Parse(data []byte, source string) (*Document, error) {
	doc := &Document{Source: source, Hosts: make(map[string][]Rule)}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &FormatError{Source: source, Msg: err.Error()}
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return doc, nil
	}

	top := resolve(root.Content[0])
	if top.Kind == yaml.ScalarNode && top.ShortTag() == "!!null" {
		return doc, nil
	}
	if top.Kind != yaml.MappingNode {
		return nil, &FormatError{Source: source, Line: top.Line, Msg: "top level must be a mapping of hostname to a list of rules"}
	}

	p := parser{source: source}
	for _, kv := range mappingPairs(top) {
		keyNode, valNode := kv[0], resolve(kv[1])
		hostname := strings.TrimSpace(keyNode.Value)
		if keyNode.Kind != yaml.ScalarNode || hostname == "" {
			return nil, p.errorf(keyNode, "", "hostname must be a non-empty string")
		}
		if _, dup := doc.Hosts[hostname]; dup {
			return nil, p.errorf(keyNode, hostname, "duplicate hostname")
		}
		if valNode.Kind != yaml.SequenceNode {
			return nil, p.errorf(valNode, hostname, "rules must be a list")
		}

		rules := make([]Rule, 0, len(valNode.Content))
		for i, item := range valNode.Content {
			rule, err := p.parseRule(resolve(item), hostname, i+1)
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		}
		doc.Hosts[hostname] = rules
	}

	return doc, nil
}

type parser struct {
	source string
}

func (p parser) errorf(n *yaml.Node, hostname, format string, args ...any) *FormatError {
	return &FormatError{
		Source:   p.source,
		Line:     n.Line,
		Hostname: hostname,
		Msg:      fmt.Sprintf(format, args...),
	}
}

func (p parser) parseRule(n *yaml.Node, hostname string, idx int) (Rule, error) {
	rule := Rule{Scheme: DefaultScheme, Line: n.Line}
	if n.Kind != yaml.MappingNode {
		return rule, p.errorf(n, hostname, "rule #%d must be a mapping", idx)
	}

	for _, kv := range mappingPairs(n) {
		key, val := kv[0].Value, resolve(kv[1])
		switch key {
		case "scheme":
			s, err := p.stringValue(val, hostname, "scheme")
			if err != nil {
				return rule, err
			}
			s = strings.ToLower(s)
			if s != "http" && s != "https" {
				return rule, p.errorf(val, hostname, "rule #%d: unsupported scheme %q (only http and https)", idx, s)
			}
			rule.Scheme = s
		case "path":
			s, err := p.stringValue(val, hostname, "path")
			if err != nil {
				return rule, err
			}
			rule.Path = &s
		case "code":
			c, err := p.codeValue(val, hostname)
			if err != nil {
				return rule, err
			}
			rule.Code = &c
		case "tests":
			if isNull(val) {
				continue
			}
			if val.Kind != yaml.SequenceNode {
				return rule, p.errorf(val, hostname, "rule #%d: tests must be a list", idx)
			}
			for j, item := range val.Content {
				test, err := p.parseTest(resolve(item), hostname, idx, j+1)
				if err != nil {
					return rule, err
				}
				rule.Tests = append(rule.Tests, test)
			}
		default:
			return rule, p.errorf(kv[0], hostname, "rule #%d: %s", idx, unknownKeyMessage(key, ruleKeys))
		}
	}

	if !rule.HasTests() {
		var missing []string
		if rule.Path == nil {
			missing = append(missing, "path")
		}
		if rule.Code == nil {
			missing = append(missing, "code")
		}
		if len(missing) > 0 {
			return rule, p.errorf(n, hostname, "rule #%d has no tests and is missing %s", idx, strings.Join(missing, " and "))
		}
		return rule, nil
	}

	for j, t := range rule.Tests {
		if t.RequestURI == nil && rule.Path == nil {
			return rule, p.errorf(nodeAt(n, t.Line), hostname, "rule #%d test #%d has no request_uri and the rule has no path", idx, j+1)
		}
		if t.Code == nil && rule.Code == nil {
			return rule, p.errorf(nodeAt(n, t.Line), hostname, "rule #%d test #%d has no code and the rule has no code", idx, j+1)
		}
	}

	return rule, nil
}

func (p parser) parseTest(n *yaml.Node, hostname string, ruleIdx, idx int) (TestOverride, error) {
	test := TestOverride{Line: n.Line}
	if n.Kind != yaml.MappingNode {
		return test, p.errorf(n, hostname, "rule #%d test #%d must be a mapping", ruleIdx, idx)
	}

	for _, kv := range mappingPairs(n) {
		key, val := kv[0].Value, resolve(kv[1])
		switch key {
		case "request_uri":
			if isNull(val) {
				continue
			}
			s, err := p.stringValue(val, hostname, "request_uri")
			if err != nil {
				return test, err
			}
			test.RequestURI = &s
		case "code":
			c, err := p.codeValue(val, hostname)
			if err != nil {
				return test, err
			}
			test.Code = &c
		case "url":
			if isNull(val) {
				continue
			}
			s, err := p.stringValue(val, hostname, "url")
			if err != nil {
				return test, err
			}
			test.URL = &s
		case "headers":
			if isNull(val) {
				continue
			}
			headers, err := p.headersValue(val, hostname)
			if err != nil {
				return test, err
			}
			test.Headers = headers
		case "scheme":
			return test, p.errorf(kv[0], hostname, "rule #%d test #%d: scheme cannot be set on a test, it is inherited from the rule", ruleIdx, idx)
		default:
			return test, p.errorf(kv[0], hostname, "rule #%d test #%d: %s", ruleIdx, idx, unknownKeyMessage(key, testKeys))
		}
	}

	return test, nil
}

func (p parser) stringValue(n *yaml.Node, hostname, field string) (string, error) {
	if n.Kind != yaml.ScalarNode || isNull(n) {
		return "", p.errorf(n, hostname, "%s must be a string", field)
	}
	return n.Value, nil
}

func (p parser) codeValue(n *yaml.Node, hostname string) (int, error) {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!int" {
		return 0, p.errorf(n, hostname, "code must be an integer, got %q", n.Value)
	}
	var code int
	if err := n.Decode(&code); err != nil {
		return 0, p.errorf(n, hostname, "code must be an integer: %v", err)
	}
	if code < 100 || code > 599 {
		return 0, p.errorf(n, hostname, "code %d is not a valid HTTP status", code)
	}
	return code, nil
}

func (p parser) headersValue(n *yaml.Node, hostname string) (map[string]string, error) {
	if n.Kind != yaml.MappingNode {
		return nil, p.errorf(n, hostname, "headers must be a mapping of name to value")
	}
	headers := make(map[string]string)
	for _, kv := range mappingPairs(n) {
		name, val := strings.TrimSpace(kv[0].Value), resolve(kv[1])
		if kv[0].Kind != yaml.ScalarNode || name == "" {
			return nil, p.errorf(kv[0], hostname, "header name must be a non-empty string")
		}
		if val.Kind != yaml.ScalarNode || isNull(val) {
			return nil, p.errorf(val, hostname, "header %q must have a string value", name)
		}
		headers[name] = val.Value
	}
	return headers, nil
}

// unknownKeyMessage names the closest known key when one is near enough.
func unknownKeyMessage(key string, known []string) string {
	if s := suggestKey(key, known); s != "" {
		return fmt.Sprintf("unknown key %q (did you mean %q?)", key, s)
	}
	return fmt.Sprintf("unknown key %q (expected one of: %s)", key, strings.Join(known, ", "))
}

func suggestKey(key string, known []string) string {
	best, bestDist := "", -1
	for _, k := range known {
		d := levenshtein.ComputeDistance(strings.ToLower(key), k)
		if bestDist < 0 || d < bestDist {
			best, bestDist = k, d
		}
	}
	if bestDist < 0 || bestDist > max(2, len(key)/3) {
		return ""
	}
	return best
}

// CanonicalHeaders returns a copy of h with canonical header names. When two
// names collapse to the same canonical form the lexically last one wins.
func CanonicalHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		out[http.CanonicalHeaderKey(k)] = h[k]
	}
	return out
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// mappingPairs flattens a mapping node into key/value pairs, applying YAML
// merge keys. Keys set directly on the mapping win over merged ones.
func mappingPairs(n *yaml.Node) [][2]*yaml.Node {
	var own, merged [][2]*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.ShortTag() == "!!merge" {
			v = resolve(v)
			switch v.Kind {
			case yaml.MappingNode:
				merged = append(merged, mappingPairs(v)...)
			case yaml.SequenceNode:
				for _, src := range v.Content {
					if src = resolve(src); src.Kind == yaml.MappingNode {
						merged = append(merged, mappingPairs(src)...)
					}
				}
			}
			continue
		}
		own = append(own, [2]*yaml.Node{k, v})
	}
	if len(merged) == 0 {
		return own
	}

	seen := make(map[string]bool, len(own))
	for _, kv := range own {
		seen[kv[0].Value] = true
	}
	out := make([][2]*yaml.Node, 0, len(own)+len(merged))
	for _, kv := range merged {
		if !seen[kv[0].Value] {
			seen[kv[0].Value] = true
			out = append(out, kv)
		}
	}
	return append(out, own...)
}

// nodeAt returns a placeholder node carrying line for error reporting,
// falling back to n when line is unknown.
func nodeAt(n *yaml.Node, line int) *yaml.Node {
	if line == 0 {
		return n
	}
	return &yaml.Node{Line: line}
}
