package runner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FilterCases keeps the cases matching every key=regex term in pattern.
// Values are Go regexes; quotes are supported around values containing commas.
func FilterCases(cases []TestCase, pattern string) ([]TestCase, error) {
	if !strings.Contains(pattern, "=") {
		return nil, fmt.Errorf("invalid filter %q: use key=regex (e.g., host=^www\\.,code=301)", pattern)
	}

	matchers, err := parseFieldedFilter(pattern)
	if err != nil {
		return nil, err
	}
	var out []TestCase
	for _, tc := range cases {
		ok := true
		for _, m := range matchers {
			val := getFieldValueForFilter(tc, m.field)
			if !m.re.MatchString(val) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, tc)
		}
	}
	return out, nil
}

type fieldMatcher struct {
	field string
	re    *regexp.Regexp
}

func parseFieldedFilter(q string) ([]fieldMatcher, error) {
	tokens := splitCommaAware(q)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("invalid filter: %q", q)
	}

	var out []fieldMatcher
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		idx := strings.Index(tok, "=")
		if idx <= 0 {
			return nil, fmt.Errorf("invalid filter token: %q (expected key=value)", tok)
		}
		key := strings.TrimSpace(strings.ToLower(tok[:idx]))
		val := strings.TrimSpace(tok[idx+1:])
		if len(val) >= 2 && ((val[0] == '\'' && val[len(val)-1] == '\'') || (val[0] == '"' && val[len(val)-1] == '"')) {
			val = val[1 : len(val)-1]
		}
		field := normalizeFilterFieldKey(key)
		if field == "" {
			return nil, fmt.Errorf("unknown filter field: %s", key)
		}
		re, err := regexp.Compile(val)
		if err != nil {
			return nil, fmt.Errorf("invalid regex for %s: %w", key, err)
		}
		out = append(out, fieldMatcher{field: field, re: re})
	}
	return out, nil
}

func splitCommaAware(s string) []string {
	var toks []string
	var cur strings.Builder
	var inQuote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inQuote == 0 && (ch == '\'' || ch == '"') {
			inQuote = ch
			cur.WriteByte(ch)
			continue
		}
		if inQuote != 0 {
			cur.WriteByte(ch)
			if ch == inQuote {
				inQuote = 0
			}
			continue
		}
		if ch == ',' {
			toks = append(toks, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(ch)
	}
	if cur.Len() > 0 {
		toks = append(toks, cur.String())
	}
	return toks
}

func normalizeFilterFieldKey(k string) string {
	switch k {
	case "host", "hostname", "h":
		return "host"
	case "path", "p", "request_uri":
		return "path"
	case "scheme":
		return "scheme"
	case "code", "status", "s":
		return "code"
	case "location", "url", "l":
		return "location"
	case "id":
		return "id"
	case "file", "filename", "f":
		return "file"
	default:
		return ""
	}
}

func getFieldValueForFilter(tc TestCase, field string) string {
	switch field {
	case "host":
		return tc.Hostname
	case "path":
		return tc.Path
	case "scheme":
		return tc.Scheme
	case "code":
		return strconv.Itoa(tc.ExpectedCode)
	case "location":
		if tc.ExpectedLocation != nil {
			return *tc.ExpectedLocation
		}
		return ""
	case "id":
		return tc.ID
	case "file":
		return tc.File
	default:
		return ""
	}
}
