package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RuleWithTests(t *testing.T) {
	data := `
a.example.com:
  - path: /old
    code: 301
    tests:
      - url: /new
        code: 301
      - request_uri: /old/deeper
        headers:
          X-Forwarded-Proto: http
`
	doc, err := Parse([]byte(data), "test-a.yml")
	require.NoError(t, err)

	rules := doc.Hosts["a.example.com"]
	require.Len(t, rules, 1)

	r := rules[0]
	assert.Equal(t, DefaultScheme, r.Scheme)
	require.NotNil(t, r.Path)
	assert.Equal(t, "/old", *r.Path)
	require.NotNil(t, r.Code)
	assert.Equal(t, 301, *r.Code)
	require.Len(t, r.Tests, 2)

	first := r.Tests[0]
	require.NotNil(t, first.URL)
	assert.Equal(t, "/new", *first.URL)
	assert.Nil(t, first.RequestURI)

	second := r.Tests[1]
	require.NotNil(t, second.RequestURI)
	assert.Equal(t, "/old/deeper", *second.RequestURI)
	assert.Nil(t, second.Code)
	assert.Equal(t, map[string]string{"X-Forwarded-Proto": "http"}, second.Headers)
}

func TestParse_RuleWithoutTests(t *testing.T) {
	data := `
b.example.com:
  - path: /gone
    code: 404
    scheme: http
`
	doc, err := Parse([]byte(data), "test-b.yml")
	require.NoError(t, err)

	r := doc.Hosts["b.example.com"][0]
	assert.False(t, r.HasTests())
	assert.Equal(t, "http", r.Scheme)
	assert.Equal(t, 404, *r.Code)
}

func TestParse_TestsSupplyPathAndCode(t *testing.T) {
	data := `
c.example.com:
  - tests:
      - request_uri: /a
        code: 302
        url: https://c.example.com/b
`
	doc, err := Parse([]byte(data), "")
	require.NoError(t, err)

	r := doc.Hosts["c.example.com"][0]
	assert.Nil(t, r.Path)
	assert.Nil(t, r.Code)
	assert.Len(t, r.Tests, 1)
}

func TestParse_EmptyTestsListMeansNoTests(t *testing.T) {
	data := `
d.example.com:
  - path: /legacy
    code: 301
    tests: []
`
	doc, err := Parse([]byte(data), "test-d.yml")
	require.NoError(t, err)

	r := doc.Hosts["d.example.com"][0]
	assert.False(t, r.HasTests())
	assert.Empty(t, r.Tests)
	assert.Equal(t, "/legacy", *r.Path)
}

func TestParse_EmptyTestsListStillNeedsPathAndCode(t *testing.T) {
	_, err := Parse([]byte("d.example.com:\n  - tests: []\n"), "test-d.yml")
	require.Error(t, err)

	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, err.Error(), "has no tests and is missing path and code")
}

func TestParse_NullURLHasNoLocationExpectation(t *testing.T) {
	data := `
e.example.com:
  - path: /a
    code: 301
    tests:
      - url: ~
      - url: ""
      - {}
`
	doc, err := Parse([]byte(data), "")
	require.NoError(t, err)

	tests := doc.Hosts["e.example.com"][0].Tests
	require.Len(t, tests, 3)
	assert.Nil(t, tests[0].URL)
	require.NotNil(t, tests[1].URL)
	assert.Empty(t, *tests[1].URL)
	assert.Nil(t, tests[2].URL)
}

func TestParse_EmptyDocument(t *testing.T) {
	for _, data := range []string{"", "# only a comment\n", "~\n"} {
		doc, err := Parse([]byte(data), "empty.yml")
		require.NoError(t, err)
		assert.Empty(t, doc.Hosts)
	}
}

func TestParse_MergeKeys(t *testing.T) {
	data := `
defaults: &defaults
  - path: /x
    code: 200
d.example.com:
  - &base
    path: /base
    code: 301
    tests:
      - url: /target
  - <<: *base
    path: /other
`
	doc, err := Parse([]byte(data), "")
	require.NoError(t, err)

	rules := doc.Hosts["d.example.com"]
	require.Len(t, rules, 2)
	assert.Equal(t, "/other", *rules[1].Path)
	assert.Equal(t, 301, *rules[1].Code)
	assert.Len(t, rules[1].Tests, 1)
}

func TestParse_FormatErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantMsg string
	}{
		{
			name:    "top_level_sequence",
			data:    "- a\n- b\n",
			wantMsg: "top level must be a mapping",
		},
		{
			name:    "rules_not_a_list",
			data:    "a.example.com:\n  path: /x\n",
			wantMsg: "rules must be a list",
		},
		{
			name:    "rule_not_a_mapping",
			data:    "a.example.com:\n  - /x\n",
			wantMsg: "rule #1 must be a mapping",
		},
		{
			name:    "missing_path_and_code",
			data:    "a.example.com:\n  - scheme: https\n",
			wantMsg: "missing path and code",
		},
		{
			name:    "missing_code",
			data:    "a.example.com:\n  - path: /x\n",
			wantMsg: "missing code",
		},
		{
			name:    "test_without_path",
			data:    "a.example.com:\n  - code: 301\n    tests:\n      - url: /y\n",
			wantMsg: "no request_uri and the rule has no path",
		},
		{
			name:    "test_without_code",
			data:    "a.example.com:\n  - path: /x\n    tests:\n      - url: /y\n",
			wantMsg: "no code and the rule has no code",
		},
		{
			name:    "code_not_integer",
			data:    "a.example.com:\n  - path: /x\n    code: moved\n",
			wantMsg: "code must be an integer",
		},
		{
			name:    "code_out_of_range",
			data:    "a.example.com:\n  - path: /x\n    code: 42\n",
			wantMsg: "not a valid HTTP status",
		},
		{
			name:    "unsupported_scheme",
			data:    "a.example.com:\n  - path: /x\n    code: 301\n    scheme: ftp\n",
			wantMsg: "unsupported scheme",
		},
		{
			name:    "scheme_on_test",
			data:    "a.example.com:\n  - path: /x\n    code: 301\n    tests:\n      - scheme: http\n",
			wantMsg: "inherited from the rule",
		},
		{
			name:    "unknown_test_key_suggestion",
			data:    "a.example.com:\n  - path: /x\n    code: 301\n    tests:\n      - request_url: /y\n",
			wantMsg: `did you mean "request_uri"`,
		},
		{
			name:    "unknown_rule_key",
			data:    "a.example.com:\n  - path: /x\n    code: 301\n    zzzzzzzz: 1\n",
			wantMsg: "expected one of",
		},
		{
			name:    "headers_not_mapping",
			data:    "a.example.com:\n  - path: /x\n    code: 301\n    tests:\n      - headers: [a, b]\n",
			wantMsg: "headers must be a mapping",
		},
		{
			name:    "tests_not_list",
			data:    "a.example.com:\n  - path: /x\n    code: 301\n    tests: nope\n",
			wantMsg: "tests must be a list",
		},
		{
			name:    "duplicate_hostname",
			data:    "a.example.com:\n  - {path: /x, code: 301}\na.example.com:\n  - {path: /y, code: 301}\n",
			wantMsg: "duplicate hostname",
		},
		{
			name:    "invalid_yaml",
			data:    "a.example.com: [\n",
			wantMsg: "yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "rules.yml")
			require.Error(t, err)

			var fe *FormatError
			require.True(t, errors.As(err, &fe), "expected *FormatError, got %T", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, "rules.yml", fe.Source)
		})
	}
}

func TestFormatError_Error(t *testing.T) {
	err := &FormatError{Source: "test.yml", Line: 4, Hostname: "a.example.com", Msg: "boom"}
	assert.Equal(t, "test.yml:4: a.example.com: boom", err.Error())

	err = &FormatError{Msg: "boom"}
	assert.Equal(t, "<input>: boom", err.Error())
}

func TestDocument_HostnamesSorted(t *testing.T) {
	doc := &Document{Hosts: map[string][]Rule{
		"z.example.com": nil,
		"a.example.com": nil,
		"m.example.com": nil,
	}}
	assert.Equal(t, []string{"a.example.com", "m.example.com", "z.example.com"}, doc.Hostnames())
}

func TestCanonicalHeaders(t *testing.T) {
	got := CanonicalHeaders(map[string]string{"x-forwarded-proto": "http", "host": "b"})
	assert.Equal(t, map[string]string{"X-Forwarded-Proto": "http", "Host": "b"}, got)
}

func TestLoadFiles_StopsAtFirstError(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "test-good.yml")
	bad := filepath.Join(dir, "test-bad.yml")
	require.NoError(t, os.WriteFile(good, []byte("a.example.com:\n  - {path: /x, code: 301}\n"), 0o600))
	require.NoError(t, os.WriteFile(bad, []byte("- nope\n"), 0o600))

	docs, err := LoadFiles([]string{good})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, good, docs[0].Source)

	_, err = LoadFiles([]string{good, bad})
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, bad, fe.Source)

	_, err = LoadFile(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}
