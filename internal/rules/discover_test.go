package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))
}

func TestDiscover_MarkerAndExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "test-main.yml"))
	writeFile(t, filepath.Join(dir, "test-other.yaml"))
	writeFile(t, filepath.Join(dir, "apache-vhosts.yml"))
	writeFile(t, filepath.Join(dir, "nested", "test-nested.yml"))
	writeFile(t, filepath.Join(dir, ".hidden", "test-hidden.yml"))
	writeFile(t, filepath.Join(dir, "notes.txt"))

	files, err := Discover(dir, "test")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "nested", "test-nested.yml"),
		filepath.Join(dir, "test-main.yml"),
	}, files)

	files, err = Discover(dir, "apache")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "apache-vhosts.yml")}, files)
}

func TestDiscover_DefaultMarker(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "test-a.yml"))

	files, err := Discover(dir, "")
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestDiscover_Errors(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"), "test")
	assert.ErrorContains(t, err, "rules directory not found")

	file := filepath.Join(t.TempDir(), "test-a.yml")
	writeFile(t, file)
	_, err = Discover(file, "test")
	assert.ErrorContains(t, err, "not a directory")
}

func TestMatches(t *testing.T) {
	tests := []struct {
		path   string
		marker string
		want   bool
	}{
		{"rules/test-redirects.yml", "test", true},
		{"rules/apache-redirects.yml", "test", false},
		{"rules/apache-redirects.yml", "apache", true},
		{"rules/test-redirects.yaml", "test", false},
		{"rules/mytest.yml", "test", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Matches(tt.path, tt.marker), tt.path)
	}
}
