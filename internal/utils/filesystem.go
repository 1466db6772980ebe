package utils

import (
	"os"
	"path/filepath"
)

const (
	ProjectDirName = ".redirect-check"
	ResultsSubDir  = "results"
	ConfigFileName = "config.yaml"
)

// ResolvePath returns p unchanged when absolute, otherwise joined onto root.
func ResolvePath(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if root == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o750)
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
