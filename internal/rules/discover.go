package rules

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileExt is the extension rule files must carry to be discovered.
const FileExt = ".yml"

// DefaultMarker is the base-name prefix selecting rule files.
const DefaultMarker = "test"

// Matches reports whether path names a rule file for the given marker.
func Matches(path, marker string) bool {
	base := filepath.Base(path)
	return filepath.Ext(base) == FileExt && strings.HasPrefix(base, marker)
}

// Discover walks dir and returns, sorted, every rule file whose base name
// starts with marker. Hidden directories below dir are not searched.
func Discover(dir, marker string) ([]string, error) {
	if marker == "" {
		marker = DefaultMarker
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("rules directory not found: %s", dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("rules path is not a directory: %s", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && Matches(path, marker) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search rules directory: %w", err)
	}

	sort.Strings(files)
	return files, nil
}
