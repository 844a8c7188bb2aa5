// Package scan discovers project files that contain spec tags.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
)

// Grep walks root and returns the files whose content matches pattern,
// in walk order. Paths matching any exclude glob (relative to root,
// slash-separated) are skipped; excluded directories are pruned.
// Unreadable or binary-garbled files are silently skipped, like any
// grep.
func Grep(root string, pattern *regexp.Regexp, excludes []string) ([]string, error) {
	var matched []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if Excluded(rel, excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		if pattern.Match(data) {
			matched = append(matched, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return matched, nil
}

// Excluded reports whether a slash-separated relative path matches any
// of the exclusion globs. A malformed glob never matches.
func Excluded(rel string, excludes []string) bool {
	if rel == "." {
		return false
	}
	for _, glob := range excludes {
		if ok, err := doublestar.Match(glob, rel); err == nil && ok {
			return true
		}
	}
	return false
}
