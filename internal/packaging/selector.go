package packaging

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DefaultPatterns is the suffix list used when none is configured.
const DefaultPatterns = ".py,.R,.RDS"

var ErrEmptyPattern = errors.New("suffix pattern must not be empty")

// Selector picks the files that belong in a deployment bundle: every file
// under a project root whose suffix matches one entry of a comma-separated
// suffix list.
type Selector struct {
	suffixes []string
}

// NewSelector parses a comma-separated suffix list. An empty string falls
// back to DefaultPatterns.
func NewSelector(patterns string) (*Selector, error) {
	if patterns == "" {
		patterns = DefaultPatterns
	}

	parts := strings.Split(patterns, ",")
	suffixes := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, errors.Wrapf(ErrEmptyPattern, "in %q", patterns)
		}
		suffixes = append(suffixes, part)
	}

	return &Selector{suffixes: suffixes}, nil
}

// Match reports whether the path matches one of the suffixes.
func (s *Selector) Match(path string) bool {
	for _, suffix := range s.suffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}

	return false
}

// Select returns every matching file under root, relative to root and
// sorted.
func (s *Selector) Select(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !s.Match(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)

		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to walk %s", root)
	}

	sort.Strings(files)

	return files, nil
}
