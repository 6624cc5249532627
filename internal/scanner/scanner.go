// Package scanner discovers analyzable source files under a repository
// root, honoring exclusion config and .gitignore.
package scanner

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/dooosp/ghostcode-auditor/pkg/config"
)

// includeExts are the extensions worth extracting units from.
// Derivative files (.d.ts, .min.js) are excluded by pattern instead.
var includeExts = map[string]bool{
	".ts":  true,
	".tsx": true,
	".js":  true,
	".jsx": true,
}

// Scanner walks a repository and returns candidate files.
type Scanner struct {
	cfg *config.Config
}

// New creates a scanner with the given config.
func New(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{cfg: cfg}
}

// ScanRepo returns slash-separated paths relative to root, sorted, and
// capped at the configured maximum. The cap keeps scan time bounded on
// monorepos; sorting makes the truncation deterministic.
func (s *Scanner) ScanRepo(root string) ([]string, error) {
	matcher := s.loadGitignore(root)

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep walking
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if s.excludedDir(d.Name()) {
				return filepath.SkipDir
			}
			if matcher != nil && matcher.Match(strings.Split(rel, "/"), true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.includeFile(rel) {
			return nil
		}
		if matcher != nil && matcher.Match(strings.Split(rel, "/"), false) {
			return nil
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	if max := s.cfg.Analysis.MaxFiles; max > 0 && len(files) > max {
		files = files[:max]
	}
	return files, nil
}

// loadGitignore builds a matcher over every .gitignore under root.
// A repo without one simply yields no patterns.
func (s *Scanner) loadGitignore(root string) gitignore.Matcher {
	if !s.cfg.Exclude.Gitignore {
		return nil
	}
	patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
	if err != nil || len(patterns) == 0 {
		return nil
	}
	return gitignore.NewMatcher(patterns)
}

func (s *Scanner) excludedDir(name string) bool {
	for _, d := range s.cfg.Exclude.Dirs {
		if name == d {
			return true
		}
	}
	return false
}

func (s *Scanner) includeFile(rel string) bool {
	if !includeExts[strings.ToLower(filepath.Ext(rel))] {
		return false
	}
	for _, pattern := range s.cfg.Exclude.Patterns {
		if strings.HasSuffix(rel, pattern) {
			return false
		}
	}
	return true
}
