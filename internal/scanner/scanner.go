// Package scanner discovers the JavaScript files a fix run operates on.
// It walks a directory tree, respects .esfixignore files with
// gitignore-style patterns, and filters to the source extensions the
// rewrite engine understands.
package scanner

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo represents one discovered source file.
type FileInfo struct {
	Path     string // Relative path from root
	FullPath string // Absolute path
	Size     int64  // File size in bytes
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden      bool     // Skip hidden files and directories (starting with .)
	FollowSymlinks  bool     // Follow symlinks (within root only)
	DefaultExcludes []string // Directory names to exclude
	ExtraExcludes   []string // Additional excludes from configuration
	IgnoreFileName  string   // Name of the ignore file (default: .esfixignore)
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		FollowSymlinks: false,
		IgnoreFileName: ".esfixignore",
		DefaultExcludes: []string{
			"node_modules",
			".git",
			"dist",
			"build",
			"out",
			"coverage",
			"vendor",
			".idea",
			".vscode",
			".hg",
			".svn",
		},
	}
}

// sourceExtensions are the file extensions handed to the engine.
var sourceExtensions = map[string]bool{
	".js":  true,
	".mjs": true,
	".cjs": true,
}

// IsSourceFile reports whether the path has a rewritable extension.
func IsSourceFile(path string) bool {
	return sourceExtensions[strings.ToLower(filepath.Ext(path))]
}

// Scanner provides file tree scanning capabilities.
type Scanner struct {
	opts Options
	root string
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan recursively scans the directory at root and returns the JavaScript
// files found, honoring .esfixignore patterns and exclusions. When root is
// itself a file, it is returned directly if rewritable.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}
	s.root = absRoot

	if info, err := os.Stat(absRoot); err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	} else if !info.IsDir() {
		if !IsSourceFile(absRoot) {
			return nil, fmt.Errorf("%s is not a JavaScript file", root)
		}
		return []FileInfo{{
			Path:     filepath.Base(absRoot),
			FullPath: absRoot,
			Size:     info.Size(),
		}}, nil
	}

	ignorePatterns, err := s.loadIgnorePatterns(absRoot)
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}

	var files []FileInfo

	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		if relPath == "." {
			return nil
		}
		relPathSlash := filepath.ToSlash(relPath)

		if s.opts.SkipHidden && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if s.isExcluded(info.Name()) {
				return filepath.SkipDir
			}
			// Nested ignore files extend the pattern set for the rest of
			// the walk.
			nested, err := s.loadIgnorePatterns(path)
			if err == nil && len(nested) > 0 {
				ignorePatterns = append(ignorePatterns, nested...)
			}
			return nil
		}

		if !IsSourceFile(path) {
			return nil
		}

		if s.matchesIgnorePatterns(relPathSlash, ignorePatterns) {
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			if !s.opts.FollowSymlinks {
				return nil
			}
			realPath, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil
			}
			realAbs, err := filepath.Abs(realPath)
			if err != nil {
				return nil
			}
			if !strings.HasPrefix(realAbs, absRoot+string(filepath.Separator)) && realAbs != absRoot {
				return nil
			}
			targetInfo, err := os.Stat(realPath)
			if err != nil || targetInfo.IsDir() {
				return nil
			}
			info = targetInfo
		}

		files = append(files, FileInfo{
			Path:     relPathSlash,
			FullPath: path,
			Size:     info.Size(),
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return files, nil
}

// isExcluded checks a directory name against the default and configured
// exclusion lists.
func (s *Scanner) isExcluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	for _, exclude := range s.opts.ExtraExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

// loadIgnorePatterns loads ignore patterns from the ignore file in dir.
func (s *Scanner) loadIgnorePatterns(dir string) ([]ignoreRule, error) {
	ignorePath := filepath.Join(dir, s.opts.IgnoreFileName)
	file, err := os.Open(ignorePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var patterns []ignoreRule
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, parseIgnoreRule(line))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}

// matchesIgnorePatterns evaluates the pattern list in order; later
// patterns win, so negations can re-include earlier matches.
func (s *Scanner) matchesIgnorePatterns(path string, patterns []ignoreRule) bool {
	ignored := false
	for _, p := range patterns {
		if p.matches(path) {
			ignored = !p.negated
		}
	}
	return ignored
}
