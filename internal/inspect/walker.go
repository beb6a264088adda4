package inspect

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/petrarca/magicbytes/internal/git"
)

// SkipReason explains why the walker passed over a path
type SkipReason string

const (
	SkipExcluded   SkipReason = "excluded"
	SkipDirectory  SkipReason = "directory (use --recursive)"
	SkipIrregular  SkipReason = "not a regular file"
	SkipUnreadable SkipReason = "unreadable"
	SkipIgnored    SkipReason = "ignored by .gitignore"
)

// Visitor receives every regular file the walker accepts
type Visitor func(path string, info fs.FileInfo) error

// SkipFunc receives every path the walker passes over
type SkipFunc func(path string, reason SkipReason)

// Walker expands command line paths into regular files
type Walker struct {
	excludes  []string
	recursive bool
	gitignore bool
	onSkip    SkipFunc
	logger    *slog.Logger
}

// WalkerOption configures a Walker
type WalkerOption func(*Walker)

// WithRecursion descends into subdirectories of directory arguments
func WithRecursion(recursive bool) WalkerOption {
	return func(w *Walker) {
		w.recursive = recursive
	}
}

// WithExcludePatterns sets doublestar patterns matched against the path
// relative to the argument and against the base name
func WithExcludePatterns(patterns []string) WalkerOption {
	return func(w *Walker) {
		w.excludes = patterns
	}
}

// WithGitignore honours .gitignore files and .git/info/exclude below directory
// arguments. Explicit file arguments are never ignored.
func WithGitignore(enabled bool) WalkerOption {
	return func(w *Walker) {
		w.gitignore = enabled
	}
}

// WithSkipHandler reports skipped paths
func WithSkipHandler(fn SkipFunc) WalkerOption {
	return func(w *Walker) {
		w.onSkip = fn
	}
}

// WithWalkerLogger sets the logger used for debug output
func WithWalkerLogger(logger *slog.Logger) WalkerOption {
	return func(w *Walker) {
		w.logger = logger
	}
}

// NewWalker creates a walker
func NewWalker(opts ...WalkerOption) *Walker {
	w := &Walker{logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk visits each path in order. Files are visited directly, directories are
// listed in lexical order. Without recursion only the direct children of a
// directory argument are visited. A visitor error stops the walk.
func (w *Walker) Walk(paths []string, visit Visitor) error {
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return fmt.Errorf("cannot access %s: %w", root, err)
		}

		if !info.IsDir() {
			if w.isExcluded(filepath.Base(root), filepath.Base(root)) {
				w.skip(root, SkipExcluded)
				continue
			}
			if !info.Mode().IsRegular() {
				w.skip(root, SkipIrregular)
				continue
			}
			if err := visit(root, info); err != nil {
				return err
			}
			continue
		}

		if err := w.walkDir(root, visit); err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) walkDir(root string, visit Visitor) error {
	var ignores *git.IgnoreStack
	if w.gitignore {
		ignores = git.NewIgnoreStack(root, w.logger)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			w.logger.Debug("cannot read path", "path", path, "error", err)
			w.skip(path, SkipUnreadable)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			relPath = d.Name()
		}
		relPath = filepath.ToSlash(relPath)

		if ignores != nil {
			ignores.Enter(filepath.Dir(path))
			if (d.IsDir() && d.Name() == ".git") || ignores.Ignored(path) {
				w.skip(path, SkipIgnored)
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			if w.isExcludedDir(d.Name(), relPath) {
				w.skip(path, SkipExcluded)
				return filepath.SkipDir
			}
			if !w.recursive {
				w.skip(path, SkipDirectory)
				return filepath.SkipDir
			}
			return nil
		}

		if w.isExcluded(d.Name(), relPath) {
			w.skip(path, SkipExcluded)
			return nil
		}
		if !d.Type().IsRegular() {
			w.skip(path, SkipIrregular)
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			if errors.Is(infoErr, fs.ErrNotExist) {
				return nil
			}
			w.skip(path, SkipUnreadable)
			return nil
		}
		return visit(path, info)
	})
}

// isExcluded matches patterns against the relative path first, then the name
func (w *Walker) isExcluded(name, relPath string) bool {
	for _, pattern := range w.excludes {
		if matched, err := doublestar.Match(pattern, relPath); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}

// isExcludedDir also accepts a plain case-insensitive name match
func (w *Walker) isExcludedDir(name, relPath string) bool {
	if w.isExcluded(name, relPath) {
		return true
	}
	for _, pattern := range w.excludes {
		if strings.EqualFold(name, strings.TrimSuffix(pattern, "/")) {
			return true
		}
	}
	return false
}

func (w *Walker) skip(path string, reason SkipReason) {
	w.logger.Debug("skipping path", "path", path, "reason", string(reason))
	if w.onSkip != nil {
		w.onSkip(path, reason)
	}
}
