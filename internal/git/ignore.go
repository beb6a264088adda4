package git

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnoreFileName is the per-directory ignore file
const IgnoreFileName = ".gitignore"

// ReadPatterns reads a gitignore style file. Blank lines, comments and
// negations are dropped and trailing slashes trimmed.
func ReadPatterns(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer file.Close()

	patterns := []string{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Negations are not supported by the glob matcher
		if strings.HasPrefix(line, "!") {
			continue
		}

		if pattern := strings.TrimSuffix(line, "/"); pattern != "" {
			patterns = append(patterns, pattern)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return patterns, nil
}

// frame holds the patterns of one entered directory
type frame struct {
	dir      string
	patterns []string
}

// IgnoreStack follows a depth-first walk and keeps the ignore patterns of
// every directory enclosing the current position. Patterns are matched
// relative to the directory that declared them.
type IgnoreStack struct {
	base   frame // .git/info/exclude of the walk root
	frames []frame
	logger *slog.Logger
}

// NewIgnoreStack starts a stack at root. When root is the top of a work tree
// its .git/info/exclude patterns apply to the whole walk.
func NewIgnoreStack(root string, logger *slog.Logger) *IgnoreStack {
	if logger == nil {
		logger = slog.Default()
	}
	root = filepath.Clean(root)
	s := &IgnoreStack{base: frame{dir: root}, logger: logger}

	if gitDir, err := findGitDir(root); err == nil {
		excludePath := filepath.Join(gitDir, "info", "exclude")
		if _, statErr := os.Stat(excludePath); statErr == nil {
			if patterns, err := ReadPatterns(excludePath); err == nil {
				s.base.patterns = patterns
				logger.Debug("Loaded ignore patterns", "path", excludePath, "count", len(patterns))
			}
		}
	}

	s.Enter(root)
	return s
}

// Enter moves the walk position to dir. Frames of directories that do not
// enclose dir are dropped; dir's own ignore file is read once per visit.
func (s *IgnoreStack) Enter(dir string) {
	dir = filepath.Clean(dir)
	for len(s.frames) > 0 && !encloses(s.frames[len(s.frames)-1].dir, dir) {
		s.frames = s.frames[:len(s.frames)-1]
	}
	if n := len(s.frames); n > 0 && s.frames[n-1].dir == dir {
		return
	}

	f := frame{dir: dir}
	ignorePath := filepath.Join(dir, IgnoreFileName)
	if _, err := os.Stat(ignorePath); err == nil {
		patterns, err := ReadPatterns(ignorePath)
		if err != nil {
			s.logger.Warn("Failed to read ignore file", "path", ignorePath, "error", err)
		} else {
			f.patterns = patterns
			s.logger.Debug("Loaded ignore patterns", "path", ignorePath, "count", len(patterns))
		}
	}
	s.frames = append(s.frames, f)
}

// Ignored reports whether path is matched by a pattern of an enclosing directory
func (s *IgnoreStack) Ignored(path string) bool {
	path = filepath.Clean(path)
	if s.base.matches(path) {
		return true
	}
	for _, f := range s.frames {
		if f.matches(path) {
			return true
		}
	}
	return false
}

// Depth returns the number of entered directories still enclosing the position
func (s *IgnoreStack) Depth() int {
	return len(s.frames)
}

func (f frame) matches(path string) bool {
	if len(f.patterns) == 0 || path == f.dir || !encloses(f.dir, path) {
		return false
	}
	rel, err := filepath.Rel(f.dir, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	name := filepath.Base(path)

	for _, pattern := range f.patterns {
		// A leading slash anchors the pattern to its directory
		if anchored, ok := strings.CutPrefix(pattern, "/"); ok {
			if matched, err := doublestar.Match(anchored, rel); err == nil && matched {
				return true
			}
			continue
		}
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}

func encloses(dir, path string) bool {
	return path == dir || strings.HasPrefix(path, strings.TrimSuffix(dir, string(filepath.Separator))+string(filepath.Separator))
}

// findGitDir locates the git directory of root, following the "gitdir:" file
// used by worktrees and submodules
func findGitDir(root string) (string, error) {
	dotGit := filepath.Join(root, ".git")
	info, err := os.Stat(dotGit)
	if err != nil {
		return "", fmt.Errorf("not a git repository")
	}
	if info.IsDir() {
		return dotGit, nil
	}

	content, err := os.ReadFile(dotGit)
	if err != nil {
		return "", err
	}
	gitDir, ok := strings.CutPrefix(strings.TrimSpace(string(content)), "gitdir: ")
	if !ok {
		return "", fmt.Errorf("not a git repository")
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(root, gitDir)
	}
	return gitDir, nil
}
