package git

import (
	"net/url"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// Info describes the repository a scanned path belongs to
type Info struct {
	Root      string `json:"root" yaml:"root"`
	Branch    string `json:"branch,omitempty" yaml:"branch,omitempty"`
	Commit    string `json:"commit,omitempty" yaml:"commit,omitempty"`
	IsDirty   bool   `json:"is_dirty" yaml:"is_dirty"`
	RemoteURL string `json:"remote_url,omitempty" yaml:"remote_url,omitempty"`
}

// FindRepoRoot returns the root of the repository containing path, or "" when
// path is not inside a git work tree
func FindRepoRoot(path string) string {
	repo, err := open(path)
	if err != nil {
		return ""
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return ""
	}
	return worktree.Filesystem.Root()
}

// Describe returns repository information for path, or nil when path is not
// inside a git work tree. withStatus computes IsDirty, which walks the whole
// work tree.
func Describe(path string, withStatus bool) *Info {
	repo, err := open(path)
	if err != nil {
		return nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil
	}
	info := &Info{Root: worktree.Filesystem.Root()}

	head, err := repo.Head()
	if err == nil {
		info.Commit = head.Hash().String()[:7]
		if head.Name().IsBranch() {
			info.Branch = head.Name().Short()
		} else {
			info.Branch = "HEAD" // Detached
		}
	}

	if withStatus {
		if status, err := worktree.Status(); err == nil {
			info.IsDirty = !status.IsClean()
		}
	}

	if cfg, err := repo.Config(); err == nil {
		if origin := cfg.Remotes["origin"]; origin != nil && len(origin.URLs) > 0 {
			info.RemoteURL = sanitizeRemoteURL(origin.URLs[0])
		}
	}

	return info
}

// open finds the repository enclosing path; file paths start at their directory
func open(path string) (*git.Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}
	return git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
}

// sanitizeRemoteURL drops credentials from http(s) remotes. SSH style remotes
// are returned unchanged.
func sanitizeRemoteURL(remote string) string {
	u, err := url.Parse(remote)
	if err != nil || u.User == nil || (u.Scheme != "http" && u.Scheme != "https") {
		return remote
	}
	u.User = nil
	return u.String()
}
