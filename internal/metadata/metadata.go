package metadata

import (
	"path/filepath"
	"time"

	"github.com/petrarca/magicbytes/internal/git"
)

// RunMetadata describes one identify run
type RunMetadata struct {
	Timestamp     string    `json:"timestamp" yaml:"timestamp"`
	FormatVersion string    `json:"format_version" yaml:"format_version"`
	ToolVersion   string    `json:"tool_version,omitempty" yaml:"tool_version,omitempty"`
	Paths         []string  `json:"paths" yaml:"paths"`
	Recursive     bool      `json:"recursive,omitempty" yaml:"recursive,omitempty"`
	Gitignore     bool      `json:"gitignore,omitempty" yaml:"gitignore,omitempty"`
	Excludes      []string  `json:"excludes,omitempty" yaml:"excludes,omitempty"`
	Signatures    []string  `json:"signatures,omitempty" yaml:"signatures,omitempty"` // Extra definition directories
	TypeCount     int       `json:"type_count" yaml:"type_count"`
	HeaderSize    int       `json:"header_size" yaml:"header_size"`
	DurationMs    int64     `json:"duration_ms" yaml:"duration_ms"`
	FileCount     int       `json:"file_count" yaml:"file_count"`
	MatchedCount  int       `json:"matched_count" yaml:"matched_count"`
	MismatchCount int       `json:"mismatch_count" yaml:"mismatch_count"`
	SkippedCount  int       `json:"skipped_count,omitempty" yaml:"skipped_count,omitempty"`
	Git           *git.Info `json:"git,omitempty" yaml:"git,omitempty"`
}

// NewRunMetadata creates run metadata for the given path arguments.
// Paths are made absolute where possible.
func NewRunMetadata(paths []string, formatVersion, toolVersion string) *RunMetadata {
	absPaths := make([]string, 0, len(paths))
	for _, path := range paths {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		absPaths = append(absPaths, path)
	}

	return &RunMetadata{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		FormatVersion: formatVersion,
		ToolVersion:   toolVersion,
		Paths:         absPaths,
	}
}

// SetDuration sets the run duration in milliseconds
func (m *RunMetadata) SetDuration(duration time.Duration) {
	m.DurationMs = duration.Milliseconds()
}

// SetCounts sets the file, match and mismatch counts
func (m *RunMetadata) SetCounts(files, matched, mismatched int) {
	m.FileCount = files
	m.MatchedCount = matched
	m.MismatchCount = mismatched
}

// SetRegistry records the size of the registry and the header length used
func (m *RunMetadata) SetRegistry(typeCount, headerSize int) {
	m.TypeCount = typeCount
	m.HeaderSize = headerSize
}

// SetGit records repository information for the first path argument.
// Paths outside a work tree leave Git nil.
func (m *RunMetadata) SetGit(withStatus bool) {
	if len(m.Paths) == 0 {
		return
	}
	m.Git = git.Describe(m.Paths[0], withStatus)
}
