package inspect

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-enry/go-enry/v2"
	"github.com/petrarca/magicbytes/pkg/filetype"
	"github.com/petrarca/magicbytes/pkg/mapping"
	"github.com/petrarca/magicbytes/pkg/signatures"
)

// DefaultSampleSize is the number of leading bytes read per file when no larger
// signature requires more. go-enry needs a text sample for its binary check.
const DefaultSampleSize = 512

// Lookup is the part of a registry the inspector needs.
// Both *mapping.Mapping and *mapping.Synchronized satisfy it.
type Lookup interface {
	Detect(header []byte) (*filetype.FileType, error)
	FindByExtension(extension string) (*filetype.FileType, error)
	MaxSequenceLength() int
}

var (
	_ Lookup = (*mapping.Mapping)(nil)
	_ Lookup = (*mapping.Synchronized)(nil)
)

// Result describes one identified file
type Result struct {
	Path       string   `json:"path" yaml:"path"`
	Size       int64    `json:"size" yaml:"size"`
	Matched    bool     `json:"matched" yaml:"matched"`
	MimeType   string   `json:"mime,omitempty" yaml:"mime,omitempty"`
	Name       string   `json:"name,omitempty" yaml:"name,omitempty"`
	Category   string   `json:"category,omitempty" yaml:"category,omitempty"`
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	Signature  string   `json:"signature,omitempty" yaml:"signature,omitempty"` // Hex of the matched sequence

	Extension      string `json:"extension,omitempty" yaml:"extension,omitempty"`
	ExtensionMime  string `json:"extension_mime,omitempty" yaml:"extension_mime,omitempty"`
	ExtensionMatch *bool  `json:"extension_match,omitempty" yaml:"extension_match,omitempty"` // nil when there is nothing to compare

	Classification `yaml:",inline"`
}

// Mismatch reports whether the content type disowns the file's extension
func (r *Result) Mismatch() bool {
	return r.ExtensionMatch != nil && !*r.ExtensionMatch
}

// Inspector identifies files against a registry
type Inspector struct {
	lookup     Lookup
	sampleSize int
	logger     *slog.Logger
}

// Option configures an Inspector
type Option func(*Inspector)

// WithSampleSize sets the minimum number of bytes read per file.
// Zero keeps DefaultSampleSize.
func WithSampleSize(size int) Option {
	return func(i *Inspector) {
		if size > 0 {
			i.sampleSize = size
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(i *Inspector) {
		i.logger = logger
	}
}

// New creates an inspector over lookup
func New(lookup Lookup, opts ...Option) *Inspector {
	i := &Inspector{
		lookup:     lookup,
		sampleSize: DefaultSampleSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// HeaderSize returns how many bytes are read from each file
func (i *Inspector) HeaderSize() int {
	return max(i.sampleSize, i.lookup.MaxSequenceLength())
}

// InspectFile opens path and identifies it
func (i *Inspector) InspectFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	result, err := i.Inspect(path, f)
	if err != nil {
		return nil, err
	}
	result.Size = info.Size()
	return result, nil
}

// Inspect identifies the content read from r. name supplies the extension and
// the language hint; it is not opened.
func (i *Inspector) Inspect(name string, r io.Reader) (*Result, error) {
	header, err := mapping.ReadHeader(r, i.HeaderSize())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	result := &Result{Path: name}

	detected, err := i.lookup.Detect(header)
	if err != nil && !errors.Is(err, filetype.ErrArgumentEmpty) {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	if detected != nil {
		result.Matched = true
		result.MimeType = detected.MimeType()
		result.Name = detected.Name()
		result.Category = detected.Category()
		result.Extensions = detected.Extensions()
		result.Signature = matchedSignature(detected, header)
		result.Binary = enry.IsBinary(header)
	} else {
		result.Classification = Classify(name, header)
	}

	i.compareExtension(result, detected)

	i.logger.Debug("inspected file",
		"path", name,
		"matched", result.Matched,
		"mime", result.MimeType,
		"extension_mime", result.ExtensionMime)

	return result, nil
}

// compareExtension fills the extension fields. ExtensionMatch is set only when
// content was recognised and the file has an extension.
func (i *Inspector) compareExtension(result *Result, detected *filetype.FileType) {
	ext := filetype.NormalizeExtension(filepath.Ext(result.Path))
	if ext == "" {
		return
	}
	result.Extension = ext

	byExtension, err := i.lookup.FindByExtension(ext)
	if err == nil && byExtension != nil {
		result.ExtensionMime = byExtension.MimeType()
	}

	if detected != nil {
		match := detected.HasExtension(ext)
		result.ExtensionMatch = &match
	}
}

func matchedSignature(ft *filetype.FileType, header []byte) string {
	n := ft.MatchLength(header)
	if n == 0 {
		return ""
	}
	return signatures.FormatHex(header[:n])
}
