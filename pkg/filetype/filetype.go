package filetype

import (
	"bytes"
	"slices"
	"strconv"
	"strings"
)

// FileType describes one file format: its MIME type, known filename extensions
// and the magic byte sequences found at the start of its content.
// A FileType is immutable once built; accessors return copies.
type FileType struct {
	mimeType   string
	name       string
	category   string
	extensions []string
	sequences  [][]byte
}

// Option sets optional descriptive metadata on a FileType
type Option func(*FileType)

// WithName sets a human readable name (e.g., "Portable Network Graphics")
func WithName(name string) Option {
	return func(ft *FileType) {
		ft.name = name
	}
}

// WithCategory sets the category (e.g., "image", "archive")
func WithCategory(category string) Option {
	return func(ft *FileType) {
		ft.category = category
	}
}

// New builds a FileType. The MIME type must be non-empty and at least one
// non-empty magic byte sequence is required. Extensions may be empty and are
// stored exactly as given.
func New(mimeType string, extensions []string, sequences [][]byte, opts ...Option) (*FileType, error) {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return nil, &InvalidFileTypeError{Reason: "mime type is required"}
	}

	if len(sequences) == 0 {
		return nil, &InvalidFileTypeError{MimeType: mimeType, Reason: "at least one magic byte sequence is required"}
	}

	ft := &FileType{
		mimeType:   mimeType,
		extensions: slices.Clone(extensions),
		sequences:  make([][]byte, 0, len(sequences)),
	}

	for i, seq := range sequences {
		if len(seq) == 0 {
			return nil, &InvalidFileTypeError{MimeType: mimeType, Reason: "magic byte sequence " + strconv.Itoa(i) + " is empty"}
		}
		ft.sequences = append(ft.sequences, bytes.Clone(seq))
	}

	for _, opt := range opts {
		opt(ft)
	}

	return ft, nil
}

// MustNew is like New but panics on invalid input. Intended for static tables and tests.
func MustNew(mimeType string, extensions []string, sequences [][]byte, opts ...Option) *FileType {
	ft, err := New(mimeType, extensions, sequences, opts...)
	if err != nil {
		panic(err)
	}
	return ft
}

// MimeType returns the canonical MIME type
func (ft *FileType) MimeType() string {
	return ft.mimeType
}

// Name returns the human readable name, empty if none was set
func (ft *FileType) Name() string {
	return ft.name
}

// Category returns the category, empty if none was set
func (ft *FileType) Category() string {
	return ft.category
}

// Extensions returns a copy of the associated extensions
func (ft *FileType) Extensions() []string {
	out := make([]string, len(ft.extensions))
	copy(out, ft.extensions)
	return out
}

// MagicByteSequences returns a deep copy of the magic byte sequences
func (ft *FileType) MagicByteSequences() [][]byte {
	out := make([][]byte, len(ft.sequences))
	for i, seq := range ft.sequences {
		out[i] = bytes.Clone(seq)
	}
	return out
}

// HasExtension reports whether ext equals one of the file type's extensions,
// ignoring case. The empty string never matches.
func (ft *FileType) HasExtension(ext string) bool {
	if ext == "" {
		return false
	}
	for _, e := range ft.extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// HasMagicByteSequence reports whether seq is exactly equal to one of the
// stored sequences. A longer slice that merely starts with a stored sequence
// does not match.
func (ft *FileType) HasMagicByteSequence(seq []byte) bool {
	for _, s := range ft.sequences {
		if bytes.Equal(s, seq) {
			return true
		}
	}
	return false
}

// MatchLength returns the length of the longest stored sequence that is a
// prefix of header, or 0 when none is.
func (ft *FileType) MatchLength(header []byte) int {
	best := 0
	for _, s := range ft.sequences {
		if len(s) > best && bytes.HasPrefix(header, s) {
			best = len(s)
		}
	}
	return best
}

// MaxSequenceLength returns the length of the longest stored sequence
func (ft *FileType) MaxSequenceLength() int {
	longest := 0
	for _, s := range ft.sequences {
		if len(s) > longest {
			longest = len(s)
		}
	}
	return longest
}

// String returns the MIME type, with the name if one is set
func (ft *FileType) String() string {
	if ft.name == "" {
		return ft.mimeType
	}
	return ft.name + " (" + ft.mimeType + ")"
}

// NormalizeExtension trims whitespace and a single leading dot, turning
// filepath.Ext output or user input into the stored form. Casing is preserved.
func NormalizeExtension(ext string) string {
	ext = strings.TrimSpace(ext)
	return strings.TrimPrefix(ext, ".")
}
