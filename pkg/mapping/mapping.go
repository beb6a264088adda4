package mapping

import (
	"fmt"
	"strings"

	"github.com/petrarca/magicbytes/pkg/filetype"
	"github.com/petrarca/magicbytes/pkg/signatures"
)

// Collector produces file types for seeding or bulk registration
type Collector interface {
	Collect() ([]*filetype.FileType, error)
}

// CollectorFunc adapts a function to the Collector interface
type CollectorFunc func() ([]*filetype.FileType, error)

// Collect calls f()
func (f CollectorFunc) Collect() ([]*filetype.FileType, error) {
	return f()
}

// Mapping holds file types in insertion order and answers lookups against them.
// Every lookup returns the first match in insertion order, so seeded types are
// checked before types registered later.
//
// Mapping is not safe for concurrent use; see Synchronized.
type Mapping struct {
	fileTypes []*filetype.FileType
}

// New creates a mapping seeded once from seed. A nil seed yields an empty mapping.
func New(seed Collector) (*Mapping, error) {
	m := &Mapping{}
	if seed == nil {
		return m, nil
	}

	fileTypes, err := seed.Collect()
	if err != nil {
		return nil, fmt.Errorf("failed to collect seed file types: %w", err)
	}
	m.RegisterAll(fileTypes)

	return m, nil
}

// NewDefault creates a mapping seeded with the built-in signatures
func NewDefault() (*Mapping, error) {
	return New(signatures.Builtin())
}

// FileTypes returns all registered file types in insertion order.
// The slice is a fresh copy; descriptors themselves are immutable.
func (m *Mapping) FileTypes() []*filetype.FileType {
	out := make([]*filetype.FileType, len(m.fileTypes))
	copy(out, m.fileTypes)
	return out
}

// Len returns the number of registered file types
func (m *Mapping) Len() int {
	return len(m.fileTypes)
}

// FindByMimeType returns the first file type whose MIME type equals mimeType,
// ignoring case. It returns nil, nil when nothing matches.
func (m *Mapping) FindByMimeType(mimeType string) (*filetype.FileType, error) {
	if mimeType == "" {
		return nil, filetype.NewArgumentEmptyError("mimeType")
	}

	for _, ft := range m.fileTypes {
		if strings.EqualFold(ft.MimeType(), mimeType) {
			return ft, nil
		}
	}
	return nil, nil
}

// FindByExtension returns the first file type with an extension equal to
// extension, ignoring case. The input is compared as given, so ".png" does not
// find "png". It returns nil, nil when nothing matches.
func (m *Mapping) FindByExtension(extension string) (*filetype.FileType, error) {
	if extension == "" {
		return nil, filetype.NewArgumentEmptyError("extension")
	}

	for _, ft := range m.fileTypes {
		if ft.HasExtension(extension) {
			return ft, nil
		}
	}
	return nil, nil
}

// FindByMagicByteSequence returns the first file type with a stored sequence
// exactly equal to sequence. The candidate must have the same length as the
// stored sequence; use Detect to match against a file header instead.
// It returns nil, nil when nothing matches.
func (m *Mapping) FindByMagicByteSequence(sequence []byte) (*filetype.FileType, error) {
	if len(sequence) == 0 {
		return nil, filetype.NewArgumentEmptyError("magicByteSequence")
	}

	for _, ft := range m.fileTypes {
		if ft.HasMagicByteSequence(sequence) {
			return ft, nil
		}
	}
	return nil, nil
}

// Register appends a single file type. Nil is ignored.
func (m *Mapping) Register(fileType *filetype.FileType) {
	if fileType == nil {
		return
	}
	m.fileTypes = append(m.fileTypes, fileType)
}

// RegisterAll appends file types preserving their order. An empty list is a no-op.
func (m *Mapping) RegisterAll(fileTypes []*filetype.FileType) {
	if len(fileTypes) == 0 {
		return
	}

	for _, ft := range fileTypes {
		m.Register(ft)
	}
}

// RegisterFrom collects file types from source and appends them like RegisterAll.
// Nothing is appended when the source fails.
func (m *Mapping) RegisterFrom(source Collector) error {
	if source == nil {
		return nil
	}

	fileTypes, err := source.Collect()
	if err != nil {
		return fmt.Errorf("failed to collect file types: %w", err)
	}
	m.RegisterAll(fileTypes)

	return nil
}
