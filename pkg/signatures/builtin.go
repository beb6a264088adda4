package signatures

import (
	"embed"
	"sync"

	"github.com/petrarca/magicbytes/pkg/filetype"
)

//go:embed all:formats
var builtinFS embed.FS

// BuiltinProvider serves the signature table compiled into the binary.
// The table is parsed on first use; each Collect returns a fresh slice of
// the same immutable descriptors.
type BuiltinProvider struct {
	once      sync.Once
	fileTypes []*filetype.FileType
	err       error
}

var builtin = &BuiltinProvider{}

// Builtin returns the provider for the embedded signature table
func Builtin() *BuiltinProvider {
	return builtin
}

// Collect returns the built-in file types in table order
func (b *BuiltinProvider) Collect() ([]*filetype.FileType, error) {
	b.once.Do(func() {
		b.fileTypes, b.err = NewFSProvider(builtinFS, "formats").Collect()
	})
	if b.err != nil {
		return nil, b.err
	}

	out := make([]*filetype.FileType, len(b.fileTypes))
	copy(out, b.fileTypes)
	return out, nil
}

// BuiltinDefinitions returns the raw embedded definitions, with categories derived
func BuiltinDefinitions() ([]Definition, error) {
	return NewFSProvider(builtinFS, "formats").Definitions()
}

// StaticProvider serves a fixed list of file types
type StaticProvider struct {
	fileTypes []*filetype.FileType
}

// Static creates a provider for an explicit list
func Static(fileTypes ...*filetype.FileType) *StaticProvider {
	return &StaticProvider{fileTypes: fileTypes}
}

// Collect returns a copy of the list
func (s *StaticProvider) Collect() ([]*filetype.FileType, error) {
	out := make([]*filetype.FileType, len(s.fileTypes))
	copy(out, s.fileTypes)
	return out, nil
}

// DefinitionProvider converts already parsed definitions on Collect
type DefinitionProvider struct {
	defs []Definition
}

// FromDefinitions creates a provider for parsed definitions
func FromDefinitions(defs []Definition) *DefinitionProvider {
	return &DefinitionProvider{defs: defs}
}

// Collect converts the definitions, reporting every invalid one
func (d *DefinitionProvider) Collect() ([]*filetype.FileType, error) {
	return ToFileTypes(d.defs)
}
