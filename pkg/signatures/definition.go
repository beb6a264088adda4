package signatures

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/petrarca/magicbytes/pkg/filetype"
	"gopkg.in/yaml.v3"
)

// Definition is the on-disk form of a file type signature
type Definition struct {
	MimeType    string   `yaml:"mime" json:"mime"`
	Name        string   `yaml:"name,omitempty" json:"name,omitempty"`
	Category    string   `yaml:"category,omitempty" json:"category,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Extensions  []string `yaml:"extensions,omitempty" json:"extensions,omitempty"`
	Magic       []string `yaml:"magic,omitempty" json:"magic,omitempty"`           // Hex strings, e.g. "89 50 4E 47"
	MagicText   []string `yaml:"magic_text,omitempty" json:"magic_text,omitempty"` // Literal ASCII signatures, e.g. "%PDF-"
}

// Sequences decodes all magic entries, hex first, then text, in file order
func (d *Definition) Sequences() ([][]byte, error) {
	sequences := make([][]byte, 0, len(d.Magic)+len(d.MagicText))

	for i, m := range d.Magic {
		seq, err := ParseHex(m)
		if err != nil {
			return nil, fmt.Errorf("magic %d: %w", i, err)
		}
		sequences = append(sequences, seq)
	}

	for i, m := range d.MagicText {
		if m == "" {
			return nil, fmt.Errorf("magic_text %d: empty sequence", i)
		}
		sequences = append(sequences, []byte(m))
	}

	return sequences, nil
}

// FileType converts the definition into an immutable descriptor.
// Extensions written with a leading dot are stored without it.
func (d *Definition) FileType() (*filetype.FileType, error) {
	sequences, err := d.Sequences()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.MimeType, err)
	}

	extensions := make([]string, 0, len(d.Extensions))
	for _, ext := range d.Extensions {
		if ext = filetype.NormalizeExtension(ext); ext != "" {
			extensions = append(extensions, ext)
		}
	}

	return filetype.New(d.MimeType, extensions, sequences,
		filetype.WithName(d.Name),
		filetype.WithCategory(d.Category))
}

// DefinitionOf converts a descriptor back into its on-disk form.
// All sequences are written as hex.
func DefinitionOf(ft *filetype.FileType) Definition {
	def := Definition{
		MimeType:   ft.MimeType(),
		Name:       ft.Name(),
		Category:   ft.Category(),
		Extensions: ft.Extensions(),
	}
	for _, seq := range ft.MagicByteSequences() {
		def.Magic = append(def.Magic, FormatHex(seq))
	}
	return def
}

// ParseHex decodes a hex string such as "89 50 4E 47", "89504E47" or "0x89 0x50".
// Whitespace between bytes is ignored.
func ParseHex(s string) ([]byte, error) {
	var buf strings.Builder
	for _, token := range strings.Fields(s) {
		token = strings.TrimPrefix(strings.TrimPrefix(token, "0x"), "0X")
		buf.WriteString(token)
	}

	if buf.Len() == 0 {
		return nil, fmt.Errorf("empty sequence")
	}

	seq, err := hex.DecodeString(buf.String())
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return seq, nil
}

// FormatHex renders a sequence as upper-case, space separated hex
func FormatHex(seq []byte) string {
	var buf bytes.Buffer
	for i, b := range seq {
		if i > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(&buf, "%02X", b)
	}
	return buf.String()
}

// definitionList is the list form used by LoadDefinitions
type definitionList struct {
	Types []Definition `yaml:"types"`
}

// LoadDefinitions parses either a single definition or a document with a
// top-level "types" list. Multiple YAML documents in one stream are allowed.
func LoadDefinitions(data []byte) ([]Definition, error) {
	var defs []Definition

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var node yaml.Node
		if err := decoder.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to parse definitions: %w", err)
		}

		parsed, err := decodeDefinitionNode(&node)
		if err != nil {
			return nil, err
		}
		defs = append(defs, parsed...)
	}

	return defs, nil
}

func decodeDefinitionNode(node *yaml.Node) ([]Definition, error) {
	var list definitionList
	if err := node.Decode(&list); err == nil && len(list.Types) > 0 {
		return list.Types, nil
	}

	var def Definition
	if err := node.Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}
	if def.MimeType == "" && len(def.Magic) == 0 && len(def.MagicText) == 0 {
		// empty document
		return nil, nil
	}
	return []Definition{def}, nil
}
