package inspect

import (
	"path/filepath"

	"github.com/go-enry/go-enry/v2"
)

// Classification is the content fallback for files no signature matched
type Classification struct {
	Binary       bool   `json:"binary" yaml:"binary"`
	Language     string `json:"language,omitempty" yaml:"language,omitempty"`
	LanguageType string `json:"language_type,omitempty" yaml:"language_type,omitempty"`
}

// Classify decides whether content looks binary and, for text, which language
// it is written in. Only the leading sample of a file needs to be passed.
func Classify(filename string, content []byte) Classification {
	if enry.IsBinary(content) {
		return Classification{Binary: true}
	}

	base := filepath.Base(filename)

	lang, safe := enry.GetLanguageByExtension(base)
	if !safe && lang != "" && len(content) > 0 {
		lang = enry.GetLanguage(base, content)
	}
	if lang == "" {
		lang, _ = enry.GetLanguageByFilename(base)
	}
	if lang == "" && len(content) > 0 {
		lang, _ = enry.GetLanguageByShebang(content)
	}

	c := Classification{Language: lang}
	if lang != "" {
		c.LanguageType = languageTypeName(enry.GetLanguageType(lang))
	}
	return c
}

func languageTypeName(t enry.Type) string {
	switch t {
	case enry.Programming:
		return "programming"
	case enry.Data:
		return "data"
	case enry.Markup:
		return "markup"
	case enry.Prose:
		return "prose"
	default:
		return "unknown"
	}
}
