package aggregator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/petrarca/magicbytes/internal/inspect"
	"github.com/petrarca/magicbytes/internal/metadata"
)

// Fields lists every aggregate field in output order
var Fields = []string{"mime", "category", "languages", "extensions", "mismatches"}

// Uncategorized is the category key for matched types without a category
const Uncategorized = "uncategorized"

// Mismatch is a file whose content type disowns its extension
type Mismatch struct {
	Path          string `json:"path" yaml:"path"`
	MimeType      string `json:"mime" yaml:"mime"`
	Extension     string `json:"extension" yaml:"extension"`
	ExtensionMime string `json:"extension_mime,omitempty" yaml:"extension_mime,omitempty"`
}

// AggregateOutput is the rolled-up view of an identify run
type AggregateOutput struct {
	Metadata   *metadata.RunMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	MimeTypes  map[string]int        `json:"mime_types,omitempty" yaml:"mime_types,omitempty"` // Matched files per MIME type
	Categories map[string]int        `json:"categories,omitempty" yaml:"categories,omitempty"` // Matched files per category
	Languages  map[string]int        `json:"languages,omitempty" yaml:"languages,omitempty"`   // Unmatched text files per language
	Extensions map[string]int        `json:"extensions,omitempty" yaml:"extensions,omitempty"` // All files per lower-cased extension
	Mismatches []Mismatch            `json:"mismatches,omitempty" yaml:"mismatches,omitempty"` // Content/extension disagreements
	Unmatched  int                   `json:"unmatched" yaml:"unmatched"`                       // Files no signature matched
	Errors     []string              `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// ParseFields parses a comma separated field list. "all" selects every field.
func ParseFields(list string) ([]string, error) {
	var fields []string
	for _, field := range strings.Split(list, ",") {
		if field = strings.TrimSpace(field); field != "" {
			fields = append(fields, field)
		}
	}

	if len(fields) == 1 && fields[0] == "all" {
		return append([]string(nil), Fields...), nil
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no aggregate fields given. Valid fields: %s, all", strings.Join(Fields, ", "))
	}

	for _, field := range fields {
		if !isField(field) {
			return nil, fmt.Errorf("invalid aggregate field: %s. Valid fields: %s, all", field, strings.Join(Fields, ", "))
		}
	}
	return fields, nil
}

func isField(name string) bool {
	for _, field := range Fields {
		if field == name {
			return true
		}
	}
	return false
}

// Aggregator rolls identify results up into counts
type Aggregator struct {
	fields map[string]bool
}

// NewAggregator creates a new aggregator with specified fields
func NewAggregator(fields []string) *Aggregator {
	fieldMap := make(map[string]bool)
	for _, field := range fields {
		fieldMap[field] = true
	}
	return &Aggregator{
		fields: fieldMap,
	}
}

// Aggregate summarises files. Unmatched is always counted.
func (a *Aggregator) Aggregate(meta *metadata.RunMetadata, files []*inspect.Result, errs []string) *AggregateOutput {
	output := &AggregateOutput{Metadata: meta, Errors: errs}

	if a.fields["mime"] {
		output.MimeTypes = make(map[string]int)
	}
	if a.fields["category"] {
		output.Categories = make(map[string]int)
	}
	if a.fields["languages"] {
		output.Languages = make(map[string]int)
	}
	if a.fields["extensions"] {
		output.Extensions = make(map[string]int)
	}

	for _, file := range files {
		if !file.Matched {
			output.Unmatched++
			if output.Languages != nil && file.Language != "" {
				output.Languages[file.Language]++
			}
		} else {
			if output.MimeTypes != nil {
				output.MimeTypes[file.MimeType]++
			}
			if output.Categories != nil {
				category := file.Category
				if category == "" {
					category = Uncategorized
				}
				output.Categories[category]++
			}
		}

		if output.Extensions != nil && file.Extension != "" {
			output.Extensions[strings.ToLower(file.Extension)]++
		}

		if a.fields["mismatches"] && file.Mismatch() {
			output.Mismatches = append(output.Mismatches, Mismatch{
				Path:          file.Path,
				MimeType:      file.MimeType,
				Extension:     file.Extension,
				ExtensionMime: file.ExtensionMime,
			})
		}
	}

	return output
}

// Count is one entry of a sorted count table
type Count struct {
	Key   string
	Count int
}

// Sorted orders counts by descending count, then by key
func Sorted(counts map[string]int) []Count {
	result := make([]Count, 0, len(counts))
	for key, count := range counts {
		result = append(result, Count{Key: key, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Key < result[j].Key
	})
	return result
}
