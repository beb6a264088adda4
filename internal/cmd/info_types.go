package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/petrarca/magicbytes/internal/util"
	"github.com/petrarca/magicbytes/pkg/filetype"
	"github.com/petrarca/magicbytes/pkg/signatures"
	"github.com/spf13/cobra"
)

var typesFormat string
var typesOutput string
var typesCategory string

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List all registered file types",
	Long: `List the built-in file types followed by those loaded from --signatures
and .magicbytes.yml, in registration order.`,
	RunE: runTypes,
}

func init() {
	setupOutputFlags(typesCmd, &typesFormat, &typesOutput, util.FormatText, "")
	typesCmd.Flags().StringVar(&typesCategory, "category", "", "Only list types in this category")
}

// TypeInfo describes one registered file type
type TypeInfo struct {
	MimeType   string   `json:"mime" yaml:"mime"`
	Name       string   `json:"name,omitempty" yaml:"name,omitempty"`
	Category   string   `json:"category,omitempty" yaml:"category,omitempty"`
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	Magic      []string `json:"magic" yaml:"magic"`
}

func typeInfoOf(ft *filetype.FileType) TypeInfo {
	sequences := ft.MagicByteSequences()
	magic := make([]string, 0, len(sequences))
	for _, seq := range sequences {
		magic = append(magic, signatures.FormatHex(seq))
	}
	return TypeInfo{
		MimeType:   ft.MimeType(),
		Name:       ft.Name(),
		Category:   ft.Category(),
		Extensions: ft.Extensions(),
		Magic:      magic,
	}
}

// TypesResult is the output for the types command
type TypesResult struct {
	Types []TypeInfo `json:"types" yaml:"types"`
}

func (r *TypesResult) ToJSON() interface{} {
	return r
}

func (r *TypesResult) ToText(w io.Writer, style *util.Styler) {
	byCategory := make(map[string][]TypeInfo)
	for _, info := range r.Types {
		category := info.Category
		if category == "" {
			category = "uncategorized"
		}
		byCategory[category] = append(byCategory[category], info)
	}

	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		fmt.Fprintln(w, style.Heading(category))
		for _, info := range byCategory[category] {
			fmt.Fprintf(w, "  %-40s %s\n", info.MimeType, style.Muted(formatExtensions(info.Extensions)))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Total: %d file types\n", len(r.Types))
}

func formatExtensions(extensions []string) string {
	if len(extensions) == 0 {
		return "-"
	}
	dotted := make([]string, len(extensions))
	for i, ext := range extensions {
		dotted[i] = "." + ext
	}
	return strings.Join(dotted, " ")
}

func runTypes(cmd *cobra.Command, args []string) error {
	logger := configureLogging(cmd)

	projectConfig, err := loadProjectConfig(logger)
	if err != nil {
		return err
	}

	m, _, err := buildRegistry(signatureDirsFor(projectConfig), projectConfig, logger)
	if err != nil {
		return err
	}

	result := &TypesResult{Types: make([]TypeInfo, 0, m.Len())}
	for _, ft := range m.FileTypes() {
		if typesCategory != "" && !strings.EqualFold(ft.Category(), typesCategory) {
			continue
		}
		result.Types = append(result.Types, typeInfoOf(ft))
	}

	return OutputTo(cmd.OutOrStdout(), result, typesFormat, typesOutput, settings.NoColor)
}
