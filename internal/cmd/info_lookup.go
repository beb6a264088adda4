package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/petrarca/magicbytes/internal/util"
	"github.com/petrarca/magicbytes/pkg/filetype"
	"github.com/petrarca/magicbytes/pkg/mapping"
	"github.com/petrarca/magicbytes/pkg/signatures"
	"github.com/spf13/cobra"
)

var (
	lookupFormat string
	lookupMime   string
	lookupExt    string
	lookupBytes  string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Look up a file type by MIME type, extension or magic bytes",
	Long: `Look up the first registered file type matching exactly one criterion.

--bytes takes hex and must equal a registered sequence exactly; a longer file
header does not match. Use "identify" for detection from file content.

Examples:
  magicbytes info lookup --mime image/png
  magicbytes info lookup --ext .jpg
  magicbytes info lookup --bytes "25 50 44 46 2D"`,
	Args: cobra.NoArgs,
	RunE: runLookup,
}

func init() {
	setupFormatFlag(lookupCmd, &lookupFormat, util.FormatText)
	lookupCmd.Flags().StringVar(&lookupMime, "mime", "", "MIME type (case-insensitive)")
	lookupCmd.Flags().StringVar(&lookupExt, "ext", "", "File extension, with or without the leading dot")
	lookupCmd.Flags().StringVar(&lookupBytes, "bytes", "", "Magic byte sequence as hex")
	lookupCmd.MarkFlagsMutuallyExclusive("mime", "ext", "bytes")
	lookupCmd.MarkFlagsOneRequired("mime", "ext", "bytes")
}

// LookupResult is the output for the lookup command
type LookupResult struct {
	Query string    `json:"query" yaml:"query"`
	Found bool      `json:"found" yaml:"found"`
	Type  *TypeInfo `json:"type,omitempty" yaml:"type,omitempty"`
}

func (r *LookupResult) ToJSON() interface{} {
	return r
}

func (r *LookupResult) ToText(w io.Writer, style *util.Styler) {
	if !r.Found {
		fmt.Fprintf(w, "%s: %s\n", r.Query, style.Muted("no match"))
		return
	}

	t := r.Type
	fmt.Fprintf(w, "%s: %s\n", r.Query, style.Match(t.MimeType))
	if t.Name != "" {
		fmt.Fprintf(w, "  name:       %s\n", t.Name)
	}
	if t.Category != "" {
		fmt.Fprintf(w, "  category:   %s\n", t.Category)
	}
	fmt.Fprintf(w, "  extensions: %s\n", formatExtensions(t.Extensions))
	for _, magic := range t.Magic {
		fmt.Fprintf(w, "  magic:      %s\n", magic)
	}
}

// lookupQuery runs exactly one of the three lookups against m
func lookupQuery(m *mapping.Mapping, mime, ext, hexBytes string) (*LookupResult, error) {
	var (
		ft    *filetype.FileType
		err   error
		query string
	)

	switch {
	case mime != "":
		query = "mime " + mime
		ft, err = m.FindByMimeType(mime)
	case ext != "":
		query = "extension " + ext
		key := filetype.NormalizeExtension(ext)
		if key == "" {
			key = ext
		}
		ft, err = m.FindByExtension(key)
	default:
		query = "bytes " + hexBytes
		sequence, parseErr := signatures.ParseHex(hexBytes)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid --bytes: %w", parseErr)
		}
		ft, err = m.FindByMagicByteSequence(sequence)
	}

	if err != nil {
		if errors.Is(err, filetype.ErrArgumentEmpty) {
			return nil, fmt.Errorf("lookup value must not be empty: %w", err)
		}
		return nil, err
	}

	result := &LookupResult{Query: query, Found: ft != nil}
	if ft != nil {
		info := typeInfoOf(ft)
		result.Type = &info
	}
	return result, nil
}

func runLookup(cmd *cobra.Command, args []string) error {
	logger := configureLogging(cmd)

	projectConfig, err := loadProjectConfig(logger)
	if err != nil {
		return err
	}

	m, _, err := buildRegistry(signatureDirsFor(projectConfig), projectConfig, logger)
	if err != nil {
		return err
	}

	result, err := lookupQuery(m, lookupMime, lookupExt, lookupBytes)
	if err != nil {
		return err
	}
	return OutputTo(cmd.OutOrStdout(), result, lookupFormat, "", settings.NoColor)
}
