package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hashicorp/go-multierror"
	"github.com/petrarca/magicbytes/internal/util"
	"github.com/petrarca/magicbytes/pkg/signatures"
	"github.com/spf13/cobra"
)

var (
	lintFormat   string
	lintExcludes []string
	lintStrict   bool
)

var lintCmd = &cobra.Command{
	Use:   "lint [dirs...]",
	Short: "Validate signature definition directories",
	Long: `Lint loads every YAML definition below the given directories and checks it
against the definition schema and the descriptor rules.

It also warns about:
  - MIME types unknown to the reference database
  - extensions that differ from the reference's canonical extension
  - magic byte sequences registered by more than one definition; only the
    first registered type is ever returned for them

Warnings do not fail the run unless --strict is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)
	setupFormatFlag(lintCmd, &lintFormat, util.FormatText)
	lintCmd.Flags().StringSliceVar(&lintExcludes, "exclude", nil, "Definition files to skip (glob patterns relative to each directory)")
	lintCmd.Flags().BoolVar(&lintStrict, "strict", false, "Treat warnings as errors")
}

// LintIssue is a single finding
type LintIssue struct {
	Source   string `json:"source" yaml:"source"`
	MimeType string `json:"mime,omitempty" yaml:"mime,omitempty"`
	Message  string `json:"message" yaml:"message"`
}

func (i LintIssue) String() string {
	if i.MimeType != "" {
		return fmt.Sprintf("%s: %s: %s", i.Source, i.MimeType, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Source, i.Message)
}

// LintResult is the output for the lint command
type LintResult struct {
	Directories []string    `json:"directories" yaml:"directories"`
	Definitions int         `json:"definitions" yaml:"definitions"`
	Errors      []LintIssue `json:"errors" yaml:"errors"`
	Warnings    []LintIssue `json:"warnings" yaml:"warnings"`
}

func (r *LintResult) ToJSON() interface{} {
	return r
}

func (r *LintResult) ToText(w io.Writer, style *util.Styler) {
	for _, issue := range r.Errors {
		fmt.Fprintf(w, "%s %s\n", style.Warn("error:"), issue)
	}
	for _, issue := range r.Warnings {
		fmt.Fprintf(w, "%s %s\n", style.Muted("warning:"), issue)
	}
	if len(r.Errors)+len(r.Warnings) > 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d definitions in %d directories: %d errors, %d warnings\n",
		r.Definitions, len(r.Directories), len(r.Errors), len(r.Warnings))
}

// Failed reports whether the run should exit non-zero
func (r *LintResult) Failed(strict bool) bool {
	return len(r.Errors) > 0 || (strict && len(r.Warnings) > 0)
}

// lintDirs checks every definition below dirs. Sequences already claimed by
// the built-in table are reported as shadowed.
func lintDirs(dirs []string, excludes []string) *LintResult {
	result := &LintResult{
		Directories: dirs,
		Errors:      make([]LintIssue, 0),
		Warnings:    make([]LintIssue, 0),
	}

	claimed := make(map[string]string)
	if builtin, err := signatures.BuiltinDefinitions(); err == nil {
		for _, def := range builtin {
			claimSequences(claimed, def)
		}
	}

	for _, dir := range dirs {
		provider := signatures.NewDirProvider(dir,
			signatures.WithExcludes(excludes...),
			signatures.WithValidation(true))

		defs, err := provider.Definitions()
		if err != nil {
			result.Errors = append(result.Errors, issuesOf(dir, err)...)
			continue
		}
		result.Definitions += len(defs)

		for _, def := range defs {
			if _, err := def.FileType(); err != nil {
				result.Errors = append(result.Errors, LintIssue{Source: dir, MimeType: def.MimeType, Message: err.Error()})
				continue
			}
			result.Warnings = append(result.Warnings, referenceWarnings(dir, def)...)
			result.Warnings = append(result.Warnings, duplicateWarnings(claimed, dir, def)...)
		}
	}

	return result
}

// issuesOf splits an aggregated provider error into one issue per file
func issuesOf(source string, err error) []LintIssue {
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		return []LintIssue{{Source: source, Message: err.Error()}}
	}

	issues := make([]LintIssue, 0, len(merr.Errors))
	for _, e := range merr.Errors {
		issues = append(issues, LintIssue{Source: source, Message: e.Error()})
	}
	return issues
}

// referenceWarnings cross-checks a definition with the mimetype database
func referenceWarnings(source string, def signatures.Definition) []LintIssue {
	reference := mimetype.Lookup(def.MimeType)
	if reference == nil {
		return []LintIssue{{
			Source:   source,
			MimeType: def.MimeType,
			Message:  "MIME type is not in the reference database",
		}}
	}

	canonical := strings.TrimPrefix(reference.Extension(), ".")
	if canonical == "" || len(def.Extensions) == 0 {
		return nil
	}
	for _, ext := range def.Extensions {
		if strings.EqualFold(strings.TrimPrefix(ext, "."), canonical) {
			return nil
		}
	}
	return []LintIssue{{
		Source:   source,
		MimeType: def.MimeType,
		Message:  fmt.Sprintf("extensions %v do not include the reference extension %q", def.Extensions, canonical),
	}}
}

// duplicateWarnings reports sequences an earlier definition already registered
func duplicateWarnings(claimed map[string]string, source string, def signatures.Definition) []LintIssue {
	sequences, err := def.Sequences()
	if err != nil {
		return nil
	}

	var issues []LintIssue
	for _, seq := range sequences {
		key := string(seq)
		if owner, ok := claimed[key]; ok && !strings.EqualFold(owner, def.MimeType) {
			issues = append(issues, LintIssue{
				Source:   source,
				MimeType: def.MimeType,
				Message:  fmt.Sprintf("magic %s is already registered by %s", signatures.FormatHex(seq), owner),
			})
			continue
		}
		if _, ok := claimed[key]; !ok {
			claimed[key] = def.MimeType
		}
	}
	return issues
}

func claimSequences(claimed map[string]string, def signatures.Definition) {
	sequences, err := def.Sequences()
	if err != nil {
		return
	}
	for _, seq := range sequences {
		if _, ok := claimed[string(seq)]; !ok {
			claimed[string(seq)] = def.MimeType
		}
	}
}

func runLint(cmd *cobra.Command, args []string) error {
	configureLogging(cmd)

	result := lintDirs(args, trimPatterns(lintExcludes))
	if err := OutputTo(cmd.OutOrStdout(), result, lintFormat, "", settings.NoColor); err != nil {
		return err
	}

	if result.Failed(lintStrict) {
		return fmt.Errorf("lint failed: %d errors, %d warnings", len(result.Errors), len(result.Warnings))
	}
	return nil
}
