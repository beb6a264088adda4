package cmd

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/petrarca/magicbytes/internal/aggregator"
	"github.com/petrarca/magicbytes/internal/config"
	"github.com/petrarca/magicbytes/internal/inspect"
	"github.com/petrarca/magicbytes/internal/metadata"
	"github.com/petrarca/magicbytes/internal/progress"
	"github.com/petrarca/magicbytes/internal/util"
	"github.com/petrarca/magicbytes/internal/version"
	"github.com/petrarca/magicbytes/pkg/mapping"
	"github.com/spf13/cobra"
)

var identifyCmd = &cobra.Command{
	Use:   "identify [paths...]",
	Short: "Identify files by their content",
	Long: `Identify reads the leading bytes of each file and matches them against the
registered signatures. It reports the detected type, what the extension alone
suggests, and whether the two agree. Files no signature matches get a
binary/text classification and a language hint.

A directory argument contributes its direct files; --recursive descends into
subdirectories and --gitignore skips what git would ignore.

Paths and options can also come from a run configuration file (YAML or JSON)
or inline JSON passed with --config. Command line flags take precedence.

Examples:
  magicbytes identify logo.png
  magicbytes identify -r ./uploads
  magicbytes identify -r --gitignore --git-info -f json .
  magicbytes identify -r --aggregate mime,mismatches ./uploads
  magicbytes identify -r --exclude "**/*.log" --exclude vendor .
  magicbytes identify --signatures ./my-signatures -f json ./data
  magicbytes identify --config run.yml
  magicbytes identify --config '{"identify": {"paths": ["."], "recursive": true}}'`,
	Args: cobra.ArbitraryArgs,
	RunE: runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)

	setupOutputFlags(identifyCmd, &settings.Format, &settings.OutputFile, settings.Format, settings.OutputFile)
	identifyCmd.Flags().BoolVarP(&settings.Recursive, "recursive", "r", settings.Recursive, "Descend into subdirectories")
	identifyCmd.Flags().BoolVar(&settings.Gitignore, "gitignore", settings.Gitignore, "Skip files ignored by .gitignore and .git/info/exclude")
	identifyCmd.Flags().BoolVar(&settings.GitInfo, "git-info", settings.GitInfo, "Record branch, commit and dirty state of the enclosing repository")
	identifyCmd.Flags().StringVar(&settings.Aggregate, "aggregate", settings.Aggregate, "Print counts instead of per-file results: "+strings.Join(aggregator.Fields, ",")+",all")
	identifyCmd.Flags().StringVar(&settings.ConfigFile, "config", settings.ConfigFile, "Run configuration file (YAML/JSON) or inline JSON")
	identifyCmd.Flags().BoolVarP(&settings.Verbose, "verbose", "v", settings.Verbose, "Show progress on stderr")
	identifyCmd.Flags().IntVar(&settings.HeaderSize, "header-size", settings.HeaderSize, "Minimum bytes read from each file (default: 512 or the longest signature)")

	// Exclude patterns - support multiple flags or comma-separated values
	identifyCmd.Flags().StringSliceVar(&settings.ExcludePatterns, "exclude", settings.ExcludePatterns, "Patterns to exclude (supports glob patterns, can be specified multiple times)")
}

// IdentifyResult is the output of the identify command
type IdentifyResult struct {
	Metadata *metadata.RunMetadata `json:"metadata" yaml:"metadata"`
	Files    []*inspect.Result     `json:"files" yaml:"files"`
	Errors   []string              `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func (r *IdentifyResult) ToJSON() interface{} {
	return r
}

func (r *IdentifyResult) ToText(w io.Writer, style *util.Styler) {
	for _, file := range r.Files {
		fmt.Fprintf(w, "%s: %s\n", file.Path, describeResult(file, style))
	}
	for _, msg := range r.Errors {
		fmt.Fprintf(w, "%s\n", style.Warn("error: "+msg))
	}

	m := r.Metadata
	fmt.Fprintf(w, "\n%d files, %d identified, %d mismatched",
		m.FileCount, m.MatchedCount, m.MismatchCount)
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, ", %d errors", len(r.Errors))
	}
	fmt.Fprintln(w)
}

func describeResult(file *inspect.Result, style *util.Styler) string {
	if file.Matched {
		text := style.Match(file.MimeType)
		if file.Name != "" {
			text += " (" + file.Name + ")"
		}
		if file.Mismatch() {
			suggested := file.ExtensionMime
			if suggested == "" {
				suggested = "unregistered"
			}
			text += " " + style.Warn(fmt.Sprintf("[extension .%s suggests %s]", file.Extension, suggested))
		}
		return text
	}

	var parts []string
	if file.Binary {
		parts = append(parts, "binary")
	} else {
		parts = append(parts, "text")
	}
	if file.Language != "" {
		parts = append(parts, file.Language)
	}
	if file.ExtensionMime != "" {
		parts = append(parts, "extension suggests "+file.ExtensionMime)
	}
	return style.Muted("no signature match, " + strings.Join(parts, ", "))
}

// identifyOptions carries everything identifyPaths needs besides the paths
type identifyOptions struct {
	Project       *config.ProjectConfig
	SignatureDirs []string
	Excludes      []string
	Recursive     bool
	Gitignore     bool
	GitInfo       bool
	HeaderSize    int
}

func runIdentify(cmd *cobra.Command, args []string) error {
	logger := configureLogging(cmd)

	runConfig, err := config.LoadRunConfig(settings.ConfigFile)
	if err != nil {
		return err
	}
	runConfig.MergeWithSettings(settings, cmd.Flags().Changed)
	if len(args) == 0 {
		args = runConfig.GetPaths()
	}
	if len(args) == 0 {
		return fmt.Errorf("requires at least 1 path argument or paths in --config")
	}

	// Handle special case: -o - means stdout
	if settings.OutputFile == "-" {
		settings.OutputFile = ""
	}

	projectConfig, err := loadProjectConfig(logger)
	if err != nil {
		return err
	}

	if settings.HeaderSize == 0 {
		settings.HeaderSize = projectConfig.HeaderSize
	}
	if projectConfig.Gitignore && !cmd.Flags().Changed("gitignore") {
		settings.Gitignore = true
	}

	opts := identifyOptions{
		Project:       projectConfig,
		SignatureDirs: signatureDirsFor(projectConfig),
		Excludes:      projectConfig.MergeExcludes(trimPatterns(settings.ExcludePatterns)),
		Recursive:     settings.Recursive,
		Gitignore:     settings.Gitignore,
		GitInfo:       settings.GitInfo,
		HeaderSize:    settings.HeaderSize,
	}
	settings.SignatureDirs = opts.SignatureDirs
	settings.ExcludePatterns = opts.Excludes

	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	var aggregateFields []string
	if settings.Aggregate != "" {
		if aggregateFields, err = aggregator.ParseFields(settings.Aggregate); err != nil {
			return err
		}
	}

	reporter := progress.New(settings.Verbose, progress.NewSimpleHandler(os.Stderr))

	result, runErr := identifyPaths(args, opts, reporter, logger)
	if result == nil {
		return runErr
	}

	if settings.OutputFile != "" {
		reporter.FileWriting(settings.OutputFile)
	}
	var output Outputter = result
	if aggregateFields != nil {
		output = &AggregateResult{aggregator.NewAggregator(aggregateFields).Aggregate(result.Metadata, result.Files, result.Errors)}
	}
	if err := OutputTo(cmd.OutOrStdout(), output, settings.Format, settings.OutputFile, settings.NoColor); err != nil {
		return err
	}
	if settings.OutputFile != "" {
		reporter.FileWritten(settings.OutputFile)
	}

	return runErr
}

// identifyPaths builds the registry and inspects every file under paths.
// Per-file failures are collected into the result and returned together; a
// nil result means the run could not start.
func identifyPaths(paths []string, opts identifyOptions, reporter *progress.Progress, logger *slog.Logger) (*IdentifyResult, error) {
	m, sources, err := buildRegistry(opts.SignatureDirs, opts.Project, logger)
	if err != nil {
		return nil, err
	}
	return identifyWith(m, sources, paths, opts, reporter, logger)
}

func identifyWith(m *mapping.Mapping, sources []string, paths []string, opts identifyOptions, reporter *progress.Progress, logger *slog.Logger) (*IdentifyResult, error) {
	inspector := inspect.New(m,
		inspect.WithSampleSize(opts.HeaderSize),
		inspect.WithLogger(logger))

	meta := metadata.NewRunMetadata(paths, version.FormatVersion, version.Version)
	meta.Recursive = opts.Recursive
	meta.Gitignore = opts.Gitignore
	meta.Excludes = opts.Excludes
	meta.Signatures = opts.SignatureDirs

	meta.SetRegistry(m.Len(), inspector.HeaderSize())
	if opts.GitInfo {
		meta.SetGit(true)
	}

	reporter.RunStart(paths, opts.Excludes)
	reporter.RegistryLoaded(m.Len(), sources)

	result := &IdentifyResult{
		Metadata: meta,
		Files:    make([]*inspect.Result, 0),
	}

	var errs *multierror.Error
	matched, mismatched := 0, 0

	walker := inspect.NewWalker(
		inspect.WithRecursion(opts.Recursive),
		inspect.WithGitignore(opts.Gitignore),
		inspect.WithExcludePatterns(opts.Excludes),
		inspect.WithWalkerLogger(logger),
		inspect.WithSkipHandler(func(path string, reason inspect.SkipReason) {
			meta.SkippedCount++
			reporter.Skipped(path, string(reason))
		}),
	)

	visit := func(path string, _ fs.FileInfo) error {
		file, err := inspector.InspectFile(path)
		if err != nil {
			logger.Warn("Failed to inspect file", "path", path, "error", err)
			errs = multierror.Append(errs, err)
			return nil
		}

		result.Files = append(result.Files, file)
		switch {
		case file.Matched:
			matched++
			reporter.FileIdentified(path, file.MimeType)
			if file.Mismatch() {
				mismatched++
				reporter.Mismatch(path, file.MimeType, file.ExtensionMime)
			}
		default:
			reporter.FileUnmatched(path, file.Language)
		}
		return nil
	}

	// Arguments are walked separately and their errors collected
	for _, path := range paths {
		if err := walker.Walk([]string{path}, visit); err != nil {
			logger.Warn("Failed to walk path", "path", path, "error", err)
			errs = multierror.Append(errs, err)
		}
	}

	meta.SetCounts(len(result.Files), matched, mismatched)
	meta.SetDuration(reporter.RunComplete(len(result.Files), matched))

	if errs != nil {
		for _, err := range errs.Errors {
			result.Errors = append(result.Errors, err.Error())
		}
	}
	return result, errs.ErrorOrNil()
}

// trimPatterns trims whitespace around each pattern and drops empty ones
func trimPatterns(patterns []string) []string {
	trimmed := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if pattern = strings.TrimSpace(pattern); pattern != "" {
			trimmed = append(trimmed, pattern)
		}
	}
	return trimmed
}
