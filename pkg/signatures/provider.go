package signatures

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/petrarca/magicbytes/internal/validation"
	"github.com/petrarca/magicbytes/pkg/filetype"
)

// DefinitionSchema is the embedded JSON schema every definition file must satisfy
const DefinitionSchema = "signature-definition.json"

// FSProvider loads signature definitions from a file system tree.
// Each YAML file holds one definition (or a "types" list); the parent folder
// name becomes the category unless the definition sets one.
type FSProvider struct {
	fsys     fs.FS
	root     string
	excludes []string
	validate bool
	logger   *slog.Logger
}

// ProviderOption configures an FSProvider
type ProviderOption func(*FSProvider)

// WithExcludes skips files whose path (relative to the root) or base name
// matches one of the doublestar patterns
func WithExcludes(patterns ...string) ProviderOption {
	return func(p *FSProvider) {
		p.excludes = append(p.excludes, patterns...)
	}
}

// WithValidation toggles JSON schema validation of every file before parsing
func WithValidation(enabled bool) ProviderOption {
	return func(p *FSProvider) {
		p.validate = enabled
	}
}

// WithLogger sets a logger for per-file debug output
func WithLogger(logger *slog.Logger) ProviderOption {
	return func(p *FSProvider) {
		p.logger = logger
	}
}

// NewFSProvider creates a provider reading definitions below root in fsys
func NewFSProvider(fsys fs.FS, root string, opts ...ProviderOption) *FSProvider {
	if root == "" {
		root = "."
	}
	p := &FSProvider{
		fsys: fsys,
		root: root,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewDirProvider creates a provider for an external directory.
// Schema validation is enabled unless overridden by opts.
func NewDirProvider(dir string, opts ...ProviderOption) *FSProvider {
	opts = append([]ProviderOption{WithValidation(true)}, opts...)
	return NewFSProvider(os.DirFS(dir), ".", opts...)
}

// Definitions loads all definitions in lexical path order.
// Every broken file is reported; the returned error aggregates them.
func (p *FSProvider) Definitions() ([]Definition, error) {
	var defs []Definition
	var errs *multierror.Error

	err := fs.WalkDir(p.fsys, p.root, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		// Skip files starting with _ (shared fragments, notes)
		if strings.HasPrefix(d.Name(), "_") {
			return nil
		}

		// Only load YAML files
		if !strings.HasSuffix(filePath, ".yaml") && !strings.HasSuffix(filePath, ".yml") {
			return nil
		}

		if p.isExcluded(filePath, d.Name()) {
			p.debug("Skipping excluded definition", "path", filePath)
			return nil
		}

		fileDefs, err := p.loadFile(filePath)
		if err != nil {
			errs = multierror.Append(errs, err)
			return nil
		}

		defs = append(defs, fileDefs...)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk signature definitions: %w", err)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	return defs, nil
}

// Collect loads all definitions and converts them to descriptors
func (p *FSProvider) Collect() ([]*filetype.FileType, error) {
	defs, err := p.Definitions()
	if err != nil {
		return nil, err
	}
	return ToFileTypes(defs)
}

func (p *FSProvider) loadFile(filePath string) ([]Definition, error) {
	content, err := fs.ReadFile(p.fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file %s: %w", filePath, err)
	}

	defs, err := LoadDefinitions(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse definition file %s: %w", filePath, err)
	}

	if p.validate {
		if err := validation.ValidateYAML(DefinitionSchema, content); err != nil {
			return nil, fmt.Errorf("invalid definition file %s: %w", filePath, err)
		}
	}

	category := deriveCategoryFromPath(p.relative(filePath))
	for i := range defs {
		// Derive category from folder if not specified
		if defs[i].Category == "" {
			defs[i].Category = category
		}
	}

	p.debug("Loaded definitions from file", "path", filePath, "count", len(defs))
	return defs, nil
}

// relative strips the provider root from a walked path
func (p *FSProvider) relative(filePath string) string {
	if p.root == "." || p.root == "" {
		return filePath
	}
	return strings.TrimPrefix(filePath, strings.TrimSuffix(p.root, "/")+"/")
}

func (p *FSProvider) isExcluded(filePath, name string) bool {
	rel := p.relative(filePath)
	for _, pattern := range p.excludes {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}

func (p *FSProvider) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

// deriveCategoryFromPath extracts the category from the folder name in the path
// relative to the provider root, e.g. "image/png.yaml" -> "image"; files at the
// root get no category
func deriveCategoryFromPath(filePath string) string {
	dir := path.Dir(filePath)
	if dir == "." || dir == "/" {
		return ""
	}
	return path.Base(dir)
}

// ToFileTypes converts definitions to descriptors, keeping their order
func ToFileTypes(defs []Definition) ([]*filetype.FileType, error) {
	fileTypes := make([]*filetype.FileType, 0, len(defs))
	var errs *multierror.Error

	for i := range defs {
		ft, err := defs[i].FileType()
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		fileTypes = append(fileTypes, ft)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return fileTypes, nil
}
