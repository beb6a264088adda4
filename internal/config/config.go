package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/petrarca/magicbytes/internal/validation"
	"github.com/petrarca/magicbytes/pkg/signatures"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is looked up in the directory passed to LoadConfig
const ConfigFileName = ".magicbytes.yml"

// ProjectConfig represents the .magicbytes.yml configuration file
type ProjectConfig struct {
	Signatures []string                `yaml:"signatures,omitempty"`  // Extra definition directories
	Exclude    []string                `yaml:"exclude,omitempty"`     // Glob patterns
	HeaderSize int                     `yaml:"header_size,omitempty"` // Bytes read per file
	Gitignore  bool                    `yaml:"gitignore,omitempty"`   // Honour .gitignore files
	Types      []signatures.Definition `yaml:"types,omitempty"`       // Inline definitions

	dir string // Directory the file was loaded from
}

// LoadConfig attempts to load .magicbytes.yml from dir.
// Returns an empty config if the file doesn't exist (not an error).
func LoadConfig(dir string) (*ProjectConfig, error) {
	configPath := filepath.Join(dir, ConfigFileName)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &ProjectConfig{dir: dir}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateYAML("magicbytes-yml.json", data); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", configPath, err)
	}

	var config ProjectConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}
	config.dir = dir

	return &config, nil
}

// SignatureDirs returns the configured signature directories resolved against
// the directory holding the config file
func (c *ProjectConfig) SignatureDirs() []string {
	if c == nil {
		return nil
	}

	dirs := make([]string, 0, len(c.Signatures))
	for _, dir := range c.Signatures {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(c.dir, dir)
		}
		dirs = append(dirs, dir)
	}
	return dirs
}

// InlineTypes returns a provider for the inline definitions
func (c *ProjectConfig) InlineTypes() *signatures.DefinitionProvider {
	if c == nil {
		return signatures.FromDefinitions(nil)
	}
	return signatures.FromDefinitions(c.Types)
}

// MergeExcludes merges config excludes with CLI excludes, keeping first-seen order
func (c *ProjectConfig) MergeExcludes(cliExcludes []string) []string {
	if c == nil {
		return cliExcludes
	}

	seen := make(map[string]bool)
	result := make([]string, 0, len(c.Exclude)+len(cliExcludes))

	for _, list := range [][]string{c.Exclude, cliExcludes} {
		for _, exclude := range list {
			if seen[exclude] {
				continue
			}
			seen[exclude] = true
			result = append(result, exclude)
		}
	}

	return result
}
