package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/petrarca/magicbytes/internal/util"
	"gopkg.in/yaml.v3"
)

// RunConfigFile is an external identify run description, passed with --config
type RunConfigFile struct {
	Identify RunConfigSection `yaml:"identify" json:"identify"`
}

// RunConfigSection holds the identify options a run file can set
type RunConfigSection struct {
	// What to identify
	Paths []string `yaml:"paths,omitempty" json:"paths,omitempty"`

	// Output configuration
	Output RunOutputConfig `yaml:"output,omitempty" json:"output,omitempty"`

	// Walking
	Recursive bool     `yaml:"recursive,omitempty" json:"recursive,omitempty"`
	Gitignore bool     `yaml:"gitignore,omitempty" json:"gitignore,omitempty"`
	Exclude   []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`

	// Registry
	Signatures []string `yaml:"signatures,omitempty" json:"signatures,omitempty"`
	HeaderSize int      `yaml:"header_size,omitempty" json:"header_size,omitempty"`

	GitInfo bool `yaml:"git_info,omitempty" json:"git_info,omitempty"`
	Verbose bool `yaml:"verbose,omitempty" json:"verbose,omitempty"`
}

// RunOutputConfig defines output settings
type RunOutputConfig struct {
	File      string `yaml:"file,omitempty" json:"file,omitempty"`
	Format    string `yaml:"format,omitempty" json:"format,omitempty"`
	Aggregate string `yaml:"aggregate,omitempty" json:"aggregate,omitempty"`
}

// LoadRunConfig loads a run configuration from a file path or inline JSON.
// An empty argument yields nil.
func LoadRunConfig(configPath string) (*RunConfigFile, error) {
	if configPath == "" {
		return nil, nil
	}

	// Inline JSON starts with {
	if strings.HasPrefix(strings.TrimSpace(configPath), "{") {
		return loadRunConfigFromJSON(configPath)
	}

	return loadRunConfigFromFile(configPath)
}

// loadRunConfigFromFile loads configuration from a YAML or JSON file
func loadRunConfigFromFile(configPath string) (*RunConfigFile, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config RunConfigFile

	// Try YAML first (most common)
	if err := yaml.Unmarshal(data, &config); err != nil {
		// Fallback to JSON
		if jsonErr := json.Unmarshal(data, &config); jsonErr != nil {
			return nil, fmt.Errorf("failed to parse config as YAML (%v) or JSON (%v)", err, jsonErr)
		}
	}

	return &config, nil
}

// loadRunConfigFromJSON loads configuration from an inline JSON string
func loadRunConfigFromJSON(jsonStr string) (*RunConfigFile, error) {
	var config RunConfigFile
	if err := json.Unmarshal([]byte(jsonStr), &config); err != nil {
		return nil, fmt.Errorf("failed to parse inline JSON config: %w", err)
	}
	return &config, nil
}

// MergeWithSettings copies run config values into settings. Flags reported
// by changed were set on the command line and keep their value.
func (c *RunConfigFile) MergeWithSettings(settings *Settings, changed func(flag string) bool) {
	if c == nil || settings == nil {
		return
	}
	if changed == nil {
		changed = func(string) bool { return false }
	}
	run := c.Identify

	if run.Output.File != "" && !changed("output") {
		settings.OutputFile = run.Output.File
	}
	if run.Output.Format != "" && !changed("format") {
		settings.Format = util.NormalizeFormat(run.Output.Format)
	}
	if run.Output.Aggregate != "" && !changed("aggregate") {
		settings.Aggregate = run.Output.Aggregate
	}
	if run.Recursive && !changed("recursive") {
		settings.Recursive = true
	}
	if run.Gitignore && !changed("gitignore") {
		settings.Gitignore = true
	}
	if run.GitInfo && !changed("git-info") {
		settings.GitInfo = true
	}
	if run.Verbose && !changed("verbose") {
		settings.Verbose = true
	}
	if run.HeaderSize > 0 && !changed("header-size") {
		settings.HeaderSize = run.HeaderSize
	}

	// Lists extend what the command line gave
	settings.ExcludePatterns = appendMissing(settings.ExcludePatterns, run.Exclude)
	settings.SignatureDirs = appendMissing(settings.SignatureDirs, run.Signatures)
}

// GetPaths returns the configured paths, or nil when none are set
func (c *RunConfigFile) GetPaths() []string {
	if c == nil {
		return nil
	}
	return c.Identify.Paths
}

func appendMissing(list, extra []string) []string {
	seen := make(map[string]bool, len(list))
	for _, item := range list {
		seen[item] = true
	}
	for _, item := range extra {
		if !seen[item] {
			seen[item] = true
			list = append(list, item)
		}
	}
	return list
}
