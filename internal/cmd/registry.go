package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/petrarca/magicbytes/internal/config"
	"github.com/petrarca/magicbytes/pkg/mapping"
	"github.com/petrarca/magicbytes/pkg/signatures"
	"github.com/spf13/cobra"
)

// configureLogging sets up logging based on command flags
func configureLogging(cmd *cobra.Command) *slog.Logger {
	logLevel, _ := cmd.Flags().GetString("log-level")
	logFormat, _ := cmd.Flags().GetString("log-format")
	logFile, _ := cmd.Flags().GetString("log-file")

	if level, err := config.ParseLogLevel(logLevel); err == nil {
		settings.LogLevel = level
	}
	settings.LogFormat = logFormat
	settings.LogFile = logFile

	logger := settings.ConfigureLogger()
	slog.SetDefault(logger)
	return logger
}

// loadProjectConfig reads .magicbytes.yml from the working directory
func loadProjectConfig(logger *slog.Logger) (*config.ProjectConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	projectConfig, err := config.LoadConfig(cwd)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded project config",
		"dir", cwd,
		"signatures", projectConfig.Signatures,
		"exclude", projectConfig.Exclude,
		"inline_types", len(projectConfig.Types))
	return projectConfig, nil
}

// registrySource is one collector feeding the registry, named for reporting
type registrySource struct {
	name      string
	collector mapping.Collector
}

// buildRegistry seeds a mapping with the built-in table, then registers the
// given signature directories and the project's inline types in that order.
// Earlier sources win on lookups.
func buildRegistry(signatureDirs []string, projectConfig *config.ProjectConfig, logger *slog.Logger) (*mapping.Mapping, []string, error) {
	m, err := mapping.NewDefault()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load built-in signatures: %w", err)
	}

	sources := make([]registrySource, 0, len(signatureDirs)+1)
	for _, dir := range signatureDirs {
		sources = append(sources, registrySource{
			name:      dir,
			collector: signatures.NewDirProvider(dir, signatures.WithLogger(logger)),
		})
	}
	if projectConfig != nil && len(projectConfig.Types) > 0 {
		sources = append(sources, registrySource{
			name:      config.ConfigFileName,
			collector: projectConfig.InlineTypes(),
		})
	}

	names := []string{"builtin"}
	for _, source := range sources {
		before := m.Len()
		if err := m.RegisterFrom(source.collector); err != nil {
			return nil, nil, fmt.Errorf("signatures from %s: %w", source.name, err)
		}
		logger.Debug("Registered signatures", "source", source.name, "count", m.Len()-before)
		names = append(names, source.name)
	}

	return m, names, nil
}

// signatureDirsFor merges the flag/env directories with those from the project config
func signatureDirsFor(projectConfig *config.ProjectConfig) []string {
	dirs := append([]string{}, settings.SignatureDirs...)
	return append(dirs, projectConfig.SignatureDirs()...)
}
