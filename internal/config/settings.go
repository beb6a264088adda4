package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"log/slog"

	"github.com/petrarca/magicbytes/internal/util"
)

// Settings holds all CLI configuration
type Settings struct {
	// Output settings
	OutputFile string
	Format     string // "json", "yaml" or "text"
	NoColor    bool
	Aggregate  string // Comma separated aggregate fields; empty = per-file output

	// Identify behavior
	Recursive       bool
	Gitignore       bool   // Honour .gitignore files below directory arguments
	GitInfo         bool   // Record repository information in the run metadata
	ConfigFile      string // Run configuration file or inline JSON
	ExcludePatterns []string
	SignatureDirs   []string // Extra signature definition directories
	HeaderSize      int      // Bytes read from each file; 0 = longest registered signature
	Verbose         bool

	// Logging
	LogLevel  slog.Level
	LogFormat string // "text" or "json"
	LogFile   string // Optional: write logs to file instead of stderr
}

// DefaultSettings returns default configuration
func DefaultSettings() *Settings {
	return &Settings{
		OutputFile:      "", // Empty = stdout
		Format:          "text",
		NoColor:         false,
		Aggregate:       "",
		Recursive:       false,
		Gitignore:       false,
		GitInfo:         false,
		ConfigFile:      "",
		ExcludePatterns: []string{},
		SignatureDirs:   []string{},
		HeaderSize:      0,
		Verbose:         false,
		LogLevel:        slog.LevelError, // Only errors by default
		LogFormat:       "text",
		LogFile:         "", // Empty = stderr
	}
}

// LoadSettings creates settings from defaults and applies environment variable overrides
func LoadSettings() *Settings {
	settings := DefaultSettings()

	if outputFile := os.Getenv("MAGICBYTES_OUTPUT"); outputFile != "" {
		settings.OutputFile = outputFile
	}

	if format := os.Getenv("MAGICBYTES_FORMAT"); format != "" {
		settings.Format = util.NormalizeFormat(format)
	}

	if noColor := os.Getenv("MAGICBYTES_NO_COLOR"); noColor != "" {
		settings.NoColor = strings.ToLower(noColor) == "true"
	}

	if aggregate := os.Getenv("MAGICBYTES_AGGREGATE"); aggregate != "" {
		settings.Aggregate = aggregate
	}

	if recursive := os.Getenv("MAGICBYTES_RECURSIVE"); recursive != "" {
		settings.Recursive = strings.ToLower(recursive) == "true"
	}

	if gitignore := os.Getenv("MAGICBYTES_GITIGNORE"); gitignore != "" {
		settings.Gitignore = strings.ToLower(gitignore) == "true"
	}

	if gitInfo := os.Getenv("MAGICBYTES_GIT_INFO"); gitInfo != "" {
		settings.GitInfo = strings.ToLower(gitInfo) == "true"
	}

	if configFile := os.Getenv("MAGICBYTES_CONFIG"); configFile != "" {
		settings.ConfigFile = configFile
	}

	if excludePatterns := os.Getenv("MAGICBYTES_EXCLUDE"); excludePatterns != "" {
		settings.ExcludePatterns = splitList(excludePatterns)
	}

	if signatureDirs := os.Getenv("MAGICBYTES_SIGNATURES"); signatureDirs != "" {
		settings.SignatureDirs = splitList(signatureDirs)
	}

	if verbose := os.Getenv("MAGICBYTES_VERBOSE"); verbose != "" {
		settings.Verbose = strings.ToLower(verbose) == "true"
	}

	// Logging settings
	if logLevel := os.Getenv("MAGICBYTES_LOG_LEVEL"); logLevel != "" {
		if level, err := ParseLogLevel(logLevel); err == nil {
			settings.LogLevel = level
		}
	}

	if logFormat := os.Getenv("MAGICBYTES_LOG_FORMAT"); logFormat != "" {
		settings.LogFormat = logFormat
	}

	if logFile := os.Getenv("MAGICBYTES_LOG_FILE"); logFile != "" {
		settings.LogFile = logFile
	}

	return settings
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// ParseLogLevel converts string log level to slog.Level
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "fatal":
		return slog.LevelError, nil // slog doesn't have fatal, use error
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// ConfigureLogger sets up the logger based on settings
func (s *Settings) ConfigureLogger() *slog.Logger {
	var handler slog.Handler

	var output io.Writer = os.Stderr
	if s.LogFile != "" {
		file, err := os.OpenFile(s.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			// Fallback to stderr if file can't be opened
			fmt.Fprintf(os.Stderr, "Warning: Cannot open log file %s: %v\n", s.LogFile, err)
		} else {
			output = file
		}
	}

	opts := &slog.HandlerOptions{
		Level: s.LogLevel,
	}

	if s.LogFormat == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}

// Validate checks if settings are valid
func (s *Settings) Validate() error {
	if err := util.ValidateOutputFormat(s.Format); err != nil {
		return err
	}

	if s.LogFormat != "text" && s.LogFormat != "json" {
		return fmt.Errorf("invalid log format: %s. Valid formats are: text, json", s.LogFormat)
	}

	if s.HeaderSize < 0 {
		return fmt.Errorf("header size must not be negative: %d", s.HeaderSize)
	}

	for _, dir := range s.SignatureDirs {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("signature directory %s: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("signature directory %s is not a directory", dir)
		}
	}

	return nil
}
