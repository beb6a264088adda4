package config

import (
	"os"
	"path/filepath"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()

	assert.Equal(t, "", settings.OutputFile, "OutputFile should be empty (stdout) by default")
	assert.Equal(t, "text", settings.Format, "Format should be text by default")
	assert.False(t, settings.Recursive)
	assert.Empty(t, settings.ExcludePatterns, "ExcludePatterns should be empty by default")
	assert.Empty(t, settings.SignatureDirs)
	assert.Equal(t, 0, settings.HeaderSize)
	assert.Equal(t, slog.LevelError, settings.LogLevel, "LogLevel should be Error by default")
	assert.Equal(t, "text", settings.LogFormat, "LogFormat should be text by default")
}

func TestLoadSettings_WithDefaults(t *testing.T) {
	clearEnvVars(t)

	settings := LoadSettings()

	assert.Equal(t, DefaultSettings(), settings)
}

func TestLoadSettings_WithEnvironmentVariables(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("MAGICBYTES_OUTPUT", "/tmp/result.json")
	t.Setenv("MAGICBYTES_FORMAT", "JSON")
	t.Setenv("MAGICBYTES_RECURSIVE", "true")
	t.Setenv("MAGICBYTES_GITIGNORE", "true")
	t.Setenv("MAGICBYTES_AGGREGATE", "mime,languages")
	t.Setenv("MAGICBYTES_GIT_INFO", "True")
	t.Setenv("MAGICBYTES_CONFIG", "run.yml")
	t.Setenv("MAGICBYTES_EXCLUDE", "vendor,node_modules,**/*.log")
	t.Setenv("MAGICBYTES_SIGNATURES", "sigs, more-sigs")
	t.Setenv("MAGICBYTES_VERBOSE", "TRUE")
	t.Setenv("MAGICBYTES_NO_COLOR", "true")
	t.Setenv("MAGICBYTES_LOG_LEVEL", "debug")
	t.Setenv("MAGICBYTES_LOG_FORMAT", "json")
	t.Setenv("MAGICBYTES_LOG_FILE", "/tmp/magicbytes.log")

	settings := LoadSettings()

	assert.Equal(t, "/tmp/result.json", settings.OutputFile)
	assert.Equal(t, "json", settings.Format)
	assert.True(t, settings.Recursive)
	assert.True(t, settings.Gitignore)
	assert.Equal(t, "mime,languages", settings.Aggregate)
	assert.True(t, settings.GitInfo)
	assert.Equal(t, "run.yml", settings.ConfigFile)
	assert.Equal(t, []string{"vendor", "node_modules", "**/*.log"}, settings.ExcludePatterns)
	assert.Equal(t, []string{"sigs", "more-sigs"}, settings.SignatureDirs)
	assert.True(t, settings.Verbose)
	assert.True(t, settings.NoColor)
	assert.Equal(t, slog.LevelDebug, settings.LogLevel)
	assert.Equal(t, "json", settings.LogFormat)
	assert.Equal(t, "/tmp/magicbytes.log", settings.LogFile)
}

func TestLoadSettings_InvalidLogLevel(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("MAGICBYTES_LOG_LEVEL", "invalid")

	settings := LoadSettings()

	assert.Equal(t, slog.LevelError, settings.LogLevel, "Should use default log level for invalid input")
}

func TestLoadSettings_BooleanParsing(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected bool
	}{
		{"true lowercase", "true", true},
		{"true uppercase", "TRUE", true},
		{"false lowercase", "false", false},
		{"invalid value", "maybe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(t)
			t.Setenv("MAGICBYTES_RECURSIVE", tt.envValue)

			settings := LoadSettings()
			assert.Equal(t, tt.expected, settings.Recursive)
		})
	}
}

func TestLoadSettings_ExcludePatternsParsing(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected []string
	}{
		{"single pattern", "vendor", []string{"vendor"}},
		{"multiple patterns", "vendor,node_modules", []string{"vendor", "node_modules"}},
		{"with spaces", "vendor , node_modules , build", []string{"vendor", "node_modules", "build"}},
		{"only commas", ",,,", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(t)
			t.Setenv("MAGICBYTES_EXCLUDE", tt.envValue)

			settings := LoadSettings()
			assert.Equal(t, tt.expected, settings.ExcludePatterns)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
		wantErr  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"fatal", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLogLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestConfigureLogger(t *testing.T) {
	for _, format := range []string{"text", "json", "invalid"} {
		t.Run(format, func(t *testing.T) {
			settings := &Settings{LogLevel: slog.LevelDebug, LogFormat: format}
			assert.NotNil(t, settings.ConfigureLogger())
		})
	}
}

func TestConfigureLogger_LogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "magicbytes.log")
	settings := &Settings{LogLevel: slog.LevelInfo, LogFormat: "text", LogFile: logFile}

	logger := settings.ConfigureLogger()
	logger.Info("hello", "key", "value")

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "hello")
	assert.Contains(t, string(content), "key=value")
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	tests := []struct {
		name    string
		modify  func(*Settings)
		wantErr string
	}{
		{"defaults", func(s *Settings) {}, ""},
		{"invalid format", func(s *Settings) { s.Format = "xml" }, "invalid format"},
		{"invalid log format", func(s *Settings) { s.LogFormat = "logfmt" }, "invalid log format"},
		{"negative header size", func(s *Settings) { s.HeaderSize = -1 }, "must not be negative"},
		{"existing signature dir", func(s *Settings) { s.SignatureDirs = []string{dir} }, ""},
		{"missing signature dir", func(s *Settings) { s.SignatureDirs = []string{filepath.Join(dir, "nope")} }, "signature directory"},
		{"signature dir is a file", func(s *Settings) { s.SignatureDirs = []string{file} }, "is not a directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings()
			tt.modify(settings)

			err := settings.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// clearEnvVars unsets all MAGICBYTES_* variables for the duration of the test
func clearEnvVars(t *testing.T) {
	t.Helper()
	envVars := []string{
		"MAGICBYTES_OUTPUT",
		"MAGICBYTES_FORMAT",
		"MAGICBYTES_NO_COLOR",
		"MAGICBYTES_RECURSIVE",
		"MAGICBYTES_AGGREGATE",
		"MAGICBYTES_GITIGNORE",
		"MAGICBYTES_GIT_INFO",
		"MAGICBYTES_CONFIG",
		"MAGICBYTES_EXCLUDE",
		"MAGICBYTES_SIGNATURES",
		"MAGICBYTES_VERBOSE",
		"MAGICBYTES_LOG_LEVEL",
		"MAGICBYTES_LOG_FORMAT",
		"MAGICBYTES_LOG_FILE",
	}

	for _, envVar := range envVars {
		// t.Setenv restores the previous value after the test
		t.Setenv(envVar, "")
		os.Unsetenv(envVar)
	}
}
