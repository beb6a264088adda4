package util

import (
	"fmt"
	"sort"
	"strings"
)

// Output formats understood by every command
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var validOutputFormats = map[string]bool{
	FormatText: true,
	FormatJSON: true,
	FormatYAML: true,
}

// ValidateOutputFormat checks if the given format is valid (case-insensitive)
func ValidateOutputFormat(format string) error {
	if !validOutputFormats[NormalizeFormat(format)] {
		return fmt.Errorf("invalid format: %s. Valid formats are: %s", format, strings.Join(GetValidFormats(), ", "))
	}
	return nil
}

// GetValidFormats returns the supported output formats in sorted order
func GetValidFormats() []string {
	formats := make([]string, 0, len(validOutputFormats))
	for format := range validOutputFormats {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

// NormalizeFormat lowercases and trims the format string
func NormalizeFormat(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}
