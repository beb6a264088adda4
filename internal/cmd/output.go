package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/petrarca/magicbytes/internal/util"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Outputter interface for commands with structured output
type Outputter interface {
	// ToJSON returns the data structure for JSON/YAML marshaling
	ToJSON() interface{}
	// ToText writes human-readable text format
	ToText(w io.Writer, style *util.Styler)
}

// Render marshals o in the given format. Text is styled only when w is a terminal.
func Render(o Outputter, format string, w io.Writer, noColor bool) ([]byte, error) {
	switch util.NormalizeFormat(format) {
	case util.FormatJSON:
		data, err := json.MarshalIndent(o.ToJSON(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return append(data, '\n'), nil
	case util.FormatYAML:
		data, err := yaml.Marshal(o.ToJSON())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return data, nil
	default: // text
		var buf bytes.Buffer
		o.ToText(&buf, util.NewStyler(w, noColor))
		return buf.Bytes(), nil
	}
}

// OutputTo writes o to outputFile, or to w when outputFile is empty or "-"
func OutputTo(w io.Writer, o Outputter, format, outputFile string, noColor bool) error {
	toFile := outputFile != "" && outputFile != "-"

	target := w
	if toFile {
		// Files never get terminal styling
		target = io.Discard
	}

	data, err := Render(o, format, target, noColor)
	if err != nil {
		return err
	}

	if !toFile {
		_, err = w.Write(data)
		return err
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Results written to %s\n", outputFile)
	return nil
}

// setupFormatFlag configures format flag and validation for a command
func setupFormatFlag(cmd *cobra.Command, formatPtr *string, defaultFormat string) {
	cmd.Flags().StringVarP(formatPtr, "format", "f", defaultFormat, "Output format: json, yaml, or text")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		*formatPtr = util.NormalizeFormat(*formatPtr)
		return util.ValidateOutputFormat(*formatPtr)
	}
}

// setupOutputFlags configures both format and output flags for a command
func setupOutputFlags(cmd *cobra.Command, formatPtr *string, outputPtr *string, defaultFormat, defaultOutput string) {
	setupFormatFlag(cmd, formatPtr, defaultFormat)
	cmd.Flags().StringVarP(outputPtr, "output", "o", defaultOutput, "Output file path (default: stdout)")
}
