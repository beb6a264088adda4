package cmd

import (
	"fmt"
	"os"

	"github.com/petrarca/magicbytes/internal/config"
	"github.com/petrarca/magicbytes/internal/version"
	"github.com/spf13/cobra"
)

// settings starts from defaults and environment variables; flags override it
var settings = config.LoadSettings()

var rootCmd = &cobra.Command{
	Use:   "magicbytes",
	Short: "Identify files by their magic byte signatures",
	Long: `magicbytes identifies files by the leading bytes of their content rather than
by their name, and reports where the extension disagrees with the content.

The built-in table covers common archive, audio, document, executable, font,
image and video formats. Extra signature definitions can be loaded from YAML
directories with --signatures or a .magicbytes.yml file.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&settings.SignatureDirs, "signatures", settings.SignatureDirs, "Extra signature definition directories (can be specified multiple times)")
	rootCmd.PersistentFlags().BoolVar(&settings.NoColor, "no-color", settings.NoColor, "Disable colored text output")

	// Logging flags - use defaults from environment variables
	rootCmd.PersistentFlags().String("log-level", settings.LogLevel.String(), "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", settings.LogFormat, "Log format: text or json")
	rootCmd.PersistentFlags().String("log-file", settings.LogFile, "Log file path (default: stderr)")
}
