package cmd

import (
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display information about registered file types",
	Long:  `List the registered file types and look them up by MIME type, extension or exact magic byte sequence.`,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.AddCommand(typesCmd)
	infoCmd.AddCommand(lookupCmd)
}
