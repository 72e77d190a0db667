// Package cmd provides the command-line interface for ooopipe.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ooopipe",
	Short: "ooopipe runs programs on an out-of-order superscalar pipeline simulator.",
	Long: `ooopipe assembles and runs programs against a cycle-accurate ` +
		`out-of-order pipeline model: register renaming, reservation ` +
		`stations, a reorder buffer, a store buffer, and static branch ` +
		`prediction with flush-on-misprediction recovery.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
