package commands

import (
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "esfix",
	Short: "esfix - Modernize legacy JavaScript in place",
	Long: `esfix rewrites dated JavaScript constructs into their modern
equivalents, conservatively: a rewrite only fires when static analysis can
prove it preserves behavior.

Commands:
  fix         Rewrite JavaScript files under the given paths
  rules       List the rewrite rules and their capability levels
  init        Create a project configuration interactively

Use "esfix [command] --help" for more information about a command.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}
