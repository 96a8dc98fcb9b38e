// Package main implements the esfix CLI.
// It modernizes legacy JavaScript sources in place, applying rewrite rules
// up to a configured capability level.
package main

import (
	"os"

	"github.com/esfix/esfix/cmd/esfix/commands"
)

var (
	version   = "dev"
	buildTime = ""
)

func main() {
	commands.RootCmd.Flags().BoolP("version", "v", false, "Print version information")
	commands.RootCmd.SetVersionTemplate(`esfix version {{.Version}}
`)
	commands.RootCmd.Version = version

	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
