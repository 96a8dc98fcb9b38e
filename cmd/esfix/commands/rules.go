package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/esfix/esfix/pkg/engine"
)

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the rewrite rules and their capability levels",
	Long: `Prints the rewrite rule catalog in application order. Rules fire in
this order within a pass, and a rule only runs when the configured level is
at or above its minimum level.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRules()
	},
}

func runRules() error {
	fmt.Printf("%-28s %s\n", "RULE", "MIN LEVEL")
	for _, rule := range engine.Catalog() {
		fmt.Printf("%-28s %s\n", rule.ID(), rule.MinLevel().String())
	}
	return nil
}

func init() {
	RootCmd.AddCommand(rulesCmd)
}
