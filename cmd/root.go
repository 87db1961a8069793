// Package cmd is the main command file for Cobra
package cmd

import (
	"fmt"
	"os"

	"github.com/padelt/beanquery/cmd/check"
	"github.com/padelt/beanquery/cmd/prices"
	"github.com/padelt/beanquery/cmd/query"
	"github.com/padelt/beanquery/cmd/shell"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "beanquery",
	Short: "beanquery runs queries over plain text ledgers",
	Long:  `beanquery loads a plain text ledger and runs BQL queries over its directives: filtering, grouping, aggregation and currency conversion.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(query.CreateCmd())
	rootCmd.AddCommand(shell.CreateCmd())
	rootCmd.AddCommand(check.CreateCmd())
	rootCmd.AddCommand(prices.CreateCmd())
}
