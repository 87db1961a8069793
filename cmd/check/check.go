// Package check implements the check command, which validates a
// ledger without producing a report.
package check

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/padelt/beanquery/cmd/flags"
	"github.com/padelt/beanquery/lib/booking"
	"github.com/padelt/beanquery/lib/common/predicate"
	"github.com/padelt/beanquery/lib/ledger"
	"github.com/padelt/beanquery/lib/model"
)

// CreateCmd creates the command.
func CreateCmd() *cobra.Command {
	var r runner

	c := &cobra.Command{
		Use:   "check <ledger>",
		Short: "validate a ledger",
		Long:  `Parse the ledger, check open and close directives and replay all postings against per-account inventories, reporting every violation.`,
		Args:  cobra.ExactArgs(1),
		Run:   r.run,
	}
	r.setupFlags(c)
	return c
}

type runner struct {
	options  flags.OptionsFlag
	accounts flags.RegexFlag
}

func (r *runner) setupFlags(c *cobra.Command) {
	c.Flags().Var(&r.options, "options", "YAML file with ledger options")
	c.Flags().Var(&r.accounts, "account", "report only accounts matching the regex (repeatable)")
}

func (r *runner) run(cmd *cobra.Command, args []string) {
	if err := r.execute(cmd, args); err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintln(cmd.ErrOrStderr(), e)
		}
		os.Exit(1)
	}
}

func (r runner) execute(cmd *cobra.Command, args []string) error {
	o, err := r.options.Value()
	if err != nil {
		return err
	}
	l, err := ledger.FromPath(args[0], o)
	if err != nil {
		return err
	}
	err = multierr.Combine(
		booking.CheckOpenClose(l.Directives),
		booking.Validate(l.Directives),
	)
	if err = r.filter(err); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d directives, no errors\n", args[0], len(l.Directives))
	return nil
}

// filter drops booking errors for accounts not matching the --account
// regexes. Errors without an account pass through.
func (r runner) filter(err error) error {
	pred := predicate.ByName[*model.Account](r.accounts.Value())
	var res error
	for _, e := range multierr.Errors(err) {
		var be booking.Error
		if errors.As(e, &be) && !pred(be.Account) {
			continue
		}
		res = multierr.Append(res, e)
	}
	return res
}
