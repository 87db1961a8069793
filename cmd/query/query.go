// Package query implements the query command, which runs a single
// BQL statement against a ledger file.
package query

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/padelt/beanquery/cmd/flags"
	"github.com/padelt/beanquery/lib/bql"
	"github.com/padelt/beanquery/lib/bql/compile"
	"github.com/padelt/beanquery/lib/bql/env"
	"github.com/padelt/beanquery/lib/bql/execute"
	"github.com/padelt/beanquery/lib/common/table"
	"github.com/padelt/beanquery/lib/ledger"
	"github.com/padelt/beanquery/lib/prices"
)

// CreateCmd creates the command.
func CreateCmd() *cobra.Command {
	var r runner

	c := &cobra.Command{
		Use:   "query <ledger> <statement>",
		Short: "run a query",
		Long:  `Run a single BQL statement against the given ledger file and render the result.`,
		Args:  cobra.ExactArgs(2),
		Run:   r.run,
	}
	r.setupFlags(c)
	return c
}

type runner struct {
	options   flags.OptionsFlag
	csv       bool
	numberify bool
	color     bool
	output    string
}

func (r *runner) setupFlags(c *cobra.Command) {
	c.Flags().Var(&r.options, "options", "YAML file with ledger options")
	c.Flags().BoolVar(&r.csv, "csv", false, "render the result as CSV")
	c.Flags().BoolVarP(&r.numberify, "numberify", "n", false, "split amount columns into one number column per currency")
	c.Flags().BoolVar(&r.color, "color", true, "print output in color")
	c.Flags().StringVarP(&r.output, "output", "o", "", "write the result to a file instead of stdout")
}

func (r *runner) run(cmd *cobra.Command, args []string) {
	if err := r.execute(cmd, args); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%+v\n", err)
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
	stmt, err := bql.Parse(args[1])
	if err != nil {
		return err
	}
	plan, err := compile.Compile(stmt)
	if err != nil {
		return err
	}
	ctx := &env.Context{
		Registry: l.Registry,
		Prices:   prices.Build(l.Directives),
	}

	if r.output != "" {
		var buf bytes.Buffer
		if err := r.render(plan, ctx, l, &buf); err != nil {
			return err
		}
		return atomic.WriteFile(r.output, &buf)
	}
	out := bufio.NewWriter(cmd.OutOrStdout())
	defer out.Flush()
	return r.render(plan, ctx, l, out)
}

func (r runner) render(plan compile.Plan, ctx *env.Context, l *ledger.Ledger, w io.Writer) error {
	switch p := plan.(type) {
	case *compile.PrintQuery:
		return execute.ExecutePrint(p, ctx, l.Directives, w)
	case *compile.Query:
		res, err := execute.Execute(p, ctx, l.Directives)
		if err != nil {
			return err
		}
		if r.numberify {
			res = execute.Numberify(res)
		}
		t := execute.Render(res)
		if r.csv {
			return t.WriteCSV(w)
		}
		return table.NewConsoleRenderer(r.color && r.output == "").Render(t, w)
	}
	return fmt.Errorf("unknown plan %T", plan)
}
