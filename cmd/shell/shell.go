// Package shell implements an interactive query shell.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/padelt/beanquery/cmd/flags"
	"github.com/padelt/beanquery/lib/booking"
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
		Use:   "shell <ledger>",
		Short: "run an interactive query shell",
		Long:  `Read BQL statements from stdin and render each result. The commands "errors", "reload" and "exit" are handled by the shell itself.`,
		Args:  cobra.ExactArgs(1),
		Run:   r.run,
	}
	r.setupFlags(c)
	return c
}

type runner struct {
	options flags.OptionsFlag
	color   bool
}

func (r *runner) setupFlags(c *cobra.Command) {
	c.Flags().Var(&r.options, "options", "YAML file with ledger options")
	c.Flags().BoolVar(&r.color, "color", true, "print output in color")
}

func (r *runner) run(cmd *cobra.Command, args []string) {
	if err := r.execute(cmd, args); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%+v\n", err)
		os.Exit(1)
	}
}

// session holds the loaded ledger and its derived price map, rebuilt
// on reload.
type session struct {
	path   string
	ledger *ledger.Ledger
	ctx    *env.Context
}

func (s *session) load(o *flags.OptionsFlag) error {
	opts, err := o.Value()
	if err != nil {
		return err
	}
	l, err := ledger.FromPath(s.path, opts)
	if err != nil {
		return err
	}
	s.ledger = l
	s.ctx = &env.Context{
		Registry: l.Registry,
		Prices:   prices.Build(l.Directives),
	}
	return nil
}

func (r runner) execute(cmd *cobra.Command, args []string) error {
	s := &session{path: args[0]}
	if err := s.load(&r.options); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "beanquery> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "errors":
			r.printErrors(errOut, s)
			continue
		case "reload":
			if err := s.load(&r.options); err != nil {
				fmt.Fprintln(errOut, err)
				continue
			}
			fmt.Fprintf(out, "reloaded %s: %d directives\n", s.path, len(s.ledger.Directives))
			continue
		}
		if err := r.runStatement(line, s, out); err != nil {
			fmt.Fprintln(errOut, err)
		}
	}
}

func (r runner) printErrors(w io.Writer, s *session) {
	errs := multierr.Errors(multierr.Combine(
		booking.CheckOpenClose(s.ledger.Directives),
		booking.Validate(s.ledger.Directives),
	))
	if len(errs) == 0 {
		fmt.Fprintln(w, "no errors")
		return
	}
	for _, err := range errs {
		fmt.Fprintln(w, err)
	}
}

func (r runner) runStatement(line string, s *session, w io.Writer) error {
	stmt, err := bql.Parse(line)
	if err != nil {
		return err
	}
	plan, err := compile.Compile(stmt)
	if err != nil {
		return err
	}
	switch p := plan.(type) {
	case *compile.PrintQuery:
		return execute.ExecutePrint(p, s.ctx, s.ledger.Directives, w)
	case *compile.Query:
		res, err := execute.Execute(p, s.ctx, s.ledger.Directives)
		if err != nil {
			return err
		}
		return table.NewConsoleRenderer(r.color).Render(execute.Render(res), w)
	}
	return fmt.Errorf("unknown plan %T", plan)
}
