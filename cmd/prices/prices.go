// Package prices implements the prices command, which inspects the
// price map built from a ledger.
package prices

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/padelt/beanquery/cmd/flags"
	"github.com/padelt/beanquery/lib/common/table"
	"github.com/padelt/beanquery/lib/ledger"
	"github.com/padelt/beanquery/lib/prices"
)

// CreateCmd creates the command.
func CreateCmd() *cobra.Command {
	var r runner

	c := &cobra.Command{
		Use:   "prices <ledger>",
		Short: "inspect the price map",
		Long:  `Build the price map from the ledger's price directives and either dump all pairs or look up one rate.`,
		Args:  cobra.ExactArgs(1),
		Run:   r.run,
	}
	r.setupFlags(c)
	return c
}

type runner struct {
	options flags.OptionsFlag
	pair    string
	date    flags.DateFlag
	cutoff  flags.DateFlag
	color   bool
}

func (r *runner) setupFlags(c *cobra.Command) {
	c.Flags().Var(&r.options, "options", "YAML file with ledger options")
	c.Flags().StringVarP(&r.pair, "pair", "p", "", "look up a single BASE/QUOTE pair")
	c.Flags().VarP(&r.date, "date", "d", "rate date (default: latest)")
	c.Flags().Var(&r.cutoff, "cutoff", "ignore prices on or after this date")
	c.Flags().BoolVar(&r.color, "color", true, "print output in color")
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
	m := prices.BuildBefore(l.Directives, r.cutoff.Value())
	out := bufio.NewWriter(cmd.OutOrStdout())
	defer out.Flush()

	if r.pair != "" {
		pair := prices.MustPair(r.pair)
		pt, ok := m.Rate(pair, r.date.Value())
		if !ok {
			return fmt.Errorf("no rate for %s", pair)
		}
		if pt.Date.IsZero() {
			_, err = fmt.Fprintf(out, "%s %s\n", pair, pt.Rate)
		} else {
			_, err = fmt.Fprintf(out, "%s %s %s\n", pt.Date.Format("2006-01-02"), pair, pt.Rate)
		}
		return err
	}

	t := table.New(4)
	t.AddSeparatorRow()
	t.AddRow().
		AddText("pair", table.Center).
		AddText("date", table.Center).
		AddText("rate", table.Center).
		AddText("source", table.Center)
	t.AddSeparatorRow()
	for _, pair := range m.Pairs() {
		pt, ok := m.Rate(pair, r.date.Value())
		if !ok {
			continue
		}
		source := "inverse"
		if m.IsForward(pair) {
			source = "observed"
		}
		t.AddRow().
			AddText(pair.String(), table.Left).
			AddText(pt.Date.Format("2006-01-02"), table.Left).
			AddNumber(pt.Rate).
			AddText(source, table.Left)
	}
	t.AddSeparatorRow()
	return table.NewConsoleRenderer(r.color).Render(t, out)
}
