package ledger

import (
	"fmt"
	"io"
	"strings"

	"github.com/padelt/beanquery/lib/model"
)

// Printer prints directives as ledger text.
type Printer struct {
	Padding int
}

// NewPrinter creates a new printer.
func NewPrinter() *Printer {
	return &Printer{Padding: 40}
}

// PrintDirective prints a directive to the given writer.
func (p Printer) PrintDirective(w io.Writer, directive model.Directive) error {
	switch d := directive.(type) {
	case *model.Open:
		return p.printOpen(w, d)
	case *model.Close:
		return p.printClose(w, d)
	case *model.Transaction:
		return p.printTransaction(w, d)
	case *model.Price:
		return p.printPrice(w, d)
	case *model.Balance:
		return p.printBalance(w, d)
	case *model.Document:
		return p.printDocument(w, d)
	case *model.Note:
		return p.printNote(w, d)
	}
	return fmt.Errorf("unknown directive: %v", directive)
}

// PrintLedger prints all directives of the ledger, separated by
// blank lines.
func (p Printer) PrintLedger(w io.Writer, l *Ledger) error {
	for i, d := range l.Directives {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := p.PrintDirective(w, d); err != nil {
			return err
		}
	}
	return nil
}

// Sprint renders a directive to a string.
func (p Printer) Sprint(directive model.Directive) string {
	var b strings.Builder
	if err := p.PrintDirective(&b, directive); err != nil {
		return err.Error()
	}
	return b.String()
}

func (p Printer) printOpen(w io.Writer, o *model.Open) error {
	if _, err := fmt.Fprintf(w, "%s open %s", o.Date.Format("2006-01-02"), o.Account); err != nil {
		return err
	}
	for i, c := range o.Currencies {
		sep := " "
		if i > 0 {
			sep = ","
		}
		if _, err := fmt.Fprintf(w, "%s%s", sep, c.Name()); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func (p Printer) printClose(w io.Writer, c *model.Close) error {
	_, err := fmt.Fprintf(w, "%s close %s\n", c.Date.Format("2006-01-02"), c.Account)
	return err
}

func (p Printer) printTransaction(w io.Writer, t *model.Transaction) error {
	if _, err := fmt.Fprintf(w, "%s %s %q", t.Date.Format("2006-01-02"), t.Flag, t.Description); err != nil {
		return err
	}
	for _, tag := range t.Tags {
		if _, err := fmt.Fprintf(w, " #%s", tag); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	for _, posting := range t.Postings {
		if err := p.printPosting(w, posting); err != nil {
			return err
		}
	}
	return nil
}

func (p Printer) printPosting(w io.Writer, posting *model.Posting) error {
	if _, err := fmt.Fprintf(w, "  %s %s", p.rightPad(posting.Account.Name()), leftPad(12, posting.Units.String())); err != nil {
		return err
	}
	if posting.Cost != nil {
		if _, err := fmt.Fprintf(w, " {%s}", posting.Cost); err != nil {
			return err
		}
	}
	if posting.Price != nil {
		if _, err := fmt.Fprintf(w, " @ %s", posting.Price); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func (p Printer) printPrice(w io.Writer, pr *model.Price) error {
	_, err := fmt.Fprintf(w, "%s price %s %s %s\n", pr.Date.Format("2006-01-02"), pr.Commodity.Name(), pr.Price, pr.Target.Name())
	return err
}

func (p Printer) printBalance(w io.Writer, b *model.Balance) error {
	_, err := fmt.Fprintf(w, "%s balance %s %s\n", b.Date.Format("2006-01-02"), b.Account, b.Amount)
	return err
}

func (p Printer) printDocument(w io.Writer, d *model.Document) error {
	_, err := fmt.Fprintf(w, "%s document %s %q\n", d.Date.Format("2006-01-02"), d.Account, d.Filename)
	return err
}

func (p Printer) printNote(w io.Writer, n *model.Note) error {
	_, err := fmt.Fprintf(w, "%s note %s %q\n", n.Date.Format("2006-01-02"), n.Account, n.Comment)
	return err
}

func (p Printer) rightPad(s string) string {
	if len(s) >= p.Padding {
		return s
	}
	return s + strings.Repeat(" ", p.Padding-len(s))
}

func leftPad(width int, s string) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}
