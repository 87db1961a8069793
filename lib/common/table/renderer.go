package table

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

// Renderer renders a table to text. Numbers are right-aligned,
// printed with thousands separators and colored by sign when color is
// enabled.
type Renderer struct {
	Color      bool
	green, red *color.Color
}

// NewConsoleRenderer returns a new console renderer.
func NewConsoleRenderer(enableColor bool) *Renderer {
	return &Renderer{
		Color: enableColor,
		green: color.New(color.FgGreen),
		red:   color.New(color.FgRed),
	}
}

// Render renders the table.
func (r *Renderer) Render(t *Table, w io.Writer) error {
	color.NoColor = !r.Color

	widths := make([]int, t.Width())
	for _, row := range t.rows {
		for i, c := range row.cells {
			if l := cellLength(c); widths[i] < l {
				widths[i] = l
			}
		}
	}
	for _, row := range t.rows {
		if err := writeString(w, border(row.cells[0].isSep(), "+-", "| ")); err != nil {
			return err
		}
		for i, c := range row.cells {
			if err := r.renderCell(c, widths[i], w); err != nil {
				return err
			}
			if i < len(row.cells)-1 {
				if err := writeString(w, createSep(c, row.cells[i+1])); err != nil {
					return err
				}
			}
		}
		if err := writeString(w, border(row.cells[len(row.cells)-1].isSep(), "-+\n", " |\n")); err != nil {
			return err
		}
	}
	return nil
}

func border(sep bool, s, t string) string {
	if sep {
		return s
	}
	return t
}

func createSep(c1, c2 cell) string {
	switch {
	case c1.isSep() && c2.isSep():
		return "-+-"
	case c1.isSep():
		return "-+ "
	case c2.isSep():
		return " +-"
	default:
		return " | "
	}
}

func (r *Renderer) renderCell(c cell, l int, w io.Writer) error {
	switch t := c.(type) {

	case emptyCell:
		return writeSpace(w, l)

	case separatorCell:
		return writeStrings(w, "-", l)

	case textCell:
		var before int
		switch t.align {
		case Left:
			before = 0
		case Right:
			before = l - utf8.RuneCountInString(t.content)
		case Center:
			before = (l - utf8.RuneCountInString(t.content)) / 2
		}
		if err := writeSpace(w, before); err != nil {
			return err
		}
		if err := writeString(w, t.content); err != nil {
			return err
		}
		return writeSpace(w, l-before-utf8.RuneCountInString(t.content))

	case numberCell:
		s := addThousandsSep(t.n.String())
		if err := writeSpace(w, l-utf8.RuneCountInString(s)); err != nil {
			return err
		}
		var err error
		switch {
		case t.n.LessThan(decimal.Zero):
			_, err = r.red.Fprint(w, s)
		case t.n.GreaterThan(decimal.Zero):
			_, err = r.green.Fprint(w, s)
		default:
			_, err = fmt.Fprint(w, s)
		}
		return err
	}
	return fmt.Errorf("%v is not a valid cell type", c)
}

func cellLength(c cell) int {
	if n, ok := c.(numberCell); ok {
		return utf8.RuneCountInString(addThousandsSep(n.n.String()))
	}
	return utf8.RuneCountInString(c.text())
}

func writeStrings(w io.Writer, s string, l int) error {
	for i := 0; i < l; i++ {
		if err := writeString(w, s); err != nil {
			return err
		}
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}

func writeSpace(w io.Writer, l int) error {
	return writeStrings(w, " ", l)
}

func addThousandsSep(e string) string {
	index := strings.Index(e, ".")
	if index < 0 {
		index = len(e)
	}
	b := strings.Builder{}
	ok := false
	for i, ch := range e {
		if i >= index && ch != '-' {
			b.WriteString(e[i:])
			break
		}
		if (index-i)%3 == 0 && ok {
			b.WriteRune(',')
		}
		b.WriteRune(ch)
		if unicode.IsDigit(ch) {
			ok = true
		}
	}
	return b.String()
}
