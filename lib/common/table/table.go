// Package table renders rows of cells as aligned text tables or CSV.
package table

import (
	"github.com/shopspring/decimal"
)

// Table is a matrix of table cells with a fixed width.
type Table struct {
	width int
	rows  []*Row
}

// New creates a new table with the given number of columns.
func New(width int) *Table {
	return &Table{width: width}
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return t.width
}

// AddRow adds a row.
func (t *Table) AddRow() *Row {
	row := &Row{cells: make([]cell, 0, t.width)}
	t.rows = append(t.rows, row)
	return row
}

// AddSeparatorRow adds a full-width separator row.
func (t *Table) AddSeparatorRow() {
	row := t.AddRow()
	for i := 0; i < t.width; i++ {
		row.addCell(separatorCell{})
	}
}

// Row is a table row.
type Row struct {
	cells []cell
}

func (r *Row) addCell(c cell) {
	r.cells = append(r.cells, c)
}

// AddEmpty adds an empty cell.
func (r *Row) AddEmpty() *Row {
	r.addCell(emptyCell{})
	return r
}

// AddText adds a text cell.
func (r *Row) AddText(content string, align Alignment) *Row {
	r.addCell(textCell{content: content, align: align})
	return r
}

// AddNumber adds a right-aligned number cell.
func (r *Row) AddNumber(n decimal.Decimal) *Row {
	r.addCell(numberCell{n: n})
	return r
}

// Alignment is the alignment of a text cell.
type Alignment int

const (
	// Left aligns to the left.
	Left Alignment = iota
	// Right aligns to the right.
	Right
	// Center centers.
	Center
)

type cell interface {
	// text is the plain content, as written to CSV.
	text() string
	isSep() bool
}

type textCell struct {
	content string
	align   Alignment
}

func (c textCell) text() string {
	return c.content
}

func (c textCell) isSep() bool {
	return false
}

type numberCell struct {
	n decimal.Decimal
}

func (c numberCell) text() string {
	return c.n.String()
}

func (c numberCell) isSep() bool {
	return false
}

type separatorCell struct{}

func (separatorCell) text() string {
	return ""
}

func (separatorCell) isSep() bool {
	return true
}

type emptyCell struct{}

func (emptyCell) text() string {
	return ""
}

func (emptyCell) isSep() bool {
	return false
}
