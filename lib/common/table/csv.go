package table

import (
	"encoding/csv"
	"io"
)

// WriteCSV writes the table as CSV, skipping separator rows. Numbers
// are written without thousands separators.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	for _, row := range t.rows {
		if row.cells[0].isSep() {
			continue
		}
		record := make([]string, len(row.cells))
		for i, c := range row.cells {
			record[i] = c.text()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
