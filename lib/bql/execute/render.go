package execute

import (
	"github.com/padelt/beanquery/lib/bql/env"
	"github.com/padelt/beanquery/lib/common/table"
	"github.com/shopspring/decimal"
)

// Render lays the result out as a table: a centered header row, then
// one row per result row, numbers as number cells.
func Render(res *Result) *table.Table {
	t := table.New(len(res.Columns))
	t.AddSeparatorRow()
	header := t.AddRow()
	for _, c := range res.Columns {
		header.AddText(c.Name, table.Center)
	}
	t.AddSeparatorRow()
	for _, row := range res.Rows {
		r := t.AddRow()
		for _, v := range row {
			switch x := v.(type) {
			case nil:
				r.AddEmpty()
			case decimal.Decimal:
				r.AddNumber(x)
			case int:
				r.AddNumber(decimal.NewFromInt(int64(x)))
			default:
				r.AddText(env.Format(v), table.Left)
			}
		}
	}
	t.AddSeparatorRow()
	return t
}
