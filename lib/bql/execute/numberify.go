package execute

import (
	"fmt"

	"github.com/padelt/beanquery/lib/bql/env"
	"github.com/padelt/beanquery/lib/common/compare"
	"github.com/padelt/beanquery/lib/common/set"
	"github.com/padelt/beanquery/lib/model"
)

// Numberify replaces every amount and position column with one
// decimal column per currency occurring in it, named
// "<column> (<currency>)". Cells without a value in that currency are
// nil. The currency tagging moves into the column names, so no
// information is lost.
func Numberify(res *Result) *Result {
	var columns []Column
	var extract []func(row []any) any

	for ci, col := range res.Columns {
		ci := ci
		switch col.Type {
		case env.Amount:
			for _, cur := range currenciesOf(res.Rows, ci) {
				cur := cur
				columns = append(columns, Column{
					Name: fmt.Sprintf("%s (%s)", col.Name, cur),
					Type: env.Decimal,
				})
				extract = append(extract, func(row []any) any {
					if a := row[ci].(model.Amount); a.Commodity.Name() == cur {
						return a.Number
					}
					return nil
				})
			}
		case env.Position:
			for _, cur := range currenciesOf(res.Rows, ci) {
				cur := cur
				columns = append(columns, Column{
					Name: fmt.Sprintf("%s (%s)", col.Name, cur),
					Type: env.Decimal,
				})
				extract = append(extract, func(row []any) any {
					for _, a := range row[ci].(model.Position).Amounts() {
						if a.Commodity.Name() == cur {
							return a.Number
						}
					}
					return nil
				})
			}
		default:
			columns = append(columns, col)
			extract = append(extract, func(row []any) any {
				return row[ci]
			})
		}
	}

	out := &Result{Columns: columns}
	for _, row := range res.Rows {
		vals := make([]any, len(extract))
		for i, f := range extract {
			vals[i] = f(row)
		}
		out.Rows = append(out.Rows, vals)
	}
	return out
}

// currenciesOf collects the currency names occurring in the given
// column, sorted.
func currenciesOf(rows [][]any, col int) []string {
	currencies := set.New[string]()
	for _, row := range rows {
		switch x := row[col].(type) {
		case model.Amount:
			currencies.Add(x.Commodity.Name())
		case model.Position:
			for _, a := range x.Amounts() {
				currencies.Add(a.Commodity.Name())
			}
		}
	}
	return currencies.Sorted(compare.Ordered[string])
}
