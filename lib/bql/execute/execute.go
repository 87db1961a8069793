// Package execute evaluates compiled query plans against a directive
// stream.
package execute

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/padelt/beanquery/lib/bql/compile"
	"github.com/padelt/beanquery/lib/bql/env"
	"github.com/padelt/beanquery/lib/common/compare"
	"github.com/padelt/beanquery/lib/common/set"
	"github.com/padelt/beanquery/lib/ledger"
	"github.com/padelt/beanquery/lib/model"
	"github.com/shopspring/decimal"
)

// Column describes one output column.
type Column struct {
	Name string
	Type env.Type
}

// Result is an ordered table of typed values, positional parallel to
// the visible targets of the query.
type Result struct {
	Columns []Column
	Rows    [][]any
}

// Execute runs a compiled query over the directives. The directives
// must be in ledger order. Running the same query twice over the same
// directives yields identical results. An expression faulting during
// evaluation, such as a division by zero, is reported as an error.
func Execute(q *compile.Query, ctx *env.Context, directives []model.Directive) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("query evaluation failed: %v", r)
		}
	}()
	rows := sourceRows(q, ctx, directives)

	var full [][]any
	if q.Aggregated() {
		full = aggregate(q, ctx, rows)
	} else {
		full = project(q, ctx, rows)
	}

	visible := 0
	for _, t := range q.Targets {
		if !t.Hidden {
			visible++
		}
	}
	if q.Distinct {
		full = distinct(full, visible)
	}
	if len(q.OrderBy) > 0 {
		compare.StableSort(full, func(r1, r2 []any) compare.Order {
			for _, key := range q.OrderBy {
				o := env.Compare(r1[key.Target], r2[key.Target])
				if key.Desc {
					o = -o
				}
				if o != compare.Equal {
					return o
				}
			}
			return compare.Equal
		})
	}
	if q.Limit != nil && len(full) > *q.Limit {
		full = full[:*q.Limit]
	}

	res = new(Result)
	for _, t := range q.Targets[:visible] {
		res.Columns = append(res.Columns, Column{Name: t.Name, Type: t.Type()})
	}
	for _, row := range full {
		res.Rows = append(res.Rows, row[:visible:visible])
	}
	return res, nil
}

// sourceRows filters directives with the FROM predicate and flattens
// them into evaluation rows, filtered by the WHERE predicate. A
// posting scope query yields one row per posting of each surviving
// transaction; a directive scope query yields one row per directive.
func sourceRows(q *compile.Query, ctx *env.Context, directives []model.Directive) []env.Row {
	var rows []env.Row
	for _, d := range directives {
		txn, _ := d.(*model.Transaction)
		base := env.Row{Directive: d, Txn: txn}
		if q.From != nil && !q.From.Eval(ctx, base).(bool) {
			continue
		}
		if !q.PostingScope {
			if q.Where == nil || q.Where.Eval(ctx, base).(bool) {
				rows = append(rows, base)
			}
			continue
		}
		if txn == nil {
			continue
		}
		for _, p := range txn.Postings {
			row := env.Row{Directive: d, Txn: txn, Posting: p}
			if q.Where == nil || q.Where.Eval(ctx, row).(bool) {
				rows = append(rows, row)
			}
		}
	}
	return rows
}

func project(q *compile.Query, ctx *env.Context, rows []env.Row) [][]any {
	res := make([][]any, 0, len(rows))
	for _, row := range rows {
		vals := make([]any, len(q.Targets))
		for i, t := range q.Targets {
			vals[i] = t.Expr.Eval(ctx, row)
		}
		res = append(res, vals)
	}
	return res
}

type group struct {
	rep  env.Row
	rows []env.Row
}

// aggregate partitions the rows by the group key tuple and folds each
// aggregate target over its group. Non-aggregate targets are
// evaluated against the first row of the group, in arrival order.
func aggregate(q *compile.Query, ctx *env.Context, rows []env.Row) [][]any {
	groups := make(map[string]*group)
	var order []string
	for _, row := range rows {
		key := make([]any, len(q.GroupIdx))
		for i, idx := range q.GroupIdx {
			key[i] = q.Targets[idx].Expr.Eval(ctx, row)
		}
		k := valueKey(key)
		g, ok := groups[k]
		if !ok {
			g = &group{rep: row}
			groups[k] = g
			order = append(order, k)
		}
		g.rows = append(g.rows, row)
	}

	res := make([][]any, 0, len(order))
	for _, k := range order {
		g := groups[k]
		vals := make([]any, len(q.Targets))
		for i, t := range q.Targets {
			if t.IsAggregate() {
				t.ResetAggregates()
				for _, row := range g.rows {
					t.UpdateAggregates(ctx, row)
				}
			}
			vals[i] = t.Expr.Eval(ctx, g.rep)
		}
		res = append(res, vals)
	}
	return res
}

// distinct deduplicates by the visible columns, keeping the first
// occurrence.
func distinct(rows [][]any, visible int) [][]any {
	seen := set.New[string]()
	res := make([][]any, 0, len(rows))
	for _, row := range rows {
		k := valueKey(row[:visible])
		if seen.Has(k) {
			continue
		}
		seen.Add(k)
		res = append(res, row)
	}
	return res
}

// valueKey serializes a value tuple into a map key, canonicalizing
// decimals so that value-equal tuples collide.
func valueKey(vals []any) string {
	var b strings.Builder
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(0)
		}
		b.WriteString(keyString(v))
	}
	return b.String()
}

func keyString(v any) string {
	switch x := v.(type) {
	case decimal.Decimal:
		return canonical(x)
	case model.Amount:
		return canonical(x.Number) + " " + x.Commodity.Name()
	case model.Position:
		amounts := x.Amounts()
		parts := make([]string, len(amounts))
		for i, a := range amounts {
			parts[i] = canonical(a.Number) + " " + a.Commodity.Name()
		}
		return strings.Join(parts, ",")
	case time.Time:
		return x.Format("2006-01-02")
	}
	return fmt.Sprint(v)
}

// canonical strips trailing fractional zeros, so 1.10 and 1.1 share a
// key.
func canonical(d decimal.Decimal) string {
	s := d.String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}

// ExecutePrint prints the directives surviving the FROM filter as
// ledger text. Like Execute, a faulting FROM expression is reported
// as an error.
func ExecutePrint(pq *compile.PrintQuery, ctx *env.Context, directives []model.Directive, w io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("query evaluation failed: %v", r)
		}
	}()
	printer := ledger.NewPrinter()
	first := true
	for _, d := range directives {
		txn, _ := d.(*model.Transaction)
		if pq.From != nil && !pq.From.Eval(ctx, env.Row{Directive: d, Txn: txn}).(bool) {
			continue
		}
		if !first {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		first = false
		if err := printer.PrintDirective(w, d); err != nil {
			return err
		}
	}
	return nil
}
