// Package env defines the typed columns and functions a query can
// reference, scoped to the two row shapes of the engine: whole
// directives in the FROM clause and individual postings elsewhere.
package env

import (
	"fmt"
	"strings"
	"time"

	"github.com/padelt/beanquery/lib/common/compare"
	"github.com/padelt/beanquery/lib/model"
	"github.com/padelt/beanquery/lib/prices"
	"github.com/shopspring/decimal"
)

// Type is the type of a query value.
type Type int

const (
	Bool Type = iota
	Int
	Decimal
	String
	Date
	Amount
	Position
)

func (t Type) String() string {
	switch t {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Decimal:
		return "decimal"
	case String:
		return "string"
	case Date:
		return "date"
	case Amount:
		return "amount"
	case Position:
		return "position"
	}
	return "unknown"
}

// TypeOf returns the query type of a runtime value.
func TypeOf(v any) Type {
	switch v.(type) {
	case bool:
		return Bool
	case int:
		return Int
	case decimal.Decimal:
		return Decimal
	case string:
		return String
	case time.Time:
		return Date
	case model.Amount:
		return Amount
	case model.Position:
		return Position
	}
	panic(fmt.Sprintf("%T is not a query value", v))
}

// Context carries the ledger-level state query evaluation may consult.
// It is read-only during execution.
type Context struct {
	Registry *model.Registry
	Prices   *prices.Map
}

// Row is one evaluation row. Directive is always set. Txn is set when
// the directive is a transaction. Posting is set in posting scope only.
type Row struct {
	Directive model.Directive
	Txn       *model.Transaction
	Posting   *model.Posting
}

// Column is a typed accessor on a row.
type Column struct {
	Type Type
	Get  func(ctx *Context, row Row) any
}

// Aggregator folds values of one group. A fresh aggregator is created
// per group and per aggregate target.
type Aggregator interface {
	Update(value any)
	Value() any
}

// Overload is one accepted signature of a function. Exactly one of
// Eval and MakeAgg is set.
type Overload struct {
	Args    []Type
	Result  Type
	Eval    func(ctx *Context, row Row, args []any) any
	MakeAgg func() Aggregator
}

// IsAggregate reports whether this overload folds over a group.
func (o Overload) IsAggregate() bool {
	return o.MakeAgg != nil
}

// Func is a named function with its overload set.
type Func struct {
	Name      string
	Overloads []Overload
}

// Match returns the overload accepting the given argument types.
func (f *Func) Match(args []Type) (Overload, bool) {
	for _, o := range f.Overloads {
		if len(o.Args) != len(args) {
			continue
		}
		ok := true
		for i, t := range o.Args {
			if t != args[i] {
				ok = false
				break
			}
		}
		if ok {
			return o, true
		}
	}
	return Overload{}, false
}

// Env is the schema one clause of a statement is compiled against.
type Env struct {
	name       string
	columns    map[string]Column
	funcs      map[string]*Func
	wildcard   []string
	aggregates bool
}

// Name identifies the clause for error messages.
func (e *Env) Name() string {
	return e.name
}

// Column looks up a column by name.
func (e *Env) Column(name string) (Column, bool) {
	c, ok := e.columns[name]
	return c, ok
}

// Func looks up a function by name.
func (e *Env) Func(name string) (*Func, bool) {
	f, ok := e.funcs[name]
	return f, ok
}

// Wildcard returns the column names a '*' target expands to.
func (e *Env) Wildcard() []string {
	return e.wildcard
}

// AllowAggregates reports whether aggregate functions may appear.
func (e *Env) AllowAggregates() bool {
	return e.aggregates
}

// Compare orders two values of the same query type. Positions are
// ordered by the sum of their numbers across commodities, amounts by
// number and then commodity name.
func Compare(a, b any) compare.Order {
	switch x := a.(type) {
	case bool:
		return compare.Bool(x, b.(bool))
	case int:
		return compare.Ordered(x, b.(int))
	case decimal.Decimal:
		return compare.Decimal(x, b.(decimal.Decimal))
	case string:
		return compare.Ordered(x, b.(string))
	case time.Time:
		return compare.Time(x, b.(time.Time))
	case model.Amount:
		y := b.(model.Amount)
		if o := compare.Decimal(x.Number, y.Number); o != compare.Equal {
			return o
		}
		return compare.Ordered(x.Commodity.Name(), y.Commodity.Name())
	case model.Position:
		return compare.Decimal(x.Total(), b.(model.Position).Total())
	}
	panic(fmt.Sprintf("%T is not a query value", a))
}

// Equal reports value equality of two values of the same query type.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case model.Amount:
		y := b.(model.Amount)
		return x.Commodity == y.Commodity && x.Number.Equal(y.Number)
	case model.Position:
		return x.Equal(b.(model.Position))
	}
	return Compare(a, b) == compare.Equal
}

// Format renders a value the way result tables display it.
func Format(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return x.Format("2006-01-02")
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func joinTags(tags []model.Tag) string {
	ss := make([]string, len(tags))
	for i, t := range tags {
		ss[i] = string(t)
	}
	return strings.Join(ss, ",")
}
