package env

import (
	"regexp"
	"strings"
	"time"

	"github.com/padelt/beanquery/lib/model"
	"github.com/shopspring/decimal"
)

var valueTypes = []Type{Bool, Int, Decimal, String, Date, Amount, Position}

func simple(result Type, eval func(ctx *Context, row Row, args []any) any, args ...Type) Overload {
	return Overload{Args: args, Result: result, Eval: eval}
}

func agg(result Type, make func() Aggregator, arg Type) Overload {
	return Overload{Args: []Type{arg}, Result: result, MakeAgg: make}
}

func functions() map[string]*Func {
	funcs := make(map[string]*Func)
	add := func(name string, overloads ...Overload) {
		funcs[name] = &Func{Name: name, Overloads: overloads}
	}

	add("year", simple(Int, func(_ *Context, _ Row, args []any) any {
		return args[0].(time.Time).Year()
	}, Date))
	add("month", simple(Int, func(_ *Context, _ Row, args []any) any {
		return int(args[0].(time.Time).Month())
	}, Date))
	add("day", simple(Int, func(_ *Context, _ Row, args []any) any {
		return args[0].(time.Time).Day()
	}, Date))
	add("length", simple(Int, func(_ *Context, _ Row, args []any) any {
		return len(args[0].(string))
	}, String))
	add("upper", simple(String, func(_ *Context, _ Row, args []any) any {
		return strings.ToUpper(args[0].(string))
	}, String))
	add("lower", simple(String, func(_ *Context, _ Row, args []any) any {
		return strings.ToLower(args[0].(string))
	}, String))
	add("abs",
		simple(Decimal, func(_ *Context, _ Row, args []any) any {
			return args[0].(decimal.Decimal).Abs()
		}, Decimal),
		simple(Int, func(_ *Context, _ Row, args []any) any {
			if n := args[0].(int); n < 0 {
				return -n
			}
			return args[0]
		}, Int))
	add("number", simple(Decimal, func(_ *Context, _ Row, args []any) any {
		return args[0].(model.Amount).Number
	}, Amount))
	add("currency", simple(String, func(_ *Context, _ Row, args []any) any {
		return args[0].(model.Amount).Commodity.Name()
	}, Amount))
	add("parent", simple(String, func(_ *Context, _ Row, args []any) any {
		segments := strings.Split(args[0].(string), ":")
		return strings.Join(segments[:len(segments)-1], ":")
	}, String))
	add("leaf", simple(String, func(_ *Context, _ Row, args []any) any {
		segments := strings.Split(args[0].(string), ":")
		return segments[len(segments)-1]
	}, String))
	add("root", simple(String, func(_ *Context, _ Row, args []any) any {
		name, _, _ := strings.Cut(args[0].(string), ":")
		return name
	}, String))
	add("has_account", simple(Bool, func(_ *Context, row Row, args []any) any {
		rx, err := regexp.Compile(args[0].(string))
		if err != nil || row.Txn == nil {
			return false
		}
		for _, p := range row.Txn.Postings {
			if rx.MatchString(p.Account.Name()) {
				return true
			}
		}
		return false
	}, String))

	// An unconvertible amount passes through unchanged.
	add("convert",
		simple(Amount, func(ctx *Context, _ Row, args []any) any {
			a := args[0].(model.Amount)
			converted, ok := ctx.Prices.Convert(a, ctx.Registry.Commodity(args[1].(string)))
			if !ok {
				return a
			}
			return converted
		}, Amount, String),
		simple(Position, func(ctx *Context, _ Row, args []any) any {
			target := ctx.Registry.Commodity(args[1].(string))
			res := model.NewPosition()
			for _, a := range args[0].(model.Position).Amounts() {
				if converted, ok := ctx.Prices.Convert(a, target); ok {
					res.Add(converted)
				} else {
					res.Add(a)
				}
			}
			return res
		}, Position, String))

	strOverloads := make([]Overload, 0, len(valueTypes))
	countOverloads := make([]Overload, 0, len(valueTypes))
	firstOverloads := make([]Overload, 0, len(valueTypes))
	lastOverloads := make([]Overload, 0, len(valueTypes))
	for _, t := range valueTypes {
		t := t
		strOverloads = append(strOverloads, simple(String, func(_ *Context, _ Row, args []any) any {
			return Format(args[0])
		}, t))
		countOverloads = append(countOverloads, agg(Int, func() Aggregator {
			return new(counter)
		}, t))
		firstOverloads = append(firstOverloads, agg(t, func() Aggregator {
			return new(firstAgg)
		}, t))
		lastOverloads = append(lastOverloads, agg(t, func() Aggregator {
			return new(lastAgg)
		}, t))
	}
	add("str", strOverloads...)
	add("count", countOverloads...)
	add("first", firstOverloads...)
	add("last", lastOverloads...)

	orderable := []Type{Int, Decimal, String, Date, Amount}
	minOverloads := make([]Overload, 0, len(orderable))
	maxOverloads := make([]Overload, 0, len(orderable))
	for _, t := range orderable {
		minOverloads = append(minOverloads, agg(t, func() Aggregator {
			return &extremumAgg{keep: -1}
		}, t))
		maxOverloads = append(maxOverloads, agg(t, func() Aggregator {
			return &extremumAgg{keep: 1}
		}, t))
	}
	add("min", minOverloads...)
	add("max", maxOverloads...)

	add("sum",
		agg(Int, func() Aggregator { return new(sumInt) }, Int),
		agg(Decimal, func() Aggregator { return new(sumDecimal) }, Decimal),
		agg(Position, newSumPosition, Amount),
		agg(Position, newSumPosition, Position))

	return funcs
}

type counter struct {
	n int
}

func (a *counter) Update(any) {
	a.n++
}

func (a *counter) Value() any {
	return a.n
}

type firstAgg struct {
	seen bool
	v    any
}

func (a *firstAgg) Update(v any) {
	if !a.seen {
		a.seen = true
		a.v = v
	}
}

func (a *firstAgg) Value() any {
	return a.v
}

type lastAgg struct {
	v any
}

func (a *lastAgg) Update(v any) {
	a.v = v
}

func (a *lastAgg) Value() any {
	return a.v
}

// extremumAgg keeps the smallest (keep == -1) or largest (keep == 1)
// value seen so far.
type extremumAgg struct {
	keep int
	seen bool
	v    any
}

func (a *extremumAgg) Update(v any) {
	if !a.seen || int(Compare(v, a.v)) == a.keep {
		a.seen = true
		a.v = v
	}
}

func (a *extremumAgg) Value() any {
	return a.v
}

type sumInt struct {
	sum int
}

func (a *sumInt) Update(v any) {
	a.sum += v.(int)
}

func (a *sumInt) Value() any {
	return a.sum
}

type sumDecimal struct {
	sum decimal.Decimal
}

func (a *sumDecimal) Update(v any) {
	a.sum = a.sum.Add(v.(decimal.Decimal))
}

func (a *sumDecimal) Value() any {
	return a.sum
}

type sumPosition struct {
	pos model.Position
}

func newSumPosition() Aggregator {
	return &sumPosition{pos: model.NewPosition()}
}

func (a *sumPosition) Update(v any) {
	switch x := v.(type) {
	case model.Amount:
		a.pos.Add(x)
	case model.Position:
		a.pos.AddPosition(x)
	}
}

func (a *sumPosition) Value() any {
	return a.pos
}
