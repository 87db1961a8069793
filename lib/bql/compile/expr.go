package compile

import (
	"regexp"
	"time"

	"github.com/padelt/beanquery/lib/bql"
	"github.com/padelt/beanquery/lib/bql/env"
	"github.com/padelt/beanquery/lib/common/compare"
	"github.com/padelt/beanquery/lib/model"
	"github.com/shopspring/decimal"
)

// Expr is a compiled, typed expression.
type Expr interface {
	Type() env.Type
	Eval(ctx *env.Context, row env.Row) any
}

type constant struct {
	typ   env.Type
	value any
}

func (c *constant) Type() env.Type {
	return c.typ
}

func (c *constant) Eval(*env.Context, env.Row) any {
	return c.value
}

type columnExpr struct {
	col env.Column
}

func (c *columnExpr) Type() env.Type {
	return c.col.Type
}

func (c *columnExpr) Eval(ctx *env.Context, row env.Row) any {
	return c.col.Get(ctx, row)
}

type callExpr struct {
	overload env.Overload
	args     []Expr
}

func (c *callExpr) Type() env.Type {
	return c.overload.Result
}

func (c *callExpr) Eval(ctx *env.Context, row env.Row) any {
	vals := make([]any, len(c.args))
	for i, a := range c.args {
		vals[i] = a.Eval(ctx, row)
	}
	return c.overload.Eval(ctx, row, vals)
}

// aggExpr folds its argument over the rows of a group. The fold state
// lives in the node, so a compiled query must not be executed
// concurrently with itself.
type aggExpr struct {
	overload env.Overload
	arg      Expr
	agg      env.Aggregator
}

func (a *aggExpr) Type() env.Type {
	return a.overload.Result
}

func (a *aggExpr) Eval(*env.Context, env.Row) any {
	return a.agg.Value()
}

func (a *aggExpr) reset() {
	a.agg = a.overload.MakeAgg()
}

func (a *aggExpr) update(ctx *env.Context, row env.Row) {
	a.agg.Update(a.arg.Eval(ctx, row))
}

type notExpr struct {
	operand Expr
}

func (e *notExpr) Type() env.Type {
	return env.Bool
}

func (e *notExpr) Eval(ctx *env.Context, row env.Row) any {
	return !e.operand.Eval(ctx, row).(bool)
}

type negExpr struct {
	typ     env.Type
	operand Expr
}

func (e *negExpr) Type() env.Type {
	return e.typ
}

func (e *negExpr) Eval(ctx *env.Context, row env.Row) any {
	switch v := e.operand.Eval(ctx, row).(type) {
	case int:
		return -v
	case decimal.Decimal:
		return v.Neg()
	case model.Amount:
		return v.Neg()
	}
	panic("cannot negate operand")
}

type andExpr struct {
	left, right Expr
}

func (e *andExpr) Type() env.Type {
	return env.Bool
}

func (e *andExpr) Eval(ctx *env.Context, row env.Row) any {
	return e.left.Eval(ctx, row).(bool) && e.right.Eval(ctx, row).(bool)
}

type orExpr struct {
	left, right Expr
}

func (e *orExpr) Type() env.Type {
	return env.Bool
}

func (e *orExpr) Eval(ctx *env.Context, row env.Row) any {
	return e.left.Eval(ctx, row).(bool) || e.right.Eval(ctx, row).(bool)
}

type comparison struct {
	op          bql.Op
	left, right Expr
}

func (e *comparison) Type() env.Type {
	return env.Bool
}

func (e *comparison) Eval(ctx *env.Context, row env.Row) any {
	l, r := e.left.Eval(ctx, row), e.right.Eval(ctx, row)
	switch e.op {
	case bql.OpEq:
		return env.Equal(l, r)
	case bql.OpNeq:
		return !env.Equal(l, r)
	}
	o := env.Compare(l, r)
	switch e.op {
	case bql.OpLt:
		return o == compare.Smaller
	case bql.OpLte:
		return o != compare.Greater
	case bql.OpGt:
		return o == compare.Greater
	case bql.OpGte:
		return o != compare.Smaller
	}
	panic("not a comparison operator")
}

// matchExpr is the ~ operator. A constant pattern is compiled once; a
// dynamic pattern is compiled per evaluation and fails the match when
// invalid.
type matchExpr struct {
	left, right Expr
	rx          *regexp.Regexp
}

func (e *matchExpr) Type() env.Type {
	return env.Bool
}

func (e *matchExpr) Eval(ctx *env.Context, row env.Row) any {
	s := e.left.Eval(ctx, row).(string)
	if e.rx != nil {
		return e.rx.MatchString(s)
	}
	ok, err := regexp.MatchString(e.right.Eval(ctx, row).(string), s)
	return err == nil && ok
}

type arithmetic struct {
	typ         env.Type
	op          bql.Op
	left, right Expr
}

func (e *arithmetic) Type() env.Type {
	return e.typ
}

func (e *arithmetic) Eval(ctx *env.Context, row env.Row) any {
	if e.typ == env.Int {
		l, r := e.left.Eval(ctx, row).(int), e.right.Eval(ctx, row).(int)
		switch e.op {
		case bql.OpAdd:
			return l + r
		case bql.OpSub:
			return l - r
		case bql.OpMul:
			return l * r
		case bql.OpDiv:
			return l / r
		}
	}
	l := e.left.Eval(ctx, row).(decimal.Decimal)
	r := e.right.Eval(ctx, row).(decimal.Decimal)
	switch e.op {
	case bql.OpAdd:
		return l.Add(r)
	case bql.OpSub:
		return l.Sub(r)
	case bql.OpMul:
		return l.Mul(r)
	case bql.OpDiv:
		return l.Div(r).Truncate(8)
	}
	panic("not an arithmetic operator")
}

// dateShift adds or subtracts a number of days.
type dateShift struct {
	op         bql.Op
	date, days Expr
}

func (e *dateShift) Type() env.Type {
	return env.Date
}

func (e *dateShift) Eval(ctx *env.Context, row env.Row) any {
	days := e.days.Eval(ctx, row).(int)
	if e.op == bql.OpSub {
		days = -days
	}
	return e.date.Eval(ctx, row).(time.Time).AddDate(0, 0, days)
}

// intToDecimal widens an int operand.
type intToDecimal struct {
	operand Expr
}

func (e *intToDecimal) Type() env.Type {
	return env.Decimal
}

func (e *intToDecimal) Eval(ctx *env.Context, row env.Row) any {
	return decimal.NewFromInt(int64(e.operand.Eval(ctx, row).(int)))
}
