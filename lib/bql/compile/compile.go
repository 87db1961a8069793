// Package compile turns parsed query statements into typed,
// executable query plans.
package compile

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/padelt/beanquery/lib/bql"
	"github.com/padelt/beanquery/lib/bql/env"
)

// Error is a compilation error, optionally tied to the offending
// expression.
type Error struct {
	Expr bql.Expr
	Msg  string
}

func (e Error) Error() string {
	if e.Expr == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Expr, e.Msg)
}

// Plan is a compiled statement, either a *Query or a *PrintQuery.
type Plan interface {
	plan()
}

// Query is a compiled SELECT statement. It is immutable apart from
// the fold state of its aggregate nodes, so it may be executed
// repeatedly but not concurrently with itself.
type Query struct {
	Targets  []*Target
	From     Expr
	Where    Expr
	GroupIdx []int
	OrderBy  []OrderKey
	Limit    *int
	Distinct bool

	// PostingScope queries produce one row per posting; queries
	// referencing only directive-level columns produce one row per
	// directive.
	PostingScope bool
}

func (*Query) plan() {}

// Aggregated reports whether rows are grouped before projection.
func (q *Query) Aggregated() bool {
	if len(q.GroupIdx) > 0 {
		return true
	}
	for _, t := range q.Targets {
		if t.IsAggregate() {
			return true
		}
	}
	return false
}

// OrderKey orders results by a target, identified by its index.
type OrderKey struct {
	Target int
	Desc   bool
}

// Target is one projected expression. Hidden targets are appended for
// GROUP BY and ORDER BY keys that are not part of the projection.
type Target struct {
	Name   string
	Expr   Expr
	Hidden bool

	ast       bql.Expr
	aggs      []*aggExpr
	hasColumn bool
}

// Type returns the output type of the target.
func (t *Target) Type() env.Type {
	return t.Expr.Type()
}

// IsAggregate reports whether the target folds over a group.
func (t *Target) IsAggregate() bool {
	return len(t.aggs) > 0
}

// ResetAggregates starts a new group.
func (t *Target) ResetAggregates() {
	for _, a := range t.aggs {
		a.reset()
	}
}

// UpdateAggregates folds one row into the current group.
func (t *Target) UpdateAggregates(ctx *env.Context, row env.Row) {
	for _, a := range t.aggs {
		a.update(ctx, row)
	}
}

// PrintQuery is a compiled PRINT statement: the surviving directives
// are printed as ledger text.
type PrintQuery struct {
	From Expr
}

func (*PrintQuery) plan() {}

// Compile compiles a statement. Compilation fails atomically: on
// error, no plan is returned.
func Compile(stmt bql.Statement) (Plan, error) {
	c := &compiler{
		targets:  env.Targets(),
		entries:  env.FilterEntries(),
		postings: env.FilterPostings(),
	}
	switch s := stmt.(type) {
	case *bql.Select:
		return c.compileSelect(s)
	case *bql.Journal:
		return c.compileSelect(rewriteJournal(s))
	case *bql.Balances:
		return c.compileSelect(rewriteBalances(s))
	case *bql.Print:
		res := new(PrintQuery)
		if s.From != nil {
			from, _, err := c.bindBool(s.From, c.entries, "FROM clause")
			if err != nil {
				return nil, err
			}
			res.From = from
		}
		return res, nil
	}
	panic(fmt.Sprintf("%T is not a statement", stmt))
}

// JOURNAL is sugar for a posting journal of the matching accounts.
func rewriteJournal(j *bql.Journal) *bql.Select {
	return &bql.Select{
		Targets: []bql.Target{
			{Expr: &bql.Column{Name: "date"}},
			{Expr: &bql.Column{Name: "flag"}},
			{Expr: &bql.Column{Name: "description"}},
			{Expr: &bql.Column{Name: "account"}},
			{Expr: &bql.Column{Name: "position"}},
		},
		From: j.From,
		Where: &bql.Binary{
			Op:    bql.OpMatch,
			Left:  &bql.Column{Name: "account"},
			Right: &bql.Constant{Value: j.Account},
		},
	}
}

// BALANCES is sugar for summing positions per account.
func rewriteBalances(b *bql.Balances) *bql.Select {
	return &bql.Select{
		Targets: []bql.Target{
			{Expr: &bql.Column{Name: "account"}},
			{Expr: &bql.Call{Name: "sum", Args: []bql.Expr{&bql.Column{Name: "position"}}}},
		},
		From:    b.From,
		GroupBy: []bql.Expr{&bql.Column{Name: "account"}},
		OrderBy: []bql.OrderTerm{{Expr: &bql.Column{Name: "account"}}},
	}
}

type compiler struct {
	targets  *env.Env
	entries  *env.Env
	postings *env.Env
}

func (c *compiler) compileSelect(s *bql.Select) (*Query, error) {
	q := &Query{Distinct: s.Distinct, Limit: s.Limit}

	targets := s.Targets
	if s.Wildcard {
		targets = nil
		for _, name := range c.targets.Wildcard() {
			targets = append(targets, bql.Target{Expr: &bql.Column{Name: name}})
		}
	}
	if len(targets) == 0 {
		return nil, Error{Msg: "no targets"}
	}
	for _, target := range targets {
		t, err := c.bindTarget(q, target.Expr, target.As, false)
		if err != nil {
			return nil, err
		}
		q.Targets = append(q.Targets, t)
	}
	visible := len(q.Targets)

	if s.From != nil {
		from, _, err := c.bindBool(s.From, c.entries, "FROM clause")
		if err != nil {
			return nil, err
		}
		q.From = from
	}
	if s.Where != nil {
		where, b, err := c.bindBool(s.Where, c.postings, "WHERE clause")
		if err != nil {
			return nil, err
		}
		q.Where = where
		q.PostingScope = q.PostingScope || b.usesPosting
	}

	for _, expr := range s.GroupBy {
		idx, err := c.resolveKey(q, expr, visible, "GROUP BY", false)
		if err != nil {
			return nil, err
		}
		if q.Targets[idx].IsAggregate() {
			return nil, Error{Expr: expr, Msg: "cannot GROUP BY an aggregate"}
		}
		q.GroupIdx = append(q.GroupIdx, idx)
	}

	for _, term := range s.OrderBy {
		idx, err := c.resolveKey(q, term.Expr, visible, "ORDER BY", true)
		if err != nil {
			return nil, err
		}
		q.OrderBy = append(q.OrderBy, OrderKey{Target: idx, Desc: term.Desc})
	}

	if q.Aggregated() {
		grouped := make(map[int]bool, len(q.GroupIdx))
		for _, idx := range q.GroupIdx {
			grouped[idx] = true
		}
		for i, t := range q.Targets {
			if !t.IsAggregate() && t.hasColumn && !grouped[i] {
				return nil, Error{Expr: t.ast, Msg: fmt.Sprintf("%q must appear in GROUP BY or be wrapped in an aggregate", t.Name)}
			}
		}
	}
	return q, nil
}

// bindTarget compiles a target expression in the targets environment
// and tracks whether it references posting-level columns.
func (c *compiler) bindTarget(q *Query, expr bql.Expr, name string, hidden bool) (*Target, error) {
	b := &binder{env: c.targets, clause: "targets", allowAgg: true}
	compiled, err := b.bind(expr)
	if err != nil {
		return nil, err
	}
	if name == "" {
		if col, ok := expr.(*bql.Column); ok {
			name = col.Name
		} else {
			name = strings.ToLower(expr.String())
		}
	}
	q.PostingScope = q.PostingScope || b.usesPosting
	return &Target{
		Name:      name,
		Expr:      compiled,
		Hidden:    hidden,
		ast:       expr,
		aggs:      b.aggs,
		hasColumn: b.hasColumn,
	}, nil
}

// resolveKey resolves a GROUP BY or ORDER BY key to a target index: a
// positive integer literal refers to a visible target by position, a
// matching expression reuses its target, anything else is compiled
// into a hidden target.
func (c *compiler) resolveKey(q *Query, expr bql.Expr, visible int, clause string, allowAgg bool) (int, error) {
	if konst, ok := expr.(*bql.Constant); ok {
		if n, ok := konst.Value.(int); ok {
			if n < 1 || n > visible {
				return 0, Error{Expr: expr, Msg: fmt.Sprintf("%s references column %d of %d", clause, n, visible)}
			}
			return n - 1, nil
		}
	}
	for i, t := range q.Targets {
		if reflect.DeepEqual(expr, t.ast) {
			return i, nil
		}
	}
	t, err := c.bindTarget(q, expr, "", true)
	if err != nil {
		return 0, err
	}
	if t.IsAggregate() && !allowAgg {
		return 0, Error{Expr: expr, Msg: fmt.Sprintf("aggregate not allowed in %s", clause)}
	}
	q.Targets = append(q.Targets, t)
	return len(q.Targets) - 1, nil
}

func (c *compiler) bindBool(expr bql.Expr, e *env.Env, clause string) (Expr, *binder, error) {
	b := &binder{env: e, clause: clause}
	compiled, err := b.bind(expr)
	if err != nil {
		return nil, nil, err
	}
	if compiled.Type() != env.Bool {
		return nil, nil, Error{Expr: expr, Msg: fmt.Sprintf("%s must be a boolean expression, got %s", clause, compiled.Type())}
	}
	return compiled, b, nil
}

// binder compiles one expression against an environment, collecting
// the aggregate nodes and column references it contains.
type binder struct {
	env      *env.Env
	clause   string
	allowAgg bool

	aggs        []*aggExpr
	hasColumn   bool
	usesPosting bool
}

// directiveLevel are the columns available in both row scopes.
var directiveLevel = func() map[string]bool {
	res := make(map[string]bool)
	for _, name := range []string{"date", "type", "flag", "description", "tags"} {
		res[name] = true
	}
	return res
}()

func (b *binder) bind(expr bql.Expr) (Expr, error) {
	switch e := expr.(type) {
	case *bql.Constant:
		return &constant{typ: env.TypeOf(e.Value), value: e.Value}, nil

	case *bql.Column:
		col, ok := b.env.Column(e.Name)
		if !ok {
			return nil, Error{Expr: e, Msg: fmt.Sprintf("unknown column %q in %s", e.Name, b.clause)}
		}
		b.hasColumn = true
		if !directiveLevel[e.Name] {
			b.usesPosting = true
		}
		return &columnExpr{col: col}, nil

	case *bql.Call:
		return b.bindCall(e)

	case *bql.Unary:
		return b.bindUnary(e)

	case *bql.Binary:
		return b.bindBinary(e)
	}
	panic(fmt.Sprintf("%T is not an expression", expr))
}

func (b *binder) bindCall(e *bql.Call) (Expr, error) {
	f, ok := b.env.Func(e.Name)
	if !ok {
		return nil, Error{Expr: e, Msg: fmt.Sprintf("unknown function %q", e.Name)}
	}
	aggsBefore := len(b.aggs)
	args := make([]Expr, len(e.Args))
	argTypes := make([]env.Type, len(e.Args))
	for i, a := range e.Args {
		arg, err := b.bind(a)
		if err != nil {
			return nil, err
		}
		args[i] = arg
		argTypes[i] = arg.Type()
	}
	overload, ok := f.Match(argTypes)
	if !ok {
		names := make([]string, len(argTypes))
		for i, t := range argTypes {
			names[i] = t.String()
		}
		return nil, Error{Expr: e, Msg: fmt.Sprintf("no overload of %s accepts (%s)", e.Name, strings.Join(names, ", "))}
	}
	if !overload.IsAggregate() {
		return &callExpr{overload: overload, args: args}, nil
	}
	if !b.allowAgg {
		return nil, Error{Expr: e, Msg: fmt.Sprintf("aggregate function %q not allowed in %s", e.Name, b.clause)}
	}
	if len(b.aggs) > aggsBefore {
		return nil, Error{Expr: e, Msg: "aggregate functions cannot be nested"}
	}
	node := &aggExpr{overload: overload, arg: args[0]}
	b.aggs = append(b.aggs, node)
	return node, nil
}

func (b *binder) bindUnary(e *bql.Unary) (Expr, error) {
	operand, err := b.bind(e.Operand)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case bql.OpNot:
		if operand.Type() != env.Bool {
			return nil, Error{Expr: e, Msg: fmt.Sprintf("NOT requires a boolean operand, got %s", operand.Type())}
		}
		return &notExpr{operand: operand}, nil
	case bql.OpNeg:
		switch operand.Type() {
		case env.Int, env.Decimal, env.Amount:
			return &negExpr{typ: operand.Type(), operand: operand}, nil
		}
		return nil, Error{Expr: e, Msg: fmt.Sprintf("cannot negate %s", operand.Type())}
	}
	panic(fmt.Sprintf("%s is not a unary operator", e.Op))
}

func (b *binder) bindBinary(e *bql.Binary) (Expr, error) {
	left, err := b.bind(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := b.bind(e.Right)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case bql.OpAnd, bql.OpOr:
		if left.Type() != env.Bool || right.Type() != env.Bool {
			return nil, Error{Expr: e, Msg: fmt.Sprintf("%s requires boolean operands, got %s and %s", e.Op, left.Type(), right.Type())}
		}
		if e.Op == bql.OpAnd {
			return &andExpr{left: left, right: right}, nil
		}
		return &orExpr{left: left, right: right}, nil

	case bql.OpMatch:
		if left.Type() != env.String || right.Type() != env.String {
			return nil, Error{Expr: e, Msg: fmt.Sprintf("~ requires string operands, got %s and %s", left.Type(), right.Type())}
		}
		m := &matchExpr{left: left, right: right}
		if konst, ok := e.Right.(*bql.Constant); ok {
			pattern, _ := konst.Value.(string)
			rx, err := regexp.Compile(pattern)
			if err != nil {
				return nil, Error{Expr: e, Msg: fmt.Sprintf("invalid regex %q", pattern)}
			}
			m.rx = rx
		}
		return m, nil

	case bql.OpEq, bql.OpNeq, bql.OpLt, bql.OpLte, bql.OpGt, bql.OpGte:
		left, right = promote(left, right)
		if left.Type() != right.Type() {
			return nil, Error{Expr: e, Msg: fmt.Sprintf("cannot compare %s and %s", left.Type(), right.Type())}
		}
		return &comparison{op: e.Op, left: left, right: right}, nil

	case bql.OpAdd, bql.OpSub, bql.OpMul, bql.OpDiv:
		return b.bindArithmetic(e, left, right)
	}
	panic(fmt.Sprintf("%s is not a binary operator", e.Op))
}

func (b *binder) bindArithmetic(e *bql.Binary, left, right Expr) (Expr, error) {
	if left.Type() == env.Date || right.Type() == env.Date {
		switch {
		case e.Op == bql.OpAdd && left.Type() == env.Date && right.Type() == env.Int:
			return &dateShift{op: e.Op, date: left, days: right}, nil
		case e.Op == bql.OpAdd && left.Type() == env.Int && right.Type() == env.Date:
			return &dateShift{op: e.Op, date: right, days: left}, nil
		case e.Op == bql.OpSub && left.Type() == env.Date && right.Type() == env.Int:
			return &dateShift{op: e.Op, date: left, days: right}, nil
		}
		return nil, Error{Expr: e, Msg: fmt.Sprintf("operator %s not defined for %s and %s", e.Op, left.Type(), right.Type())}
	}
	if left.Type() == env.Int && right.Type() == env.Int {
		return &arithmetic{typ: env.Int, op: e.Op, left: left, right: right}, nil
	}
	left, right = promote(left, right)
	if left.Type() != env.Decimal || right.Type() != env.Decimal {
		return nil, Error{Expr: e, Msg: fmt.Sprintf("operator %s not defined for %s and %s", e.Op, left.Type(), right.Type())}
	}
	return &arithmetic{typ: env.Decimal, op: e.Op, left: left, right: right}, nil
}

// promote widens an int operand when paired with a decimal.
func promote(left, right Expr) (Expr, Expr) {
	if left.Type() == env.Int && right.Type() == env.Decimal {
		return &intToDecimal{operand: left}, right
	}
	if left.Type() == env.Decimal && right.Type() == env.Int {
		return left, &intToDecimal{operand: right}
	}
	return left, right
}
