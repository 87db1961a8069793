// Package bql defines the abstract syntax of the query language and
// a parser for it.
package bql

import (
	"fmt"
	"strings"
	"time"
)

// Statement is a parsed query statement.
type Statement interface{ statement() }

var (
	_ Statement = (*Select)(nil)
	_ Statement = (*Journal)(nil)
	_ Statement = (*Balances)(nil)
	_ Statement = (*Print)(nil)
)

// Select represents a SELECT statement.
type Select struct {
	Distinct bool
	Wildcard bool
	Targets  []Target
	From     Expr
	Where    Expr
	GroupBy  []Expr
	OrderBy  []OrderTerm
	Limit    *int
}

func (*Select) statement() {}

// Journal represents a JOURNAL statement: a journal of the postings
// of the accounts matching the regex.
type Journal struct {
	Account string
	From    Expr
}

func (*Journal) statement() {}

// Balances represents a BALANCES statement.
type Balances struct {
	From Expr
}

func (*Balances) statement() {}

// Print represents a PRINT statement.
type Print struct {
	From Expr
}

func (*Print) statement() {}

// Target is a projected expression with an optional name.
type Target struct {
	Expr Expr
	As   string
}

// OrderTerm is an ordering key with its direction.
type OrderTerm struct {
	Expr Expr
	Desc bool
}

// Op enumerates the operators of the language.
type Op int

const (
	OpOr Op = iota
	OpAnd
	OpNot
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpMatch
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg
)

func (op Op) String() string {
	switch op {
	case OpOr:
		return "OR"
	case OpAnd:
		return "AND"
	case OpNot:
		return "NOT"
	case OpEq:
		return "="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpMatch:
		return "~"
	case OpAdd:
		return "+"
	case OpSub, OpNeg:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	}
	return "?"
}

// Expr is an expression node.
type Expr interface {
	fmt.Stringer
	expr()
}

var (
	_ Expr = (*Column)(nil)
	_ Expr = (*Constant)(nil)
	_ Expr = (*Call)(nil)
	_ Expr = (*Unary)(nil)
	_ Expr = (*Binary)(nil)
)

// Column references a column of the environment by name.
type Column struct {
	Name string
}

func (*Column) expr() {}

func (c *Column) String() string {
	return c.Name
}

// Constant is a literal: a string, an int, a decimal, a date or a bool.
type Constant struct {
	Value any
}

func (*Constant) expr() {}

func (c *Constant) String() string {
	switch v := c.Value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case time.Time:
		return v.Format("2006-01-02")
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	}
	return fmt.Sprint(c.Value)
}

// Call is a function application.
type Call struct {
	Name string
	Args []Expr
}

func (*Call) expr() {}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(args, ", "))
}

// Unary is a unary operation.
type Unary struct {
	Op      Op
	Operand Expr
}

func (*Unary) expr() {}

func (u *Unary) String() string {
	if u.Op == OpNot {
		return fmt.Sprintf("NOT %s", u.Operand)
	}
	return fmt.Sprintf("%s%s", u.Op, u.Operand)
}

// Binary is a binary operation.
type Binary struct {
	Op          Op
	Left, Right Expr
}

func (*Binary) expr() {}

func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}
