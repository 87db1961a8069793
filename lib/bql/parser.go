package bql

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Error is a parse error with the offset of the offending token.
type Error struct {
	Pos     int
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("at offset %d: %s", e.Pos, e.Message)
}

// Parse parses a single query statement.
func Parse(text string) (Statement, error) {
	tokens, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if p.current().kind != tokEOF {
		return nil, p.errorf("unexpected %s after statement", p.current())
	}
	return stmt, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) current() token {
	return p.tokens[p.pos]
}

func (p *parser) advance() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// isKeyword reports whether the current token is the given keyword,
// compared case-insensitively.
func (p *parser) isKeyword(kw string) bool {
	t := p.current()
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func (p *parser) readKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return p.errorf("expected %s, got %s", strings.ToUpper(kw), p.current())
	}
	p.advance()
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return Error{Pos: p.current().pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) parseStatement() (Statement, error) {
	switch {
	case p.isKeyword("select"):
		p.advance()
		return p.parseSelect()
	case p.isKeyword("journal"):
		p.advance()
		return p.parseJournal()
	case p.isKeyword("balances"):
		p.advance()
		from, err := p.parseFromOpt()
		if err != nil {
			return nil, err
		}
		return &Balances{From: from}, nil
	case p.isKeyword("print"):
		p.advance()
		from, err := p.parseFromOpt()
		if err != nil {
			return nil, err
		}
		return &Print{From: from}, nil
	}
	return nil, p.errorf("expected SELECT, JOURNAL, BALANCES or PRINT, got %s", p.current())
}

func (p *parser) parseSelect() (*Select, error) {
	res := new(Select)
	if p.isKeyword("distinct") {
		p.advance()
		res.Distinct = true
	}
	if p.current().kind == tokAsterisk {
		p.advance()
		res.Wildcard = true
	} else {
		for {
			target, err := p.parseTarget()
			if err != nil {
				return nil, err
			}
			res.Targets = append(res.Targets, target)
			if p.current().kind != tokComma {
				break
			}
			p.advance()
		}
	}
	var err error
	if res.From, err = p.parseFromOpt(); err != nil {
		return nil, err
	}
	if p.isKeyword("where") {
		p.advance()
		if res.Where, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if p.isKeyword("group") {
		p.advance()
		if err := p.readKeyword("by"); err != nil {
			return nil, err
		}
		if res.GroupBy, err = p.parseExprList(); err != nil {
			return nil, err
		}
	}
	if p.isKeyword("order") {
		p.advance()
		if err := p.readKeyword("by"); err != nil {
			return nil, err
		}
		for {
			term := OrderTerm{}
			if term.Expr, err = p.parseExpr(); err != nil {
				return nil, err
			}
			switch {
			case p.isKeyword("asc"):
				p.advance()
			case p.isKeyword("desc"):
				p.advance()
				term.Desc = true
			}
			res.OrderBy = append(res.OrderBy, term)
			if p.current().kind != tokComma {
				break
			}
			p.advance()
		}
	}
	if p.isKeyword("limit") {
		p.advance()
		t := p.current()
		if t.kind != tokInt {
			return nil, p.errorf("expected limit count, got %s", t)
		}
		limit, err := strconv.Atoi(t.text)
		if err != nil || limit < 0 {
			return nil, p.errorf("invalid limit %s", t)
		}
		p.advance()
		res.Limit = &limit
	}
	return res, nil
}

func (p *parser) parseJournal() (*Journal, error) {
	t := p.current()
	if t.kind != tokString {
		return nil, p.errorf("expected account regex string, got %s", t)
	}
	p.advance()
	from, err := p.parseFromOpt()
	if err != nil {
		return nil, err
	}
	return &Journal{Account: t.text, From: from}, nil
}

func (p *parser) parseFromOpt() (Expr, error) {
	if !p.isKeyword("from") {
		return nil, nil
	}
	p.advance()
	return p.parseExpr()
}

func (p *parser) parseTarget() (Target, error) {
	expr, err := p.parseExpr()
	if err != nil {
		return Target{}, err
	}
	target := Target{Expr: expr}
	if p.isKeyword("as") {
		p.advance()
		t := p.current()
		if t.kind != tokIdent {
			return target, p.errorf("expected name after AS, got %s", t)
		}
		p.advance()
		target.As = strings.ToLower(t.text)
	}
	return target, nil
}

func (p *parser) parseExprList() ([]Expr, error) {
	var res []Expr
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		res = append(res, expr)
		if p.current().kind != tokComma {
			return res, nil
		}
		p.advance()
	}
}

func (p *parser) parseExpr() (Expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.isKeyword("not") {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: OpNot, Operand: operand}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[tokenKind]Op{
	tokEq:    OpEq,
	tokNeq:   OpNeq,
	tokLt:    OpLt,
	tokLte:   OpLte,
	tokGt:    OpGt,
	tokGte:   OpGte,
	tokTilde: OpMatch,
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	op, ok := comparisonOps[p.current().kind]
	if !ok {
		return left, nil
	}
	p.advance()
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &Binary{Op: op, Left: left, Right: right}, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op Op
		switch p.current().kind {
		case tokPlus:
			op = OpAdd
		case tokMinus:
			op = OpSub
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op Op
		switch p.current().kind {
		case tokAsterisk:
			op = OpMul
		case tokSlash:
			op = OpDiv
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if p.current().kind == tokMinus {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: OpNeg, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.current()
	switch t.kind {
	case tokLParen:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.current().kind != tokRParen {
			return nil, p.errorf("expected ), got %s", p.current())
		}
		p.advance()
		return expr, nil
	case tokString:
		p.advance()
		return &Constant{Value: t.text}, nil
	case tokInt:
		p.advance()
		n, err := strconv.Atoi(t.text)
		if err != nil {
			return nil, Error{Pos: t.pos, Message: fmt.Sprintf("invalid number %q", t.text)}
		}
		return &Constant{Value: n}, nil
	case tokDecimal:
		p.advance()
		d, err := decimal.NewFromString(t.text)
		if err != nil {
			return nil, Error{Pos: t.pos, Message: fmt.Sprintf("invalid number %q", t.text)}
		}
		return &Constant{Value: d}, nil
	case tokDate:
		p.advance()
		date, err := time.Parse("2006-01-02", t.text)
		if err != nil {
			return nil, Error{Pos: t.pos, Message: fmt.Sprintf("invalid date %q", t.text)}
		}
		return &Constant{Value: date}, nil
	case tokIdent:
		switch {
		case strings.EqualFold(t.text, "true"):
			p.advance()
			return &Constant{Value: true}, nil
		case strings.EqualFold(t.text, "false"):
			p.advance()
			return &Constant{Value: false}, nil
		}
		p.advance()
		name := strings.ToLower(t.text)
		if p.current().kind != tokLParen {
			return &Column{Name: name}, nil
		}
		p.advance()
		call := &Call{Name: name}
		if p.current().kind != tokRParen {
			args, err := p.parseExprList()
			if err != nil {
				return nil, err
			}
			call.Args = args
		}
		if p.current().kind != tokRParen {
			return nil, p.errorf("expected ), got %s", p.current())
		}
		p.advance()
		return call, nil
	}
	return nil, p.errorf("unexpected %s", t)
}
