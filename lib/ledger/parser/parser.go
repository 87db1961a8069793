// Package parser parses ledger text into directives.
package parser

import (
	"fmt"
	"time"
	"unicode"

	"github.com/padelt/beanquery/lib/ledger/scanner"
	"github.com/padelt/beanquery/lib/model"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Error is a parse error with a source position.
type Error struct {
	Range   model.Range
	Message string
	Wrapped error
}

func (e Error) Error() string {
	if e.Wrapped == nil {
		return fmt.Sprintf("%s: %s", e.Range, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Range, e.Message, e.Wrapped)
}

func (e Error) Unwrap() error {
	return e.Wrapped
}

// Parser parses a ledger.
type Parser struct {
	*scanner.Scanner

	registry *model.Registry
}

// New creates a parser for the given text.
func New(text, path string, reg *model.Registry) (*Parser, error) {
	p := &Parser{
		Scanner:  scanner.New(text, path),
		registry: reg,
	}
	return p, p.Advance()
}

// ParseAll parses the input and returns the directives in source
// order. Parse errors are accumulated; a malformed directive does not
// prevent the remainder from being parsed.
func (p *Parser) ParseAll() ([]model.Directive, error) {
	var (
		res  []model.Directive
		errs error
	)
	for p.Current() != scanner.EOF {
		switch {
		case p.Current() == '\n':
			if err := p.Advance(); err != nil {
				return res, multierr.Append(errs, err)
			}
		case p.Current() == ';':
			if err := p.skipRestOfLine(); err != nil {
				return res, multierr.Append(errs, err)
			}
		case isWhitespace(p.Current()):
			if _, err := p.ReadWhile(isWhitespace); err != nil {
				return res, multierr.Append(errs, err)
			}
			if p.Current() != '\n' && p.Current() != ';' && p.Current() != scanner.EOF {
				errs = multierr.Append(errs, p.errorf(p.Location(), "unexpected indentation"))
				if err := p.sync(); err != nil {
					return res, multierr.Append(errs, err)
				}
			}
		case unicode.IsDigit(p.Current()):
			d, err := p.parseDirective()
			if err != nil {
				errs = multierr.Append(errs, err)
				if err := p.sync(); err != nil {
					return res, multierr.Append(errs, err)
				}
				continue
			}
			res = append(res, d)
		default:
			errs = multierr.Append(errs, p.errorf(p.Location(), "unexpected character %q", p.Current()))
			if err := p.sync(); err != nil {
				return res, multierr.Append(errs, err)
			}
		}
	}
	return res, errs
}

func (p *Parser) parseDirective() (model.Directive, error) {
	start := p.Location()
	date, err := p.parseDate(start)
	if err != nil {
		return nil, err
	}
	if err := p.readSpace1(start); err != nil {
		return nil, err
	}
	if p.Current() == '*' || p.Current() == '!' || p.Current() == '"' {
		return p.parseTransaction(start, date)
	}
	word, err := p.ReadWhile1("keyword", unicode.IsLower)
	if err != nil {
		return nil, p.errorf(start, "parsing directive: %s", err)
	}
	if err := p.readSpace1(start); err != nil {
		return nil, err
	}
	switch word {
	case "open":
		return p.parseOpen(start, date)
	case "close":
		return p.parseClose(start, date)
	case "price":
		return p.parsePrice(start, date)
	case "balance":
		return p.parseBalance(start, date)
	case "note":
		return p.parseNote(start, date)
	case "document":
		return p.parseDocument(start, date)
	}
	return nil, p.errorf(start, "unknown directive %q", word)
}

func (p *Parser) parseOpen(start model.Location, date time.Time) (model.Directive, error) {
	account, err := p.parseAccount(start)
	if err != nil {
		return nil, err
	}
	open := &model.Open{Date: date, Account: account}
	if _, err := p.ReadWhile(isWhitespace); err != nil {
		return nil, err
	}
	for isCommodityRune(p.Current()) {
		commodity, err := p.parseCommodity(start)
		if err != nil {
			return nil, err
		}
		open.Currencies = append(open.Currencies, commodity)
		if p.Current() == ',' {
			if err := p.Advance(); err != nil {
				return nil, err
			}
			if _, err := p.ReadWhile(isWhitespace); err != nil {
				return nil, err
			}
		}
	}
	open.Range = p.Range(start)
	return open, p.readRestOfLine(start)
}

func (p *Parser) parseClose(start model.Location, date time.Time) (model.Directive, error) {
	account, err := p.parseAccount(start)
	if err != nil {
		return nil, err
	}
	cls := &model.Close{Date: date, Account: account, Range: p.Range(start)}
	return cls, p.readRestOfLine(start)
}

func (p *Parser) parsePrice(start model.Location, date time.Time) (model.Directive, error) {
	commodity, err := p.parseCommodity(start)
	if err != nil {
		return nil, err
	}
	if err := p.readSpace1(start); err != nil {
		return nil, err
	}
	price, err := p.parseDecimal(start)
	if err != nil {
		return nil, err
	}
	if !price.IsPositive() {
		return nil, p.errorf(start, "price must be positive, got %s", price)
	}
	if err := p.readSpace1(start); err != nil {
		return nil, err
	}
	target, err := p.parseCommodity(start)
	if err != nil {
		return nil, err
	}
	res := &model.Price{
		Date:      date,
		Commodity: commodity,
		Target:    target,
		Price:     price,
		Range:     p.Range(start),
	}
	return res, p.readRestOfLine(start)
}

func (p *Parser) parseBalance(start model.Location, date time.Time) (model.Directive, error) {
	account, err := p.parseAccount(start)
	if err != nil {
		return nil, err
	}
	if err := p.readSpace1(start); err != nil {
		return nil, err
	}
	amount, err := p.parseAmount(start)
	if err != nil {
		return nil, err
	}
	res := &model.Balance{Date: date, Account: account, Amount: amount, Range: p.Range(start)}
	return res, p.readRestOfLine(start)
}

func (p *Parser) parseNote(start model.Location, date time.Time) (model.Directive, error) {
	account, err := p.parseAccount(start)
	if err != nil {
		return nil, err
	}
	if err := p.readSpace1(start); err != nil {
		return nil, err
	}
	comment, err := p.parseQuotedString(start)
	if err != nil {
		return nil, err
	}
	res := &model.Note{Date: date, Account: account, Comment: comment, Range: p.Range(start)}
	return res, p.readRestOfLine(start)
}

func (p *Parser) parseDocument(start model.Location, date time.Time) (model.Directive, error) {
	account, err := p.parseAccount(start)
	if err != nil {
		return nil, err
	}
	if err := p.readSpace1(start); err != nil {
		return nil, err
	}
	filename, err := p.parseQuotedString(start)
	if err != nil {
		return nil, err
	}
	res := &model.Document{Date: date, Account: account, Filename: filename, Range: p.Range(start)}
	return res, p.readRestOfLine(start)
}

func (p *Parser) parseTransaction(start model.Location, date time.Time) (model.Directive, error) {
	flag := "*"
	if p.Current() == '*' || p.Current() == '!' {
		flag = string(p.Current())
		if err := p.Advance(); err != nil {
			return nil, err
		}
		if err := p.readSpace1(start); err != nil {
			return nil, err
		}
	}
	desc, err := p.parseQuotedString(start)
	if err != nil {
		return nil, err
	}
	t := &model.Transaction{Date: date, Flag: flag, Description: desc}
	for {
		if _, err := p.ReadWhile(isWhitespace); err != nil {
			return nil, err
		}
		if p.Current() != '#' {
			break
		}
		if err := p.Advance(); err != nil {
			return nil, err
		}
		tag, err := p.ReadWhile1("tag", isTagRune)
		if err != nil {
			return nil, p.errorf(start, "parsing tag: %s", err)
		}
		t.Tags = append(t.Tags, model.Tag(tag))
	}
	if err := p.readRestOfLine(start); err != nil {
		return nil, err
	}
body:
	for isWhitespace(p.Current()) {
		if _, err := p.ReadWhile(isWhitespace); err != nil {
			return nil, err
		}
		switch {
		case p.Current() == '\n':
			// a whitespace line ends the transaction
			if err := p.Advance(); err != nil {
				return nil, err
			}
			break body
		case p.Current() == ';':
			if err := p.skipRestOfLine(); err != nil {
				return nil, err
			}
		case p.Current() == scanner.EOF:
			break body
		default:
			posting, err := p.parsePosting(start)
			if err != nil {
				return nil, err
			}
			t.Postings = append(t.Postings, posting)
		}
	}
	if len(t.Postings) == 0 {
		return nil, p.errorf(start, "transaction has no postings")
	}
	t.Range = p.Range(start)
	return t, nil
}

func (p *Parser) parsePosting(start model.Location) (*model.Posting, error) {
	account, err := p.parseAccount(start)
	if err != nil {
		return nil, err
	}
	if err := p.readSpace1(start); err != nil {
		return nil, err
	}
	units, err := p.parseAmount(start)
	if err != nil {
		return nil, err
	}
	posting := &model.Posting{Account: account, Units: units}
	if _, err := p.ReadWhile(isWhitespace); err != nil {
		return nil, err
	}
	if p.Current() == '{' {
		if posting.Cost, err = p.parseCost(start); err != nil {
			return nil, err
		}
		if _, err := p.ReadWhile(isWhitespace); err != nil {
			return nil, err
		}
	}
	if p.Current() == '@' {
		if err := p.Advance(); err != nil {
			return nil, err
		}
		if _, err := p.ReadWhile(isWhitespace); err != nil {
			return nil, err
		}
		price, err := p.parseAmount(start)
		if err != nil {
			return nil, err
		}
		posting.Price = &price
	}
	return posting, p.readRestOfLine(start)
}

func (p *Parser) parseCost(start model.Location) (*model.Cost, error) {
	if err := p.ReadCharacter('{'); err != nil {
		return nil, p.errorf(start, "parsing cost: %s", err)
	}
	if _, err := p.ReadWhile(isWhitespace); err != nil {
		return nil, err
	}
	amount, err := p.parseAmount(start)
	if err != nil {
		return nil, err
	}
	cost := &model.Cost{Number: amount.Number, Commodity: amount.Commodity}
	for {
		if _, err := p.ReadWhile(isWhitespace); err != nil {
			return nil, err
		}
		if p.Current() != ',' {
			break
		}
		if err := p.Advance(); err != nil {
			return nil, err
		}
		if _, err := p.ReadWhile(isWhitespace); err != nil {
			return nil, err
		}
		if p.Current() == '"' {
			if cost.Label, err = p.parseQuotedString(start); err != nil {
				return nil, err
			}
		} else {
			if cost.Date, err = p.parseDate(start); err != nil {
				return nil, err
			}
		}
	}
	if err := p.ReadCharacter('}'); err != nil {
		return nil, p.errorf(start, "parsing cost: %s", err)
	}
	return cost, nil
}

func (p *Parser) parseDate(start model.Location) (time.Time, error) {
	s, err := p.ReadWhile1("date", func(r rune) bool {
		return unicode.IsDigit(r) || r == '-'
	})
	if err != nil {
		return time.Time{}, p.errorf(start, "parsing date: %s", err)
	}
	date, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, p.errorf(start, "parsing date %q", s)
	}
	return date, nil
}

func (p *Parser) parseAccount(start model.Location) (*model.Account, error) {
	name, err := p.ReadWhile1("account", isAccountRune)
	if err != nil {
		return nil, p.errorf(start, "parsing account: %s", err)
	}
	account, err := p.registry.GetAccount(name)
	if err != nil {
		return nil, p.errorf(start, "%s", err)
	}
	return account, nil
}

func (p *Parser) parseCommodity(start model.Location) (*model.Commodity, error) {
	name, err := p.ReadWhile1("commodity", isCommodityRune)
	if err != nil {
		return nil, p.errorf(start, "parsing commodity: %s", err)
	}
	commodity, err := p.registry.GetCommodity(name)
	if err != nil {
		return nil, p.errorf(start, "%s", err)
	}
	return commodity, nil
}

func (p *Parser) parseDecimal(start model.Location) (decimal.Decimal, error) {
	s, err := p.ReadWhile1("number", func(r rune) bool {
		return unicode.IsDigit(r) || r == '.' || r == '-' || r == '+'
	})
	if err != nil {
		return decimal.Zero, p.errorf(start, "parsing number: %s", err)
	}
	dec, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, p.errorf(start, "parsing number %q", s)
	}
	return dec, nil
}

func (p *Parser) parseAmount(start model.Location) (model.Amount, error) {
	number, err := p.parseDecimal(start)
	if err != nil {
		return model.Amount{}, err
	}
	if err := p.readSpace1(start); err != nil {
		return model.Amount{}, err
	}
	commodity, err := p.parseCommodity(start)
	if err != nil {
		return model.Amount{}, err
	}
	return model.Amount{Number: number, Commodity: commodity}, nil
}

func (p *Parser) parseQuotedString(start model.Location) (string, error) {
	if err := p.ReadCharacter('"'); err != nil {
		return "", p.errorf(start, "parsing string: %s", err)
	}
	s, err := p.ReadWhile(func(r rune) bool {
		return r != '"' && r != '\n'
	})
	if err != nil {
		return s, err
	}
	if err := p.ReadCharacter('"'); err != nil {
		return s, p.errorf(start, "parsing string: %s", err)
	}
	return s, nil
}

func (p *Parser) readSpace1(start model.Location) error {
	if !isWhitespace(p.Current()) {
		return p.errorf(start, "expected whitespace, got %q", p.Current())
	}
	_, err := p.ReadWhile(isWhitespace)
	return err
}

// readRestOfLine consumes trailing whitespace, an optional comment
// and the newline.
func (p *Parser) readRestOfLine(start model.Location) error {
	if _, err := p.ReadWhile(isWhitespace); err != nil {
		return err
	}
	if p.Current() == ';' {
		return p.skipRestOfLine()
	}
	if p.Current() == scanner.EOF {
		return nil
	}
	if p.Current() != '\n' {
		return p.errorf(start, "unexpected character %q", p.Current())
	}
	return p.Advance()
}

// skipRestOfLine consumes everything up to and including the newline.
func (p *Parser) skipRestOfLine() error {
	if _, err := p.ReadWhile(func(r rune) bool { return r != '\n' }); err != nil {
		return err
	}
	if p.Current() == scanner.EOF {
		return nil
	}
	return p.Advance()
}

// sync skips to the beginning of the next unindented line.
func (p *Parser) sync() error {
	for p.Current() != scanner.EOF {
		if err := p.skipRestOfLine(); err != nil {
			return err
		}
		if !isWhitespace(p.Current()) {
			return nil
		}
	}
	return nil
}

func (p *Parser) errorf(start model.Location, format string, args ...any) error {
	return Error{
		Range:   p.Range(start),
		Message: fmt.Sprintf(format, args...),
	}
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t'
}

func isAccountRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == ':' || r == '-' || r == '_'
}

func isCommodityRune(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-'
}

func isTagRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'
}
