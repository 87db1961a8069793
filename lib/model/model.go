package model

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Commodity represents a currency or security.
type Commodity struct {
	name string
}

func (c *Commodity) Name() string {
	return c.name
}

func (c *Commodity) String() string {
	return c.name
}

// AccountType is the type of an account.
type AccountType int

const (
	// ASSETS represents an asset account.
	ASSETS AccountType = iota
	// LIABILITIES represents a liability account.
	LIABILITIES
	// EQUITY represents an equity account.
	EQUITY
	// INCOME represents an income account.
	INCOME
	// EXPENSES represents an expenses account.
	EXPENSES
)

func (t AccountType) String() string {
	switch t {
	case ASSETS:
		return "Assets"
	case LIABILITIES:
		return "Liabilities"
	case EQUITY:
		return "Equity"
	case INCOME:
		return "Income"
	case EXPENSES:
		return "Expenses"
	}
	return ""
}

// AccountTypes is an array with the ordered account types.
var AccountTypes = []AccountType{ASSETS, LIABILITIES, EQUITY, INCOME, EXPENSES}

// Account represents an account which postings can affect.
type Account struct {
	accountType AccountType
	name        string
}

// Name returns the full name of this account.
func (a *Account) Name() string {
	return a.name
}

// Split returns the account name split into segments.
func (a *Account) Split() []string {
	return strings.Split(a.name, ":")
}

// Type returns the account type.
func (a *Account) Type() AccountType {
	return a.accountType
}

// IsAL returns whether this account is an asset or liability account.
func (a *Account) IsAL() bool {
	return a.accountType == ASSETS || a.accountType == LIABILITIES
}

// IsIE returns whether this account is an income or expense account.
func (a *Account) IsIE() bool {
	return a.accountType == EXPENSES || a.accountType == INCOME
}

func (a *Account) String() string {
	return a.name
}

// Amount is a number of units of some commodity.
type Amount struct {
	Number    decimal.Decimal
	Commodity *Commodity
}

func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.Number, a.Commodity.Name())
}

func (a Amount) IsZero() bool {
	return a.Number.IsZero()
}

func (a Amount) Neg() Amount {
	return Amount{Number: a.Number.Neg(), Commodity: a.Commodity}
}

// Position is a multi-commodity sum of amounts. Zero entries are elided.
type Position map[*Commodity]decimal.Decimal

func NewPosition() Position {
	return make(Position)
}

func (pos Position) Add(a Amount) {
	sum := pos[a.Commodity].Add(a.Number)
	if sum.IsZero() {
		delete(pos, a.Commodity)
		return
	}
	pos[a.Commodity] = sum
}

func (pos Position) AddPosition(other Position) {
	for c, n := range other {
		pos.Add(Amount{Number: n, Commodity: c})
	}
}

func (pos Position) Clone() Position {
	clone := make(Position, len(pos))
	for c, n := range pos {
		clone[c] = n
	}
	return clone
}

func (pos Position) Equal(other Position) bool {
	if len(pos) != len(other) {
		return false
	}
	for c, n := range pos {
		if !other[c].Equal(n) {
			return false
		}
	}
	return true
}

// Total sums the numbers across all commodities. It defines the
// magnitude used when positions are ordered.
func (pos Position) Total() decimal.Decimal {
	var res decimal.Decimal
	for _, n := range pos {
		res = res.Add(n)
	}
	return res
}

// Amounts returns the amounts of this position, sorted by commodity name.
func (pos Position) Amounts() []Amount {
	res := make([]Amount, 0, len(pos))
	for c, n := range pos {
		res = append(res, Amount{Number: n, Commodity: c})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Commodity.Name() < res[j].Commodity.Name()
	})
	return res
}

func (pos Position) String() string {
	amounts := pos.Amounts()
	ss := make([]string, 0, len(amounts))
	for _, a := range amounts {
		ss = append(ss, a.String())
	}
	return strings.Join(ss, ", ")
}

// Cost describes the acquisition lot of a posting: the per-unit cost
// and the acquisition date or label which distinguishes the lot.
type Cost struct {
	Number    decimal.Decimal
	Commodity *Commodity
	Date      time.Time
	Label     string
}

func (c *Cost) String() string {
	s := fmt.Sprintf("%s %s", c.Number, c.Commodity.Name())
	if !c.Date.IsZero() {
		s += ", " + c.Date.Format("2006-01-02")
	}
	if c.Label != "" {
		s += fmt.Sprintf(", %q", c.Label)
	}
	return s
}

// Posting represents one leg of a transaction.
type Posting struct {
	Account *Account
	Units   Amount
	Cost    *Cost
	Price   *Amount
}

// Tag represents a tag on a transaction.
type Tag string

// Location is a position in an input file.
type Location struct {
	Line, Column int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Range describes a range of locations in a file.
type Range struct {
	Path       string
	Start, End Location
}

// Position returns the range itself.
func (r Range) Position() Range {
	return r
}

func (r Range) String() string {
	return fmt.Sprintf("%s:%s", r.Path, r.Start)
}

// Directive is an element of a ledger with a source position.
type Directive interface {
	Position() Range
}

var (
	_ Directive = (*Open)(nil)
	_ Directive = (*Close)(nil)
	_ Directive = (*Transaction)(nil)
	_ Directive = (*Price)(nil)
	_ Directive = (*Balance)(nil)
	_ Directive = (*Document)(nil)
	_ Directive = (*Note)(nil)
)

// Open represents an account opening.
type Open struct {
	Range
	Date       time.Time
	Account    *Account
	Currencies []*Commodity
}

// Close represents an account closing.
type Close struct {
	Range
	Date    time.Time
	Account *Account
}

// Transaction represents a transaction with its postings.
type Transaction struct {
	Range
	Date        time.Time
	Flag        string
	Description string
	Tags        []Tag
	Postings    []*Posting
}

// Price represents a price observation: one unit of Commodity costs
// Price units of Target.
type Price struct {
	Range
	Date      time.Time
	Commodity *Commodity
	Target    *Commodity
	Price     decimal.Decimal
}

// Balance represents a balance assertion.
type Balance struct {
	Range
	Date    time.Time
	Account *Account
	Amount  Amount
}

// Document links a file to an account.
type Document struct {
	Range
	Date     time.Time
	Account  *Account
	Filename string
}

// Note attaches a comment to an account.
type Note struct {
	Range
	Date    time.Time
	Account *Account
	Comment string
}

// Date returns the date of the given directive.
func Date(d Directive) time.Time {
	switch t := d.(type) {
	case *Open:
		return t.Date
	case *Close:
		return t.Date
	case *Transaction:
		return t.Date
	case *Price:
		return t.Date
	case *Balance:
		return t.Date
	case *Document:
		return t.Date
	case *Note:
		return t.Date
	}
	panic(fmt.Sprintf("%T is not a directive", d))
}

// Kind returns the name of the directive's kind, as exposed by the
// `type` query column.
func Kind(d Directive) string {
	switch d.(type) {
	case *Open:
		return "Open"
	case *Close:
		return "Close"
	case *Transaction:
		return "Transaction"
	case *Price:
		return "Price"
	case *Balance:
		return "Balance"
	case *Document:
		return "Document"
	case *Note:
		return "Note"
	}
	panic(fmt.Sprintf("%T is not a directive", d))
}
