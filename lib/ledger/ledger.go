// Package ledger assembles parsed directives into a chronologically
// sorted ledger.
package ledger

import (
	"os"

	"github.com/padelt/beanquery/lib/common/compare"
	"github.com/padelt/beanquery/lib/ledger/parser"
	"github.com/padelt/beanquery/lib/model"
)

// Ledger is a sorted directive stream together with the registry of
// accounts and commodities it references. It is immutable once built.
type Ledger struct {
	Registry   *model.Registry
	Directives []model.Directive
}

// FromDirectives sorts the given directives into a ledger. The sort
// is stable, so directives sharing a date keep their source order.
func FromDirectives(reg *model.Registry, directives []model.Directive) *Ledger {
	compare.StableSort(directives, model.CompareDirectives)
	return &Ledger{Registry: reg, Directives: directives}
}

// Load parses ledger text. Directives parsed before the first error
// are returned alongside the accumulated errors.
func Load(text, path string, o *model.Options) (*Ledger, error) {
	reg := model.NewRegistryWithOptions(o)
	p, err := parser.New(text, path, reg)
	if err != nil {
		return nil, err
	}
	directives, err := p.ParseAll()
	return FromDirectives(reg, directives), err
}

// FromPath reads and parses the ledger file at the given path.
func FromPath(path string, o *model.Options) (*Ledger, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(string(text), path, o)
}

// Transactions returns the transactions of the ledger, in order.
func (l *Ledger) Transactions() []*model.Transaction {
	var res []*model.Transaction
	for _, d := range l.Directives {
		if t, ok := d.(*model.Transaction); ok {
			res = append(res, t)
		}
	}
	return res
}
