// Package booking replays postings against per-account inventories
// and reports postings which would reduce a lot below zero.
package booking

import (
	"fmt"
	"time"

	"github.com/padelt/beanquery/lib/common/dict"
	"github.com/padelt/beanquery/lib/model"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// LotKey identifies a lot within an inventory. The per-unit cost is
// kept in normalized string form so that the key stays comparable.
type LotKey struct {
	Commodity     *model.Commodity
	Cost          string
	CostCommodity *model.Commodity
	Date          time.Time
	Label         string
}

func (k LotKey) String() string {
	s := k.Commodity.Name()
	if k.CostCommodity != nil {
		s += fmt.Sprintf(" {%s %s}", k.Cost, k.CostCommodity.Name())
	}
	return s
}

// Key computes the lot key of a posting.
func Key(p *model.Posting) LotKey {
	key := LotKey{Commodity: p.Units.Commodity}
	if p.Cost != nil {
		key.Cost = p.Cost.Number.String()
		key.CostCommodity = p.Cost.Commodity
		key.Date = p.Cost.Date
		key.Label = p.Cost.Label
	}
	return key
}

// Inventory is a multiset of lots with signed unit quantities.
type Inventory map[LotKey]decimal.Decimal

func New() Inventory {
	return make(Inventory)
}

// Book applies the signed delta to the lot with the given key. Unless
// negative quantities are allowed, a delta which would drive the lot
// quantity below zero is rejected and the inventory is left unchanged.
func (inv Inventory) Book(key LotKey, delta decimal.Decimal, allowNegative bool) error {
	quantity, ok := inv[key]
	if !ok {
		if delta.IsNegative() && !allowNegative {
			return fmt.Errorf("no lot %s to reduce by %s", key, delta.Neg())
		}
		if !delta.IsZero() {
			inv[key] = delta
		}
		return nil
	}
	sum := quantity.Add(delta)
	if sum.IsNegative() && !allowNegative {
		return fmt.Errorf("reducing lot %s by %s would result in %s units", key, delta.Neg(), sum)
	}
	if sum.IsZero() {
		delete(inv, key)
	} else {
		inv[key] = sum
	}
	return nil
}

// Error is a booking violation tied to a posting of a transaction.
type Error struct {
	Directive model.Directive
	Account   *model.Account
	Msg       string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Directive.Position(), e.Account, e.Msg)
}

// Validate replays all transactions in order against per-account
// running inventories, disallowing negative lot quantities. Errors
// are accumulated; a violating posting never aborts the pass. The
// inventories themselves are discarded.
func Validate(directives []model.Directive) error {
	var errs error
	inventories := make(map[*model.Account]Inventory)
	for _, d := range directives {
		t, ok := d.(*model.Transaction)
		if !ok {
			continue
		}
		for _, p := range t.Postings {
			inv := dict.GetDefault(inventories, p.Account, New)
			if err := inv.Book(Key(p), p.Units.Number, false); err != nil {
				errs = multierr.Append(errs, Error{Directive: t, Account: p.Account, Msg: err.Error()})
			}
		}
	}
	return errs
}
