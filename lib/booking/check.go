package booking

import (
	"fmt"

	"github.com/padelt/beanquery/lib/model"
	"go.uber.org/multierr"
)

// CheckOpenClose verifies the open and close directives of a ledger:
// each account is opened and closed at most once, a close requires a
// prior open, and the closing date must be strictly after the opening
// date. Errors are accumulated.
func CheckOpenClose(directives []model.Directive) error {
	var errs error
	opens := make(map[*model.Account]*model.Open)
	closes := make(map[*model.Account]*model.Close)
	for _, d := range directives {
		switch t := d.(type) {
		case *model.Open:
			if _, ok := opens[t.Account]; ok {
				errs = multierr.Append(errs, Error{Directive: t, Account: t.Account, Msg: "duplicate open directive"})
				continue
			}
			opens[t.Account] = t
		case *model.Close:
			if _, ok := closes[t.Account]; ok {
				errs = multierr.Append(errs, Error{Directive: t, Account: t.Account, Msg: "duplicate close directive"})
				continue
			}
			closes[t.Account] = t
			open, ok := opens[t.Account]
			if !ok {
				errs = multierr.Append(errs, Error{Directive: t, Account: t.Account, Msg: "closing an account which was never opened"})
				continue
			}
			if !t.Date.After(open.Date) {
				errs = multierr.Append(errs, Error{Directive: t, Account: t.Account, Msg: fmt.Sprintf("closing date is not after opening date %s", open.Date.Format("2006-01-02"))})
			}
		}
	}
	return errs
}
