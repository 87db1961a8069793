package model

import (
	"github.com/padelt/beanquery/lib/common/compare"
)

func CompareAccounts(a1, a2 *Account) compare.Order {
	if o := compare.Ordered(a1.accountType, a2.accountType); o != compare.Equal {
		return o
	}
	return compare.Ordered(a1.name, a2.name)
}

func CompareCommodities(c1, c2 *Commodity) compare.Order {
	return compare.Ordered(c1.name, c2.name)
}

// kindOrder fixes the order of directives sharing a date: openings
// first, then the day's activity, closings last.
func kindOrder(d Directive) int {
	switch d.(type) {
	case *Open:
		return 0
	case *Balance:
		return 1
	case *Price:
		return 2
	case *Transaction:
		return 3
	case *Document:
		return 4
	case *Note:
		return 5
	case *Close:
		return 6
	}
	return 7
}

// CompareDirectives orders directives chronologically, with a fixed
// order of kinds within the same date. Ties keep their source order
// when used with a stable sort.
func CompareDirectives(d1, d2 Directive) compare.Order {
	if o := compare.Time(Date(d1), Date(d2)); o != compare.Equal {
		return o
	}
	return compare.Ordered(kindOrder(d1), kindOrder(d2))
}
