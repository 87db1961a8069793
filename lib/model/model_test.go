package model

import (
	"testing"
	"time"

	"github.com/padelt/beanquery/lib/common/compare"
	"github.com/shopspring/decimal"
)

func amount(reg *Registry, number, commodity string) Amount {
	return Amount{Number: decimal.RequireFromString(number), Commodity: reg.Commodity(commodity)}
}

func TestPositionAdd(t *testing.T) {
	reg := NewRegistry()
	pos := NewPosition()

	pos.Add(amount(reg, "10", "USD"))
	pos.Add(amount(reg, "5", "USD"))
	pos.Add(amount(reg, "3", "CHF"))

	if got := pos[reg.Commodity("USD")]; !got.Equal(decimal.NewFromInt(15)) {
		t.Errorf("USD = %s, want 15", got)
	}
	if got, want := pos.String(), "3 CHF, 15 USD"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	// a sum reaching zero drops the commodity entirely
	pos.Add(amount(reg, "-15", "USD"))
	if _, ok := pos[reg.Commodity("USD")]; ok {
		t.Error("zero entry was not elided")
	}
	if len(pos) != 1 {
		t.Errorf("got %d entries, want 1", len(pos))
	}
}

func TestPositionEqual(t *testing.T) {
	reg := NewRegistry()
	p1, p2 := NewPosition(), NewPosition()
	p1.Add(amount(reg, "1.10", "USD"))
	p2.Add(amount(reg, "1.1", "USD"))

	if !p1.Equal(p2) {
		t.Error("value-equal positions compare unequal")
	}
	p2.Add(amount(reg, "1", "CHF"))
	if p1.Equal(p2) {
		t.Error("positions with different commodities compare equal")
	}
}

func TestPositionTotal(t *testing.T) {
	reg := NewRegistry()
	pos := NewPosition()
	pos.Add(amount(reg, "10", "USD"))
	pos.Add(amount(reg, "-4", "CHF"))

	if got := pos.Total(); !got.Equal(decimal.NewFromInt(6)) {
		t.Errorf("Total() = %s, want 6", got)
	}
}

func TestCompareDirectives(t *testing.T) {
	reg := NewRegistry()
	bank := reg.Account("Assets:Bank")
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	open := &Open{Date: day, Account: bank}
	txn := &Transaction{Date: day, Flag: "*"}
	cls := &Close{Date: day, Account: bank}
	earlier := &Transaction{Date: day.AddDate(0, 0, -1), Flag: "*"}

	if CompareDirectives(earlier, open) != compare.Smaller {
		t.Error("earlier date does not sort first")
	}
	if CompareDirectives(open, txn) != compare.Smaller {
		t.Error("open does not sort before same-day transaction")
	}
	if CompareDirectives(txn, cls) != compare.Smaller {
		t.Error("transaction does not sort before same-day close")
	}
}

func TestKind(t *testing.T) {
	reg := NewRegistry()
	bank := reg.Account("Assets:Bank")
	tests := []struct {
		directive Directive
		want      string
	}{
		{&Open{Account: bank}, "Open"},
		{&Close{Account: bank}, "Close"},
		{&Transaction{}, "Transaction"},
		{&Price{}, "Price"},
		{&Balance{Account: bank}, "Balance"},
		{&Document{Account: bank}, "Document"},
		{&Note{Account: bank}, "Note"},
	}

	for _, test := range tests {
		if got := Kind(test.directive); got != test.want {
			t.Errorf("Kind(%T) = %q, want %q", test.directive, got, test.want)
		}
	}
}

func TestParseOptions(t *testing.T) {
	o, err := ParseOptions([]byte("name_assets: Aktiven\noperating_currencies: [CHF]\n"))
	if err != nil {
		t.Fatalf("ParseOptions() = %v", err)
	}
	if o.NameAssets != "Aktiven" {
		t.Errorf("NameAssets = %q, want Aktiven", o.NameAssets)
	}
	if o.NameExpenses != "Expenses" {
		t.Errorf("NameExpenses = %q, want the default", o.NameExpenses)
	}
	if len(o.OperatingCurrencies) != 1 || o.OperatingCurrencies[0] != "CHF" {
		t.Errorf("OperatingCurrencies = %v, want [CHF]", o.OperatingCurrencies)
	}

	if _, err := ParseOptions([]byte("name_assets: Aktiven\nbogus_key: 1\n")); err == nil {
		t.Error("ParseOptions() accepted an unknown key")
	}
	if _, err := ParseOptions([]byte(`name_assets: ""`)); err == nil {
		t.Error("ParseOptions() accepted an empty type name")
	}
}
