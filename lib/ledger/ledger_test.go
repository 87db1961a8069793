package ledger

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/padelt/beanquery/lib/model"
	"github.com/shopspring/decimal"
)

func date(s string) time.Time {
	res, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return res
}

func TestFromDirectivesSortsByDateAndKind(t *testing.T) {
	reg := model.NewRegistry()
	bank := reg.Account("Assets:Bank")
	var (
		cls   = &model.Close{Date: date("2024-01-02"), Account: bank}
		price = &model.Price{Date: date("2024-01-02"), Commodity: reg.Commodity("USD"), Target: reg.Commodity("CHF"), Price: decimal.NewFromInt(1)}
		open  = &model.Open{Date: date("2024-01-02"), Account: bank}
		txn   = &model.Transaction{Date: date("2024-01-01"), Flag: "*"}
	)

	l := FromDirectives(reg, []model.Directive{cls, price, open, txn})

	var kinds []string
	for _, d := range l.Directives {
		kinds = append(kinds, model.Kind(d))
	}
	// earlier date first, then openings before activity before closings
	want := []string{"Transaction", "Open", "Price", "Close"}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("unexpected order (-want/+got):\n%s", diff)
	}
}

func TestLoadKeepsDirectivesOnError(t *testing.T) {
	text := `2024-01-02 open Assets:Bank
2024-01-01 bogus
`
	l, err := Load(text, "test.ledger", model.DefaultOptions())

	if err == nil {
		t.Error("Load() succeeded, want error")
	}
	if len(l.Directives) != 1 {
		t.Errorf("got %d directives, want 1", len(l.Directives))
	}
}

func TestTransactions(t *testing.T) {
	text := `2024-01-01 open Assets:Bank
2024-01-01 open Expenses:Food

2024-01-02 * "lunch"
  Expenses:Food 15 USD
  Assets:Bank -15 USD
`
	l, err := Load(text, "test.ledger", model.DefaultOptions())
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}

	txns := l.Transactions()
	if len(txns) != 1 || txns[0].Description != "lunch" {
		t.Errorf("Transactions() = %v, want the lunch transaction", txns)
	}
}
