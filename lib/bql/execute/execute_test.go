package execute

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/padelt/beanquery/lib/bql"
	"github.com/padelt/beanquery/lib/bql/compile"
	"github.com/padelt/beanquery/lib/bql/env"
	"github.com/padelt/beanquery/lib/ledger"
	"github.com/padelt/beanquery/lib/model"
	"github.com/padelt/beanquery/lib/prices"
	"github.com/shopspring/decimal"
)

const testLedger = `2024-01-01 open Assets:Bank USD
2024-01-01 open Expenses:Food USD
2024-01-01 open Expenses:Rent USD
2024-01-01 open Expenses:Travel USD

2024-01-02 * "rent january"
  Expenses:Rent 1000 USD
  Assets:Bank -1000 USD

2024-01-03 * "groceries"
  Expenses:Food 20 USD
  Assets:Bank -20 USD

2024-01-04 * "groceries"
  Expenses:Food 30 USD
  Assets:Bank -30 USD

2024-01-05 * "train ticket" #travel
  Expenses:Travel 35 USD
  Assets:Bank -35 USD
`

func load(t *testing.T, text string) (*ledger.Ledger, *env.Context) {
	t.Helper()
	l, err := ledger.Load(text, "test.ledger", model.DefaultOptions())
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	return l, &env.Context{Registry: l.Registry, Prices: prices.Build(l.Directives)}
}

func compileQuery(t *testing.T, statement string) *compile.Query {
	t.Helper()
	stmt, err := bql.Parse(statement)
	if err != nil {
		t.Fatalf("Parse(%q) = %v", statement, err)
	}
	plan, err := compile.Compile(stmt)
	if err != nil {
		t.Fatalf("Compile(%q) = %v", statement, err)
	}
	q, ok := plan.(*compile.Query)
	if !ok {
		t.Fatalf("Compile(%q) = %T, want *compile.Query", statement, plan)
	}
	return q
}

// formatted renders result cells as strings, so that rows can be
// compared without reaching into registry-interned pointers.
func formatted(res *Result) [][]string {
	rows := make([][]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				continue
			}
			cells[i] = env.Format(v)
		}
		rows = append(rows, cells)
	}
	return rows
}

func run(t *testing.T, text, statement string) *Result {
	t.Helper()
	l, ctx := load(t, text)
	res, err := Execute(compileQuery(t, statement), ctx, l.Directives)
	if err != nil {
		t.Fatalf("Execute(%q) = %v", statement, err)
	}
	return res
}

func TestExecuteGroupedSum(t *testing.T) {
	l, ctx := load(t, testLedger)
	q := compileQuery(t, "SELECT account, sum(position) WHERE account ~ 'Expenses' GROUP BY account ORDER BY 2 DESC")

	res, err := Execute(q, ctx, l.Directives)
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}

	wantColumns := []Column{
		{Name: "account", Type: env.String},
		{Name: "sum(position)", Type: env.Position},
	}
	if diff := cmp.Diff(wantColumns, res.Columns); diff != "" {
		t.Fatalf("unexpected columns (-want/+got):\n%s", diff)
	}
	want := [][]string{
		{"Expenses:Rent", "1000 USD"},
		{"Expenses:Food", "50 USD"},
		{"Expenses:Travel", "35 USD"},
	}
	if diff := cmp.Diff(want, formatted(res)); diff != "" {
		t.Fatalf("unexpected rows (-want/+got):\n%s", diff)
	}

	// a query plan is reusable: a second run yields the same result
	again, err := Execute(q, ctx, l.Directives)
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if diff := cmp.Diff(want, formatted(again)); diff != "" {
		t.Fatalf("second run diverged (-want/+got):\n%s", diff)
	}
}

func TestExecuteMixedTargetUsesFirstRow(t *testing.T) {
	res := run(t, testLedger, "SELECT account, sum(number) + number WHERE account ~ 'Expenses' GROUP BY account ORDER BY account")

	// the bare number is taken from the first row of each group
	want := [][]string{
		{"Expenses:Food", "70"},
		{"Expenses:Rent", "2000"},
		{"Expenses:Travel", "70"},
	}
	if diff := cmp.Diff(want, formatted(res)); diff != "" {
		t.Fatalf("unexpected rows (-want/+got):\n%s", diff)
	}
}

func TestExecuteFirstLast(t *testing.T) {
	res := run(t, testLedger, "SELECT first(description), last(description) WHERE account ~ 'Expenses'")

	want := [][]string{{"rent january", "train ticket"}}
	if diff := cmp.Diff(want, formatted(res)); diff != "" {
		t.Fatalf("unexpected rows (-want/+got):\n%s", diff)
	}
}

func TestExecuteDistinct(t *testing.T) {
	res := run(t, testLedger, "SELECT DISTINCT description WHERE account ~ 'Expenses'")

	want := [][]string{{"rent january"}, {"groceries"}, {"train ticket"}}
	if diff := cmp.Diff(want, formatted(res)); diff != "" {
		t.Fatalf("unexpected rows (-want/+got):\n%s", diff)
	}
}

func TestExecuteLimit(t *testing.T) {
	res := run(t, testLedger, "SELECT account, sum(position) WHERE account ~ 'Expenses' GROUP BY account ORDER BY 2 DESC LIMIT 2")

	want := [][]string{
		{"Expenses:Rent", "1000 USD"},
		{"Expenses:Food", "50 USD"},
	}
	if diff := cmp.Diff(want, formatted(res)); diff != "" {
		t.Fatalf("unexpected rows (-want/+got):\n%s", diff)
	}
}

func TestExecuteFromFilter(t *testing.T) {
	res := run(t, testLedger, "SELECT account FROM date >= 2024-01-04 WHERE account ~ 'Expenses'")

	want := [][]string{{"Expenses:Food"}, {"Expenses:Travel"}}
	if diff := cmp.Diff(want, formatted(res)); diff != "" {
		t.Fatalf("unexpected rows (-want/+got):\n%s", diff)
	}
}

func TestExecuteDirectiveScope(t *testing.T) {
	res := run(t, testLedger, "SELECT DISTINCT type")

	want := [][]string{{"Open"}, {"Transaction"}}
	if diff := cmp.Diff(want, formatted(res)); diff != "" {
		t.Fatalf("unexpected rows (-want/+got):\n%s", diff)
	}
}

func TestExecuteBalances(t *testing.T) {
	res := run(t, testLedger, "BALANCES")

	want := [][]string{
		{"Assets:Bank", "-1085 USD"},
		{"Expenses:Food", "50 USD"},
		{"Expenses:Rent", "1000 USD"},
		{"Expenses:Travel", "35 USD"},
	}
	if diff := cmp.Diff(want, formatted(res)); diff != "" {
		t.Fatalf("unexpected rows (-want/+got):\n%s", diff)
	}
}

func TestExecuteJournal(t *testing.T) {
	res := run(t, testLedger, "JOURNAL 'Expenses.*'")

	if len(res.Columns) != 5 {
		t.Fatalf("got %d columns, want 5", len(res.Columns))
	}
	rows := formatted(res)
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	want := []string{"2024-01-02", "*", "rent january", "Expenses:Rent", "1000 USD"}
	if diff := cmp.Diff(want, rows[0]); diff != "" {
		t.Fatalf("unexpected first row (-want/+got):\n%s", diff)
	}
}

const conversionLedger = `2024-01-01 open Assets:Bank USD,CHF
2024-01-01 open Expenses:Food USD
2024-01-01 open Expenses:Travel CHF

2024-01-02 * "lunch"
  Expenses:Food 20 USD
  Assets:Bank -20 USD

2024-01-03 * "tram"
  Expenses:Travel 5 CHF
  Assets:Bank -5 CHF

2024-01-10 price USD 0.90 CHF
`

func TestExecuteConvert(t *testing.T) {
	res := run(t, conversionLedger, "SELECT account, convert(sum(position), 'CHF') WHERE account ~ 'Expenses' GROUP BY account ORDER BY account")

	if len(res.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(res.Rows))
	}
	food := res.Rows[0][1].(model.Position).Amounts()
	if len(food) != 1 || food[0].Commodity.Name() != "CHF" || !food[0].Number.Equal(decimal.RequireFromString("18")) {
		t.Errorf("converted food position = %v, want 18 CHF", food)
	}
	travel := res.Rows[1][1].(model.Position).Amounts()
	if len(travel) != 1 || travel[0].Commodity.Name() != "CHF" || !travel[0].Number.Equal(decimal.RequireFromString("5")) {
		t.Errorf("converted travel position = %v, want 5 CHF", travel)
	}
}

func TestNumberify(t *testing.T) {
	res := Numberify(run(t, conversionLedger, "BALANCES"))

	wantColumns := []Column{
		{Name: "account", Type: env.String},
		{Name: "sum(position) (CHF)", Type: env.Decimal},
		{Name: "sum(position) (USD)", Type: env.Decimal},
	}
	if diff := cmp.Diff(wantColumns, res.Columns); diff != "" {
		t.Fatalf("unexpected columns (-want/+got):\n%s", diff)
	}
	// cells without a value in the column's currency are empty
	want := [][]string{
		{"Assets:Bank", "-5", "-20"},
		{"Expenses:Food", "", "20"},
		{"Expenses:Travel", "5", ""},
	}
	if diff := cmp.Diff(want, formatted(res)); diff != "" {
		t.Fatalf("unexpected rows (-want/+got):\n%s", diff)
	}
}

func TestExecuteFaultReturnsError(t *testing.T) {
	l, ctx := load(t, testLedger)

	tests := []struct {
		statement string
		want      string
	}{
		{"SELECT date, 1 / 0", "divide by zero"},
		{"SELECT convert(position, 'chf')", `invalid commodity name "chf"`},
	}

	for _, test := range tests {
		t.Run(test.statement, func(t *testing.T) {
			_, err := Execute(compileQuery(t, test.statement), ctx, l.Directives)
			if err == nil {
				t.Fatalf("Execute(%q) succeeded, want error", test.statement)
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("Execute(%q) = %q, want error containing %q", test.statement, err, test.want)
			}
		})
	}
}

func TestExecutePrint(t *testing.T) {
	l, ctx := load(t, testLedger)
	stmt, err := bql.Parse("PRINT FROM type = 'Transaction' AND date > 2024-01-03")
	if err != nil {
		t.Fatal(err)
	}
	plan, err := compile.Compile(stmt)
	if err != nil {
		t.Fatal(err)
	}

	var b strings.Builder
	if err := ExecutePrint(plan.(*compile.PrintQuery), ctx, l.Directives, &b); err != nil {
		t.Fatalf("ExecutePrint() = %v", err)
	}

	out := b.String()
	for _, want := range []string{`2024-01-04 * "groceries"`, `2024-01-05 * "train ticket" #travel`, "Expenses:Travel"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "rent january") {
		t.Errorf("output contains a filtered directive:\n%s", out)
	}
	if got := strings.Count(out, "\n\n"); got != 1 {
		t.Errorf("got %d blank separator lines, want 1:\n%s", got, out)
	}
}
