package bql

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func intp(n int) *int {
	return &n
}

func TestParse(t *testing.T) {
	tests := []struct {
		desc  string
		input string
		want  Statement
	}{
		{
			desc:  "wildcard",
			input: "SELECT *",
			want:  &Select{Wildcard: true},
		},
		{
			desc:  "full select",
			input: "SELECT DISTINCT account, sum(position) AS total FROM year(date) = 2024 WHERE account ~ 'Expenses' GROUP BY account ORDER BY 2 DESC LIMIT 10",
			want: &Select{
				Distinct: true,
				Targets: []Target{
					{Expr: &Column{Name: "account"}},
					{Expr: &Call{Name: "sum", Args: []Expr{&Column{Name: "position"}}}, As: "total"},
				},
				From: &Binary{
					Op:    OpEq,
					Left:  &Call{Name: "year", Args: []Expr{&Column{Name: "date"}}},
					Right: &Constant{Value: 2024},
				},
				Where: &Binary{
					Op:    OpMatch,
					Left:  &Column{Name: "account"},
					Right: &Constant{Value: "Expenses"},
				},
				GroupBy: []Expr{&Column{Name: "account"}},
				OrderBy: []OrderTerm{{Expr: &Constant{Value: 2}, Desc: true}},
				Limit:   intp(10),
			},
		},
		{
			desc:  "lowercase keywords",
			input: "select date, flag order by date asc, flag",
			want: &Select{
				Targets: []Target{
					{Expr: &Column{Name: "date"}},
					{Expr: &Column{Name: "flag"}},
				},
				OrderBy: []OrderTerm{
					{Expr: &Column{Name: "date"}},
					{Expr: &Column{Name: "flag"}},
				},
			},
		},
		{
			desc:  "operator precedence",
			input: "SELECT 1 + 2 * 3",
			want: &Select{
				Targets: []Target{{
					Expr: &Binary{
						Op:   OpAdd,
						Left: &Constant{Value: 1},
						Right: &Binary{
							Op:    OpMul,
							Left:  &Constant{Value: 2},
							Right: &Constant{Value: 3},
						},
					},
				}},
			},
		},
		{
			desc:  "boolean precedence and negation",
			input: "SELECT account WHERE NOT flag = '!' AND number > 0 OR description ~ 'x'",
			want: &Select{
				Targets: []Target{{Expr: &Column{Name: "account"}}},
				Where: &Binary{
					Op: OpOr,
					Left: &Binary{
						Op: OpAnd,
						Left: &Unary{
							Op: OpNot,
							Operand: &Binary{
								Op:    OpEq,
								Left:  &Column{Name: "flag"},
								Right: &Constant{Value: "!"},
							},
						},
						Right: &Binary{
							Op:    OpGt,
							Left:  &Column{Name: "number"},
							Right: &Constant{Value: 0},
						},
					},
					Right: &Binary{
						Op:    OpMatch,
						Left:  &Column{Name: "description"},
						Right: &Constant{Value: "x"},
					},
				},
			},
		},
		{
			desc:  "date literal",
			input: "SELECT account WHERE date >= 2024-01-01",
			want: &Select{
				Targets: []Target{{Expr: &Column{Name: "account"}}},
				Where: &Binary{
					Op:    OpGte,
					Left:  &Column{Name: "date"},
					Right: &Constant{Value: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
				},
			},
		},
		{
			desc:  "journal",
			input: "JOURNAL 'Assets.*' FROM year(date) = 2024",
			want: &Journal{
				Account: "Assets.*",
				From: &Binary{
					Op:    OpEq,
					Left:  &Call{Name: "year", Args: []Expr{&Column{Name: "date"}}},
					Right: &Constant{Value: 2024},
				},
			},
		},
		{
			desc:  "balances",
			input: "BALANCES",
			want:  &Balances{},
		},
		{
			desc:  "print with filter",
			input: "PRINT FROM type = 'Open'",
			want: &Print{
				From: &Binary{
					Op:    OpEq,
					Left:  &Column{Name: "type"},
					Right: &Constant{Value: "Open"},
				},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			got, err := Parse(test.input)
			if err != nil {
				t.Fatalf("Parse(%q) = %v", test.input, err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Fatalf("unexpected diff (-want/+got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		desc  string
		input string
		want  string
	}{
		{
			desc:  "empty statement",
			input: "",
			want:  "expected SELECT",
		},
		{
			desc:  "unknown statement",
			input: "EXPLAIN account",
			want:  "expected SELECT",
		},
		{
			desc:  "unterminated string",
			input: "SELECT 'abc",
			want:  "unterminated string",
		},
		{
			desc:  "missing closing paren",
			input: "SELECT sum(position",
			want:  "expected )",
		},
		{
			desc:  "trailing garbage",
			input: "SELECT account account",
			want:  "unexpected",
		},
		{
			desc:  "journal without regex",
			input: "JOURNAL",
			want:  "expected account regex",
		},
		{
			desc:  "bad limit",
			input: "SELECT account LIMIT x",
			want:  "expected limit count",
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			_, err := Parse(test.input)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", test.input)
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("Parse(%q) = %q, want error containing %q", test.input, err, test.want)
			}
		})
	}
}
