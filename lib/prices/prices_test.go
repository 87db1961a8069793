package prices

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/padelt/beanquery/lib/model"
	"github.com/shopspring/decimal"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	res, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func price(reg *model.Registry, date, base, rate, quote string) *model.Price {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return &model.Price{
		Date:      d,
		Commodity: reg.Commodity(base),
		Target:    reg.Commodity(quote),
		Price:     decimal.RequireFromString(rate),
	}
}

func TestRate(t *testing.T) {
	reg := model.NewRegistry()
	m := Build([]model.Directive{
		price(reg, "2015-01-01", "USD", "1.10", "CAD"),
	})

	tests := []struct {
		desc   string
		pair   Pair
		date   string
		want   Point
		wantOK bool
	}{
		{
			desc:   "forward rate",
			pair:   Pair{"USD", "CAD"},
			date:   "2015-06-01",
			want:   Point{Date: date(t, "2015-01-01"), Rate: decimal.RequireFromString("1.10")},
			wantOK: true,
		},
		{
			desc:   "inverse rate",
			pair:   Pair{"CAD", "USD"},
			date:   "2015-06-01",
			want:   Point{Date: date(t, "2015-01-01"), Rate: decimal.RequireFromString("0.90909090")},
			wantOK: true,
		},
		{
			desc:   "identity pair ignores stored data",
			pair:   Pair{"USD", "USD"},
			date:   "2015-06-01",
			want:   Point{Rate: decimal.NewFromInt(1)},
			wantOK: true,
		},
		{
			desc: "no point before the date",
			pair: Pair{"USD", "CAD"},
			date: "2014-12-31",
		},
		{
			desc: "unknown pair",
			pair: Pair{"USD", "CHF"},
			date: "2015-06-01",
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			got, ok := m.Rate(test.pair, date(t, test.date))
			if ok != test.wantOK {
				t.Fatalf("Rate() ok = %t, want %t", ok, test.wantOK)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Fatalf("unexpected diff (-want/+got):\n%s", diff)
			}
		})
	}
}

func TestRateZeroDateReturnsLatest(t *testing.T) {
	reg := model.NewRegistry()
	m := Build([]model.Directive{
		price(reg, "2024-01-01", "USD", "1.10", "CAD"),
		price(reg, "2024-02-01", "USD", "1.20", "CAD"),
	})

	got, ok := m.Rate(Pair{"USD", "CAD"}, time.Time{})

	if !ok {
		t.Fatal("Rate() returned no point")
	}
	want := Point{Date: date(t, "2024-02-01"), Rate: decimal.RequireFromString("1.20")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected diff (-want/+got):\n%s", diff)
	}
}

func TestLastWriteWinsPerDate(t *testing.T) {
	reg := model.NewRegistry()
	m := Build([]model.Directive{
		price(reg, "2024-01-01", "USD", "1.10", "CAD"),
		price(reg, "2024-01-01", "USD", "1.30", "CAD"),
	})

	points, ok := m.All(Pair{"USD", "CAD"})

	if !ok {
		t.Fatal("no series for USD/CAD")
	}
	want := []Point{{Date: date(t, "2024-01-01"), Rate: decimal.RequireFromString("1.30")}}
	if diff := cmp.Diff(want, points); diff != "" {
		t.Fatalf("unexpected diff (-want/+got):\n%s", diff)
	}
}

func TestInverseReconciliation(t *testing.T) {
	reg := model.NewRegistry()
	m := Build([]model.Directive{
		price(reg, "2024-01-01", "USD", "1.10", "CAD"),
		price(reg, "2024-02-01", "USD", "1.20", "CAD"),
		price(reg, "2024-03-01", "CAD", "0.80", "USD"),
	})

	if diff := cmp.Diff([]Pair{{"USD", "CAD"}}, m.ForwardPairs()); diff != "" {
		t.Fatalf("unexpected forward pairs (-want/+got):\n%s", diff)
	}
	if m.IsForward(Pair{"CAD", "USD"}) {
		t.Error("synthesized pair CAD/USD reported as forward")
	}
	points, ok := m.All(Pair{"USD", "CAD"})
	if !ok {
		t.Fatal("no series for USD/CAD")
	}
	want := []Point{
		{Date: date(t, "2024-01-01"), Rate: decimal.RequireFromString("1.10")},
		{Date: date(t, "2024-02-01"), Rate: decimal.RequireFromString("1.20")},
		{Date: date(t, "2024-03-01"), Rate: decimal.RequireFromString("1.25")},
	}
	if diff := cmp.Diff(want, points); diff != "" {
		t.Fatalf("unexpected diff (-want/+got):\n%s", diff)
	}
}

func TestInversesMatchAtEveryDate(t *testing.T) {
	reg := model.NewRegistry()
	m := Build([]model.Directive{
		price(reg, "2024-01-01", "USD", "1.10", "CAD"),
		price(reg, "2024-02-01", "USD", "1.20", "CAD"),
		price(reg, "2024-01-15", "USD", "0.90", "CHF"),
	})

	one := decimal.NewFromInt(1)
	tolerance := decimal.New(1, -6)
	for _, pair := range m.Pairs() {
		points, _ := m.All(pair)
		for _, pt := range points {
			inv, ok := m.Rate(pair.Inverse(), pt.Date)
			if !ok {
				t.Fatalf("no inverse rate for %s at %s", pair, pt.Date.Format("2006-01-02"))
			}
			if diff := pt.Rate.Mul(inv.Rate).Sub(one).Abs(); diff.GreaterThan(tolerance) {
				t.Errorf("%s: rate %s * inverse %s deviates from 1 by %s", pair, pt.Rate, inv.Rate, diff)
			}
		}
	}
}

func TestBuildBefore(t *testing.T) {
	reg := model.NewRegistry()
	m := BuildBefore([]model.Directive{
		price(reg, "2024-01-01", "USD", "1.10", "CAD"),
		price(reg, "2024-02-01", "USD", "1.20", "CAD"),
	}, date(t, "2024-02-01"))

	got, ok := m.Rate(Pair{"USD", "CAD"}, time.Time{})

	if !ok {
		t.Fatal("Rate() returned no point")
	}
	want := Point{Date: date(t, "2024-01-01"), Rate: decimal.RequireFromString("1.10")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected diff (-want/+got):\n%s", diff)
	}
}

func TestConvert(t *testing.T) {
	reg := model.NewRegistry()
	usd, cad, chf := reg.Commodity("USD"), reg.Commodity("CAD"), reg.Commodity("CHF")
	m := Build([]model.Directive{
		price(reg, "2024-01-01", "USD", "1.20", "CAD"),
	})

	got, ok := m.Convert(model.Amount{Number: decimal.NewFromInt(10), Commodity: usd}, cad)
	if !ok {
		t.Fatal("Convert() reported unconvertible")
	}
	if want := decimal.RequireFromString("12"); !got.Number.Equal(want) || got.Commodity != cad {
		t.Errorf("Convert() = %s, want %s CAD", got, want)
	}

	same, ok := m.Convert(model.Amount{Number: decimal.NewFromInt(10), Commodity: usd}, usd)
	if !ok || !same.Number.Equal(decimal.NewFromInt(10)) {
		t.Errorf("identity conversion = %s, ok = %t", same, ok)
	}

	if _, ok := m.Convert(model.Amount{Number: decimal.NewFromInt(10), Commodity: usd}, chf); ok {
		t.Error("Convert() to CHF succeeded without a rate")
	}
}

func TestMustPair(t *testing.T) {
	if got := MustPair("USD/CAD"); got != (Pair{"USD", "CAD"}) {
		t.Errorf("MustPair() = %v", got)
	}
	defer func() {
		if recover() == nil {
			t.Error("MustPair() did not panic on malformed input")
		}
	}()
	MustPair("USDCAD")
}
