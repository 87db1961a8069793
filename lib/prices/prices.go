// Package prices builds a bi-directional database of exchange rates
// from the price directives of a ledger and answers point-in-time
// rate queries.
package prices

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/padelt/beanquery/lib/common/compare"
	"github.com/padelt/beanquery/lib/common/dict"
	"github.com/padelt/beanquery/lib/common/set"
	"github.com/padelt/beanquery/lib/model"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Pair is an ordered currency pair: one unit of Base is quoted in Quote.
type Pair struct {
	Base, Quote string
}

func (p Pair) String() string {
	return p.Base + "/" + p.Quote
}

// Inverse returns the pair with base and quote swapped.
func (p Pair) Inverse() Pair {
	return Pair{Base: p.Quote, Quote: p.Base}
}

// MustPair parses a "BASE/QUOTE" string. A malformed pair is a
// programmer error and panics.
func MustPair(s string) Pair {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		panic(fmt.Sprintf("malformed currency pair %q", s))
	}
	return Pair{Base: parts[0], Quote: parts[1]}
}

// Point is a dated rate.
type Point struct {
	Date time.Time
	Rate decimal.Decimal
}

func comparePairs(p1, p2 Pair) compare.Order {
	if o := compare.Ordered(p1.Base, p2.Base); o != compare.Equal {
		return o
	}
	return compare.Ordered(p1.Quote, p2.Quote)
}

// Map holds, for every pair, a date-deduplicated series of rates in
// strictly increasing date order. For every stored pair the inverse
// pair is stored as well, with reciprocal rates at every date. The
// forward set records which pairs were actually observed rather than
// synthesized.
type Map struct {
	series  map[Pair][]Point
	forward set.Set[Pair]
}

// Build folds all price directives into a price map.
func Build(directives []model.Directive) *Map {
	return BuildBefore(directives, time.Time{})
}

// BuildBefore folds all price directives strictly before the cutoff
// date into a price map. A zero cutoff means no cutoff. The directive
// stream must be in chronological order.
func BuildBefore(directives []model.Directive, cutoff time.Time) *Map {
	observed := make(map[Pair][]Point)
	for _, d := range directives {
		p, ok := d.(*model.Price)
		if !ok {
			continue
		}
		if !cutoff.IsZero() && !p.Date.Before(cutoff) {
			continue
		}
		pair := Pair{Base: p.Commodity.Name(), Quote: p.Target.Name()}
		observed[pair] = append(observed[pair], Point{Date: p.Date, Rate: p.Price})
	}

	// When both directions of a pair were observed, fold the side with
	// fewer observations into the richer one.
	for _, pair := range dict.SortedKeys(observed, comparePairs) {
		points, ok := observed[pair]
		if !ok {
			continue
		}
		inverse, ok := observed[pair.Inverse()]
		if !ok {
			continue
		}
		if len(points) < len(inverse) {
			pair, points, inverse = pair.Inverse(), inverse, points
		}
		for _, pt := range inverse {
			points = append(points, Point{Date: pt.Date, Rate: invert(pt.Rate)})
		}
		observed[pair] = points
		delete(observed, pair.Inverse())
	}

	m := &Map{
		series:  make(map[Pair][]Point, 2*len(observed)),
		forward: set.New[Pair](),
	}
	for pair, points := range observed {
		m.series[pair] = dedup(points)
		m.forward.Add(pair)
	}
	for pair := range m.forward {
		points := m.series[pair]
		inverted := make([]Point, len(points))
		for i, pt := range points {
			inverted[i] = Point{Date: pt.Date, Rate: invert(pt.Rate)}
		}
		m.series[pair.Inverse()] = inverted
	}
	return m
}

func invert(rate decimal.Decimal) decimal.Decimal {
	return one.Div(rate).Truncate(8)
}

// dedup sorts points by date and keeps the last point per date. The
// sort is stable, so within one date the point folded last wins.
func dedup(points []Point) []Point {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	res := points[:0]
	for i, pt := range points {
		if i+1 < len(points) && points[i+1].Date.Equal(pt.Date) {
			continue
		}
		res = append(res, pt)
	}
	return res
}

// Pairs returns all pairs, forward and synthesized, in sorted order.
func (m *Map) Pairs() []Pair {
	return dict.SortedKeys(m.series, comparePairs)
}

// ForwardPairs returns the originally observed pairs in sorted order.
func (m *Map) ForwardPairs() []Pair {
	return m.forward.Sorted(comparePairs)
}

// IsForward reports whether the pair was observed rather than synthesized.
func (m *Map) IsForward(pair Pair) bool {
	return m.forward.Has(pair)
}

// All returns the full series for the pair, in date order.
func (m *Map) All(pair Pair) ([]Point, bool) {
	points, ok := m.series[pair]
	return points, ok
}

// Rate returns the most recent point with a date not after the given
// date. A zero date requests the latest point. A pair quoting a
// currency in itself yields rate one with no date, regardless of
// stored data.
func (m *Map) Rate(pair Pair, date time.Time) (Point, bool) {
	if pair.Base == pair.Quote {
		return Point{Rate: one}, true
	}
	points, ok := m.series[pair]
	if !ok || len(points) == 0 {
		return Point{}, false
	}
	if date.IsZero() {
		return points[len(points)-1], true
	}
	// first index with a date after the requested one
	idx := sort.Search(len(points), func(i int) bool {
		return points[i].Date.After(date)
	})
	if idx == 0 {
		return Point{}, false
	}
	return points[idx-1], true
}

// Convert converts the amount into the target currency at the latest
// known rate. The second return value reports whether a conversion
// was possible; an unconvertible amount is not an error.
func (m *Map) Convert(a model.Amount, target *model.Commodity) (model.Amount, bool) {
	if a.Commodity == target {
		return a, true
	}
	pt, ok := m.Rate(Pair{Base: a.Commodity.Name(), Quote: target.Name()}, time.Time{})
	if !ok {
		return model.Amount{}, false
	}
	return model.Amount{Number: a.Number.Mul(pt.Rate).Truncate(8), Commodity: target}, true
}
