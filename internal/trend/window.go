package trend

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sells-group/groundwater-cli/internal/classify"
	"github.com/sells-group/groundwater-cli/internal/model"
)

// Order is a ranking direction.
type Order string

// Ranking directions.
const (
	OrderDesc Order = "desc"
	OrderAsc  Order = "asc"
)

// ParseOrder accepts asc/desc (and "top"/"bottom" synonyms). Empty means
// descending.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", "descending", "top", "highest":
		return OrderDesc, nil
	case "asc", "ascending", "bottom", "lowest":
		return OrderAsc, nil
	default:
		return "", model.InvalidParameter("order", "must be asc or desc, got %q", s)
	}
}

// LocationSeries is the window of records for one location.
type LocationSeries struct {
	Node   model.LocationNode
	Series Series
}

// Ranked is one location's aggregate over a window.
type Ranked struct {
	Rank     int                `json:"rank"`
	Node     model.LocationNode `json:"location"`
	Average  float64            `json:"average"`
	Min      float64            `json:"min"`
	Max      float64            `json:"max"`
	Years    int                `json:"years_with_data"`
	Category string             `json:"category,omitempty"`
}

// RankWindow averages each location's known values of f over its window and
// ranks locations by average in the given order. Min and max are retained
// to convey volatility. Locations with no known value are left out. Ties
// are broken by name then id. A non-positive limit returns every entry.
func RankWindow(in []LocationSeries, f model.Field, order Order, limit int) []Ranked {
	out := make([]Ranked, 0, len(in))
	for _, ls := range in {
		sum := decimal.Zero
		n := 0
		var lo, hi float64
		for _, v := range ls.Series.Values(f) {
			if v == nil {
				continue
			}
			if n == 0 || *v < lo {
				lo = *v
			}
			if n == 0 || *v > hi {
				hi = *v
			}
			sum = sum.Add(decimal.NewFromFloat(*v))
			n++
		}
		if n == 0 {
			continue
		}
		r := Ranked{
			Node:    ls.Node,
			Average: sum.Div(decimal.NewFromInt(int64(n))).InexactFloat64(),
			Min:     lo,
			Max:     hi,
			Years:   n,
		}
		if len(ls.Series) > 0 {
			if c, ok := classify.Effective(ls.Series[len(ls.Series)-1]); ok {
				r.Category = string(c)
			}
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Average != b.Average {
			if order == OrderAsc {
				return a.Average < b.Average
			}
			return a.Average > b.Average
		}
		if a.Node.Name != b.Node.Name {
			return a.Node.Name < b.Node.Name
		}
		return a.Node.ID < b.Node.ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
