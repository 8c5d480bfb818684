// Package merge collapses duplicate metric rows for the same location and
// year into one canonical record.
package merge

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sells-group/groundwater-cli/internal/model"
)

// Result is a merged record plus bookkeeping used for logging.
type Result struct {
	Record model.MetricRecord
	// Rows is the number of input rows.
	Rows int
	// Conflict is set when label fields disagreed across rows.
	Conflict bool
}

// Merge combines rows that describe the same (location, year).
//
// Numeric fields: unknown in every row stays unknown; otherwise the known
// values are summed. Sums are exact decimal sums, so the result does not
// depend on row order.
//
// Label fields (location id, year, category): the first non-empty value
// wins. When every row carries a value and they disagree, the last row wins.
// Any disagreement sets Conflict.
//
// A single row is returned unchanged. An empty input is a not-found error.
func Merge(rows []model.MetricRecord) (Result, error) {
	switch len(rows) {
	case 0:
		return Result{}, model.NotFound("no metric rows to merge")
	case 1:
		return Result{Record: rows[0], Rows: 1}, nil
	}

	sums := make(map[model.Field]decimal.Decimal)
	for _, r := range rows {
		for f, v := range r.Values {
			sums[f] = sums[f].Add(decimal.NewFromFloat(v))
		}
	}

	out := model.MetricRecord{Values: make(map[model.Field]float64, len(sums))}
	for f, d := range sums {
		out.Values[f] = d.InexactFloat64()
	}

	var conflict, c bool
	out.LocationID, c = pickLabel(rows, func(r model.MetricRecord) string { return r.LocationID })
	conflict = conflict || c
	out.Year, c = pickLabel(rows, func(r model.MetricRecord) string { return r.Year })
	conflict = conflict || c
	out.Category, c = pickLabel(rows, func(r model.MetricRecord) string { return r.Category })
	conflict = conflict || c

	return Result{Record: out, Rows: len(rows), Conflict: conflict}, nil
}

func pickLabel(rows []model.MetricRecord, get func(model.MetricRecord) string) (string, bool) {
	first, last := "", ""
	present := 0
	distinct := make(map[string]struct{})
	for _, r := range rows {
		v := get(r)
		if v == "" {
			continue
		}
		if first == "" {
			first = v
		}
		last = v
		present++
		distinct[v] = struct{}{}
	}
	conflict := len(distinct) > 1
	if present == len(rows) {
		return last, conflict
	}
	return first, conflict
}

// Key identifies a canonical record.
type Key struct {
	LocationID string
	Year       string
}

// All groups rows by (location, year), merges each group, and returns the
// results ordered by location id then year.
func All(rows []model.MetricRecord) []Result {
	groups := make(map[Key][]model.MetricRecord)
	var keys []Key
	for _, r := range rows {
		k := Key{LocationID: r.LocationID, Year: r.Year}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], r)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].LocationID != keys[j].LocationID {
			return keys[i].LocationID < keys[j].LocationID
		}
		return keys[i].Year < keys[j].Year
	})

	out := make([]Result, 0, len(keys))
	for _, k := range keys {
		res, err := Merge(groups[k])
		if err != nil {
			continue
		}
		out = append(out, res)
	}
	return out
}
