package engine

import (
	"context"
	"strings"

	"github.com/sells-group/groundwater-cli/internal/catalog"
	"github.com/sells-group/groundwater-cli/internal/model"
	"github.com/sells-group/groundwater-cli/internal/summary"
	"github.com/sells-group/groundwater-cli/internal/trend"
	"github.com/sells-group/groundwater-cli/internal/years"
)

// CompareRequest asks for one metric across several locations.
type CompareRequest struct {
	Names  []string     `json:"names"`
	Type   string       `json:"type,omitempty"`
	Metric string       `json:"metric,omitempty"`
	Years  years.Params `json:"years"`
}

// Compared is one location's merged records in a comparison.
type Compared struct {
	Location  Match                `json:"location"`
	Ambiguous bool                 `json:"ambiguous,omitempty"`
	Records   []model.MetricRecord `json:"records"`
}

// CompareResult holds per-location records and chart payloads.
type CompareResult struct {
	Result
	Metric       *catalog.Metric    `json:"metric,omitempty"`
	Years        []string           `json:"years,omitempty"`
	IsHistorical bool               `json:"is_historical"`
	Locations    []Compared         `json:"locations,omitempty"`
	Unresolved   []string           `json:"unresolved,omitempty"`
	Chart        *trend.ChartConfig `json:"chart,omitempty"`
	Summary      *summary.Summary   `json:"summary,omitempty"`
}

// Compare resolves every name and fetches the metric for each over the
// resolved years. Names that do not resolve are listed in Unresolved; the
// result is found when at least one location has data.
func (e *Engine) Compare(ctx context.Context, req CompareRequest) CompareResult {
	ix := e.index.Load()

	m, _, err := metricOrDefault(req.Metric)
	if err != nil {
		return CompareResult{Result: e.fail("compare", err)}
	}
	lt, err := parseType(req.Type)
	if err != nil {
		return CompareResult{Result: e.fail("compare", err)}
	}
	names := cleanNames(req.Names)
	if len(names) == 0 {
		return CompareResult{Result: e.fail("compare", model.InvalidParameter("names", "at least one location name is required"))}
	}
	if len(names) > e.cfg.MaxLimit {
		return CompareResult{Result: e.fail("compare", model.InvalidParameter("names", "at most %d locations can be compared", e.cfg.MaxLimit))}
	}
	yp, err := years.Normalize(req.Years)
	if err != nil {
		return CompareResult{Result: e.fail("compare", err)}
	}

	out := CompareResult{Metric: &m}
	var resolved []resolution
	seen := make(map[string]bool)
	for _, name := range names {
		res, _, err := resolveName(ix, name, lt, "")
		if err != nil {
			out.Unresolved = append(out.Unresolved, name)
			continue
		}
		if seen[res.Match.Node.ID] {
			continue
		}
		seen[res.Match.Node.ID] = true
		resolved = append(resolved, res)
	}
	if len(resolved) == 0 {
		out.Result = e.fail("compare", model.NotFound("none of %s matched a location", strings.Join(names, ", ")))
		return out
	}

	yr, err := e.resolveYears(ctx, yp)
	if err != nil {
		out.Result = e.fail("compare", err)
		return out
	}

	keys := make([]fetchKey, 0, len(resolved)*len(yr.Years))
	for _, res := range resolved {
		for _, y := range yr.Years {
			keys = append(keys, fetchKey{locationID: res.Match.Node.ID, year: y})
		}
	}
	got, err := e.fetchMerged(ctx, keys)
	if err != nil {
		out.Result = e.fail("compare", err)
		return out
	}

	var (
		chartNames []string
		chartData  []trend.Series
		items      []summary.Compared
		haveData   bool
	)
	for _, res := range resolved {
		c := Compared{Location: res.Match, Ambiguous: res.Ambiguous}
		for _, y := range yr.Years {
			if r, ok := got[fetchKey{locationID: res.Match.Node.ID, year: y}]; ok {
				c.Records = append(c.Records, r)
			}
		}
		haveData = haveData || len(c.Records) > 0
		out.Locations = append(out.Locations, c)

		chartNames = append(chartNames, res.Match.Name)
		chartData = append(chartData, trend.Series(c.Records))

		target := model.NewRecord(res.Match.Node.ID, yr.TargetYear)
		if r, ok := got[fetchKey{locationID: res.Match.Node.ID, year: yr.TargetYear}]; ok {
			target = r
		}
		items = append(items, summary.Compared{Name: res.Match.Name, Record: target})
	}
	if !haveData {
		out.Result = e.fail("compare", model.DataNotFound("no %s data for the requested locations and years", strings.ToLower(m.Label)))
		return out
	}

	chart := trend.ComparisonChart(m, chartNames, chartData)
	s := summary.ForComparison(m, yr.TargetYear, items)
	out.Result = found()
	out.Years = yr.Years
	out.IsHistorical = yr.IsHistorical
	out.Chart = &chart
	out.Summary = &s
	return out
}

// cleanNames trims names, splits comma lists and drops blanks.
func cleanNames(in []string) []string {
	var out []string
	for _, raw := range in {
		for _, n := range strings.Split(raw, ",") {
			if n = strings.TrimSpace(n); n != "" {
				out = append(out, n)
			}
		}
	}
	return out
}
