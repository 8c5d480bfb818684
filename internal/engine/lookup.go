package engine

import (
	"context"
	"strings"

	"github.com/sells-group/groundwater-cli/internal/catalog"
	"github.com/sells-group/groundwater-cli/internal/classify"
	"github.com/sells-group/groundwater-cli/internal/location"
	"github.com/sells-group/groundwater-cli/internal/model"
	"github.com/sells-group/groundwater-cli/internal/summary"
	"github.com/sells-group/groundwater-cli/internal/trend"
	"github.com/sells-group/groundwater-cli/internal/years"
)

// DefaultMetric is used for trends when no metric is named.
const DefaultMetric = "stage_of_extraction"

// LookupRequest asks for one location's assessment(s).
type LookupRequest struct {
	Name   string       `json:"name"`
	Type   string       `json:"type,omitempty"`
	Parent string       `json:"parent,omitempty"`
	Metric string       `json:"metric,omitempty"`
	Years  years.Params `json:"years"`
}

// LookupResult carries a single record or a historical series.
type LookupResult struct {
	Result
	Location     *Match  `json:"location,omitempty"`
	Ambiguous    bool    `json:"ambiguous,omitempty"`
	Alternatives []Match `json:"alternatives,omitempty"`

	Years        []string `json:"years,omitempty"`
	IsHistorical bool     `json:"is_historical"`

	Record   *model.MetricRecord `json:"record,omitempty"`
	Category string              `json:"category,omitempty"`

	Series []model.MetricRecord `json:"series,omitempty"`
	Trend  *trend.Trend         `json:"trend,omitempty"`
	Chart  *trend.ChartConfig   `json:"chart,omitempty"`
	Table  *trend.TableData     `json:"table,omitempty"`

	Summary *summary.Summary `json:"summary,omitempty"`
}

// resolvedQuery is the validated, request-scoped form of a lookup.
type resolvedQuery struct {
	ix     *location.Index
	res    resolution
	metric catalog.Metric
	focus  *catalog.Metric
	years  years.Params
}

// ResolveAndFetch resolves req.Name and returns the merged record for one
// year, or a trend when several years are in scope.
func (e *Engine) ResolveAndFetch(ctx context.Context, req LookupRequest) LookupResult {
	q, err := e.prepareLookup(req)
	if err != nil {
		return LookupResult{Result: e.fail("lookup", err)}
	}

	out := LookupResult{
		Location:     &q.res.Match,
		Ambiguous:    q.res.Ambiguous,
		Alternatives: q.res.Alternatives,
	}
	node := q.res.Match.Node

	var records []model.MetricRecord
	if q.years.All {
		records, err = e.fetchAllYears(ctx, node)
		if err == nil && len(records) == 0 {
			err = model.DataNotFound("no assessments are stored for %s", q.res.Match.Path)
		}
		out.IsHistorical = len(records) > 1
	} else {
		var yr years.Resolution
		yr, err = e.resolveYears(ctx, q.years)
		if err == nil {
			out.IsHistorical = yr.IsHistorical
			records, err = e.fetchSeries(ctx, node.ID, yr.Years)
		}
		if err == nil && len(records) == 0 {
			if yr.IsHistorical {
				err = model.DataNotFound("no assessments for %s between %s and %s", q.res.Match.Path, yr.Years[0], yr.TargetYear)
			} else {
				err = model.NotFound("no assessment for %s in %s", q.res.Match.Path, yr.TargetYear)
			}
		}
	}
	if err != nil {
		failed := LookupResult{Result: e.fail("lookup", err)}
		failed.Location, failed.Ambiguous, failed.Alternatives = out.Location, out.Ambiguous, out.Alternatives
		return failed
	}

	out.Result = found()
	for _, r := range records {
		out.Years = append(out.Years, r.Year)
	}

	if !out.IsHistorical {
		rec := records[len(records)-1]
		out.Record = &rec
		if c, ok := classify.Effective(rec); ok {
			out.Category = string(c)
		}
		s := summary.ForRecord(q.res.Match.Path, node, rec, q.focus)
		out.Summary = &s
		return out
	}

	series, err := trend.NewSeries(records)
	if err != nil {
		return LookupResult{Result: e.fail("lookup", err), Location: out.Location}
	}
	t := trend.Compose(series, q.metric)
	chart := trend.TrendChart(t, q.res.Match.Name)
	table := trend.TrendTable(t, q.res.Match.Name)
	s := summary.ForTrend(q.res.Match.Path, t)

	out.Series = series
	out.Trend = &t
	out.Chart = &chart
	out.Table = &table
	out.Summary = &s
	return out
}

// prepareLookup validates every parameter before any store access.
func (e *Engine) prepareLookup(req LookupRequest) (resolvedQuery, error) {
	q := resolvedQuery{ix: e.index.Load()}

	m, focus, err := metricOrDefault(req.Metric)
	if err != nil {
		return q, err
	}
	q.metric, q.focus = m, focus

	lt, err := parseType(req.Type)
	if err != nil {
		return q, err
	}
	if q.years, err = years.Normalize(req.Years); err != nil {
		return q, err
	}
	q.res, _, err = resolveName(q.ix, req.Name, lt, req.Parent)
	return q, err
}

// resolveYears resolves p against the store's available years.
func (e *Engine) resolveYears(ctx context.Context, p years.Params) (years.Resolution, error) {
	avail, err := e.availableYears(ctx)
	if err != nil {
		return years.Resolution{}, err
	}
	return years.Resolve(p, avail)
}

// metricOrDefault looks up name, falling back to DefaultMetric. focus is
// non-nil only when the caller named a metric.
func metricOrDefault(name string) (catalog.Metric, *catalog.Metric, error) {
	if strings.TrimSpace(name) == "" {
		m, err := catalog.Lookup(DefaultMetric)
		return m, nil, err
	}
	m, err := catalog.Lookup(name)
	if err != nil {
		return catalog.Metric{}, nil, err
	}
	return m, &m, nil
}
