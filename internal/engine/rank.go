package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/groundwater-cli/internal/catalog"
	"github.com/sells-group/groundwater-cli/internal/location"
	"github.com/sells-group/groundwater-cli/internal/model"
	"github.com/sells-group/groundwater-cli/internal/summary"
	"github.com/sells-group/groundwater-cli/internal/trend"
	"github.com/sells-group/groundwater-cli/internal/years"
)

// DefaultRankType is ranked when no type is given.
const DefaultRankType = model.TypeState

// RankRequest ranks locations of one type by a metric.
type RankRequest struct {
	Metric string `json:"metric"`
	Type   string `json:"type,omitempty"`
	Order  string `json:"order,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	// Within restricts candidates to descendants of the named location.
	Within string       `json:"within,omitempty"`
	Years  years.Params `json:"years"`
}

// RankResult holds the ranked locations and payloads.
type RankResult struct {
	Result
	Metric    *catalog.Metric        `json:"metric,omitempty"`
	Type      model.LocationType     `json:"type,omitempty"`
	Order     trend.Order            `json:"order,omitempty"`
	Within    *Match                 `json:"within,omitempty"`
	Years     []string               `json:"years,omitempty"`
	Window    string                 `json:"window,omitempty"`
	Ranked    []trend.Ranked         `json:"ranked,omitempty"`
	Breakdown map[model.Category]int `json:"category_breakdown,omitempty"`
	Chart     *trend.ChartConfig     `json:"chart,omitempty"`
	Table     *trend.TableData       `json:"table,omitempty"`
	Summary   *summary.Summary       `json:"summary,omitempty"`
}

// Rank averages metric over the resolved years for every location of the
// requested type and returns the top entries in order.
func (e *Engine) Rank(ctx context.Context, req RankRequest) RankResult {
	ix := e.index.Load()

	if strings.TrimSpace(req.Metric) == "" {
		return RankResult{Result: e.fail("rank", model.InvalidParameter("metric", "a metric is required (valid: %s)", strings.Join(catalog.ValidMetrics(), ", ")))}
	}
	m, err := catalog.Lookup(req.Metric)
	if err != nil {
		return RankResult{Result: e.fail("rank", err)}
	}
	lt, err := parseType(req.Type)
	if err != nil {
		return RankResult{Result: e.fail("rank", err)}
	}
	if lt == "" {
		lt = DefaultRankType
	}
	order, err := trend.ParseOrder(req.Order)
	if err != nil {
		return RankResult{Result: e.fail("rank", err)}
	}
	limit, err := e.limit(req.Limit)
	if err != nil {
		return RankResult{Result: e.fail("rank", err)}
	}
	yp, err := years.Normalize(req.Years)
	if err != nil {
		return RankResult{Result: e.fail("rank", err)}
	}

	out := RankResult{Metric: &m, Type: lt, Order: order}

	nodes := ix.Nodes(lt)
	if strings.TrimSpace(req.Within) != "" {
		within, err := resolveAncestor(ix, req.Within, lt)
		if err != nil {
			out.Result = e.fail("rank", err)
			return out
		}
		out.Within = &within.Match
		nodes = ix.Descendants(within.Match.Node.ID, lt)
	}
	if len(nodes) == 0 {
		out.Result = e.fail("rank", model.NotFound("no %s locations to rank", strings.ToLower(lt.Label())))
		return out
	}

	yr, err := e.resolveYears(ctx, yp)
	if err != nil {
		out.Result = e.fail("rank", err)
		return out
	}

	keys := make([]fetchKey, 0, len(nodes)*len(yr.Years))
	for _, n := range nodes {
		for _, y := range yr.Years {
			keys = append(keys, fetchKey{locationID: n.ID, year: y})
		}
	}
	got, err := e.fetchMerged(ctx, keys)
	if err != nil {
		out.Result = e.fail("rank", err)
		return out
	}

	in := make([]trend.LocationSeries, 0, len(nodes))
	for _, n := range nodes {
		display := n
		display.Name = location.DisplayName(n.Name)
		ls := trend.LocationSeries{Node: display}
		for _, y := range yr.Years {
			if r, ok := got[fetchKey{locationID: n.ID, year: y}]; ok {
				ls.Series = append(ls.Series, r)
			}
		}
		in = append(in, ls)
	}

	window := windowLabel(yr)
	ranked := trend.RankWindow(in, m.Field, order, limit)
	if len(ranked) == 0 {
		out.Result = e.fail("rank", model.DataNotFound("no %s data for %s locations in %s", strings.ToLower(m.Label), strings.ToLower(lt.Label()), window))
		return out
	}

	chart := trend.RankingChart(m, ranked, window)
	table := trend.RankingTable(m, ranked)
	s := summary.ForRanking(m, lt, order, window, ranked)
	out.Result = found()
	out.Years = yr.Years
	out.Window = window
	out.Ranked = ranked
	out.Breakdown = trend.CategoryBreakdown(ranked)
	out.Chart = &chart
	out.Table = &table
	out.Summary = &s
	return out
}

// limit applies the configured default and cap.
func (e *Engine) limit(n int) (int, error) {
	switch {
	case n < 0:
		return 0, model.InvalidParameter("limit", "must not be negative, got %d", n)
	case n == 0:
		return e.cfg.DefaultLimit, nil
	case n > e.cfg.MaxLimit:
		return e.cfg.MaxLimit, nil
	default:
		return n, nil
	}
}

// resolveAncestor resolves name among the levels above typ.
func resolveAncestor(ix *location.Index, name string, typ model.LocationType) (resolution, error) {
	res, cs, err := resolveName(ix, name, "", "")
	if err != nil {
		return resolution{}, err
	}
	if res.Match.Node.Type.Depth() < typ.Depth() {
		return res, nil
	}
	for _, c := range cs[1:] {
		if c.Node.Type.Depth() < typ.Depth() {
			return resolution{Match: newMatch(ix, c)}, nil
		}
	}
	return resolution{}, model.NotFound("no location above %s level matching %q", strings.ToLower(typ.Label()), name)
}

func windowLabel(r years.Resolution) string {
	if len(r.Years) <= 1 {
		return r.TargetYear
	}
	return fmt.Sprintf("%s to %s", r.Years[0], r.TargetYear)
}
