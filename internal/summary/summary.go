// Package summary builds deterministic summaries for immediate display
// from already computed records, trends and rankings.
package summary

import (
	"fmt"
	"strings"

	"github.com/sells-group/groundwater-cli/internal/catalog"
	"github.com/sells-group/groundwater-cli/internal/classify"
	"github.com/sells-group/groundwater-cli/internal/model"
	"github.com/sells-group/groundwater-cli/internal/trend"
)

// Summary is a short structured summary.
type Summary struct {
	Title      string      `json:"title"`
	Subtitle   string      `json:"subtitle"`
	KeyMetrics []KeyMetric `json:"keyMetrics,omitempty"`
	Insights   []string    `json:"insights,omitempty"`
}

// KeyMetric is one headline value. Status is set only for extraction and
// stage metrics, and only when the stage is known.
type KeyMetric struct {
	Name   string   `json:"name"`
	Label  string   `json:"label"`
	Value  *float64 `json:"value"`
	Unit   string   `json:"unit"`
	Status *string  `json:"status"`
}

// headline metrics shown for a single record, in display order.
var headline = []string{"rainfall", "annual_recharge", "extractable", "extraction", "stage_of_extraction"}

func keyMetric(m catalog.Metric, r model.MetricRecord) KeyMetric {
	km := KeyMetric{Name: m.Name, Label: m.Label, Value: r.Value(m.Field), Unit: m.Unit}
	if m.StageRelated {
		if c, ok := classify.Record(r); ok {
			s := string(c)
			km.Status = &s
		}
	}
	return km
}

func fmtValue(v *float64, unit string) string {
	if v == nil {
		return trend.NotAvailable
	}
	if unit == catalog.UnitPercent {
		return trend.FormatValue(v) + "%"
	}
	return trend.FormatValue(v) + " " + unit
}

// ForRecord summarizes one location for one year. When focus names a
// catalog metric it is listed first.
func ForRecord(path string, node model.LocationNode, r model.MetricRecord, focus *catalog.Metric) Summary {
	s := Summary{
		Title:    fmt.Sprintf("Groundwater in %s", path),
		Subtitle: fmt.Sprintf("%s assessment, %s", node.Type.Label(), r.Year),
	}

	seen := map[string]bool{}
	if focus != nil {
		s.KeyMetrics = append(s.KeyMetrics, keyMetric(*focus, r))
		seen[focus.Name] = true
	}
	for _, name := range headline {
		if seen[name] {
			continue
		}
		m, err := catalog.Lookup(name)
		if err != nil {
			continue
		}
		s.KeyMetrics = append(s.KeyMetrics, keyMetric(m, r))
	}

	stage := r.Value(model.FieldStageOfExtraction)
	if c, ok := classify.Effective(r); ok {
		if stage != nil {
			s.Insights = append(s.Insights, fmt.Sprintf("Stage of extraction is %s, classified as %s.", fmtValue(stage, catalog.UnitPercent), c))
		} else {
			s.Insights = append(s.Insights, fmt.Sprintf("Assessed category is %s.", c))
		}
	} else {
		s.Insights = append(s.Insights, "Stage of extraction is not available for this assessment.")
	}

	extraction, extractable := r.Value(model.FieldExtractionTotal), r.Value(model.FieldExtractableTotal)
	if extraction != nil && extractable != nil && *extraction > *extractable {
		s.Insights = append(s.Insights, "Annual extraction exceeds the extractable resource.")
	}
	if agri, total := r.Value(model.FieldExtractionAgriculture), extraction; agri != nil && total != nil && *total > 0 {
		share := *agri / *total * 100
		s.Insights = append(s.Insights, fmt.Sprintf("Irrigation accounts for %s of extraction.", fmtValue(&share, catalog.UnitPercent)))
	}
	return s
}

// ForTrend summarizes a multi-year trend for one location.
func ForTrend(path string, t trend.Trend) Summary {
	s := Summary{
		Title:    fmt.Sprintf("%s in %s", t.Metric.Label, path),
		Subtitle: fmt.Sprintf("%s to %s (%d years)", t.StartYear, t.EndYear, len(t.Rows)),
	}
	if len(t.Rows) == 0 {
		return s
	}

	first, last := t.Rows[0], t.Rows[len(t.Rows)-1]
	km := KeyMetric{Name: t.Metric.Name, Label: t.Metric.Label, Value: last.Value, Unit: t.Metric.Unit}
	if t.Metric.StageRelated && last.Stage != nil {
		if c, ok := classify.Classify(last.Stage); ok {
			st := string(c)
			km.Status = &st
		}
	}
	s.KeyMetrics = append(s.KeyMetrics, km)

	s.Insights = append(s.Insights, fmt.Sprintf("%s changed from %s to %s (%s).",
		t.Metric.Label, fmtValue(first.Value, t.Metric.Unit), fmtValue(last.Value, t.Metric.Unit), t.PercentChange))
	if t.OverallDirection != trend.NotAvailable {
		s.Insights = append(s.Insights, fmt.Sprintf("Overall the stage of extraction is %s.", strings.ToLower(t.OverallDirection)))
	}
	for _, c := range t.Changes {
		if c.From == "" || c.To == "" {
			continue
		}
		s.Insights = append(s.Insights, fmt.Sprintf("Category moved from %s to %s in %s.", c.From, c.To, c.Year))
	}
	return s
}

// Compared is one location in a comparison.
type Compared struct {
	Name   string
	Record model.MetricRecord
}

// ForComparison summarizes the latest record of several locations for m.
func ForComparison(m catalog.Metric, year string, items []Compared) Summary {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	s := Summary{
		Title:    fmt.Sprintf("%s: %s", m.Label, strings.Join(names, " vs ")),
		Subtitle: year,
	}

	var hiName, loName string
	var hi, lo *float64
	for _, it := range items {
		km := keyMetric(m, it.Record)
		km.Label = it.Name
		s.KeyMetrics = append(s.KeyMetrics, km)
		v := km.Value
		if v == nil {
			s.Insights = append(s.Insights, fmt.Sprintf("No %s data for %s.", strings.ToLower(m.Label), it.Name))
			continue
		}
		if hi == nil || *v > *hi {
			hi, hiName = v, it.Name
		}
		if lo == nil || *v < *lo {
			lo, loName = v, it.Name
		}
	}
	if hi != nil && lo != nil && hiName != loName {
		s.Insights = append(s.Insights, fmt.Sprintf("%s is highest in %s (%s) and lowest in %s (%s).",
			m.Label, hiName, fmtValue(hi, m.Unit), loName, fmtValue(lo, m.Unit)))
	}
	return s
}

// ForRanking summarizes a ranked set.
func ForRanking(m catalog.Metric, typ model.LocationType, order trend.Order, window string, ranked []trend.Ranked) Summary {
	direction := "Highest"
	if order == trend.OrderAsc {
		direction = "Lowest"
	}
	s := Summary{
		Title:    fmt.Sprintf("%s %s by %s", direction, plural(typ), strings.ToLower(m.Label)),
		Subtitle: window,
	}
	if len(ranked) == 0 {
		return s
	}

	top := ranked[0]
	v := top.Average
	km := KeyMetric{Name: m.Name, Label: top.Node.Name, Value: &v, Unit: m.Unit}
	if m.StageRelated && top.Category != "" {
		st := top.Category
		km.Status = &st
	}
	s.KeyMetrics = append(s.KeyMetrics, km)
	s.Insights = append(s.Insights, fmt.Sprintf("%s ranks first with %s.", top.Node.Name, fmtValue(&v, m.Unit)))

	breakdown := trend.CategoryBreakdown(ranked)
	if n := breakdown[model.CategoryOverExploited]; n > 0 {
		s.Insights = append(s.Insights, fmt.Sprintf("%d of %d listed are over-exploited.", n, len(ranked)))
	}
	if top.Max != top.Min {
		s.Insights = append(s.Insights, fmt.Sprintf("%s ranged from %s to %s over the window.",
			top.Node.Name, fmtValue(&top.Min, m.Unit), fmtValue(&top.Max, m.Unit)))
	}
	return s
}

// ForChildren summarizes a child listing.
func ForChildren(parentPath string, childType model.LocationType, count int) Summary {
	return Summary{
		Title:    fmt.Sprintf("%s in %s", plural(childType), parentPath),
		Subtitle: fmt.Sprintf("%d found", count),
	}
}

func plural(t model.LocationType) string {
	switch t {
	case model.TypeCountry:
		return "Countries"
	case "":
		return "Locations"
	default:
		return t.Label() + "s"
	}
}
