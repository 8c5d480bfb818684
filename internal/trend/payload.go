package trend

import (
	"fmt"

	"github.com/sells-group/groundwater-cli/internal/catalog"
	"github.com/sells-group/groundwater-cli/internal/model"
)

// Chart types.
const (
	ChartLine = "line"
	ChartBar  = "bar"
)

// ChartConfig describes a chart for the client to render.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	ShowLegend bool          `json:"showLegend"`
}

// ChartSeries is one named series.
type ChartSeries struct {
	Name string       `json:"name"`
	Data []ChartPoint `json:"data"`
}

// ChartPoint is a single point. Value is null when unknown so gaps are not
// drawn as zero.
type ChartPoint struct {
	Label string   `json:"label"`
	Value *float64 `json:"value"`
}

// TableData describes a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "right"
}

func axisLabel(m catalog.Metric) string {
	if m.Unit == "" {
		return m.Label
	}
	return fmt.Sprintf("%s (%s)", m.Label, m.Unit)
}

// TrendChart renders t as a line chart for one location.
func TrendChart(t Trend, locationName string) ChartConfig {
	s := ChartSeries{Name: locationName}
	for _, r := range t.Rows {
		s.Data = append(s.Data, ChartPoint{Label: r.Year, Value: r.Value})
	}
	return ChartConfig{
		ChartType: ChartLine,
		Title:     fmt.Sprintf("%s in %s, %s to %s", t.Metric.Label, locationName, t.StartYear, t.EndYear),
		XAxis:     "Assessment Year",
		YAxis:     axisLabel(t.Metric),
		Series:    []ChartSeries{s},
	}
}

// TrendTable renders t as a year-by-year table.
func TrendTable(t Trend, locationName string) TableData {
	td := TableData{
		Title: fmt.Sprintf("%s trend for %s", t.Metric.Label, locationName),
		Columns: []Column{
			{Key: "year", Label: "Year", Type: "text", Align: "left"},
			{Key: "value", Label: axisLabel(t.Metric), Type: "number", Align: "right"},
			{Key: "change", Label: "Change", Type: "text", Align: "right"},
			{Key: "stage", Label: "Stage of Extraction (%)", Type: "number", Align: "right"},
			{Key: "category", Label: "Category", Type: "text", Align: "left"},
		},
	}
	for _, r := range t.Rows {
		cat := r.Category
		if cat == "" {
			cat = NotAvailable
		}
		td.Rows = append(td.Rows, []string{r.Year, FormatValue(r.Value), r.Change, FormatValue(r.Stage), cat})
	}
	return td
}

// ComparisonChart renders one series per location. A single year becomes
// a bar chart with one point per location; several years become a line
// chart.
func ComparisonChart(m catalog.Metric, names []string, series []Series) ChartConfig {
	years := map[string]bool{}
	for _, s := range series {
		for _, y := range s.Years() {
			years[y] = true
		}
	}
	if len(years) <= 1 {
		cs := ChartSeries{Name: m.Label}
		for i, s := range series {
			var v *float64
			if len(s) > 0 {
				v = s[len(s)-1].Value(m.Field)
			}
			cs.Data = append(cs.Data, ChartPoint{Label: names[i], Value: v})
		}
		return ChartConfig{
			ChartType: ChartBar,
			Title:     fmt.Sprintf("%s comparison", m.Label),
			XAxis:     "Location",
			YAxis:     axisLabel(m),
			Series:    []ChartSeries{cs},
		}
	}

	cfg := ChartConfig{
		ChartType:  ChartLine,
		Title:      fmt.Sprintf("%s comparison over time", m.Label),
		XAxis:      "Assessment Year",
		YAxis:      axisLabel(m),
		ShowLegend: true,
	}
	for i, s := range series {
		cs := ChartSeries{Name: names[i]}
		for _, r := range s {
			cs.Data = append(cs.Data, ChartPoint{Label: r.Year, Value: r.Value(m.Field)})
		}
		cfg.Series = append(cfg.Series, cs)
	}
	return cfg
}

// RankingChart renders ranked averages as a bar chart.
func RankingChart(m catalog.Metric, ranked []Ranked, window string) ChartConfig {
	cs := ChartSeries{Name: m.Label}
	for _, r := range ranked {
		v := r.Average
		cs.Data = append(cs.Data, ChartPoint{Label: r.Node.Name, Value: &v})
	}
	return ChartConfig{
		ChartType: ChartBar,
		Title:     fmt.Sprintf("%s ranking, %s", m.Label, window),
		XAxis:     "Location",
		YAxis:     axisLabel(m),
		Series:    []ChartSeries{cs},
	}
}

// RankingTable renders ranked entries with their window statistics.
func RankingTable(m catalog.Metric, ranked []Ranked) TableData {
	td := TableData{
		Title: fmt.Sprintf("%s ranking", m.Label),
		Columns: []Column{
			{Key: "rank", Label: "Rank", Type: "number", Align: "right"},
			{Key: "location", Label: "Location", Type: "text", Align: "left"},
			{Key: "average", Label: "Average", Type: "number", Align: "right"},
			{Key: "min", Label: "Min", Type: "number", Align: "right"},
			{Key: "max", Label: "Max", Type: "number", Align: "right"},
			{Key: "category", Label: "Category", Type: "text", Align: "left"},
		},
	}
	for _, r := range ranked {
		avg, lo, hi := r.Average, r.Min, r.Max
		cat := r.Category
		if cat == "" {
			cat = NotAvailable
		}
		td.Rows = append(td.Rows, []string{
			fmt.Sprintf("%d", r.Rank), r.Node.Name, FormatValue(&avg), FormatValue(&lo), FormatValue(&hi), cat,
		})
	}
	return td
}

// CategoryBreakdown counts locations per category across ranked entries,
// keyed by category label.
func CategoryBreakdown(ranked []Ranked) map[model.Category]int {
	out := make(map[model.Category]int)
	for _, r := range ranked {
		if r.Category != "" {
			out[model.Category(r.Category)]++
		}
	}
	return out
}
