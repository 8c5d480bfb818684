// Package trend derives change statistics, category transitions and
// chart/table payloads from year-ordered metric records.
package trend

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/groundwater-cli/internal/catalog"
	"github.com/sells-group/groundwater-cli/internal/classify"
	"github.com/sells-group/groundwater-cli/internal/model"
)

// Stage directions.
const (
	DirectionWorsening = "Worsening"
	DirectionImproving = "Improving"
)

// Series is a sequence of canonical records for one location, strictly
// increasing by assessment year.
type Series []model.MetricRecord

// NewSeries orders records by start year. Duplicate or unparseable years
// are rejected; merge duplicates first.
func NewSeries(records []model.MetricRecord) (Series, error) {
	out := make(Series, len(records))
	copy(out, records)
	for _, r := range out {
		if model.YearStart(r.Year) < 0 {
			return nil, eris.Errorf("trend: malformed year %q", r.Year)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return model.YearStart(out[i].Year) < model.YearStart(out[j].Year)
	})
	for i := 1; i < len(out); i++ {
		if model.YearStart(out[i].Year) == model.YearStart(out[i-1].Year) {
			return nil, eris.Errorf("trend: duplicate year %s", out[i].Year)
		}
	}
	return out, nil
}

// Years returns the year tokens of s.
func (s Series) Years() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = r.Year
	}
	return out
}

// Values returns the values of f across s; unknown entries are nil.
func (s Series) Values(f model.Field) []*float64 {
	out := make([]*float64, len(s))
	for i, r := range s {
		out[i] = r.Value(f)
	}
	return out
}

// Row is one year of a trend table.
type Row struct {
	Year     string   `json:"year"`
	Value    *float64 `json:"value"`
	Stage    *float64 `json:"stage_of_extraction"`
	Category string   `json:"category,omitempty"`
	// Change is the percent change from the previous year.
	Change string `json:"change"`
}

// Changepoint records a category transition.
type Changepoint struct {
	Year     string `json:"year"`
	From     string `json:"from,omitempty"`
	To       string `json:"to"`
	Severity int    `json:"severity_delta"`
}

// Trend is the composed view of a series for one metric.
type Trend struct {
	Metric           catalog.Metric `json:"metric"`
	StartYear        string         `json:"start_year"`
	EndYear          string         `json:"end_year"`
	Rows             []Row          `json:"rows"`
	Delta            *float64       `json:"delta"`
	PercentChange    string         `json:"percent_change"`
	OverallDirection string         `json:"overall_direction"`
	Changes          []Changepoint  `json:"category_changes"`
}

// Compose builds the trend of metric m over s.
func Compose(s Series, m catalog.Metric) Trend {
	t := Trend{Metric: m, PercentChange: NotAvailable, OverallDirection: NotAvailable}
	if len(s) == 0 {
		return t
	}
	t.StartYear = s[0].Year
	t.EndYear = s[len(s)-1].Year

	var prev *float64
	for i, r := range s {
		row := Row{
			Year:   r.Year,
			Value:  r.Value(m.Field),
			Stage:  r.Value(model.FieldStageOfExtraction),
			Change: NotAvailable,
		}
		if c, ok := classify.Effective(r); ok {
			row.Category = string(c)
		}
		if i > 0 {
			row.Change = PercentChange(prev, row.Value)
		}
		prev = row.Value
		t.Rows = append(t.Rows, row)
	}

	first, last := t.Rows[0].Value, t.Rows[len(t.Rows)-1].Value
	if len(s) > 1 {
		t.Delta = Delta(first, last)
		t.PercentChange = PercentChange(first, last)
	}
	t.OverallDirection = Direction(s.Values(model.FieldStageOfExtraction))
	t.Changes = Changepoints(s)
	return t
}

// Direction compares the first and last known stage values: strictly
// greater at the end is Worsening, anything else Improving. Fewer than two
// known values yields NotAvailable.
func Direction(stages []*float64) string {
	var first, last *float64
	known := 0
	for _, v := range stages {
		if v == nil {
			continue
		}
		if first == nil {
			first = v
		}
		last = v
		known++
	}
	if known < 2 {
		return NotAvailable
	}
	if *last > *first {
		return DirectionWorsening
	}
	return DirectionImproving
}

// Changepoints walks s and emits an entry whenever the effective category
// differs from the previous year's. The first year is always emitted.
// Years with no category are reported with an empty To.
func Changepoints(s Series) []Changepoint {
	var out []Changepoint
	prev := ""
	for i, r := range s {
		cur := ""
		if c, ok := classify.Effective(r); ok {
			cur = string(c)
		}
		if i > 0 && cur == prev {
			continue
		}
		out = append(out, Changepoint{
			Year:     r.Year,
			From:     prev,
			To:       cur,
			Severity: model.Category(cur).Severity() - model.Category(prev).Severity(),
		})
		prev = cur
	}
	return out
}
