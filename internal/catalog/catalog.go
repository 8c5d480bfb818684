// Package catalog maps user-facing metric names to canonical record fields.
package catalog

import (
	"sort"
	"strings"

	"github.com/sells-group/groundwater-cli/internal/model"
)

// Units used by assessment tables.
const (
	UnitMillimeters   = "mm"
	UnitHectares      = "ha"
	UnitHectareMeters = "ham"
	UnitPercent       = "%"
)

// Metric describes one queryable metric.
type Metric struct {
	Name  string      `json:"name"`
	Field model.Field `json:"field"`
	Label string      `json:"label"`
	Unit  string      `json:"unit"`
	// StageRelated marks extraction and stage metrics, which carry a
	// sustainability status in summaries.
	StageRelated bool `json:"stage_related"`
}

var metrics = []Metric{
	{Name: "rainfall", Field: model.FieldRainfallTotal, Label: "Rainfall", Unit: UnitMillimeters},
	{Name: "area", Field: model.FieldAreaTotal, Label: "Geographical Area", Unit: UnitHectares},
	{Name: "rainfall_recharge", Field: model.FieldRechargeRainfallTotal, Label: "Recharge from Rainfall", Unit: UnitHectareMeters},
	{Name: "recharge", Field: model.FieldRechargeTotal, Label: "Total Groundwater Recharge", Unit: UnitHectareMeters},
	{Name: "natural_discharge", Field: model.FieldNaturalDischargeTotal, Label: "Natural Discharge", Unit: UnitHectareMeters},
	{Name: "annual_recharge", Field: model.FieldAnnualRechargeTotal, Label: "Annual Groundwater Recharge", Unit: UnitHectareMeters},
	{Name: "environmental_flows", Field: model.FieldEnvironmentalFlows, Label: "Environmental Flows", Unit: UnitHectareMeters},
	{Name: "extractable", Field: model.FieldExtractableTotal, Label: "Annual Extractable Resource", Unit: UnitHectareMeters},
	{Name: "extraction", Field: model.FieldExtractionTotal, Label: "Total Groundwater Extraction", Unit: UnitHectareMeters, StageRelated: true},
	{Name: "extraction_agriculture", Field: model.FieldExtractionAgriculture, Label: "Extraction for Irrigation", Unit: UnitHectareMeters, StageRelated: true},
	{Name: "extraction_domestic", Field: model.FieldExtractionDomestic, Label: "Extraction for Domestic Use", Unit: UnitHectareMeters, StageRelated: true},
	{Name: "extraction_industry", Field: model.FieldExtractionIndustry, Label: "Extraction for Industrial Use", Unit: UnitHectareMeters, StageRelated: true},
	{Name: "stage_of_extraction", Field: model.FieldStageOfExtraction, Label: "Stage of Extraction", Unit: UnitPercent, StageRelated: true},
	{Name: "future_availability", Field: model.FieldFutureAvailabilityTotal, Label: "Net Availability for Future Use", Unit: UnitHectareMeters},
}

var byName = func() map[string]*Metric {
	m := make(map[string]*Metric, len(metrics))
	for i := range metrics {
		m[metrics[i].Name] = &metrics[i]
	}
	return m
}()

var byField = func() map[model.Field]*Metric {
	m := make(map[model.Field]*Metric, len(metrics))
	for i := range metrics {
		m[metrics[i].Field] = &metrics[i]
	}
	return m
}()

// Canonicalize lowercases a metric name and folds spaces and hyphens to
// underscores, so "Stage of Extraction" and "stage-of-extraction" match.
func Canonicalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(name)
}

// Lookup returns the metric for name.
func Lookup(name string) (Metric, error) {
	m, ok := byName[Canonicalize(name)]
	if !ok {
		return Metric{}, model.InvalidParameter("metric", "unknown metric %q (valid: %s)", name, strings.Join(ValidMetrics(), ", "))
	}
	return *m, nil
}

// FieldOf returns the canonical field behind name.
func FieldOf(name string) (model.Field, error) {
	m, err := Lookup(name)
	if err != nil {
		return "", err
	}
	return m.Field, nil
}

// LabelOf returns the display label for name.
func LabelOf(name string) (string, error) {
	m, err := Lookup(name)
	if err != nil {
		return "", err
	}
	return m.Label, nil
}

// UnitOf returns the unit for name.
func UnitOf(name string) (string, error) {
	m, err := Lookup(name)
	if err != nil {
		return "", err
	}
	return m.Unit, nil
}

// ByField returns the metric that exposes f, or nil.
func ByField(f model.Field) *Metric {
	m, ok := byField[f]
	if !ok {
		return nil
	}
	out := *m
	return &out
}

// ValidMetrics returns every metric name, sorted.
func ValidMetrics() []string {
	names := make([]string, 0, len(metrics))
	for _, m := range metrics {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

// All returns every metric in catalog order.
func All() []Metric {
	out := make([]Metric, len(metrics))
	copy(out, metrics)
	return out
}
