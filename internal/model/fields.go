package model

// Field is a canonical numeric field of a MetricRecord.
type Field string

// Area splits used by most assessment tables.
const (
	SplitCommand     = "command"
	SplitNonCommand  = "non_command"
	SplitPoorQuality = "poor_quality"
	SplitTotal       = "total"
)

var splits = []string{SplitCommand, SplitNonCommand, SplitPoorQuality, SplitTotal}

// Fields referenced directly by the engine.
const (
	FieldRainfallTotal           Field = "rainfall_total"
	FieldAreaTotal               Field = "area_total"
	FieldRechargeRainfallTotal   Field = "recharge_rainfall_total"
	FieldRechargeTotal           Field = "gross_recharge_total"
	FieldNaturalDischargeTotal   Field = "natural_discharge_total"
	FieldAnnualRechargeTotal     Field = "annual_recharge_total"
	FieldEnvironmentalFlows      Field = "environmental_flows"
	FieldExtractableTotal        Field = "extractable_total"
	FieldExtractionAgriculture   Field = "extraction_agriculture_total"
	FieldExtractionDomestic      Field = "extraction_domestic_total"
	FieldExtractionIndustry      Field = "extraction_industry_total"
	FieldExtractionTotal         Field = "gross_extraction_total"
	FieldStageOfExtraction       Field = "stage_of_extraction_total"
	FieldFutureAvailabilityTotal Field = "future_availability_total"
)

// fieldGroups describes the record layout. Groups with split=true expand to
// one field per area split.
var fieldGroups = []struct {
	prefix string
	split  bool
}{
	{"rainfall", true},
	{"area_recharge_worthy", true},
	{"area_hilly", false},
	{"area_total", false},
	{"recharge_rainfall", true},
	{"recharge_canal", true},
	{"recharge_surface_irrigation", true},
	{"recharge_gw_irrigation", true},
	{"recharge_water_body", true},
	{"recharge_artificial_structure", true},
	{"gross_recharge", true},
	{"baseflow_lateral", false},
	{"baseflow_vertical", false},
	{"evaporation", false},
	{"transpiration", false},
	{"evapotranspiration", false},
	{"natural_discharge_total", false},
	{"annual_recharge", true},
	{"environmental_flows", false},
	{"extractable", true},
	{"extraction_agriculture", true},
	{"extraction_domestic", true},
	{"extraction_industry", true},
	{"gross_extraction", true},
	{"stage_of_extraction", true},
	{"future_availability", true},
	{"potential_waterlogged", false},
	{"potential_flood_prone", false},
	{"potential_spring_discharge", false},
	{"in_storage_fresh", false},
	{"in_storage_saline", false},
	{"total_availability", false},
}

var (
	allFields  = buildFields()
	fieldIndex = indexFields(allFields)
)

func buildFields() []Field {
	var out []Field
	for _, g := range fieldGroups {
		if !g.split {
			out = append(out, Field(g.prefix))
			continue
		}
		for _, s := range splits {
			out = append(out, Field(g.prefix+"_"+s))
		}
	}
	return out
}

func indexFields(fields []Field) map[Field]int {
	m := make(map[Field]int, len(fields))
	for i, f := range fields {
		m[f] = i
	}
	return m
}

// AllFields returns every canonical field in layout order. The returned
// slice is a copy.
func AllFields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

// IsKnownField reports whether f is a canonical field.
func IsKnownField(f Field) bool {
	_, ok := fieldIndex[f]
	return ok
}

// FieldOrder returns the layout position of f, or -1.
func FieldOrder(f Field) int {
	if i, ok := fieldIndex[f]; ok {
		return i
	}
	return -1
}
