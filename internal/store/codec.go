package store

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/groundwater-cli/internal/model"
)

// encodeMetrics serializes known values as a JSON object keyed by field.
func encodeMetrics(values map[model.Field]float64) (string, error) {
	if len(values) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", eris.Wrap(err, "store: encode metrics")
	}
	return string(b), nil
}

// decodeMetrics parses a metrics document. JSON nulls are unknown values and
// are left out of the record.
func decodeMetrics(r *model.MetricRecord, raw []byte) error {
	if r.Values == nil {
		r.Values = make(map[model.Field]float64)
	}
	if len(raw) == 0 {
		return nil
	}
	var values map[string]*float64
	if err := json.Unmarshal(raw, &values); err != nil {
		return eris.Wrapf(err, "store: decode metrics for %s %s", r.LocationID, r.Year)
	}
	for k, v := range values {
		r.SetPtr(model.Field(strings.ToLower(k)), v)
	}
	return nil
}
