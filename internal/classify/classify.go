// Package classify assigns sustainability categories from the stage of
// groundwater extraction.
package classify

import (
	"math"

	"github.com/sells-group/groundwater-cli/internal/model"
)

// Stage-of-extraction thresholds (percent). Each bound is inclusive.
const (
	overExploitedThreshold = 100.0
	criticalThreshold      = 90.0
	semiCriticalThreshold  = 70.0
)

// Classify returns the category for a stage-of-extraction percentage.
// Rules:
//   - Over-Exploited: stage >= 100
//   - Critical: 90 <= stage < 100
//   - Semi-Critical: 70 <= stage < 90
//   - Safe: stage < 70
//
// A nil or NaN stage yields no category.
func Classify(stage *float64) (model.Category, bool) {
	if stage == nil || math.IsNaN(*stage) {
		return "", false
	}
	switch s := *stage; {
	case s >= overExploitedThreshold:
		return model.CategoryOverExploited, true
	case s >= criticalThreshold:
		return model.CategoryCritical, true
	case s >= semiCriticalThreshold:
		return model.CategorySemiCritical, true
	default:
		return model.CategorySafe, true
	}
}

// Record classifies r by its stage-of-extraction value.
func Record(r model.MetricRecord) (model.Category, bool) {
	return Classify(r.Value(model.FieldStageOfExtraction))
}

// Effective returns the upstream category label when present, falling back
// to the classified stage value.
func Effective(r model.MetricRecord) (model.Category, bool) {
	if r.Category != "" {
		return model.Category(r.Category), true
	}
	return Record(r)
}
