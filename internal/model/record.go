package model

import (
	"math"
	"sort"
)

// MetricRecord holds the assessed metrics of one location for one year.
// A field missing from Values is unknown, which is distinct from a known
// zero.
type MetricRecord struct {
	LocationID string            `json:"location_id" yaml:"location_id"`
	Year       string            `json:"year" yaml:"year"`
	Category   string            `json:"category,omitempty" yaml:"category,omitempty"`
	Values     map[Field]float64 `json:"values" yaml:"values"`
}

// LocatedRecord pairs a record with the node it belongs to.
type LocatedRecord struct {
	Node   LocationNode `json:"location"`
	Record MetricRecord `json:"record"`
}

// NewRecord returns an empty record for (locationID, year).
func NewRecord(locationID, year string) MetricRecord {
	return MetricRecord{LocationID: locationID, Year: year, Values: make(map[Field]float64)}
}

// Known reports whether f has a value.
func (r MetricRecord) Known(f Field) bool {
	_, ok := r.Values[f]
	return ok
}

// Get returns the value of f and whether it is known.
func (r MetricRecord) Get(f Field) (float64, bool) {
	v, ok := r.Values[f]
	return v, ok
}

// Value returns a pointer to the value of f, or nil when unknown.
func (r MetricRecord) Value(f Field) *float64 {
	v, ok := r.Values[f]
	if !ok {
		return nil
	}
	return &v
}

// Set stores a known value. NaN and infinities are treated as unknown and
// clear the field.
func (r *MetricRecord) Set(f Field, v float64) {
	if r.Values == nil {
		r.Values = make(map[Field]float64)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		delete(r.Values, f)
		return
	}
	r.Values[f] = v
}

// SetPtr stores v when non-nil and clears f otherwise.
func (r *MetricRecord) SetPtr(f Field, v *float64) {
	if v == nil {
		delete(r.Values, f)
		return
	}
	r.Set(f, *v)
}

// KnownFields returns the known fields in layout order, followed by any
// non-canonical fields sorted by name.
func (r MetricRecord) KnownFields() []Field {
	out := make([]Field, 0, len(r.Values))
	for f := range r.Values {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := FieldOrder(out[i]), FieldOrder(out[j])
		switch {
		case oi >= 0 && oj >= 0:
			return oi < oj
		case oi >= 0:
			return true
		case oj >= 0:
			return false
		default:
			return out[i] < out[j]
		}
	})
	return out
}

// Clone returns a deep copy of r.
func (r MetricRecord) Clone() MetricRecord {
	c := r
	c.Values = make(map[Field]float64, len(r.Values))
	for k, v := range r.Values {
		c.Values[k] = v
	}
	return c
}
