// Package model defines the location hierarchy, metric records, and the
// query error taxonomy shared by the groundwater query engine.
package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// LocationType is a level in the administrative hierarchy.
type LocationType string

// Hierarchy levels, root first.
const (
	TypeCountry  LocationType = "COUNTRY"
	TypeState    LocationType = "STATE"
	TypeDistrict LocationType = "DISTRICT"
	TypeTaluk    LocationType = "TALUK"
)

// hierarchyOrder lists the levels from root to leaf.
var hierarchyOrder = []LocationType{TypeCountry, TypeState, TypeDistrict, TypeTaluk}

// MaxDepth is the number of levels in the hierarchy.
const MaxDepth = 4

// ParseLocationType parses a type name case-insensitively. "block" and
// "mandal" are accepted as taluk equivalents.
func ParseLocationType(s string) (LocationType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "COUNTRY", "NATION":
		return TypeCountry, nil
	case "STATE":
		return TypeState, nil
	case "DISTRICT":
		return TypeDistrict, nil
	case "TALUK", "BLOCK", "MANDAL", "SUBDISTRICT", "SUB-DISTRICT":
		return TypeTaluk, nil
	default:
		return "", eris.Errorf("unknown location type %q", s)
	}
}

// Depth returns the zero-based level of t (COUNTRY=0), or -1 if t is not a
// known level.
func (t LocationType) Depth() int {
	for i, lt := range hierarchyOrder {
		if lt == t {
			return i
		}
	}
	return -1
}

// Valid reports whether t is a known level.
func (t LocationType) Valid() bool {
	return t.Depth() >= 0
}

// ChildType returns the level directly below t. The second return value is
// false for TALUK and unknown types.
func (t LocationType) ChildType() (LocationType, bool) {
	d := t.Depth()
	if d < 0 || d+1 >= len(hierarchyOrder) {
		return "", false
	}
	return hierarchyOrder[d+1], true
}

// ParentType returns the level directly above t. The second return value is
// false for COUNTRY and unknown types.
func (t LocationType) ParentType() (LocationType, bool) {
	d := t.Depth()
	if d <= 0 {
		return "", false
	}
	return hierarchyOrder[d-1], true
}

// Label returns a human-readable form ("District").
func (t LocationType) Label() string {
	if t == "" {
		return ""
	}
	s := strings.ToLower(string(t))
	return strings.ToUpper(s[:1]) + s[1:]
}

// LocationNode is a node of the administrative hierarchy. Nodes are
// year-independent identities; temporal variation lives in MetricRecord.
type LocationNode struct {
	ID         string       `json:"id" yaml:"id"`
	ExternalID string       `json:"external_id,omitempty" yaml:"external_id,omitempty"`
	Name       string       `json:"name" yaml:"name"`
	Type       LocationType `json:"type" yaml:"type"`
	ParentID   *string      `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
}

// IsRoot reports whether n has no parent.
func (n LocationNode) IsRoot() bool {
	return n.ParentID == nil || *n.ParentID == ""
}

// Parent returns the parent id or "" for the root.
func (n LocationNode) Parent() string {
	if n.ParentID == nil {
		return ""
	}
	return *n.ParentID
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
