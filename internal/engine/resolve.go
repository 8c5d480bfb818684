package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/groundwater-cli/internal/location"
	"github.com/sells-group/groundwater-cli/internal/model"
)

// Match is a resolved location with its display path.
type Match struct {
	Node          model.LocationNode `json:"location"`
	Name          string             `json:"name"`
	Path          string             `json:"path"`
	Score         float64            `json:"score"`
	ParentMatched bool               `json:"parent_matched,omitempty"`
}

func newMatch(ix *location.Index, c location.Candidate) Match {
	return Match{
		Node:          c.Node,
		Name:          location.DisplayName(c.Node.Name),
		Path:          ix.Path(c.Node.ID),
		Score:         c.Score,
		ParentMatched: c.ParentMatched,
	}
}

// resolution is the outcome of resolving one name.
type resolution struct {
	Match        Match
	Ambiguous    bool
	Alternatives []Match
}

// ResolveResult lists ranked candidates for a name.
type ResolveResult struct {
	Result
	Location     *Match  `json:"location,omitempty"`
	Ambiguous    bool    `json:"ambiguous,omitempty"`
	Alternatives []Match `json:"alternatives,omitempty"`
	Candidates   []Match `json:"candidates,omitempty"`
}

// Resolve ranks locations matching name without reading metrics.
func (e *Engine) Resolve(_ context.Context, name, typ, parent string) ResolveResult {
	ix := e.index.Load()
	lt, err := parseType(typ)
	if err != nil {
		return ResolveResult{Result: e.fail("resolve", err)}
	}
	res, cs, err := resolveName(ix, name, lt, parent)
	if err != nil {
		return ResolveResult{Result: e.fail("resolve", err)}
	}

	out := ResolveResult{
		Result:       found(),
		Location:     &res.Match,
		Ambiguous:    res.Ambiguous,
		Alternatives: res.Alternatives,
	}
	for _, c := range cs {
		out.Candidates = append(out.Candidates, newMatch(ix, c))
	}
	return out
}

// resolveName resolves name against ix and reports ties.
func resolveName(ix *location.Index, name string, typ model.LocationType, parent string) (resolution, []location.Candidate, error) {
	if strings.TrimSpace(name) == "" {
		return resolution{}, nil, model.InvalidParameter("name", "a location name is required")
	}
	cs := ix.Resolve(name, typ, parent)
	if len(cs) == 0 {
		return resolution{}, nil, model.NotFound("%s", notFoundMessage(name, typ, parent))
	}

	res := resolution{Match: newMatch(ix, cs[0])}
	if amb, tied := location.Ambiguous(cs, parent); amb {
		res.Ambiguous = true
		for _, c := range tied {
			res.Alternatives = append(res.Alternatives, newMatch(ix, c))
		}
	}
	return res, cs, nil
}

func notFoundMessage(name string, typ model.LocationType, parent string) string {
	what := "location"
	if typ != "" {
		what = strings.ToLower(typ.Label())
	}
	msg := fmt.Sprintf("no %s matching %q", what, name)
	if strings.TrimSpace(parent) != "" {
		msg += fmt.Sprintf(" in %q", parent)
	}
	return msg
}

// parseType accepts an empty string as "any type".
func parseType(s string) (model.LocationType, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	lt, err := model.ParseLocationType(s)
	if err != nil {
		return "", model.InvalidParameter("type", "unknown location type %q (want COUNTRY, STATE, DISTRICT or TALUK)", s)
	}
	return lt, nil
}
