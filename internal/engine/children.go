package engine

import (
	"context"
	"sort"
	"strings"

	"github.com/sells-group/groundwater-cli/internal/location"
	"github.com/sells-group/groundwater-cli/internal/model"
	"github.com/sells-group/groundwater-cli/internal/summary"
)

// ChildrenRequest lists locations of Type below Parent. An empty Type lists
// the direct children of Parent; an empty Parent lists from the root.
type ChildrenRequest struct {
	Type   string `json:"type,omitempty"`
	Parent string `json:"parent,omitempty"`
}

// ChildNode is a listed location with its display name.
type ChildNode struct {
	Node model.LocationNode `json:"location"`
	Name string             `json:"name"`
}

// ChildrenResult lists locations under a parent.
type ChildrenResult struct {
	Result
	Parent  *Match             `json:"parent,omitempty"`
	Type    model.LocationType `json:"type,omitempty"`
	Nodes   []ChildNode        `json:"nodes,omitempty"`
	Summary *summary.Summary   `json:"summary,omitempty"`
}

// ListChildren lists locations by type, optionally scoped to a parent.
func (e *Engine) ListChildren(_ context.Context, req ChildrenRequest) ChildrenResult {
	ix := e.index.Load()

	lt, err := parseType(req.Type)
	if err != nil {
		return ChildrenResult{Result: e.fail("children", err)}
	}

	var parent *Match
	switch {
	case strings.TrimSpace(req.Parent) != "":
		var res resolution
		if lt == "" {
			res, _, err = resolveName(ix, req.Parent, "", "")
		} else {
			res, err = resolveAncestor(ix, req.Parent, lt)
		}
		if err != nil {
			return ChildrenResult{Result: e.fail("children", err)}
		}
		parent = &res.Match
	case lt != model.TypeCountry:
		root, ok := ix.Root()
		if !ok {
			return ChildrenResult{Result: e.fail("children", model.NotFound("the location hierarchy is empty"))}
		}
		parent = &Match{Node: root, Name: location.DisplayName(root.Name), Path: ix.Path(root.ID), Score: 1}
	}

	var nodes []model.LocationNode
	switch {
	case parent == nil:
		nodes = ix.Nodes(lt)
	case lt == "":
		nodes = ix.Children(parent.Node.ID)
		if ct, ok := parent.Node.Type.ChildType(); ok {
			lt = ct
		}
	default:
		nodes = ix.Descendants(parent.Node.ID, lt)
	}

	out := ChildrenResult{Parent: parent, Type: lt}
	for _, n := range nodes {
		out.Nodes = append(out.Nodes, ChildNode{Node: n, Name: location.DisplayName(n.Name)})
	}
	sort.SliceStable(out.Nodes, func(i, j int) bool { return out.Nodes[i].Name < out.Nodes[j].Name })

	if len(out.Nodes) == 0 {
		where := "the hierarchy"
		if parent != nil {
			where = parent.Path
		}
		label := "child"
		if lt != "" {
			label = strings.ToLower(lt.Label())
		}
		out.Result = e.fail("children", model.NotFound("no %s locations under %s", label, where))
		return out
	}

	path := ""
	if parent != nil {
		path = parent.Path
	}
	s := summary.ForChildren(path, lt, len(out.Nodes))
	out.Result = found()
	out.Summary = &s
	return out
}
