// Package location resolves loosely written place names to nodes of the
// administrative hierarchy.
package location

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/groundwater-cli/internal/model"
)

// Options tunes resolution.
type Options struct {
	// Threshold is the minimum score a candidate must reach. Default: 0.6.
	Threshold float64
	// MaxCandidates caps the ranked result. Default: 10.
	MaxCandidates int
	// ParentMismatchPenalty multiplies the score of candidates whose
	// ancestors do not match the parent hint. Default: 0.5.
	ParentMismatchPenalty float64
	// Aliases maps normalized variants to normalized canonical names.
	// Nil uses DefaultAliases.
	Aliases map[string]string
}

// DefaultOptions returns the standard resolution settings.
func DefaultOptions() Options {
	return Options{
		Threshold:             0.6,
		MaxCandidates:         10,
		ParentMismatchPenalty: 0.5,
		Aliases:               DefaultAliases,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Threshold <= 0 || o.Threshold > 1 {
		o.Threshold = d.Threshold
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = d.MaxCandidates
	}
	if o.ParentMismatchPenalty <= 0 || o.ParentMismatchPenalty > 1 {
		o.ParentMismatchPenalty = d.ParentMismatchPenalty
	}
	if o.Aliases == nil {
		o.Aliases = d.Aliases
	}
	return o
}

// Candidate is a ranked resolution result.
type Candidate struct {
	Node  model.LocationNode `json:"location"`
	Score float64            `json:"score"`
	// ParentMatched is true when a parent hint was given and matched one of
	// the node's ancestors.
	ParentMatched bool `json:"parent_matched,omitempty"`

	undisambiguated int
	order           int
}

type entry struct {
	node      model.LocationNode
	term      term
	ancestors []int // nearest first
	order     int
}

// Index is an immutable search structure over the location hierarchy. It
// is safe for concurrent use; rebuilds produce a new Index.
type Index struct {
	entries  []entry
	byID     map[string]int
	children map[string][]int
	root     int
	opts     Options
}

// Build validates nodes as a rooted tree and indexes them. It fails on
// duplicate ids, unknown types, missing parents, cycles, more than one root,
// or a child whose type is not the level directly below its parent's.
func Build(nodes []model.LocationNode, opts Options) (*Index, error) {
	opts = opts.withDefaults()
	ix := &Index{
		entries:  make([]entry, len(nodes)),
		byID:     make(map[string]int, len(nodes)),
		children: make(map[string][]int),
		root:     -1,
		opts:     opts,
	}

	for i, n := range nodes {
		if n.ID == "" {
			return nil, eris.Errorf("location: node %d has empty id", i)
		}
		if !n.Type.Valid() {
			return nil, eris.Errorf("location: node %s has unknown type %q", n.ID, n.Type)
		}
		if _, dup := ix.byID[n.ID]; dup {
			return nil, eris.Errorf("location: duplicate node id %s", n.ID)
		}
		ix.byID[n.ID] = i
		ix.entries[i] = entry{
			node:  n,
			term:  newTerm(NormalizeWithAliases(n.Name, opts.Aliases)),
			order: i,
		}
	}

	for i := range ix.entries {
		n := ix.entries[i].node
		if n.IsRoot() {
			if n.Type != model.TypeCountry {
				return nil, eris.Errorf("location: root %s has type %s, want %s", n.ID, n.Type, model.TypeCountry)
			}
			if ix.root >= 0 {
				return nil, eris.Errorf("location: multiple roots (%s, %s)", ix.entries[ix.root].node.ID, n.ID)
			}
			ix.root = i
			continue
		}
		pi, ok := ix.byID[n.Parent()]
		if !ok {
			return nil, eris.Errorf("location: node %s references missing parent %s", n.ID, n.Parent())
		}
		parent := ix.entries[pi].node
		if want, _ := parent.Type.ChildType(); n.Type != want {
			return nil, eris.Errorf("location: node %s of type %s cannot be a child of %s %s", n.ID, n.Type, parent.Type, parent.ID)
		}
		ix.children[parent.ID] = append(ix.children[parent.ID], i)
	}

	for i := range ix.entries {
		anc, err := ix.walkAncestors(i)
		if err != nil {
			return nil, err
		}
		ix.entries[i].ancestors = anc
	}

	return ix, nil
}

// walkAncestors follows parent links to the root, failing on a revisit or
// a chain longer than the hierarchy.
func (ix *Index) walkAncestors(i int) ([]int, error) {
	var anc []int
	seen := map[int]bool{i: true}
	cur := ix.entries[i].node
	for !cur.IsRoot() {
		pi := ix.byID[cur.Parent()]
		if seen[pi] || len(anc) >= model.MaxDepth {
			return nil, eris.Errorf("location: cycle through node %s", ix.entries[i].node.ID)
		}
		seen[pi] = true
		anc = append(anc, pi)
		cur = ix.entries[pi].node
	}
	return anc, nil
}

// Len returns the number of indexed nodes.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Root returns the country node, if any.
func (ix *Index) Root() (model.LocationNode, bool) {
	if ix.root < 0 {
		return model.LocationNode{}, false
	}
	return ix.entries[ix.root].node, true
}

// Node returns the node with the given id.
func (ix *Index) Node(id string) (model.LocationNode, bool) {
	i, ok := ix.byID[id]
	if !ok {
		return model.LocationNode{}, false
	}
	return ix.entries[i].node, true
}

// Children returns the direct children of id in insertion order.
func (ix *Index) Children(id string) []model.LocationNode {
	idx := ix.children[id]
	out := make([]model.LocationNode, 0, len(idx))
	for _, i := range idx {
		out = append(out, ix.entries[i].node)
	}
	return out
}

// Ancestors returns the ancestors of id, nearest first.
func (ix *Index) Ancestors(id string) []model.LocationNode {
	i, ok := ix.byID[id]
	if !ok {
		return nil
	}
	out := make([]model.LocationNode, 0, len(ix.entries[i].ancestors))
	for _, a := range ix.entries[i].ancestors {
		out = append(out, ix.entries[a].node)
	}
	return out
}

// Path returns "Name, Parent, ..., Root" for display.
func (ix *Index) Path(id string) string {
	n, ok := ix.Node(id)
	if !ok {
		return ""
	}
	parts := []string{DisplayName(n.Name)}
	for _, a := range ix.Ancestors(id) {
		parts = append(parts, DisplayName(a.Name))
	}
	return strings.Join(parts, ", ")
}

// Nodes returns every node of type typ (all nodes when typ is empty) in
// insertion order.
func (ix *Index) Nodes(typ model.LocationType) []model.LocationNode {
	var out []model.LocationNode
	for _, e := range ix.entries {
		if typ == "" || e.node.Type == typ {
			out = append(out, e.node)
		}
	}
	return out
}

// Descendants returns nodes of type typ below ancestorID in insertion order.
func (ix *Index) Descendants(ancestorID string, typ model.LocationType) []model.LocationNode {
	ai, ok := ix.byID[ancestorID]
	if !ok {
		return nil
	}
	var out []model.LocationNode
	for _, e := range ix.entries {
		if typ != "" && e.node.Type != typ {
			continue
		}
		for _, a := range e.ancestors {
			if a == ai {
				out = append(out, e.node)
				break
			}
		}
	}
	return out
}

// Resolve ranks nodes against query. When typ is non-empty only nodes of
// that type are considered. A non-empty parentHint is matched against each
// candidate's ancestors; candidates with no matching ancestor have their
// score multiplied by the mismatch penalty. Candidates scoring below the
// threshold are dropped, so an empty result means not found.
//
// Ordering is deterministic: score descending, then fewest ancestors left
// undisambiguated by the hint, then shorter name, then insertion order.
func (ix *Index) Resolve(query string, typ model.LocationType, parentHint string) []Candidate {
	q := newTerm(NormalizeWithAliases(query, ix.opts.Aliases))
	if q.norm == "" {
		return nil
	}
	var hint *term
	if h := NormalizeWithAliases(parentHint, ix.opts.Aliases); h != "" {
		t := newTerm(h)
		hint = &t
	}

	var out []Candidate
	for _, e := range ix.entries {
		if typ != "" && e.node.Type != typ {
			continue
		}
		s := score(q, e.term)
		if s < ix.opts.Threshold {
			continue
		}
		c := Candidate{Node: e.node, Score: s, undisambiguated: len(e.ancestors), order: e.order}
		if hint != nil {
			if ix.ancestorMatches(e, *hint) {
				c.ParentMatched = true
				c.undisambiguated--
			} else {
				c.Score *= ix.opts.ParentMismatchPenalty
				if c.Score < ix.opts.Threshold {
					continue
				}
			}
		}
		out = append(out, c)
	}

	sortCandidates(out)
	if len(out) > ix.opts.MaxCandidates {
		out = out[:ix.opts.MaxCandidates]
	}
	return out
}

func (ix *Index) ancestorMatches(e entry, hint term) bool {
	for _, a := range e.ancestors {
		if score(hint, ix.entries[a].term) >= ix.opts.Threshold {
			return true
		}
	}
	return false
}

func sortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.undisambiguated != b.undisambiguated {
			return a.undisambiguated < b.undisambiguated
		}
		if la, lb := len(a.Node.Name), len(b.Node.Name); la != lb {
			return la < lb
		}
		return a.order < b.order
	})
}

// Ambiguous reports whether the top candidates of a hint-free resolution
// tie on score and type, and returns the tied runner-ups.
func Ambiguous(cs []Candidate, parentHint string) (bool, []Candidate) {
	if len(cs) < 2 || strings.TrimSpace(parentHint) != "" {
		return false, nil
	}
	top := cs[0]
	var tied []Candidate
	for _, c := range cs[1:] {
		if c.Score != top.Score {
			break
		}
		if c.Node.Type != top.Node.Type {
			continue
		}
		tied = append(tied, c)
	}
	return len(tied) > 0, tied
}
