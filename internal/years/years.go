// Package years turns query year parameters into the concrete, ordered set
// of assessment years to analyze.
package years

import (
	"sort"

	"github.com/sells-group/groundwater-cli/internal/model"
)

// Params holds the year selectors of a query. Precedence when several are
// set: All, then Specific, then From/To, then Year, then the latest year.
type Params struct {
	Year     string   `json:"year,omitempty"`
	From     string   `json:"from_year,omitempty"`
	To       string   `json:"to_year,omitempty"`
	Specific []string `json:"years,omitempty"`
	All      bool     `json:"all,omitempty"`
}

// IsZero reports whether no selector is set.
func (p Params) IsZero() bool {
	return p.Year == "" && p.From == "" && p.To == "" && len(p.Specific) == 0 && !p.All
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	IsHistorical bool     `json:"is_historical"`
	Years        []string `json:"years"`
	TargetYear   string   `json:"target_year"`
}

// Normalize validates and canonicalizes every selector in p. Failures are
// invalid-parameter errors naming the offending field.
func Normalize(p Params) (Params, error) {
	var err error
	out := Params{All: p.All}
	if out.Year, err = normalizeField("year", p.Year); err != nil {
		return Params{}, err
	}
	if out.From, err = normalizeField("fromYear", p.From); err != nil {
		return Params{}, err
	}
	if out.To, err = normalizeField("toYear", p.To); err != nil {
		return Params{}, err
	}
	for _, y := range p.Specific {
		n, err := normalizeField("years", y)
		if err != nil {
			return Params{}, err
		}
		if n != "" {
			out.Specific = append(out.Specific, n)
		}
	}
	if out.From != "" && out.To != "" && out.From > out.To {
		return Params{}, model.InvalidParameter("fromYear", "%s is after toYear %s", out.From, out.To)
	}
	return out, nil
}

func normalizeField(field, v string) (string, error) {
	if v == "" {
		return "", nil
	}
	n, err := model.NormalizeYear(v)
	if err != nil {
		return "", model.InvalidParameter(field, "%s", err.Error())
	}
	return n, nil
}

// Resolve selects years from available according to p. The result is
// strictly increasing, duplicate-free, and a subset of available.
func Resolve(p Params, available []string) (Resolution, error) {
	p, err := Normalize(p)
	if err != nil {
		return Resolution{}, err
	}
	avail := Canonical(available)
	if len(avail) == 0 {
		return Resolution{}, model.DataNotFound("no assessment years are available")
	}

	var selected []string
	switch {
	case p.All:
		selected = avail
	case len(p.Specific) > 0:
		want := make(map[string]bool, len(p.Specific))
		for _, y := range p.Specific {
			want[y] = true
		}
		for _, y := range avail {
			if want[y] {
				selected = append(selected, y)
			}
		}
		if len(selected) == 0 {
			return Resolution{}, model.DataNotFound("none of the requested years have data (available: %s to %s)", avail[0], avail[len(avail)-1])
		}
	case p.From != "" || p.To != "":
		for _, y := range avail {
			if p.From != "" && y < p.From {
				continue
			}
			if p.To != "" && y > p.To {
				continue
			}
			selected = append(selected, y)
		}
		if len(selected) == 0 {
			return Resolution{}, model.DataNotFound("no data between %s and %s", orOpen(p.From), orOpen(p.To))
		}
	case p.Year != "":
		i := sort.SearchStrings(avail, p.Year)
		if i == len(avail) || avail[i] != p.Year {
			return Resolution{}, model.DataNotFound("no data for %s (latest available is %s)", p.Year, avail[len(avail)-1])
		}
		selected = []string{p.Year}
	default:
		selected = []string{avail[len(avail)-1]}
	}

	return Resolution{
		IsHistorical: len(selected) > 1,
		Years:        selected,
		TargetYear:   selected[len(selected)-1],
	}, nil
}

func orOpen(y string) string {
	if y == "" {
		return "(open)"
	}
	return y
}

// Canonical normalizes, deduplicates and sorts year tokens, dropping any
// that cannot be parsed.
func Canonical(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, y := range in {
		n, err := model.NormalizeYear(y)
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
