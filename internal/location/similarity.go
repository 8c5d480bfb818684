package location

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// maxFuzzyScore caps non-exact matches so that an exact normalized match
// always ranks strictly above any approximate one.
const maxFuzzyScore = 0.99

// term is a precomputed matching form of a normalized name.
type term struct {
	norm   string
	sorted string
	grams  map[string]struct{}
}

func newTerm(normalized string) term {
	return term{
		norm:   normalized,
		sorted: tokenSort(normalized),
		grams:  trigrams(normalized),
	}
}

// Similarity scores two raw names in [0,1].
func Similarity(a, b string) float64 {
	return score(newTerm(Normalize(a)), newTerm(Normalize(b)))
}

// score returns 1 for identical normalized forms and otherwise the larger
// of the token-sort edit similarity and the trigram Jaccard index, capped
// below 1.
func score(a, b term) float64 {
	if a.norm == "" || b.norm == "" {
		return 0
	}
	if a.norm == b.norm {
		return 1
	}
	s := levenshtein.Similarity(a.sorted, b.sorted, nil)
	if j := jaccard(a.grams, b.grams); j > s {
		s = j
	}
	if s > maxFuzzyScore {
		s = maxFuzzyScore
	}
	return s
}

func tokenSort(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// trigrams returns the set of rune trigrams of s padded with one space on
// each side, so short names still produce grams.
func trigrams(s string) map[string]struct{} {
	r := []rune(" " + s + " ")
	out := make(map[string]struct{}, len(r))
	for i := 0; i+3 <= len(r); i++ {
		out[string(r[i:i+3])] = struct{}{}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for g := range small {
		if _, ok := large[g]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
