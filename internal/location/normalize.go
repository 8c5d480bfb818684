package location

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultAliases maps common misspellings and abbreviations (normalized) to
// the normalized canonical name.
var DefaultAliases = map[string]string{
	"andman nicobar":      "andaman and nicobar islands",
	"andaman nicobar":     "andaman and nicobar islands",
	"andaman and nicobar": "andaman and nicobar islands",
	"jammu kashmir":       "jammu and kashmir",
	"j and k":             "jammu and kashmir",
	"dadra nagar haveli":  "dadra and nagar haveli",
	"damandiu":            "daman and diu",
	"daman diu":           "daman and diu",
	"lakshdweep":          "lakshadweep",
	"kerela":              "kerala",
	"telengana":           "telangana",
	"tamilnadu":           "tamil nadu",
	"arunachal":           "arunachal pradesh",
	"orissa":              "odisha",
	"pondicherry":         "puducherry",
	"up":                  "uttar pradesh",
	"mp":                  "madhya pradesh",
	"nct of delhi":        "delhi",
}

var (
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
	punctRe      = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	foldMarks    = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Normalize standardizes a place name for matching by:
//  1. Folding diacritics and converting to lowercase
//  2. Turning underscores and hyphens into spaces and "&" into "and"
//  3. Stripping remaining punctuation
//  4. Collapsing multiple spaces into single spaces
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	if folded, _, err := transform.String(foldMarks, name); err == nil {
		name = folded
	}
	name = strings.ToLower(name)

	name = strings.NewReplacer(
		"_", " ",
		"-", " ",
		"&", " and ",
	).Replace(name)
	name = punctRe.ReplaceAllString(name, "")

	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// NormalizeWithAliases normalizes name and then maps it through aliases.
func NormalizeWithAliases(name string, aliases map[string]string) string {
	n := Normalize(name)
	if canon, ok := aliases[n]; ok {
		return canon
	}
	return n
}

var lowerWords = map[string]bool{"and": true, "of": true, "the": true}

// DisplayName title-cases names that arrive in all caps ("ANDAMAN AND
// NICOBAR ISLANDS" becomes "Andaman and Nicobar Islands"). Mixed-case names
// are returned trimmed but otherwise unchanged.
func DisplayName(name string) string {
	name = strings.TrimSpace(name)
	if !isAllUpper(name) {
		return name
	}
	words := strings.Fields(cases.Title(language.English).String(name))
	for i, w := range words {
		if i > 0 && lowerWords[strings.ToLower(w)] {
			words[i] = strings.ToLower(w)
		}
	}
	return strings.Join(words, " ")
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}
