package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Assessment years are written as "YYYY-YYYY" with consecutive years. The
// token sorts correctly under lexicographic comparison.
var (
	yearFullRe  = regexp.MustCompile(`^(\d{4})\s*[-_/]\s*(\d{4})$`)
	yearShortRe = regexp.MustCompile(`^(\d{4})\s*[-_/]\s*(\d{2})$`)
	yearBareRe  = regexp.MustCompile(`^(\d{4})$`)
)

// Bounds for accepted assessment years.
const (
	MinAssessmentYear = 1950
	MaxAssessmentYear = 2100
)

// NormalizeYear converts a loosely written assessment year into the
// canonical "YYYY-YYYY" token. It accepts "2022-2023", "2022_2023",
// "2022-23" and a bare start year "2022".
func NormalizeYear(s string) (string, error) {
	s = strings.TrimSpace(s)
	var start, end int
	switch {
	case yearFullRe.MatchString(s):
		m := yearFullRe.FindStringSubmatch(s)
		start, _ = strconv.Atoi(m[1])
		end, _ = strconv.Atoi(m[2])
	case yearShortRe.MatchString(s):
		m := yearShortRe.FindStringSubmatch(s)
		start, _ = strconv.Atoi(m[1])
		suffix, _ := strconv.Atoi(m[2])
		end = start/100*100 + suffix
		if end < start {
			end += 100
		}
	case yearBareRe.MatchString(s):
		start, _ = strconv.Atoi(s)
		end = start + 1
	default:
		return "", eris.Errorf("malformed year %q (expected YYYY-YYYY)", s)
	}

	if end != start+1 {
		return "", eris.Errorf("year %q must span consecutive years", s)
	}
	if start < MinAssessmentYear || end > MaxAssessmentYear {
		return "", eris.Errorf("year %q out of range", s)
	}
	return fmt.Sprintf("%04d-%04d", start, end), nil
}

// YearStart returns the start-year component of a canonical token, or -1.
func YearStart(token string) int {
	m := yearFullRe.FindStringSubmatch(token)
	if m == nil {
		return -1
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
