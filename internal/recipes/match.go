package recipes

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/adrg/strutil/metrics"
)

// indel is the insertion/deletion edit distance: a substitution costs two edits.
var indel = &metrics.Levenshtein{
	CaseSensitive: true,
	InsertCost:    1,
	DeleteCost:    1,
	ReplaceCost:   2,
}

// ratio is the normalized indel similarity of a and b in [0, 100].
func ratio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	dist := indel.Distance(a, b)
	return 100 * float64(total-dist) / float64(total)
}

// tokenSet splits s on whitespace into a sorted set of unique tokens.
func tokenSet(s string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range strings.Fields(s) {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// TokenSetRatio compares two strings by their token sets, ignoring order and
// duplicates. A string whose tokens are a subset of the other's scores 100.
func TokenSetRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	inB := make(map[string]struct{}, len(tb))
	for _, tok := range tb {
		inB[tok] = struct{}{}
	}
	var sect, diffAB, diffBA []string
	inSect := make(map[string]struct{})
	for _, tok := range ta {
		if _, ok := inB[tok]; ok {
			sect = append(sect, tok)
			inSect[tok] = struct{}{}
		} else {
			diffAB = append(diffAB, tok)
		}
	}
	for _, tok := range tb {
		if _, ok := inSect[tok]; !ok {
			diffBA = append(diffBA, tok)
		}
	}

	if len(sect) > 0 && (len(diffAB) == 0 || len(diffBA) == 0) {
		return 100
	}

	base := strings.Join(sect, " ")
	combinedAB := strings.TrimSpace(base + " " + strings.Join(diffAB, " "))
	combinedBA := strings.TrimSpace(base + " " + strings.Join(diffBA, " "))

	best := ratio(combinedAB, combinedBA)
	if base != "" {
		if r := ratio(base, combinedAB); r > best {
			best = r
		}
		if r := ratio(base, combinedBA); r > best {
			best = r
		}
	}
	return best
}
