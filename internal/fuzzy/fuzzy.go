// Package fuzzy scores text similarity between candidate and catalog strings.
//
// [TokenSetRatio] compares the sets of word tokens of both strings, so word
// order, repeated words and extra words on one side ("feat." credits,
// "(Deluxe Edition)") do not hurt the score.
package fuzzy

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s, strips diacritics and replaces every rune that is not a
// letter or digit with a space.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	stripped = cases.Fold().String(stripped)

	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, stripped)
}

// Tokens returns the sorted, de-duplicated folded word tokens of s.
func Tokens(s string) []string {
	fields := strings.Fields(Fold(s))
	if len(fields) == 0 {
		return nil
	}
	sort.Strings(fields)

	out := fields[:1]
	for _, f := range fields[1:] {
		if f != out[len(out)-1] {
			out = append(out, f)
		}
	}
	return out
}

// Ratio returns the normalized indel similarity of a and b in [0, 100].
func Ratio(a, b string) int {
	la, lb := len([]rune(a)), len([]rune(b))
	if la+lb == 0 {
		return 100
	}
	lcs := edlib.LCS(a, b)
	return int(math.Round(100 * float64(2*lcs) / float64(la+lb)))
}

// TokenSetRatio returns a 0-100 similarity that ignores token order and duplicates.
//
// Tokens are split into their intersection and the two differences. A shared
// token set where one side adds nothing scores 100; otherwise the best ratio of
// the intersection against each side, or of the two sides, wins. Either side
// empty scores 0.
func TokenSetRatio(a, b string) int {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	inB := make(map[string]bool, len(tb))
	for _, t := range tb {
		inB[t] = true
	}
	inA := make(map[string]bool, len(ta))
	for _, t := range ta {
		inA[t] = true
	}

	var sect, diffAB, diffBA []string
	for _, t := range ta {
		if inB[t] {
			sect = append(sect, t)
		} else {
			diffAB = append(diffAB, t)
		}
	}
	for _, t := range tb {
		if !inA[t] {
			diffBA = append(diffBA, t)
		}
	}

	if len(sect) > 0 && (len(diffAB) == 0 || len(diffBA) == 0) {
		return 100
	}

	s := strings.Join(sect, " ")
	ab := join(s, diffAB)
	ba := join(s, diffBA)

	best := Ratio(ab, ba)
	if s != "" {
		best = max(best, Ratio(s, ab), Ratio(s, ba))
	}
	return best
}

func join(sect string, diff []string) string {
	d := strings.Join(diff, " ")
	if sect == "" {
		return d
	}
	return sect + " " + d
}
