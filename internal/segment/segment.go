// Package segment recovers (title, artist) candidates from normalized document lines.
//
// The rules are heuristics over lines with no fixed grammar. False splits are
// expected; they surface later as unmatched or wrong-match outcomes and never
// as errors.
package segment

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/desertthunder/listx/internal/models"
)

// dashSeparator matches " - ", " — " and " – ".
var dashSeparator = regexp.MustCompile(`\s[-—–]\s`)

type lineKind int

const (
	// titleOnly lines may pick up an artist from the following line.
	titleOnly lineKind = iota
	// paired lines carry both fields already.
	paired
	// artistOnly lines belong to the previous candidate.
	artistOnly
)

type parsedLine struct {
	kind   lineKind
	title  string
	artist string
}

// Segment converts ordered lines into ordered candidates using one line of lookahead.
func Segment(lines []string) []models.Candidate {
	var pairs []models.Candidate

	for i := 0; i < len(lines); i++ {
		p := parseLine(lines[i])

		switch p.kind {
		case artistOnly:
			if n := len(pairs); n > 0 {
				pairs[n-1].Artist = p.artist
			}
			continue
		case paired:
			pairs = append(pairs, models.Candidate{Title: p.title, Artist: p.artist})
			continue
		}

		if i+1 < len(lines) && looksLikeArtist(lines[i+1]) {
			pairs = append(pairs, models.Candidate{Title: p.title, Artist: lines[i+1]})
			i++
			continue
		}
		pairs = append(pairs, models.Candidate{Title: p.title})
	}

	return clean(pairs)
}

// parseLine applies the single-line rules: dash split, then comma handling.
func parseLine(line string) parsedLine {
	if loc := dashSeparator.FindStringIndex(line); loc != nil {
		left := strings.TrimSpace(line[:loc[0]])
		right := strings.TrimSpace(line[loc[1]:])
		if strings.Contains(right, ",") || wordCount(right) <= 3 {
			return parsedLine{kind: paired, title: left, artist: right}
		}
		return parsedLine{kind: paired, title: right, artist: left}
	}

	if strings.Contains(line, ",") {
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		first := wordCount(parts[0])
		if first > 4 {
			return parsedLine{kind: paired, title: parts[0], artist: strings.Join(parts[1:], ", ")}
		}
		if first >= 1 && first <= 3 && isTitle(parts[0]) {
			return parsedLine{kind: artistOnly, artist: line}
		}
	}

	return parsedLine{kind: titleOnly, title: line}
}

// looksLikeArtist reports whether a following line reads as an artist credit:
// it has a comma, or 1-4 words with at least one title-cased word.
func looksLikeArtist(line string) bool {
	if strings.Contains(line, ",") {
		return true
	}
	words := strings.Fields(line)
	if len(words) < 1 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		if isTitle(w) {
			return true
		}
	}
	return false
}

func clean(pairs []models.Candidate) []models.Candidate {
	out := make([]models.Candidate, 0, len(pairs))
	for _, c := range pairs {
		c.Title = strings.TrimSpace(c.Title)
		c.Artist = strings.TrimSpace(c.Artist)
		if c.Title == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// isTitle reports whether s is title-cased: it has at least one cased rune,
// uppercase runes only follow uncased runes and lowercase runes only follow cased ones.
func isTitle(s string) bool {
	cased := false
	prevCased := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased = true
			cased = true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased = true
			cased = true
		default:
			prevCased = false
		}
	}
	return cased
}
