package document

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var urlPattern = regexp.MustCompile(`(?i)https?://`)

// Normalize cleans raw extracted lines.
//
// Embedded newlines are split, each line is trimmed, and blank lines, lines
// containing a URL and lines of a single character are dropped. Duplicates are
// removed by first occurrence.
func Normalize(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))

	for _, chunk := range raw {
		for _, line := range strings.Split(strings.ReplaceAll(chunk, "\r\n", "\n"), "\n") {
			line = strings.TrimSpace(line)
			if !keep(line) {
				continue
			}
			if _, dup := seen[line]; dup {
				continue
			}
			seen[line] = struct{}{}
			out = append(out, line)
		}
	}
	return out
}

func keep(line string) bool {
	if utf8.RuneCountInString(line) <= 1 {
		return false
	}
	return !urlPattern.MatchString(line)
}
