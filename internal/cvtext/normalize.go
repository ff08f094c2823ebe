// Package cvtext holds the heuristic text passes over extracted CV text:
// normalization, markdown rendering, section segmentation, contact and
// keyword extraction, and document metadata.
package cvtext

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	invisibleRunes = strings.NewReplacer("\u200b", "", "\u200c", "", "\u200d", "", "\ufeff", "", "\u00ad", "")
	inlineSpace    = regexp.MustCompile(`[\t\f\v\p{Zs}]+`)
)

// Normalize canonicalizes extracted text: LF line endings, NFC composition,
// single spaces inside lines, trimmed lines, at most one blank line between
// blocks, and no leading or trailing whitespace. Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = norm.NFC.String(invisibleRunes.Replace(s))

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(inlineSpace.ReplaceAllString(l, " "))
	}
	s = blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(s)
}
