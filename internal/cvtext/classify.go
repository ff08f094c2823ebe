package cvtext

import (
	"strings"
	"unicode/utf8"
)

// LineKind is the role a single line of CV text plays in the markdown output.
type LineKind int

const (
	KindProse LineKind = iota
	KindHeader
	KindContact
	KindDate
	KindBullet
)

func (k LineKind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindContact:
		return "contact"
	case KindDate:
		return "date"
	case KindBullet:
		return "bullet"
	default:
		return "prose"
	}
}

// maxDateLineRunes keeps sentences that merely mention a year out of the date class.
const maxDateLineRunes = 60

// State is what the converter remembers about the lines it has already emitted.
type State struct {
	CurrentSection        string
	CurrentType           SectionType
	PreviousLineWasHeader bool
	InBulletList          bool
	LinesInSection        int
}

// LineClass is the result of classifying one line.
type LineClass struct {
	Kind LineKind
	// Text is the line content with bullet markers or contact labels removed.
	Text string
	// Section is set for headers.
	Section SectionType
	// Field is set for contact lines.
	Field ContactField
	// ImplicitBullet marks prose that renders as a list item inside experience.
	ImplicitBullet bool
}

// ClassifyLine decides the role of a trimmed, non-empty line. Headers are
// checked first, then contact values, dates, bullets, and finally prose.
func ClassifyLine(line string, state State) LineClass {
	line = strings.TrimSpace(line)

	if section, ok := MatchSectionHeader(line); ok {
		return LineClass{Kind: KindHeader, Text: line, Section: section}
	}
	if field, value, ok := matchContactLine(line); ok {
		return LineClass{Kind: KindContact, Text: value, Field: field}
	}
	if isDateLine(line) {
		return LineClass{Kind: KindDate, Text: line}
	}
	if text, ok := stripBullet(line); ok {
		return LineClass{Kind: KindBullet, Text: text}
	}
	return LineClass{
		Kind: KindProse,
		Text: line,
		ImplicitBullet: state.CurrentType == SectionExperience &&
			!state.PreviousLineWasHeader &&
			state.LinesInSection > 0,
	}
}

// MatchSectionHeader reports whether a line is a section header: shorter than
// fifty runes, not a bullet item or contact value, and containing a known
// section keyword.
func MatchSectionHeader(line string) (SectionType, bool) {
	line = strings.TrimSpace(line)
	if line == "" || utf8.RuneCountInString(line) >= maxHeaderRunes {
		return "", false
	}
	if bulletPattern.MatchString(line) {
		return "", false
	}
	// "jane.summary@example.com" names no section.
	if _, _, ok := matchContactLine(line); ok {
		return "", false
	}
	folded := fold(line)
	for _, s := range foldedSections {
		for _, k := range s.Keywords {
			if strings.Contains(folded, k) {
				return s.Type, true
			}
		}
	}
	return "", false
}

func isDateLine(line string) bool {
	if utf8.RuneCountInString(line) > maxDateLineRunes || !yearPattern.MatchString(line) {
		return false
	}
	folded := fold(line)
	for _, p := range datePatterns {
		if p.MatchString(folded) {
			return true
		}
	}
	return false
}

// stripBullet removes a leading list marker. A marker with nothing after it is
// not treated as a bullet.
func stripBullet(line string) (string, bool) {
	loc := bulletPattern.FindStringIndex(line)
	if loc == nil {
		return line, false
	}
	rest := strings.TrimSpace(line[loc[1]:])
	if rest == "" {
		return line, false
	}
	return rest, true
}
