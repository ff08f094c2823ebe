package cvtext

import (
	"fmt"
	"regexp"
	"strings"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// ToMarkdown renders normalized CV text as markdown. Every non-empty input line
// survives in some form: headers become "## ", dated lines pair with the next
// line into "### next | date", bullets and experience prose become "- " items,
// and contact values are labelled.
func ToMarkdown(text string) string {
	lines := contentLines(text)
	out := make([]string, 0, len(lines)*2)
	var st State

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		lc := ClassifyLine(line, st)

		switch lc.Kind {
		case KindHeader:
			out = append(out, "", "## "+lc.Text, "")
			st = State{CurrentSection: lc.Text, CurrentType: lc.Section, PreviousLineWasHeader: true}
			continue

		case KindContact:
			out = endList(out, &st)
			out = append(out, fmt.Sprintf("**%s:** %s", contactLabels[lc.Field], lc.Text), "")

		case KindDate:
			if next, ok := pairedTitle(lines, i, st); ok {
				out = endList(out, &st)
				out = append(out, "", fmt.Sprintf("### %s | %s", next, lc.Text), "")
				i++
				st.PreviousLineWasHeader = true
				st.LinesInSection += 2
				continue
			}
			out = paragraph(out, &st, lc.Text)

		case KindBullet:
			out = listItem(out, &st, lc.Text)

		default:
			if lc.ImplicitBullet {
				out = listItem(out, &st, lc.Text)
			} else {
				out = paragraph(out, &st, lc.Text)
			}
		}

		st.PreviousLineWasHeader = false
		st.LinesInSection++
	}

	md := blankRuns.ReplaceAllString(strings.Join(out, "\n"), "\n\n")
	return strings.TrimSpace(md)
}

// pairedTitle returns the line after a dated line when the two should render
// as a sub-heading: inside a section, followed by a line that is neither a
// bullet nor another section header.
func pairedTitle(lines []string, i int, st State) (string, bool) {
	if st.CurrentSection == "" || i+1 >= len(lines) {
		return "", false
	}
	next := ClassifyLine(lines[i+1], st)
	if next.Kind == KindBullet || next.Kind == KindHeader {
		return "", false
	}
	return lines[i+1], true
}

func listItem(out []string, st *State, text string) []string {
	if !st.InBulletList && len(out) > 0 && out[len(out)-1] != "" {
		out = append(out, "")
	}
	st.InBulletList = true
	return append(out, "- "+text)
}

func paragraph(out []string, st *State, text string) []string {
	out = endList(out, st)
	return append(out, text, "")
}

func endList(out []string, st *State) []string {
	if st.InBulletList {
		st.InBulletList = false
		return append(out, "")
	}
	return out
}

// contentLines splits text into trimmed, non-empty lines.
func contentLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
