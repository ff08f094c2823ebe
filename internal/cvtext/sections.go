package cvtext

import (
	"regexp"
	"strings"
)

// ExperienceEntry is one block of lines under an experience header, read positionally.
type ExperienceEntry struct {
	Title       string
	Company     string
	Duration    string
	Description string
}

// EducationEntry is one block of lines under an education header, read positionally.
type EducationEntry struct {
	Degree      string
	Institution string
	Duration    string
	Description string
}

// Sections is the heuristic segmentation of a CV. Slices are never nil.
type Sections struct {
	Summary        string
	Experience     []ExperienceEntry
	Education      []EducationEntry
	Skills         []string
	Languages      []string
	Certifications []string
	// Detected lists every recognized section type once, in order of appearance.
	Detected []SectionType
}

var listSeparators = regexp.MustCompile(`\s*[,;|•·]\s*`)

// Segment splits normalized text at section headers and fills the known
// sections. Lines before the first header are not assigned to any section.
func Segment(text string) Sections {
	s := Sections{
		Experience:     []ExperienceEntry{},
		Education:      []EducationEntry{},
		Skills:         []string{},
		Languages:      []string{},
		Certifications: []string{},
		Detected:       []SectionType{},
	}
	seen := map[SectionType]bool{}

	var (
		current SectionType
		buf     []string
	)
	flush := func() {
		if current != "" {
			s.apply(current, buf)
		}
		buf = nil
	}

	for _, line := range contentLines(text) {
		if section, ok := MatchSectionHeader(line); ok {
			flush()
			current = section
			if !seen[section] {
				seen[section] = true
				s.Detected = append(s.Detected, section)
			}
			continue
		}
		if current != "" {
			buf = append(buf, line)
		}
	}
	flush()
	return s
}

func (s *Sections) apply(section SectionType, lines []string) {
	if len(lines) == 0 {
		return
	}
	switch section {
	case SectionSummary:
		summary := strings.Join(lines, " ")
		if s.Summary != "" {
			summary = s.Summary + " " + summary
		}
		s.Summary = summary
	case SectionExperience:
		s.Experience = append(s.Experience, ExperienceEntry{
			Title:       at(lines, 0),
			Company:     at(lines, 1),
			Duration:    at(lines, 2),
			Description: rest(lines, 3),
		})
	case SectionEducation:
		s.Education = append(s.Education, EducationEntry{
			Degree:      at(lines, 0),
			Institution: at(lines, 1),
			Duration:    at(lines, 2),
			Description: rest(lines, 3),
		})
	case SectionSkills:
		s.Skills = appendItems(s.Skills, lines, true)
	case SectionLanguages:
		s.Languages = appendItems(s.Languages, lines, true)
	case SectionCertifications:
		s.Certifications = appendItems(s.Certifications, lines, false)
	}
}

// appendItems strips bullet markers and optionally splits comma-style lists,
// skipping items already present.
func appendItems(dst, lines []string, split bool) []string {
	seen := make(map[string]bool, len(dst))
	for _, d := range dst {
		seen[fold(d)] = true
	}
	for _, line := range lines {
		line, _ = stripBullet(line)
		parts := []string{line}
		if split {
			parts = listSeparators.Split(line, -1)
		}
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" || seen[fold(p)] {
				continue
			}
			seen[fold(p)] = true
			dst = append(dst, p)
		}
	}
	return dst
}

func at(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}

func rest(lines []string, from int) string {
	if from >= len(lines) {
		return ""
	}
	return strings.Join(lines[from:], "\n")
}
