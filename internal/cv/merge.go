package cv

import (
	"regexp"
	"strings"

	"cv-ingest/internal/cvtext"
)

// mergeRule resolves one top-level profile field.
type mergeRule struct {
	field string
	apply func(dst, ai, heuristic *Profile)
}

var mergeRules = []mergeRule{
	{"personalInfo", func(dst, ai, h *Profile) {
		dst.PersonalInfo = pick(ai.PersonalInfo, h.PersonalInfo, func(p PersonalInfo) bool { return p == PersonalInfo{} })
	}},
	{"summary", func(dst, ai, h *Profile) {
		dst.Summary = pick(ai.Summary, h.Summary, blank)
	}},
	{"experience", func(dst, ai, h *Profile) {
		dst.Experience = pick(ai.Experience, h.Experience, isEmptySlice[Experience])
	}},
	{"education", func(dst, ai, h *Profile) {
		dst.Education = pick(ai.Education, h.Education, isEmptySlice[Education])
	}},
	{"skills", func(dst, ai, h *Profile) {
		dst.Skills = pick(ai.Skills, h.Skills, Skills.IsEmpty)
	}},
	{"languages", func(dst, ai, h *Profile) {
		dst.Languages = pick(ai.Languages, h.Languages, isEmptySlice[Language])
	}},
	{"certifications", func(dst, ai, h *Profile) {
		dst.Certifications = pick(ai.Certifications, h.Certifications, isEmptySlice[Certification])
	}},
	{"projects", func(dst, ai, h *Profile) {
		dst.Projects = pick(ai.Projects, h.Projects, isEmptySlice[Project])
	}},
	{"awards", func(dst, ai, h *Profile) {
		dst.Awards = pick(ai.Awards, h.Awards, isEmptySlice[Award])
	}},
	{"volunteerWork", func(dst, ai, h *Profile) {
		dst.VolunteerWork = pick(ai.VolunteerWork, h.VolunteerWork, isEmptySlice[Volunteer])
	}},
	{"references", func(dst, ai, h *Profile) {
		dst.References = pick(ai.References, h.References, isEmptySlice[Reference])
	}},
	{"keywords", func(dst, ai, h *Profile) {
		dst.Keywords = pick(ai.Keywords, h.Keywords, isEmptySlice[string])
	}},
	{"metadata", func(dst, ai, h *Profile) {
		dst.Metadata = pick(ai.Metadata, h.Metadata, Metadata.IsEmpty)
	}},
}

// Merge combines an AI profile with a heuristic one field by field. A non-empty
// AI value always wins; the heuristic value is only a fallback. Either input
// may be nil. Slices in the result are never nil.
func Merge(ai, heuristic *Profile) Profile {
	if ai == nil {
		ai = &Profile{}
	}
	if heuristic == nil {
		heuristic = &Profile{}
	}
	var out Profile
	for _, r := range mergeRules {
		r.apply(&out, ai, heuristic)
	}
	out.fillEmpty()
	return out
}

func pick[T any](ai, heuristic T, isEmpty func(T) bool) T {
	if !isEmpty(ai) {
		return ai
	}
	return heuristic
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func isEmptySlice[T any](s []T) bool { return len(s) == 0 }

// fillEmpty replaces nil slices with empty ones so the JSON form carries [] instead of null.
func (p *Profile) fillEmpty() {
	p.Experience = orEmpty(p.Experience)
	for i := range p.Experience {
		p.Experience[i].Achievements = orEmpty(p.Experience[i].Achievements)
	}
	p.Education = orEmpty(p.Education)
	p.Skills.Technical = orEmpty(p.Skills.Technical)
	p.Skills.Soft = orEmpty(p.Skills.Soft)
	p.Skills.Tools = orEmpty(p.Skills.Tools)
	p.Skills.Other = orEmpty(p.Skills.Other)
	p.Languages = orEmpty(p.Languages)
	p.Certifications = orEmpty(p.Certifications)
	p.Projects = orEmpty(p.Projects)
	for i := range p.Projects {
		p.Projects[i].Technologies = orEmpty(p.Projects[i].Technologies)
	}
	p.Awards = orEmpty(p.Awards)
	p.VolunteerWork = orEmpty(p.VolunteerWork)
	p.References = orEmpty(p.References)
	p.Keywords = orEmpty(p.Keywords)
	p.Metadata.DetectedSections = orEmpty(p.Metadata.DetectedSections)
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

var languageLevel = regexp.MustCompile(`^(.+?)\s*(?:\(([^)]+)\)|[-–:]\s*(.+))$`)

// FromHeuristics builds the fallback profile from the pattern-based passes.
func FromHeuristics(contact cvtext.Contact, sections cvtext.Sections, keywords []string, meta cvtext.Metadata) Profile {
	p := Profile{
		PersonalInfo: PersonalInfo{
			FullName: contact.Name,
			Email:    contact.Email,
			Phone:    contact.Phone,
			LinkedIn: contact.LinkedIn,
			GitHub:   contact.GitHub,
			Website:  contact.Website,
		},
		Summary:  sections.Summary,
		Skills:   Skills{Technical: append([]string(nil), sections.Skills...)},
		Keywords: append([]string(nil), keywords...),
		Metadata: Metadata{
			WordCount:            meta.WordCount,
			CharacterCount:       meta.CharacterCount,
			EstimatedReadingTime: meta.EstimatedReadingTime,
			DetectedSections:     append([]string(nil), meta.DetectedSections...),
		},
	}
	for _, e := range sections.Experience {
		p.Experience = append(p.Experience, Experience{
			Title:       e.Title,
			Company:     e.Company,
			Duration:    e.Duration,
			Description: e.Description,
		})
	}
	for _, e := range sections.Education {
		p.Education = append(p.Education, Education{
			Degree:      e.Degree,
			Institution: e.Institution,
			Duration:    e.Duration,
			Description: e.Description,
		})
	}
	for _, l := range sections.Languages {
		p.Languages = append(p.Languages, parseLanguage(l))
	}
	for _, c := range sections.Certifications {
		p.Certifications = append(p.Certifications, Certification{Name: c})
	}
	p.fillEmpty()
	return p
}

// parseLanguage splits "English (C1)" or "German - B2" into name and level.
func parseLanguage(s string) Language {
	m := languageLevel.FindStringSubmatch(s)
	if m == nil {
		return Language{Language: s}
	}
	level := m[2]
	if level == "" {
		level = m[3]
	}
	return Language{Language: strings.TrimSpace(m[1]), Level: strings.TrimSpace(level)}
}
