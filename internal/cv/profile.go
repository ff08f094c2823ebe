// Package cv defines the structured CV profile stored with each upload and the
// rules for combining AI output with heuristic fallbacks.
package cv

type Profile struct {
	PersonalInfo   PersonalInfo    `json:"personalInfo"`
	Summary        string          `json:"summary"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Skills         Skills          `json:"skills"`
	Languages      []Language      `json:"languages"`
	Certifications []Certification `json:"certifications"`
	Projects       []Project       `json:"projects"`
	Awards         []Award         `json:"awards"`
	VolunteerWork  []Volunteer     `json:"volunteerWork"`
	References     []Reference     `json:"references"`
	Keywords       []string        `json:"keywords"`
	Metadata       Metadata        `json:"metadata"`
}

type PersonalInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
	Website  string `json:"website"`
}

type Experience struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     string   `json:"location"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	Duration     string   `json:"duration"`
	IsCurrent    bool     `json:"isCurrent"`
	Description  string   `json:"description"`
	Achievements []string `json:"achievements"`
}

type Education struct {
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	Institution string `json:"institution"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Duration    string `json:"duration"`
	GPA         string `json:"gpa"`
	Description string `json:"description"`
}

type Skills struct {
	Technical []string `json:"technical"`
	Soft      []string `json:"soft"`
	Tools     []string `json:"tools"`
	Other     []string `json:"other"`
}

// IsEmpty reports whether no skill category has entries.
func (s Skills) IsEmpty() bool {
	return len(s.Technical) == 0 && len(s.Soft) == 0 && len(s.Tools) == 0 && len(s.Other) == 0
}

type Language struct {
	Language string `json:"language"`
	Level    string `json:"level"`
}

type Certification struct {
	Name         string `json:"name"`
	Issuer       string `json:"issuer"`
	Date         string `json:"date"`
	ExpiryDate   string `json:"expiryDate"`
	CredentialID string `json:"credentialId"`
}

type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	URL          string   `json:"url"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
}

type Award struct {
	Title       string `json:"title"`
	Issuer      string `json:"issuer"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

type Volunteer struct {
	Organization string `json:"organization"`
	Role         string `json:"role"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	Description  string `json:"description"`
}

type Reference struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Company  string `json:"company"`
	Contact  string `json:"contact"`
}

// Metadata is computed from the normalized text, never by the AI provider.
type Metadata struct {
	WordCount            int      `json:"wordCount"`
	CharacterCount       int      `json:"characterCount"`
	EstimatedReadingTime int      `json:"estimatedReadingTime"`
	DetectedSections     []string `json:"detectedSections"`
}

// IsEmpty reports whether the metadata carries no counts and no sections.
func (m Metadata) IsEmpty() bool {
	return m.WordCount == 0 && m.CharacterCount == 0 && len(m.DetectedSections) == 0
}
