package cvtext

import (
	"regexp"
	"strings"
)

// ContactField names a kind of contact detail found in a CV.
type ContactField string

const (
	ContactEmail    ContactField = "email"
	ContactPhone    ContactField = "phone"
	ContactLinkedIn ContactField = "linkedin"
	ContactGitHub   ContactField = "github"
	ContactWebsite  ContactField = "website"
)

// Contact holds the contact details found by pattern matching. Absent fields are empty.
type Contact struct {
	Name     string
	Email    string
	Phone    string
	LinkedIn string
	GitHub   string
	Website  string
}

const (
	emailExpr    = `[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`
	phoneExpr    = `(?:\+?\d{1,3}[\s.-]?)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{2}[\s.-]?\d{2}`
	linkedInExpr = `(?:https?://)?(?:[a-z]{2,3}\.)?linkedin\.com/in/[A-Za-z0-9_%-]+/?`
	gitHubExpr   = `(?:https?://)?(?:www\.)?github\.com/[A-Za-z0-9_-]+/?`
	websiteExpr  = `(?:https?://|www\.)[A-Za-z0-9.-]+\.[A-Za-z]{2,}(?:/[^\s]*)?`
)

var (
	emailPattern    = regexp.MustCompile(emailExpr)
	phonePattern    = regexp.MustCompile(phoneExpr)
	linkedInPattern = regexp.MustCompile(`(?i)` + linkedInExpr)
	gitHubPattern   = regexp.MustCompile(`(?i)` + gitHubExpr)
	websitePattern  = regexp.MustCompile(`(?i)` + websiteExpr)

	// Whole-line variants used by the line classifier.
	contactLinePatterns = []struct {
		Field   ContactField
		Pattern *regexp.Regexp
	}{
		{ContactEmail, regexp.MustCompile(`^` + emailExpr + `$`)},
		{ContactLinkedIn, regexp.MustCompile(`(?i)^` + linkedInExpr + `$`)},
		{ContactGitHub, regexp.MustCompile(`(?i)^` + gitHubExpr + `$`)},
		{ContactWebsite, regexp.MustCompile(`(?i)^` + websiteExpr + `$`)},
		{ContactPhone, regexp.MustCompile(`^` + phoneExpr + `$`)},
	}

	nameWordPattern = regexp.MustCompile(`^\p{Lu}\p{Ll}*\.?$`)
)

const nameSearchLines = 5

// ExtractContact pulls the first email, phone, profile links and a likely
// full name out of normalized CV text.
func ExtractContact(text string) Contact {
	c := Contact{
		Email:    emailPattern.FindString(text),
		LinkedIn: linkedInPattern.FindString(text),
		GitHub:   gitHubPattern.FindString(text),
		Phone:    strings.TrimSpace(phonePattern.FindString(text)),
		Name:     findName(text),
	}
	for _, site := range websitePattern.FindAllString(text, -1) {
		lower := strings.ToLower(site)
		if strings.Contains(lower, "linkedin.com") || strings.Contains(lower, "github.com") {
			continue
		}
		c.Website = site
		break
	}
	return c
}

func findName(text string) string {
	checked := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if checked == nameSearchLines {
			break
		}
		checked++
		if strings.ContainsAny(line, "@0123456789") {
			continue
		}
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		ok := true
		for _, w := range words {
			if !nameWordPattern.MatchString(w) {
				ok = false
				break
			}
		}
		if ok {
			return line
		}
	}
	return ""
}

// matchContactLine reports whether the whole line, after an optional label such
// as "E-posta:", is a single contact value.
func matchContactLine(line string) (ContactField, string, bool) {
	value := strings.TrimSpace(contactPrefixRe.ReplaceAllString(line, ""))
	if value == "" {
		return "", "", false
	}
	for _, p := range contactLinePatterns {
		if !p.Pattern.MatchString(value) {
			continue
		}
		return p.Field, value, true
	}
	return "", "", false
}
