package openai

import (
	"fmt"
	"strings"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

const systemPrompt = "You are a CV parsing engine. Respond with JSON only. No markdown. Never invent facts that are not in the CV text."

const developerPrompt = `Extract a structured profile from the CV text. Return one JSON object with exactly these keys:
{
  "personalInfo": {"fullName": "", "email": "", "phone": "", "address": "", "city": "", "linkedin": "", "github": "", "website": ""},
  "summary": "",
  "experience": [{"title": "", "company": "", "location": "", "startDate": "", "endDate": "", "duration": "", "isCurrent": false, "description": "", "achievements": []}],
  "education": [{"degree": "", "field": "", "institution": "", "location": "", "startDate": "", "endDate": "", "duration": "", "gpa": "", "description": ""}],
  "skills": {"technical": [], "soft": [], "tools": [], "other": []},
  "languages": [{"language": "", "level": ""}],
  "certifications": [{"name": "", "issuer": "", "date": "", "expiryDate": "", "credentialId": ""}],
  "projects": [{"name": "", "description": "", "technologies": [], "url": "", "startDate": "", "endDate": ""}],
  "awards": [{"title": "", "issuer": "", "date": "", "description": ""}],
  "volunteerWork": [{"organization": "", "role": "", "startDate": "", "endDate": "", "description": ""}],
  "references": [{"name": "", "position": "", "company": "", "contact": ""}]
}
Rules:
- Use "" for unknown strings and [] for empty lists. Never use null.
- Keep dates as written in the CV (e.g. "03/2019", "March 2019", "Present").
- Set isCurrent to true only when the role is ongoing.
- The CV may be in English or Turkish; keep values in the original language.
- Model: {{MODEL}}`

// BuildPrompt creates the chat messages for a profile extraction request.
func BuildPrompt(text, model string) []Message {
	developer := strings.ReplaceAll(developerPrompt, "{{MODEL}}", model)
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "developer", Content: developer},
		{Role: "user", Content: fmt.Sprintf("CV Text:\n%s", text)},
	}
}

func promptStringFromMessages(messages []Message) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}
