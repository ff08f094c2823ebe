package cvtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractContact(t *testing.T) {
	text := "Jane Q. Public\njane@example.com\n+1 555-201-0199\nlinkedin.com/in/janeq\ngithub.com/janeq\nhttps://janeq.dev"

	got := ExtractContact(text)

	assert.Equal(t, Contact{
		Name:     "Jane Q. Public",
		Email:    "jane@example.com",
		Phone:    "+1 555-201-0199",
		LinkedIn: "linkedin.com/in/janeq",
		GitHub:   "github.com/janeq",
		Website:  "https://janeq.dev",
	}, got)
}

func TestExtractContactTurkishPhone(t *testing.T) {
	got := ExtractContact("Ayşe Yılmaz\nCep: 0532 123 45 67")

	assert.Equal(t, "Ayşe Yılmaz", got.Name)
	assert.Equal(t, "0532 123 45 67", got.Phone)
}

func TestExtractContactMissingFields(t *testing.T) {
	got := ExtractContact("SOFTWARE ENGINEER\njane doe\nWorked 2019-2022")

	assert.Equal(t, Contact{}, got)
}

func TestExtractContactNameOnlyInFirstLines(t *testing.T) {
	text := "resume\ncv\n2024\nkeywords\nnotes\nJane Doe"

	assert.Empty(t, ExtractContact(text).Name)
}

func TestExtractContactSkipsProfileLinksForWebsite(t *testing.T) {
	got := ExtractContact("https://www.linkedin.com/in/jane https://github.com/jane www.jane.dev")

	assert.Equal(t, "https://www.linkedin.com/in/jane", got.LinkedIn)
	assert.Equal(t, "https://github.com/jane", got.GitHub)
	assert.Equal(t, "www.jane.dev", got.Website)
}
