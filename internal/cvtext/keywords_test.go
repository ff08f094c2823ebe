package cvtext

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywordsScoresAndOrders(t *testing.T) {
	text := "Python developer. Python, Docker and Kubernetes. Worked with clients; clients loved it. Machine learning projects. Go is great."

	got := ExtractKeywords(text)

	assert.Equal(t, []string{"python", "docker", "kubernetes", "machine learning", "clients"}, got)
}

func TestExtractKeywordsKeepsSymbols(t *testing.T) {
	got := ExtractKeywords("C++ engineer, C++ mentor")

	assert.Equal(t, "c++", got[0])
}

func TestExtractKeywordsDropsStopwordsAndShortTokens(t *testing.T) {
	got := ExtractKeywords("the the the and and ve ve ile ile go go 2020 2020")

	assert.Empty(t, got)
}

func TestExtractKeywordsCapped(t *testing.T) {
	var words []string
	for i := 0; i < 40; i++ {
		w := fmt.Sprintf("term%02d", i)
		words = append(words, w, w)
	}

	got := ExtractKeywords(strings.Join(words, " "))

	assert.Len(t, got, MaxKeywords)
	assert.Equal(t, "term00", got[0])
	assert.Equal(t, "term24", got[MaxKeywords-1])
}

func TestExtractKeywordsDeterministic(t *testing.T) {
	text := "Kafka Redis Kafka Terraform Redis Proje yönetimi ve takım çalışması"

	assert.Equal(t, ExtractKeywords(text), ExtractKeywords(text))
}
