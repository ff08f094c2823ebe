package cvtext

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxKeywords caps the keyword list.
	MaxKeywords = 25

	vocabularyBonus = 2
	minRepeats      = 2
)

var tokenSeparators = regexp.MustCompile(`[^\p{L}\p{N}+#]+`)

// ExtractKeywords scores candidate terms by frequency, with a bonus for known
// skill vocabulary, and returns at most MaxKeywords in descending score order.
// Ties are broken alphabetically so the output is deterministic.
func ExtractKeywords(text string) []string {
	tokens := tokenize(text)

	freq := make(map[string]int)
	for _, tok := range tokens {
		if keepToken(tok) {
			freq[tok]++
		}
	}

	scores := make(map[string]int)
	for tok, n := range freq {
		if _, ok := techSet[tok]; ok {
			scores[tok] = n + vocabularyBonus
		} else if n >= minRepeats {
			scores[tok] = n
		}
	}

	stream := " " + strings.Join(tokens, " ") + " "
	for _, phrase := range foldedPhrases {
		if n := strings.Count(stream, " "+phrase+" "); n > 0 {
			scores[phrase] = n + vocabularyBonus
		}
	}

	keywords := make([]string, 0, len(scores))
	for k := range scores {
		keywords = append(keywords, k)
	}
	sort.Slice(keywords, func(i, j int) bool {
		si, sj := scores[keywords[i]], scores[keywords[j]]
		if si != sj {
			return si > sj
		}
		return keywords[i] < keywords[j]
	})
	if len(keywords) > MaxKeywords {
		keywords = keywords[:MaxKeywords]
	}
	return keywords
}

func tokenize(text string) []string {
	parts := tokenSeparators.Split(fold(text), -1)
	tokens := parts[:0]
	for _, p := range parts {
		p = strings.TrimLeft(p, "+#")
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

func keepToken(tok string) bool {
	if utf8.RuneCountInString(tok) <= 2 {
		return false
	}
	if _, stop := stopwordSet[tok]; stop {
		return false
	}
	return strings.IndexFunc(tok, unicode.IsLetter) >= 0
}
