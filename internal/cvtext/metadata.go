package cvtext

import (
	"strings"
	"unicode/utf8"
)

const wordsPerMinute = 200

// Metadata describes the size of a CV and the sections found in it.
type Metadata struct {
	WordCount            int
	CharacterCount       int
	EstimatedReadingTime int
	DetectedSections     []string
}

// ComputeMetadata counts words and characters of normalized text and rounds
// reading time up to whole minutes.
func ComputeMetadata(text string, sections Sections) Metadata {
	words := len(strings.Fields(text))
	detected := make([]string, 0, len(sections.Detected))
	for _, s := range sections.Detected {
		detected = append(detected, string(s))
	}
	return Metadata{
		WordCount:            words,
		CharacterCount:       utf8.RuneCountInString(text),
		EstimatedReadingTime: (words + wordsPerMinute - 1) / wordsPerMinute,
		DetectedSections:     detected,
	}
}
