package summary

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	defaultMinSentenceLen = 25
	defaultMaxSentenceLen = 240
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// Sentence boundary: terminal punctuation followed by whitespace.
	// Deliberately a regex-level split, abbreviations be damned.
	boundaryRe = regexp.MustCompile(`[.!?]+\s+`)
	bulletRe   = regexp.MustCompile(`^[-–—•·▪*]+\s*`)
)

// Segmenter splits raw vacancy text into clean candidate sentences.
// Spans outside [MinLen, MaxLen] runes are dropped: very short ones carry
// no signal, very long ones break the card layout.
type Segmenter struct {
	MinLen int
	MaxLen int
}

func NewSegmenter() *Segmenter {
	return &Segmenter{MinLen: defaultMinSentenceLen, MaxLen: defaultMaxSentenceLen}
}

// Split returns the qualifying sentences of text in order of appearance.
// Empty or all-whitespace input yields nil, never an error.
func (s *Segmenter) Split(text string) []string {
	clean := strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	if clean == "" {
		return nil
	}

	var sentences []string
	start := 0
	for _, m := range boundaryRe.FindAllStringIndex(clean, -1) {
		// Keep the punctuation, drop the separating whitespace.
		sentences = s.appendSpan(sentences, strings.TrimRight(clean[start:m[1]], " "))
		start = m[1]
	}
	sentences = s.appendSpan(sentences, clean[start:])

	return sentences
}

func (s *Segmenter) appendSpan(sentences []string, span string) []string {
	span = strings.TrimSpace(bulletRe.ReplaceAllString(span, ""))

	length := utf8.RuneCountInString(span)
	if length < s.MinLen || length > s.MaxLen {
		return sentences
	}

	return append(sentences, span)
}
