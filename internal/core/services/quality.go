package services

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Review threshold: results scoring below this are flagged for a human.
const qualityReviewThreshold = 60

// Punctuation accepted as "normal" alongside letters, digits and spaces.
// Covers both ASCII and full-width CJK forms.
const normalPunct = `，。！？；：、""''（）【】《》,.!?;:'"()[]{}` + "-_/%&+=#@"

// QualityScore derives a 0-100 heuristic for extracted text, independent
// of which method produced it. Penalties: short text, garbage-character
// ratio, low source confidence. The boolean is the needs-review flag.
func QualityScore(text string, confidence float64) (int, bool) {
	score := 100

	length := utf8.RuneCountInString(text)
	switch {
	case length < 50:
		score -= 30
	case length < 100:
		score -= 15
	}

	switch g := garbageRatio(text); {
	case g > 0.5:
		score -= 50
	case g > 0.3:
		score -= 30
	case g > 0.1:
		score -= 10
	}

	switch {
	case confidence < 0.5:
		score -= 20
	case confidence < 0.7:
		score -= 10
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, score < qualityReviewThreshold
}

// garbageRatio is the share of characters that are neither alphanumeric,
// whitespace nor common punctuation.
func garbageRatio(text string) float64 {
	text = strings.TrimSpace(text)
	total := 0
	normal := 0
	for _, r := range text {
		total++
		if isNormalChar(r) {
			normal++
		}
	}
	if total == 0 {
		return 0
	}
	return 1 - float64(normal)/float64(total)
}

func isNormalChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) ||
		strings.ContainsRune(normalPunct, r)
}

// ShouldUseOCR decides whether a direct extraction is poor enough to
// warrant optical recognition. Any single trigger suffices. The string
// names the trigger for logging and the pending artifact.
func ShouldUseOCR(text string, pageCount int) (bool, string) {
	stripped := strings.TrimSpace(text)
	if stripped == "" {
		return true, "empty text, likely a scanned document"
	}

	charCount := utf8.RuneCountInString(stripped)

	if pageCount > 0 {
		perPage := float64(charCount) / float64(pageCount)
		if perPage < 100 {
			return true, fmt.Sprintf("low character density (%.1f chars/page)", perPage)
		}
	}

	totalRunes := utf8.RuneCountInString(text)
	whitespace := 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			whitespace++
		}
	}
	if totalRunes > 0 {
		if ratio := float64(whitespace) / float64(totalRunes); ratio > 0.9 {
			return true, fmt.Sprintf("whitespace ratio too high (%.0f%%)", ratio*100)
		}
	}

	if g := garbageRatio(text); g > 0.3 {
		return true, fmt.Sprintf("garbage character ratio too high (%.0f%%)", g*100)
	}

	return false, "direct extraction looks healthy"
}
