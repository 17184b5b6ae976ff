// Package grading decides whether a submitted answer is correct for an
// exercise. Grading is pure: it reads the exercise variant and the raw
// answer and never touches storage.
package grading

import (
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
	"github.com/phrazzld/ladder-api/internal/domain"
)

// Validate reports whether answer is correct for the exercise.
// An unknown or missing variant is never correct.
func Validate(exercise *domain.Exercise, answer string) bool {
	if exercise == nil {
		return false
	}

	switch v := domain.VariantValue(exercise.Variant).(type) {
	case domain.MultipleChoice:
		return validateChoice(v, answer)
	case domain.FillInBlank:
		return matchText(answer, v.CorrectAnswer, v.AcceptedAnswers, v.TrimWhitespace, v.CaseSensitive)
	case domain.Listening:
		return matchText(answer, v.CorrectAnswer, v.AcceptedAnswers, true, v.CaseSensitive)
	case domain.Translation:
		return validateTranslation(v, answer)
	default:
		return false
	}
}

func validateChoice(v domain.MultipleChoice, optionID string) bool {
	for _, o := range v.Options {
		if o.ID == optionID {
			return o.IsCorrect
		}
	}
	return false
}

func normalize(s string, trim, caseSensitive bool) string {
	if trim {
		s = strings.TrimSpace(s)
	}
	if !caseSensitive {
		s = strings.ToLower(s)
	}
	return s
}

// matchText compares the answer with the expected text and every comma
// separated accepted answer, all normalized the same way.
func matchText(answer, correct, accepted string, trim, caseSensitive bool) bool {
	got := normalize(answer, trim, caseSensitive)
	if got == normalize(correct, trim, caseSensitive) {
		return true
	}
	if accepted == "" {
		return false
	}
	for _, alt := range strings.Split(accepted, ",") {
		if got == normalize(alt, trim, caseSensitive) {
			return true
		}
	}
	return false
}

func validateTranslation(v domain.Translation, answer string) bool {
	return Similarity(answer, v.TargetText) >= v.MatchingThreshold
}

// Similarity returns (maxLen - distance) / maxLen for the trimmed, lower
// cased inputs, where distance is the Levenshtein edit distance counted in
// runes. Two empty inputs are identical.
func Similarity(a, b string) float64 {
	a = normalize(a, true, false)
	b = normalize(b, true, false)

	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1.0
	}

	distance := levenshtein.Distance(a, b, nil)
	return float64(maxLen-distance) / float64(maxLen)
}
