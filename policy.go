package quizimages

import (
	"regexp"
	"strings"
)

var translationDrill = regexp.MustCompile(`(?i)^\s*(vertaal|translate|traduis|übersetze)\b|\bwelke naamval\b|\bin welke (persoon|tijd|naamval)\b`)

// ImagePolicyFor decides whether a question should get an image.
// It runs before any AI or search call.
func ImagePolicyFor(q Question, subject string) ImagePolicy {
	qtype := strings.ToLower(strings.TrimSpace(q.Type))
	if noImageTypes[qtype] {
		return PolicyNone
	}
	if languageSubjects[normalizeSubject(subject)] && isLanguageDrill(q.Text) {
		return PolicyNone
	}
	if optionalImageTypes[qtype] {
		return PolicyOptional
	}
	return PolicyRequired
}

// isLanguageDrill separates grammar/translation exercises from narrative or cultural
// questions in the same language subject
func isLanguageDrill(text string) bool {
	if translationDrill.MatchString(text) {
		return true
	}
	folded := foldText(text)
	if containsAny(folded, culturalVocabulary) {
		return false
	}
	return containsStem(folded, grammarDrillVocabulary)
}
