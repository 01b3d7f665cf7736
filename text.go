package quizimages

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var wordSplit = regexp.MustCompile(`[^\p{L}\p{N}'-]+`)

// foldText lowercases s and strips diacritics so "Scheletsysteem" and "scheletsystéém" compare equal
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// contentWords returns folded words longer than three letters that are not stopwords,
// in order of first appearance
func contentWords(s string) []string {
	seen := make(map[string]bool)
	var words []string
	for _, w := range wordSplit.Split(foldText(s), -1) {
		w = strings.Trim(w, "'-")
		if len([]rune(w)) <= 3 || stopwords[w] || seen[w] {
			continue
		}
		if isNumeric(w) {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	return words
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// containsAny reports whether text contains any of the folded tokens
func containsAny(text string, tokens []string) bool {
	return countHits(text, tokens) > 0
}

// countHits counts how many distinct tokens occur in text
func countHits(text string, tokens []string) int {
	n := 0
	seen := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		tok = foldText(strings.TrimSpace(tok))
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		if hasToken(text, tok) {
			n++
		}
	}
	return n
}

// hasToken matches tok in text on word boundaries, allowing a plural "s"/"es" suffix.
// "cat" matches "cat" and "cats" but not "category".
func hasToken(text, tok string) bool {
	for from := 0; from <= len(text)-len(tok); {
		i := strings.Index(text[from:], tok)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(tok)
		if !isWordByteBefore(text, start) {
			rest := text[end:]
			switch {
			case !startsWithLetter(rest):
				return true
			case strings.HasPrefix(rest, "s") && !startsWithLetter(rest[1:]):
				return true
			case strings.HasPrefix(rest, "es") && !startsWithLetter(rest[2:]):
				return true
			}
		}
		from = start + 1
	}
	return false
}

func isWordByteBefore(text string, i int) bool {
	if i == 0 {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(text[:i])
	return unicode.IsLetter(last) || unicode.IsDigit(last)
}

func startsWithLetter(s string) bool {
	if s == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// containsStem reports whether any word in text starts with one of the stems,
// so "erfelijk" matches "erfelijkheid"
func containsStem(text string, stems []string) bool {
	for _, stem := range stems {
		stem = foldText(stem)
		for from := 0; from <= len(text)-len(stem); {
			i := strings.Index(text[from:], stem)
			if i < 0 {
				break
			}
			if !isWordByteBefore(text, from+i) {
				return true
			}
			from += i + 1
		}
	}
	return false
}

// htmlToText extracts visible text from an HTML fragment
func htmlToText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var sb strings.Builder
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return strings.Join(strings.Fields(sb.String()), " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) == "script" || string(name) == "style" {
				skip++
			}
			sb.WriteByte(' ')
		case html.EndTagToken:
			name, _ := z.TagName()
			if (string(name) == "script" || string(name) == "style") && skip > 0 {
				skip--
			}
			sb.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		}
	}
}

func normalizeSubject(s string) string {
	return foldText(strings.TrimSpace(s))
}

// dedupeStrings trims, drops empties and keeps the first occurrence of each value
func dedupeStrings(in []string, max int) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
