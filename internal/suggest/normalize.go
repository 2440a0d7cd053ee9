package suggest

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// normalize lower-cases a header or label, splits camelCase, turns
// punctuation into spaces, and singularizes each word, so "Phone_Numbers"
// and "phoneNumber" both become "phone number".
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	var prev rune
	for i, r := range s {
		switch {
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
				b.WriteRune(' ')
			}
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
		prev = r
	}

	words := strings.Fields(b.String())
	for i, w := range words {
		if len(w) > 3 {
			words[i] = inflection.Singular(w)
		}
	}
	return strings.Join(words, " ")
}

// containsWords reports whether needle occurs in haystack on word
// boundaries.
func containsWords(haystack, needle string) bool {
	if needle == "" || haystack == "" {
		return false
	}
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}
