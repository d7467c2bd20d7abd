// Package textfilter scrubs profanity and personal phone numbers from
// player-provided text (names, chat). It is a pure transform with no state.
package textfilter

import (
	"regexp"
	"strings"
)

// Egyptian mobile numbers (010/011/012/015 plus 8 digits), long digit runs,
// and digit runs padded with spaces, dashes or dots.
var phoneRegex = regexp.MustCompile(`\b(?:\+?20|0)?1[0125][0-9]{8}\b|\b[0-9]{10,15}\b|\b(?:[0-9][ \-.]*){10,15}\b`)

const phonePlaceholder = "[رقم هاتف محذوف]"

var englishWords = []string{
	"fuck", "shit", "bitch", "bastard", "asshole", "dick", "cunt", "whore",
}

// Basic Arabic profanity list (can be expanded).
var arabicWords = []string{
	"كلمة_مسيئة_1",
	"كلمة_مسيئة_2",
	"كلمة_مسيئة_3",
}

// Clean masks profane words in either language and removes anything that
// looks like a phone number.
func Clean(text string) string {
	filtered := maskWords(text, englishWords)
	filtered = maskWords(filtered, arabicWords)
	return phoneRegex.ReplaceAllString(filtered, phonePlaceholder)
}

func maskWords(text string, words []string) string {
	lower := strings.ToLower(text)
	for _, word := range words {
		for {
			i := strings.Index(lower, word)
			if i == -1 {
				break
			}
			mask := strings.Repeat("*", len([]rune(word)))
			text = text[:i] + mask + text[i+len(word):]
			lower = lower[:i] + mask + lower[i+len(word):]
		}
	}
	return text
}
