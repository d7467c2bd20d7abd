package game

import "strings"

// Variant Arabic letter forms collapse to one representative so guesses
// aren't rejected over spelling differences: hamza-bearing alefs, taa
// marbuta vs haa, final yaa vs alef maqsura, waw with hamza, and the
// emphatic consonants commonly interchanged in Egyptian spelling.
var arabicNormalizer = strings.NewReplacer(
	"لآ", "لا",
	"أ", "ا",
	"إ", "ا",
	"آ", "ا",
	"ة", "ه",
	"ى", "ي",
	"ؤ", "و",
	"ض", "ظ",
	"ط", "ظ",
)

func normalizeArabic(text string) string {
	if text == "" {
		return ""
	}
	return arabicNormalizer.Replace(text)
}

// guessMatches compares a guess against a target name after normalization
// and case folding.
func guessMatches(guess, target string) bool {
	g := strings.ToLower(normalizeArabic(strings.TrimSpace(guess)))
	t := strings.ToLower(normalizeArabic(target))
	return g == t
}
