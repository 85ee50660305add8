// Package kernels implements component C2: the eight readability metric
// formulas (LIX, RIX, SMOG, Coleman-Liau, Flesch, Flesch-Kincaid, Fog, ARI)
// and their band classification, grounded on the original service's
// app/services/metrics/lix_metric.py and rix_metric.py (per-metric
// threshold maps plus a classification result cache keyed on the rounded
// score) generalized to the full formula set spec.md §4.2 specifies.
package kernels

import "unicode"

// norwegianVowels is the vowel set syllable counting treats as a group
// boundary: a, e, i, o, u, y, æ, ø, å.
var norwegianVowels = map[rune]bool{
	'a': true, 'e': true, 'i': true, 'o': true, 'u': true, 'y': true,
	'æ': true, 'ø': true, 'å': true,
}

// CountSyllables counts maximal vowel-group transitions in word: a new
// syllable starts at a vowel immediately preceded by a consonant or by the
// start of the word. Every word has at least one syllable.
func CountSyllables(word string) int {
	count := 0
	prevVowel := false
	for _, r := range word {
		r = unicode.ToLower(r)
		isVowel := norwegianVowels[r]
		if isVowel && !prevVowel {
			count++
		}
		prevVowel = isVowel
	}
	if count == 0 {
		return 1
	}
	return count
}

// IsComplex reports whether a word meets the complex-word threshold of 3
// or more syllables (used by SMOG and Fog).
func IsComplex(word string) bool {
	return CountSyllables(word) >= 3
}
