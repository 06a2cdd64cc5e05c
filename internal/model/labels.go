package model

import (
	"strings"
	"unicode"
)

// DefaultLabeler turns an input name such as "num_inference_steps" or
// "guidanceScale" into "Num inference steps" / "Guidance scale". Words already
// in capitals, such as CFG or SDXL, are kept verbatim.
func DefaultLabeler(name string) string {
	words := splitName(name)
	if len(words) == 0 {
		return ""
	}
	for i, word := range words {
		if isAcronym(word) {
			continue
		}
		word = strings.ToLower(word)
		if i == 0 {
			runes := []rune(word)
			runes[0] = unicode.ToUpper(runes[0])
			word = string(runes)
		}
		words[i] = word
	}
	return strings.Join(words, " ")
}

func splitName(name string) []string {
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
			continue
		case i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]):
			flush()
		}
		current = append(current, r)
	}
	flush()
	return words
}

func isAcronym(word string) bool {
	if len([]rune(word)) < 2 {
		return false
	}
	hasLetter := false
	for _, r := range word {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
