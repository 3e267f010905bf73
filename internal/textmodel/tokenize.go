package textmodel

import (
	"regexp"
	"strings"
)

// tokenPattern selects runs of two or more word characters. Unicode
// letters and digits count as word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// tokenize lower-cases text and splits it into word tokens.
func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// analyze returns the unigram..maxN n-gram terms of text, in order.
func analyze(text string, maxN int) []string {
	tokens := tokenize(text)
	if maxN < 1 {
		maxN = 1
	}
	terms := make([]string, 0, len(tokens)*maxN)
	terms = append(terms, tokens...)
	for n := 2; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}
