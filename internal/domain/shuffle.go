package domain

import (
	"regexp"
	"strings"
)

// Option texts that reference other options make a shuffled presentation
// nonsensical, e.g. "Both A and B" or "All of the above".
var combinationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\ball of the above\b`),
	regexp.MustCompile(`(?i)\bnone of the above\b`),
	regexp.MustCompile(`(?i)\bboth\b.*\band\b`),
	regexp.MustCompile(`(?i)\bneither\b.*\bnor\b`),
	regexp.MustCompile(`(?i)^[^,]+\s+and\s+[^,]+$`),
}

// IsCombinationAnswer reports whether an option text looks like it combines
// or references other options. It is a heuristic: false positives only cost
// an automatic shuffle opt-out, which the author can undo.
func IsCombinationAnswer(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	for _, p := range combinationPatterns {
		if p.MatchString(t) {
			return true
		}
	}
	return false
}

// HasCombinationAnswer reports whether any option in the list matches.
func HasCombinationAnswer(options []string) bool {
	for _, o := range options {
		if IsCombinationAnswer(o) {
			return true
		}
	}
	return false
}
