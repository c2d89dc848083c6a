package domain_test

import (
	"testing"

	"quizdesk/internal/domain"
)

func TestIsCombinationAnswer(t *testing.T) {
	matches := []string{
		"All of the above",
		"NONE of the above",
		"Both HTTP and HTTPS",
		"Neither stack nor heap",
		"Paris and London",
		"  all of the above  ",
	}
	for _, text := range matches {
		if !domain.IsCombinationAnswer(text) {
			t.Fatalf("expected %q to be detected", text)
		}
	}

	clean := []string{
		"Paris",
		"A pointer to a struct",
		"Red, green and blue",
		"Android",
		"",
		"   ",
	}
	for _, text := range clean {
		if domain.IsCombinationAnswer(text) {
			t.Fatalf("did not expect %q to be detected", text)
		}
	}
}

func TestHasCombinationAnswer(t *testing.T) {
	options := []string{"Stack", "Heap", "Both stack and heap", "Registers"}
	if !domain.HasCombinationAnswer(options) {
		t.Fatalf("expected the option list to be detected")
	}
	if domain.HasCombinationAnswer([]string{"Stack", "Heap"}) {
		t.Fatalf("did not expect a plain option list to be detected")
	}
}
