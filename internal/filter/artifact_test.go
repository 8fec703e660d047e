package filter

import (
	"testing"

	"github.com/valpere/corpclean/internal/corpus"
)

func TestArtifactFilter_Accept(t *testing.T) {
	f := NewArtifactFilter()

	tests := []struct {
		name   string
		source string
		target string
		wantOK bool
	}{
		{"clean", "Hello world", "Ciao mondo", true},
		{"thinking block", "Hello", "<think>user wants Italian</think>Ciao", false},
		{"truncated thinking", "Hello", "<reasoning>The word hello", false},
		{"tag present in source", "Use <think> tags", "Usa i tag <think>", true},
		{"instruction echo", "Hello", "Here is the translation: Ciao", false},
		{"polite echo", "Hello", "Sure, here's the translation: Ciao", false},
		{"translated text label", "Hello", "Translated text: Ciao", false},
		{"no colon is legitimate", "Here is the text", "Ecco il testo", true},
		{"added quotes", "Hello", `"Ciao"`, false},
		{"added guillemets", "Hello", "«Ciao»", false},
		{"quotes kept from source", `"Hello"`, "“Ciao”", true},
		{"unbalanced quotes", "Hello", `"Ciao`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := f.Accept(corpus.SentencePair{Source: tt.source, Target: tt.target})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("Accept(%q, %q) = %v, want %v", tt.source, tt.target, ok, tt.wantOK)
			}
		})
	}
}
