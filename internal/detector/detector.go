// Package detector identifies the language of a sentence.
package detector

import (
	"strings"
	"sync"

	lingua "github.com/pemistahl/lingua-go"
)

type Detector struct {
	detector lingua.LanguageDetector
}

var (
	sharedOnce sync.Once
	shared     *Detector
)

// New builds a detector for every language lingua knows. Building loads
// language models lazily but is still expensive; prefer Shared.
func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: detector}
}

// Shared returns a process-wide detector, built on first use. It is safe for
// concurrent use by several cleaning tasks.
func Shared() *Detector {
	sharedOnce.Do(func() {
		shared = New()
	})
	return shared
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if strings.TrimSpace(text) == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectISO returns the lower-case ISO 639-1 code of the language of text.
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
