package filter

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/valpere/corpclean/internal/corpus"
	"github.com/valpere/corpclean/internal/detector"
)

// minDetectRunes is the minimum rune count required to attempt language
// detection. Shorter texts produce unreliable results and are accepted.
const minDetectRunes = 20

// LanguageDetector is the part of detector.Detector the filter needs.
type LanguageDetector interface {
	DetectISO(text string) (string, bool)
}

var _ LanguageDetector = (*detector.Detector)(nil)

// LanguageFilter rejects pairs where a side is confidently written in a
// language other than the one the corpus declares for it.
type LanguageFilter struct {
	det        LanguageDetector
	sourceBase string
	targetBase string
}

// NewLanguageFilter takes BCP 47 tags; only their base language is compared.
func NewLanguageFilter(det LanguageDetector, sourceLang, targetLang string) (*LanguageFilter, error) {
	src, err := baseLanguage(sourceLang)
	if err != nil {
		return nil, err
	}
	tgt, err := baseLanguage(targetLang)
	if err != nil {
		return nil, err
	}
	return &LanguageFilter{det: det, sourceBase: src, targetBase: tgt}, nil
}

func (f *LanguageFilter) Name() string { return "language" }

func (f *LanguageFilter) Accept(p corpus.SentencePair) (bool, error) {
	return f.sideMatches(p.Source, f.sourceBase) && f.sideMatches(p.Target, f.targetBase), nil
}

func (f *LanguageFilter) sideMatches(text, base string) bool {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < minDetectRunes {
		return true
	}

	detected, ok := f.det.DetectISO(text)
	if !ok {
		// Ambiguous language, cannot judge.
		return true
	}
	return strings.EqualFold(detected, base)
}

func baseLanguage(tag string) (string, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("invalid language %q: %w", tag, err)
	}
	base, _ := t.Base()
	return base.String(), nil
}
