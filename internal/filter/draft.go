package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/valpere/corpclean/internal/corpus"
)

const (
	// DefaultDraftSimilarity is the edit-distance similarity at or above
	// which a target is considered a lightly edited copy of its source.
	DefaultDraftSimilarity = 0.95

	// minSimilarityRunes skips the fuzzy comparison for short lines, where a
	// single differing character already drops similarity a lot.
	minSimilarityRunes = 20
	maxSimilarityRunes = 1000
)

// placeholderTargets are target lines translators leave behind instead of a
// translation. Keys are lower case.
var placeholderTargets = map[string]bool{
	"todo":           true,
	"tbd":            true,
	"tba":            true,
	"fixme":          true,
	"xxx":            true,
	"???":            true,
	"?":              true,
	"n/a":            true,
	"-":              true,
	"--":             true,
	"...":            true,
	"…":              true,
	"[untranslated]": true,
	"untranslated":   true,
}

// DraftFilter rejects pairs that look like untranslated drafts: pairs marked
// as drafts by their corpus, blank sides, placeholder targets and targets
// that copy the source.
type DraftFilter struct {
	similarity float64
}

func NewDraftFilter() *DraftFilter {
	return &DraftFilter{similarity: DefaultDraftSimilarity}
}

// WithSimilarity returns a copy using threshold for near-copy detection.
// A threshold <= 0 disables it; exact copies are still rejected.
func (f *DraftFilter) WithSimilarity(threshold float64) *DraftFilter {
	return &DraftFilter{similarity: threshold}
}

func (f *DraftFilter) Name() string { return "draft" }

func (f *DraftFilter) Accept(p corpus.SentencePair) (bool, error) {
	if p.IsDraft() {
		return false, nil
	}

	source := fold(p.Source)
	target := fold(p.Target)
	if source == "" || target == "" {
		return false, nil
	}
	if placeholderTargets[strings.ToLower(target)] {
		return false, nil
	}

	// Numbers, codes and symbols legitimately survive translation unchanged.
	if !hasLetter(source) {
		return true, nil
	}
	if strings.EqualFold(source, target) {
		return false, nil
	}
	if f.similarity > 0 && isNearCopy(source, target, f.similarity) {
		return false, nil
	}
	return true, nil
}

// fold applies NFC and collapses runs of whitespace.
func fold(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func isNearCopy(source, target string, threshold float64) bool {
	a, b := []rune(strings.ToLower(source)), []rune(strings.ToLower(target))
	if len(a) < minSimilarityRunes || len(b) < minSimilarityRunes {
		return false
	}
	if len(a) > maxSimilarityRunes || len(b) > maxSimilarityRunes {
		return false
	}
	if lengthBound(len(a), len(b)) < threshold {
		return false
	}
	return similarity(a, b) >= threshold
}
