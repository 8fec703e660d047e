package filter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/valpere/corpclean/internal/corpus"
)

// minRatioRunes: the length ratio is only checked once the longer side has
// at least this many runes, short lines vary too much.
const minRatioRunes = 10

// LengthFilter rejects overlong sentences and pairs whose sides differ too
// much in length, a typical sign of misalignment.
type LengthFilter struct {
	maxRunes int
	maxRatio float64
}

// NewLengthFilter builds a LengthFilter. A zero maxRunes or maxRatio disables
// the corresponding check.
func NewLengthFilter(maxRunes int, maxRatio float64) (*LengthFilter, error) {
	if maxRunes < 0 {
		return nil, fmt.Errorf("max length must not be negative, got %d", maxRunes)
	}
	if maxRatio != 0 && maxRatio < 1 {
		return nil, fmt.Errorf("max length ratio must be >= 1, got %g", maxRatio)
	}
	return &LengthFilter{maxRunes: maxRunes, maxRatio: maxRatio}, nil
}

func (f *LengthFilter) Name() string { return "length" }

func (f *LengthFilter) Accept(p corpus.SentencePair) (bool, error) {
	ls := utf8.RuneCountInString(strings.TrimSpace(p.Source))
	lt := utf8.RuneCountInString(strings.TrimSpace(p.Target))

	if f.maxRunes > 0 && (ls > f.maxRunes || lt > f.maxRunes) {
		return false, nil
	}

	if f.maxRatio > 0 {
		longer, shorter := max(ls, lt), min(ls, lt)
		if longer >= minRatioRunes {
			if shorter == 0 || float64(longer)/float64(shorter) > f.maxRatio {
				return false, nil
			}
		}
	}
	return true, nil
}
