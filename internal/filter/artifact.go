package filter

import (
	"regexp"
	"strings"

	"github.com/valpere/corpclean/internal/corpus"
)

// Machine-translated corpora produced with language models sometimes keep
// the model's reasoning, a restated instruction or wrapping quotes in the
// target.

// thinkingTagRe matches an opening reasoning tag; a closing tag is not
// required since truncated output is just as unusable.
var thinkingTagRe = regexp.MustCompile(`(?i)<(?:thinking|think|reasoning|reflection)>`)

// echoPatterns match introductory phrases anchored at the start of the
// target. Each requires a colon to avoid rejecting legitimate sentences.
var echoPatterns = []*regexp.Regexp{
	// "Here is / Here's [the] [refined|polished|translated] translation:"
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:refined |polished |translated )?(?:translation|text)\s*:`),
	// "[The] [refined|polished] [translation|translated text]:"
	regexp.MustCompile(`(?i)^(?:the )?(?:refined |polished )?(?:translation|translated text)\s*:`),
	// "Certainly / Sure / Of course[,] here is [the] translation:"
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.]? here(?:'s| is)(?: the)? (?:refined |polished |translated )?(?:translation|text)\s*:`),
}

var quotePairs = map[rune]rune{
	'"':      '"',
	'\'':     '\'',
	'«':      '»',
	'\u201C': '\u201D',
	'\u2018': '\u2019',
}

// ArtifactFilter rejects pairs whose target carries language-model
// artifacts: reasoning blocks, instruction echoes, or outer quotes the
// source does not have.
type ArtifactFilter struct{}

func NewArtifactFilter() *ArtifactFilter { return &ArtifactFilter{} }

func (f *ArtifactFilter) Name() string { return "artifact" }

func (f *ArtifactFilter) Accept(p corpus.SentencePair) (bool, error) {
	target := strings.TrimSpace(p.Target)

	if thinkingTagRe.MatchString(target) && !thinkingTagRe.MatchString(p.Source) {
		return false, nil
	}
	for _, re := range echoPatterns {
		if re.MatchString(target) {
			return false, nil
		}
	}
	if quoteWrapped(target) && !quoteWrapped(strings.TrimSpace(p.Source)) {
		return false, nil
	}
	return true, nil
}

func quoteWrapped(text string) bool {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return false
	}
	closing, ok := quotePairs[runes[0]]
	return ok && runes[n-1] == closing
}
