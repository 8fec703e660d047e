package filter

import (
	"regexp"
	"slices"
	"strings"

	"github.com/valpere/corpclean/internal/corpus"
)

var (
	// fenced code blocks: ```...``` (non-greedy, may span lines)
	reFencedCode = regexp.MustCompile("(?s)```.*?```")

	// inline code spans: `...`
	reInlineCode = regexp.MustCompile("`[^`]+`")

	// HTML/XML tags; group 1 is the closing slash, group 2 the element name,
	// group 3 the self-closing slash.
	reHTMLTag = regexp.MustCompile(`<(/?)([A-Za-z][\w:.-]*)[^>]*?(/?)>`)

	// format placeholders: {0}, {name}, %s, %1$d
	reBracePlaceholder  = regexp.MustCompile(`\{[\w.]*\}`)
	rePrintfPlaceholder = regexp.MustCompile(`%(?:\d+\$)?[-+ #0]*\d*(?:\.\d+)?[sdfvqxXeEgGc]`)
)

// MarkupFilter rejects pairs whose sides do not carry the same markup:
// HTML/XML tags (compared by element name, attributes may be translated),
// code spans and format placeholders.
type MarkupFilter struct{}

func NewMarkupFilter() *MarkupFilter { return &MarkupFilter{} }

func (f *MarkupFilter) Name() string { return "markup" }

func (f *MarkupFilter) Accept(p corpus.SentencePair) (bool, error) {
	return slices.Equal(markupTokens(p.Source), markupTokens(p.Target)), nil
}

// markupTokens returns the sorted multiset of markup found in text. Code
// spans are matched first and removed so tags inside code are not counted
// twice.
func markupTokens(text string) []string {
	var tokens []string

	collect := func(re *regexp.Regexp) {
		text = re.ReplaceAllStringFunc(text, func(m string) string {
			tokens = append(tokens, m)
			return " "
		})
	}
	collect(reFencedCode)
	collect(reInlineCode)

	for _, m := range reHTMLTag.FindAllStringSubmatch(text, -1) {
		tokens = append(tokens, "<"+m[1]+strings.ToLower(m[2])+m[3]+">")
	}
	text = reHTMLTag.ReplaceAllString(text, " ")

	tokens = append(tokens, reBracePlaceholder.FindAllString(text, -1)...)
	tokens = append(tokens, rePrintfPlaceholder.FindAllString(text, -1)...)

	slices.Sort(tokens)
	return tokens
}
