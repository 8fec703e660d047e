// Package report renders a summary of a cleaning run as Markdown or HTML.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/valpere/corpclean/internal"
)

// Markdown renders run and its per-corpus results as a Markdown document.
func Markdown(run internal.CleaningRun, results []internal.CorpusResult) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# Cleaning run %s\n\n", run.ID)
	fmt.Fprintf(&b, "- **Languages:** %s → %s\n", run.SourceLang, run.TargetLang)
	fmt.Fprintf(&b, "- **Input:** `%s`\n", run.InputDir)
	fmt.Fprintf(&b, "- **Output:** `%s`\n", run.OutputDir)
	fmt.Fprintf(&b, "- **Concurrency:** %d\n", run.Concurrency)
	fmt.Fprintf(&b, "- **Status:** %s\n", run.Status)
	if run.Error != "" {
		fmt.Fprintf(&b, "- **Error:** %s\n", escape(run.Error))
	}
	if !run.StartedAt.IsZero() {
		fmt.Fprintf(&b, "- **Started:** %s\n", run.StartedAt.Format(time.RFC3339))
	}
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "- **Finished:** %s\n", run.FinishedAt.Format(time.RFC3339))
	}
	b.WriteString("\n")

	if len(results) == 0 {
		b.WriteString("No corpus finished cleaning.\n")
		return b.Bytes()
	}

	b.WriteString("| Corpus | Read | Written | Dropped | Duration | Digest |\n")
	b.WriteString("|---|---:|---:|---:|---:|---|\n")
	var read, written, dropped int
	for _, r := range results {
		digest := r.Digest
		if len(digest) > 12 {
			digest = digest[:12]
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %s | %s |\n",
			escape(r.Corpus), r.Read, r.Written, r.Dropped, r.Duration.Round(time.Millisecond), digest)
		read += r.Read
		written += r.Written
		dropped += r.Dropped
	}
	fmt.Fprintf(&b, "| **Total** | %d | %d | %d | | |\n", read, written, dropped)

	return b.Bytes()
}

func ToHTML(md []byte) string {
	opts := html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank | html.CompletePage,
		Title: "corpclean report",
	}
	renderer := html.NewRenderer(opts)
	ext := parser.CommonExtensions | parser.Attributes
	p := parser.NewWithExtensions(ext)
	doc := p.Parse(md)
	return string(markdown.Render(doc, renderer))
}

// Write saves the report to path, as HTML when the extension is .html or
// .htm and as Markdown otherwise.
func Write(path string, run internal.CleaningRun, results []internal.CorpusResult) error {
	md := Markdown(run, results)
	data := md
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		data = []byte(ToHTML(md))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\n", " ")

func escape(s string) string {
	return cellEscaper.Replace(s)
}
