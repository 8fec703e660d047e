package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valpere/corpclean/internal"
)

func sample() (internal.CleaningRun, []internal.CorpusResult) {
	run := internal.CleaningRun{
		ID:          "run-1",
		InputDir:    "/data/in",
		OutputDir:   "/data/out",
		SourceLang:  "en",
		TargetLang:  "it",
		Concurrency: 4,
		Status:      internal.RunCompleted,
		StartedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	results := []internal.CorpusResult{
		{Corpus: "books", Read: 5, Written: 5, Duration: 20 * time.Millisecond},
		{Corpus: "news|wire", Read: 10, Written: 8, Dropped: 2, Digest: strings.Repeat("ab", 32), Duration: 1500 * time.Millisecond},
	}
	return run, results
}

func TestMarkdown(t *testing.T) {
	run, results := sample()
	md := string(Markdown(run, results))

	for _, want := range []string{
		"# Cleaning run run-1",
		"en → it",
		"| books | 5 | 5 | 0 | 20ms |",
		`news\|wire`,
		"abababababab |",
		"| **Total** | 15 | 13 | 2 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected %q in report:\n%s", want, md)
		}
	}
	if strings.Contains(md, strings.Repeat("ab", 32)) {
		t.Error("expected digest to be shortened")
	}
}

func TestMarkdown_NoResults(t *testing.T) {
	run, _ := sample()
	run.Status = internal.RunFailed
	run.Error = "corpus \"x\": i/o failure"

	md := string(Markdown(run, nil))
	if !strings.Contains(md, "No corpus finished cleaning.") {
		t.Errorf("expected empty notice, got:\n%s", md)
	}
	if !strings.Contains(md, "**Error:**") {
		t.Errorf("expected error line, got:\n%s", md)
	}
}

func TestToHTML(t *testing.T) {
	out := ToHTML([]byte("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"))
	if !strings.Contains(out, "<h1") || !strings.Contains(out, "<table>") {
		t.Errorf("expected heading and table, got:\n%s", out)
	}
	if !strings.Contains(out, "<html") {
		t.Errorf("expected a complete page, got:\n%s", out)
	}
}

func TestWrite(t *testing.T) {
	run, results := sample()
	dir := t.TempDir()

	tests := []struct {
		file string
		want string
	}{
		{"report.md", "# Cleaning run run-1"},
		{"report.html", "<table>"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := Write(path, run, results); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("expected %q in %s", tt.want, tt.file)
			}
		})
	}
}
