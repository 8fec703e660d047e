package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/valpere/corpclean/internal"
	"github.com/valpere/corpclean/internal/config"
	"github.com/valpere/corpclean/internal/fault"
	"github.com/valpere/corpclean/internal/store"
)

func TestBuildFilters(t *testing.T) {
	tests := []struct {
		name string
		fc   config.FilterConfig
		want []string
	}{
		{"none", config.FilterConfig{}, nil},
		{"length only", config.FilterConfig{MaxLength: 100}, []string{"length"}},
		{"ratio and markup", config.FilterConfig{MaxRatio: 3, CheckMarkup: true}, []string{"length", "markup"}},
		{"all", config.FilterConfig{MaxLength: 100, CheckMarkup: true, CheckArtifacts: true, CheckLanguage: true}, []string{"length", "markup", "artifact", "language"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filters, err := buildFilters(tt.fc, "en", "it")
			if err != nil {
				t.Fatalf("buildFilters failed: %v", err)
			}
			var names []string
			for _, f := range filters {
				names = append(names, f.Name())
			}
			if diff := cmp.Diff(tt.want, names); diff != "" {
				t.Errorf("filters mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildFilters_InvalidRatio(t *testing.T) {
	if _, err := buildFilters(config.FilterConfig{MaxRatio: 0.5}, "en", "it"); err == nil {
		t.Error("expected error for ratio below 1")
	}
}

func TestRunStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, internal.RunCompleted},
		{fault.New(fault.Interrupted, "", context.Canceled), internal.RunInterrupted},
		{fault.New(fault.IO, "a", errors.New("disk full")), internal.RunFailed},
	}
	for _, tt := range tests {
		if got := runStatus(tt.err); got != tt.want {
			t.Errorf("runStatus(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCleanCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	db := filepath.Join(dir, "data", "history.db")
	reportPath := filepath.Join(dir, "report.md")

	writeFile(t, filepath.Join(in, "news.en"), "Good morning\nUntranslated\nThank you\n")
	writeFile(t, filepath.Join(in, "news.it"), "Buongiorno\nUntranslated\nGrazie\n")
	writeFile(t, filepath.Join(in, "books.en"), "The end\n")
	writeFile(t, filepath.Join(in, "books.it"), "Fine\n")

	rootCmd.SetArgs([]string{
		"clean", "-i", in, "-o", out, "-s", "en", "-t", "it",
		"--concurrency", "2", "--db", db, "--report", reportPath,
		"--log-level", "error",
	})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("clean failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(out, "news.it"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "Buongiorno\nGrazie\n" {
		t.Errorf("unexpected cleaned target: %q", got)
	}

	rep, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report missing: %v", err)
	}
	if !strings.Contains(string(rep), "| news | 3 | 2 | 1 |") {
		t.Errorf("unexpected report:\n%s", rep)
	}

	s, err := store.New(db)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	runs, err := s.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != internal.RunCompleted || runs[0].Corpora != 2 {
		t.Fatalf("unexpected history: %+v", runs)
	}
}
