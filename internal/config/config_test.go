package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Concurrency != DefaultWorkers {
		t.Errorf("expected default concurrency %d, got %d", DefaultWorkers, cfg.Concurrency)
	}
	if cfg.DBPath != DefaultDBPath {
		t.Errorf("expected default db %s, got %s", DefaultDBPath, cfg.DBPath)
	}
	if cfg.Filters.DraftSimilarity != 0.95 {
		t.Errorf("expected draft similarity 0.95, got %v", cfg.Filters.DraftSimilarity)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("unexpected log defaults: %+v", cfg.Log)
	}
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "corpclean.yaml")
	yaml := `
input: /data/in
output: /data/out
source: en
target: it
concurrency: 3
filters:
  max_length: 200
  check_markup: true
log:
  format: json
`
	if err := os.WriteFile(file, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CORPCLEAN_CONCURRENCY", "6")
	t.Setenv("CORPCLEAN_FILTERS_MAX_RATIO", "2.5")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("target", "", "")
	fs.Int("max-length", 0, "")
	fs.Bool("compress", false, "")
	if err := fs.Parse([]string{"--target", "de", "--compress"}); err != nil {
		t.Fatal(err)
	}

	v := New()
	if err := BindFlags(v, fs); err != nil {
		t.Fatalf("BindFlags failed: %v", err)
	}
	cfg, err := Load(v, file)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := Config{
		InputDir:    "/data/in",
		OutputDir:   "/data/out",
		SourceLang:  "en",
		TargetLang:  "de",
		Concurrency: 6,
		Compress:    true,
		DBPath:      DefaultDBPath,
		Filters: FilterConfig{
			MaxLength:       200,
			MaxRatio:        2.5,
			CheckMarkup:     true,
			DraftSimilarity: 0.95,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
	if diff := cmp.Diff(want, *cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			InputDir:    "in",
			OutputDir:   "out",
			SourceLang:  "en",
			TargetLang:  "it",
			Concurrency: 1,
			Log:         LogConfig{Format: "text"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no input", func(c *Config) { c.InputDir = "" }, "input directory"},
		{"no languages", func(c *Config) { c.TargetLang = "" }, "languages"},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, "concurrency"},
		{"same dirs", func(c *Config) { c.OutputDir = "./in/" }, "must differ"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
