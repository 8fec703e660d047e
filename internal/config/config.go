// Package config loads cleaning settings from defaults, an optional YAML
// file, CORPCLEAN_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix      = "CORPCLEAN"
	DefaultDBPath  = "./data/corpclean.db"
	DefaultWorkers = 10
)

type Config struct {
	InputDir    string       `mapstructure:"input" json:"input"`
	OutputDir   string       `mapstructure:"output" json:"output"`
	SourceLang  string       `mapstructure:"source" json:"source"`
	TargetLang  string       `mapstructure:"target" json:"target"`
	Concurrency int          `mapstructure:"concurrency" json:"concurrency"`
	Compress    bool         `mapstructure:"compress" json:"compress"`
	DBPath      string       `mapstructure:"db" json:"db"`
	NoHistory   bool         `mapstructure:"no_history" json:"no_history"`
	Report      string       `mapstructure:"report" json:"report"`
	Filters     FilterConfig `mapstructure:"filters" json:"filters"`
	Log         LogConfig    `mapstructure:"log" json:"log"`
}

type FilterConfig struct {
	MaxLength       int     `mapstructure:"max_length" json:"max_length"`
	MaxRatio        float64 `mapstructure:"max_ratio" json:"max_ratio"`
	CheckLanguage   bool    `mapstructure:"check_language" json:"check_language"`
	CheckMarkup     bool    `mapstructure:"check_markup" json:"check_markup"`
	CheckArtifacts  bool    `mapstructure:"check_artifacts" json:"check_artifacts"`
	DraftSimilarity float64 `mapstructure:"draft_similarity" json:"draft_similarity"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

// flagKeys maps configuration keys to the flag names that override them.
var flagKeys = map[string]string{
	"input":                    "input",
	"output":                   "output",
	"source":                   "source",
	"target":                   "target",
	"concurrency":              "concurrency",
	"compress":                 "compress",
	"db":                       "db",
	"no_history":               "no-history",
	"report":                   "report",
	"filters.max_length":       "max-length",
	"filters.max_ratio":        "max-ratio",
	"filters.check_language":   "check-language",
	"filters.check_markup":     "check-markup",
	"filters.check_artifacts":  "check-artifacts",
	"filters.draft_similarity": "draft-similarity",
	"log.level":                "log-level",
	"log.format":               "log-format",
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("input", "")
	v.SetDefault("output", "")
	v.SetDefault("source", "")
	v.SetDefault("target", "")
	v.SetDefault("concurrency", DefaultWorkers)
	v.SetDefault("compress", false)
	v.SetDefault("db", DefaultDBPath)
	v.SetDefault("no_history", false)
	v.SetDefault("report", "")
	v.SetDefault("filters.max_length", 0)
	v.SetDefault("filters.max_ratio", 0.0)
	v.SetDefault("filters.check_language", false)
	v.SetDefault("filters.check_markup", false)
	v.SetDefault("filters.check_artifacts", false)
	v.SetDefault("filters.draft_similarity", 0.95)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v
}

// BindFlags lets every flag in fs that has a matching configuration key
// override it when set on the command line.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the config file, if any, and decodes the merged settings. An
// explicit file must exist; without one, ./corpclean.yaml is used when
// present.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("corpclean")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings needed by the clean command.
func (c *Config) Validate() error {
	var errs []error
	if c.InputDir == "" {
		errs = append(errs, errors.New("input directory is required"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.SourceLang == "" || c.TargetLang == "" {
		errs = append(errs, errors.New("source and target languages are required"))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.InputDir != "" && c.OutputDir != "" && sameDir(c.InputDir, c.OutputDir) {
		errs = append(errs, errors.New("output directory must differ from input directory"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
