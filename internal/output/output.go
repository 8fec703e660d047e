// Package output decides where cleaned corpora are written.
package output

import (
	"errors"
	"os"

	"github.com/valpere/corpclean/internal/corpus"
	"github.com/valpere/corpclean/internal/filter"
)

type Option func(*DirFactory)

// WithCompression makes every output xz-compressed.
func WithCompression() Option {
	return func(f *DirFactory) { f.compress = true }
}

// DirFactory writes each cleaned corpus under one directory, keeping the
// input corpus name and language codes.
type DirFactory struct {
	dir      string
	compress bool
}

func NewDirFactory(dir string, opts ...Option) (*DirFactory, error) {
	if dir == "" {
		return nil, errors.New("output directory is required")
	}
	f := &DirFactory{dir: dir}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *DirFactory) Dir() string { return f.dir }

// Output returns the file corpus the cleaned version of c is written to. It
// refuses to overwrite the input files of c.
func (f *DirFactory) Output(c corpus.BilingualCorpus) (corpus.Writable, error) {
	var fileOpts []corpus.FileOption
	if f.compress {
		fileOpts = append(fileOpts, corpus.Compressed())
	}
	out := corpus.NewFileCorpus(f.dir, c.Name(), c.SourceLanguage(), c.TargetLanguage(), fileOpts...)

	if in, ok := unwrap(c).(*corpus.FileCorpus); ok {
		for _, lang := range []string{c.SourceLanguage(), c.TargetLanguage()} {
			if sameFile(in.Path(lang), out.WritePath(lang)) {
				return nil, &corpus.IOError{Op: "create", Path: out.WritePath(lang), Err: errors.New("output would overwrite input")}
			}
		}
	}
	return out, nil
}

func unwrap(c corpus.BilingualCorpus) corpus.BilingualCorpus {
	for {
		chain, ok := c.(*filter.Chain)
		if !ok {
			return c
		}
		c = chain.Unwrap()
	}
}

func sameFile(a, b string) bool {
	sa, err := os.Stat(a)
	if err != nil {
		return false
	}
	sb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(sa, sb)
}
