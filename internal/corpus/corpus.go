// Package corpus defines bilingual corpora and the cursors used to stream
// their aligned sentence pairs.
package corpus

import (
	"errors"
	"fmt"
)

// OriginDraft marks a pair that is known to come from an untranslated draft.
const OriginDraft = "draft"

// ErrMisaligned is returned when the source and target sides of a corpus do
// not have the same number of lines.
var ErrMisaligned = errors.New("source and target sides are not aligned")

// SentencePair is one aligned source/target line.
type SentencePair struct {
	Source string `json:"source"`
	Target string `json:"target"`
	// Index is the 0-based line position in the originating corpus.
	Index  int    `json:"index"`
	Origin string `json:"origin,omitempty"`
}

func (p SentencePair) IsDraft() bool {
	return p.Origin == OriginDraft
}

// Reader is a scoped sequential read cursor. Read returns io.EOF once the
// corpus is exhausted.
type Reader interface {
	Read() (SentencePair, error)
	Close() error
}

// Writer is a scoped sequential write cursor.
type Writer interface {
	Write(p SentencePair) error
	Close() error
}

// Digester is implemented by writers that fingerprint what they wrote.
// Digest is only meaningful after Close.
type Digester interface {
	Digest() string
}

// BilingualCorpus is a named, restartable source of sentence pairs. Every
// call to Reader opens a fresh cursor positioned at the first pair.
type BilingualCorpus interface {
	Name() string
	SourceLanguage() string
	TargetLanguage() string
	Reader() (Reader, error)
}

// Writable is an output corpus handle.
type Writable interface {
	Name() string
	Writer() (Writer, error)
}

// IOError reports a failed read or write on one side of a corpus.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
