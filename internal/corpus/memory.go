package corpus

import (
	"errors"
	"io"
	"sync"
)

var errClosed = errors.New("cursor is closed")

// MemoryCorpus holds its pairs in memory. It is mainly used by tests and by
// callers that assemble small corpora on the fly.
type MemoryCorpus struct {
	name       string
	sourceLang string
	targetLang string
	pairs      []SentencePair
}

// NewMemoryCorpus copies pairs and renumbers their Index fields.
func NewMemoryCorpus(name, sourceLang, targetLang string, pairs ...SentencePair) *MemoryCorpus {
	cp := make([]SentencePair, len(pairs))
	for i, p := range pairs {
		p.Index = i
		cp[i] = p
	}
	return &MemoryCorpus{name: name, sourceLang: sourceLang, targetLang: targetLang, pairs: cp}
}

func (c *MemoryCorpus) Name() string           { return c.name }
func (c *MemoryCorpus) SourceLanguage() string { return c.sourceLang }
func (c *MemoryCorpus) TargetLanguage() string { return c.targetLang }
func (c *MemoryCorpus) Len() int               { return len(c.pairs) }

func (c *MemoryCorpus) Reader() (Reader, error) {
	return &memoryReader{pairs: c.pairs}, nil
}

type memoryReader struct {
	pairs  []SentencePair
	pos    int
	closed bool
}

func (r *memoryReader) Read() (SentencePair, error) {
	if r.closed {
		return SentencePair{}, errClosed
	}
	if r.pos >= len(r.pairs) {
		return SentencePair{}, io.EOF
	}
	p := r.pairs[r.pos]
	r.pos++
	return p, nil
}

func (r *memoryReader) Close() error {
	r.closed = true
	return nil
}

// MemorySink collects written pairs. It is safe for concurrent use; every
// call to Writer appends to the same collection.
type MemorySink struct {
	name string

	mu     sync.Mutex
	pairs  []SentencePair
	opened int
	closed int
}

func NewMemorySink(name string) *MemorySink {
	return &MemorySink{name: name}
}

func (s *MemorySink) Name() string { return s.name }

func (s *MemorySink) Writer() (Writer, error) {
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()
	return &memoryWriter{sink: s}, nil
}

// Pairs returns a copy of everything written so far.
func (s *MemorySink) Pairs() []SentencePair {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentencePair, len(s.pairs))
	copy(out, s.pairs)
	return out
}

// Balanced reports whether every opened writer has been closed.
func (s *MemorySink) Balanced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened == s.closed
}

type memoryWriter struct {
	sink   *MemorySink
	closed bool
}

func (w *memoryWriter) Write(p SentencePair) error {
	if w.closed {
		return errClosed
	}
	w.sink.mu.Lock()
	w.sink.pairs = append(w.sink.pairs, p)
	w.sink.mu.Unlock()
	return nil
}

func (w *memoryWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.sink.mu.Lock()
	w.sink.closed++
	w.sink.mu.Unlock()
	return nil
}
