// Package filter decides which sentence pairs survive cleaning. Filters are
// composed into a Chain, which decorates a corpus so that its readers only
// yield pairs accepted by every filter.
package filter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/valpere/corpclean/internal/corpus"
)

// ErrChainSealed is returned by Chain.Add once the chain has handed out a
// reader.
var ErrChainSealed = errors.New("filter chain already producing output")

// Filter is a predicate over a sentence pair. Accept must not keep state
// between calls; one filter instance may be shared by several chains that
// run concurrently. A returned error aborts the cleaning of the corpus.
type Filter interface {
	Name() string
	Accept(p corpus.SentencePair) (bool, error)
}

type funcFilter struct {
	name string
	fn   func(corpus.SentencePair) (bool, error)
}

func (f funcFilter) Name() string                               { return f.name }
func (f funcFilter) Accept(p corpus.SentencePair) (bool, error) { return f.fn(p) }

// Func adapts a plain function into a named Filter.
func Func(name string, fn func(corpus.SentencePair) (bool, error)) Filter {
	return funcFilter{name: name, fn: fn}
}

// DropCounter is implemented by readers that know how many pairs each filter
// rejected.
type DropCounter interface {
	Dropped() map[string]int
}

// Chain is a corpus whose pairs are passed through an ordered list of
// filters. A pair is dropped by the first filter that rejects it; later
// filters never see it.
type Chain struct {
	corpus corpus.BilingualCorpus

	mu      sync.Mutex
	filters []Filter
	sealed  bool
}

func NewChain(c corpus.BilingualCorpus, filters ...Filter) *Chain {
	return &Chain{corpus: c, filters: append([]Filter(nil), filters...)}
}

// Add appends f to the end of the chain.
func (c *Chain) Add(f Filter) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		return ErrChainSealed
	}
	c.filters = append(c.filters, f)
	return nil
}

// Filters returns the filters in evaluation order.
func (c *Chain) Filters() []Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Filter(nil), c.filters...)
}

// Unwrap returns the decorated corpus.
func (c *Chain) Unwrap() corpus.BilingualCorpus { return c.corpus }

func (c *Chain) Name() string           { return c.corpus.Name() }
func (c *Chain) SourceLanguage() string { return c.corpus.SourceLanguage() }
func (c *Chain) TargetLanguage() string { return c.corpus.TargetLanguage() }

func (c *Chain) Reader() (corpus.Reader, error) {
	return c.ReaderContext(context.Background())
}

// ReaderContext opens a filtered cursor that stops with ctx.Err() as soon
// as ctx is done, checked before every source pair including rejected ones.
func (c *Chain) ReaderContext(ctx context.Context) (corpus.Reader, error) {
	c.mu.Lock()
	c.sealed = true
	filters := append([]Filter(nil), c.filters...)
	c.mu.Unlock()

	r, err := c.corpus.Reader()
	if err != nil {
		return nil, err
	}
	return &chainReader{
		ctx:     ctx,
		source:  r,
		filters: filters,
		dropped: make(map[string]int, len(filters)),
	}, nil
}

type chainReader struct {
	ctx     context.Context
	source  corpus.Reader
	filters []Filter
	dropped map[string]int
}

func (r *chainReader) Read() (corpus.SentencePair, error) {
	for {
		if err := r.ctx.Err(); err != nil {
			return corpus.SentencePair{}, err
		}

		p, err := r.source.Read()
		if err != nil {
			return corpus.SentencePair{}, err
		}

		rejectedBy, err := r.evaluate(p)
		if err != nil {
			return corpus.SentencePair{}, err
		}
		if rejectedBy == nil {
			return p, nil
		}
		r.dropped[rejectedBy.Name()]++
	}
}

// evaluate returns the first filter rejecting p, or nil.
func (r *chainReader) evaluate(p corpus.SentencePair) (Filter, error) {
	for _, f := range r.filters {
		ok, err := f.Accept(p)
		if err != nil {
			return nil, fmt.Errorf("filter %s at pair %d: %w", f.Name(), p.Index, err)
		}
		if !ok {
			return f, nil
		}
	}
	return nil, nil
}

func (r *chainReader) Dropped() map[string]int {
	out := make(map[string]int, len(r.dropped))
	for k, v := range r.dropped {
		out[k] = v
	}
	return out
}

func (r *chainReader) Close() error {
	return r.source.Close()
}
