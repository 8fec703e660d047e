// Package pipeline cleans a batch of bilingual corpora concurrently on a
// bounded pool of workers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/valpere/corpclean/internal/cleaner"
	"github.com/valpere/corpclean/internal/corpus"
	"github.com/valpere/corpclean/internal/fault"
	"github.com/valpere/corpclean/internal/filter"
)

const (
	// HardCap bounds the worker count regardless of configuration.
	HardCap = 10
	// GracePeriod is how long Run waits for workers after cancelling them.
	GracePeriod = time.Second
)

var ErrInvalidConcurrency = errors.New("concurrency must be at least 1")

// OutputFactory produces the output corpus for an input corpus. It is called
// once per corpus, from the goroutine that calls Run.
type OutputFactory interface {
	Output(c corpus.BilingualCorpus) (corpus.Writable, error)
}

type OutputFactoryFunc func(c corpus.BilingualCorpus) (corpus.Writable, error)

func (f OutputFactoryFunc) Output(c corpus.BilingualCorpus) (corpus.Writable, error) {
	return f(c)
}

// Observer is told about every corpus that finished cleaning, in completion
// order. Calls happen on the goroutine that calls Run.
type Observer interface {
	CorpusCleaned(stats cleaner.Stats)
}

type Option func(*Pipeline)

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithFilters appends filters to every chain created by Add, after the
// draft filter.
func WithFilters(filters ...filter.Filter) Option {
	return func(p *Pipeline) { p.extra = append(p.extra, filters...) }
}

// WithDraftSimilarity sets the near-copy threshold of the draft filter.
func WithDraftSimilarity(threshold float64) Option {
	return func(p *Pipeline) { p.draft = p.draft.WithSimilarity(threshold) }
}

func WithGracePeriod(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.grace = d
		}
	}
}

type Pipeline struct {
	factory     OutputFactory
	sourceLang  string
	targetLang  string
	concurrency int
	corpora     []*filter.Chain
	draft       *filter.DraftFilter
	extra       []filter.Filter
	observer    Observer
	logger      *slog.Logger
	grace       time.Duration
}

// New creates an empty pipeline. The language tags describe the batch and
// must be valid BCP 47 tags.
func New(factory OutputFactory, sourceLang, targetLang string, opts ...Option) (*Pipeline, error) {
	if factory == nil {
		return nil, errors.New("pipeline: output factory is required")
	}
	for _, tag := range []string{sourceLang, targetLang} {
		if _, err := language.Parse(tag); err != nil {
			return nil, fmt.Errorf("pipeline: invalid language tag %q: %w", tag, err)
		}
	}

	p := &Pipeline{
		factory:     factory,
		sourceLang:  sourceLang,
		targetLang:  targetLang,
		concurrency: HardCap,
		draft:       filter.NewDraftFilter(),
		logger:      slog.Default(),
		grace:       GracePeriod,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Add registers a corpus wrapped in a fresh filter chain holding the draft
// filter and any filters given with WithFilters. The returned chain may be
// extended until the pipeline runs.
func (p *Pipeline) Add(c corpus.BilingualCorpus) *filter.Chain {
	chain := filter.NewChain(c, p.draft)
	for _, f := range p.extra {
		// A chain nobody has read from yet is never sealed.
		_ = chain.Add(f)
	}
	p.corpora = append(p.corpora, chain)
	return chain
}

func (p *Pipeline) SetConcurrency(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidConcurrency, n)
	}
	p.concurrency = n
	return nil
}

func (p *Pipeline) SourceLanguage() string { return p.sourceLang }
func (p *Pipeline) TargetLanguage() string { return p.targetLang }
func (p *Pipeline) Concurrency() int       { return p.concurrency }

// Corpora returns the registered chains in registration order.
func (p *Pipeline) Corpora() []corpus.BilingualCorpus {
	out := make([]corpus.BilingualCorpus, len(p.corpora))
	for i, c := range p.corpora {
		out[i] = c
	}
	return out
}

// Workers is the pool size used for total corpora: the configured
// concurrency capped by HardCap and by total.
func Workers(configured, total int) int {
	return max(0, min(configured, HardCap, total))
}

type outcome struct {
	stats cleaner.Stats
	err   error
}

// Run cleans every registered corpus and returns when all of them have
// finished or the first one has failed. On failure the remaining work is
// cancelled and Run waits up to the grace period for workers to stop; a
// worker still running after that is logged and abandoned. The returned
// error is a *fault.Error carrying the kind of the first failure, or
// Interrupted when ctx ends first. Output of unfinished corpora is left in
// place.
func (p *Pipeline) Run(ctx context.Context) error {
	total := len(p.corpora)
	if total == 0 {
		p.logger.Debug("no corpora to clean")
		return nil
	}

	workers := Workers(p.concurrency, total)
	p.logger.Info("cleaning started",
		"corpora", total,
		"workers", workers,
		"source", p.sourceLang,
		"target", p.targetLang)
	start := time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan *cleaner.Task, total)
	done := make(chan outcome, total)

	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			for {
				select {
				case <-runCtx.Done():
					return nil
				case task, ok := <-jobs:
					if !ok {
						return nil
					}
					stats, err := task.Run(runCtx)
					done <- outcome{stats: stats, err: err}
				}
			}
		})
	}

	var failure error
	submitted := 0
	for _, chain := range p.corpora {
		out, err := p.factory.Output(chain)
		if err != nil {
			failure = fault.New(fault.IO, chain.Name(), fmt.Errorf("create output: %w", err))
			break
		}
		if out == nil {
			failure = fault.New(fault.Fatal, chain.Name(), errors.New("output factory returned nil"))
			break
		}
		jobs <- cleaner.NewTask(chain, out)
		submitted++
	}
	close(jobs)

	written, dropped := 0, 0
	for i := 0; i < submitted && failure == nil; i++ {
		select {
		case o := <-done:
			if o.err != nil {
				failure = o.err
				p.logger.Error("corpus failed", "corpus", o.stats.Corpus, "error", o.err)
				break
			}
			written += o.stats.Written
			dropped += o.stats.DroppedTotal()
			p.logger.Info("corpus cleaned",
				"corpus", o.stats.Corpus,
				"read", o.stats.Read,
				"written", o.stats.Written,
				"dropped", o.stats.DroppedTotal(),
				"duration", o.stats.Duration)
			if p.observer != nil {
				p.observer.CorpusCleaned(o.stats)
			}
		case <-ctx.Done():
			failure = fault.New(fault.Interrupted, "", ctx.Err())
		}
	}

	cancel()
	p.awaitWorkers(&g)

	if failure != nil {
		return propagate(failure)
	}
	p.logger.Info("cleaning finished",
		"corpora", total,
		"written", written,
		"dropped", dropped,
		"duration", time.Since(start))
	return nil
}

// awaitWorkers waits for the pool to stop, at most for the grace period.
// Running out of time is not an error.
func (p *Pipeline) awaitWorkers(g *errgroup.Group) {
	stopped := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(stopped)
	}()

	timer := time.NewTimer(p.grace)
	defer timer.Stop()

	select {
	case <-stopped:
	case <-timer.C:
		p.logger.Warn("workers still running after grace period", "grace", p.grace)
	}
}

// propagate keeps recognised fault kinds and reports anything else as fatal.
func propagate(err error) error {
	var fe *fault.Error
	if errors.As(err, &fe) {
		if fe.Kind.Recognized() {
			return fe
		}
		return fault.New(fault.Fatal, fe.Corpus, fe.Err)
	}
	return fault.New(fault.Fatal, "", err)
}
