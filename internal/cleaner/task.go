// Package cleaner runs the cleaning of a single corpus: it streams the
// filtered pairs of an input corpus into an output corpus, one pair at a
// time.
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/valpere/corpclean/internal/corpus"
	"github.com/valpere/corpclean/internal/fault"
	"github.com/valpere/corpclean/internal/filter"
)

// Stats summarises one finished task.
type Stats struct {
	Corpus   string
	Read     int
	Written  int
	Dropped  map[string]int
	Digest   string
	Duration time.Duration
}

// DroppedTotal is the number of pairs rejected by any filter.
func (s Stats) DroppedTotal() int {
	n := 0
	for _, v := range s.Dropped {
		n += v
	}
	return n
}

// contextReader is implemented by corpora whose readers can observe
// cancellation while skipping rejected pairs (filter.Chain).
type contextReader interface {
	ReaderContext(ctx context.Context) (corpus.Reader, error)
}

var _ contextReader = (*filter.Chain)(nil)

// Task cleans one input/output corpus pair.
type Task struct {
	source corpus.BilingualCorpus
	sink   corpus.Writable
}

func NewTask(source corpus.BilingualCorpus, sink corpus.Writable) *Task {
	return &Task{source: source, sink: sink}
}

func (t *Task) Corpus() string {
	return t.source.Name()
}

// Run streams the source into the sink. Cancellation of ctx is checked before
// every pair. Both cursors are closed before Run returns, whatever the
// outcome. Output already written when the task fails or is cancelled is
// left in place; callers must discard it.
//
// Errors are *fault.Error values: Interrupted, IO or Runtime for ordinary
// failures, Fatal when a collaborator panics.
func (t *Task) Run(ctx context.Context) (stats Stats, err error) {
	name := t.source.Name()
	start := time.Now()
	stats = Stats{Corpus: name, Dropped: map[string]int{}}

	defer func() {
		if r := recover(); r != nil {
			err = fault.FromPanic(name, r)
		}
		stats.Duration = time.Since(start)
	}()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return stats, fault.New(fault.Interrupted, name, ctxErr)
	}

	reader, err := openReader(ctx, t.source)
	if err != nil {
		return stats, fault.Classify(name, fmt.Errorf("open source: %w", err))
	}
	defer func() {
		if dc, ok := reader.(filter.DropCounter); ok {
			stats.Dropped = dc.Dropped()
		}
		stats.Read = stats.Written + stats.DroppedTotal()
		// Read-side close errors cannot corrupt the output.
		_ = reader.Close()
	}()

	writer, err := t.sink.Writer()
	if err != nil {
		return stats, fault.Classify(name, fmt.Errorf("open output %s: %w", t.sink.Name(), err))
	}
	defer func() {
		closeErr := writer.Close()
		if closeErr != nil && err == nil {
			err = fault.Classify(name, fmt.Errorf("close output %s: %w", t.sink.Name(), closeErr))
		}
		if d, ok := writer.(corpus.Digester); ok && err == nil {
			stats.Digest = d.Digest()
		}
	}()

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stats, fault.New(fault.Interrupted, name, ctxErr)
		}

		p, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			return stats, nil
		}
		if readErr != nil {
			return stats, fault.Classify(name, readErr)
		}

		if writeErr := writer.Write(p); writeErr != nil {
			return stats, fault.Classify(name, writeErr)
		}
		stats.Written++
	}
}

func openReader(ctx context.Context, c corpus.BilingualCorpus) (corpus.Reader, error) {
	if cr, ok := c.(contextReader); ok {
		return cr.ReaderContext(ctx)
	}
	return c.Reader()
}
