package cleaner

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/valpere/corpclean/internal/corpus"
	"github.com/valpere/corpclean/internal/fault"
	"github.com/valpere/corpclean/internal/filter"
)

// failingCorpus yields n good pairs, then fails with err.
type failingCorpus struct {
	n      int
	err    error
	closed bool
}

func (c *failingCorpus) Name() string           { return "failing" }
func (c *failingCorpus) SourceLanguage() string { return "en" }
func (c *failingCorpus) TargetLanguage() string { return "it" }
func (c *failingCorpus) Reader() (corpus.Reader, error) {
	return &failingReader{c: c}, nil
}

type failingReader struct {
	c   *failingCorpus
	pos int
}

func (r *failingReader) Read() (corpus.SentencePair, error) {
	if r.pos >= r.c.n {
		return corpus.SentencePair{}, r.c.err
	}
	r.pos++
	return corpus.SentencePair{Source: "source text", Target: "testo", Index: r.pos - 1}, nil
}

func (r *failingReader) Close() error {
	r.c.closed = true
	return nil
}

type brokenSink struct {
	openErr  error
	writeErr error
	closed   bool
}

func (s *brokenSink) Name() string { return "broken" }

func (s *brokenSink) Writer() (corpus.Writer, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return &brokenWriter{s: s}, nil
}

type brokenWriter struct{ s *brokenSink }

func (w *brokenWriter) Write(corpus.SentencePair) error { return w.s.writeErr }
func (w *brokenWriter) Close() error {
	w.s.closed = true
	return nil
}

func sample() *corpus.MemoryCorpus {
	return corpus.NewMemoryCorpus("sample", "en", "it",
		corpus.SentencePair{Source: "Good morning", Target: "Buongiorno"},
		corpus.SentencePair{Source: "Untranslated", Target: "Untranslated"},
		corpus.SentencePair{Source: "Thank you", Target: "Grazie"},
		corpus.SentencePair{Source: "Draft", Target: "Bozza", Origin: corpus.OriginDraft},
	)
}

func TestTask_Run(t *testing.T) {
	sink := corpus.NewMemorySink("out")
	task := NewTask(filter.NewChain(sample(), filter.NewDraftFilter()), sink)

	stats, err := task.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var got []string
	for _, p := range sink.Pairs() {
		got = append(got, p.Target)
	}
	if diff := cmp.Diff([]string{"Buongiorno", "Grazie"}, got); diff != "" {
		t.Errorf("written pairs mismatch (-want +got):\n%s", diff)
	}

	if stats.Corpus != "sample" || stats.Read != 4 || stats.Written != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.Dropped["draft"] != 2 || stats.DroppedTotal() != 2 {
		t.Errorf("expected 2 pairs dropped by draft, got %v", stats.Dropped)
	}
	if !sink.Balanced() {
		t.Error("expected writer to be closed")
	}
}

func TestTask_RunToFiles(t *testing.T) {
	dir := t.TempDir()
	out := corpus.NewFileCorpus(filepath.Join(dir, "out"), "sample", "en", "it")

	stats, err := NewTask(filter.NewChain(sample(), filter.NewDraftFilter()), out).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(stats.Digest) != 64 {
		t.Errorf("expected BLAKE3 digest in stats, got %q", stats.Digest)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out", "sample.it"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Buongiorno\nGrazie\n" {
		t.Errorf("unexpected target file: %q", data)
	}
}

func TestTask_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := corpus.NewMemorySink("out")
	_, err := NewTask(sample(), sink).Run(ctx)
	if !errors.Is(err, fault.ErrInterrupted) {
		t.Fatalf("expected interrupted, got %v", err)
	}
	if len(sink.Pairs()) != 0 {
		t.Error("expected nothing written")
	}
}

func TestTask_CancelledMidStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	stopAfterFirst := filter.Func("stop", func(p corpus.SentencePair) (bool, error) {
		if p.Index == 0 {
			defer cancel()
		}
		return true, nil
	})

	sink := corpus.NewMemorySink("out")
	src := &failingCorpus{n: 100, err: errors.New("unreachable")}
	stats, err := NewTask(filter.NewChain(src, stopAfterFirst), sink).Run(ctx)

	if !errors.Is(err, fault.ErrInterrupted) {
		t.Fatalf("expected interrupted, got %v", err)
	}
	if stats.Written != 1 {
		t.Errorf("expected exactly one pair before cancellation, got %d", stats.Written)
	}
	if !src.closed || !sink.Balanced() {
		t.Error("expected both cursors released")
	}
}

func TestTask_ReadFailure(t *testing.T) {
	src := &failingCorpus{n: 2, err: &corpus.IOError{Op: "read", Path: "x.en", Err: errors.New("bad sector")}}
	sink := corpus.NewMemorySink("out")

	stats, err := NewTask(src, sink).Run(context.Background())
	if !errors.Is(err, fault.ErrIO) {
		t.Fatalf("expected IO fault, got %v", err)
	}
	if stats.Written != 2 {
		t.Errorf("expected partial output of 2 pairs to remain, got %d", stats.Written)
	}
	if !src.closed || !sink.Balanced() {
		t.Error("expected both cursors released")
	}
}

func TestTask_WriteFailure(t *testing.T) {
	src := &failingCorpus{n: 3, err: io.EOF}
	sink := &brokenSink{writeErr: &corpus.IOError{Op: "write", Path: "out.it", Err: errors.New("disk full")}}

	_, err := NewTask(src, sink).Run(context.Background())
	if !errors.Is(err, fault.ErrIO) {
		t.Fatalf("expected IO fault, got %v", err)
	}
	if !src.closed || !sink.closed {
		t.Error("expected both cursors released")
	}
}

func TestTask_OutputOpenFailure(t *testing.T) {
	src := &failingCorpus{n: 3, err: io.EOF}
	sink := &brokenSink{openErr: &corpus.IOError{Op: "create", Path: "/ro/out.en", Err: os.ErrPermission}}

	_, err := NewTask(src, sink).Run(context.Background())
	if !errors.Is(err, fault.ErrIO) {
		t.Fatalf("expected IO fault, got %v", err)
	}
	if !src.closed {
		t.Error("expected source reader released")
	}
}

func TestTask_FilterError(t *testing.T) {
	bad := filter.Func("bad", func(corpus.SentencePair) (bool, error) {
		return false, errors.New("model not loaded")
	})

	_, err := NewTask(filter.NewChain(sample(), bad), corpus.NewMemorySink("out")).Run(context.Background())
	if !errors.Is(err, fault.ErrRuntime) {
		t.Fatalf("expected runtime fault, got %v", err)
	}
}

func TestTask_FilterPanic(t *testing.T) {
	panicky := filter.Func("panicky", func(corpus.SentencePair) (bool, error) {
		var m map[string]int
		m["boom"]++
		return true, nil
	})

	sink := corpus.NewMemorySink("out")
	_, err := NewTask(filter.NewChain(sample(), panicky), sink).Run(context.Background())
	if !errors.Is(err, fault.ErrFatal) {
		t.Fatalf("expected fatal fault, got %v", err)
	}
	if !sink.Balanced() {
		t.Error("expected writer to be closed after panic")
	}
}
