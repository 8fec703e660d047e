package corpus

import (
	"io"
	"sync"
	"testing"
)

func TestMemoryCorpus_RestartableReader(t *testing.T) {
	c := NewMemoryCorpus("mem", "en", "uk",
		SentencePair{Source: "one", Target: "один", Index: 42},
		SentencePair{Source: "two", Target: "два"},
	)

	for round := 0; round < 2; round++ {
		pairs := readAll(t, c)
		if len(pairs) != 2 {
			t.Fatalf("round %d: expected 2 pairs, got %d", round, len(pairs))
		}
		if pairs[0].Index != 0 || pairs[1].Index != 1 {
			t.Errorf("round %d: expected renumbered indexes, got %d and %d", round, pairs[0].Index, pairs[1].Index)
		}
	}
}

func TestMemoryCorpus_ReadAfterClose(t *testing.T) {
	r, _ := NewMemoryCorpus("mem", "en", "uk", SentencePair{Source: "a", Target: "b"}).Reader()
	r.Close()
	if _, err := r.Read(); err == nil || err == io.EOF {
		t.Errorf("expected closed-cursor error, got %v", err)
	}
}

func TestMemorySink_ConcurrentWriters(t *testing.T) {
	sink := NewMemorySink("out")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, _ := sink.Writer()
			defer w.Close()
			for j := 0; j < 25; j++ {
				_ = w.Write(SentencePair{Source: "s", Target: "t"})
			}
		}()
	}
	wg.Wait()

	if n := len(sink.Pairs()); n != 100 {
		t.Errorf("expected 100 pairs, got %d", n)
	}
	if !sink.Balanced() {
		t.Error("expected every writer to be closed")
	}
}
