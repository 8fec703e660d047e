// Package fault tags cleaning failures with the kind the caller must handle:
// an interruption, an I/O failure, an ordinary runtime fault, or a fatal
// fault that points at a programming error in a collaborator.
package fault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/valpere/corpclean/internal/corpus"
)

type Kind int

const (
	Interrupted Kind = iota + 1
	IO
	Runtime
	Fatal
)

var (
	ErrInterrupted = errors.New("interrupted")
	ErrIO          = errors.New("i/o failure")
	ErrRuntime     = errors.New("runtime fault")
	ErrFatal       = errors.New("unexpected fault")
)

func (k Kind) String() string {
	switch k {
	case Interrupted:
		return "interrupted"
	case IO:
		return "io"
	case Runtime:
		return "runtime"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case Interrupted:
		return ErrInterrupted
	case IO:
		return ErrIO
	case Runtime:
		return ErrRuntime
	default:
		return ErrFatal
	}
}

// Recognized reports whether k is one of the kinds surfaced verbatim to
// callers. Everything else is escalated to Fatal.
func (k Kind) Recognized() bool {
	return k == Interrupted || k == IO || k == Runtime
}

// Error is a failure of the cleaning task for one corpus.
type Error struct {
	Kind   Kind
	Corpus string
	Err    error
}

func New(kind Kind, corpusName string, err error) *Error {
	return &Error{Kind: kind, Corpus: corpusName, Err: err}
}

func (e *Error) Error() string {
	if e.Corpus == "" {
		return fmt.Sprintf("%s: %v", e.Kind.sentinel(), e.Err)
	}
	return fmt.Sprintf("corpus %q: %s: %v", e.Corpus, e.Kind.sentinel(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrIO) and friends match on the kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// Classify tags err with a kind. An err that already carries a fault is
// returned unchanged.
func Classify(corpusName string, err error) *Error {
	if err == nil {
		return nil
	}

	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return New(Interrupted, corpusName, err)
	case isIO(err):
		return New(IO, corpusName, err)
	default:
		return New(Runtime, corpusName, err)
	}
}

func isIO(err error) bool {
	var ioErr *corpus.IOError
	var pathErr *fs.PathError
	return errors.As(err, &ioErr) ||
		errors.As(err, &pathErr) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrShortWrite) ||
		errors.Is(err, corpus.ErrMisaligned)
}

// FromPanic turns a recovered panic value into a Fatal fault.
func FromPanic(corpusName string, v any) *Error {
	if err, ok := v.(error); ok {
		return New(Fatal, corpusName, fmt.Errorf("panic: %w", err))
	}
	return New(Fatal, corpusName, fmt.Errorf("panic: %v", v))
}

// KindOf returns the kind carried by err, or 0 when err carries no fault.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}
