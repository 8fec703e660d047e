package corpus

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
	"golang.org/x/text/unicode/norm"
)

const (
	xzExt = ".xz"

	// maxLineBytes bounds a single sentence; longer lines fail the read.
	maxLineBytes = 4 * 1024 * 1024
)

// FileCorpus is a pair of line-aligned text files named <name>.<lang> inside
// one directory. Either file may be xz-compressed (<name>.<lang>.xz).
type FileCorpus struct {
	dir        string
	name       string
	sourceLang string
	targetLang string
	compress   bool
}

// FileOption configures a FileCorpus.
type FileOption func(*FileCorpus)

// Compressed makes writers produce xz-compressed files.
func Compressed() FileOption {
	return func(c *FileCorpus) { c.compress = true }
}

func NewFileCorpus(dir, name, sourceLang, targetLang string, opts ...FileOption) *FileCorpus {
	c := &FileCorpus{
		dir:        dir,
		name:       name,
		sourceLang: sourceLang,
		targetLang: targetLang,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *FileCorpus) Name() string           { return c.name }
func (c *FileCorpus) SourceLanguage() string { return c.sourceLang }
func (c *FileCorpus) TargetLanguage() string { return c.targetLang }
func (c *FileCorpus) Dir() string            { return c.dir }

// Path returns the file holding the given language side. For reading, an
// existing plain file wins over its compressed variant.
func (c *FileCorpus) Path(lang string) string {
	plain := filepath.Join(c.dir, c.name+"."+lang)
	if c.compress {
		return plain + xzExt
	}
	if _, err := os.Stat(plain); err != nil {
		if _, xzErr := os.Stat(plain + xzExt); xzErr == nil {
			return plain + xzExt
		}
	}
	return plain
}

// WritePath returns the file Writer creates for the given language side.
func (c *FileCorpus) WritePath(lang string) string {
	plain := filepath.Join(c.dir, c.name+"."+lang)
	if c.compress {
		return plain + xzExt
	}
	return plain
}

func (c *FileCorpus) Reader() (Reader, error) {
	src, err := openLines(c.Path(c.sourceLang))
	if err != nil {
		return nil, err
	}
	tgt, err := openLines(c.Path(c.targetLang))
	if err != nil {
		src.Close()
		return nil, err
	}
	return &fileReader{src: src, tgt: tgt}, nil
}

func (c *FileCorpus) Writer() (Writer, error) {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return nil, &IOError{Op: "mkdir", Path: c.dir, Err: err}
	}
	src, err := createLines(c.WritePath(c.sourceLang), c.compress)
	if err != nil {
		return nil, err
	}
	tgt, err := createLines(c.WritePath(c.targetLang), c.compress)
	if err != nil {
		src.Close()
		return nil, err
	}
	return &fileWriter{src: src, tgt: tgt, hash: blake3.New()}, nil
}

func (c *FileCorpus) String() string {
	return fmt.Sprintf("%s (%s-%s)", filepath.Join(c.dir, c.name), c.sourceLang, c.targetLang)
}

// Discover lists the corpora in dir that have both a source and a target
// file, sorted by name.
func Discover(dir, sourceLang, targetLang string, opts ...FileOption) ([]*FileCorpus, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &IOError{Op: "list", Path: dir, Err: err}
	}

	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			present[strings.TrimSuffix(e.Name(), xzExt)] = true
		}
	}

	var names []string
	suffix := "." + sourceLang
	for file := range present {
		if !strings.HasSuffix(file, suffix) {
			continue
		}
		name := strings.TrimSuffix(file, suffix)
		if name != "" && present[name+"."+targetLang] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	corpora := make([]*FileCorpus, 0, len(names))
	for _, name := range names {
		corpora = append(corpora, NewFileCorpus(dir, name, sourceLang, targetLang, opts...))
	}
	return corpora, nil
}

type lineFile struct {
	path    string
	file    *os.File
	scanner *bufio.Scanner
}

func openLines(path string) (*lineFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, xzExt) {
		xr, err := xz.NewReader(r)
		if err != nil {
			f.Close()
			return nil, &IOError{Op: "open", Path: path, Err: err}
		}
		r = xr
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &lineFile{path: path, file: f, scanner: sc}, nil
}

// next returns the next line, NFC-normalised, and false at end of file.
func (l *lineFile) next() (string, bool, error) {
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return "", false, &IOError{Op: "read", Path: l.path, Err: err}
		}
		return "", false, nil
	}
	line := strings.TrimRight(l.scanner.Text(), "\r")
	return norm.NFC.String(line), true, nil
}

func (l *lineFile) Close() error {
	return l.file.Close()
}

type fileReader struct {
	src   *lineFile
	tgt   *lineFile
	index int
}

func (r *fileReader) Read() (SentencePair, error) {
	source, okSrc, err := r.src.next()
	if err != nil {
		return SentencePair{}, err
	}
	target, okTgt, err := r.tgt.next()
	if err != nil {
		return SentencePair{}, err
	}

	switch {
	case !okSrc && !okTgt:
		return SentencePair{}, io.EOF
	case okSrc != okTgt:
		return SentencePair{}, &IOError{
			Op:   "read",
			Path: r.src.path,
			Err:  fmt.Errorf("%w at line %d", ErrMisaligned, r.index+1),
		}
	}

	p := SentencePair{Source: source, Target: target, Index: r.index}
	r.index++
	return p, nil
}

func (r *fileReader) Close() error {
	return errors.Join(r.src.Close(), r.tgt.Close())
}

type lineSink struct {
	path string
	file *os.File
	xz   *xz.Writer
	buf  *bufio.Writer
}

func createLines(path string, compress bool) (*lineSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &IOError{Op: "create", Path: path, Err: err}
	}

	s := &lineSink{path: path, file: f}
	var w io.Writer = f
	if compress {
		xw, err := xz.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, &IOError{Op: "create", Path: path, Err: err}
		}
		s.xz = xw
		w = xw
	}
	s.buf = bufio.NewWriter(w)
	return s, nil
}

func (s *lineSink) writeLine(line string) error {
	if _, err := s.buf.WriteString(line); err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	if err := s.buf.WriteByte('\n'); err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

func (s *lineSink) Close() error {
	var errs []error
	if err := s.buf.Flush(); err != nil {
		errs = append(errs, err)
	}
	if s.xz != nil {
		if err := s.xz.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return &IOError{Op: "close", Path: s.path, Err: err}
	}
	return nil
}

type fileWriter struct {
	src  *lineSink
	tgt  *lineSink
	hash *blake3.Hasher
	sum  string
}

func (w *fileWriter) Write(p SentencePair) error {
	source := flattenLine(p.Source)
	target := flattenLine(p.Target)
	if err := w.src.writeLine(source); err != nil {
		return err
	}
	if err := w.tgt.writeLine(target); err != nil {
		return err
	}
	w.hash.Write([]byte(source + "\n" + target + "\n"))
	return nil
}

func (w *fileWriter) Close() error {
	w.sum = hex.EncodeToString(w.hash.Sum(nil))
	return errors.Join(w.src.Close(), w.tgt.Close())
}

// Digest returns the BLAKE3 digest of the pairs written, source line then
// target line for each pair.
func (w *fileWriter) Digest() string {
	return w.sum
}

// flattenLine keeps one pair per line in line-aligned files.
func flattenLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.Join(strings.Fields(s), " ")
}
