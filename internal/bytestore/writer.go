package bytestore

import (
	"bufio"
	"io"
	"os"
	"strconv"
)

// Writer is a buffered, version-stamped sink for one persisted index file.
// Close flushes and releases the underlying handle; callers must defer
// Close on every exit path (spec §5, "scoped acquisition").
type Writer struct {
	f  *os.File
	bw *bufio.Writer
}

// Create opens path for writing (truncating any existing content) and
// writes the version header. The returned Writer owns the file handle.
func Create(path string, version int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriter(f)
	if err := WriteHeader(bw, version); err != nil {
		f.Close()
		return nil, err
	}
	return &Writer{f: f, bw: bw}, nil
}

// Write appends raw bytes to the body.
func (w *Writer) Write(p []byte) (int, error) {
	return w.bw.Write(p)
}

// Offset returns the current write position, used by callers (MainDictionary,
// SideIndexWriter) that need to record byte offsets as they write (spec §4.9).
func (w *Writer) Offset() (int64, error) {
	if err := w.bw.Flush(); err != nil {
		return 0, err
	}
	return w.f.Seek(0, io.SeekCurrent)
}

// Close flushes buffered data and closes the file.
func (w *Writer) Close() error {
	if err := w.bw.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// Reader is a buffered, version-stamped source for one persisted index file.
type Reader struct {
	f       *os.File
	br      *bufio.Reader
	Version int
}

// OpenReader opens path, parses and discards its header, and positions the
// reader at the start of the body.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(f)
	v, err := ReadHeader(br)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Reader{f: f, br: br, Version: v}, nil
}

// ReadLine reads one newline-terminated line from the body (newline stripped).
// Returns io.EOF when exhausted.
func (r *Reader) ReadLine() (string, error) {
	line, err := r.br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return line[:len(line)-1], nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.f.Close()
}

// AppendOffset opens path in append mode (creating it if absent) and writes
// "offset\n" — the pattern SideIndexWriter uses for __at_/__st_/pkg/ facet
// files (spec §4.9), which are append-only within one update.
func AppendOffset(path string, offset int64) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(strconv.FormatInt(offset, 10) + "\n")
	return err
}
