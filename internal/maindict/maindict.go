package maindict

import (
	"errors"
	"fmt"
	"io"

	"github.com/standardbeagle/pkgidx/internal/bytestore"
	"github.com/standardbeagle/pkgidx/internal/types"
)

// FileName is the on-disk name of the MainDictionary (spec §6).
const FileName = "main_dict.ascii"

// Entry is one decoded MainDictionary line.
type Entry struct {
	Token   types.Token
	Payload Payload
}

// Reader walks an existing MainDictionary in ascending token order,
// line by line (spec §4.6 step 5, "Walk existing lines").
type Reader struct {
	r *bytestore.Reader
}

// Open opens an existing MainDictionary for sequential reading. If path
// does not exist, callers should treat the dictionary as empty (spec §4.6
// step 5, "If no existing main dict, treat it as empty") rather than call Open.
func Open(path string) (*Reader, error) {
	r, err := bytestore.OpenReader(path)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r}, nil
}

// Next returns the next entry, or io.EOF once the dictionary is exhausted.
func (r *Reader) Next() (Entry, error) {
	line, err := r.r.ReadLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Entry{}, io.EOF
		}
		return Entry{}, err
	}
	tok, payload, perr := ParseLine(line)
	if perr != nil {
		return Entry{}, perr
	}
	return Entry{Token: tok, Payload: payload}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.r.Close()
}

// Writer produces a new MainDictionary, one ascending token at a time.
// Every write's pre-write offset is what TokenOffsetMap must record for
// that token (spec §8, invariant 2).
type Writer struct {
	w        *bytestore.Writer
	lastTok  types.Token
	hasToken bool
}

// Create opens a new MainDictionary for writing at the given version.
func Create(path string, version int) (*Writer, error) {
	w, err := bytestore.Create(path, version)
	if err != nil {
		return nil, err
	}
	return &Writer{w: w}, nil
}

// WriteEntry appends one line and returns the byte offset at which it
// begins. Tokens must be written in strictly ascending order (spec §3,
// "Invariants"); WriteEntry does not re-sort, it only serializes.
func (w *Writer) WriteEntry(token types.Token, payload Payload) (int64, error) {
	if w.hasToken && token <= w.lastTok {
		return 0, fmt.Errorf("maindict: token %q out of order after %q", token, w.lastTok)
	}
	offset, err := w.w.Offset()
	if err != nil {
		return 0, err
	}
	if _, err := w.w.Write([]byte(SerializeLine(token, payload))); err != nil {
		return 0, err
	}
	w.lastTok, w.hasToken = token, true
	return offset, nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	return w.w.Close()
}
