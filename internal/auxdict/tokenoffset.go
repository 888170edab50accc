package auxdict

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/standardbeagle/pkgidx/internal/bytestore"
	idxerrors "github.com/standardbeagle/pkgidx/internal/errors"
	"github.com/standardbeagle/pkgidx/internal/types"
)

// TokenOffsetMap maps each MainDictionary token to the byte offset at
// which its line begins (spec §3, §4.6 step 5). It is rewritten from
// scratch on every full MainDictionary write.
type TokenOffsetMap struct {
	offsets map[types.Token]int64
}

// NewTokenOffsetMap returns an empty map.
func NewTokenOffsetMap() *TokenOffsetMap {
	return &TokenOffsetMap{offsets: make(map[types.Token]int64)}
}

// Set records token's offset. Called once per token, in the order
// MainDictionary.Writer emits lines (spec §5, "Ordering guarantees").
func (m *TokenOffsetMap) Set(token types.Token, offset int64) {
	m.offsets[token] = offset
}

// Lookup returns the byte offset recorded for token, if any.
func (m *TokenOffsetMap) Lookup(token types.Token) (int64, bool) {
	off, ok := m.offsets[token]
	return off, ok
}

// Len returns the number of tokens mapped.
func (m *TokenOffsetMap) Len() int {
	return len(m.offsets)
}

// Save persists the map to path at the given version. Line format:
// "<token> <offset>\n".
func (m *TokenOffsetMap) Save(path string, version int) error {
	w, err := bytestore.Create(path, version)
	if err != nil {
		return err
	}
	for tok, off := range m.offsets {
		line := string(tok) + " " + strconv.FormatInt(off, 10) + "\n"
		if _, err := w.Write([]byte(line)); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

// LoadTokenOffsetMap reads a persisted TokenOffsetMap from path.
func LoadTokenOffsetMap(path string) (*TokenOffsetMap, error) {
	r, err := bytestore.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	m := NewTokenOffsetMap()
	for {
		line, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		sp := strings.LastIndexByte(line, ' ')
		if sp < 0 {
			return nil, idxerrors.NewCorruptIndex("load_token_offset_map", path, fmt.Errorf("malformed line %q", line))
		}
		off, err := strconv.ParseInt(line[sp+1:], 10, 64)
		if err != nil {
			return nil, idxerrors.NewCorruptIndex("load_token_offset_map", path, err)
		}
		m.offsets[types.Token(line[:sp])] = off
	}
	return m, nil
}
