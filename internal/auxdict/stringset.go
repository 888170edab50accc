// Package auxdict implements the four auxiliary dictionaries that travel
// alongside MainDictionary: ManifestTable, FullFmriSet, FastAddSet,
// FastRemoveSet, and TokenOffsetMap (spec §4.1 "Auxiliary dictionaries").
// Each is a thin, line-oriented ByteStore specialization.
package auxdict

import (
	"errors"
	"io"

	"github.com/standardbeagle/pkgidx/internal/bytestore"
	"github.com/standardbeagle/pkgidx/internal/types"
)

// StringSet is the shared shape of FullFmriSet, FastAddSet, and
// FastRemoveSet: a persisted set of PFMRI strings, one per line, with an
// in-memory map for O(1) membership.
type StringSet struct {
	members map[types.PFMRI]bool
}

// NewStringSet returns an empty StringSet.
func NewStringSet() *StringSet {
	return &StringSet{members: make(map[types.PFMRI]bool)}
}

// LoadStringSet reads a persisted StringSet from path.
func LoadStringSet(path string) (*StringSet, error) {
	r, err := bytestore.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	s := NewStringSet()
	for {
		line, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if line != "" {
			s.members[types.PFMRI(line)] = true
		}
	}
	return s, nil
}

// Has reports whether p is a member.
func (s *StringSet) Has(p types.PFMRI) bool {
	return s.members[p]
}

// Add inserts p, returning false if it was already a member.
func (s *StringSet) Add(p types.PFMRI) bool {
	if s.members[p] {
		return false
	}
	s.members[p] = true
	return true
}

// Remove deletes p, returning false if it was not a member.
func (s *StringSet) Remove(p types.PFMRI) bool {
	if !s.members[p] {
		return false
	}
	delete(s.members, p)
	return true
}

// Len returns the number of members.
func (s *StringSet) Len() int {
	return len(s.members)
}

// Members returns the set's members in unspecified order.
func (s *StringSet) Members() []types.PFMRI {
	out := make([]types.PFMRI, 0, len(s.members))
	for p := range s.members {
		out = append(out, p)
	}
	return out
}

// Save persists the set to path at the given version.
func (s *StringSet) Save(path string, version int) error {
	w, err := bytestore.Create(path, version)
	if err != nil {
		return err
	}
	for p := range s.members {
		if _, err := w.Write([]byte(string(p) + "\n")); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
