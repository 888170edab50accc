// Package runmerge implements the read side of the engine's external merge
// sort (spec §4.4): a lazy k-way merge over SortSpiller's run files and,
// optionally, an existing MainDictionary, splicing payloads together
// whenever two sources agree on the same token.
package runmerge

import (
	"bufio"
	"container/heap"
	"errors"
	"io"
	"os"

	"github.com/standardbeagle/pkgidx/internal/maindict"
	"github.com/standardbeagle/pkgidx/internal/types"
)

// source is one input stream the merge draws lines from: either a plain
// run file (no version header) or the existing MainDictionary (versioned).
type source interface {
	next() (types.Token, maindict.Payload, error) // io.EOF when exhausted
	close() error
}

// runSource reads one SortSpiller run file: plain newline-terminated lines,
// already internally sorted, no version header.
type runSource struct {
	f *os.File
	r *bufio.Reader
}

func openRunSource(path string) (*runSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &runSource{f: f, r: bufio.NewReader(f)}, nil
}

func (s *runSource) next() (types.Token, maindict.Payload, error) {
	line, err := s.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			return "", nil, io.EOF
		}
		if !errors.Is(err, io.EOF) {
			return "", nil, err
		}
		// last line lacks a trailing newline; accept it anyway.
	} else {
		line = line[:len(line)-1]
	}
	return maindict.ParseLine(line)
}

func (s *runSource) close() error {
	return s.f.Close()
}

// mainDictSource adapts an existing maindict.Reader to the source interface.
type mainDictSource struct {
	r *maindict.Reader
}

func (s *mainDictSource) next() (types.Token, maindict.Payload, error) {
	e, err := s.r.Next()
	if err != nil {
		return "", nil, err
	}
	return e.Token, e.Payload, nil
}

func (s *mainDictSource) close() error {
	return s.r.Close()
}

// item is one live source parked in the merge heap, holding its
// most-recently-read, not-yet-emitted line.
type item struct {
	src      source
	srcIndex int // registration order: existing MainDictionary is 0
	token    types.Token
	pl       maindict.Payload
}

type minHeap []*item

func (h minHeap) Len() int { return len(h) }

// Less breaks ties on srcIndex so splice order is deterministic: two
// sources agreeing on a token always merge with the lower-indexed source's
// entry first (spec §9 DESIGN NOTES, "stable tie-breaking by run index").
func (h minHeap) Less(i, j int) bool {
	if h[i].token != h[j].token {
		return h[i].token < h[j].token
	}
	return h[i].srcIndex < h[j].srcIndex
}
func (h minHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(*item)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// Merger produces the merged token stream in ascending order, splicing
// payloads from every source that shares a token (spec §4.4, "identical
// tokens from different sources splice into one payload, preserving the
// existing dictionary's entries first").
type Merger struct {
	sources []source
	h       minHeap
	err     error
}

// Open starts a merge over runPaths (SortSpiller output, in any order) and,
// if existingMainDict is non-empty, the existing MainDictionary as the
// lowest-indexed source, so it wins token ties and its entries are the ones
// the other sources are spliced into (spec §4.6
// step 5). Pass "" for existingMainDict on a from-scratch rebuild.
func Open(runPaths []string, existingMainDict string) (*Merger, error) {
	m := &Merger{}
	closeAll := func() {
		for _, s := range m.sources {
			s.close()
		}
	}

	if existingMainDict != "" {
		r, err := maindict.Open(existingMainDict)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else {
			m.sources = append(m.sources, &mainDictSource{r: r})
		}
	}
	for _, p := range runPaths {
		rs, err := openRunSource(p)
		if err != nil {
			closeAll()
			return nil, err
		}
		m.sources = append(m.sources, rs)
	}

	for i, s := range m.sources {
		tok, pl, err := s.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				continue
			}
			closeAll()
			return nil, err
		}
		heap.Push(&m.h, &item{src: s, srcIndex: i, token: tok, pl: pl})
	}
	heap.Init(&m.h)
	return m, nil
}

// Next returns the next merged (token, payload) pair in ascending token
// order, or io.EOF once every source is exhausted. Payloads from multiple
// sources sharing a token are spliced together before being returned.
func (m *Merger) Next() (types.Token, maindict.Payload, error) {
	if m.err != nil {
		return "", nil, m.err
	}
	if m.h.Len() == 0 {
		return "", nil, io.EOF
	}

	top := heap.Pop(&m.h).(*item)
	token := top.token
	merged := top.pl
	m.advance(top)

	for m.err == nil && m.h.Len() > 0 && m.h[0].token == token {
		dup := heap.Pop(&m.h).(*item)
		maindict.Splice(&merged, dup.pl)
		m.advance(dup)
	}
	if m.err != nil {
		return "", nil, m.err
	}

	return token, merged, nil
}

// advance reads the next line from it.src (if any) and re-pushes it onto
// the heap. A non-EOF read error is latched on m.err and surfaced by the
// next call to Next.
func (m *Merger) advance(it *item) {
	tok, pl, err := it.src.next()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			m.err = err
		}
		return
	}
	it.token, it.pl = tok, pl
	heap.Push(&m.h, it)
}

// Close releases every underlying source.
func (m *Merger) Close() error {
	var first error
	for _, s := range m.sources {
		if err := s.close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
