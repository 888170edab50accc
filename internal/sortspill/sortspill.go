// Package sortspill implements the write side of the engine's external
// merge sort (spec §4.3): it buffers serialized MainDictionary lines in
// memory and spills them to bounded-size, individually-sorted run files
// once a run is full.
package sortspill

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/standardbeagle/pkgidx/internal/debug"
)

// runFilePrefix names spilled run files "run.0", "run.1", ... within RunDir.
const runFilePrefix = "run."

// Spiller buffers appended lines and spills them to disk once a run
// reaches MaxRunBytes. Not safe for concurrent use from multiple
// goroutines — IndexUpdater drives it from a single ingestion loop
// (spec §5, "Scheduling model").
type Spiller struct {
	runDir      string
	maxRunBytes int64

	buf       []string
	bufBytes  int64
	runIndex  int
	runPaths  []string
}

// New creates a Spiller that spills into runDir, which must not already
// contain run files from a prior attempt (IndexUpdater is responsible for
// ensuring runDir is freshly created under the temp directory).
func New(runDir string, maxRunBytes int64) (*Spiller, error) {
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("sortspill: create run dir: %w", err)
	}
	return &Spiller{runDir: runDir, maxRunBytes: maxRunBytes}, nil
}

// Append buffers one serialized MainDictionary line (including its
// trailing newline). If the post-append buffer size meets or exceeds
// MaxRunBytes, the current run is sorted and flushed to disk before
// Append returns (spec §4.3, "Exactly max_run_bytes spills at the
// boundary, not one byte later").
func (s *Spiller) Append(line string) error {
	s.buf = append(s.buf, line)
	s.bufBytes += int64(len(line))
	if s.bufBytes >= s.maxRunBytes {
		return s.flush()
	}
	return nil
}

// flush sorts the buffered lines lexicographically over the entire line
// (token is the line's prefix up to the first separator, so line order
// equals token order; ties are resolved by payload bytes) and writes them
// to the next run file.
func (s *Spiller) flush() error {
	if len(s.buf) == 0 {
		return nil
	}
	sort.Strings(s.buf)

	path := filepath.Join(s.runDir, runFilePrefix+strconv.Itoa(s.runIndex))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sortspill: create run file: %w", err)
	}
	for _, line := range s.buf {
		if _, err := f.WriteString(line); err != nil {
			f.Close()
			return fmt.Errorf("sortspill: write run file: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("sortspill: close run file: %w", err)
	}

	debug.LogMerge("spilled run %d: %d lines, %d bytes\n", s.runIndex, len(s.buf), s.bufBytes)

	s.runPaths = append(s.runPaths, path)
	s.runIndex++
	s.buf = nil
	s.bufBytes = 0
	return nil
}

// Finish closes out any partially-filled run and returns the ordered list
// of run-file paths produced (spec §4.3).
func (s *Spiller) Finish() ([]string, error) {
	if err := s.flush(); err != nil {
		return nil, err
	}
	return s.runPaths, nil
}
