// Package bytestore implements the thin, version-stamped on-disk file
// abstraction every auxiliary dictionary and the main dictionary are built
// on (spec §4.1), plus the consistent_open protocol that lets a reader see
// one coherent snapshot across several such files.
package bytestore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	idxerrors "github.com/standardbeagle/pkgidx/internal/errors"
)

// headerPrefix is the text header every persisted file begins with
// (spec §3, "Versioning"): "VERSION: <n>\n".
const headerPrefix = "VERSION: "

// WriteHeader writes the version header to w. Callers write the body after.
func WriteHeader(w io.Writer, version int) error {
	_, err := fmt.Fprintf(w, "%s%d\n", headerPrefix, version)
	return err
}

// ReadHeader reads and parses the version header from r, returning the
// reader positioned at the start of the body.
func ReadHeader(r *bufio.Reader) (int, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return 0, err
	}
	line = strings.TrimSuffix(line, "\n")
	if !strings.HasPrefix(line, headerPrefix) {
		return 0, fmt.Errorf("missing %q header, got %q", headerPrefix, line)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(line, headerPrefix))
	if err != nil {
		return 0, fmt.Errorf("invalid version header %q: %w", line, err)
	}
	return n, nil
}

// Open reads and returns a file's version header, retrying on transient
// file-absence (to tolerate a concurrent directory swap, spec §4.1) until
// timeout elapses.
func Open(ctx context.Context, path string, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	for {
		f, err := os.Open(path)
		if err == nil {
			defer f.Close()
			version, herr := ReadHeader(bufio.NewReader(f))
			if herr != nil {
				return 0, idxerrors.NewCorruptIndex("open", path, herr)
			}
			return version, nil
		}
		if os.IsPermission(err) {
			return 0, idxerrors.NewProblematicPermissions("open", path, err)
		}
		if !os.IsNotExist(err) {
			return 0, err
		}
		if time.Now().After(deadline) {
			return 0, err
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// exists reports whether path is present, absorbing EINTR-class transient
// errors by treating anything other than IsNotExist as "present".
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !os.IsNotExist(err)
}

// ConsistentOpen opens every file named in files (relative to dir) and
// requires they all report the same version. If none of the files exist,
// it returns (0, false, nil) — the caller treats this as "fresh index"
// (spec §4.1). If some exist and some don't, or versions disagree, after
// timeout it returns InconsistentIndex.
func ConsistentOpen(ctx context.Context, dir string, files []string, timeout time.Duration) (version int, ok bool, err error) {
	deadline := time.Now().Add(timeout)

	for {
		present := 0
		for _, f := range files {
			if exists(filepath.Join(dir, f)) {
				present++
			}
		}
		if present == 0 {
			return 0, false, nil
		}

		versions := make([]int, len(files))
		g, gctx := errgroup.WithContext(ctx)
		for i, f := range files {
			i, f := i, f
			g.Go(func() error {
				remaining := time.Until(deadline)
				if remaining < 0 {
					remaining = 0
				}
				v, err := Open(gctx, filepath.Join(dir, f), remaining)
				if err != nil {
					return err
				}
				versions[i] = v
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			if time.Now().Before(deadline) && present < len(files) {
				select {
				case <-ctx.Done():
					return 0, false, ctx.Err()
				case <-time.After(10 * time.Millisecond):
				}
				continue
			}
			return 0, false, idxerrors.NewInconsistentIndex("consistent_open", dir, err)
		}

		first := versions[0]
		mismatched := false
		for _, v := range versions[1:] {
			if v != first {
				mismatched = true
				break
			}
		}
		if mismatched {
			if time.Now().Before(deadline) {
				select {
				case <-ctx.Done():
					return 0, false, ctx.Err()
				case <-time.After(10 * time.Millisecond):
				}
				continue
			}
			return 0, false, idxerrors.NewInconsistentIndex("consistent_open", dir,
				errors.New("versions disagree across auxiliary dictionaries"))
		}

		return first, true, nil
	}
}
