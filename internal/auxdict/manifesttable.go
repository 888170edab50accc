package auxdict

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/pkgidx/internal/bytestore"
	idxerrors "github.com/standardbeagle/pkgidx/internal/errors"
	"github.com/standardbeagle/pkgidx/internal/types"
)

// ManifestTable is the bidirectional mapping between PFMRI strings and the
// small dense integer ids used everywhere else in the index (spec §3).
// Ids are assigned densely and monotonically and are never reused.
//
// Forward lookup (PFMRI -> id) is hashed with xxhash rather than compared
// by raw string equality on every probe, the same trade the teacher corpus
// makes for FastHash-style content identity checks.
type ManifestTable struct {
	idToFmri []types.PFMRI        // index 1..len-1; slot 0 unused (NoPackageID)
	fmriToID map[uint64][]entry   // xxhash(pfmri) -> candidates (collision chain)
}

type entry struct {
	fmri types.PFMRI
	id   types.PackageID
}

// NewManifestTable returns an empty table; the next assigned id is 1.
func NewManifestTable() *ManifestTable {
	return &ManifestTable{
		idToFmri: make([]types.PFMRI, 1), // slot 0 reserved for NoPackageID
		fmriToID: make(map[uint64][]entry),
	}
}

func hashFmri(p types.PFMRI) uint64 {
	return xxhash.Sum64String(string(p))
}

// Lookup returns the id assigned to p, if any.
func (t *ManifestTable) Lookup(p types.PFMRI) (types.PackageID, bool) {
	for _, e := range t.fmriToID[hashFmri(p)] {
		if e.fmri == p {
			return e.id, true
		}
	}
	return types.NoPackageID, false
}

// Resolve returns the PFMRI assigned to id, if any.
func (t *ManifestTable) Resolve(id types.PackageID) (types.PFMRI, bool) {
	if int(id) <= 0 || int(id) >= len(t.idToFmri) {
		return "", false
	}
	return t.idToFmri[id], true
}

// AssignOrLookup returns p's existing id, or assigns and returns the next
// dense id if p has not been seen before (spec §4.6 step 3a).
func (t *ManifestTable) AssignOrLookup(p types.PFMRI) types.PackageID {
	if id, ok := t.Lookup(p); ok {
		return id
	}
	id := types.PackageID(len(t.idToFmri))
	t.idToFmri = append(t.idToFmri, p)
	h := hashFmri(p)
	t.fmriToID[h] = append(t.fmriToID[h], entry{fmri: p, id: id})
	return id
}

// Len returns the number of assigned ids.
func (t *ManifestTable) Len() int {
	return len(t.idToFmri) - 1
}

// LoadManifestTable reads a persisted ManifestTable from path. Lines are
// "<id> <pfmri>\n"; ids must appear in ascending, gapless order starting
// at 1, matching the densely-assigned invariant (spec §3).
func LoadManifestTable(path string) (*ManifestTable, error) {
	r, err := bytestore.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	t := NewManifestTable()
	for {
		line, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			return nil, idxerrors.NewCorruptIndex("load_manifest_table", path, fmt.Errorf("malformed line %q", line))
		}
		id, err := strconv.ParseUint(line[:sp], 10, 32)
		if err != nil {
			return nil, idxerrors.NewCorruptIndex("load_manifest_table", path, err)
		}
		if int(id) != len(t.idToFmri) {
			return nil, idxerrors.NewCorruptIndex("load_manifest_table", path,
				fmt.Errorf("expected dense id %d, got %d", len(t.idToFmri), id))
		}
		fmri := types.PFMRI(line[sp+1:])
		t.idToFmri = append(t.idToFmri, fmri)
		h := hashFmri(fmri)
		t.fmriToID[h] = append(t.fmriToID[h], entry{fmri: fmri, id: types.PackageID(id)})
	}
	return t, nil
}

// Save persists the table to path at the given version.
func (t *ManifestTable) Save(path string, version int) error {
	w, err := bytestore.Create(path, version)
	if err != nil {
		return err
	}
	for id := 1; id < len(t.idToFmri); id++ {
		line := strconv.Itoa(id) + " " + string(t.idToFmri[id]) + "\n"
		if _, err := w.Write([]byte(line)); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
