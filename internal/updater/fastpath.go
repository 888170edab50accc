package updater

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/standardbeagle/pkgidx/internal/auxdict"
	"github.com/standardbeagle/pkgidx/internal/debug"
	idxerrors "github.com/standardbeagle/pkgidx/internal/errors"
	"github.com/standardbeagle/pkgidx/internal/maindict"
	"github.com/standardbeagle/pkgidx/internal/types"
)

// FastUpdate applies a client-side pkg plan's added/removed PFMRIs to the
// side-lists without touching the main dictionary (mode (c), spec §4.7).
//
// Each added PFMRI is asserted not already pending in FastAddSet; a
// pending removal for the same anarchic stem is cancelled instead of
// being recorded as an add. Removed PFMRIs are handled symmetrically.
//
// If the batch pushes FastAddSet's size past cfg.MaxAddedNumberPackages,
// FastUpdate invokes the configured RebuildRequester instead of
// committing, per spec §4.7 ("returning without committing the fast-path
// changes separately"); the caller's subsequent RebuildHonoringRemovals
// is what persists everything pending.
func (u *Updater) FastUpdate(ctx context.Context, added, removed []types.PFMRI) (*Result, error) {
	idx, err := openExisting(ctx, u.cfg)
	if err != nil {
		u.state = Failed
		return nil, err
	}

	u.state = Reading
	tmp := u.cfg.TempDir()
	if _, err := os.Stat(tmp); err == nil {
		u.state = Failed
		return nil, idxerrors.NewPartialIndexing(tmp)
	}

	for _, d := range added {
		anarchic := d.Anarchic()
		idx.fullFmri.Add(anarchic)
		if idx.fastRem.Remove(anarchic) {
			continue // a previously pending removal is cancelled
		}
		if idx.fastAdd.Has(anarchic) {
			u.state = Failed
			return nil, fmt.Errorf("updater: %q already pending in fast-add set", anarchic)
		}
		idx.fastAdd.Add(anarchic)
	}
	for _, d := range removed {
		anarchic := d.Anarchic()
		idx.fullFmri.Remove(anarchic)
		if idx.fastAdd.Remove(anarchic) {
			continue
		}
		if idx.fastRem.Has(anarchic) {
			u.state = Failed
			return nil, fmt.Errorf("updater: %q already pending in fast-remove set", anarchic)
		}
		idx.fastRem.Add(anarchic)
	}

	if idx.fastAdd.Len() > u.cfg.MaxAddedNumberPackages {
		debug.LogUpdater("fast-add set at %d exceeds threshold %d, requesting rebuild",
			idx.fastAdd.Len(), u.cfg.MaxAddedNumberPackages)
		u.state = Idle
		if u.rebuild != nil {
			if err := u.rebuild.RebuildSearchIndex(ctx, u.progress); err != nil {
				u.state = Failed
				return nil, err
			}
		}
		return &Result{Version: idx.version, RebuildPending: true}, nil
	}

	u.state = Ingesting
	if err := os.MkdirAll(tmp, 0755); err != nil {
		u.state = Failed
		return nil, idxerrors.NewProblematicPermissions("create_temp_dir", tmp, err)
	}

	// The fast path never touches the main dictionary, so unlike run() it
	// does not bump the version (spec §8 S4, "version unchanged"; the
	// original's _fast_update never assigns to file_version_number, only
	// _update_index does). A never-before-committed index still needs its
	// first version assigned, matching INITIAL_VERSION_NUMBER.
	newVersion := idx.version
	if idx.fresh {
		newVersion = 1
	}

	u.state = Committing
	if err := u.writeAuxDicts(idx, newVersion); err != nil {
		u.state = Failed
		return nil, err
	}

	skip := fastPathSkip()
	if idx.fresh {
		// consistent_open checks every persisted file's version, including
		// MainDictionary and TokenOffsetMap (spec §3); a fast update against
		// an index that has never been rebuilt must still leave behind an
		// empty main dictionary at the same version as the aux dicts, or
		// the next open finds four of six files and fails as inconsistent.
		if err := writeEmptyMainDict(tmp, newVersion); err != nil {
			u.state = Failed
			return nil, err
		}
		skip = skipSet{pkgSubtreeMarker: true}
	}
	if err := migrate(u.cfg, skip); err != nil {
		u.state = Failed
		return nil, err
	}
	u.state = Idle

	return &Result{Version: newVersion}, nil
}

// writeEmptyMainDict creates a zero-entry MainDictionary and TokenOffsetMap
// in tmp at version, so a fast update against a never-rebuilt index still
// produces a complete, version-consistent file set.
func writeEmptyMainDict(tmp string, version int) error {
	w, err := maindict.Create(filepath.Join(tmp, maindict.FileName), version)
	if err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return auxdict.NewTokenOffsetMap().Save(filepath.Join(tmp, auxdict.TokenOffsetFile), version)
}
