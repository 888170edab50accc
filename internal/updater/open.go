package updater

import (
	"context"
	"path/filepath"

	"github.com/standardbeagle/pkgidx/internal/auxdict"
	"github.com/standardbeagle/pkgidx/internal/bytestore"
	"github.com/standardbeagle/pkgidx/internal/config"
	"github.com/standardbeagle/pkgidx/internal/maindict"
)

// index bundles the committed on-disk state an update reads before
// ingesting, plus the version it was opened at (spec §4.6 step 1).
type index struct {
	version  int
	fresh    bool // true if no auxiliary dictionary files existed yet
	manifest *auxdict.ManifestTable
	fullFmri *auxdict.StringSet
	fastAdd  *auxdict.StringSet
	fastRem  *auxdict.StringSet
}

// mainDictPath returns the committed MainDictionary path, or "" if fresh.
func (ix *index) mainDictPath(cfg *config.Config) string {
	if ix.fresh {
		return ""
	}
	return filepath.Join(cfg.IndexDir, maindict.FileName)
}

// openExisting performs consistent_open across all six persisted files —
// the four auxiliary dictionaries plus MainDictionary and TokenOffsetMap,
// whose bodies aren't loaded here but whose versions must still agree
// (spec §3) — and, if present, loads the four auxiliary dictionaries
// (spec §4.6 step 1).
func openExisting(ctx context.Context, cfg *config.Config) (*index, error) {
	version, ok, err := bytestore.ConsistentOpen(ctx, cfg.IndexDir, auxdict.ConsistentOpenFiles, cfg.ConsistentOpenTimeout)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &index{
			fresh:    true,
			manifest: auxdict.NewManifestTable(),
			fullFmri: auxdict.NewStringSet(),
			fastAdd:  auxdict.NewStringSet(),
			fastRem:  auxdict.NewStringSet(),
		}, nil
	}

	manf, err := auxdict.LoadManifestTable(filepath.Join(cfg.IndexDir, auxdict.ManifestTableFile))
	if err != nil {
		return nil, err
	}
	full, err := auxdict.LoadStringSet(filepath.Join(cfg.IndexDir, auxdict.FullFmriSetFile))
	if err != nil {
		return nil, err
	}
	add, err := auxdict.LoadStringSet(filepath.Join(cfg.IndexDir, auxdict.FastAddSetFile))
	if err != nil {
		return nil, err
	}
	rem, err := auxdict.LoadStringSet(filepath.Join(cfg.IndexDir, auxdict.FastRemoveSetFile))
	if err != nil {
		return nil, err
	}
	return &index{version: version, manifest: manf, fullFmri: full, fastAdd: add, fastRem: rem}, nil
}
