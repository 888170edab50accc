// Package updater implements IndexUpdater (spec §4.6), the top-level
// orchestrator that coordinates consistent-open of the existing index,
// drives SortSpiller during ingestion, streams RunMerger against the
// existing MainDictionary into a new one, and commits via migrate.
package updater

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/standardbeagle/pkgidx/internal/auxdict"
	"github.com/standardbeagle/pkgidx/internal/config"
	"github.com/standardbeagle/pkgidx/internal/debug"
	idxerrors "github.com/standardbeagle/pkgidx/internal/errors"
	"github.com/standardbeagle/pkgidx/internal/maindict"
	"github.com/standardbeagle/pkgidx/internal/manifest"
	"github.com/standardbeagle/pkgidx/internal/runmerge"
	"github.com/standardbeagle/pkgidx/internal/sideindex"
	"github.com/standardbeagle/pkgidx/internal/sortspill"
	"github.com/standardbeagle/pkgidx/internal/types"
)

// Updater drives one update transaction at a time against cfg.IndexDir. It
// is not reentrant and not safe for concurrent use (spec §5, "Scheduling
// model").
type Updater struct {
	cfg      *config.Config
	source   manifest.Source
	progress manifest.Progress
	rebuild  manifest.RebuildRequester

	state State
}

// New returns an Updater. progress and rebuild may be nil; a nil progress
// is treated as manifest.NoopProgress{}.
func New(cfg *config.Config, source manifest.Source, progress manifest.Progress, rebuild manifest.RebuildRequester) *Updater {
	if progress == nil {
		progress = manifest.NoopProgress{}
	}
	return &Updater{cfg: cfg, source: source, progress: progress, rebuild: rebuild, state: Idle}
}

// State returns the transaction's current state (spec §4.10).
func (u *Updater) State() State { return u.state }

// Result summarizes a completed update.
type Result struct {
	Version        int
	TokensEmitted  int
	PackagesAdded  int
	RebuildPending bool // fast path crossed MaxAddedNumberPackages
}

// Rebuild builds the index from the complete set of currently-installed
// PFMRIs (mode (a), spec §1). It runs the same merge as ServerAdd: whatever
// committed index cfg.IndexDir already holds is read and merged with the
// new postings, not discarded. A from-scratch build therefore needs
// cfg.IndexDir to hold no committed index.
func (u *Updater) Rebuild(ctx context.Context, all []types.PFMRI) (*Result, error) {
	return u.run(ctx, all, nil)
}

// ServerAdd incrementally adds a set of newly-installed PFMRIs to the
// existing index (mode (b), spec §4.6). The removed set is always empty on
// this path; deletions are represented in FastRemoveSet and honored only
// when a full rebuild runs (spec §4.6 step 5 parenthetical).
func (u *Updater) ServerAdd(ctx context.Context, added []types.PFMRI) (*Result, error) {
	return u.run(ctx, added, nil)
}

// RebuildHonoringRemovals performs a full rebuild that also folds in any
// packages pending in FastAddSet and purges any pending in FastRemoveSet,
// then clears both (the path a caller takes after RebuildRequester fires,
// spec §4.7). added is the caller's view of newly-installed PFMRIs beyond
// what FastAddSet already tracks; pass nil if FastAddSet already covers it.
func (u *Updater) RebuildHonoringRemovals(ctx context.Context, added []types.PFMRI) (*Result, error) {
	idx, err := openExisting(ctx, u.cfg)
	if err != nil {
		u.state = Failed
		return nil, err
	}
	// fullFmri already reflects prior commits; re-adding is a no-op through
	// ManifestTable.AssignOrLookup, so only FastAddSet members not yet
	// reflected anywhere need to be folded in explicitly.
	combined := append([]types.PFMRI{}, added...)
	for _, a := range idx.fastAdd.Members() {
		combined = append(combined, a)
	}
	removed := make(map[types.PackageID]bool, idx.fastRem.Len())
	for id := 1; id <= idx.manifest.Len(); id++ {
		fmri, ok := idx.manifest.Resolve(types.PackageID(id))
		if ok && idx.fastRem.Has(fmri.Anarchic()) {
			removed[types.PackageID(id)] = true
		}
	}
	return u.runWithIndex(ctx, idx, combined, removed, true)
}

func (u *Updater) run(ctx context.Context, added []types.PFMRI, removed map[types.PackageID]bool) (*Result, error) {
	idx, err := openExisting(ctx, u.cfg)
	if err != nil {
		u.state = Failed
		return nil, err
	}
	return u.runWithIndex(ctx, idx, added, removed, false)
}

func (u *Updater) runWithIndex(ctx context.Context, idx *index, added []types.PFMRI, removed map[types.PackageID]bool, clearFastSets bool) (*Result, error) {
	u.state = Reading
	debug.LogUpdater("opened index, fresh=%v version=%d", idx.fresh, idx.version)

	tmp := u.cfg.TempDir()
	if _, err := os.Stat(tmp); err == nil {
		u.state = Failed
		return nil, idxerrors.NewPartialIndexing(tmp)
	} else if !os.IsNotExist(err) {
		u.state = Failed
		return nil, idxerrors.NewProblematicPermissions("create_temp_dir", tmp, err)
	}
	if err := os.MkdirAll(tmp, 0755); err != nil {
		u.state = Failed
		return nil, idxerrors.NewProblematicPermissions("create_temp_dir", tmp, err)
	}

	u.state = Ingesting
	u.progress.SetGoal("ingest", len(added))
	spiller, err := sortspill.New(u.cfg.RunDir, u.cfg.MaxRunBytes)
	if err != nil {
		u.state = Failed
		return nil, err
	}

	for _, p := range added {
		pid := idx.manifest.AssignOrLookup(p)
		idx.fullFmri.Add(p.Anarchic())
		idx.fastAdd.Remove(p.Anarchic())

		entries, err := u.source.SearchDict(ctx, p)
		if err != nil {
			u.state = Failed
			return nil, err
		}
		for _, e := range entries {
			posting := types.Posting{
				ActionType:  e.ActionType,
				AttrSubtype: e.AttrSubtype,
				AttrValue:   e.AttrValue,
				PackageID:   pid,
				Positions:   e.Positions,
			}
			line := maindict.SerializeLine(e.Token, maindict.FromPosting(posting))
			if err := spiller.Append(line); err != nil {
				u.state = Failed
				return nil, err
			}
		}
		u.progress.AddProgress()
	}
	u.progress.Done()

	runs, err := spiller.Finish()
	if err != nil {
		u.state = Failed
		return nil, err
	}

	u.state = Merging
	tokensEmitted, err := u.mergeAndWrite(idx, runs, removed)
	if err != nil {
		u.state = Failed
		return nil, err
	}

	newVersion := idx.version + 1
	if clearFastSets {
		for id := 1; id <= idx.manifest.Len(); id++ {
			fmri, ok := idx.manifest.Resolve(types.PackageID(id))
			if ok {
				idx.fastRem.Remove(fmri.Anarchic())
			}
		}
	}
	if err := u.writeAuxDicts(idx, newVersion); err != nil {
		u.state = Failed
		return nil, err
	}

	u.state = Committing
	if err := migrate(u.cfg, noSkip); err != nil {
		u.state = Failed
		return nil, err
	}
	u.progress.Optimize()
	u.state = Idle

	return &Result{Version: newVersion, TokensEmitted: tokensEmitted, PackagesAdded: len(added)}, nil
}

// mergeAndWrite streams RunMerger's runs against idx's existing
// MainDictionary into a new one in the temp directory, filtering removed
// package ids and fanning every emitted line out to SideIndexWriter and
// TokenOffsetMap (spec §4.6 step 5).
func (u *Updater) mergeAndWrite(idx *index, runs []string, removed map[types.PackageID]bool) (int, error) {
	merger, err := runmerge.Open(runs, idx.mainDictPath(u.cfg))
	if err != nil {
		return 0, err
	}
	defer merger.Close()

	tmp := u.cfg.TempDir()
	w, err := maindict.Create(filepath.Join(tmp, maindict.FileName), idx.version+1)
	if err != nil {
		return 0, err
	}
	defer w.Close()

	offsets := auxdict.NewTokenOffsetMap()
	sw := sideindex.New(tmp, idx.manifest)

	count := 0
	for {
		tok, payload, err := merger.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return count, err
		}
		if len(removed) > 0 {
			payload = maindict.RemovePackages(payload, removed)
			if len(payload) == 0 {
				continue
			}
		}
		offset, err := w.WriteEntry(tok, payload)
		if err != nil {
			return count, err
		}
		offsets.Set(tok, offset)
		if err := sw.Observe(offset, payload); err != nil {
			return count, err
		}
		debug.LogMerge("emitted token %q at offset %d", tok, offset)
		count++
	}

	if err := w.Close(); err != nil {
		return count, err
	}
	if err := offsets.Save(filepath.Join(tmp, auxdict.TokenOffsetFile), idx.version+1); err != nil {
		return count, err
	}
	return count, nil
}

func (u *Updater) writeAuxDicts(idx *index, version int) error {
	tmp := u.cfg.TempDir()
	if err := idx.manifest.Save(filepath.Join(tmp, auxdict.ManifestTableFile), version); err != nil {
		return err
	}
	if err := idx.fullFmri.Save(filepath.Join(tmp, auxdict.FullFmriSetFile), version); err != nil {
		return err
	}
	if err := idx.fastAdd.Save(filepath.Join(tmp, auxdict.FastAddSetFile), version); err != nil {
		return err
	}
	if err := idx.fastRem.Save(filepath.Join(tmp, auxdict.FastRemoveSetFile), version); err != nil {
		return err
	}
	return nil
}
