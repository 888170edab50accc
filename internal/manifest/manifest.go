// Package manifest declares the external collaborators IndexUpdater
// consumes but does not implement (spec §6, "Consumed interfaces"): the
// package catalog that resolves manifests, the search-dict extraction the
// catalog performs per package, the progress sink an update reports
// through, and the version-ordering predicate used to compare PFMRIs.
package manifest

import (
	"context"

	"github.com/standardbeagle/pkgidx/internal/types"
)

// Entry is one (token, action_type, attr_subtype, attr_value) -> positions
// mapping produced by SearchDict for a single manifest (spec §6). It omits
// PackageID: the engine assigns that via ManifestTable after SearchDict
// returns, before building a maindict.Payload.
type Entry struct {
	Token       types.Token
	ActionType  types.ActionType
	AttrSubtype types.AttrSubtype
	AttrValue   types.AttrValue
	Positions   []types.Position
}

// Source resolves PFMRIs to manifests and extracts their search postings.
// A real deployment backs this with the package catalog; tests back it
// with an in-memory fixture.
type Source interface {
	// ManifestPath returns the filesystem location of p's manifest.
	ManifestPath(p types.PFMRI) (string, error)

	// Manifest returns the raw manifest content for p. Exposed for callers
	// beyond the indexing engine's core; the engine itself never calls it.
	Manifest(p types.PFMRI) ([]byte, error)

	// SearchDict extracts every (token, action_type, attr_subtype,
	// attr_value) -> positions entry from p's manifest (spec §4.6 step 3c).
	// Called exactly once per added PFMRI during ingestion.
	SearchDict(ctx context.Context, p types.PFMRI) ([]Entry, error)
}

// Progress reports update progress to an optional sink (spec §6,
// "progress sink"). All methods must tolerate a nil-backed no-op Progress.
type Progress interface {
	// SetGoal announces the total unit count for a named phase.
	SetGoal(name string, count int)
	// AddProgress advances the current phase by one unit.
	AddProgress()
	// Done marks the current phase complete.
	Done()
	// Optimize is invoked once the commit finishes, mirroring the
	// catalog's own post-update optimization hook.
	Optimize()
}

// NoopProgress implements Progress with no observable effect, for callers
// that don't need progress reporting (spec §6, "may be absent").
type NoopProgress struct{}

func (NoopProgress) SetGoal(string, int) {}
func (NoopProgress) AddProgress()        {}
func (NoopProgress) Done()               {}
func (NoopProgress) Optimize()           {}

// RebuildRequester is invoked when the fast path's FastAddSet crosses
// MaxAddedNumberPackages, handing control back to the caller to perform a
// full rebuild (spec §4.7, "image.rebuild_search_index(progress)").
type RebuildRequester interface {
	RebuildSearchIndex(ctx context.Context, progress Progress) error
}

// VersionComparator orders two PFMRIs by package version, used wherever the
// engine needs deterministic version comparison rather than lexical
// string order (spec §6, "Package-version ordering predicate").
type VersionComparator = types.VersionComparator
