// Package maindict implements the MainDictionary: the large, sorted
// on-disk file mapping each token to its nested posting structure
// (spec §3, §4.2), together with the payload splice used to merge
// postings for the same token from different sources (spec §4.5).
package maindict

import "github.com/standardbeagle/pkgidx/internal/types"

// PIDEntry is the leaf of the nested payload: one package and the ordered,
// non-deduplicated list of positions it occurred at (spec §3).
type PIDEntry struct {
	PackageID types.PackageID
	Positions []types.Position
}

// FVEntry groups PIDEntries under one attr_value.
type FVEntry struct {
	AttrValue types.AttrValue
	PIDs      []PIDEntry
}

// STEntry groups FVEntries under one attr_subtype.
type STEntry struct {
	AttrSubtype types.AttrSubtype
	FVs         []FVEntry
}

// ATEntry groups STEntries under one action_type. Payload is a list of
// these — the outermost level of the nested structure described in spec §3:
//
//	t → [ (action_type, [ (attr_subtype, [ (attr_value, [ (package_id, positions) ]) ]) ]) ]
type ATEntry struct {
	ActionType types.ActionType
	STs        []STEntry
}

// Payload is the full nested posting structure attached to one token.
// Each level preserves insertion order on first construction (spec §3).
type Payload []ATEntry

// FromPosting builds a single-posting Payload — the shape SortSpiller lines
// are serialized with before they ever reach a merge (spec §4.6 step 3d).
func FromPosting(p types.Posting) Payload {
	return Payload{{
		ActionType: p.ActionType,
		STs: []STEntry{{
			AttrSubtype: p.AttrSubtype,
			FVs: []FVEntry{{
				AttrValue: p.AttrValue,
				PIDs: []PIDEntry{{
					PackageID: p.PackageID,
					Positions: append([]types.Position(nil), p.Positions...),
				}},
			}},
		}},
	}}
}

// Splice merges src into dst in place, preserving dst's existing relative
// order and appending src-only entries in src's order (spec §4.5). It is
// the single recursive definition the four nesting levels share: find an
// equal key, recurse into its sublist if found, else append.
func Splice(dst *Payload, src Payload) {
	for _, s := range src {
		found := false
		for i := range *dst {
			if (*dst)[i].ActionType == s.ActionType {
				spliceST(&(*dst)[i].STs, s.STs)
				found = true
				break
			}
		}
		if !found {
			*dst = append(*dst, s)
		}
	}
}

func spliceST(dst *[]STEntry, src []STEntry) {
	for _, s := range src {
		found := false
		for i := range *dst {
			if (*dst)[i].AttrSubtype == s.AttrSubtype {
				spliceFV(&(*dst)[i].FVs, s.FVs)
				found = true
				break
			}
		}
		if !found {
			*dst = append(*dst, s)
		}
	}
}

func spliceFV(dst *[]FVEntry, src []FVEntry) {
	for _, s := range src {
		found := false
		for i := range *dst {
			if (*dst)[i].AttrValue == s.AttrValue {
				splicePID(&(*dst)[i].PIDs, s.PIDs)
				found = true
				break
			}
		}
		if !found {
			*dst = append(*dst, s)
		}
	}
}

// splicePID is the leaf case: equal-pid entries concatenate their position
// lists right-after-left, with duplicates left in place (spec §4.5).
func splicePID(dst *[]PIDEntry, src []PIDEntry) {
	for _, s := range src {
		found := false
		for i := range *dst {
			if (*dst)[i].PackageID == s.PackageID {
				(*dst)[i].Positions = append((*dst)[i].Positions, s.Positions...)
				found = true
				break
			}
		}
		if !found {
			*dst = append(*dst, s)
		}
	}
}

// RemovePackages returns a copy of p with every leaf whose PackageID is in
// removed dropped, pruning now-empty FV/ST/AT entries as it goes. Used by
// the merge pass to honor FastRemoveSet during a full rebuild (spec §4.6
// step 5, §4.7 "deferred deletions").
func RemovePackages(p Payload, removed map[types.PackageID]bool) Payload {
	if len(removed) == 0 {
		return p
	}
	out := make(Payload, 0, len(p))
	for _, at := range p {
		sts := make([]STEntry, 0, len(at.STs))
		for _, st := range at.STs {
			fvs := make([]FVEntry, 0, len(st.FVs))
			for _, fv := range st.FVs {
				pids := make([]PIDEntry, 0, len(fv.PIDs))
				for _, pid := range fv.PIDs {
					if !removed[pid.PackageID] {
						pids = append(pids, pid)
					}
				}
				if len(pids) > 0 {
					fv.PIDs = pids
					fvs = append(fvs, fv)
				}
			}
			if len(fvs) > 0 {
				st.FVs = fvs
				sts = append(sts, st)
			}
		}
		if len(sts) > 0 {
			at.STs = sts
			out = append(out, at)
		}
	}
	return out
}
