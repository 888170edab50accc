package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/standardbeagle/pkgidx/internal/manifest"
	"github.com/standardbeagle/pkgidx/internal/types"
)

// jsonEntry is the on-disk JSON shape of one manifest.Entry, since
// types.Token and friends are string-kinded but JSON needs plain fields.
type jsonEntry struct {
	Token       string  `json:"token"`
	ActionType  string  `json:"action_type"`
	AttrSubtype string  `json:"attr_subtype"`
	AttrValue   string  `json:"attr_value"`
	Positions   []int64 `json:"positions"`
}

// jsonSource implements manifest.Source by reading a flat JSON fixture
// mapping each PFMRI to its search-dict entries. The real package catalog
// that resolves manifests and extracts search dictionaries is an external
// collaborator (spec §6); this is the stand-in an operator or test harness
// points the CLI at to drive the engine directly.
type jsonSource struct {
	path    string
	entries map[types.PFMRI][]manifest.Entry
}

func loadJSONSource(path string) (*jsonSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest fixture %s: %w", path, err)
	}

	var decoded map[string][]jsonEntry
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("parse manifest fixture %s: %w", path, err)
	}

	entries := make(map[types.PFMRI][]manifest.Entry, len(decoded))
	for pfmri, es := range decoded {
		converted := make([]manifest.Entry, len(es))
		for i, e := range es {
			positions := make([]types.Position, len(e.Positions))
			for j, p := range e.Positions {
				positions[j] = types.Position(p)
			}
			converted[i] = manifest.Entry{
				Token:       types.Token(e.Token),
				ActionType:  types.ActionType(e.ActionType),
				AttrSubtype: types.AttrSubtype(e.AttrSubtype),
				AttrValue:   types.AttrValue(e.AttrValue),
				Positions:   positions,
			}
		}
		entries[types.PFMRI(pfmri)] = converted
	}

	return &jsonSource{path: path, entries: entries}, nil
}

// packages returns every PFMRI the fixture knows about, in fixture-file
// order is not guaranteed (map iteration); callers that need a stable
// order should pass explicit PFMRIs on the command line instead.
func (s *jsonSource) packages() []types.PFMRI {
	out := make([]types.PFMRI, 0, len(s.entries))
	for p := range s.entries {
		out = append(out, p)
	}
	return out
}

func (s *jsonSource) ManifestPath(p types.PFMRI) (string, error) {
	return s.path, nil
}

func (s *jsonSource) Manifest(p types.PFMRI) ([]byte, error) {
	return os.ReadFile(s.path)
}

func (s *jsonSource) SearchDict(ctx context.Context, p types.PFMRI) ([]manifest.Entry, error) {
	entries, ok := s.entries[p]
	if !ok {
		return nil, fmt.Errorf("jsonsource: no fixture entry for %q", p)
	}
	return entries, nil
}
