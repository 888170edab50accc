// Package sideindex implements SideIndexWriter (spec §4.9): as each
// MainDictionary line is emitted, it fans the line's offset out to the
// per-action-type, per-attr-subtype, and per-package facet files that make
// faceted queries possible without rescanning the MainDictionary.
package sideindex

import (
	"fmt"
	"path/filepath"

	"github.com/standardbeagle/pkgidx/internal/bytestore"
	"github.com/standardbeagle/pkgidx/internal/maindict"
	"github.com/standardbeagle/pkgidx/internal/types"
)

const (
	atPrefix  = "__at_"
	stPrefix  = "__st_"
	pkgSubdir = "pkg"
)

// Resolver resolves a package id back to its PFMRI, so Writer can derive
// the "pkg/<stem>/<version>" facet path (spec §4.9) without depending on
// auxdict directly.
type Resolver interface {
	Resolve(id types.PackageID) (types.PFMRI, bool)
}

// Writer appends offsets to facet files as MainDictionary lines are
// emitted. Facet files are append-only within one update (they are
// rewritten from scratch because they live inside a fresh temp directory
// each update), so Writer keeps no in-memory accumulator of its own.
type Writer struct {
	tmpDir   string
	resolver Resolver
}

// New returns a Writer that fans facet files out under tmpDir, resolving
// package ids through resolver.
func New(tmpDir string, resolver Resolver) *Writer {
	return &Writer{tmpDir: tmpDir, resolver: resolver}
}

// Observe is called once per emitted MainDictionary line, after the line's
// byte offset is known (spec §4.9).
func (w *Writer) Observe(offset int64, payload maindict.Payload) error {
	seenAT := make(map[types.ActionType]bool, len(payload))
	for _, at := range payload {
		if !seenAT[at.ActionType] {
			seenAT[at.ActionType] = true
			if err := bytestore.AppendOffset(w.atPath(at.ActionType), offset); err != nil {
				return err
			}
		}

		seenST := make(map[types.AttrSubtype]bool)
		for _, st := range at.STs {
			if !seenST[st.AttrSubtype] {
				seenST[st.AttrSubtype] = true
				if err := bytestore.AppendOffset(w.stPath(st.AttrSubtype), offset); err != nil {
					return err
				}
			}

			for _, fv := range st.FVs {
				for _, pid := range fv.PIDs {
					path, err := w.pkgPath(pid.PackageID)
					if err != nil {
						return err
					}
					if err := bytestore.AppendOffset(path, offset); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func (w *Writer) atPath(at types.ActionType) string {
	return filepath.Join(w.tmpDir, atPrefix+string(at))
}

func (w *Writer) stPath(st types.AttrSubtype) string {
	return filepath.Join(w.tmpDir, stPrefix+string(st))
}

// pkgPath derives "pkg/<stem>/<version>" under tmpDir for a package id
// (spec §4.9).
func (w *Writer) pkgPath(id types.PackageID) (string, error) {
	fmri, ok := w.resolver.Resolve(id)
	if !ok {
		return "", fmt.Errorf("sideindex: unresolved package id %d", id)
	}
	return filepath.Join(w.tmpDir, pkgSubdir, fmri.Stem(), fmri.Version()), nil
}
