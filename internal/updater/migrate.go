package updater

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/pkgidx/internal/auxdict"
	"github.com/standardbeagle/pkgidx/internal/config"
	"github.com/standardbeagle/pkgidx/internal/maindict"
)

// skipSet names the files a fast-path-only commit must leave untouched in
// tmpDir and index_dir: a fast update writes no tokens and never touches
// the main dictionary (spec §4.7, §4.8 "unless skip set by fast path").
type skipSet map[string]bool

var noSkip = skipSet{}

func fastPathSkip() skipSet {
	return skipSet{
		maindict.FileName:       true,
		auxdict.TokenOffsetFile: true,
		pkgSubtreeMarker:        true,
	}
}

// migrate performs the atomic-on-best-effort directory swap from
// cfg.TempDir() into cfg.IndexDir (spec §4.8). It is not atomic at the
// filesystem level: a failure partway through is recovered by the next
// run's consistent_open rejecting the resulting partial state.
func migrate(cfg *config.Config, skip skipSet) error {
	tmp := cfg.TempDir()

	if skip == nil {
		skip = noSkip
	}

	if !skip[pkgSubtreeMarker] {
		pkgDir := filepath.Join(cfg.IndexDir, "pkg")
		if err := os.RemoveAll(pkgDir); err != nil {
			return err
		}
		tmpPkgDir := filepath.Join(tmp, "pkg")
		if _, err := os.Stat(tmpPkgDir); err == nil {
			if err := os.Rename(tmpPkgDir, pkgDir); err != nil {
				return err
			}
		}
	}

	for _, name := range []string{
		maindict.FileName,
		auxdict.TokenOffsetFile,
		auxdict.ManifestTableFile,
		auxdict.FullFmriSetFile,
		auxdict.FastAddSetFile,
		auxdict.FastRemoveSetFile,
	} {
		if skip[name] {
			continue
		}
		if err := moveIfPresent(filepath.Join(tmp, name), filepath.Join(cfg.IndexDir, name)); err != nil {
			return err
		}
	}

	if !skip[pkgSubtreeMarker] {
		if err := moveFacetFiles(tmp, cfg.IndexDir); err != nil {
			return err
		}
	}

	return os.RemoveAll(tmp)
}

// pkgSubtreeMarker is a synthetic skipSet key (not a real file name) used
// to gate the pkg/ subtree and __at_/__st_ facet file moves together,
// since a fast-path-only commit never produces any of them.
const pkgSubtreeMarker = "\x00pkg-subtree"

func moveIfPresent(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.Rename(src, dst)
}

// moveFacetFiles relocates every __at_<action_type> and __st_<attr_subtype>
// file produced in tmp during this update (spec §4.8).
func moveFacetFiles(tmp, indexDir string) error {
	entries, err := os.ReadDir(tmp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "__at_") || strings.HasPrefix(name, "__st_") {
			if err := os.Rename(filepath.Join(tmp, name), filepath.Join(indexDir, name)); err != nil {
				return err
			}
		}
	}
	return nil
}
