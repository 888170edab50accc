// Package config defines the engine's own tunables: run-directory layout,
// external-merge-sort thresholds, consistent-open timeouts, and the
// fast-path rebuild threshold. None of this configures the manifest
// parser or the query engine — those are external collaborators (spec §6).
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default tunables (spec §4.3, §4.7, §4.1).
const (
	DefaultMaxRunBytes            = 128 * 1024 * 1024
	DefaultConsistentOpenTimeout  = 2 * time.Second
	DefaultMaxAddedNumberPackages = 20
)

// Config holds everything IndexUpdater needs to locate and bound an update.
type Config struct {
	// IndexDir is the directory holding the committed on-disk index
	// (main_dict.ascii, token_byte_offset.ascii, manf, full_fmri, ...).
	IndexDir string

	// SortSpiller tunables.
	MaxRunBytes int64
	RunDir      string // scratch directory for spilled run files; defaults under IndexDir/TMP

	// ByteStore.consistent_open tunables.
	ConsistentOpenTimeout time.Duration

	// Fast-path threshold (spec §4.7).
	MaxAddedNumberPackages int
}

// Default returns a Config rooted at indexDir with the spec's documented defaults.
func Default(indexDir string) *Config {
	return &Config{
		IndexDir:               indexDir,
		MaxRunBytes:            DefaultMaxRunBytes,
		RunDir:                 filepath.Join(indexDir, "TMP", "runs"),
		ConsistentOpenTimeout:  DefaultConsistentOpenTimeout,
		MaxAddedNumberPackages: DefaultMaxAddedNumberPackages,
	}
}

// TempDir is the staging directory migrate() swaps into IndexDir (spec §4.8).
// Its pre-existence at update start signals PartialIndexing (spec §4.6 step 2).
func (c *Config) TempDir() string {
	return filepath.Join(c.IndexDir, "TMP")
}

// Load reads engine configuration from a KDL file at path, falling back to
// Default(indexDir) for any field the file does not set. A missing file is
// not an error — it simply means "use defaults".
func Load(path, indexDir string) (*Config, error) {
	cfg := Default(indexDir)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := applyKDL(cfg, string(content)); err != nil {
		return nil, err
	}
	return cfg, nil
}
