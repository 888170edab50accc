package updater

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pkgidx/internal/auxdict"
	"github.com/standardbeagle/pkgidx/internal/config"
	"github.com/standardbeagle/pkgidx/internal/maindict"
	"github.com/standardbeagle/pkgidx/internal/manifest"
	"github.com/standardbeagle/pkgidx/internal/types"
)

// fakeSource backs manifest.Source with an in-memory fixture mapping each
// PFMRI to a fixed set of search-dict entries, the way a test double for
// the package catalog would (spec §6).
type fakeSource struct {
	entries map[types.PFMRI][]manifest.Entry
}

func (f *fakeSource) ManifestPath(p types.PFMRI) (string, error) { return string(p), nil }
func (f *fakeSource) Manifest(p types.PFMRI) ([]byte, error)     { return nil, nil }
func (f *fakeSource) SearchDict(ctx context.Context, p types.PFMRI) ([]manifest.Entry, error) {
	return f.entries[p], nil
}

func newTestConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return config.Default(dir)
}

func TestS1FreshRebuildSinglePackage(t *testing.T) {
	cfg := newTestConfig(t)
	src := &fakeSource{entries: map[types.PFMRI][]manifest.Entry{
		"pub/a@1.0": {{Token: "foo", ActionType: "file", AttrSubtype: "basename", AttrValue: "/bin/foo", Positions: []types.Position{42}}},
	}}
	u := New(cfg, src, nil, nil)

	res, err := u.Rebuild(context.Background(), []types.PFMRI{"pub/a@1.0"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Version)
	assert.Equal(t, 1, res.TokensEmitted)

	r, err := maindict.Open(filepath.Join(cfg.IndexDir, maindict.FileName))
	require.NoError(t, err)
	defer r.Close()
	entry, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, types.Token("foo"), entry.Token)

	offsets, err := auxdict.LoadTokenOffsetMap(filepath.Join(cfg.IndexDir, auxdict.TokenOffsetFile))
	require.NoError(t, err)
	off, ok := offsets.Lookup("foo")
	require.True(t, ok)
	assert.Equal(t, int64(len("VERSION: 1\n")), off)

	pkgContent, err := os.ReadFile(filepath.Join(cfg.IndexDir, "pkg", "a", "1.0"))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d\n", off), string(pkgContent))
}

func TestS2AddWithoutOverlap(t *testing.T) {
	cfg := newTestConfig(t)
	src := &fakeSource{entries: map[types.PFMRI][]manifest.Entry{
		"pub/a@1.0": {{Token: "foo", ActionType: "file", AttrSubtype: "basename", AttrValue: "/bin/foo", Positions: []types.Position{42}}},
		"pub/b@1.0": {{Token: "bar", ActionType: "file", AttrSubtype: "basename", AttrValue: "/bin/bar", Positions: []types.Position{7}}},
	}}
	u := New(cfg, src, nil, nil)

	_, err := u.Rebuild(context.Background(), []types.PFMRI{"pub/a@1.0"})
	require.NoError(t, err)

	res, err := u.ServerAdd(context.Background(), []types.PFMRI{"pub/b@1.0"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Version)

	r, err := maindict.Open(filepath.Join(cfg.IndexDir, maindict.FileName))
	require.NoError(t, err)
	defer r.Close()

	e1, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, types.Token("bar"), e1.Token)
	e2, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, types.Token("foo"), e2.Token)

	atContent, err := os.ReadFile(filepath.Join(cfg.IndexDir, "__at_file"))
	require.NoError(t, err)
	assert.Len(t, splitLines(string(atContent)), 2)
}

func TestS3AddWithOverlap(t *testing.T) {
	cfg := newTestConfig(t)
	src := &fakeSource{entries: map[types.PFMRI][]manifest.Entry{
		"pub/a@1.0": {{Token: "foo", ActionType: "file", AttrSubtype: "basename", AttrValue: "/bin/foo", Positions: []types.Position{42}}},
		"pub/b@1.0": {{Token: "foo", ActionType: "file", AttrSubtype: "basename", AttrValue: "/bin/foo", Positions: []types.Position{99}}},
	}}
	u := New(cfg, src, nil, nil)

	_, err := u.Rebuild(context.Background(), []types.PFMRI{"pub/a@1.0"})
	require.NoError(t, err)

	_, err = u.ServerAdd(context.Background(), []types.PFMRI{"pub/b@1.0"})
	require.NoError(t, err)

	r, err := maindict.Open(filepath.Join(cfg.IndexDir, maindict.FileName))
	require.NoError(t, err)
	defer r.Close()

	entry, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, types.Token("foo"), entry.Token)
	assert.Len(t, entry.Payload[0].STs[0].FVs[0].PIDs, 2, "one line, two spliced packages")

	_, errA := os.Stat(filepath.Join(cfg.IndexDir, "pkg", "a", "1.0"))
	assert.NoError(t, errA)
	_, errB := os.Stat(filepath.Join(cfg.IndexDir, "pkg", "b", "1.0"))
	assert.NoError(t, errB)
}

func TestPartialIndexingOnPreexistingTMP(t *testing.T) {
	cfg := newTestConfig(t)
	require.NoError(t, os.MkdirAll(cfg.TempDir(), 0755))

	u := New(cfg, &fakeSource{}, nil, nil)
	_, err := u.Rebuild(context.Background(), nil)
	assert.Error(t, err)
	assert.Equal(t, Failed, u.State())
}

func TestEmptyRebuildProducesVersionOne(t *testing.T) {
	cfg := newTestConfig(t)
	u := New(cfg, &fakeSource{}, nil, nil)

	res, err := u.Rebuild(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Version)
	assert.Equal(t, 0, res.TokensEmitted)
	assert.Equal(t, Idle, u.State())
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}
