package updater

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pkgidx/internal/auxdict"
	"github.com/standardbeagle/pkgidx/internal/maindict"
	"github.com/standardbeagle/pkgidx/internal/manifest"
	"github.com/standardbeagle/pkgidx/internal/types"
)

type fakeRebuildRequesterAdapter struct {
	called bool
}

func (f *fakeRebuildRequesterAdapter) RebuildSearchIndex(ctx context.Context, progress manifest.Progress) error {
	f.called = true
	return nil
}

func TestFastUpdateDoesNotTouchMainDict(t *testing.T) {
	cfg := newTestConfig(t)
	u := New(cfg, &fakeSource{}, nil, nil)

	res, err := u.FastUpdate(context.Background(), []types.PFMRI{"pub/a@1.0"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Version)

	// A never-rebuilt index still needs a version-consistent main dict on
	// disk (spec §3), but the fast path must not populate it with entries.
	r, err := maindict.Open(filepath.Join(cfg.IndexDir, "main_dict.ascii"))
	require.NoError(t, err)
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF, "fast path must not write entries into the main dictionary")
	require.NoError(t, r.Close())

	fastAdd, err := auxdict.LoadStringSet(filepath.Join(cfg.IndexDir, auxdict.FastAddSetFile))
	require.NoError(t, err)
	assert.True(t, fastAdd.Has("a@1.0"))
}

func TestFastUpdateCancelsPendingRemoval(t *testing.T) {
	cfg := newTestConfig(t)
	u := New(cfg, &fakeSource{}, nil, nil)

	_, err := u.FastUpdate(context.Background(), nil, []types.PFMRI{"pub/a@1.0"})
	require.NoError(t, err)

	_, err = u.FastUpdate(context.Background(), []types.PFMRI{"pub/a@1.0"}, nil)
	require.NoError(t, err)

	fastAdd, err := auxdict.LoadStringSet(filepath.Join(cfg.IndexDir, auxdict.FastAddSetFile))
	require.NoError(t, err)
	fastRem, err := auxdict.LoadStringSet(filepath.Join(cfg.IndexDir, auxdict.FastRemoveSetFile))
	require.NoError(t, err)

	assert.False(t, fastAdd.Has("a@1.0"), "the cancelled-out add must not reappear")
	assert.False(t, fastRem.Has("a@1.0"))
}

func TestFastUpdateCrossingThresholdRequestsRebuild(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.MaxAddedNumberPackages = 1
	rr := &fakeRebuildRequesterAdapter{}
	u := New(cfg, &fakeSource{}, nil, rr)

	_, err := u.FastUpdate(context.Background(), []types.PFMRI{"pub/a@1.0"}, nil)
	require.NoError(t, err)

	res, err := u.FastUpdate(context.Background(), []types.PFMRI{"pub/b@1.0"}, nil)
	require.NoError(t, err)
	assert.True(t, res.RebuildPending)
	assert.True(t, rr.called)

	_, statErr := os.Stat(cfg.TempDir())
	assert.True(t, os.IsNotExist(statErr), "a rebuild-pending fast update must not leave a temp dir behind")
}
