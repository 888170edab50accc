package auxdict

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pkgidx/internal/types"
)

func TestAssignOrLookupAssignsDenseIDs(t *testing.T) {
	tab := NewManifestTable()

	id1 := tab.AssignOrLookup("pub/a@1.0")
	id2 := tab.AssignOrLookup("pub/b@1.0")
	assert.Equal(t, types.PackageID(1), id1)
	assert.Equal(t, types.PackageID(2), id2)

	again := tab.AssignOrLookup("pub/a@1.0")
	assert.Equal(t, id1, again)
	assert.Equal(t, 2, tab.Len())
}

func TestResolveRoundTrip(t *testing.T) {
	tab := NewManifestTable()
	id := tab.AssignOrLookup("pub/a@1.0")

	fmri, ok := tab.Resolve(id)
	require.True(t, ok)
	assert.Equal(t, types.PFMRI("pub/a@1.0"), fmri)

	_, ok = tab.Resolve(types.NoPackageID)
	assert.False(t, ok)
}

func TestManifestTableSaveLoadRoundTrip(t *testing.T) {
	tab := NewManifestTable()
	tab.AssignOrLookup("pub/a@1.0")
	tab.AssignOrLookup("pub/b@2.0")

	path := filepath.Join(t.TempDir(), ManifestTableFile)
	require.NoError(t, tab.Save(path, 3))

	loaded, err := LoadManifestTable(path)
	require.NoError(t, err)
	assert.Equal(t, tab.Len(), loaded.Len())

	id, ok := loaded.Lookup("pub/b@2.0")
	require.True(t, ok)
	fmri, ok := loaded.Resolve(id)
	require.True(t, ok)
	assert.Equal(t, types.PFMRI("pub/b@2.0"), fmri)
}

func TestLoadManifestTableRejectsNonDenseIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestTableFile)
	content := "VERSION: 1\n1 pub/a@1.0\n3 pub/b@2.0\n"
	require.NoError(t, writeRaw(path, content))

	_, err := LoadManifestTable(path)
	assert.Error(t, err)
}
