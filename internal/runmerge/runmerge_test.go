package runmerge

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pkgidx/internal/maindict"
	"github.com/standardbeagle/pkgidx/internal/types"
)

func writeRunFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	var content string
	for _, l := range lines {
		content += l
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func singlePostingLine(token types.Token, pid types.PackageID, pos types.Position) string {
	p := maindict.FromPosting(types.Posting{
		ActionType: "file", AttrSubtype: "basename", AttrValue: string(token),
		PackageID: pid, Positions: []types.Position{pos},
	})
	return maindict.SerializeLine(token, p)
}

func TestMergeAscendingAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	run0 := writeRunFile(t, dir, "run.0", singlePostingLine("foo", 1, 1))
	run1 := writeRunFile(t, dir, "run.1", singlePostingLine("bar", 2, 2))

	m, err := Open([]string{run0, run1}, "")
	require.NoError(t, err)
	defer m.Close()

	tok1, _, err := m.Next()
	require.NoError(t, err)
	assert.Equal(t, types.Token("bar"), tok1)

	tok2, _, err := m.Next()
	require.NoError(t, err)
	assert.Equal(t, types.Token("foo"), tok2)

	_, _, err = m.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestMergeSplicesDuplicateTokens(t *testing.T) {
	dir := t.TempDir()
	run0 := writeRunFile(t, dir, "run.0", singlePostingLine("foo", 1, 1))
	run1 := writeRunFile(t, dir, "run.1", singlePostingLine("foo", 2, 2))

	m, err := Open([]string{run0, run1}, "")
	require.NoError(t, err)
	defer m.Close()

	tok, payload, err := m.Next()
	require.NoError(t, err)
	assert.Equal(t, types.Token("foo"), tok)
	assert.Len(t, payload[0].STs[0].FVs[0].PIDs, 2)

	_, _, err = m.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestMergeIncludesExistingMainDict(t *testing.T) {
	dir := t.TempDir()
	existingPath := filepath.Join(dir, maindict.FileName)
	w, err := maindict.Create(existingPath, 1)
	require.NoError(t, err)
	_, err = w.WriteEntry("baz", maindict.FromPosting(types.Posting{
		ActionType: "file", AttrSubtype: "basename", AttrValue: "baz", PackageID: 1, Positions: []types.Position{3},
	}))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	run0 := writeRunFile(t, dir, "run.0", singlePostingLine("foo", 2, 1))

	m, err := Open([]string{run0}, existingPath)
	require.NoError(t, err)
	defer m.Close()

	tok1, _, err := m.Next()
	require.NoError(t, err)
	assert.Equal(t, types.Token("baz"), tok1)

	tok2, _, err := m.Next()
	require.NoError(t, err)
	assert.Equal(t, types.Token("foo"), tok2)
}

func TestOpenToleratesMissingExistingMainDict(t *testing.T) {
	dir := t.TempDir()
	run0 := writeRunFile(t, dir, "run.0", singlePostingLine("foo", 1, 1))

	m, err := Open([]string{run0}, filepath.Join(dir, "does-not-exist"))
	require.NoError(t, err)
	defer m.Close()

	tok, _, err := m.Next()
	require.NoError(t, err)
	assert.Equal(t, types.Token("foo"), tok)
}
