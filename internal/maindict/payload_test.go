package maindict

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/pkgidx/internal/types"
)

func postingOf(pid types.PackageID, at types.ActionType, st types.AttrSubtype, fv types.AttrValue, positions ...types.Position) types.Posting {
	return types.Posting{ActionType: at, AttrSubtype: st, AttrValue: fv, PackageID: pid, Positions: positions}
}

func TestSpliceAppendsNewEntry(t *testing.T) {
	left := FromPosting(postingOf(1, "file", "basename", "foo", 1))
	right := FromPosting(postingOf(2, "dir", "path", "/usr", 5))

	Splice(&left, right)

	assert.Len(t, left, 2)
	assert.Equal(t, types.ActionType("file"), left[0].ActionType)
	assert.Equal(t, types.ActionType("dir"), left[1].ActionType)
}

func TestSpliceMergesLeafPositions(t *testing.T) {
	left := FromPosting(postingOf(1, "file", "basename", "foo", 1, 2))
	right := FromPosting(postingOf(1, "file", "basename", "foo", 9))

	Splice(&left, right)

	require := left[0].STs[0].FVs[0].PIDs
	assert.Len(t, require, 1)
	assert.Equal(t, []types.Position{1, 2, 9}, require[0].Positions)
}

func TestSpliceWithEmptyIsIdentity(t *testing.T) {
	left := FromPosting(postingOf(1, "file", "basename", "foo", 1))
	original := append(Payload(nil), left...)

	Splice(&left, nil)
	assert.Equal(t, original, left)
}

func TestSpliceOntoEmptyIsRight(t *testing.T) {
	var left Payload
	right := FromPosting(postingOf(1, "file", "basename", "foo", 1))

	Splice(&left, right)
	assert.Equal(t, right, left)
}

func TestSplicePreservesLeftOrderAppendsRightOnly(t *testing.T) {
	left := Payload{
		{ActionType: "a", STs: nil},
		{ActionType: "b", STs: nil},
	}
	right := Payload{
		{ActionType: "c", STs: nil},
	}
	Splice(&left, right)
	assert.Equal(t, []types.ActionType{"a", "b", "c"}, []types.ActionType{left[0].ActionType, left[1].ActionType, left[2].ActionType})
}

func TestRemovePackagesPrunesEmptyBranches(t *testing.T) {
	p := FromPosting(postingOf(1, "file", "basename", "foo", 1))
	out := RemovePackages(p, map[types.PackageID]bool{1: true})
	assert.Empty(t, out)
}

func TestRemovePackagesKeepsOthers(t *testing.T) {
	left := FromPosting(postingOf(1, "file", "basename", "foo", 1))
	Splice(&left, FromPosting(postingOf(2, "file", "basename", "foo", 2)))

	out := RemovePackages(left, map[types.PackageID]bool{1: true})
	require := out[0].STs[0].FVs[0].PIDs
	assert.Len(t, require, 1)
	assert.Equal(t, types.PackageID(2), require[0].PackageID)
}

func TestRemovePackagesNoOpWhenEmptySet(t *testing.T) {
	p := FromPosting(postingOf(1, "file", "basename", "foo", 1))
	out := RemovePackages(p, nil)
	assert.Equal(t, p, out)
}
