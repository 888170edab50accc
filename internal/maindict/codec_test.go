package maindict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pkgidx/internal/types"
)

func samplePayload() Payload {
	return Payload{
		{
			ActionType: "file",
			STs: []STEntry{
				{
					AttrSubtype: "basename",
					FVs: []FVEntry{
						{
							AttrValue: "foo",
							PIDs: []PIDEntry{
								{PackageID: 1, Positions: []types.Position{42}},
								{PackageID: 2, Positions: []types.Position{7, 9}},
							},
						},
					},
				},
			},
		},
	}
}

func TestSerializeParseRoundTrip(t *testing.T) {
	line := SerializeLine("foo", samplePayload())
	// trim the trailing newline the way Reader.ReadLine does.
	tok, payload, err := ParseLine(line[:len(line)-1])
	require.NoError(t, err)
	assert.Equal(t, types.Token("foo"), tok)
	assert.Equal(t, samplePayload(), payload)
}

func TestParseLineRejectsMissingSeparator(t *testing.T) {
	_, _, err := ParseLine("no-space-here")
	assert.Error(t, err)
}

func TestParseLineRejectsEmptyToken(t *testing.T) {
	_, _, err := ParseLine(" file\x021\x022\n")
	assert.Error(t, err)
}

func TestParseLineRejectsBadPackageID(t *testing.T) {
	_, _, err := ParseLine("tok file\x02basename\x02foo\x02notanumber\x0242")
	assert.Error(t, err)
}

func TestParseLineRejectsBadPosition(t *testing.T) {
	_, _, err := ParseLine("tok file\x02basename\x02foo\x021\x02notaposition")
	assert.Error(t, err)
}

func TestEncodePositionsPreservesOrder(t *testing.T) {
	p := Payload{{
		ActionType: "file",
		STs: []STEntry{{
			AttrSubtype: "path",
			FVs: []FVEntry{{
				AttrValue: "/bin/foo",
				PIDs: []PIDEntry{{
					PackageID: 1,
					Positions: []types.Position{9, 3, 3, 1},
				}},
			}},
		}},
	}}
	line := SerializeLine("tok", p)
	_, parsed, err := ParseLine(line[:len(line)-1])
	require.NoError(t, err)
	assert.Equal(t, []types.Position{9, 3, 3, 1}, parsed[0].STs[0].FVs[0].PIDs[0].Positions)
}
