package maindict

import (
	"fmt"
	"strconv"
	"strings"

	idxerrors "github.com/standardbeagle/pkgidx/internal/errors"
	"github.com/standardbeagle/pkgidx/internal/types"
)

// Separator bytes for the serialized payload. They are chosen from the
// ASCII control range, which tokens, attr values, and package identifiers
// never contain in practice (manifest-parser output is printable text) —
// this is the "distinct from any byte allowable in a token" requirement of
// spec §4.2. The exact choice has no legacy consumers to stay compatible
// with (spec §9 open question), so any disjoint, documented set suffices.
const (
	sepAT  = '\x1c' // between action_type entries
	sepST  = '\x1d' // between attr_subtype entries
	sepFV  = '\x1e' // between attr_value entries
	sepPID = '\x1f' // between package_id entries
	sepKV  = '\x02' // between a level's key and its serialized sublist
	sepPos = ','    // between positions in a position list
)

// SerializeLine renders one MainDictionary line: "<token> <payload>\n".
func SerializeLine(token types.Token, p Payload) string {
	var b strings.Builder
	b.WriteString(string(token))
	b.WriteByte(' ')
	b.WriteString(encodeAT(p))
	b.WriteByte('\n')
	return b.String()
}

func encodeAT(p Payload) string {
	parts := make([]string, len(p))
	for i, at := range p {
		parts[i] = string(at.ActionType) + string(sepKV) + encodeST(at.STs)
	}
	return strings.Join(parts, string(sepAT))
}

func encodeST(sts []STEntry) string {
	parts := make([]string, len(sts))
	for i, st := range sts {
		parts[i] = string(st.AttrSubtype) + string(sepKV) + encodeFV(st.FVs)
	}
	return strings.Join(parts, string(sepST))
}

func encodeFV(fvs []FVEntry) string {
	parts := make([]string, len(fvs))
	for i, fv := range fvs {
		parts[i] = string(fv.AttrValue) + string(sepKV) + encodePID(fv.PIDs)
	}
	return strings.Join(parts, string(sepFV))
}

func encodePID(pids []PIDEntry) string {
	parts := make([]string, len(pids))
	for i, pid := range pids {
		parts[i] = strconv.FormatUint(uint64(pid.PackageID), 10) + string(sepKV) + encodePositions(pid.Positions)
	}
	return strings.Join(parts, string(sepPID))
}

func encodePositions(positions []types.Position) string {
	parts := make([]string, len(positions))
	for i, pos := range positions {
		parts[i] = strconv.FormatInt(int64(pos), 10)
	}
	return strings.Join(parts, string(sepPos))
}

// ParseLine parses one serialized MainDictionary line (without its
// trailing newline) back into (token, payload), rejecting malformed input
// with CorruptIndex (spec §4.2).
func ParseLine(line string) (types.Token, Payload, error) {
	sp := strings.IndexByte(line, ' ')
	if sp < 0 {
		return "", nil, idxerrors.NewCorruptIndex("parse_line", "", fmt.Errorf("missing token/payload separator in %q", line))
	}
	token := types.Token(line[:sp])
	if token == "" {
		return "", nil, idxerrors.NewCorruptIndex("parse_line", "", fmt.Errorf("empty token"))
	}
	payload, err := decodeAT(line[sp+1:])
	if err != nil {
		return "", nil, idxerrors.NewCorruptIndex("parse_line", string(token), err)
	}
	return token, payload, nil
}

func splitNonEmpty(s string, sep byte) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, string(sep))
}

func decodeAT(s string) (Payload, error) {
	groups := splitNonEmpty(s, sepAT)
	out := make(Payload, 0, len(groups))
	for _, g := range groups {
		key, rest, err := splitKV(g)
		if err != nil {
			return nil, err
		}
		sts, err := decodeST(rest)
		if err != nil {
			return nil, err
		}
		out = append(out, ATEntry{ActionType: types.ActionType(key), STs: sts})
	}
	return out, nil
}

func decodeST(s string) ([]STEntry, error) {
	groups := splitNonEmpty(s, sepST)
	out := make([]STEntry, 0, len(groups))
	for _, g := range groups {
		key, rest, err := splitKV(g)
		if err != nil {
			return nil, err
		}
		fvs, err := decodeFV(rest)
		if err != nil {
			return nil, err
		}
		out = append(out, STEntry{AttrSubtype: types.AttrSubtype(key), FVs: fvs})
	}
	return out, nil
}

func decodeFV(s string) ([]FVEntry, error) {
	groups := splitNonEmpty(s, sepFV)
	out := make([]FVEntry, 0, len(groups))
	for _, g := range groups {
		key, rest, err := splitKV(g)
		if err != nil {
			return nil, err
		}
		pids, err := decodePID(rest)
		if err != nil {
			return nil, err
		}
		out = append(out, FVEntry{AttrValue: types.AttrValue(key), PIDs: pids})
	}
	return out, nil
}

func decodePID(s string) ([]PIDEntry, error) {
	groups := splitNonEmpty(s, sepPID)
	out := make([]PIDEntry, 0, len(groups))
	for _, g := range groups {
		key, rest, err := splitKV(g)
		if err != nil {
			return nil, err
		}
		id, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid package id %q: %w", key, err)
		}
		positions, err := decodePositions(rest)
		if err != nil {
			return nil, err
		}
		out = append(out, PIDEntry{PackageID: types.PackageID(id), Positions: positions})
	}
	return out, nil
}

func decodePositions(s string) ([]types.Position, error) {
	parts := splitNonEmpty(s, sepPos)
	out := make([]types.Position, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid position %q: %w", p, err)
		}
		out = append(out, types.Position(v))
	}
	return out, nil
}

func splitKV(s string) (key, rest string, err error) {
	i := strings.IndexByte(s, sepKV)
	if i < 0 {
		return "", "", fmt.Errorf("missing key/value separator in %q", s)
	}
	return s[:i], s[i+1:], nil
}
