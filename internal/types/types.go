// Package types defines the data model shared across the indexing engine:
// package identifiers, tokens, postings, and the small set of ID types that
// flow between ManifestTable, MainDictionary, and the side indices.
package types

import "strings"

// PackageID is the small dense integer ManifestTable assigns to a PFMRI.
// Ids are monotonically increasing and never reused (spec §3).
type PackageID uint32

// NoPackageID is never assigned by ManifestTable; used as a sentinel.
const NoPackageID PackageID = 0

// Token is a non-empty byte string and the primary key of MainDictionary.
// Ordering is lexicographic over bytes (spec §3).
type Token string

// ActionType classifies the manifest action a posting came from (e.g. "file",
// "dir", "depend"). AttrSubtype further classifies within an action_type
// (e.g. "basename", "path"). Both are opaque to the engine.
type ActionType string

// AttrSubtype qualifies a posting's occurrence within an ActionType.
type AttrSubtype string

// AttrValue is the indexed value itself, e.g. "/usr/bin/foo".
type AttrValue string

// Position is a byte offset (or other opaque location token) within a
// manifest where a token occurrence was recorded. Position lists preserve
// emission order; they are never sorted or de-duplicated (spec §4.2).
type Position int64

// Posting is one occurrence of a token in a manifest, keyed by the
// classifier triple and the package that produced it (spec §3).
type Posting struct {
	ActionType  ActionType
	AttrSubtype AttrSubtype
	AttrValue   AttrValue
	PackageID   PackageID
	Positions   []Position
}

// PFMRI is an opaque package identifier of the form publisher/name@version.
// Comparison between versions is delegated to an external comparator
// (spec §3); this package only knows how to split and reassemble the string.
type PFMRI string

// Publisher returns the publisher component, or "" if the PFMRI carries
// none (an anarchic form).
func (p PFMRI) Publisher() string {
	s := string(p)
	slash := strings.IndexByte(s, '/')
	at := strings.IndexByte(s, '@')
	if slash < 0 {
		return ""
	}
	if at >= 0 && at < slash {
		return ""
	}
	return s[:slash]
}

// Stem returns the name component only, eliding both publisher and version.
func (p PFMRI) Stem() string {
	s := string(p)
	if slash := strings.IndexByte(s, '/'); slash >= 0 {
		s = s[slash+1:]
	}
	if at := strings.IndexByte(s, '@'); at >= 0 {
		s = s[:at]
	}
	return s
}

// Version returns the version component, or "" if absent.
func (p PFMRI) Version() string {
	s := string(p)
	if at := strings.IndexByte(s, '@'); at >= 0 {
		return s[at+1:]
	}
	return ""
}

// Anarchic returns the PFMRI with its publisher elided (publisher-free
// name@version), the canonical key used in FastAddSet/FastRemoveSet and
// FullFmriSet (spec §3, glossary).
func (p PFMRI) Anarchic() PFMRI {
	s := string(p)
	slash := strings.IndexByte(s, '/')
	at := strings.IndexByte(s, '@')
	if slash < 0 || (at >= 0 && at < slash) {
		return p
	}
	return PFMRI(s[slash+1:])
}

// VersionComparator orders two PFMRIs by their version component. It is an
// external collaborator (spec §6); the engine never implements version
// comparison itself, only depends on this interface.
type VersionComparator interface {
	Less(a, b PFMRI) bool
}
