package auxdict

import "github.com/standardbeagle/pkgidx/internal/maindict"

// On-disk file names for the auxiliary dictionaries (spec §6, "Produced
// on-disk layout").
const (
	ManifestTableFile = "manf"
	FullFmriSetFile   = "full_fmri"
	FastAddSetFile    = "fast_add"
	FastRemoveSetFile = "fast_remove"
	TokenOffsetFile   = "token_byte_offset.ascii"
)

// Files lists the four small auxiliary dictionaries IndexUpdater loads
// into memory on open.
var Files = []string{
	ManifestTableFile,
	FullFmriSetFile,
	FastAddSetFile,
	FastRemoveSetFile,
}

// ConsistentOpenFiles lists every file whose version consistent_open must
// check, including MainDictionary and TokenOffsetMap: their bodies aren't
// loaded into memory by openExisting, but their version headers still must
// agree with the rest, or a partially-migrated commit goes undetected
// (spec §3, "All persisted files in the index directory carry identical
// version numbers"). Mirrors the original's consistent_open call over its
// full six-file _data_dict.
var ConsistentOpenFiles = append(append([]string{}, Files...), maindict.FileName, TokenOffsetFile)
