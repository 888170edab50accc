// Package errors defines the typed failure taxonomy surfaced by the
// indexing engine (spec §7). Failures that fall into one of the taxonomy's
// categories are reported with these types; other failures (plain I/O
// errors, ordering or duplicate-add violations) surface as ordinary errors.
// None are recovered internally except transient file-not-found during
// ByteStore.consistent_open, which retries within its timeout.
package errors

import (
	"fmt"
	"time"
)

// Kind names one of the taxonomy's failure categories.
type Kind string

const (
	// KindInconsistentIndex — files present at incompatible versions after
	// the consistent-open timeout elapsed.
	KindInconsistentIndex Kind = "inconsistent_index"
	// KindProblematicPermissions — index directory not writable during an update.
	KindProblematicPermissions Kind = "problematic_permissions"
	// KindPartialIndexing — a TMP directory already existed at update start.
	KindPartialIndexing Kind = "partial_indexing"
	// KindCorruptIndex — a dictionary file failed to parse.
	KindCorruptIndex Kind = "corrupt_index"
	// KindUnknownInput — update invoked with an unrecognized input type.
	KindUnknownInput Kind = "unknown_input"
	// KindConfig — engine configuration failed validation.
	KindConfig Kind = "config"
)

// IndexError is the concrete error type raised for every Kind above. Callers
// that need to branch on the failure category should use errors.As to
// recover an *IndexError and inspect its Kind, or the Is* helpers below.
type IndexError struct {
	Kind       Kind
	Op         string // operation in progress, e.g. "consistent_open", "migrate"
	Path       string // file or directory implicated, if any
	Underlying error
	Timestamp  time.Time
}

func newIndexError(kind Kind, op, path string, err error) *IndexError {
	return &IndexError{
		Kind:       kind,
		Op:         op,
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Op, e.Path, e.Underlying)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *IndexError) Unwrap() error {
	return e.Underlying
}

// NewInconsistentIndex reports that consistent_open found mismatched
// versions across the auxiliary dictionaries after the retry timeout.
func NewInconsistentIndex(op, path string, err error) *IndexError {
	return newIndexError(KindInconsistentIndex, op, path, err)
}

// NewProblematicPermissions reports that the index directory rejected a
// write during rebuild.
func NewProblematicPermissions(op, path string, err error) *IndexError {
	return newIndexError(KindProblematicPermissions, op, path, err)
}

// NewPartialIndexing reports a pre-existing TMP directory blocking a new update.
func NewPartialIndexing(path string) *IndexError {
	return newIndexError(KindPartialIndexing, "create_temp_dir", path,
		fmt.Errorf("TMP directory already exists; manual recovery required"))
}

// NewCorruptIndex reports that a dictionary file failed to parse.
func NewCorruptIndex(op, path string, err error) *IndexError {
	return newIndexError(KindCorruptIndex, op, path, err)
}

// NewUnknownInput reports an update invoked with an unrecognized input type.
func NewUnknownInput(op string, got interface{}) *IndexError {
	return newIndexError(KindUnknownInput, op, "", fmt.Errorf("unrecognized input type %T", got))
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error.
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %q): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// Is reports whether err is an *IndexError of the given kind.
func Is(err error, kind Kind) bool {
	ie, ok := err.(*IndexError)
	if !ok {
		return false
	}
	return ie.Kind == kind
}
