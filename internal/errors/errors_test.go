package errors

import (
	"errors"
	"testing"
)

func TestIndexErrorMessageIncludesPathWhenPresent(t *testing.T) {
	underlying := errors.New("versions disagree")
	err := NewInconsistentIndex("consistent_open", "/idx", underlying)

	if err.Kind != KindInconsistentIndex {
		t.Errorf("expected Kind %v, got %v", KindInconsistentIndex, err.Kind)
	}
	if err.Op != "consistent_open" {
		t.Errorf("expected Op %q, got %q", "consistent_open", err.Op)
	}
	if err.Path != "/idx" {
		t.Errorf("expected Path %q, got %q", "/idx", err.Path)
	}
	if !errors.Is(err, underlying) {
		t.Errorf("expected Unwrap to expose the underlying error")
	}
	if want := "inconsistent_index: consistent_open /idx: versions disagree"; err.Error() != want {
		t.Errorf("expected message %q, got %q", want, err.Error())
	}
}

func TestIndexErrorMessageOmitsPathWhenAbsent(t *testing.T) {
	err := NewUnknownInput("ingest", 42)
	if err.Path != "" {
		t.Errorf("expected empty Path, got %q", err.Path)
	}
	if err.Kind != KindUnknownInput {
		t.Errorf("expected Kind %v, got %v", KindUnknownInput, err.Kind)
	}
	if want := "unknown_input: ingest: unrecognized input type int"; err.Error() != want {
		t.Errorf("expected message %q, got %q", want, err.Error())
	}
}

func TestNewPartialIndexingFixesOpAndPath(t *testing.T) {
	err := NewPartialIndexing("/idx/TMP")
	if err.Kind != KindPartialIndexing {
		t.Errorf("expected Kind %v, got %v", KindPartialIndexing, err.Kind)
	}
	if err.Op != "create_temp_dir" {
		t.Errorf("expected Op %q, got %q", "create_temp_dir", err.Op)
	}
	if err.Path != "/idx/TMP" {
		t.Errorf("expected Path %q, got %q", "/idx/TMP", err.Path)
	}
}

func TestIsMatchesOnlyTheRequestedKind(t *testing.T) {
	err := NewCorruptIndex("parse", "/idx/main_dict.ascii", errors.New("bad line"))
	if !Is(err, KindCorruptIndex) {
		t.Errorf("expected Is to match KindCorruptIndex")
	}
	if Is(err, KindInconsistentIndex) {
		t.Errorf("expected Is not to match a different Kind")
	}
	if Is(errors.New("plain error"), KindCorruptIndex) {
		t.Errorf("expected Is to return false for a non-*IndexError")
	}
}

func TestConfigErrorUnwrapsUnderlying(t *testing.T) {
	underlying := errors.New("must be positive")
	err := NewConfigError("max_run_bytes", "-1", underlying)
	if !errors.Is(err, underlying) {
		t.Errorf("expected Unwrap to expose the underlying error")
	}
	if err.Field != "max_run_bytes" {
		t.Errorf("expected Field %q, got %q", "max_run_bytes", err.Field)
	}
}
