package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestTaxonomyCheckers(t *testing.T) {
	storage := Storage("write session", errors.New("disk io"))
	validation := Validation("lesson %s has no exercises", "abc")
	transient := Transient(errors.New("connection refused"))
	permanent := Permanent(422, "bad payload")

	if !IsStorage(storage) || IsStorage(validation) {
		t.Fatal("storage classification broken")
	}
	if !IsValidation(validation) || IsValidation(storage) {
		t.Fatal("validation classification broken")
	}
	if !IsTransient(transient) || IsTransient(permanent) {
		t.Fatal("transient classification broken")
	}
	if !IsPermanent(permanent) || IsPermanent(transient) {
		t.Fatal("permanent classification broken")
	}
}

func TestCheckersSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("sync cycle: %w", Transient(errors.New("timeout")))
	if !IsTransient(wrapped) {
		t.Fatal("wrapped transient not detected")
	}

	deep := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", ErrSessionNotActive))
	if !errors.Is(deep, ErrSessionNotActive) {
		t.Fatal("sentinel lost through wrapping")
	}
}

func TestTransientOfNilIsNil(t *testing.T) {
	if Transient(nil) != nil {
		t.Fatal("Transient(nil) must stay nil")
	}
	if IsTransient(nil) {
		t.Fatal("nil is not transient")
	}
}
