package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "name", Reason: "name is required"}

	if !IsValidationError(err) {
		t.Error("IsValidationError should match a *ValidationError")
	}
	if !strings.Contains(err.Error(), "name") {
		t.Errorf("message should carry the field, got %q", err.Error())
	}
	if IsValidationError(errors.New("other")) {
		t.Error("IsValidationError must not match arbitrary errors")
	}
}

func TestStoreErrorUnwraps(t *testing.T) {
	cause := errors.New("timeout")
	err := &StoreError{Op: "get personal record", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("StoreError should unwrap to its cause")
	}
	if IsValidationError(err) {
		t.Error("a store failure is not a validation error")
	}
}

// WriteError covers both directions of the Leaderboard Store: Submit and
// the TopScores read path wrap failures in the same type.
func TestWriteErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")

	for _, op := range []string{"submit entry", "query top scores"} {
		err := &WriteError{Op: op, Err: cause}
		if !errors.Is(err, cause) {
			t.Errorf("%s: WriteError should unwrap to its cause", op)
		}
		if !strings.Contains(err.Error(), op) {
			t.Errorf("%s: message should carry the op, got %q", op, err.Error())
		}
		if IsValidationError(err) {
			t.Errorf("%s: a store failure is not a validation error", op)
		}
	}
}

func TestIsNotFoundError(t *testing.T) {
	for _, err := range []error{ErrRecordNotFound, ErrProfileNotFound, ErrGameNotFound} {
		if !IsNotFoundError(err) {
			t.Errorf("%v should be a not-found error", err)
		}
	}
	if IsNotFoundError(ErrSubmissionBusy) {
		t.Error("ErrSubmissionBusy is not a not-found error")
	}
}
