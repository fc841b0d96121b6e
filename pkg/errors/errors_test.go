package errors

import (
	"errors"
	"testing"
)

func TestErrorMessageWithoutUnderlying(t *testing.T) {
	err := New(ErrCodeConfigInvalid, "bad path", "cause", "action")
	want := "[CONFIG_INVALID] bad path"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func TestErrorMessageWithUnderlying(t *testing.T) {
	cause := errors.New("permission denied")
	err := Wrap(cause, ErrCodeConfigInvalid, "bad path", "cause", "action")
	want := "[CONFIG_INVALID] bad path: permission denied"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func TestUnwrapExposesUnderlying(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, ErrCodeSystemError, "write failed", "cause", "action")
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find the wrapped cause")
	}
}

func TestAsMatchesConstructors(t *testing.T) {
	err := ConfigNotFound("/etc/ncfiledb/missing.yaml")
	var target *Error
	if !errors.As(err, &target) {
		t.Fatalf("expected errors.As to match *Error")
	}
	if target.Code != ErrCodeConfigNotFound {
		t.Fatalf("expected code %s, got %s", ErrCodeConfigNotFound, target.Code)
	}
}

func TestConfigInvalidWrapsUnderlying(t *testing.T) {
	cause := errors.New("permission denied")
	err := ConfigInvalid("/var/lib/ncfiledb/datastores.xml", cause)
	if err.Underlying != cause {
		t.Fatalf("expected ConfigInvalid to wrap the given cause")
	}
	if err.Code != ErrCodeConfigInvalid {
		t.Fatalf("expected code %s, got %s", ErrCodeConfigInvalid, err.Code)
	}
}
