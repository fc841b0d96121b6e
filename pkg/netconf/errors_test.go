package netconf

import (
	"encoding/xml"
	"strings"
	"testing"
)

func TestErrInUseCarriesLockOwner(t *testing.T) {
	err := ErrInUse("copy-config", "startup", 42)
	if err.ErrorTag != ErrorTagInUse {
		t.Fatalf("expected error-tag in-use, got %s", err.ErrorTag)
	}
	if err.ErrorInfo == nil || err.ErrorInfo.LockOwnerSession != "42" {
		t.Fatalf("expected lock-owner-session 42, got %+v", err.ErrorInfo)
	}
}

func TestErrInUseOmitsLockOwnerWhenUnknown(t *testing.T) {
	err := ErrInUse("copy-config", "startup", 0)
	if err.ErrorInfo != nil && err.ErrorInfo.LockOwnerSession != "" {
		t.Fatalf("expected no lock-owner-session when the id is unknown, got %+v", err.ErrorInfo)
	}
}

func TestErrLockDeniedDefaultMessage(t *testing.T) {
	err := ErrLockDenied("running", 7, "")
	if !strings.Contains(err.ErrorMessage, "running") {
		t.Fatalf("expected default message to mention the target, got %q", err.ErrorMessage)
	}
	if err.ErrorInfo.LockOwnerSession != "7" {
		t.Fatalf("expected lock-owner-session 7, got %s", err.ErrorInfo.LockOwnerSession)
	}
}

func TestErrAccessDeniedSetsAppTag(t *testing.T) {
	err := ErrAccessDenied("edit-config", "write denied by policy")
	if err.ErrorTag != ErrorTagAccessDenied {
		t.Fatalf("expected error-tag access-denied, got %s", err.ErrorTag)
	}
	if err.ErrorAppTag != "nacm-deny" {
		t.Fatalf("expected app-tag nacm-deny, got %s", err.ErrorAppTag)
	}
}

func TestErrBadElementSetsBadElement(t *testing.T) {
	err := ErrBadElement("get-config", "bogus")
	if err.ErrorInfo == nil || err.ErrorInfo.BadElement != "bogus" {
		t.Fatalf("expected bad-element bogus, got %+v", err.ErrorInfo)
	}
}

func TestErrOperationFailedAppTagCanBeOverridden(t *testing.T) {
	err := ErrOperationFailed("sync failed").WithAppTag("01ARZ3NDEKTSV4RRFFQ69G5FAV")
	if err.ErrorAppTag != "01ARZ3NDEKTSV4RRFFQ69G5FAV" {
		t.Fatalf("expected overridden app-tag to stick, got %s", err.ErrorAppTag)
	}
}

func TestRPCErrorMarshalsExpectedXMLShape(t *testing.T) {
	err := ErrInUse("lock", "candidate", 5)
	out, marshalErr := xml.Marshal(err)
	if marshalErr != nil {
		t.Fatalf("xml.Marshal failed: %v", marshalErr)
	}
	s := string(out)
	if !strings.Contains(s, "<error-tag>in-use</error-tag>") {
		t.Fatalf("expected error-tag element, got %s", s)
	}
	if !strings.Contains(s, "<lock-owner-session>5</lock-owner-session>") {
		t.Fatalf("expected lock-owner-session in error-info, got %s", s)
	}
}

func TestErrorStringIncludesTypeAndTag(t *testing.T) {
	err := ErrOperationFailed("sync failed")
	s := err.Error()
	if !strings.Contains(s, "application") || !strings.Contains(s, "operation-failed") {
		t.Fatalf("expected error string to mention type and tag, got %q", s)
	}
}

func TestNilRPCErrorStringDoesNotPanic(t *testing.T) {
	var err *RPCError
	if err.Error() != "unknown NETCONF RPC error" {
		t.Fatalf("unexpected nil error string: %q", err.Error())
	}
}
