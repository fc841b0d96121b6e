package filestore

import (
	"crypto/rand"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/cesnet/ncfiledb/pkg/netconf"
)

// Kind classifies a filestore operation error per spec.md §7.
type Kind int

const (
	BadElement Kind = iota
	InUse
	LockDenied
	AccessDenied
	OperationFailed
	NotApplicable
)

func (k Kind) String() string {
	switch k {
	case BadElement:
		return "bad-element"
	case InUse:
		return "in-use"
	case LockDenied:
		return "lock-denied"
	case AccessDenied:
		return "access-denied"
	case OperationFailed:
		return "operation-failed"
	case NotApplicable:
		return "not-applicable"
	default:
		return "unknown"
	}
}

// Error is the error type every filestore operation returns. It
// carries enough context to build an RFC 6241 <rpc-error> via
// ToRPCError without the caller needing to know this package's Kind
// values.
type Error struct {
	Kind    Kind
	Message string

	// RPCName/Element identify the offending operation/selector for
	// BadElement, InUse and AccessDenied errors.
	RPCName string
	Element string

	// HolderSessionID is the current lock holder for InUse/LockDenied.
	HolderSessionID string

	// CorrelationID is stamped on OperationFailed errors (an
	// error-app-tag-adjacent id, per SPEC_FULL.md's domain-stack
	// wiring) so an operator can correlate an <rpc-error> with the
	// structured log line that reported the underlying cause.
	CorrelationID string

	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Underlying }

func newBadElement(rpcName, element string) *Error {
	return &Error{
		Kind:    BadElement,
		RPCName: rpcName,
		Element: element,
		Message: fmt.Sprintf("unsupported datastore: %s", element),
	}
}

func newInUse(rpcName, target, holder string) *Error {
	return &Error{
		Kind:            InUse,
		RPCName:         rpcName,
		Element:         target,
		HolderSessionID: holder,
		Message:         fmt.Sprintf("datastore %s is locked by another session", target),
	}
}

func newLockDenied(target, holder, message string) *Error {
	return &Error{
		Kind:            LockDenied,
		Element:         target,
		HolderSessionID: holder,
		Message:         message,
	}
}

func newAccessDenied(rpcName, reason string) *Error {
	return &Error{Kind: AccessDenied, RPCName: rpcName, Message: reason}
}

func newOperationFailed(message string, cause error) *Error {
	return &Error{
		Kind:          OperationFailed,
		Message:       message,
		Underlying:    cause,
		CorrelationID: newCorrelationID(),
	}
}

func newNotApplicable(message string) *Error {
	return &Error{Kind: NotApplicable, Message: message}
}

func newCorrelationID() string {
	id, err := ulid.New(ulid.Now(), rand.Reader)
	if err != nil {
		return ""
	}
	return id.String()
}

// ToRPCError converts a filestore Error into the RFC 6241 <rpc-error>
// shape the netconf package defines.
func (e *Error) ToRPCError() *netconf.RPCError {
	switch e.Kind {
	case BadElement:
		return netconf.ErrBadElement(e.RPCName, e.Element)
	case InUse:
		return netconf.ErrInUse(e.RPCName, e.Element, sessionNumericID(e.HolderSessionID))
	case LockDenied:
		return netconf.ErrLockDenied(e.Element, sessionNumericID(e.HolderSessionID), e.Message)
	case AccessDenied:
		return netconf.ErrAccessDenied(e.RPCName, e.Message)
	case NotApplicable:
		return netconf.ErrOperationFailed(e.Message)
	default:
		rpcErr := netconf.ErrOperationFailed(e.Message)
		if e.CorrelationID != "" {
			rpcErr = rpcErr.WithAppTag(e.CorrelationID)
		}
		return rpcErr
	}
}
