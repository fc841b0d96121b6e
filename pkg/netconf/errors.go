// Package netconf provides the RFC 6241 <rpc-error> vocabulary the
// datastore core reports through: filestore.Error.ToRPCError converts
// an internal failure into one of these, and pkg/adminsock's formatError
// renders the result onto the admin socket's wire protocol. It carries
// no transport of its own: framing, capability exchange and session
// establishment are out of scope (see SPEC_FULL.md §1).
package netconf

import (
	"encoding/xml"
	"fmt"
)

// ErrorType represents NETCONF error-type values per RFC 6241
type ErrorType string

const (
	ErrorTypeProtocol    ErrorType = "protocol"
	ErrorTypeApplication ErrorType = "application"
)

// ErrorTag represents NETCONF error-tag values per RFC 6241
type ErrorTag string

const (
	ErrorTagInvalidValue    ErrorTag = "invalid-value"
	ErrorTagAccessDenied    ErrorTag = "access-denied"
	ErrorTagLockDenied      ErrorTag = "lock-denied"
	ErrorTagInUse           ErrorTag = "in-use"
	ErrorTagOperationFailed ErrorTag = "operation-failed"
)

// ErrorSeverity represents NETCONF error-severity values per RFC 6241
type ErrorSeverity string

const (
	ErrorSeverityError   ErrorSeverity = "error"
	ErrorSeverityWarning ErrorSeverity = "warning"
)

// RPCError represents a NETCONF <rpc-error> structure per RFC 6241
type RPCError struct {
	XMLName       xml.Name      `xml:"urn:ietf:params:xml:ns:netconf:base:1.0 rpc-error"`
	ErrorType     ErrorType     `xml:"error-type"`
	ErrorTag      ErrorTag      `xml:"error-tag"`
	ErrorSeverity ErrorSeverity `xml:"error-severity"`
	ErrorAppTag   string        `xml:"error-app-tag,omitempty"`
	ErrorPath     string        `xml:"error-path,omitempty"`
	ErrorMessage  string        `xml:"error-message,omitempty"`
	ErrorInfo     *ErrorInfo    `xml:"error-info,omitempty"`
}

// ErrorInfo contains structured error details per RFC 6241
type ErrorInfo struct {
	BadElement       string `xml:"bad-element,omitempty"`
	LockOwnerSession string `xml:"lock-owner-session,omitempty"`
}

// NewRPCError creates a new RPCError with required fields
func NewRPCError(errType ErrorType, errTag ErrorTag, message string) *RPCError {
	return &RPCError{
		ErrorType:     errType,
		ErrorTag:      errTag,
		ErrorSeverity: ErrorSeverityError,
		ErrorMessage:  message,
	}
}

func (e *RPCError) WithPath(path string) *RPCError {
	e.ErrorPath = path
	return e
}

func (e *RPCError) WithBadElement(element string) *RPCError {
	if e.ErrorInfo == nil {
		e.ErrorInfo = &ErrorInfo{}
	}
	e.ErrorInfo.BadElement = element
	return e
}

func (e *RPCError) WithLockOwner(sessionID string) *RPCError {
	if e.ErrorInfo == nil {
		e.ErrorInfo = &ErrorInfo{}
	}
	e.ErrorInfo.LockOwnerSession = sessionID
	return e
}

func (e *RPCError) WithAppTag(tag string) *RPCError {
	e.ErrorAppTag = tag
	return e
}

// Error implements the error interface for RPCError
func (e *RPCError) Error() string {
	if e == nil {
		return "unknown NETCONF RPC error"
	}
	return fmt.Sprintf("NETCONF error [%s/%s]: %s", e.ErrorType, e.ErrorTag, e.ErrorMessage)
}

// Constructors matching the datastore's error-kind table (SPEC_FULL.md §7).

// ErrBadElement returns an error for an unknown/invalid target or source selector.
func ErrBadElement(rpcName, element string) *RPCError {
	return NewRPCError(ErrorTypeProtocol, ErrorTagInvalidValue, fmt.Sprintf("unsupported datastore: %s", element)).
		WithPath(fmt.Sprintf("/rpc/%s/target", rpcName)).
		WithBadElement(element)
}

// ErrInUse returns an error for a target (or commit source) locked by another session.
func ErrInUse(rpcName, target string, ownerNumericID uint32) *RPCError {
	err := NewRPCError(ErrorTypeProtocol, ErrorTagInUse, fmt.Sprintf("datastore %s is locked by another session", target)).
		WithPath(fmt.Sprintf("/rpc/%s/target", rpcName))
	if ownerNumericID != 0 {
		err = err.WithLockOwner(fmt.Sprintf("%d", ownerNumericID))
	}
	return err
}

// ErrLockDenied returns an error for a failed <lock> acquisition, naming the
// current holder when known.
func ErrLockDenied(target string, ownerNumericID uint32, message string) *RPCError {
	if message == "" {
		message = fmt.Sprintf("datastore %s is locked by another session", target)
	}
	err := NewRPCError(ErrorTypeProtocol, ErrorTagLockDenied, message).WithPath("/rpc/lock/target")
	if ownerNumericID != 0 {
		err = err.WithLockOwner(fmt.Sprintf("%d", ownerNumericID))
	}
	return err
}

// ErrAccessDenied returns an error for a NACM write-permission denial.
func ErrAccessDenied(rpcName, reason string) *RPCError {
	return NewRPCError(ErrorTypeProtocol, ErrorTagAccessDenied, fmt.Sprintf("access denied: %s", reason)).
		WithPath(fmt.Sprintf("/rpc/%s", rpcName)).
		WithAppTag("nacm-deny")
}

// ErrOperationFailed returns a generic operation-failed error (sync/parse/I-O failures).
func ErrOperationFailed(message string) *RPCError {
	return NewRPCError(ErrorTypeApplication, ErrorTagOperationFailed, message).WithAppTag("datastore-error")
}
