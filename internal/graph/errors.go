package graph

import (
	"errors"
	"fmt"

	"github.com/roach88/conceptgraph/internal/uri"
)

// ErrorCode categorizes graph errors.
type ErrorCode string

const (
	// ErrCodeValidation indicates a malformed request: bad URI, unknown node
	// type, out-of-range weight. Never retried.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeMalformedURI indicates a list segment that does not decode.
	// It is a kind of validation error.
	ErrCodeMalformedURI ErrorCode = "MALFORMED_URI"

	// ErrCodeAmbiguousResult indicates an exact lookup matched more than one
	// node. The store holds duplicate keys and the graph cannot repair it.
	ErrCodeAmbiguousResult ErrorCode = "AMBIGUOUS_RESULT"

	// ErrCodeIntegrity indicates a deletion was refused.
	ErrCodeIntegrity ErrorCode = "INTEGRITY"

	// ErrCodeBackendUnavailable wraps a store failure. Not retried here.
	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"

	// ErrCodeNotFound indicates a reference that resolves to no node.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Error is the error type returned by the graph and its stores.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// URI is the key involved, when there is one.
	URI string

	// Op names the store operation for backend errors.
	Op string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s: %s", e.Code, e.Op, e.Message)
	}
	if e.URI != "" {
		msg += fmt.Sprintf(" (uri=%s)", e.URI)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func hasCode(err error, codes ...ErrorCode) bool {
	var ge *Error
	if !errors.As(err, &ge) {
		return false
	}
	for _, c := range codes {
		if ge.Code == c {
			return true
		}
	}
	return false
}

// IsValidation reports whether err is a validation error, including
// malformed URI lists.
func IsValidation(err error) bool {
	if hasCode(err, ErrCodeValidation, ErrCodeMalformedURI) {
		return true
	}
	var me *uri.MalformedError
	return errors.As(err, &me)
}

// IsMalformedURI reports whether err came from decoding a URI list.
func IsMalformedURI(err error) bool {
	if hasCode(err, ErrCodeMalformedURI) {
		return true
	}
	var me *uri.MalformedError
	return errors.As(err, &me)
}

// IsAmbiguous reports whether err is an ambiguous lookup.
func IsAmbiguous(err error) bool { return hasCode(err, ErrCodeAmbiguousResult) }

// IsIntegrity reports whether err is a refused deletion.
func IsIntegrity(err error) bool { return hasCode(err, ErrCodeIntegrity) }

// IsBackendUnavailable reports whether err is a store failure.
func IsBackendUnavailable(err error) bool { return hasCode(err, ErrCodeBackendUnavailable) }

// IsNotFound reports whether err is an unresolved reference.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// NewValidationError creates a VALIDATION error.
func NewValidationError(u, message string) *Error {
	return &Error{Code: ErrCodeValidation, Message: message, URI: u}
}

func newMalformedURIError(u string, err error) *Error {
	return &Error{Code: ErrCodeMalformedURI, Message: "cannot decode uri list", URI: u, Err: err}
}

// NewAmbiguousError creates an AMBIGUOUS_RESULT error for a key matching
// count nodes.
func NewAmbiguousError(key string, count int) *Error {
	return &Error{
		Code:    ErrCodeAmbiguousResult,
		Message: fmt.Sprintf("exact lookup matched %d nodes", count),
		URI:     key,
	}
}

// NewIntegrityError creates an INTEGRITY error.
func NewIntegrityError(u, message string) *Error {
	return &Error{Code: ErrCodeIntegrity, Message: message, URI: u}
}

// NewBackendError wraps a store failure in op.
func NewBackendError(op string, err error) *Error {
	return &Error{Code: ErrCodeBackendUnavailable, Message: "backend request failed", Op: op, Err: err}
}

// NewNotFoundError creates a NOT_FOUND error for the given key.
func NewNotFoundError(key string) *Error {
	return &Error{Code: ErrCodeNotFound, Message: "could not find node", URI: key}
}
