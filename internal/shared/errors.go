package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrSessionExpired indicates the upstream rejected our credentials.
	ErrSessionExpired = errors.New("session expired")
	// ErrStaleResponse marks a fetch superseded by a newer one.
	ErrStaleResponse = errors.New("stale response discarded")
	// ErrNothingToExport indicates an export ran against an empty result set.
	ErrNothingToExport = errors.New("nothing to export")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// ValidationError reports a local precondition failure. It never reaches
// the network: callers surface it immediately and skip the upstream call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// NewValidationError builds a ValidationError for a named field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NetworkError wraps a transport-level failure talking to the upstream.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a structured rejection from the upstream LMS backend.
// RowReason carries the per-row reason from a batch ledger validation
// when the backend supplies one; it takes priority over Message.
type ServerError struct {
	Status    int
	Message   string
	RowReason string
}

func (e *ServerError) Error() string {
	if e.RowReason != "" {
		return e.RowReason
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("upstream returned status %d", e.Status)
}

// UserSafeMessage converts an operation failure into text fit for the
// console. Reason priority for server rejections: the structured row
// reason, then the server message, then a generic fallback.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}
	var sErr *ServerError
	if errors.As(err, &sErr) {
		switch {
		case sErr.RowReason != "":
			return sErr.RowReason
		case sErr.Message != "":
			return sErr.Message
		}
		return "the request was rejected, please try again"
	}
	var nErr *NetworkError
	if errors.As(err, &nErr) {
		return "could not reach the collection service, please retry"
	}
	switch {
	case errors.Is(err, ErrNothingToExport):
		return "no records match the current filters, nothing to export"
	case errors.Is(err, ErrSessionExpired):
		return "your session has expired, please sign in again"
	case errors.Is(err, ErrNotFound):
		return "the requested record was not found"
	}
	return "something went wrong, please try again"
}
