package errors

import (
	"errors"
	"fmt"
)

// Domain errors - Sentinel errors for use with errors.Is()
var (
	ErrValidation            = errors.New("validation error")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrLedgerWriteFailed     = errors.New("ledger write failed")
	ErrInternalServer        = errors.New("internal server error")
)

// Custom error type with context
type AppError struct {
	Code    string
	Message string
	Err     error
	// Rejected marks a ledger write the chain refused (revert, funds, signer)
	// as opposed to one that never reached it.
	Rejected bool
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructors
func Validation(msg string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Err: ErrValidation}
}

func Unauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: msg, Err: ErrUnauthorized}
}

func Forbidden(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: msg, Err: ErrForbidden}
}

func NotFound(msg string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: msg, Err: ErrNotFound}
}

func DependencyUnavailable(msg string, err error) *AppError {
	return &AppError{Code: "DEPENDENCY_UNAVAILABLE", Message: msg, Err: errors.Join(ErrDependencyUnavailable, err)}
}

// LedgerRejected is a write the ledger refused; the reason is client-visible.
func LedgerRejected(reason string, err error) *AppError {
	return &AppError{Code: "LEDGER_WRITE_FAILED", Message: "ledger write failed: " + reason, Err: errors.Join(ErrLedgerWriteFailed, err), Rejected: true}
}

// LedgerUnreachable is a write that failed in transport.
func LedgerUnreachable(err error) *AppError {
	return &AppError{Code: "LEDGER_WRITE_FAILED", Message: "ledger write failed", Err: errors.Join(ErrLedgerWriteFailed, err)}
}

func InternalServer(msg string, err error) *AppError {
	return &AppError{Code: "INTERNAL_SERVER_ERROR", Message: msg, Err: errors.Join(ErrInternalServer, err)}
}
