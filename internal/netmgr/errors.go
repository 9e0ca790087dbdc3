package netmgr

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeInit indicates the driver or provisioning service failed to
	// initialize or start.
	ErrTypeInit ErrorType = iota
	// ErrTypeConnect indicates the connect retry ceiling was reached
	ErrTypeConnect
	// ErrTypeAuth indicates the provisioning retry ceiling was reached
	ErrTypeAuth
	// ErrTypeTimeSync indicates every time sync attempt failed
	ErrTypeTimeSync
	// ErrTypeCanceled indicates the caller's context ended the wait
	ErrTypeCanceled
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeInit:
		return "Init Error"
	case ErrTypeConnect:
		return "Connection Error"
	case ErrTypeAuth:
		return "Provisioning Error"
	case ErrTypeTimeSync:
		return "Time Sync Error"
	case ErrTypeCanceled:
		return "Canceled"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

var (
	// ErrConnectFailed is wrapped when reconnects are exhausted
	ErrConnectFailed = errors.New("connection failed after maximum retries")
	// ErrAuthFailed is wrapped when provisioning attempts are exhausted
	ErrAuthFailed = errors.New("provisioning failed after maximum retries")
	// ErrSyncFailed is wrapped when no time sync attempt succeeded
	ErrSyncFailed = errors.New("failed to update system time")
)

// Error describes a failed manager operation. None of these errors is
// fatal to the command loop.
type Error struct {
	Type      ErrorType // Category of error
	Op        string    // Operation that failed (e.g. "wifi init")
	Err       error     // Underlying error
	Retryable bool      // Whether a later command may succeed
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Op)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(t ErrorType, op string, err error) *Error {
	return &Error{
		Type:      t,
		Op:        op,
		Err:       err,
		Retryable: t != ErrTypeCanceled,
	}
}

// outcomeError converts a failed outcome into an error for StartWifi callers.
func outcomeError(o Outcome) error {
	switch o {
	case OutcomeAuthFailed:
		return newError(ErrTypeAuth, "start wifi", ErrAuthFailed)
	default:
		return newError(ErrTypeConnect, "start wifi", ErrConnectFailed)
	}
}

// IsRetryable reports whether err is a manager error a later command may fix
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
