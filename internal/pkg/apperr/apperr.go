package apperr

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSessionNotActive signals a lifecycle operation against a session
	// that is not in the required state.
	ErrSessionNotActive = errors.New("session not active")
	// ErrSessionTerminal signals a mutation against a completed or
	// abandoned session.
	ErrSessionTerminal = errors.New("session already terminal")
)

// StorageError wraps a failed local persistence operation. Always fatal to
// the calling operation; never retried at this layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// ValidationError marks malformed or inconsistent input. Not retried; the
// caller must correct the request.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransientNetworkError marks a network failure whose server-side effect is
// unknown. Classified as retryable by the outbox; never surfaced to the UI
// as a failure on its own.
type TransientNetworkError struct {
	Err error
	// RetryAfter is the server-mandated minimum delay before retrying,
	// zero when the server gave none.
	RetryAfter time.Duration
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("transient network error: %v", e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientNetworkError{Err: err}
}

func IsTransient(err error) bool {
	var te *TransientNetworkError
	return errors.As(err, &te)
}

// PermanentServerError marks a server rejection that retrying cannot fix.
// The outbox drops the entry and records it for observability.
type PermanentServerError struct {
	Status int
	Body   string
}

func (e *PermanentServerError) Error() string {
	return fmt.Sprintf("permanent server error: status %d: %s", e.Status, e.Body)
}

func (e *PermanentServerError) HTTPStatusCode() int { return e.Status }

func Permanent(status int, body string) error {
	return &PermanentServerError{Status: status, Body: body}
}

func IsPermanent(err error) bool {
	var pe *PermanentServerError
	return errors.As(err, &pe)
}
