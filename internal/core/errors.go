package core

import (
	"errors"
	"fmt"
)

// Error taxonomy. Callers classify failures with errors.Is.
var (
	// ErrConfiguration: catalog or settings unreadable or malformed. Fatal at startup.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation: caller-supplied data failed shape or membership checks.
	ErrValidation = errors.New("validation error")
	// ErrStorageWrite: a durable write failed. Never retried automatically.
	ErrStorageWrite = errors.New("storage write error")
	// ErrDataIntegrity: stored data cannot be aggregated as-is.
	ErrDataIntegrity = errors.New("data integrity error")
)

// ValidationError describes which input field was rejected and why.
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

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StorageWriteError wraps a failed durable write for the given operation.
func StorageWriteError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageWrite, op, err)
}

// DataIntegrityError reports a record that cannot be aggregated.
func DataIntegrityError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDataIntegrity, fmt.Sprintf(format, args...))
}
