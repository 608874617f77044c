package workflow

import (
	"errors"
	"fmt"
)

// FatalError marks a run failure that retrying cannot fix, such as a
// malformed transcript or an empty summary. The engine fails the run
// immediately instead of rescheduling it.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %v", e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal wraps err as unrecoverable
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// Fatalf formats an unrecoverable error
func Fatalf(format string, args ...interface{}) error {
	return &FatalError{Err: fmt.Errorf(format, args...)}
}

// IsFatal reports whether err is unrecoverable. Anything not marked
// fatal is treated as transient and retried with backoff.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
