package index

import (
	"errors"
	"fmt"
)

// TransientError marks an index failure that is worth retrying: network
// errors, timeouts, and temporary unavailability on the engine side.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient index failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError marks a rejection retrying cannot fix, such as a
// malformed document. Status carries the engine's HTTP status when the
// rejection came over the wire.
type PermanentError struct {
	Err    error
	Status int
}

func (e *PermanentError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("index rejected request (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("index rejected request: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is classified as retryable.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsPermanent reports whether err is classified as a permanent rejection.
func IsPermanent(err error) bool {
	var permanent *PermanentError
	return errors.As(err, &permanent)
}
