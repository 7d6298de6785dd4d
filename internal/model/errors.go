package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInterval rejects intervals where start is not before end.
	ErrInvalidInterval = errors.New("interval start must be before end")

	// ErrNotFound is returned for lookups of unknown identifiers.
	ErrNotFound = errors.New("not found")

	// ErrRemoteUnavailable marks remote inference as unreachable: missing
	// credentials, missing consent, or transport failure after retries.
	ErrRemoteUnavailable = errors.New("remote inference unavailable")
)

// StorageError wraps a persistence failure. It is fatal for the single
// request that hit it and guarantees no partial write was applied.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err is (or wraps) a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
