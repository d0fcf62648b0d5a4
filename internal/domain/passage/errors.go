package passage

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
)

var (
	// ErrNotFound indicates the requested passage does not exist or its identifier is invalid.
	ErrNotFound = eris.New("passage not found")
	// ErrInvalidIdentifier indicates an identifier that is not a non-negative base-10 integer.
	ErrInvalidIdentifier = eris.New("invalid passage identifier")
	// ErrNoMatchingRecord indicates an update targeted an identifier absent from storage.
	ErrNoMatchingRecord = eris.New("no passage with that identifier")
	// ErrUnknownEnumValue indicates a stored exam type or category outside the closed set.
	ErrUnknownEnumValue = eris.New("unknown enum value")
	// ErrStorageUnavailable matches every failure of the backing store.
	ErrStorageUnavailable = eris.New("passage storage unavailable")
	// ErrStorageTimeout matches store failures caused by an expired deadline.
	ErrStorageTimeout = eris.New("passage storage timed out")
)

// StorageError wraps a failure reported by the Repository.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError wraps err as a storage failure for op. A nil err yields nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return e.Op + ": " + ErrStorageUnavailable.Error() + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is matches ErrStorageUnavailable always and ErrStorageTimeout when the cause is a deadline.
func (e *StorageError) Is(target error) bool {
	switch target {
	case ErrStorageUnavailable:
		return true
	case ErrStorageTimeout:
		return e.Timeout()
	}
	return false
}

// Timeout reports whether the failure was caused by an expired deadline.
func (e *StorageError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// IsStorageFailure reports whether err originates from the backing store.
func IsStorageFailure(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}
