package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation references an unknown book id
	ErrNotFound = errors.New("book not found")
	// ErrDuplicateID is returned when creating a book whose id already exists
	ErrDuplicateID = errors.New("book id already exists")
	// ErrInvalidBook is returned for books without an id or title
	ErrInvalidBook = errors.New("book id and title are required")
)

// PersistenceError wraps a failure of the underlying store
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence wraps err in a PersistenceError unless it is nil or already one
// of the domain errors above.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateID) || errors.Is(err, ErrInvalidBook) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistence reports whether err is a storage failure rather than a domain error
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
