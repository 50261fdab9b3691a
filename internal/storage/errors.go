package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateName is matched by errors.Is for any *DuplicateNameError.
	ErrDuplicateName = errors.New("configuration name already exists")
	// ErrInvalidConfiguration rejects blank names and non-positive durations.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// StorageError wraps an I/O failure with the store operation that hit it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("settings store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// DuplicateNameError reports a save that would collide with an existing name.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("configuration %q already exists", e.Name)
}

func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrDuplicateName
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return err
	}
	var dupErr *DuplicateNameError
	if errors.As(err, &dupErr) || errors.Is(err, ErrInvalidConfiguration) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
