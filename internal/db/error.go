package db

import "errors"

// DuplicateKeyError is an error type for duplicate key errors
type DuplicateKeyError struct {
	Key     string
	Message string
}

func (e *DuplicateKeyError) Error() string {
	return e.Message
}

func IsDuplicateKeyError(err error) bool {
	var target *DuplicateKeyError
	return errors.As(err, &target)
}

// Not found Error
type NotFoundError struct {
	Key     string
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// ConflictError is returned when a compare-and-swap update finds the stored
// document changed since it was read.
type ConflictError struct {
	Key     string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func IsConflictError(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}
