package types

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	InvalidAmount           ErrorCode = "INVALID_AMOUNT"
	RestakeTimeBufferNotMet ErrorCode = "RESTAKE_TIME_BUFFER_NOT_MET"
	Overflow                ErrorCode = "OVERFLOW"
	AccountNotFound         ErrorCode = "ACCOUNT_NOT_FOUND"
	Unauthorized            ErrorCode = "UNAUTHORIZED"
	BadRequest              ErrorCode = "BAD_REQUEST"
	InternalServiceError    ErrorCode = "INTERNAL_SERVICE_ERROR"
)

func (c ErrorCode) String() string {
	return string(c)
}

// StatusCode maps an error code onto the http status returned by the api.
func (c ErrorCode) StatusCode() int {
	switch c {
	case InvalidAmount, RestakeTimeBufferNotMet, Overflow, BadRequest:
		return http.StatusBadRequest
	case AccountNotFound:
		return http.StatusNotFound
	case Unauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is returned by every ledger operation that is rejected.
type Error struct {
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code, so callers can write
// errors.Is(err, types.ErrInvalidAmount).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func NewError(code ErrorCode, err error) *Error {
	return &Error{
		Code: code,
		Err:  err,
	}
}

func NewErrorWithMsg(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code: code,
		Err:  fmt.Errorf(format, args...),
	}
}

func NewInternalServiceError(err error) *Error {
	return NewError(InternalServiceError, err)
}

// Sentinels for errors.Is checks. Messages of the first two are part of the
// public interface and must not change.
var (
	ErrInvalidAmount           = NewErrorWithMsg(InvalidAmount, "Invalid amount")
	ErrRestakeTimeBufferNotMet = NewErrorWithMsg(RestakeTimeBufferNotMet, "Restake time buffer not met")
	ErrOverflow                = NewErrorWithMsg(Overflow, "Stake amount overflow")
)

// CodeOf returns the code of err, InternalServiceError when err is not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return InternalServiceError
}
