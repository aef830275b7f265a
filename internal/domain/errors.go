package domain

import (
	"errors"
	"fmt"
)

// ===== Error model =====
type Code string

const (
	CodeValidation Code = "VALIDATION"
	CodeConstraint Code = "CONSTRAINT"
	CodeStorage    Code = "STORAGE"
)

// Error is returned for every failure the core reports. Absence of a record is
// not an Error; lookups report it through a found flag.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any Error carrying the same code, so callers can write
// errors.Is(err, domain.ErrConstraint).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == "" && t.Err == nil
}

var (
	ErrValidation = &Error{Code: CodeValidation}
	ErrConstraint = &Error{Code: CodeConstraint}
	ErrStorage    = &Error{Code: CodeStorage}
)

func Invalid(msg string) *Error { return &Error{Code: CodeValidation, Message: msg} }

func Conflict(msg string, err error) *Error {
	return &Error{Code: CodeConstraint, Message: msg, Err: err}
}

func StorageFault(op string, err error) *Error {
	return &Error{Code: CodeStorage, Message: op, Err: err}
}

// CodeOf returns the code of the first Error in err's chain, or "" if there is none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
