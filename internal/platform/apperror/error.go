package apperror

import (
	"errors"
	"fmt"
)

// AppError is the error type returned across the HTTP boundary.
type AppError struct {
	Code         ErrorCode    // General category (e.g., NOT_FOUND)
	BusinessCode BusinessCode // Specific reason (e.g., SNAPSHOT_NOT_FOUND)
	Message      string       // Client-facing message
	HTTPStatus   int
	Details      any
	Inner        error
}

func (e *AppError) Error() string { return e.Message }
func (e *AppError) Unwrap() error { return e.Inner }

// WithDetails attaches extra context and returns the same error.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// New creates an AppError whose HTTP status follows from code.
func New(code ErrorCode, bizCode BusinessCode, message string) *AppError {
	return &AppError{Code: code, BusinessCode: bizCode, Message: message, HTTPStatus: code.HTTPStatus()}
}

// Wrap is New with an underlying cause.
func Wrap(inner error, code ErrorCode, bizCode BusinessCode, message string) *AppError {
	e := New(code, bizCode, message)
	e.Inner = inner
	return e
}

// Validation is shorthand for a VALIDATION_FAILED error.
func Validation(bizCode BusinessCode, message string) *AppError {
	return New(CodeValidationFailed, bizCode, message)
}

// NotFound is shorthand for a NOT_FOUND error.
func NotFound(bizCode BusinessCode, message string) *AppError {
	return New(CodeNotFound, bizCode, message)
}

// Internal wraps an unexpected failure without exposing its text.
func Internal(inner error) *AppError {
	return Wrap(inner, CodeInternalError, BusinessCodeGeneral, "internal error")
}

// From returns the AppError in err's chain, or an internal error wrapping err.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// Is matches on Code and BusinessCode so that sentinel AppErrors work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.BusinessCode == t.BusinessCode
}

// Format prints every field with %+v and only the message otherwise.
func (e *AppError) Format(f fmt.State, verb rune) {
	switch verb {
	case 'v':
		if f.Flag('+') {
			_, _ = fmt.Fprintf(f, "Code: %s, BusinessCode: %s, Message: %s, HTTPStatus: %d",
				e.Code, e.BusinessCode, e.Message, e.HTTPStatus)
			if e.Inner != nil {
				_, _ = fmt.Fprintf(f, "\nCaused by: %+v", e.Inner)
			}
			if e.Details != nil {
				_, _ = fmt.Fprintf(f, "\nDetails: %+v", e.Details)
			}
		} else {
			_, _ = fmt.Fprint(f, e.Message)
		}
	case 's':
		_, _ = fmt.Fprint(f, e.Message)
	}
}
