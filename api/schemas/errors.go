package schemas

import (
	"errors"
	"fmt"
)

// Error codes shared by every inbound operation. Callers branch on the code,
// not the message text.
const (
	CodeValidation = "ValidationError"
	CodeNotFound   = "NotFound"
	CodeInternal   = "InternalError"
)

// CodedError is the standard error type returned from inbound operations.
type CodedError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *CodedError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewValidationError reports bad caller input.
func NewValidationError(format string, args ...any) *CodedError {
	return &CodedError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError reports an unknown provider, submission, or configuration.
func NewNotFoundError(format string, args ...any) *CodedError {
	return &CodedError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewInternalError reports state-machine misuse or a broken invariant.
func NewInternalError(format string, args ...any) *CodedError {
	return &CodedError{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

func hasCode(err error, code string) bool {
	var coded *CodedError
	return errors.As(err, &coded) && coded.Code == code
}

// IsValidationError reports whether err carries the ValidationError code.
func IsValidationError(err error) bool { return hasCode(err, CodeValidation) }

// IsNotFoundError reports whether err carries the NotFound code.
func IsNotFoundError(err error) bool { return hasCode(err, CodeNotFound) }

// IsInternalError reports whether err carries the InternalError code.
func IsInternalError(err error) bool { return hasCode(err, CodeInternal) }
