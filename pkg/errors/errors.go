package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrPermission   ErrorCode = "PERMISSION"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Entry validation errors
	ErrDuplicateTarget ErrorCode = "DUPLICATE_TARGET"
	ErrPathTraversal   ErrorCode = "PATH_TRAVERSAL"
	ErrOutsideRoot     ErrorCode = "OUTSIDE_ROOT"
	ErrSourceResolve   ErrorCode = "SOURCE_RESOLVE"

	// Planning errors
	ErrOrderCycle     ErrorCode = "ORDER_CYCLE"
	ErrTargetConflict ErrorCode = "TARGET_CONFLICT"

	// Transition errors
	ErrCollision    ErrorCode = "COLLISION"
	ErrBackupExists ErrorCode = "BACKUP_EXISTS"
	ErrHookFailed   ErrorCode = "HOOK_FAILED"
	ErrOpExecute    ErrorCode = "OP_EXECUTE"

	// FileSystem errors
	ErrFileNotFound  ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess    ErrorCode = "FILE_ACCESS"
	ErrFileCreate    ErrorCode = "FILE_CREATE"
	ErrSymlinkCreate ErrorCode = "SYMLINK_CREATE"
	ErrDirCreate     ErrorCode = "DIR_CREATE"
)

// GenlinkError represents a structured error with code and details
type GenlinkError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *GenlinkError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *GenlinkError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *GenlinkError) Is(target error) bool {
	var targetErr *GenlinkError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new GenlinkError with the given code and message
func New(code ErrorCode, message string) *GenlinkError {
	return &GenlinkError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new GenlinkError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *GenlinkError {
	return &GenlinkError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a GenlinkError
func Wrap(err error, code ErrorCode, message string) *GenlinkError {
	if err == nil {
		return nil
	}
	return &GenlinkError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *GenlinkError {
	if err == nil {
		return nil
	}
	return &GenlinkError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *GenlinkError) WithDetail(key string, value interface{}) *GenlinkError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var glErr *GenlinkError
	if errors.As(err, &glErr) {
		return glErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a GenlinkError
func GetErrorCode(err error) ErrorCode {
	var glErr *GenlinkError
	if errors.As(err, &glErr) {
		return glErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a GenlinkError
func GetErrorDetails(err error) map[string]interface{} {
	var glErr *GenlinkError
	if errors.As(err, &glErr) {
		return glErr.Details
	}
	return nil
}
