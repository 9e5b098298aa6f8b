package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error code
type ErrorCode int

const (
	ErrNotFound ErrorCode = iota + 1000
	ErrAlreadyExists
	ErrInvalidArgument
	ErrSizeInvalid
	ErrTypeInvalid
	ErrLoginFailed
	ErrRefreshTokenExpired
	ErrRegistrationFailed
	ErrUpdateFailed
	ErrRoleOperationFailed
	ErrUnauthorized
	ErrInternal
)

// FieldError is a single structured sub-error reported by the store or a
// validation step, e.g. a password-policy violation or a unique-constraint hit.
type FieldError struct {
	Code        string `json:"code"`
	Field       string `json:"field,omitempty"`
	Description string `json:"description"`
}

// AppError represents an application error. Details carries store-level
// sub-errors; rendering them is the transport layer's job.
type AppError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
	Err     error        `json:"-"`
}

func (e *AppError) Error() string {
	if len(e.Details) > 0 {
		descs := make([]string, 0, len(e.Details))
		for _, d := range e.Details {
			descs = append(descs, d.Description)
		}
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(descs, "; "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// CodeOf extracts the ErrorCode from err, or ErrInternal if err is not an AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// Is reports whether err is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// Error constructors
func NotFound(resource string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

func AlreadyExists(resource string) *AppError {
	return &AppError{
		Code:    ErrAlreadyExists,
		Message: fmt.Sprintf("%s already exists", resource),
	}
}

func InvalidArgument(argument string) *AppError {
	return &AppError{
		Code:    ErrInvalidArgument,
		Message: fmt.Sprintf("%s is required", argument),
	}
}

func SizeInvalid(maxMB int) *AppError {
	return &AppError{
		Code:    ErrSizeInvalid,
		Message: fmt.Sprintf("file exceeds maximum size of %dMB", maxMB),
	}
}

func TypeInvalid(category string) *AppError {
	return &AppError{
		Code:    ErrTypeInvalid,
		Message: fmt.Sprintf("file is not a valid %s", category),
	}
}

func LoginFailed(reason string) *AppError {
	return &AppError{
		Code:    ErrLoginFailed,
		Message: reason,
	}
}

func RefreshTokenExpired() *AppError {
	return &AppError{
		Code:    ErrRefreshTokenExpired,
		Message: "refresh token has expired",
	}
}

func RegistrationFailed(details []FieldError) *AppError {
	return &AppError{
		Code:    ErrRegistrationFailed,
		Message: "registration failed",
		Details: details,
	}
}

func UpdateFailed(details []FieldError) *AppError {
	return &AppError{
		Code:    ErrUpdateFailed,
		Message: "update failed",
		Details: details,
	}
}

func RoleOperationFailed(details []FieldError) *AppError {
	return &AppError{
		Code:    ErrRoleOperationFailed,
		Message: "role operation failed",
		Details: details,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}
