package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrPermission   = errors.New("permission denied")
	ErrInvalidInput = errors.New("invalid input")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal server error")
	ErrUnauthorized = errors.New("unauthorized")
)

// FieldError is one entry of a validation error array.
type FieldError struct {
	Msg      string `json:"msg"`
	Param    string `json:"param,omitempty"`
	Value    any    `json:"value,omitempty"`
	Location string `json:"location,omitempty"`
}

type AppError struct {
	BaseError error
	Message   string
	Details   string
	Err       error
	Fields    []FieldError
	// Status overrides the status derived from BaseError when non-zero.
	Status int
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (Details: %s, Cause: %v)", e.BaseError.Error(), e.Message, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s (Details: %s)", e.BaseError.Error(), e.Message, e.Details)
}

func (e *AppError) Unwrap() error {
	return e.BaseError
}

func NewAppError(base error, msg, details string, err error) *AppError {
	return &AppError{BaseError: base, Message: msg, Details: details, Err: err}
}

func NewNotFound(resource, identifier string) *AppError {
	msg := fmt.Sprintf("%s not found", resource)
	details := fmt.Sprintf("%s with identifier '%s' was not found", resource, identifier)
	return NewAppError(ErrNotFound, msg, details, nil)
}

func NewInvalidInput(details string, err error) *AppError {
	return NewAppError(ErrInvalidInput, "Invalid input provided", details, err)
}

// NewValidation builds a validation error rendered as an errors array.
func NewValidation(fields []FieldError) *AppError {
	e := NewAppError(ErrValidation, "Validation failed", fmt.Sprintf("%d invalid field(s)", len(fields)), nil)
	e.Fields = fields
	return e
}

func NewConflict(resource, field, value string) *AppError {
	msg := fmt.Sprintf("%s conflict", resource)
	details := fmt.Sprintf("%s with %s '%s' already exists", resource, field, value)
	return NewAppError(ErrConflict, msg, details, nil)
}

func NewInternal(details string, err error) *AppError {
	return NewAppError(ErrInternal, "Server Error", details, err)
}

func NewUnauthorized(details string, err error) *AppError {
	return NewAppError(ErrUnauthorized, "Invalid credentials", details, err)
}

func NewPermissionDenied(details string) *AppError {
	return NewAppError(ErrPermission, "Permission denied", details, nil)
}

// WithStatus returns a copy of e that renders with the given HTTP status.
func (e *AppError) WithStatus(status int) *AppError {
	cp := *e
	cp.Status = status
	return &cp
}

// WithMessage returns a copy of e with a different client-facing message.
func (e *AppError) WithMessage(msg string) *AppError {
	cp := *e
	cp.Message = msg
	return &cp
}

// NotFoundAs rewrites a not-found error to render with status and msg.
// Any other error is returned unchanged.
func NotFoundAs(err error, status int, msg string) error {
	var appErr *AppError
	if !errors.As(err, &appErr) || !errors.Is(err, ErrNotFound) {
		return err
	}
	return appErr.WithStatus(status).WithMessage(msg)
}

func ToHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrPermission) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// ToJSON renders the client-facing body. Internal errors never expose details.
func (e *AppError) ToJSON() gin.H {
	if len(e.Fields) > 0 {
		return gin.H{"errors": e.Fields}
	}
	if errors.Is(e.BaseError, ErrInternal) {
		return gin.H{"msg": "Server Error"}
	}
	return gin.H{"msg": e.Message}
}
