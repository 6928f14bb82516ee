// Package errors provides the error taxonomy shared by the engines, the
// HTTP layer, and the client.
package errors

import (
	"fmt"
	"net/http"
)

// HeraError is the base interface for all platform errors.
type HeraError interface {
	error
	HTTPStatus() int
	Code() string
}

// BaseError is the base implementation of HeraError.
type BaseError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	ErrorCode  string `json:"code"`
}

func (e *BaseError) Error() string {
	return e.Message
}

func (e *BaseError) HTTPStatus() int {
	return e.StatusCode
}

func (e *BaseError) Code() string {
	return e.ErrorCode
}

// NotFoundError represents a missing resource.
type NotFoundError struct {
	BaseError
	Resource string
}

func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{
		BaseError: BaseError{
			Message:    fmt.Sprintf("%s not found", resource),
			StatusCode: http.StatusNotFound,
			ErrorCode:  "NOT_FOUND",
		},
		Resource: resource,
	}
}

// FieldError is one per-field validation failure, surfaced inline by callers.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries one or more field-level failures. Submits abort
// on the first non-empty set; nothing here is fatal.
type ValidationError struct {
	BaseError
	Fields []FieldError `json:"fields,omitempty"`
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "VALIDATION_ERROR",
		},
		Fields: []FieldError{{Field: field, Message: message}},
	}
}

// NewFieldErrors wraps a set of field failures into a single validation error.
func NewFieldErrors(fields []FieldError) *ValidationError {
	msg := "validation failed"
	if len(fields) > 0 {
		msg = fields[0].Message
	}
	return &ValidationError{
		BaseError: BaseError{
			Message:    msg,
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "VALIDATION_ERROR",
		},
		Fields: fields,
	}
}

// ConflictError represents a duplicate resource or a stale-version update.
type ConflictError struct {
	BaseError
	Resource        string `json:"resource,omitempty"`
	ExpectedVersion int    `json:"expected_version,omitempty"`
	ActualVersion   int    `json:"actual_version,omitempty"`
}

func NewConflictError(resource string) *ConflictError {
	return &ConflictError{
		BaseError: BaseError{
			Message:    fmt.Sprintf("%s already exists", resource),
			StatusCode: http.StatusConflict,
			ErrorCode:  "CONFLICT",
		},
		Resource: resource,
	}
}

// NewReferencedError signals a delete blocked by rows that still point at
// the resource.
func NewReferencedError(resource, referencedBy string) *ConflictError {
	return &ConflictError{
		BaseError: BaseError{
			Message:    fmt.Sprintf("%s is still referenced by %s", resource, referencedBy),
			StatusCode: http.StatusConflict,
			ErrorCode:  "CONFLICT",
		},
		Resource: resource,
	}
}

// NewVersionConflictError signals a lost-update: the caller must re-read
// the entity and merge before retrying.
func NewVersionConflictError(resource string, expected, actual int) *ConflictError {
	return &ConflictError{
		BaseError: BaseError{
			Message:    fmt.Sprintf("%s was modified: expected version %d, found %d", resource, expected, actual),
			StatusCode: http.StatusConflict,
			ErrorCode:  "VERSION_CONFLICT",
		},
		Resource:        resource,
		ExpectedVersion: expected,
		ActualVersion:   actual,
	}
}

// PermissionDeniedError represents a role lacking an action on an entity type.
type PermissionDeniedError struct {
	BaseError
	Action   string
	Resource string
}

func NewPermissionDeniedError(action, resource string) *PermissionDeniedError {
	return &PermissionDeniedError{
		BaseError: BaseError{
			Message:    "permission denied",
			StatusCode: http.StatusForbidden,
			ErrorCode:  "PERMISSION_DENIED",
		},
		Action:   action,
		Resource: resource,
	}
}

// UnauthorizedError represents a missing or invalid credential.
type UnauthorizedError struct {
	BaseError
}

func NewUnauthorizedError(message string) *UnauthorizedError {
	if message == "" {
		message = "authentication required"
	}
	return &UnauthorizedError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusUnauthorized,
			ErrorCode:  "UNAUTHORIZED",
		},
	}
}

// BadRequestError represents a malformed request.
type BadRequestError struct {
	BaseError
}

func NewBadRequestError(message string) *BadRequestError {
	return &BadRequestError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "BAD_REQUEST",
		},
	}
}

// InternalError wraps an unexpected failure.
type InternalError struct {
	BaseError
	OriginalError error
}

func NewInternalError(original error) *InternalError {
	return &InternalError{
		BaseError: BaseError{
			Message:    "internal server error",
			StatusCode: http.StatusInternalServerError,
			ErrorCode:  "INTERNAL_ERROR",
		},
		OriginalError: original,
	}
}

// ToHTTPError converts any error to an HTTP status and response body.
func ToHTTPError(err error) (int, map[string]interface{}) {
	if err == nil {
		return http.StatusOK, nil
	}

	if he, ok := err.(HeraError); ok {
		body := map[string]interface{}{
			"error":   he.Code(),
			"message": he.Error(),
		}
		if ve, ok := err.(*ValidationError); ok && len(ve.Fields) > 0 {
			body["fields"] = ve.Fields
		}
		if ce, ok := err.(*ConflictError); ok && ce.ErrorCode == "VERSION_CONFLICT" {
			body["expected_version"] = ce.ExpectedVersion
			body["actual_version"] = ce.ActualVersion
		}
		return he.HTTPStatus(), body
	}

	return http.StatusInternalServerError, map[string]interface{}{
		"error":   "INTERNAL_ERROR",
		"message": "internal server error",
	}
}
