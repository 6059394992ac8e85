package model

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode identifies a class of service failure. Codes are part of the API
// surface and must stay stable across releases.
type ErrorCode string

const (
	// Identifier errors
	CodeInvalidEncounterID ErrorCode = "INVALID_ENCOUNTER_ID"
	CodeInvalidCharacterID ErrorCode = "INVALID_CHARACTER_ID"
	CodeInvalidOwnerID     ErrorCode = "INVALID_OWNER_ID"
	CodeInvalidUserID      ErrorCode = "INVALID_USER_ID"

	// Authorization errors
	CodeUnauthorizedAccess ErrorCode = "UNAUTHORIZED_ACCESS"

	// Resource errors
	CodeCharacterNotFound ErrorCode = "CHARACTER_NOT_FOUND"
	CodeEncounterNotFound ErrorCode = "ENCOUNTER_NOT_FOUND"
	CodeUserNotFound      ErrorCode = "USER_NOT_FOUND"

	// Limit errors
	CodeCharacterLimitExceeded ErrorCode = "CHARACTER_LIMIT_EXCEEDED"
	CodeEncounterLimitExceeded ErrorCode = "ENCOUNTER_LIMIT_EXCEEDED"

	// Validation errors
	CodeInvalidCharacterData  ErrorCode = "INVALID_CHARACTER_DATA"
	CodeInvalidEncounterData  ErrorCode = "INVALID_ENCOUNTER_DATA"
	CodeInvalidUserData       ErrorCode = "INVALID_USER_DATA"
	CodeInvalidCharacterLevel ErrorCode = "INVALID_CHARACTER_LEVEL"
	CodeInvalidSearchCriteria ErrorCode = "INVALID_SEARCH_CRITERIA"
	CodeInvalidJSONFormat     ErrorCode = "INVALID_JSON_FORMAT"
	CodeNoCharactersProvided  ErrorCode = "NO_CHARACTERS_PROVIDED"

	// Internal errors
	CodeDatabaseError   ErrorCode = "DATABASE_ERROR"
	CodeOperationFailed ErrorCode = "OPERATION_FAILED"
)

// statusByCode pairs each error code with the HTTP status reported at the API
// boundary.
var statusByCode = map[ErrorCode]int{
	CodeInvalidEncounterID:     http.StatusBadRequest,
	CodeInvalidCharacterID:     http.StatusBadRequest,
	CodeInvalidOwnerID:         http.StatusBadRequest,
	CodeInvalidUserID:          http.StatusBadRequest,
	CodeUnauthorizedAccess:     http.StatusForbidden,
	CodeCharacterNotFound:      http.StatusNotFound,
	CodeEncounterNotFound:      http.StatusNotFound,
	CodeUserNotFound:           http.StatusNotFound,
	CodeCharacterLimitExceeded: http.StatusUnprocessableEntity,
	CodeEncounterLimitExceeded: http.StatusUnprocessableEntity,
	CodeInvalidCharacterData:   http.StatusUnprocessableEntity,
	CodeInvalidEncounterData:   http.StatusUnprocessableEntity,
	CodeInvalidUserData:        http.StatusUnprocessableEntity,
	CodeInvalidCharacterLevel:  http.StatusUnprocessableEntity,
	CodeInvalidSearchCriteria:  http.StatusBadRequest,
	CodeInvalidJSONFormat:      http.StatusBadRequest,
	CodeNoCharactersProvided:   http.StatusBadRequest,
	CodeDatabaseError:          http.StatusInternalServerError,
	CodeOperationFailed:        http.StatusInternalServerError,
}

// HTTPStatus returns the HTTP status associated with the code.
func (c ErrorCode) HTTPStatus() int {
	if status, ok := statusByCode[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ServiceError describes a failed operation.
type ServiceError struct {
	Message    string    `json:"message"`
	Code       ErrorCode `json:"code"`
	StatusCode int       `json:"statusCode"`
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewServiceError creates a ServiceError with the status derived from the code.
func NewServiceError(code ErrorCode, message string) *ServiceError {
	return &ServiceError{
		Message:    message,
		Code:       code,
		StatusCode: code.HTTPStatus(),
	}
}

// ServiceResult is the discriminated success/failure type returned by every
// service operation. Exactly one of Data or Error is meaningful, selected by
// Success.
type ServiceResult[T any] struct {
	Success bool          `json:"success"`
	Data    T             `json:"data,omitempty"`
	Error   *ServiceError `json:"error,omitempty"`
}

// OK wraps data in a success result.
func OK[T any](data T) ServiceResult[T] {
	return ServiceResult[T]{Success: true, Data: data}
}

// Fail wraps an existing error in a failure result.
func Fail[T any](err *ServiceError) ServiceResult[T] {
	return ServiceResult[T]{Success: false, Error: err}
}

// Failf builds a failure result from a code and a format string.
func Failf[T any](code ErrorCode, format string, args ...any) ServiceResult[T] {
	return Fail[T](NewServiceError(code, fmt.Sprintf(format, args...)))
}

// FieldError represents a validation failure on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// JoinFieldErrors flattens field errors into a single comma-joined message so
// every violation is reported together.
func JoinFieldErrors(errs []FieldError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, ", ")
}
