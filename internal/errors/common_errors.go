package errors

import (
	"fmt"
	"net/http"
)

// ErrorType classifies failures of dataset operations
type ErrorType string

const (
	ErrTypeUnsupportedFormat ErrorType = "UNSUPPORTED_FORMAT"
	ErrTypeNoDataset         ErrorType = "NO_DATASET_LOADED"
	ErrTypeInvalidArgument   ErrorType = "INVALID_ARGUMENT"
	ErrTypeNotFound          ErrorType = "NOT_FOUND"
	ErrTypeProcessing        ErrorType = "PROCESSING"
)

// StatusCode returns the HTTP status reported for the type
func (t ErrorType) StatusCode() int {
	switch t {
	case ErrTypeUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case ErrTypeNoDataset:
		return http.StatusConflict
	case ErrTypeInvalidArgument:
		return http.StatusBadRequest
	case ErrTypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ProblemType returns the RFC 7807 type URI for the type
func (t ErrorType) ProblemType() string {
	switch t {
	case ErrTypeUnsupportedFormat:
		return TypeUnsupportedFormat
	case ErrTypeNoDataset:
		return TypeNoDataset
	case ErrTypeInvalidArgument:
		return TypeValidation
	case ErrTypeNotFound:
		return TypeNotFound
	default:
		return TypeProcessing
	}
}

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Messages shown to clients for the fixed-text failures
const (
	MsgUnsupportedFormat = "Unsupported file format! Only CSV or Excel allowed."
	MsgNoDataset         = "No dataset loaded!"
)

// NewUnsupportedFormatError creates an unsupported-format error
func NewUnsupportedFormatError(cause error) *AppError {
	return NewAppError(ErrTypeUnsupportedFormat, MsgUnsupportedFormat, cause)
}

// NewNoDatasetError reports an operation issued before any upload
func NewNoDatasetError() *AppError {
	return NewAppError(ErrTypeNoDataset, MsgNoDataset, nil)
}

// NewInvalidArgumentError creates an invalid-argument error
func NewInvalidArgumentError(message string, cause error) *AppError {
	return NewAppError(ErrTypeInvalidArgument, message, cause)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewProcessingError wraps an unexpected failure inside an operation
func NewProcessingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeProcessing, message, cause)
}
