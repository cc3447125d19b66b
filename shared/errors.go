package shared

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	ErrorCategoryValidation ErrorCategory = "validation"
	ErrorCategoryNotFound   ErrorCategory = "not_found"
	ErrorCategoryDatabase   ErrorCategory = "database"
)

// Sentinels for errors.Is checks against a ServiceError category
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUpstream     = errors.New("upstream failure")
)

// ServiceError represents a standardized error with additional context
type ServiceError struct {
	Category    ErrorCategory `json:"category"`
	Code        string        `json:"code"`
	Message     string        `json:"message"`
	Details     interface{}   `json:"details,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
	ServiceName string        `json:"service_name"`
	Operation   string        `json:"operation"`
	Cause       error         `json:"-"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// Is matches the category sentinels
func (e *ServiceError) Is(target error) bool {
	switch target {
	case ErrInvalidInput:
		return e.Category == ErrorCategoryValidation
	case ErrNotFound:
		return e.Category == ErrorCategoryNotFound
	case ErrUpstream:
		return e.Category == ErrorCategoryDatabase
	}
	return false
}

// NewServiceError creates a new service error
func NewServiceError(category ErrorCategory, code, message, serviceName, operation string, cause error) *ServiceError {
	return &ServiceError{
		Category:    category,
		Code:        code,
		Message:     message,
		Timestamp:   time.Now(),
		ServiceName: serviceName,
		Operation:   operation,
		Cause:       cause,
	}
}

func NewValidationError(code, message, serviceName, operation string) *ServiceError {
	return NewServiceError(ErrorCategoryValidation, code, message, serviceName, operation, nil)
}

func NewNotFoundError(code, message, serviceName, operation string) *ServiceError {
	return NewServiceError(ErrorCategoryNotFound, code, message, serviceName, operation, nil)
}

// WithDetails adds additional details to the error
func (e *ServiceError) WithDetails(details interface{}) *ServiceError {
	e.Details = details
	return e
}

// LogError logs the error with structured fields
func (e *ServiceError) LogError() {
	entry := logrus.WithFields(logrus.Fields{
		"error_category":   e.Category,
		"error_code":       e.Code,
		"error_message":    e.Message,
		"service_name":     e.ServiceName,
		"operation":        e.Operation,
		"details":          e.Details,
		"underlying_error": e.Cause,
	})
	if e.Category == ErrorCategoryDatabase {
		entry.Error("Service error occurred")
		return
	}
	entry.Warn("Service error occurred")
}

// WrapError wraps a store failure as an upstream error. Errors that already carry
// a category are passed through with updated context.
func WrapError(err error, code, serviceName, operation string) *ServiceError {
	if err == nil {
		return nil
	}

	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		serviceErr.ServiceName = serviceName
		serviceErr.Operation = operation
		return serviceErr
	}

	return NewServiceError(ErrorCategoryDatabase, code, err.Error(), serviceName, operation, err)
}

// CategoryOf returns the category of err, or "" for uncategorized errors
func CategoryOf(err error) ErrorCategory {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Category
	}
	return ""
}
